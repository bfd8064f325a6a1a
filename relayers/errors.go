package relayers

import (
	errorsmod "cosmossdk.io/errors"
)

const ModuleName = "relayers"

// relayers module sentinel errors
var (
	ErrInvalidRegistrationLease      = errorsmod.Register(ModuleName, 2, "invalid registration lease")
	ErrCannotReduceRegistrationLease = errorsmod.Register(ModuleName, 3, "cannot reduce registration lease")
	ErrRegistrationIsStillActive     = errorsmod.Register(ModuleName, 4, "registration is still active")
	ErrUnknownRelayer                = errorsmod.Register(ModuleName, 5, "unknown relayer")
	ErrInactiveRegistration          = errorsmod.Register(ModuleName, 6, "registration is not active")
	ErrTooLowReward                  = errorsmod.Register(ModuleName, 7, "reward is too low to get into the next set")
	ErrInvalidParams                 = errorsmod.Register(ModuleName, 8, "invalid params")
	ErrInvalidReward                 = errorsmod.Register(ModuleName, 9, "invalid reward")
)
