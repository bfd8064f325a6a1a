package relayers

import (
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
)

// Params are the parameters of relayer registrations and lane rotations.
type Params struct {
	ActiveSetCapacity uint32 `json:"active_set_capacity"`
	NextSetCapacity   uint32 `json:"next_set_capacity"`
	// EpochLength is the number of blocks between two rotations of a lane.
	EpochLength   uint64   `json:"epoch_length"`
	RequiredStake math.Int `json:"required_stake"`
	// RequiredRegistrationLease is the number of blocks a registration must stay valid for.
	RequiredRegistrationLease uint64 `json:"required_registration_lease"`
}

func DefaultParams() Params {
	return Params{
		ActiveSetCapacity:         8,
		NextSetCapacity:           16,
		EpochLength:               300,
		RequiredStake:             math.NewInt(1_000_000),
		RequiredRegistrationLease: 1_000,
	}
}

func (p Params) Validate() error {
	if p.ActiveSetCapacity == 0 {
		return errorsmod.Wrap(ErrInvalidParams, "active set capacity must be positive")
	}
	if p.NextSetCapacity < p.ActiveSetCapacity {
		return errorsmod.Wrapf(ErrInvalidParams, "next set capacity %d is less than active set capacity %d", p.NextSetCapacity, p.ActiveSetCapacity)
	}
	if p.EpochLength == 0 {
		return errorsmod.Wrap(ErrInvalidParams, "epoch length must be positive")
	}
	if p.RequiredStake.IsNil() || p.RequiredStake.IsNegative() {
		return errorsmod.Wrap(ErrInvalidParams, "required stake must not be negative")
	}
	return nil
}
