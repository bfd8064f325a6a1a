package relayers

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// LaneRegistration is a bid of a relayer to deliver messages of a lane.
type LaneRegistration struct {
	Relayer sdk.AccAddress `json:"relayer"`
	// Reward is the reward per delivered message the relayer asks for.
	Reward math.Int `json:"reward"`
}

func NewLaneRegistration(relayer sdk.AccAddress, reward math.Int) LaneRegistration {
	return LaneRegistration{Relayer: relayer, Reward: reward}
}

// ActiveLaneRegistration is a registration of the active set.
type ActiveLaneRegistration struct {
	LaneRegistration
	// IsMergeable is true once the relayer has delivered a message in the current epoch.
	IsMergeable bool `json:"is_mergeable"`
}

// Registration is a relayer-wide registration lease.
type Registration struct {
	// ValidTill is the last block where the registration is valid.
	ValidTill uint64 `json:"valid_till"`
	// Stake is the stake reserved by the relayer.
	Stake math.Int `json:"stake"`
}

// IsActive returns true if the registration is backed by the required stake and does not
// end within the required lease.
func (r Registration) IsActive(params Params, currentBlock uint64) bool {
	if r.Stake.IsNil() || r.Stake.LT(params.RequiredStake) {
		return false
	}
	return remainingLease(r.ValidTill, currentBlock) > params.RequiredRegistrationLease
}

func remainingLease(validTill, currentBlock uint64) uint64 {
	if validTill <= currentBlock {
		return 0
	}
	return validTill - currentBlock
}
