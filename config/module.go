package config

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/hyperledger-labs/yui-lane-relayer/core"
)

// ModuleI defines an interface of Module
type ModuleI interface {
	// Name returns the name of the module
	Name() string

	// NewLane returns the race clients of the given lane. relayer is the account that
	// submits delivery transactions.
	NewLane(ctx context.Context, cfg LaneConfig, relayer sdk.AccAddress, hooks LaneHooks) (*Lane, error)
}

// Lane is a pair of race clients.
type Lane struct {
	Source core.SourceClient[core.MessageDetailsList]
	Target core.TargetClient
}

// LaneHooks is notified about the blocks of the target chain of a lane.
type LaneHooks interface {
	// OnTargetBlock is called for every new block of the target chain.
	OnTargetBlock(ctx context.Context, laneID string, number uint64) error
	// OnMessagesDelivered is called when a block of the target chain includes messages
	// delivered by relayer.
	OnMessagesDelivered(ctx context.Context, laneID string, relayer sdk.AccAddress, nonces core.NonceInterval) error
}
