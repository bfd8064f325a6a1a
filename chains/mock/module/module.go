package module

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/hyperledger-labs/yui-lane-relayer/chains/mock"
	"github.com/hyperledger-labs/yui-lane-relayer/config"
	"github.com/hyperledger-labs/yui-lane-relayer/log"
)

type Module struct{}

var _ config.ModuleI = (*Module)(nil)

// Name returns the name of the module
func (Module) Name() string {
	return "mock"
}

// NewLane returns the clients of a simulated lane. If the lane has a block interval, blocks are
// produced in the background until ctx is done.
func (Module) NewLane(ctx context.Context, cfg config.LaneConfig, relayer sdk.AccAddress, hooks config.LaneHooks) (*config.Lane, error) {
	interval, err := cfg.Mock.GetBlockInterval()
	if err != nil {
		return nil, fmt.Errorf("invalid block interval: %v", err)
	}

	lane := mock.NewLane(cfg.ID, cfg.Mock, cfg.Limits, relayer, hooks)
	if interval > 0 {
		go func() {
			if err := lane.Run(ctx, interval); err != nil && !errors.Is(err, context.Canceled) {
				log.GetLogger().WithLane(cfg.ID).WithModule("chains.mock").ErrorContext(ctx, "block production stopped", err)
			}
		}()
	}
	return &config.Lane{
		Source: lane.Source(),
		Target: lane.Target(),
	}, nil
}
