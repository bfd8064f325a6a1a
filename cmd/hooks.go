package cmd

import (
	"context"
	"errors"
	"sync"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/hyperledger-labs/yui-lane-relayer/config"
	"github.com/hyperledger-labs/yui-lane-relayer/core"
	"github.com/hyperledger-labs/yui-lane-relayer/log"
	"github.com/hyperledger-labs/yui-lane-relayer/relayers"
)

// keeperHooks rotates the relayers of a lane on the blocks of its target chain.
// Lanes run concurrently, so every keeper call is serialized.
type keeperHooks struct {
	mu     sync.Mutex
	keeper *relayers.Keeper
}

var _ config.LaneHooks = (*keeperHooks)(nil)

func newKeeperHooks(keeper *relayers.Keeper) *keeperHooks {
	return &keeperHooks{keeper: keeper}
}

func (h *keeperHooks) OnTargetBlock(ctx context.Context, laneID string, number uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.keeper.RotateLane(ctx, laneID, number)
	return err
}

func (h *keeperHooks) OnMessagesDelivered(ctx context.Context, laneID string, relayer sdk.AccAddress, nonces core.NonceInterval) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	noted, err := h.keeper.NoteDeliveredMessage(laneID, relayer)
	if err != nil {
		return err
	}
	if noted {
		log.GetLogger().WithLane(laneID).WithModule("relayers.keeper").DebugContext(ctx,
			"relayer delivered messages in the current epoch",
			"relayer", relayer.String(),
			"nonces", nonces.String(),
		)
	}
	return nil
}

// registerRelayer registers the relayer unless it is active already and bids at every lane.
// Lanes start at their genesis block.
func (h *keeperHooks) registerRelayer(ctx context.Context, relayer sdk.AccAddress, validTill uint64, lanes []config.LaneConfig) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	logger := log.GetLogger().WithModule("relayers.keeper")

	active, err := h.keeper.IsRegistrationActive(relayer, 0)
	if err != nil {
		return err
	}
	if !active {
		if err := h.keeper.Register(relayer, validTill, 0); err != nil {
			logger.ErrorContext(ctx, "failed to register relayer", err, "relayer", relayer.String())
			return err
		}
	}

	for _, lane := range lanes {
		logger := logger.WithLane(lane.ID)
		reward, err := lane.GetReward()
		if err != nil {
			return err
		}
		err = h.keeper.RegisterAtLane(lane.ID, relayer, reward, 0)
		switch {
		case errors.Is(err, relayers.ErrTooLowReward):
			logger.WarnContext(ctx, "bid is too high to get into the next set", "reward", reward.String())
		case err != nil:
			logger.ErrorContext(ctx, "failed to register relayer at lane", err)
			return err
		default:
			logger.InfoContext(ctx, "registered relayer at lane", "relayer", relayer.String(), "reward", reward.String())
		}
	}
	return nil
}
