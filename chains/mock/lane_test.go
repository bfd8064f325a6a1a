package mock

import (
	"context"
	"errors"
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger-labs/yui-lane-relayer/config"
	"github.com/hyperledger-labs/yui-lane-relayer/core"
)

var testRelayer = sdk.AccAddress("test-relayer-0000000")

type recordedHooks struct {
	blocks    []uint64
	delivered []core.NonceInterval
	err       error
}

func (h *recordedHooks) OnTargetBlock(_ context.Context, _ string, number uint64) error {
	h.blocks = append(h.blocks, number)
	return h.err
}

func (h *recordedHooks) OnMessagesDelivered(_ context.Context, _ string, relayer sdk.AccAddress, nonces core.NonceInterval) error {
	if !relayer.Equals(testRelayer) {
		return errors.New("unexpected relayer")
	}
	h.delivered = append(h.delivered, nonces)
	return nil
}

func newTestLane(hooks config.LaneHooks) *Lane {
	cfg := config.MockChainConfig{
		MessagesPerBlock: 2,
		FinalityDelay:    1,
		DispatchWeight:   10,
		MessageSize:      1,
		MessageReward:    1,
	}
	limits := core.DeliveryLimits{
		MaxUnrewardedRelayerEntriesAtTarget: 2,
		MaxMessagesInSingleBatch:            4,
	}
	return NewLane("lane", cfg, limits, testRelayer, hooks)
}

func TestSourceNonces(t *testing.T) {
	ctx := context.Background()
	lane := newTestLane(nil)
	src := lane.Source()

	lane.SendMessages(3)
	lane.ProduceSourceBlock()
	lane.SendMessages(2)
	at := lane.ProduceSourceBlock()

	state, err := src.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, at, state.BestSelf)
	assert.Equal(t, uint64(1), state.BestFinalizedSelf.Number)

	atBlock, nonces, err := src.Nonces(ctx, at, 2)
	require.NoError(t, err)
	assert.Equal(t, at, atBlock)
	assert.Equal(t, core.NewNonceInterval(3, 5), nonces.NewNonces.Interval())
	assert.Equal(t, uint64(0), *nonces.ConfirmedNonce)

	_, nonces, err = src.Nonces(ctx, state.BestFinalizedSelf, 3)
	require.NoError(t, err)
	assert.Empty(t, nonces.NewNonces)

	_, _, err = src.Nonces(ctx, core.NewHeaderID(at.Number, []byte{1}), 0)
	assert.ErrorContains(t, err, "unknown source block")
}

func TestGenerateProof(t *testing.T) {
	ctx := context.Background()
	lane := newTestLane(nil)
	lane.SendMessages(3)
	at := lane.ProduceSourceBlock()

	_, proved, proof, err := lane.Source().GenerateProof(ctx, at, core.NewNonceInterval(2, 3), core.ProofParameters{OutboundStateProofRequired: true})
	require.NoError(t, err)
	assert.Equal(t, core.NewNonceInterval(2, 3), proved)

	p, err := DecodeMessagesProof(proof)
	require.NoError(t, err)
	assert.Equal(t, "lane", p.LaneID)
	assert.Equal(t, at, p.AtBlock)
	require.Len(t, p.Messages, 2)
	assert.Equal(t, uint64(2), p.Messages[0].Nonce)
	require.NotNil(t, p.ConfirmedNonce)

	_, _, _, err = lane.Source().GenerateProof(ctx, at, core.NewNonceInterval(3, 4), core.ProofParameters{})
	assert.ErrorContains(t, err, "are not sent")
}

func TestDeliverMessages(t *testing.T) {
	ctx := context.Background()
	hooks := &recordedHooks{}
	lane := newTestLane(hooks)
	src, dst := lane.Source(), lane.Target()

	lane.SendMessages(4)
	at := lane.ProduceSourceBlock()
	lane.ProduceSourceBlock()

	_, _, proof, err := src.GenerateProof(ctx, at, core.NewNonceInterval(1, 2), core.ProofParameters{})
	require.NoError(t, err)

	// the target does not know the source header yet
	_, err = dst.SubmitProof(ctx, at, core.NewNonceInterval(1, 2), proof)
	assert.ErrorContains(t, err, "unknown to the target")

	require.NoError(t, dst.RequireSourceHeader(ctx, at))
	_, err = lane.ProduceTargetBlock(ctx)
	require.NoError(t, err)
	state, err := dst.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, at, *state.BestFinalizedPeerAtBestSelf)

	_, err = dst.SubmitProof(ctx, at, core.NewNonceInterval(2, 2), proof)
	assert.ErrorContains(t, err, "proof does not contain nonces")

	submitted, err := dst.SubmitProof(ctx, at, core.NewNonceInterval(1, 2), proof)
	require.NoError(t, err)
	assert.Equal(t, core.NewNonceInterval(1, 2), submitted)

	_, err = dst.SubmitProof(ctx, at, core.NewNonceInterval(1, 2), proof)
	assert.ErrorContains(t, err, "the next nonce is 3")

	best, err := lane.ProduceTargetBlock(ctx)
	require.NoError(t, err)
	_, nonces, err := dst.Nonces(ctx, best, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), nonces.LatestNonce)
	assert.Equal(t, uint64(0), nonces.Data.ConfirmedNonce)
	assert.Equal(t, uint64(1), nonces.Data.UnrewardedRelayers.UnrewardedRelayerEntries)
	assert.Equal(t, uint64(2), nonces.Data.UnrewardedRelayers.MessagesInOldestEntry)

	// the delivery is confirmed once it is finalized
	best, err = lane.ProduceTargetBlock(ctx)
	require.NoError(t, err)
	_, nonces, err = dst.Nonces(ctx, best, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), nonces.Data.ConfirmedNonce)
	assert.Equal(t, uint64(0), nonces.Data.UnrewardedRelayers.UnrewardedRelayerEntries)

	assert.Equal(t, []uint64{1, 2, 3}, hooks.blocks)
	assert.Equal(t, []core.NonceInterval{core.NewNonceInterval(1, 2)}, hooks.delivered)
}

func TestDeliverConfirmationsWithoutMessages(t *testing.T) {
	ctx := context.Background()
	hooks := &recordedHooks{}
	lane := newTestLane(hooks)
	src, dst := lane.Source(), lane.Target()

	lane.SendMessages(2)
	at := lane.ProduceSourceBlock()
	lane.ProduceSourceBlock()
	require.NoError(t, dst.RequireSourceHeader(ctx, at))
	_, err := lane.ProduceTargetBlock(ctx)
	require.NoError(t, err)

	delivered := core.NewNonceInterval(1, 2)
	_, _, proof, err := src.GenerateProof(ctx, at, delivered, core.ProofParameters{})
	require.NoError(t, err)
	_, err = dst.SubmitProof(ctx, at, delivered, proof)
	require.NoError(t, err)
	// the delivery stays unconfirmed until a confirmation is proved
	lane.cfg.FinalityDelay = 10
	_, err = lane.ProduceTargetBlock(ctx)
	require.NoError(t, err)

	empty := core.NewNonceInterval(1, 0)
	_, proved, proof, err := src.GenerateProof(ctx, at, empty, core.ProofParameters{})
	require.NoError(t, err)
	assert.True(t, proved.IsEmpty())
	_, err = dst.SubmitProof(ctx, at, empty, proof)
	assert.ErrorContains(t, err, "must prove the confirmed nonce")

	confirmed := core.MessageNonce(2)
	proof, err = MessagesProof{LaneID: "lane", AtBlock: at, ConfirmedNonce: &confirmed}.Encode()
	require.NoError(t, err)
	submitted, err := dst.SubmitProof(ctx, at, empty, proof)
	require.NoError(t, err)
	assert.True(t, submitted.IsEmpty())

	best, err := lane.ProduceTargetBlock(ctx)
	require.NoError(t, err)
	_, nonces, err := dst.Nonces(ctx, best, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), nonces.LatestNonce)
	assert.Equal(t, uint64(2), nonces.Data.ConfirmedNonce)
	assert.Equal(t, uint64(0), nonces.Data.UnrewardedRelayers.UnrewardedRelayerEntries)
	assert.Equal(t, []core.NonceInterval{delivered}, hooks.delivered)
}

func TestRequireSourceHeaderMustBeFinalized(t *testing.T) {
	ctx := context.Background()
	lane := newTestLane(nil)
	lane.ProduceSourceBlock()
	best := lane.ProduceSourceBlock()

	assert.ErrorContains(t, lane.Target().RequireSourceHeader(ctx, best), "not finalized")
	assert.ErrorContains(t, lane.Target().RequireSourceHeader(ctx, core.NewHeaderID(7, nil)), "unknown source block")
}

func TestSubmitProofLimits(t *testing.T) {
	ctx := context.Background()
	lane := newTestLane(nil)
	src, dst := lane.Source(), lane.Target()

	lane.SendMessages(10)
	at := lane.ProduceSourceBlock()
	lane.ProduceSourceBlock()
	require.NoError(t, dst.RequireSourceHeader(ctx, at))
	_, err := lane.ProduceTargetBlock(ctx)
	require.NoError(t, err)

	submit := func(begin, end uint64) error {
		nonces := core.NewNonceInterval(begin, end)
		_, _, proof, err := src.GenerateProof(ctx, at, nonces, core.ProofParameters{})
		require.NoError(t, err)
		_, err = dst.SubmitProof(ctx, at, nonces, proof)
		return err
	}

	assert.ErrorContains(t, submit(1, 5), "too many messages")
	require.NoError(t, submit(1, 1))
	require.NoError(t, submit(2, 2))
	assert.ErrorContains(t, submit(3, 3), "too many unrewarded relayer entries")
}

func TestDropSubmissions(t *testing.T) {
	ctx := context.Background()
	lane := newTestLane(nil)
	lane.cfg.DropSubmissions = true

	lane.SendMessages(1)
	at := lane.ProduceSourceBlock()
	lane.ProduceSourceBlock()
	require.NoError(t, lane.Target().RequireSourceHeader(ctx, at))
	_, err := lane.ProduceTargetBlock(ctx)
	require.NoError(t, err)

	_, _, proof, err := lane.Source().GenerateProof(ctx, at, core.NewNonceInterval(1, 1), core.ProofParameters{})
	require.NoError(t, err)
	_, err = lane.Target().SubmitProof(ctx, at, core.NewNonceInterval(1, 1), proof)
	require.NoError(t, err)

	best, err := lane.ProduceTargetBlock(ctx)
	require.NoError(t, err)
	_, nonces, err := lane.Target().Nonces(ctx, best, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), nonces.LatestNonce)
}

func TestMessagesToSend(t *testing.T) {
	lane := newTestLane(nil)
	lane.cfg.MaxMessages = 3

	require.NoError(t, lane.ProduceBlocks(context.Background()))
	require.NoError(t, lane.ProduceBlocks(context.Background()))
	require.NoError(t, lane.ProduceBlocks(context.Background()))
	assert.Len(t, lane.messages, 3)
}

func TestHookErrors(t *testing.T) {
	hooks := &recordedHooks{err: errors.New("boom")}
	lane := newTestLane(hooks)
	_, err := lane.ProduceTargetBlock(context.Background())
	assert.ErrorContains(t, err, "boom")
}
