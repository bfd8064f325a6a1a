package mock

import (
	"context"
	"fmt"

	"github.com/hyperledger-labs/yui-lane-relayer/core"
)

// TargetChain is the race target client of a simulated lane.
type TargetChain struct {
	lane *Lane
}

var _ core.TargetClient = (*TargetChain)(nil)

func (c *TargetChain) State(_ context.Context) (core.ClientState, error) {
	l := c.lane
	l.mu.Lock()
	defer l.mu.Unlock()

	best := l.targetBlocks[len(l.targetBlocks)-1]
	peer := best.sourceHeader
	return core.ClientState{
		BestSelf:                    best.id,
		BestFinalizedSelf:           l.finalizedTarget().id,
		BestFinalizedPeerAtBestSelf: &peer,
	}, nil
}

func (c *TargetChain) Nonces(_ context.Context, atBlock core.HeaderID, _ bool) (core.HeaderID, core.TargetClientNonces, error) {
	l := c.lane
	l.mu.Lock()
	defer l.mu.Unlock()

	block, err := l.targetBlock(atBlock)
	if err != nil {
		return core.HeaderID{}, core.TargetClientNonces{}, err
	}

	unrewarded := core.UnrewardedRelayersState{
		UnrewardedRelayerEntries: uint64(len(block.unrewarded)),
		LastDeliveredNonce:       block.receivedNonce,
	}
	for i, entry := range block.unrewarded {
		if i == 0 {
			unrewarded.MessagesInOldestEntry = entry.nonces.Len()
		}
		unrewarded.TotalMessages += entry.nonces.Len()
	}
	return block.id, core.TargetClientNonces{
		LatestNonce: block.receivedNonce,
		Data: &core.TargetNoncesData{
			ConfirmedNonce:     block.confirmedNonce,
			UnrewardedRelayers: unrewarded,
		},
	}, nil
}

// RequireSourceHeader makes the next target block import the given finalized source header.
func (c *TargetChain) RequireSourceHeader(_ context.Context, id core.HeaderID) error {
	l := c.lane
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.sourceBlock(id); err != nil {
		return err
	}
	if finalized := l.finalizedSource(); id.Number > finalized.id.Number {
		return fmt.Errorf("source header %v is not finalized yet", id)
	}
	if l.requiredHeader == nil || id.Number > l.requiredHeader.Number {
		l.requiredHeader = &id
	}
	return nil
}

// SubmitProof verifies the proof and queues the delivery transaction for the next target block.
// A delivery without messages is accepted if it proves the confirmed nonce of the source.
func (c *TargetChain) SubmitProof(ctx context.Context, generatedAt core.HeaderID, nonces core.NonceInterval, proof core.Proof) (core.NonceInterval, error) {
	p, err := DecodeMessagesProof(proof)
	if err != nil {
		return core.NonceInterval{}, fmt.Errorf("failed to decode proof: %v", err)
	}

	l := c.lane
	l.mu.Lock()
	defer l.mu.Unlock()

	if p.LaneID != l.id || !p.AtBlock.Equal(generatedAt) {
		return core.NonceInterval{}, fmt.Errorf("proof of lane %s at %v does not match lane %s at %v", p.LaneID, p.AtBlock, l.id, generatedAt)
	}
	if uint64(len(p.Messages)) != nonces.Len() || (len(p.Messages) > 0 && p.Messages[0].Nonce != nonces.Begin()) {
		return core.NonceInterval{}, fmt.Errorf("proof does not contain nonces %v", nonces)
	}

	best := l.targetBlocks[len(l.targetBlocks)-1]
	if generatedAt.Number > best.sourceHeader.Number {
		return core.NonceInterval{}, fmt.Errorf("source header %v is unknown to the target", generatedAt)
	}
	if nonces.IsEmpty() {
		if p.ConfirmedNonce == nil {
			return core.NonceInterval{}, fmt.Errorf("delivery without messages must prove the confirmed nonce")
		}
	} else if err := l.checkDelivery(best, nonces); err != nil {
		return core.NonceInterval{}, err
	}

	if l.cfg.DropSubmissions {
		l.getLogger().WarnContext(ctx, "dropping submitted proof", "nonces", nonces.String())
		return nonces, nil
	}
	l.pending = append(l.pending, delivery{relayer: l.relayer, nonces: nonces, confirmedNonce: p.ConfirmedNonce})
	return nonces, nil
}

// checkDelivery checks that nonces follow the received and pending nonces and fit into the lane.
func (l *Lane) checkDelivery(best targetBlock, nonces core.NonceInterval) error {
	expected := best.receivedNonce + 1
	entries := uint64(len(best.unrewarded))
	for _, d := range l.pending {
		if !d.nonces.IsEmpty() {
			expected = d.nonces.End() + 1
			entries++
		}
	}
	if nonces.Begin() != expected {
		return fmt.Errorf("unexpected nonces %v, the next nonce is %d", nonces, expected)
	}
	if limit := l.limits.MaxUnrewardedRelayerEntriesAtTarget; limit > 0 && entries >= limit {
		return fmt.Errorf("too many unrewarded relayer entries: %d", entries)
	}
	if limit := l.limits.MaxMessagesInSingleBatch; limit > 0 && nonces.Len() > limit {
		return fmt.Errorf("too many messages in a single batch: %d", nonces.Len())
	}
	return nil
}
