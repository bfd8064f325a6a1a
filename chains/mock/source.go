package mock

import (
	"context"
	"fmt"

	"github.com/hyperledger-labs/yui-lane-relayer/core"
)

// SourceChain is the race source client of a simulated lane.
type SourceChain struct {
	lane *Lane
}

var _ core.SourceClient[core.MessageDetailsList] = (*SourceChain)(nil)

func (c *SourceChain) State(_ context.Context) (core.ClientState, error) {
	l := c.lane
	l.mu.Lock()
	defer l.mu.Unlock()

	peer := l.finalizedTarget().id
	return core.ClientState{
		BestSelf:                    l.sourceBlocks[len(l.sourceBlocks)-1].id,
		BestFinalizedSelf:           l.finalizedSource().id,
		BestFinalizedPeerAtBestSelf: &peer,
	}, nil
}

func (c *SourceChain) Nonces(_ context.Context, atBlock core.HeaderID, prevLatestNonce core.MessageNonce) (core.HeaderID, core.SourceClientNonces[core.MessageDetailsList], error) {
	l := c.lane
	l.mu.Lock()
	defer l.mu.Unlock()

	block, err := l.sourceBlock(atBlock)
	if err != nil {
		return core.HeaderID{}, core.SourceClientNonces[core.MessageDetailsList]{}, err
	}
	var newNonces core.MessageDetailsList
	if prevLatestNonce < block.latestNonce {
		newNonces = core.NewMessageDetailsList(l.messages[prevLatestNonce:block.latestNonce]...)
	}
	confirmed := block.confirmedNonce
	return block.id, core.SourceClientNonces[core.MessageDetailsList]{
		NewNonces:      newNonces,
		ConfirmedNonce: &confirmed,
	}, nil
}

func (c *SourceChain) GenerateProof(_ context.Context, atBlock core.HeaderID, nonces core.NonceInterval, params core.ProofParameters) (core.HeaderID, core.NonceInterval, core.Proof, error) {
	l := c.lane
	l.mu.Lock()
	defer l.mu.Unlock()

	block, err := l.sourceBlock(atBlock)
	if err != nil {
		return core.HeaderID{}, core.NonceInterval{}, nil, err
	}
	if nonces.Begin() == 0 || nonces.End() > block.latestNonce {
		return core.HeaderID{}, core.NonceInterval{}, nil, fmt.Errorf("nonces %v are not sent at %v", nonces, atBlock)
	}

	p := MessagesProof{
		LaneID:   l.id,
		AtBlock:  block.id,
		Messages: append([]core.MessageDetails(nil), l.messages[nonces.Begin()-1:nonces.End()]...),
	}
	if params.OutboundStateProofRequired {
		confirmed := block.confirmedNonce
		p.ConfirmedNonce = &confirmed
	}
	proof, err := p.Encode()
	if err != nil {
		return core.HeaderID{}, core.NonceInterval{}, nil, fmt.Errorf("failed to encode proof: %v", err)
	}
	return block.id, nonces, proof, nil
}
