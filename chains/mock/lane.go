package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/math"
	"github.com/cometbft/cometbft/crypto/tmhash"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/hyperledger-labs/yui-lane-relayer/config"
	"github.com/hyperledger-labs/yui-lane-relayer/core"
	"github.com/hyperledger-labs/yui-lane-relayer/log"
)

type sourceBlock struct {
	id             core.HeaderID
	latestNonce    core.MessageNonce
	confirmedNonce core.MessageNonce
}

type unrewardedEntry struct {
	relayer sdk.AccAddress
	nonces  core.NonceInterval
}

type targetBlock struct {
	id             core.HeaderID
	receivedNonce  core.MessageNonce
	confirmedNonce core.MessageNonce
	unrewarded     []unrewardedEntry
	sourceHeader   core.HeaderID
}

type delivery struct {
	relayer sdk.AccAddress
	nonces  core.NonceInterval
	// confirmedNonce is the outbound lane state proved with the messages, if any.
	confirmedNonce *core.MessageNonce
}

// confirm applies a proved confirmed nonce of the source.
func (b *targetBlock) confirm(nonce *core.MessageNonce) {
	if nonce != nil && *nonce > b.confirmedNonce && *nonce <= b.receivedNonce {
		b.confirmedNonce = *nonce
	}
}

// Lane simulates a lane between a source chain and a target chain. Blocks are produced on
// demand or periodically by Run.
type Lane struct {
	mu sync.Mutex

	id      string
	cfg     config.MockChainConfig
	limits  core.DeliveryLimits
	relayer sdk.AccAddress
	hooks   config.LaneHooks

	messages       []core.MessageDetails
	sourceBlocks   []sourceBlock
	targetBlocks   []targetBlock
	pending        []delivery
	requiredHeader *core.HeaderID
}

// NewLane returns a lane with the genesis blocks of both chains. hooks may be nil.
func NewLane(id string, cfg config.MockChainConfig, limits core.DeliveryLimits, relayer sdk.AccAddress, hooks config.LaneHooks) *Lane {
	l := &Lane{
		id:      id,
		cfg:     cfg,
		limits:  limits,
		relayer: relayer,
		hooks:   hooks,
	}
	l.sourceBlocks = []sourceBlock{{id: l.headerID("source", 0)}}
	l.targetBlocks = []targetBlock{{
		id:           l.headerID("target", 0),
		sourceHeader: l.sourceBlocks[0].id,
	}}
	return l
}

func (l *Lane) ID() string {
	return l.id
}

func (l *Lane) Source() *SourceChain {
	return &SourceChain{lane: l}
}

func (l *Lane) Target() *TargetChain {
	return &TargetChain{lane: l}
}

// SendMessages queues n messages at the source. They are included in the next source block.
func (l *Lane) SendMessages(n uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := uint64(0); i < n; i++ {
		l.messages = append(l.messages, core.MessageDetails{
			Nonce:          uint64(len(l.messages)) + 1,
			DispatchWeight: l.cfg.DispatchWeight,
			Size:           l.cfg.MessageSize,
			Reward:         math.NewInt(l.cfg.MessageReward),
		})
	}
}

// ProduceSourceBlock produces a source block including all sent messages.
func (l *Lane) ProduceSourceBlock() core.HeaderID {
	l.mu.Lock()
	defer l.mu.Unlock()

	number := l.sourceBlocks[len(l.sourceBlocks)-1].id.Number + 1
	block := sourceBlock{
		id:             l.headerID("source", number),
		latestNonce:    uint64(len(l.messages)),
		confirmedNonce: l.targetBlocks[len(l.targetBlocks)-1].confirmedNonce,
	}
	l.sourceBlocks = append(l.sourceBlocks, block)
	return block.id
}

// ProduceTargetBlock produces a target block including the pending deliveries and the
// required source header. Messages are confirmed once their delivery is finalized.
func (l *Lane) ProduceTargetBlock(ctx context.Context) (core.HeaderID, error) {
	logger := l.getLogger()

	l.mu.Lock()
	prev := l.targetBlocks[len(l.targetBlocks)-1]
	block := targetBlock{
		id:             l.headerID("target", prev.id.Number+1),
		receivedNonce:  prev.receivedNonce,
		confirmedNonce: prev.confirmedNonce,
		unrewarded:     append([]unrewardedEntry(nil), prev.unrewarded...),
		sourceHeader:   prev.sourceHeader,
	}
	if l.requiredHeader != nil && l.requiredHeader.Number > block.sourceHeader.Number {
		block.sourceHeader = *l.requiredHeader
	}
	l.requiredHeader = nil

	var delivered []delivery
	for _, d := range l.pending {
		if d.nonces.IsEmpty() {
			block.confirm(d.confirmedNonce)
			continue
		}
		if d.nonces.Begin() != block.receivedNonce+1 {
			logger.WarnContext(ctx, "dropping delivery transaction", "nonces", d.nonces.String(), "received_nonce", block.receivedNonce)
			continue
		}
		block.receivedNonce = d.nonces.End()
		block.confirm(d.confirmedNonce)
		block.unrewarded = append(block.unrewarded, unrewardedEntry{relayer: d.relayer, nonces: d.nonces})
		delivered = append(delivered, d)
	}
	l.pending = nil
	l.targetBlocks = append(l.targetBlocks, block)

	// confirm what has been received at the finalized block
	tip := &l.targetBlocks[len(l.targetBlocks)-1]
	if finalized := l.finalizedTarget(); finalized.receivedNonce > tip.confirmedNonce {
		tip.confirmedNonce = finalized.receivedNonce
	}
	for len(tip.unrewarded) > 0 && tip.unrewarded[0].nonces.End() <= tip.confirmedNonce {
		tip.unrewarded = tip.unrewarded[1:]
	}
	id := tip.id
	l.mu.Unlock()

	if l.hooks == nil {
		return id, nil
	}
	for _, d := range delivered {
		if err := l.hooks.OnMessagesDelivered(ctx, l.id, d.relayer, d.nonces); err != nil {
			return id, fmt.Errorf("failed to note delivered messages %v: %v", d.nonces, err)
		}
	}
	if err := l.hooks.OnTargetBlock(ctx, l.id, id.Number); err != nil {
		return id, fmt.Errorf("failed to process target block %v: %v", id, err)
	}
	return id, nil
}

// ProduceBlocks sends the configured number of messages and produces a block at both chains.
func (l *Lane) ProduceBlocks(ctx context.Context) error {
	l.SendMessages(l.messagesToSend())
	l.ProduceSourceBlock()
	_, err := l.ProduceTargetBlock(ctx)
	return err
}

// Run produces blocks every interval until ctx is done.
func (l *Lane) Run(ctx context.Context, interval time.Duration) error {
	logger := l.getLogger()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := l.ProduceBlocks(ctx); err != nil {
				logger.ErrorContext(ctx, "failed to produce blocks", err)
				return err
			}
		}
	}
}

func (l *Lane) messagesToSend() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.cfg.MessagesPerBlock
	if l.cfg.MaxMessages == 0 {
		return n
	}
	sent := uint64(len(l.messages))
	if sent >= l.cfg.MaxMessages {
		return 0
	}
	return min(n, l.cfg.MaxMessages-sent)
}

func (l *Lane) headerID(chain string, number uint64) core.HeaderID {
	return core.NewHeaderID(number, tmhash.Sum([]byte(fmt.Sprintf("%s/%s/%d", l.id, chain, number))))
}

func (l *Lane) finalizedSource() sourceBlock {
	return l.sourceBlocks[finalizedIndex(len(l.sourceBlocks), l.cfg.FinalityDelay)]
}

func (l *Lane) finalizedTarget() targetBlock {
	return l.targetBlocks[finalizedIndex(len(l.targetBlocks), l.cfg.FinalityDelay)]
}

func (l *Lane) sourceBlock(id core.HeaderID) (sourceBlock, error) {
	if id.Number < uint64(len(l.sourceBlocks)) {
		if block := l.sourceBlocks[id.Number]; block.id.Equal(id) {
			return block, nil
		}
	}
	return sourceBlock{}, fmt.Errorf("unknown source block %v", id)
}

func (l *Lane) targetBlock(id core.HeaderID) (targetBlock, error) {
	if id.Number < uint64(len(l.targetBlocks)) {
		if block := l.targetBlocks[id.Number]; block.id.Equal(id) {
			return block, nil
		}
	}
	return targetBlock{}, fmt.Errorf("unknown target block %v", id)
}

func (l *Lane) getLogger() *log.RelayLogger {
	return log.GetLogger().WithLane(l.id).WithChains("source", "target").WithModule("chains.mock")
}

func finalizedIndex(blocks int, finalityDelay uint64) int {
	if uint64(blocks) <= finalityDelay {
		return 0
	}
	return blocks - 1 - int(finalityDelay)
}
