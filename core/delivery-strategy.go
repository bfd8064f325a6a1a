package core

import (
	"errors"
)

// DeliveryLimits are the limits the target chain imposes on message delivery.
type DeliveryLimits struct {
	MaxUnrewardedRelayerEntriesAtTarget MessageNonce `json:"max_unrewarded_relayer_entries_at_target" yaml:"max_unrewarded_relayer_entries_at_target" mapstructure:"max_unrewarded_relayer_entries_at_target"`
	MaxUnconfirmedNoncesAtTarget        MessageNonce `json:"max_unconfirmed_nonces_at_target" yaml:"max_unconfirmed_nonces_at_target" mapstructure:"max_unconfirmed_nonces_at_target"`
	MaxMessagesInSingleBatch            MessageNonce `json:"max_messages_in_single_batch" yaml:"max_messages_in_single_batch" mapstructure:"max_messages_in_single_batch"`
	MaxMessagesWeightInSingleBatch      uint64       `json:"max_messages_weight_in_single_batch" yaml:"max_messages_weight_in_single_batch" mapstructure:"max_messages_weight_in_single_batch"`
	MaxMessagesSizeInSingleBatch        uint32       `json:"max_messages_size_in_single_batch" yaml:"max_messages_size_in_single_batch" mapstructure:"max_messages_size_in_single_batch"`
}

func (l DeliveryLimits) Validate() error {
	switch {
	case l.MaxUnrewardedRelayerEntriesAtTarget == 0:
		return errors.New("max_unrewarded_relayer_entries_at_target must be positive")
	case l.MaxUnconfirmedNoncesAtTarget == 0:
		return errors.New("max_unconfirmed_nonces_at_target must be positive")
	case l.MaxMessagesInSingleBatch == 0:
		return errors.New("max_messages_in_single_batch must be positive")
	case l.MaxMessagesWeightInSingleBatch == 0:
		return errors.New("max_messages_weight_in_single_batch must be positive")
	case l.MaxMessagesSizeInSingleBatch == 0:
		return errors.New("max_messages_size_in_single_batch must be positive")
	}
	return nil
}

type confirmedNonceAtSource struct {
	atBlock HeaderID
	nonce   MessageNonce
}

// DeliveryStrategy is the BasicStrategy for message delivery, limited by what the target
// lane accepts in a single transaction.
type DeliveryStrategy struct {
	limits DeliveryLimits
	// latestConfirmedNoncesAtSource are the confirmed nonces announced by the source with the
	// block where each has been seen first.
	latestConfirmedNoncesAtSource []confirmedNonceAtSource
	// targetNonces are the nonces at the best target block.
	targetNonces *TargetClientNonces
	strategy     *BasicStrategy[MessageDetailsList]
}

var _ RaceStrategy[MessageDetailsList] = (*DeliveryStrategy)(nil)

func NewDeliveryStrategy(limits DeliveryLimits) *DeliveryStrategy {
	return &DeliveryStrategy{
		limits:   limits,
		strategy: NewBasicStrategy[MessageDetailsList](),
	}
}

func (st *DeliveryStrategy) IsEmpty() bool {
	return st.strategy.IsEmpty()
}

func (st *DeliveryStrategy) RequiredSourceHeaderAtTarget(state RaceState) *HeaderID {
	// wait until the submitted transaction is mined
	if state.NoncesSubmitted() != nil {
		return nil
	}

	// something may be delivered with the current state
	if _, _, ok := st.selectRaceAction(state); ok {
		return nil
	}

	// relaying the newest source header may let us deliver queued messages
	if back, ok := st.strategy.SourceQueue().Back(); ok && st.canSubmitTransactionWith(state, back.AtBlock) {
		id := back.AtBlock
		return &id
	}

	// or it may let us prove confirmations and unblock the lane
	if n := len(st.latestConfirmedNoncesAtSource); n > 0 {
		id := st.latestConfirmedNoncesAtSource[n-1].atBlock
		if st.canSubmitTransactionWith(state, id) {
			return &id
		}
	}

	return nil
}

func (st *DeliveryStrategy) BestAtSource() *MessageNonce {
	return st.strategy.BestAtSource()
}

func (st *DeliveryStrategy) BestAtTarget() *MessageNonce {
	return st.strategy.BestAtTarget()
}

func (st *DeliveryStrategy) SourceNoncesUpdated(atBlock HeaderID, nonces SourceClientNonces[MessageDetailsList]) {
	if nonces.ConfirmedNonce != nil {
		n := len(st.latestConfirmedNoncesAtSource)
		if n == 0 || st.latestConfirmedNoncesAtSource[n-1].nonce != *nonces.ConfirmedNonce {
			st.latestConfirmedNoncesAtSource = append(st.latestConfirmedNoncesAtSource, confirmedNonceAtSource{
				atBlock: atBlock,
				nonce:   *nonces.ConfirmedNonce,
			})
		}
	}
	st.strategy.SourceNoncesUpdated(atBlock, nonces)
}

func (st *DeliveryStrategy) ResetBestTargetNonces() {
	st.targetNonces = nil
	st.strategy.ResetBestTargetNonces()
}

func (st *DeliveryStrategy) BestTargetNoncesUpdated(nonces TargetClientNonces, state RaceState) {
	targetNonces := nonces
	st.targetNonces = &targetNonces
	st.strategy.BestTargetNoncesUpdated(TargetClientNonces{LatestNonce: nonces.LatestNonce}, state)
}

func (st *DeliveryStrategy) FinalizedTargetNoncesUpdated(nonces TargetClientNonces, state RaceState) {
	if atTarget := state.BestFinalizedSourceHeaderIDAtBestTarget(); atTarget != nil {
		i := 0
		for i < len(st.latestConfirmedNoncesAtSource) && st.latestConfirmedNoncesAtSource[i].atBlock.Number < atTarget.Number {
			i++
		}
		st.latestConfirmedNoncesAtSource = st.latestConfirmedNoncesAtSource[i:]
	}

	if st.targetNonces != nil && st.targetNonces.LatestNonce < nonces.LatestNonce {
		st.targetNonces.LatestNonce = nonces.LatestNonce
	}

	st.strategy.FinalizedTargetNoncesUpdated(TargetClientNonces{LatestNonce: nonces.LatestNonce}, state)
}

func (st *DeliveryStrategy) SelectNoncesToDeliver(state RaceState) (NonceInterval, ProofParameters, bool) {
	return st.selectRaceAction(state)
}

func (st *DeliveryStrategy) canSubmitTransactionWith(state RaceState, sourceAtTarget HeaderID) bool {
	_, _, ok := st.selectRaceAction(withSourceHeaderAtTarget(state, sourceAtTarget))
	return ok
}

func (st *DeliveryStrategy) selectRaceAction(state RaceState) (NonceInterval, ProofParameters, bool) {
	if state.NoncesToSubmit() != nil || state.NoncesSubmitted() != nil {
		return NonceInterval{}, ProofParameters{}, false
	}
	bestTargetNonce := st.strategy.BestAtTarget()
	sourceAtTarget := state.BestFinalizedSourceHeaderIDAtBestTarget()
	if bestTargetNonce == nil || sourceAtTarget == nil || st.targetNonces == nil || st.targetNonces.Data == nil {
		return NonceInterval{}, ProofParameters{}, false
	}
	data := st.targetNonces.Data

	latestConfirmedAtTarget := data.ConfirmedNonce
	latestConfirmedAtSource := latestConfirmedAtTarget
	if nonce, ok := st.latestConfirmedNonceAtSource(*sourceAtTarget); ok {
		latestConfirmedAtSource = nonce
	}
	outboundStateProofRequired := latestConfirmedAtTarget < latestConfirmedAtSource

	// the target rejects messages while too many relayers are waiting for rewards, unless we
	// prove enough confirmations to free the oldest entry
	unrewardedLimitReached := data.UnrewardedRelayers.UnrewardedRelayerEntries >= st.limits.MaxUnrewardedRelayerEntriesAtTarget ||
		data.UnrewardedRelayers.TotalMessages >= st.limits.MaxUnconfirmedNoncesAtTarget
	if unrewardedLimitReached {
		var rewardsBeingProved MessageNonce
		if latestConfirmedAtSource > latestConfirmedAtTarget {
			rewardsBeingProved = latestConfirmedAtSource - latestConfirmedAtTarget
		}
		if rewardsBeingProved < data.UnrewardedRelayers.MessagesInOldestEntry {
			return NonceInterval{}, ProofParameters{}, false
		}
	}

	futureConfirmedAtTarget := latestConfirmedAtTarget
	if outboundStateProofRequired {
		futureConfirmedAtTarget = latestConfirmedAtSource
	}
	var maxNonces MessageNonce
	latestReceived := st.targetNonces.LatestNonce
	if latestReceived >= futureConfirmedAtTarget {
		if diff := latestReceived - futureConfirmedAtTarget; diff <= st.limits.MaxUnconfirmedNoncesAtTarget {
			maxNonces = st.limits.MaxUnconfirmedNoncesAtTarget - diff
		}
	}
	maxNonces = min(maxNonces, st.limits.MaxMessagesInSingleBatch)

	selected, weight, ok := st.decide(st.strategy.AvailableSourceQueueEntries(state), *bestTargetNonce, maxNonces)
	if !ok {
		// a blocked lane accepts a delivery of confirmations alone
		if !unrewardedLimitReached || !outboundStateProofRequired {
			return NonceInterval{}, ProofParameters{}, false
		}
		selected, weight = unblockNonces(), 0
	}
	return selected, ProofParameters{
		AtBlock:                    *sourceAtTarget,
		OutboundStateProofRequired: outboundStateProofRequired,
		DispatchWeight:             weight,
	}, true
}

// decide takes messages above bestTargetNonce in nonce order while they fit into the batch.
// The first message is always taken, even if it exceeds the weight or size limits alone.
func (st *DeliveryStrategy) decide(entries []SourceQueueEntry[MessageDetailsList], bestTargetNonce, maxNonces MessageNonce) (NonceInterval, uint64, bool) {
	if maxNonces == 0 {
		return NonceInterval{}, 0, false
	}

	var (
		count  MessageNonce
		weight uint64
		size   uint64
		begin  MessageNonce
		end    MessageNonce
	)
out:
	for _, entry := range entries {
		for _, details := range entry.Nonces {
			if details.Nonce <= bestTargetNonce {
				continue
			}
			newWeight := weight + details.DispatchWeight
			newSize := size + uint64(details.Size)
			if count > 0 && (newWeight > st.limits.MaxMessagesWeightInSingleBatch || newSize > uint64(st.limits.MaxMessagesSizeInSingleBatch)) {
				break out
			}
			if count == 0 {
				begin = details.Nonce
			}
			end = details.Nonce
			count++
			weight, size = newWeight, newSize
			if count == maxNonces {
				break out
			}
		}
	}
	if count == 0 {
		return NonceInterval{}, 0, false
	}
	return NewNonceInterval(begin, end), weight, true
}

// unblockNonces is the empty selection that only proves the outbound lane state.
func unblockNonces() NonceInterval {
	return NewNonceInterval(1, 0)
}

func (st *DeliveryStrategy) latestConfirmedNonceAtSource(at HeaderID) (MessageNonce, bool) {
	var (
		nonce MessageNonce
		found bool
	)
	for _, confirmed := range st.latestConfirmedNoncesAtSource {
		if confirmed.atBlock.Number > at.Number {
			break
		}
		nonce, found = confirmed.nonce, true
	}
	return nonce, found
}

// withSourceHeaderAtTarget returns a view of state that assumes the given source header is
// already known to the best target block.
func withSourceHeaderAtTarget(state RaceState, id HeaderID) RaceState {
	return sourceHeaderAtTargetOverride{RaceState: state, id: id}
}

type sourceHeaderAtTargetOverride struct {
	RaceState
	id HeaderID
}

func (s sourceHeaderAtTargetOverride) BestFinalizedSourceHeaderIDAtBestTarget() *HeaderID {
	id := s.id
	return &id
}
