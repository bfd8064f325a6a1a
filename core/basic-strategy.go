package core

// BasicStrategy selects contiguous nonce ranges for delivery.
//
// Nonces are delivered in the order they have been discovered at the source. A range may
// only be delivered once the source header that discovered it is known to the target, and
// only one selection may be in flight at a time.
type BasicStrategy[R NoncesRange[R]] struct {
	sourceQueue SourceQueue[R]
	// bestTargetNonce follows the best target block and may go backwards on reorgs.
	// Finalized updates may only increase it.
	bestTargetNonce *MessageNonce
}

var _ RaceStrategy[NonceInterval] = (*BasicStrategy[NonceInterval])(nil)

func NewBasicStrategy[R NoncesRange[R]]() *BasicStrategy[R] {
	return &BasicStrategy[R]{}
}

// SourceQueue returns the queue of nonces that are not yet known to be finalized at the target.
func (st *BasicStrategy[R]) SourceQueue() *SourceQueue[R] {
	return &st.sourceQueue
}

// IsEmpty returns true when no queued nonce is above the best target nonce.
func (st *BasicStrategy[R]) IsEmpty() bool {
	back, ok := st.sourceQueue.Back()
	if !ok {
		return true
	}
	return st.bestTargetNonce != nil && back.Nonces.End() <= *st.bestTargetNonce
}

func (st *BasicStrategy[R]) RequiredSourceHeaderAtTarget(state RaceState) *HeaderID {
	currentBest := state.BestFinalizedSourceHeaderIDAtBestTarget()
	if currentBest == nil {
		return nil
	}
	back, ok := st.sourceQueue.Back()
	if !ok || back.AtBlock.Number <= currentBest.Number {
		return nil
	}
	id := back.AtBlock
	return &id
}

func (st *BasicStrategy[R]) BestAtSource() *MessageNonce {
	if st.bestTargetNonce == nil {
		return nil
	}
	best := *st.bestTargetNonce
	if back, ok := st.sourceQueue.Back(); ok && back.Nonces.End() > best {
		best = back.Nonces.End()
	}
	return &best
}

func (st *BasicStrategy[R]) BestAtTarget() *MessageNonce {
	if st.bestTargetNonce == nil {
		return nil
	}
	best := *st.bestTargetNonce
	return &best
}

func (st *BasicStrategy[R]) SourceNoncesUpdated(atBlock HeaderID, nonces SourceClientNonces[R]) {
	var (
		prevBest MessageNonce
		known    bool
	)
	if back, ok := st.sourceQueue.Back(); ok {
		prevBest, known = back.Nonces.End(), true
	}
	if st.bestTargetNonce != nil && (!known || *st.bestTargetNonce > prevBest) {
		prevBest, known = *st.bestTargetNonce, true
	}

	newNonces := nonces.NewNonces
	if known {
		var ok bool
		if newNonces, ok = newNonces.GreaterThan(prevBest); !ok {
			return
		}
	} else if isEmptyRange(newNonces) {
		return
	}
	st.sourceQueue.PushBack(atBlock, newNonces)
}

func (st *BasicStrategy[R]) ResetBestTargetNonces() {
	st.bestTargetNonce = nil
}

func (st *BasicStrategy[R]) BestTargetNoncesUpdated(nonces TargetClientNonces, state RaceState) {
	nonce := nonces.LatestNonce

	// the best block claims that (some of) the selected nonces are already delivered. It is
	// not finalized, so we'd rather select again than wait for something that may never happen
	if toSubmit := state.NoncesToSubmit(); toSubmit != nil && toSubmit.Begin() <= nonce {
		state.ResetNoncesToSubmit()
	}
	if submitted := state.NoncesSubmitted(); submitted != nil && submitted.Begin() <= nonce {
		state.ResetNoncesSubmitted()
	}

	st.bestTargetNonce = &nonce
}

func (st *BasicStrategy[R]) FinalizedTargetNoncesUpdated(nonces TargetClientNonces, _ RaceState) {
	nonce := nonces.LatestNonce
	st.removeLeNoncesFromSourceQueue(nonce)

	if st.bestTargetNonce == nil || *st.bestTargetNonce < nonce {
		st.bestTargetNonce = &nonce
	}
}

func (st *BasicStrategy[R]) SelectNoncesToDeliver(state RaceState) (NonceInterval, ProofParameters, bool) {
	entries := st.AvailableSourceQueueEntries(state)
	if len(entries) == 0 {
		return NonceInterval{}, ProofParameters{}, false
	}

	begin := *st.bestTargetNonce + 1
	if first := entries[0].Nonces.Begin(); first > begin {
		begin = first
	}
	end := entries[len(entries)-1].Nonces.End()
	params := ProofParameters{AtBlock: *state.BestFinalizedSourceHeaderIDAtBestTarget()}
	return NewNonceInterval(begin, end), params, true
}

// AvailableSourceQueueEntries returns the queued entries that may be delivered right now: the
// entries above the best target nonce that have been discovered at source blocks already known
// to the target. Nothing is available while a selection is in flight.
func (st *BasicStrategy[R]) AvailableSourceQueueEntries(state RaceState) []SourceQueueEntry[R] {
	if st.bestTargetNonce == nil {
		return nil
	}
	if state.NoncesToSubmit() != nil || state.NoncesSubmitted() != nil {
		return nil
	}
	bestHeaderAtTarget := state.BestFinalizedSourceHeaderIDAtBestTarget()
	if bestHeaderAtTarget == nil {
		return nil
	}

	var available []SourceQueueEntry[R]
	for i := 0; i < st.sourceQueue.Len(); i++ {
		entry := st.sourceQueue.At(i)
		if len(available) == 0 && entry.Nonces.End() <= *st.bestTargetNonce {
			continue
		}
		if entry.AtBlock.Number > bestHeaderAtTarget.Number {
			break
		}
		available = append(available, entry)
	}
	return available
}

// removeLeNoncesFromSourceQueue drops all queued nonces that are less than or equal to nonce.
func (st *BasicStrategy[R]) removeLeNoncesFromSourceQueue(nonce MessageNonce) {
	for {
		front, ok := st.sourceQueue.Front()
		if !ok {
			return
		}
		if remainder, ok := front.Nonces.GreaterThan(nonce); ok {
			st.sourceQueue.replaceFront(remainder)
			return
		}
		st.sourceQueue.PopFront()
	}
}

// isEmptyRange reports whether r is a range type that can hold no nonces, like an empty
// MessageDetailsList.
func isEmptyRange(r any) bool {
	e, ok := r.(interface{ IsEmpty() bool })
	return ok && e.IsEmpty()
}
