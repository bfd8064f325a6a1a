package core

// SourceQueueEntry is a range of nonces discovered at the given source block.
type SourceQueueEntry[R NoncesRange[R]] struct {
	AtBlock HeaderID
	Nonces  R
}

// SourceQueue holds nonce ranges in the order they have been discovered at the source chain.
// Ranges never overlap and are stored in ascending nonce order.
type SourceQueue[R NoncesRange[R]] struct {
	entries []SourceQueueEntry[R]
}

func (q *SourceQueue[R]) Len() int {
	return len(q.entries)
}

func (q *SourceQueue[R]) IsEmpty() bool {
	return len(q.entries) == 0
}

// Front returns the oldest entry.
func (q *SourceQueue[R]) Front() (SourceQueueEntry[R], bool) {
	if len(q.entries) == 0 {
		return SourceQueueEntry[R]{}, false
	}
	return q.entries[0], true
}

// Back returns the newest entry.
func (q *SourceQueue[R]) Back() (SourceQueueEntry[R], bool) {
	if len(q.entries) == 0 {
		return SourceQueueEntry[R]{}, false
	}
	return q.entries[len(q.entries)-1], true
}

// At returns the i-th entry, counting from the front.
func (q *SourceQueue[R]) At(i int) SourceQueueEntry[R] {
	return q.entries[i]
}

func (q *SourceQueue[R]) PushBack(atBlock HeaderID, nonces R) {
	q.entries = append(q.entries, SourceQueueEntry[R]{AtBlock: atBlock, Nonces: nonces})
}

func (q *SourceQueue[R]) PopFront() (SourceQueueEntry[R], bool) {
	entry, ok := q.Front()
	if !ok {
		return entry, false
	}
	q.entries[0] = SourceQueueEntry[R]{}
	q.entries = q.entries[1:]
	return entry, true
}

func (q *SourceQueue[R]) replaceFront(nonces R) {
	q.entries[0].Nonces = nonces
}

// Entries returns a copy of the queued entries, oldest first.
func (q *SourceQueue[R]) Entries() []SourceQueueEntry[R] {
	return append([]SourceQueueEntry[R](nil), q.entries...)
}
