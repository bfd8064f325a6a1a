package core

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func header(number uint64) HeaderID {
	return NewHeaderID(number, []byte{byte(number)})
}

func sourceNonces(begin, end MessageNonce) SourceClientNonces[NonceInterval] {
	return SourceClientNonces[NonceInterval]{NewNonces: NewNonceInterval(begin, end)}
}

func targetNonces(nonce MessageNonce) TargetClientNonces {
	return TargetClientNonces{LatestNonce: nonce}
}

func noncePtr(nonce MessageNonce) *MessageNonce {
	return &nonce
}

func queueIntervals(st *BasicStrategy[NonceInterval]) []SourceQueueEntry[NonceInterval] {
	return st.SourceQueue().Entries()
}

func TestBasicStrategyIsEmptyWhenTargetIsAhead(t *testing.T) {
	st := NewBasicStrategy[NonceInterval]()
	var state RaceStateImpl

	st.SourceNoncesUpdated(header(1), sourceNonces(1, 5))
	assert.False(t, st.IsEmpty())

	st.BestTargetNoncesUpdated(targetNonces(10), &state)
	assert.True(t, st.IsEmpty())
	assert.Equal(t, noncePtr(10), st.BestAtSource())
	assert.Equal(t, noncePtr(10), st.BestAtTarget())
}

func TestBasicStrategyBestAtSource(t *testing.T) {
	st := NewBasicStrategy[NonceInterval]()
	var state RaceStateImpl

	st.SourceNoncesUpdated(header(1), sourceNonces(1, 5))
	assert.Nil(t, st.BestAtSource(), "best at source is unknown until the target is known")

	st.BestTargetNoncesUpdated(targetNonces(0), &state)
	assert.Equal(t, noncePtr(5), st.BestAtSource())

	st.SourceNoncesUpdated(header(2), sourceNonces(6, 10))
	assert.Equal(t, noncePtr(10), st.BestAtSource())
}

func TestBasicStrategySourceNoncesUpdated(t *testing.T) {
	tests := []struct {
		name       string
		bestTarget *MessageNonce
		updates    []NonceInterval
		want       []SourceQueueEntry[NonceInterval]
	}{
		{
			name:    "new nonces are pushed",
			updates: []NonceInterval{NewNonceInterval(1, 5), NewNonceInterval(6, 10)},
			want: []SourceQueueEntry[NonceInterval]{
				{AtBlock: header(1), Nonces: NewNonceInterval(1, 5)},
				{AtBlock: header(2), Nonces: NewNonceInterval(6, 10)},
			},
		},
		{
			name:    "already queued nonces are clipped",
			updates: []NonceInterval{NewNonceInterval(1, 5), NewNonceInterval(1, 10)},
			want: []SourceQueueEntry[NonceInterval]{
				{AtBlock: header(1), Nonces: NewNonceInterval(1, 5)},
				{AtBlock: header(2), Nonces: NewNonceInterval(6, 10)},
			},
		},
		{
			name:    "already queued nonces are ignored",
			updates: []NonceInterval{NewNonceInterval(1, 5), NewNonceInterval(1, 5)},
			want: []SourceQueueEntry[NonceInterval]{
				{AtBlock: header(1), Nonces: NewNonceInterval(1, 5)},
			},
		},
		{
			name:       "delivered nonces are clipped",
			bestTarget: noncePtr(3),
			updates:    []NonceInterval{NewNonceInterval(1, 5)},
			want: []SourceQueueEntry[NonceInterval]{
				{AtBlock: header(1), Nonces: NewNonceInterval(4, 5)},
			},
		},
		{
			name:       "delivered nonces are ignored",
			bestTarget: noncePtr(10),
			updates:    []NonceInterval{NewNonceInterval(1, 5)},
			want:       nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewBasicStrategy[NonceInterval]()
			var state RaceStateImpl
			if tt.bestTarget != nil {
				st.BestTargetNoncesUpdated(targetNonces(*tt.bestTarget), &state)
			}
			for i, nonces := range tt.updates {
				st.SourceNoncesUpdated(header(uint64(i+1)), SourceClientNonces[NonceInterval]{NewNonces: nonces})
			}
			assert.Equal(t, tt.want, queueIntervals(st))
		})
	}
}

func TestBasicStrategyFinalizedTargetNoncesPruneSourceQueue(t *testing.T) {
	st := NewBasicStrategy[NonceInterval]()
	var state RaceStateImpl

	st.SourceNoncesUpdated(header(1), sourceNonces(1, 5))
	st.SourceNoncesUpdated(header(2), sourceNonces(6, 10))
	st.SourceNoncesUpdated(header(3), sourceNonces(11, 15))
	st.SourceNoncesUpdated(header(4), sourceNonces(16, 20))

	st.FinalizedTargetNoncesUpdated(targetNonces(15), &state)
	assert.Equal(t, []SourceQueueEntry[NonceInterval]{
		{AtBlock: header(4), Nonces: NewNonceInterval(16, 20)},
	}, queueIntervals(st))
	assert.Equal(t, noncePtr(15), st.BestAtTarget())

	st.FinalizedTargetNoncesUpdated(targetNonces(17), &state)
	assert.Equal(t, []SourceQueueEntry[NonceInterval]{
		{AtBlock: header(4), Nonces: NewNonceInterval(18, 20)},
	}, queueIntervals(st))
	assert.Equal(t, noncePtr(17), st.BestAtTarget())
}

func TestBasicStrategyTargetNonceUpdates(t *testing.T) {
	st := NewBasicStrategy[NonceInterval]()
	var state RaceStateImpl

	st.FinalizedTargetNoncesUpdated(targetNonces(10), &state)
	assert.Equal(t, noncePtr(10), st.BestAtTarget())

	// the best block may go backwards
	st.BestTargetNoncesUpdated(targetNonces(5), &state)
	assert.Equal(t, noncePtr(5), st.BestAtTarget())

	// finalized nonces never decrease the best nonce
	st.FinalizedTargetNoncesUpdated(targetNonces(3), &state)
	assert.Equal(t, noncePtr(5), st.BestAtTarget())

	st.ResetBestTargetNonces()
	assert.Nil(t, st.BestAtTarget())
	assert.Nil(t, st.BestAtSource())
}

func TestBasicStrategyBestTargetNoncesUpdatedDiscardsInFlightNonces(t *testing.T) {
	tests := []struct {
		name          string
		nonce         MessageNonce
		wantToSubmit  bool
		wantSubmitted bool
	}{
		{name: "below in flight nonces", nonce: 4, wantToSubmit: true, wantSubmitted: true},
		{name: "at the first in flight nonce", nonce: 5, wantToSubmit: false, wantSubmitted: false},
		{name: "above in flight nonces", nonce: 20, wantToSubmit: false, wantSubmitted: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewBasicStrategy[NonceInterval]()
			submitted := NewNonceInterval(5, 10)
			state := RaceStateImpl{
				ToSubmit:  &ProvedNonces{AtBlock: header(1), Nonces: NewNonceInterval(5, 10)},
				Submitted: &submitted,
			}

			st.BestTargetNoncesUpdated(targetNonces(tt.nonce), &state)
			assert.Equal(t, tt.wantToSubmit, state.NoncesToSubmit() != nil)
			assert.Equal(t, tt.wantSubmitted, state.NoncesSubmitted() != nil)
		})
	}
}

func TestBasicStrategyRequiredSourceHeaderAtTarget(t *testing.T) {
	st := NewBasicStrategy[NonceInterval]()
	var state RaceStateImpl

	st.SourceNoncesUpdated(header(1), sourceNonces(1, 5))
	st.SourceNoncesUpdated(header(5), sourceNonces(6, 10))
	assert.Nil(t, st.RequiredSourceHeaderAtTarget(&state), "nothing is required while the source header at target is unknown")

	state.SetBestFinalizedSourceHeaderIDAtBestTarget(header(1))
	want := header(5)
	assert.Equal(t, &want, st.RequiredSourceHeaderAtTarget(&state))

	state.SetBestFinalizedSourceHeaderIDAtBestTarget(header(5))
	assert.Nil(t, st.RequiredSourceHeaderAtTarget(&state))
}

func TestBasicStrategySelectNoncesToDeliver(t *testing.T) {
	newStrategy := func() *BasicStrategy[NonceInterval] {
		st := NewBasicStrategy[NonceInterval]()
		st.SourceNoncesUpdated(header(1), sourceNonces(1, 5))
		st.SourceNoncesUpdated(header(2), sourceNonces(6, 10))
		st.SourceNoncesUpdated(header(3), sourceNonces(11, 15))
		return st
	}

	tests := []struct {
		name           string
		bestTarget     *MessageNonce
		sourceAtTarget *HeaderID
		want           *NonceInterval
	}{
		{
			name:           "best target nonce is unknown",
			sourceAtTarget: &HeaderID{Number: 3},
		},
		{
			name:       "source header at target is unknown",
			bestTarget: noncePtr(0),
		},
		{
			name:           "all headers are known to the target",
			bestTarget:     noncePtr(0),
			sourceAtTarget: &HeaderID{Number: 3},
			want:           &NonceInterval{begin: 1, end: 15},
		},
		{
			name:           "only the first header is known to the target",
			bestTarget:     noncePtr(0),
			sourceAtTarget: &HeaderID{Number: 1},
			want:           &NonceInterval{begin: 1, end: 5},
		},
		{
			name:           "partially delivered entry",
			bestTarget:     noncePtr(7),
			sourceAtTarget: &HeaderID{Number: 2},
			want:           &NonceInterval{begin: 8, end: 10},
		},
		{
			name:           "delivered entries are skipped",
			bestTarget:     noncePtr(10),
			sourceAtTarget: &HeaderID{Number: 3},
			want:           &NonceInterval{begin: 11, end: 15},
		},
		{
			name:           "everything is delivered",
			bestTarget:     noncePtr(15),
			sourceAtTarget: &HeaderID{Number: 3},
		},
		{
			name:           "no header of the queue is known to the target",
			bestTarget:     noncePtr(0),
			sourceAtTarget: &HeaderID{Number: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newStrategy()
			state := RaceStateImpl{FinalizedSourceAtBestTarget: tt.sourceAtTarget}
			if tt.bestTarget != nil {
				st.BestTargetNoncesUpdated(targetNonces(*tt.bestTarget), &state)
			}

			nonces, params, ok := st.SelectNoncesToDeliver(&state)
			if tt.want == nil {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, *tt.want, nonces)
			assert.Equal(t, *tt.sourceAtTarget, params.AtBlock)
		})
	}
}

func TestBasicStrategySelectsNothingWhileInFlight(t *testing.T) {
	submitted := NewNonceInterval(1, 5)
	tests := []struct {
		name  string
		state RaceStateImpl
	}{
		{
			name: "nonces to submit",
			state: RaceStateImpl{
				FinalizedSourceAtBestTarget: &HeaderID{Number: 10},
				ToSubmit:                    &ProvedNonces{AtBlock: header(1), Nonces: NewNonceInterval(1, 5)},
			},
		},
		{
			name: "submitted nonces",
			state: RaceStateImpl{
				FinalizedSourceAtBestTarget: &HeaderID{Number: 10},
				Submitted:                   &submitted,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewBasicStrategy[NonceInterval]()
			st.SourceNoncesUpdated(header(1), sourceNonces(1, 5))
			st.SourceNoncesUpdated(header(2), sourceNonces(6, 10))
			st.FinalizedTargetNoncesUpdated(targetNonces(0), &tt.state)

			_, _, ok := st.SelectNoncesToDeliver(&tt.state)
			assert.False(t, ok)
			assert.Empty(t, st.AvailableSourceQueueEntries(&tt.state))
		})
	}
}

func TestBasicStrategyProofIsGeneratedAtSourceHeaderKnownToTarget(t *testing.T) {
	const (
		generatedAt  = 6
		bestAtTarget = 8
	)
	st := NewBasicStrategy[NonceInterval]()
	state := RaceStateImpl{}
	state.SetBestFinalizedSourceHeaderIDAtBestTarget(header(bestAtTarget))

	st.SourceNoncesUpdated(header(generatedAt), sourceNonces(0, 10))
	st.BestTargetNoncesUpdated(targetNonces(5), &state)

	nonces, params, ok := st.SelectNoncesToDeliver(&state)
	require.True(t, ok)
	assert.Equal(t, NewNonceInterval(6, 10), nonces)
	assert.Equal(t, header(bestAtTarget), params.AtBlock)
}

func TestBasicStrategyRecoversFromTargetReorg(t *testing.T) {
	st := NewBasicStrategy[NonceInterval]()
	state := RaceStateImpl{}
	state.SetBestFinalizedSourceHeaderIDAtBestTarget(header(1))

	st.SourceNoncesUpdated(header(1), sourceNonces(1, 1))
	st.FinalizedTargetNoncesUpdated(targetNonces(0), &state)

	nonces, _, ok := st.SelectNoncesToDeliver(&state)
	require.True(t, ok)
	require.Equal(t, NewNonceInterval(1, 1), nonces)
	state.Submitted = &nonces

	// the transaction is mined at the best target block
	st.SourceNoncesUpdated(header(2), sourceNonces(2, 2))
	st.BestTargetNoncesUpdated(targetNonces(1), &state)
	require.Nil(t, state.NoncesSubmitted())

	// and the block is reverted
	st.BestTargetNoncesUpdated(targetNonces(0), &state)
	state.SetBestFinalizedSourceHeaderIDAtBestTarget(header(2))
	st.FinalizedTargetNoncesUpdated(targetNonces(0), &state)

	nonces, _, ok = st.SelectNoncesToDeliver(&state)
	require.True(t, ok)
	assert.Equal(t, NewNonceInterval(1, 2), nonces)
}

func TestBasicStrategySourceQueueStaysAboveFinalizedNonce(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	st := NewBasicStrategy[NonceInterval]()
	var (
		state     RaceStateImpl
		latest    MessageNonce
		finalized MessageNonce
	)
	for i := 1; i <= 1000; i++ {
		switch rnd.Intn(3) {
		case 0:
			n := MessageNonce(rnd.Intn(5) + 1)
			st.SourceNoncesUpdated(header(uint64(i)), sourceNonces(latest+1, latest+n))
			latest += n
		case 1:
			nonce := MessageNonce(rnd.Int63n(int64(latest) + 1))
			st.BestTargetNoncesUpdated(targetNonces(nonce), &state)
		case 2:
			nonce := finalized + MessageNonce(rnd.Int63n(int64(latest-finalized)+1))
			st.FinalizedTargetNoncesUpdated(targetNonces(nonce), &state)
			finalized = nonce
		}

		if front, ok := st.SourceQueue().Front(); ok {
			require.Greater(t, front.Nonces.Begin(), finalized, "step %d", i)
		}
	}
}
