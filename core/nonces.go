package core

import (
	"fmt"
	"sort"

	"cosmossdk.io/math"
)

// MessageNonce is the position of a message within a lane.
type MessageNonce = uint64

// NoncesRange is an inclusive, non-empty range of nonces.
//
// R is the concrete range type itself, so that GreaterThan can return the
// remainder without losing any data attached to the nonces.
type NoncesRange[R any] interface {
	// Begin returns the first nonce of the range.
	Begin() MessageNonce
	// End returns the last nonce of the range.
	End() MessageNonce
	// GreaterThan returns the part of the range with nonces strictly greater than nonce.
	// If there are no such nonces, false is returned.
	GreaterThan(nonce MessageNonce) (R, bool)
}

// NonceInterval is a plain inclusive range [begin, end]. An interval with end = begin-1 holds
// no nonces; it is selected to deliver lane state without messages.
type NonceInterval struct {
	begin MessageNonce
	end   MessageNonce
}

var _ NoncesRange[NonceInterval] = NonceInterval{}

// NewNonceInterval returns the inclusive range [begin, end]. The caller must ensure
// begin <= end+1.
func NewNonceInterval(begin, end MessageNonce) NonceInterval {
	return NonceInterval{begin: begin, end: end}
}

func (r NonceInterval) Begin() MessageNonce { return r.begin }

func (r NonceInterval) End() MessageNonce { return r.end }

func (r NonceInterval) GreaterThan(nonce MessageNonce) (NonceInterval, bool) {
	if nonce >= r.end {
		return NonceInterval{}, false
	}
	if nonce < r.begin {
		return r, true
	}
	return NonceInterval{begin: nonce + 1, end: r.end}, true
}

// Len returns the number of nonces in the range.
func (r NonceInterval) Len() uint64 {
	if r.IsEmpty() {
		return 0
	}
	return r.end - r.begin + 1
}

func (r NonceInterval) IsEmpty() bool {
	return r.end < r.begin
}

func (r NonceInterval) Contains(nonce MessageNonce) bool {
	return r.begin <= nonce && nonce <= r.end
}

func (r NonceInterval) String() string {
	return fmt.Sprintf("%d..=%d", r.begin, r.end)
}

// MessageDetails is the information about a message that the delivery race needs
// to decide whether it fits into a batch.
type MessageDetails struct {
	Nonce          MessageNonce `json:"nonce" yaml:"nonce"`
	DispatchWeight uint64       `json:"dispatch_weight" yaml:"dispatch_weight"`
	Size           uint32       `json:"size" yaml:"size"`
	Reward         math.Int     `json:"reward" yaml:"reward"`
}

// MessageDetailsList is a list of MessageDetails sorted by nonce without gaps.
type MessageDetailsList []MessageDetails

var _ NoncesRange[MessageDetailsList] = MessageDetailsList{}

// NewMessageDetailsList sorts the given details by nonce.
func NewMessageDetailsList(details ...MessageDetails) MessageDetailsList {
	list := MessageDetailsList(details)
	sort.Slice(list, func(i, j int) bool { return list[i].Nonce < list[j].Nonce })
	return list
}

func (l MessageDetailsList) IsEmpty() bool {
	return len(l) == 0
}

func (l MessageDetailsList) Begin() MessageNonce {
	if len(l) == 0 {
		return 0
	}
	return l[0].Nonce
}

func (l MessageDetailsList) End() MessageNonce {
	if len(l) == 0 {
		return 0
	}
	return l[len(l)-1].Nonce
}

func (l MessageDetailsList) GreaterThan(nonce MessageNonce) (MessageDetailsList, bool) {
	i := sort.Search(len(l), func(i int) bool { return l[i].Nonce > nonce })
	if i == len(l) {
		return nil, false
	}
	return l[i:], true
}

// Interval returns the nonces covered by the list.
func (l MessageDetailsList) Interval() NonceInterval {
	return NewNonceInterval(l.Begin(), l.End())
}
