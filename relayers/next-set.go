package relayers

import (
	"encoding/json"
	"fmt"
	"sort"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// NextLaneRelayersSet is the set of bids that will become active at the next epoch.
// Bids are sorted by reward, cheaper first; equal bids keep their registration order.
type NextLaneRelayersSet struct {
	mayEnactAt uint64
	relayers   BoundedVec[LaneRegistration]
}

func NewNextLaneRelayersSet(capacity int, mayEnactAt uint64) *NextLaneRelayersSet {
	return &NextLaneRelayersSet{
		mayEnactAt: mayEnactAt,
		relayers:   NewBoundedVec[LaneRegistration](capacity),
	}
}

// MayEnactAt returns the first block where the set may become active.
func (s *NextLaneRelayersSet) MayEnactAt() uint64 {
	return s.mayEnactAt
}

func (s *NextLaneRelayersSet) SetMayEnactAt(block uint64) {
	s.mayEnactAt = block
}

func (s *NextLaneRelayersSet) Relayers() []LaneRegistration {
	return s.relayers.Items()
}

func (s *NextLaneRelayersSet) Relayer(relayer sdk.AccAddress) (LaneRegistration, bool) {
	if i := s.index(relayer); i >= 0 {
		return s.relayers.At(i), true
	}
	return LaneRegistration{}, false
}

// TryInsert replaces the bid of relayer. It returns false if the bid is worse than every bid of
// a full set; the previous bid of the relayer is dropped anyway.
func (s *NextLaneRelayersSet) TryInsert(relayer sdk.AccAddress, reward math.Int) bool {
	if i := s.index(relayer); i >= 0 {
		s.relayers.Remove(i)
	}

	// new bids go after the incumbents with the same reward
	items := s.relayers.items
	pos := sort.Search(len(items), func(i int) bool {
		return items[i].Reward.GT(reward)
	})
	return s.relayers.ForceInsertKeepLeft(pos, NewLaneRegistration(relayer, reward))
}

// TryRemove removes the bid of relayer.
func (s *NextLaneRelayersSet) TryRemove(relayer sdk.AccAddress) (LaneRegistration, bool) {
	i := s.index(relayer)
	if i < 0 {
		return LaneRegistration{}, false
	}
	return s.relayers.Remove(i), true
}

func (s *NextLaneRelayersSet) index(relayer sdk.AccAddress) int {
	for i, r := range s.relayers.items {
		if r.Relayer.Equals(relayer) {
			return i
		}
	}
	return -1
}

type nextLaneRelayersSetJSON struct {
	MayEnactAt uint64                       `json:"may_enact_at"`
	Relayers   BoundedVec[LaneRegistration] `json:"relayers"`
}

func (s *NextLaneRelayersSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(nextLaneRelayersSetJSON{
		MayEnactAt: s.mayEnactAt,
		Relayers:   s.relayers,
	})
}

// UnmarshalJSON decodes into a set created with NewNextLaneRelayersSet.
func (s *NextLaneRelayersSet) UnmarshalJSON(bz []byte) error {
	if s.relayers.Bound() == 0 {
		return fmt.Errorf("next lane relayers set has no capacity, create it with NewNextLaneRelayersSet before decoding")
	}
	aux := nextLaneRelayersSetJSON{
		Relayers: NewBoundedVec[LaneRegistration](s.relayers.Bound()),
	}
	if err := json.Unmarshal(bz, &aux); err != nil {
		return err
	}
	s.mayEnactAt = aux.MayEnactAt
	s.relayers = aux.Relayers
	return nil
}
