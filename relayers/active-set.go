package relayers

import (
	"encoding/json"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// ActiveLaneRelayersSet is the set of relayers that are rewarded for delivering messages of a
// lane during the current epoch.
type ActiveLaneRelayersSet struct {
	enactedAt uint64
	relayers  BoundedVec[ActiveLaneRegistration]
}

func NewActiveLaneRelayersSet(capacity int) *ActiveLaneRelayersSet {
	return &ActiveLaneRelayersSet{
		relayers: NewBoundedVec[ActiveLaneRegistration](capacity),
	}
}

// EnactedAt returns the block where the set has been enacted.
func (s *ActiveLaneRelayersSet) EnactedAt() uint64 {
	return s.enactedAt
}

func (s *ActiveLaneRelayersSet) Relayers() []ActiveLaneRegistration {
	return s.relayers.Items()
}

func (s *ActiveLaneRelayersSet) Relayer(relayer sdk.AccAddress) (ActiveLaneRegistration, bool) {
	for _, r := range s.relayers.items {
		if r.Relayer.Equals(relayer) {
			return r, true
		}
	}
	return ActiveLaneRegistration{}, false
}

// NoteDeliveredMessage marks the relayer as mergeable. It returns true if the set has changed.
func (s *ActiveLaneRelayersSet) NoteDeliveredMessage(relayer sdk.AccAddress) bool {
	for i := range s.relayers.items {
		r := &s.relayers.items[i]
		if !r.Relayer.Equals(relayer) {
			continue
		}
		if r.IsMergeable {
			return false
		}
		r.IsMergeable = true
		return true
	}
	return false
}

// ActivateNextSet replaces the active relayers with the best bids of next. Active relayers that
// have delivered messages during the epoch keep competing with their current bids, unless they
// have updated their bids in next already.
//
// It returns false and does nothing if next may not be enacted at currentBlock.
func (s *ActiveLaneRelayersSet) ActivateNextSet(
	currentBlock uint64,
	next *NextLaneRelayersSet,
	isRegistrationActive func(relayer sdk.AccAddress) bool,
) bool {
	if currentBlock < next.MayEnactAt() {
		return false
	}

	for _, r := range s.relayers.items {
		if !r.IsMergeable || !isRegistrationActive(r.Relayer) {
			continue
		}
		if _, ok := next.Relayer(r.Relayer); ok {
			continue
		}
		// a full next set of better bids is fine
		_ = next.TryInsert(r.Relayer, r.Reward)
	}

	active := NewBoundedVec[ActiveLaneRegistration](s.relayers.Bound())
	for _, r := range next.relayers.items {
		if !active.TryPush(ActiveLaneRegistration{LaneRegistration: r}) {
			break
		}
	}
	s.relayers = active
	s.enactedAt = currentBlock
	return true
}

type activeLaneRelayersSetJSON struct {
	EnactedAt uint64                             `json:"enacted_at"`
	Relayers  BoundedVec[ActiveLaneRegistration] `json:"relayers"`
}

func (s *ActiveLaneRelayersSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(activeLaneRelayersSetJSON{
		EnactedAt: s.enactedAt,
		Relayers:  s.relayers,
	})
}

// UnmarshalJSON decodes into a set created with NewActiveLaneRelayersSet.
func (s *ActiveLaneRelayersSet) UnmarshalJSON(bz []byte) error {
	if s.relayers.Bound() == 0 {
		return fmt.Errorf("active lane relayers set has no capacity, create it with NewActiveLaneRelayersSet before decoding")
	}
	aux := activeLaneRelayersSetJSON{
		Relayers: NewBoundedVec[ActiveLaneRegistration](s.relayers.Bound()),
	}
	if err := json.Unmarshal(bz, &aux); err != nil {
		return err
	}
	s.enactedAt = aux.EnactedAt
	s.relayers = aux.Relayers
	return nil
}
