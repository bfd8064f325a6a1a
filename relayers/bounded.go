package relayers

import (
	"encoding/json"
	"fmt"
)

// BoundedVec is an ordered sequence that never holds more than Bound items.
type BoundedVec[T any] struct {
	items []T
	bound int
}

func NewBoundedVec[T any](bound int) BoundedVec[T] {
	return BoundedVec[T]{
		items: make([]T, 0, bound),
		bound: bound,
	}
}

func (v BoundedVec[T]) Bound() int {
	return v.bound
}

func (v BoundedVec[T]) Len() int {
	return len(v.items)
}

func (v BoundedVec[T]) IsFull() bool {
	return len(v.items) >= v.bound
}

func (v BoundedVec[T]) At(i int) T {
	return v.items[i]
}

// Items returns a copy of the items.
func (v BoundedVec[T]) Items() []T {
	return append([]T(nil), v.items...)
}

// TryPush appends item if the vector is not full.
func (v *BoundedVec[T]) TryPush(item T) bool {
	if v.IsFull() {
		return false
	}
	v.items = append(v.items, item)
	return true
}

// TryInsert inserts item at index if the vector is not full.
func (v *BoundedVec[T]) TryInsert(index int, item T) bool {
	if v.IsFull() || index < 0 || index > len(v.items) {
		return false
	}
	v.insert(index, item)
	return true
}

// ForceInsertKeepLeft inserts item at index. If the vector is full, the last item is dropped
// to make room. It fails if index is not within the bound.
func (v *BoundedVec[T]) ForceInsertKeepLeft(index int, item T) bool {
	if index < 0 || index >= v.bound || index > len(v.items) {
		return false
	}
	if v.IsFull() {
		var zero T
		v.items[len(v.items)-1] = zero
		v.items = v.items[:len(v.items)-1]
	}
	v.insert(index, item)
	return true
}

// Remove removes and returns the item at index.
func (v *BoundedVec[T]) Remove(index int) T {
	item := v.items[index]
	copy(v.items[index:], v.items[index+1:])
	var zero T
	v.items[len(v.items)-1] = zero
	v.items = v.items[:len(v.items)-1]
	return item
}

func (v *BoundedVec[T]) insert(index int, item T) {
	var zero T
	v.items = append(v.items, zero)
	copy(v.items[index+1:], v.items[index:])
	v.items[index] = item
}

func (v BoundedVec[T]) MarshalJSON() ([]byte, error) {
	items := v.items
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

// UnmarshalJSON decodes the items into a vector created with NewBoundedVec. Payloads with
// more items than the bound are rejected.
func (v *BoundedVec[T]) UnmarshalJSON(bz []byte) error {
	var items []T
	if err := json.Unmarshal(bz, &items); err != nil {
		return err
	}
	if v.bound == 0 && len(items) > 0 {
		return fmt.Errorf("bounded vec has no capacity, create it with NewBoundedVec before decoding %d items", len(items))
	}
	if len(items) > v.bound {
		return fmt.Errorf("bounded vec holds at most %d items, got %d", v.bound, len(items))
	}
	v.items = append(make([]T, 0, v.bound), items...)
	return nil
}
