package core

import (
	"fmt"

	cmtbytes "github.com/cometbft/cometbft/libs/bytes"
)

// HeaderID identifies a block on a specific chain. Blocks are ordered by number only.
type HeaderID struct {
	Number uint64            `json:"number" yaml:"number"`
	Hash   cmtbytes.HexBytes `json:"hash" yaml:"hash"`
}

func NewHeaderID(number uint64, hash []byte) HeaderID {
	return HeaderID{Number: number, Hash: hash}
}

// Equal reports whether both ids point to the same block.
func (id HeaderID) Equal(other HeaderID) bool {
	return id.Number == other.Number && string(id.Hash) == string(other.Hash)
}

func (id HeaderID) String() string {
	return fmt.Sprintf("#%d(%s)", id.Number, id.Hash.String())
}

func headerIDPtrEqual(a, b *HeaderID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
