package relayers

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
)

var (
	RegistrationKeyPrefix = []byte{0x01}
	ActiveSetKeyPrefix    = []byte{0x02}
	NextSetKeyPrefix      = []byte{0x03}
)

func RegistrationKey(relayer sdk.AccAddress) []byte {
	return append(append([]byte{}, RegistrationKeyPrefix...), relayer...)
}

func ActiveSetKey(laneID string) []byte {
	return append(append([]byte{}, ActiveSetKeyPrefix...), laneID...)
}

func NextSetKey(laneID string) []byte {
	return append(append([]byte{}, NextSetKeyPrefix...), laneID...)
}
