package mock

import (
	"encoding/json"

	"github.com/hyperledger-labs/yui-lane-relayer/core"
)

// MessagesProof is the proof of messages generated by the simulated source chain.
type MessagesProof struct {
	LaneID   string                `json:"lane_id"`
	AtBlock  core.HeaderID         `json:"at_block"`
	Messages []core.MessageDetails `json:"messages"`
	// ConfirmedNonce is the outbound lane state, if it has been requested.
	ConfirmedNonce *core.MessageNonce `json:"confirmed_nonce,omitempty"`
}

func (p MessagesProof) Encode() (core.Proof, error) {
	return json.Marshal(p)
}

func DecodeMessagesProof(proof core.Proof) (MessagesProof, error) {
	var p MessagesProof
	err := json.Unmarshal(proof, &p)
	return p, err
}
