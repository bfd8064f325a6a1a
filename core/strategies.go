package core

import (
	"fmt"
)

// SourceClientNonces are nonces reported by the race source.
type SourceClientNonces[R NoncesRange[R]] struct {
	// NewNonces are the nonces generated after the previously known latest nonce.
	NewNonces R
	// ConfirmedNonce is the latest nonce that the source knows to be confirmed by the target.
	// Only meaningful for the delivery race.
	ConfirmedNonce *MessageNonce
}

// UnrewardedRelayersState is the state of the unrewarded relayers set at the target lane.
type UnrewardedRelayersState struct {
	UnrewardedRelayerEntries MessageNonce
	MessagesInOldestEntry    MessageNonce
	TotalMessages            MessageNonce
	LastDeliveredNonce       MessageNonce
}

// TargetNoncesData is the delivery-specific data reported by the race target.
type TargetNoncesData struct {
	// ConfirmedNonce is the latest nonce that has been delivered, confirmed back to the source
	// and rewarded.
	ConfirmedNonce     MessageNonce
	UnrewardedRelayers UnrewardedRelayersState
}

// TargetClientNonces are nonces reported by the race target.
type TargetClientNonces struct {
	// LatestNonce is the latest nonce known to the target.
	LatestNonce MessageNonce
	// Data is nil when the race does not need it.
	Data *TargetNoncesData
}

// ProofParameters are the parameters the source client needs to generate a proof.
type ProofParameters struct {
	// AtBlock is the source block the proof must be generated at.
	AtBlock HeaderID
	// OutboundStateProofRequired is true when the proof must include the outbound lane state.
	OutboundStateProofRequired bool
	// DispatchWeight is the total dispatch weight of the selected messages.
	DispatchWeight uint64
}

// RaceStrategy decides which nonces to deliver next.
type RaceStrategy[R NoncesRange[R]] interface {
	// IsEmpty returns true if nothing has to be synced.
	IsEmpty() bool
	// RequiredSourceHeaderAtTarget returns the id of the source header that must be known to
	// the target before the race can continue.
	RequiredSourceHeaderAtTarget(state RaceState) *HeaderID
	// BestAtSource returns the best nonce at the source. It is only returned if it is known to
	// be greater or equal than BestAtTarget.
	BestAtSource() *MessageNonce
	// BestAtTarget returns the best nonce at the target, nil if unknown.
	BestAtTarget() *MessageNonce

	// SourceNoncesUpdated is called when nonces are updated at the source.
	SourceNoncesUpdated(atBlock HeaderID, nonces SourceClientNonces[R])
	// ResetBestTargetNonces makes the strategy wait for the next BestTargetNoncesUpdated before
	// selecting anything.
	ResetBestTargetNonces()
	// BestTargetNoncesUpdated is called when nonces are updated at the best target block.
	BestTargetNoncesUpdated(nonces TargetClientNonces, state RaceState)
	// FinalizedTargetNoncesUpdated is called when nonces are updated at the finalized target block.
	FinalizedTargetNoncesUpdated(nonces TargetClientNonces, state RaceState)
	// SelectNoncesToDeliver returns the nonces to prove and deliver next and the parameters for
	// the proof. It returns false if there is nothing to deliver yet.
	SelectNoncesToDeliver(state RaceState) (NonceInterval, ProofParameters, bool)
}

// StrategyCfg defines which delivery strategy to take for a given lane
type StrategyCfg struct {
	Type string `json:"type" yaml:"type" mapstructure:"type"`
}

const (
	StrategyTypeBasic    = "basic"
	StrategyTypeDelivery = "delivery"
)

// GetStrategy builds the strategy defined in the lane config
func GetStrategy(cfg StrategyCfg, limits DeliveryLimits) (RaceStrategy[MessageDetailsList], error) {
	switch cfg.Type {
	case StrategyTypeBasic:
		return NewBasicStrategy[MessageDetailsList](), nil
	case StrategyTypeDelivery:
		if err := limits.Validate(); err != nil {
			return nil, err
		}
		return NewDeliveryStrategy(limits), nil
	default:
		return nil, fmt.Errorf("unknown strategy type '%v'", cfg.Type)
	}
}
