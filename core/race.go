package core

import (
	"context"
)

// ClientState is the state of a race client, i.e. of one side of the lane.
type ClientState struct {
	// BestSelf is the best header of the client's own chain.
	BestSelf HeaderID
	// BestFinalizedSelf is the best finalized header of the client's own chain.
	BestFinalizedSelf HeaderID
	// BestFinalizedPeerAtBestSelf is the best finalized header of the peer chain known at
	// BestSelf. It is nil if the peer chain has not been synced yet.
	BestFinalizedPeerAtBestSelf *HeaderID
}

//go:generate mockgen -source=race.go -destination=mocks/race.go -package=mocks

// SourceClient is the client of the chain where messages are sent.
type SourceClient[R NoncesRange[R]] interface {
	// State returns the current state of the source chain.
	State(ctx context.Context) (ClientState, error)
	// Nonces returns the nonces generated at atBlock after prevLatestNonce.
	Nonces(ctx context.Context, atBlock HeaderID, prevLatestNonce MessageNonce) (HeaderID, SourceClientNonces[R], error)
	// GenerateProof generates the proof of nonces at the given block.
	GenerateProof(ctx context.Context, atBlock HeaderID, nonces NonceInterval, params ProofParameters) (HeaderID, NonceInterval, Proof, error)
}

// TargetClient is the client of the chain where messages are delivered.
type TargetClient interface {
	// State returns the current state of the target chain.
	State(ctx context.Context) (ClientState, error)
	// Nonces returns the nonces known to the target at atBlock.
	Nonces(ctx context.Context, atBlock HeaderID, updateMetrics bool) (HeaderID, TargetClientNonces, error)
	// RequireSourceHeader asks the header relay to deliver the given source header to the target.
	RequireSourceHeader(ctx context.Context, id HeaderID) error
	// SubmitProof submits the proof of nonces and returns the nonces that have been submitted.
	SubmitProof(ctx context.Context, generatedAt HeaderID, nonces NonceInterval, proof Proof) (NonceInterval, error)
}
