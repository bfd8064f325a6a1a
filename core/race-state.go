package core

// Proof is an opaque proof of messages produced by the source client.
type Proof []byte

// RaceState gives strategies read access to the race progress and lets them
// drop in-flight selections. It is owned by the caller.
type RaceState interface {
	// SetBestFinalizedSourceHeaderIDAtBestTarget sets the best finalized source header id
	// known to the best block of the target chain.
	SetBestFinalizedSourceHeaderIDAtBestTarget(id HeaderID)

	// BestFinalizedSourceHeaderIDAtSource returns the best finalized source header id at the source chain.
	BestFinalizedSourceHeaderIDAtSource() *HeaderID
	// BestFinalizedSourceHeaderIDAtBestTarget returns the best finalized source header id known to
	// the best block of the target chain. It may lag behind the source chain.
	BestFinalizedSourceHeaderIDAtBestTarget() *HeaderID
	// BestTargetHeaderID returns the best (not necessarily finalized) target header id.
	BestTargetHeaderID() *HeaderID
	// BestFinalizedTargetHeaderID returns the best finalized target header id.
	BestFinalizedTargetHeaderID() *HeaderID

	// NoncesToSubmit returns the nonces that have been selected and proved but not yet submitted.
	NoncesToSubmit() *NonceInterval
	ResetNoncesToSubmit()

	// NoncesSubmitted returns the nonces that have been submitted to the target chain and are
	// waiting to appear there.
	NoncesSubmitted() *NonceInterval
	ResetNoncesSubmitted()
}

// ProvedNonces is a proved nonces range that is ready to be submitted.
type ProvedNonces struct {
	AtBlock HeaderID
	Nonces  NonceInterval
	Proof   Proof
}

// RaceStateImpl is the RaceState kept by the RaceService.
type RaceStateImpl struct {
	FinalizedSourceAtSource     *HeaderID
	FinalizedSourceAtBestTarget *HeaderID
	BestTarget                  *HeaderID
	FinalizedTarget             *HeaderID
	ToSubmit                    *ProvedNonces
	Submitted                   *NonceInterval
}

var _ RaceState = (*RaceStateImpl)(nil)

func (s *RaceStateImpl) SetBestFinalizedSourceHeaderIDAtBestTarget(id HeaderID) {
	s.FinalizedSourceAtBestTarget = &id
}

func (s *RaceStateImpl) BestFinalizedSourceHeaderIDAtSource() *HeaderID {
	return s.FinalizedSourceAtSource
}

func (s *RaceStateImpl) BestFinalizedSourceHeaderIDAtBestTarget() *HeaderID {
	return s.FinalizedSourceAtBestTarget
}

func (s *RaceStateImpl) BestTargetHeaderID() *HeaderID {
	return s.BestTarget
}

func (s *RaceStateImpl) BestFinalizedTargetHeaderID() *HeaderID {
	return s.FinalizedTarget
}

func (s *RaceStateImpl) NoncesToSubmit() *NonceInterval {
	if s.ToSubmit == nil {
		return nil
	}
	nonces := s.ToSubmit.Nonces
	return &nonces
}

func (s *RaceStateImpl) ResetNoncesToSubmit() {
	s.ToSubmit = nil
}

func (s *RaceStateImpl) NoncesSubmitted() *NonceInterval {
	return s.Submitted
}

func (s *RaceStateImpl) ResetNoncesSubmitted() {
	s.Submitted = nil
}

// Clone returns a copy of the state that can be modified independently.
func (s *RaceStateImpl) Clone() *RaceStateImpl {
	c := *s
	c.FinalizedSourceAtSource = cloneHeaderID(s.FinalizedSourceAtSource)
	c.FinalizedSourceAtBestTarget = cloneHeaderID(s.FinalizedSourceAtBestTarget)
	c.BestTarget = cloneHeaderID(s.BestTarget)
	c.FinalizedTarget = cloneHeaderID(s.FinalizedTarget)
	if s.ToSubmit != nil {
		proved := *s.ToSubmit
		c.ToSubmit = &proved
	}
	if s.Submitted != nil {
		submitted := *s.Submitted
		c.Submitted = &submitted
	}
	return &c
}

func cloneHeaderID(id *HeaderID) *HeaderID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
