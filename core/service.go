package core

import (
	"context"
	"fmt"
	"time"

	retry "github.com/avast/retry-go"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/hyperledger-labs/yui-lane-relayer/internal/telemetry"
	"github.com/hyperledger-labs/yui-lane-relayer/log"
)

var (
	rtyAttNum = uint(5)
	rtyAtt    = retry.Attempts(rtyAttNum)
	rtyDel    = retry.Delay(time.Millisecond * 400)
	rtyErr    = retry.LastErrorOnly(true)
)

const progressLogInterval = 10 * time.Second

// StartService starts a race service for the given lane
func StartService[R NoncesRange[R]](
	ctx context.Context,
	laneID string,
	st RaceStrategy[R],
	src SourceClient[R],
	dst TargetClient,
	interval,
	stallTimeout time.Duration,
) error {
	srv := NewRaceService(laneID, st, src, dst, interval, stallTimeout)
	return srv.Start(ctx)
}

// RaceService delivers the messages of a single lane from the source to the target.
type RaceService[R NoncesRange[R]] struct {
	laneID       string
	st           RaceStrategy[R]
	src          SourceClient[R]
	dst          TargetClient
	interval     time.Duration
	stallTimeout time.Duration

	state                RaceStateImpl
	submittedAt          time.Time
	requiredSourceHeader *HeaderID
	lastProgressLog      time.Time
	now                  func() time.Time
}

// NewRaceService returns a new service
func NewRaceService[R NoncesRange[R]](
	laneID string,
	st RaceStrategy[R],
	src SourceClient[R],
	dst TargetClient,
	interval,
	stallTimeout time.Duration,
) *RaceService[R] {
	return &RaceService[R]{
		laneID:       laneID,
		st:           st,
		src:          src,
		dst:          dst,
		interval:     interval,
		stallTimeout: stallTimeout,
		now:          time.Now,
	}
}

// State returns a copy of the current race state
func (srv *RaceService[R]) State() RaceStateImpl {
	return *srv.state.Clone()
}

// Start starts a race service
func (srv *RaceService[R]) Start(ctx context.Context) error {
	logger := GetLaneLogger(srv.laneID)
	for {
		if err := retry.Do(func() error {
			return srv.Serve(ctx)
		}, rtyAtt, rtyDel, rtyErr, retry.Context(ctx), retry.OnRetry(func(n uint, err error) {
			logger.InfoContext(ctx,
				"retrying to serve the race",
				"try", n+1,
				"try_limit", rtyAttNum,
				"error", err.Error(),
			)
		})); err != nil {
			return err
		}
		if err := wait(ctx, srv.interval); err != nil {
			return err
		}
	}
}

// Serve performs a single step of the race
func (srv *RaceService[R]) Serve(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "RaceService.Serve", WithLaneAttributes(srv.laneID))
	defer span.End()
	logger := GetLaneLogger(srv.laneID)

	// First, get the latest states of both sides
	var srcState, dstState ClientState
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		if srcState, err = srv.src.State(egCtx); err != nil {
			return fmt.Errorf("failed to get the source state: %v", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		if dstState, err = srv.dst.State(egCtx); err != nil {
			return fmt.Errorf("failed to get the target state: %v", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		logger.ErrorContext(ctx, "failed to get client states", err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := srv.updateNonces(ctx, srcState, dstState); err != nil {
		logger.ErrorContext(ctx, "failed to update nonces", err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	// a submitted transaction that is never mined must not block the lane forever
	if srv.state.Submitted != nil && srv.stallTimeout > 0 && srv.now().Sub(srv.submittedAt) > srv.stallTimeout {
		logger.WarnContext(ctx,
			"submitted nonces have not been delivered in time",
			"nonces", srv.state.Submitted.String(),
			"stall_timeout", srv.stallTimeout,
		)
		srv.state.ResetNoncesSubmitted()
		srv.forgetTargetNonces()
	}

	id := srv.st.RequiredSourceHeaderAtTarget(&srv.state)
	if id == nil {
		srv.requiredSourceHeader = nil
	} else if !headerIDPtrEqual(id, srv.requiredSourceHeader) {
		if err := srv.requireSourceHeader(ctx, *id); err != nil {
			logger.ErrorContext(ctx, "failed to require source header", err, "header", id.String())
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		logger.DebugContext(ctx, "required source header at target", "header", id.String())
		srv.requiredSourceHeader = id
	}

	if err := srv.proveNonces(ctx); err != nil {
		logger.ErrorContext(ctx, "failed to generate proof", err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := srv.submitProof(ctx); err != nil {
		logger.ErrorContext(ctx, "failed to submit proof", err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	srv.updateMetrics(ctx)
	srv.logProgress(ctx, logger)

	return nil
}

// updateNonces queries the nonces at every header that changed since the last call. A header
// is only recorded once its nonces are known, so a failed query is repeated on the next call.
func (srv *RaceService[R]) updateNonces(ctx context.Context, srcState, dstState ClientState) error {
	if dstState.BestFinalizedPeerAtBestSelf != nil {
		srv.state.SetBestFinalizedSourceHeaderIDAtBestTarget(*dstState.BestFinalizedPeerAtBestSelf)
	}

	if !headerIDPtrEqual(srv.state.FinalizedSourceAtSource, &srcState.BestFinalizedSelf) {
		var prevLatestNonce MessageNonce
		if best := srv.st.BestAtSource(); best != nil {
			prevLatestNonce = *best
		}
		atBlock, nonces, err := srv.src.Nonces(ctx, srcState.BestFinalizedSelf, prevLatestNonce)
		if err != nil {
			return fmt.Errorf("failed to query source nonces: %v", err)
		}
		srv.st.SourceNoncesUpdated(atBlock, nonces)
		srv.state.FinalizedSourceAtSource = cloneHeaderID(&srcState.BestFinalizedSelf)
	}

	if !headerIDPtrEqual(srv.state.BestTarget, &dstState.BestSelf) {
		_, nonces, err := srv.dst.Nonces(ctx, dstState.BestSelf, true)
		if err != nil {
			return fmt.Errorf("failed to query best target nonces: %v", err)
		}
		srv.state.BestTarget = cloneHeaderID(&dstState.BestSelf)
		srv.st.BestTargetNoncesUpdated(nonces, &srv.state)
	}

	if !headerIDPtrEqual(srv.state.FinalizedTarget, &dstState.BestFinalizedSelf) {
		_, nonces, err := srv.dst.Nonces(ctx, dstState.BestFinalizedSelf, false)
		if err != nil {
			return fmt.Errorf("failed to query finalized target nonces: %v", err)
		}
		srv.state.FinalizedTarget = cloneHeaderID(&dstState.BestFinalizedSelf)
		srv.st.FinalizedTargetNoncesUpdated(nonces, &srv.state)
	}

	return nil
}

func (srv *RaceService[R]) requireSourceHeader(ctx context.Context, id HeaderID) error {
	ctx, span := startClientSpan(ctx, srv.laneID, "TargetClient.RequireSourceHeader", srv.dst, WithHeaderAttributes("header", id))
	defer span.End()

	if err := srv.dst.RequireSourceHeader(ctx, id); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (srv *RaceService[R]) proveNonces(ctx context.Context) error {
	if srv.state.ToSubmit != nil || srv.state.Submitted != nil || srv.state.FinalizedSourceAtBestTarget == nil {
		return nil
	}
	nonces, params, ok := srv.st.SelectNoncesToDeliver(&srv.state)
	if !ok {
		return nil
	}

	ctx, span := startClientSpan(ctx, srv.laneID, "SourceClient.GenerateProof", srv.src, WithNoncesAttributes(nonces))
	defer span.End()

	generatedAt, proved, proof, err := srv.src.GenerateProof(ctx, params.AtBlock, nonces, params)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to generate proof of %v at %v: %v", nonces, params.AtBlock, err)
	}
	srv.state.ToSubmit = &ProvedNonces{
		AtBlock: generatedAt,
		Nonces:  proved,
		Proof:   proof,
	}
	return nil
}

func (srv *RaceService[R]) submitProof(ctx context.Context) error {
	toSubmit := srv.state.ToSubmit
	if toSubmit == nil {
		return nil
	}
	srv.state.ResetNoncesToSubmit()

	ctx, span := startClientSpan(ctx, srv.laneID, "TargetClient.SubmitProof", srv.dst, WithNoncesAttributes(toSubmit.Nonces))
	defer span.End()

	submitted, err := srv.dst.SubmitProof(ctx, toSubmit.AtBlock, toSubmit.Nonces, toSubmit.Proof)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		// the target may have moved on while we were proving; wait for fresh target nonces
		srv.forgetTargetNonces()
		return fmt.Errorf("failed to submit proof of %v: %v", toSubmit.Nonces, err)
	}
	srv.state.Submitted = &submitted
	srv.submittedAt = srv.now()

	if telemetry.NoncesSubmittedCounter != nil {
		telemetry.NoncesSubmittedCounter.Add(ctx, int64(submitted.Len()), telemetry.WithLaneAttributes(srv.laneID))
	}
	GetLaneLogger(srv.laneID).InfoContext(ctx, "submitted proof", "nonces", submitted.String(), "at_block", toSubmit.AtBlock.String())
	return nil
}

// forgetTargetNonces makes the next Serve query the target nonces again.
func (srv *RaceService[R]) forgetTargetNonces() {
	srv.st.ResetBestTargetNonces()
	srv.state.BestTarget = nil
}

func (srv *RaceService[R]) updateMetrics(ctx context.Context) {
	attrs := telemetry.LaneAttributes(srv.laneID)
	if best := srv.st.BestAtSource(); best != nil && telemetry.BestNonceAtSourceGauge != nil {
		telemetry.BestNonceAtSourceGauge.Set(int64(*best), attrs...)
	}
	if best := srv.st.BestAtTarget(); best != nil && telemetry.BestNonceAtTargetGauge != nil {
		telemetry.BestNonceAtTargetGauge.Set(int64(*best), attrs...)
	}
}

func (srv *RaceService[R]) logProgress(ctx context.Context, logger *log.RelayLogger) {
	now := srv.now()
	if now.Sub(srv.lastProgressLog) < progressLogInterval {
		return
	}
	srv.lastProgressLog = now

	args := []any{"is_empty", srv.st.IsEmpty()}
	if best := srv.st.BestAtSource(); best != nil {
		args = append(args, "best_nonce_at_source", *best)
	}
	if best := srv.st.BestAtTarget(); best != nil {
		args = append(args, "best_nonce_at_target", *best)
	}
	if srv.state.Submitted != nil {
		args = append(args, "submitted", srv.state.Submitted.String())
	}
	logger.InfoContext(ctx, "race progress", args...)
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func GetLaneLogger(laneID string) *log.RelayLogger {
	return log.GetLogger().
		WithLane(laneID).
		WithModule("core.race")
}
