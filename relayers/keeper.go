package relayers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	retry "github.com/avast/retry-go"
	dbm "github.com/cometbft/cometbft-db"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/hyperledger-labs/yui-lane-relayer/internal/telemetry"
	"github.com/hyperledger-labs/yui-lane-relayer/log"
)

const dbName = "relayers"

var (
	rtyAtt = retry.Attempts(5)
	rtyDel = retry.Delay(time.Millisecond * 400)
	rtyErr = retry.LastErrorOnly(true)
)

// Keeper stores relayer registrations and lane relayer sets.
// It is not safe for concurrent use.
type Keeper struct {
	db     dbm.DB
	params Params
}

func NewKeeper(db dbm.DB, params Params) (*Keeper, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Keeper{db: db, params: params}, nil
}

// OpenDB opens the LevelDB database of the keeper in dir.
func OpenDB(dir string) (db *dbm.GoLevelDB, df func(), err error) {
	if err := retry.Do(func() error {
		db, err = dbm.NewGoLevelDB(dbName, dir)
		if err != nil {
			return fmt.Errorf("can't open relayers database: %w", err)
		}
		return nil
	}, rtyAtt, rtyDel, rtyErr); err != nil {
		return nil, nil, err
	}

	df = func() {
		if err := db.Close(); err != nil {
			getLogger().Error("failed to close relayers database", err)
		}
	}
	return
}

func (k *Keeper) Params() Params {
	return k.params
}

// Registration returns the registration of relayer.
func (k *Keeper) Registration(relayer sdk.AccAddress) (Registration, bool, error) {
	var reg Registration
	found, err := k.get(RegistrationKey(relayer), &reg)
	return reg, found, err
}

// Register registers relayer or extends its registration till validTill.
func (k *Keeper) Register(relayer sdk.AccAddress, validTill, currentBlock uint64) error {
	lease := remainingLease(validTill, currentBlock)
	if lease <= k.params.RequiredRegistrationLease {
		return errorsmod.Wrapf(ErrInvalidRegistrationLease, "lease %d must be greater than %d", lease, k.params.RequiredRegistrationLease)
	}

	reg, found, err := k.Registration(relayer)
	if err != nil {
		return err
	}
	if found && validTill < reg.ValidTill {
		return errorsmod.Wrapf(ErrCannotReduceRegistrationLease, "registration is valid till %d", reg.ValidTill)
	}
	reg.ValidTill = validTill
	reg.Stake = k.params.RequiredStake

	return k.write(func(batch dbm.Batch) error {
		return setJSON(batch, RegistrationKey(relayer), reg)
	})
}

// Deregister removes the registration of relayer once it has expired.
func (k *Keeper) Deregister(relayer sdk.AccAddress, currentBlock uint64) error {
	reg, found, err := k.Registration(relayer)
	if err != nil {
		return err
	}
	if !found {
		return errorsmod.Wrap(ErrUnknownRelayer, relayer.String())
	}
	if reg.ValidTill >= currentBlock {
		return errorsmod.Wrapf(ErrRegistrationIsStillActive, "registration is valid till %d", reg.ValidTill)
	}

	return k.write(func(batch dbm.Batch) error {
		return batch.Delete(RegistrationKey(relayer))
	})
}

func (k *Keeper) IsRegistrationActive(relayer sdk.AccAddress, currentBlock uint64) (bool, error) {
	reg, found, err := k.Registration(relayer)
	if err != nil || !found {
		return false, err
	}
	return reg.IsActive(k.params, currentBlock), nil
}

// RegisterAtLane puts the bid of relayer into the next set of the lane.
func (k *Keeper) RegisterAtLane(laneID string, relayer sdk.AccAddress, reward math.Int, currentBlock uint64) error {
	if reward.IsNil() || reward.IsNegative() {
		return errorsmod.Wrapf(ErrInvalidReward, "reward %v", reward)
	}
	active, err := k.IsRegistrationActive(relayer, currentBlock)
	if err != nil {
		return err
	}
	if !active {
		return errorsmod.Wrap(ErrInactiveRegistration, relayer.String())
	}

	next, err := k.NextSet(laneID)
	if err != nil {
		return err
	}
	if !next.TryInsert(relayer, reward) {
		return errorsmod.Wrapf(ErrTooLowReward, "lane %s, reward %s", laneID, reward)
	}

	return k.write(func(batch dbm.Batch) error {
		return setJSON(batch, NextSetKey(laneID), next)
	})
}

// DeregisterAtLane removes the bid of relayer from the next set of the lane.
func (k *Keeper) DeregisterAtLane(laneID string, relayer sdk.AccAddress) error {
	next, err := k.NextSet(laneID)
	if err != nil {
		return err
	}
	if _, ok := next.TryRemove(relayer); !ok {
		return errorsmod.Wrapf(ErrUnknownRelayer, "lane %s, relayer %s", laneID, relayer)
	}

	return k.write(func(batch dbm.Batch) error {
		return setJSON(batch, NextSetKey(laneID), next)
	})
}

// NoteDeliveredMessage marks relayer as mergeable in the active set of the lane.
func (k *Keeper) NoteDeliveredMessage(laneID string, relayer sdk.AccAddress) (bool, error) {
	active, err := k.ActiveSet(laneID)
	if err != nil {
		return false, err
	}
	if !active.NoteDeliveredMessage(relayer) {
		return false, nil
	}

	if err := k.write(func(batch dbm.Batch) error {
		return setJSON(batch, ActiveSetKey(laneID), active)
	}); err != nil {
		return false, err
	}
	return true, nil
}

// OnBlock enacts the next sets of all lanes whose epoch has ended. It returns the lanes that
// have rotated.
func (k *Keeper) OnBlock(ctx context.Context, currentBlock uint64) ([]string, error) {
	lanes, err := k.Lanes()
	if err != nil {
		return nil, err
	}
	return k.rotate(ctx, lanes, currentBlock)
}

// RotateLane enacts the next set of a single lane if its epoch has ended.
func (k *Keeper) RotateLane(ctx context.Context, laneID string, currentBlock uint64) (bool, error) {
	known, err := k.db.Has(NextSetKey(laneID))
	if err != nil {
		return false, fmt.Errorf("failed to get next set of lane %s: %v", laneID, err)
	}
	if !known {
		return false, nil
	}
	rotated, err := k.rotate(ctx, []string{laneID}, currentBlock)
	if err != nil {
		return false, err
	}
	return len(rotated) > 0, nil
}

func (k *Keeper) rotate(ctx context.Context, lanes []string, currentBlock uint64) ([]string, error) {
	logger := getLogger()

	var registrationErr error
	isRegistrationActive := func(relayer sdk.AccAddress) bool {
		active, err := k.IsRegistrationActive(relayer, currentBlock)
		if err != nil && registrationErr == nil {
			registrationErr = err
		}
		return active
	}

	type rotation struct {
		laneID string
		active *ActiveLaneRelayersSet
		next   *NextLaneRelayersSet
	}
	var rotations []rotation
	for _, laneID := range lanes {
		next, err := k.NextSet(laneID)
		if err != nil {
			return nil, err
		}
		if currentBlock < next.MayEnactAt() {
			continue
		}
		active, err := k.ActiveSet(laneID)
		if err != nil {
			return nil, err
		}
		if !active.ActivateNextSet(currentBlock, next, isRegistrationActive) {
			continue
		}
		if registrationErr != nil {
			logger.WithLane(laneID).ErrorContext(ctx, "failed to check registrations", registrationErr)
			return nil, registrationErr
		}
		next.SetMayEnactAt(currentBlock + k.params.EpochLength)
		rotations = append(rotations, rotation{laneID, active, next})
	}
	if len(rotations) == 0 {
		return nil, nil
	}

	if err := k.write(func(batch dbm.Batch) error {
		for _, r := range rotations {
			if err := setJSON(batch, ActiveSetKey(r.laneID), r.active); err != nil {
				return err
			}
			if err := setJSON(batch, NextSetKey(r.laneID), r.next); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		logger.ErrorContext(ctx, "failed to store rotated sets", err, "block", currentBlock)
		return nil, err
	}

	rotated := make([]string, 0, len(rotations))
	for _, r := range rotations {
		logger.WithLane(r.laneID).InfoContext(ctx, "rotated lane relayers",
			"block", currentBlock,
			"active_relayers", len(r.active.relayers.items),
			"may_enact_at", r.next.MayEnactAt(),
		)
		if telemetry.RotationsCounter != nil {
			telemetry.RotationsCounter.Add(ctx, 1, telemetry.WithLaneAttributes(r.laneID))
		}
		rotated = append(rotated, r.laneID)
	}
	return rotated, nil
}

// ActiveSet returns the active set of the lane. An unknown lane has an empty set.
func (k *Keeper) ActiveSet(laneID string) (*ActiveLaneRelayersSet, error) {
	set := NewActiveLaneRelayersSet(int(k.params.ActiveSetCapacity))
	if _, err := k.get(ActiveSetKey(laneID), set); err != nil {
		return nil, err
	}
	return set, nil
}

// NextSet returns the next set of the lane. An unknown lane has an empty set that may be
// enacted at any block.
func (k *Keeper) NextSet(laneID string) (*NextLaneRelayersSet, error) {
	set := NewNextLaneRelayersSet(int(k.params.NextSetCapacity), 0)
	if _, err := k.get(NextSetKey(laneID), set); err != nil {
		return nil, err
	}
	return set, nil
}

// Lanes returns the lanes that have a next set, in key order.
func (k *Keeper) Lanes() ([]string, error) {
	it, err := dbm.IteratePrefix(k.db, NextSetKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate next sets: %v", err)
	}
	defer it.Close()

	var lanes []string
	for ; it.Valid(); it.Next() {
		lanes = append(lanes, string(it.Key()[len(NextSetKeyPrefix):]))
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("failed to iterate next sets: %v", err)
	}
	return lanes, nil
}

func (k *Keeper) get(key []byte, v any) (bool, error) {
	bz, err := k.db.Get(key)
	if err != nil {
		return false, fmt.Errorf("failed to get %X: %v", key, err)
	}
	if bz == nil {
		return false, nil
	}
	if err := json.Unmarshal(bz, v); err != nil {
		return false, fmt.Errorf("failed to decode %X: %v", key, err)
	}
	return true, nil
}

func (k *Keeper) write(fn func(batch dbm.Batch) error) error {
	batch := k.db.NewBatch()
	defer batch.Close()

	if err := fn(batch); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("failed to write batch: %v", err)
	}
	return nil
}

func setJSON(batch dbm.Batch, key []byte, v any) error {
	bz, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %X: %v", key, err)
	}
	return batch.Set(key, bz)
}

func getLogger() *log.RelayLogger {
	return log.GetLogger().WithModule("relayers.keeper")
}
