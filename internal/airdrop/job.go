package airdrop

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"mirrorScope/internal/merkle"
	"mirrorScope/internal/metrics"
	"mirrorScope/internal/storage"
)

// ChainState reads the current height and the latest registered stage.
type ChainState interface {
	LatestHeight(ctx context.Context) (uint64, error)
	LatestStage(ctx context.Context) (uint32, error)
}

// Locker takes a cross-process lock. acquired is false when another holder
// has the key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, acquired bool, err error)
}

// TickResult describes what a tick did.
type TickResult struct {
	RunID      string
	Skipped    bool
	Action     Action
	Recipients int
	Inserted   int
	Root       common.Hash
}

type JobConfig struct {
	LockTTL time.Duration
}

// Job runs one scheduler evaluation per Tick and, when the schedule says
// so, computes and commits the next stage.
type Job struct {
	scheduler   *Scheduler
	chain       ChainState
	snapshotter *Snapshotter
	ledger      *DistributionLedger
	store       storage.Store
	locker      Locker
	metrics     *metrics.Metrics
	logger      *zap.Logger
	cfg         JobConfig

	group singleflight.Group
}

func NewJob(
	scheduler *Scheduler,
	chainState ChainState,
	snapshotter *Snapshotter,
	ledger *DistributionLedger,
	store storage.Store,
	locker Locker,
	m *metrics.Metrics,
	cfg JobConfig,
	logger *zap.Logger,
) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Minute
	}
	return &Job{
		scheduler:   scheduler,
		chain:       chainState,
		snapshotter: snapshotter,
		ledger:      ledger,
		store:       store,
		locker:      locker,
		metrics:     m,
		logger:      logger,
		cfg:         cfg,
	}
}

// Tick evaluates the schedule once. It returns Skipped when the rate limit
// has not elapsed, and a *StageError when a stage attempt fails.
func (j *Job) Tick(ctx context.Context) (*TickResult, error) {
	runID := uuid.NewString()
	if !j.scheduler.TryRun() {
		return &TickResult{RunID: runID, Skipped: true}, nil
	}
	log := j.logger.With(zap.String("run_id", runID))

	stage, err := j.chain.LatestStage(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest stage: %w", err)
	}
	height, err := j.chain.LatestHeight(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest height: %w", err)
	}

	action := j.scheduler.Schedule.Evaluate(height, stage)
	result := &TickResult{RunID: runID, Action: action}
	if action.Kind == ActionNone {
		log.Debug("no stage due",
			zap.Uint32("latest_stage", stage),
			zap.Uint64("height", height),
		)
		return result, nil
	}

	key := "stage:" + strconv.FormatUint(uint64(action.Stage), 10)
	v, err, shared := j.group.Do(key, func() (interface{}, error) {
		return j.runStage(ctx, log, key, action)
	})
	if shared {
		log.Info("joined in-flight stage run", zap.Uint32("stage", action.Stage))
	}
	if err != nil {
		return result, err
	}
	done := v.(*TickResult)
	result.Recipients = done.Recipients
	result.Inserted = done.Inserted
	result.Root = done.Root
	return result, nil
}

func (j *Job) runStage(ctx context.Context, log *zap.Logger, key string, action Action) (*TickResult, error) {
	started := time.Now()
	log = log.With(
		zap.String("action", action.Kind.String()),
		zap.Uint32("stage", action.Stage),
		zap.Uint64("height", action.Height),
	)
	fail := func(addresses int, err error) (*TickResult, error) {
		stageErr := &StageError{Stage: action.Stage, Height: action.Height, Addresses: addresses, Err: err}
		j.metrics.RecordStage("failed", action.Stage, addresses, time.Since(started))
		log.Error("stage failed", zap.Int("addresses", addresses), zap.Error(err))
		return nil, stageErr
	}

	if j.locker != nil {
		release, acquired, err := j.locker.TryLock(ctx, key, j.cfg.LockTTL)
		if err != nil {
			return fail(0, err)
		}
		if !acquired {
			j.metrics.RecordStage("busy", action.Stage, 0, time.Since(started))
			return nil, &StageError{Stage: action.Stage, Height: action.Height, Err: ErrStageBusy}
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("release stage lock", zap.Error(err))
			}
		}()
	}

	snap, err := j.snapshotter.TakeSnapshot(ctx, action.Height)
	if err != nil {
		return fail(0, err)
	}
	allocations, err := Allocate(action.Amount, snap, action.Policy)
	if err != nil {
		return fail(len(snap.Addresses), err)
	}
	tree, err := merkle.New(Entries(allocations))
	if err != nil {
		return fail(len(allocations), err)
	}
	commit, err := j.ledger.CommitStage(ctx, j.store, action.Stage, allocations, tree, snap.Total)
	if err != nil {
		return fail(len(allocations), err)
	}

	elapsed := time.Since(started)
	j.metrics.RecordStage("committed", action.Stage, len(allocations), elapsed)
	log.Info("stage committed",
		zap.Uint64("snapshot_height", snap.Height),
		zap.Int("stakers", len(allocations)),
		zap.Int("inserted", commit.Inserted),
		zap.Int("skipped", commit.Skipped),
		zap.String("staked", snap.Total.String()),
		zap.String("amount", action.Amount.String()),
		zap.String("root", commit.Root.Hex()),
		zap.Duration("elapsed", elapsed),
	)
	return &TickResult{
		Action:     action,
		Recipients: len(allocations),
		Inserted:   commit.Inserted,
		Root:       commit.Root,
	}, nil
}
