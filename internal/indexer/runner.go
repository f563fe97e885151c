package indexer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"mirrorScope/internal/aggregate"
	"mirrorScope/internal/ledger"
	"mirrorScope/internal/metrics"
	"mirrorScope/internal/model"
	"mirrorScope/internal/parser"
	"mirrorScope/internal/storage"
)

// RunConfig holds runtime settings for ingestion.
type RunConfig struct {
	In         string
	FromHeight uint64
	ToHeight   uint64
}

// Stats counts what a run did with each input line.
type Stats struct {
	Total      int
	Recorded   int
	Duplicate  int
	Skipped    int
	Failed     int
	LastHeight uint64
}

// Runner streams invocation records, classifies them and records the result
// through the ledger, one unit of work per record.
type Runner struct {
	cfg        RunConfig
	store      storage.Store
	classifier parser.Classifier
	ledger     *ledger.Ledger
	errors     storage.ErrorSink
	state      CheckpointStore
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewRunner builds a Runner with its dependencies. errSink, state and m may
// be nil.
func NewRunner(
	cfg RunConfig,
	store storage.Store,
	classifier parser.Classifier,
	l *ledger.Ledger,
	errSink storage.ErrorSink,
	state CheckpointStore,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		store:      store,
		classifier: classifier,
		ledger:     l,
		errors:     errSink,
		state:      state,
		metrics:    m,
		logger:     logger,
	}
}

// Run reads the configured input file.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	if r.cfg.In == "" {
		return Stats{}, fmt.Errorf("input path is required")
	}
	file, err := os.Open(r.cfg.In)
	if err != nil {
		return Stats{}, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()
	return r.Process(ctx, file)
}

// Process ingests JSONL records from in. Records must be ordered by height.
// Heights at or below the checkpoint are skipped; a height is checkpointed
// once a record of a greater height is seen, and the final height at EOF.
// Records that cannot be classified or applied go to the error sink. A store
// failure stops the run before the current height is checkpointed, so a rerun
// retries it.
func (r *Runner) Process(ctx context.Context, in io.Reader) (Stats, error) {
	if r.store == nil {
		return Stats{}, fmt.Errorf("store is nil")
	}
	if r.classifier == nil {
		return Stats{}, fmt.Errorf("classifier is nil")
	}
	if r.ledger == nil {
		return Stats{}, fmt.Errorf("ledger is nil")
	}

	var stats Stats
	var checkpoint uint64
	if r.state != nil {
		last, ok, err := r.state.Load(ctx)
		if err != nil {
			return stats, fmt.Errorf("load state: %w", err)
		}
		if ok {
			checkpoint = last
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", last))
		}
	}

	scanner := bufio.NewScanner(in)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var current uint64
	var failures []model.DecodeError
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.Total++

		var record model.InvocationRecord
		if err := json.Unmarshal(line, &record); err != nil {
			stats.Failed++
			failures = append(failures, model.DecodeError{Error: err.Error()})
			continue
		}
		if record.Height <= checkpoint || record.Height < r.cfg.FromHeight {
			stats.Skipped++
			continue
		}
		if r.cfg.ToHeight > 0 && record.Height > r.cfg.ToHeight {
			stats.Skipped++
			continue
		}
		if record.Height < current {
			return stats, fmt.Errorf("input out of order: height %d after %d", record.Height, current)
		}
		if record.Height > current && current > 0 {
			if err := r.flush(ctx, &failures, current); err != nil {
				return stats, err
			}
		}
		current = record.Height

		outcome, err := r.processRecord(ctx, record)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return stats, ctxErr
			}
			var rejected *rejectedError
			if !errors.As(err, &rejected) {
				r.logger.Error("store failure, stopping before checkpoint",
					zap.Uint64("height", record.Height),
					zap.String("tx_hash", record.TxHash),
					zap.Error(err),
				)
				return stats, fmt.Errorf("height %d tx %s: %w", record.Height, record.TxHash, err)
			}
			stats.Failed++
			action, _, _ := record.Action()
			failures = append(failures, decodeErrorFromRecord(record, action, err))
			r.logger.Warn("record failed",
				zap.Uint64("height", record.Height),
				zap.String("tx_hash", record.TxHash),
				zap.String("contract", record.Contract),
				zap.Error(err),
			)
			continue
		}
		switch outcome {
		case outcomeRecorded:
			stats.Recorded++
		case outcomeDuplicate:
			stats.Duplicate++
		default:
			stats.Skipped++
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan input: %w", err)
	}

	if current > 0 {
		if err := r.flush(ctx, &failures, current); err != nil {
			return stats, err
		}
		stats.LastHeight = current
	} else if err := r.putErrors(&failures); err != nil {
		return stats, err
	}

	r.metrics.RecordIngest("recorded", stats.Recorded)
	r.metrics.RecordIngest("duplicate", stats.Duplicate)
	r.metrics.RecordIngest("skipped", stats.Skipped)
	r.metrics.RecordIngest("failed", stats.Failed)

	r.logger.Info("ingest complete",
		zap.Int("total", stats.Total),
		zap.Int("recorded", stats.Recorded),
		zap.Int("duplicate", stats.Duplicate),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Uint64("last_height", stats.LastHeight),
	)
	return stats, nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeRecorded
	outcomeDuplicate
)

// rejectedError marks a record that can never be recorded as given.
type rejectedError struct {
	err error
}

func (e *rejectedError) Error() string { return e.err.Error() }
func (e *rejectedError) Unwrap() error { return e.err }

func reject(err error) error {
	return &rejectedError{err: err}
}

func (r *Runner) processRecord(ctx context.Context, record model.InvocationRecord) (outcome, error) {
	contract, err := r.store.ContractByAddress(ctx, record.Contract)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("lookup contract: %w", err)
	}
	if contract == nil {
		r.logger.Debug("skip unknown contract", zap.String("contract", record.Contract))
		return outcomeSkipped, nil
	}

	inv, err := parser.NewInvocation(record, *contract)
	if err != nil {
		return outcomeSkipped, reject(err)
	}
	result, err := r.classifier.Classify(inv)
	if err != nil {
		return outcomeSkipped, reject(err)
	}
	if result == nil {
		return outcomeSkipped, nil
	}

	inserted, err := r.ledger.RecordAtomic(ctx, r.store, &result.Tx, result.Updates)
	if errors.Is(err, aggregate.ErrZeroBalance) || errors.Is(err, aggregate.ErrInvalidUpdate) {
		return outcomeSkipped, reject(err)
	}
	if err != nil {
		return outcomeSkipped, fmt.Errorf("record: %w", err)
	}
	if !inserted {
		return outcomeDuplicate, nil
	}
	return outcomeRecorded, nil
}

// flush writes pending failures and then checkpoints height.
func (r *Runner) flush(ctx context.Context, failures *[]model.DecodeError, height uint64) error {
	if err := r.putErrors(failures); err != nil {
		return err
	}
	if r.state == nil {
		return nil
	}
	if err := r.state.Save(ctx, height); err != nil {
		return fmt.Errorf("save state %d: %w", height, err)
	}
	r.metrics.SetCheckpoint(height)
	return nil
}

func (r *Runner) putErrors(failures *[]model.DecodeError) error {
	if len(*failures) == 0 || r.errors == nil {
		*failures = (*failures)[:0]
		return nil
	}
	if err := r.errors.PutErrors(*failures); err != nil {
		return fmt.Errorf("write errors: %w", err)
	}
	*failures = (*failures)[:0]
	return nil
}

func decodeErrorFromRecord(record model.InvocationRecord, action string, err error) model.DecodeError {
	return model.DecodeError{
		Height:   record.Height,
		TxHash:   record.TxHash,
		MsgIndex: record.MsgIndex,
		Contract: record.Contract,
		Action:   action,
		Error:    err.Error(),
	}
}
