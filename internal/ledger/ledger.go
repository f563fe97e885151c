// Package ledger records classified transactions together with the derived
// state updates they imply.
package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mirrorScope/internal/aggregate"
	"mirrorScope/internal/model"
	"mirrorScope/internal/storage"
)

type Ledger struct {
	engine *aggregate.Engine
	logger *zap.Logger
}

func New(engine *aggregate.Engine, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = aggregate.NewEngine(logger)
	}
	return &Ledger{engine: engine, logger: logger}
}

// Record writes the account, the transaction and its updates through tx.
// Updates are applied only when the transaction row is new, so a replayed
// (tx_hash, msg_index) returns false and changes nothing.
func (l *Ledger) Record(ctx context.Context, tx storage.Tx, transaction *model.Transaction, updates []model.AggregateUpdate) (bool, error) {
	if transaction == nil {
		return false, fmt.Errorf("nil transaction")
	}
	if err := tx.EnsureAccount(ctx, transaction.Address, transaction.Datetime); err != nil {
		return false, fmt.Errorf("ensure account %s: %w", transaction.Address, err)
	}

	inserted, err := tx.InsertTransaction(ctx, transaction)
	if err != nil {
		return false, fmt.Errorf("insert tx %s/%d: %w", transaction.TxHash, transaction.MsgIndex, err)
	}
	if !inserted {
		l.logger.Debug("transaction already recorded",
			zap.String("tx_hash", transaction.TxHash),
			zap.Uint32("msg_index", transaction.MsgIndex),
		)
		return false, nil
	}

	for _, update := range updates {
		if err := l.engine.Apply(ctx, tx, update); err != nil {
			return false, fmt.Errorf("apply %s update for %s: %w", update.Kind, transaction.TxHash, err)
		}
	}
	return true, nil
}

// RecordAtomic runs Record in its own unit of work.
func (l *Ledger) RecordAtomic(ctx context.Context, store storage.Store, transaction *model.Transaction, updates []model.AggregateUpdate) (bool, error) {
	var inserted bool
	err := store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		inserted, err = l.Record(ctx, tx, transaction, updates)
		return err
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}
