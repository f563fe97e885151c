package storage

import (
	"context"
	"time"

	"mirrorScope/internal/model"
)

// Tx is a unit of work. Every write made through it commits or rolls back
// together.
type Tx interface {
	// EnsureAccount creates the account row if it does not exist.
	EnsureAccount(ctx context.Context, address string, at time.Time) error
	// InsertTransaction writes tx unless (TxHash, MsgIndex) already exists.
	InsertTransaction(ctx context.Context, tx *model.Transaction) (bool, error)

	LatestBalance(ctx context.Context, address, token string) (*model.BalancePosition, error)
	AppendBalance(ctx context.Context, position model.BalancePosition) error
	AddLiquidity(ctx context.Context, token string, amount string) error
	AddDailyVolume(ctx context.Context, day time.Time, amount string) error

	// InsertDistribution writes rec unless (Stage, Network, Address) already exists.
	InsertDistribution(ctx context.Context, rec model.DistributionRecord) (bool, error)
}

// Store is the relational contract between the pipelines and persistence.
type Store interface {
	// WithinTx runs fn in a unit of work, committing when fn returns nil.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	ContractByAddress(ctx context.Context, address string) (*model.Contract, error)
	Distribution(ctx context.Context, stage uint32, network model.Network, address string) (*model.DistributionRecord, error)
}

// ErrorSink receives invocations that failed classification or recording.
type ErrorSink interface {
	PutErrors(records []model.DecodeError) error
}
