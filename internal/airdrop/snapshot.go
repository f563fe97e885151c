package airdrop

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mirrorScope/internal/chain"
)

// StakingLedger reads staked amounts per delegator at a height.
type StakingLedger interface {
	DelegationsAt(ctx context.Context, height uint64) (map[string]*big.Int, error)
}

// Snapshot is the eligible stake set at a height.
type Snapshot struct {
	Height    uint64
	Stakes    map[string]decimal.Decimal
	Addresses []string
	Total     decimal.Decimal
}

type SnapshotConfig struct {
	Granularity uint64
	MinStake    decimal.Decimal
	MaxRetries  int
	RetryDelay  time.Duration
}

// DefaultSnapshotConfig uses 10,000-block granularity and a minimum stake of
// 1000 whole units at 6 decimals.
func DefaultSnapshotConfig() SnapshotConfig {
	return SnapshotConfig{
		Granularity: 10000,
		MinStake:    decimal.NewFromInt(1000000000),
		MaxRetries:  3,
		RetryDelay:  time.Second,
	}
}

type Snapshotter struct {
	ledger StakingLedger
	cfg    SnapshotConfig
	logger *zap.Logger
}

func NewSnapshotter(ledger StakingLedger, cfg SnapshotConfig, logger *zap.Logger) *Snapshotter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Snapshotter{ledger: ledger, cfg: cfg, logger: logger}
}

// SnapshotHeight floors height to the configured granularity.
func (s *Snapshotter) SnapshotHeight(height uint64) uint64 {
	if s.cfg.Granularity == 0 {
		return height
	}
	return height - height%s.cfg.Granularity
}

// TakeSnapshot reads delegations at the floored height and keeps delegators
// staking at least the minimum.
func (s *Snapshotter) TakeSnapshot(ctx context.Context, height uint64) (*Snapshot, error) {
	snapshotHeight := s.SnapshotHeight(height)

	var delegations map[string]*big.Int
	err := chain.WithRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryDelay, func(ctx context.Context) error {
		var err error
		delegations, err = s.ledger.DelegationsAt(ctx, snapshotHeight)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("delegations at %d: %w", snapshotHeight, err)
	}

	snap := &Snapshot{
		Height: snapshotHeight,
		Stakes: make(map[string]decimal.Decimal),
		Total:  decimal.Zero,
	}
	for address, amount := range delegations {
		if amount == nil {
			continue
		}
		staked := decimal.NewFromBigInt(amount, 0)
		if staked.LessThan(s.cfg.MinStake) {
			continue
		}
		snap.Stakes[address] = staked
		snap.Addresses = append(snap.Addresses, address)
		snap.Total = snap.Total.Add(staked)
	}
	sort.Strings(snap.Addresses)

	if len(snap.Addresses) == 0 {
		return nil, fmt.Errorf("height %d, %d delegators: %w", snapshotHeight, len(delegations), ErrNoEligibleStakers)
	}
	if !snap.Total.IsPositive() {
		return nil, fmt.Errorf("height %d total %s: %w", snapshotHeight, snap.Total, ErrInvalidTotal)
	}

	s.logger.Info("snapshot taken",
		zap.Uint64("height", snapshotHeight),
		zap.Int("delegators", len(delegations)),
		zap.Int("eligible", len(snap.Addresses)),
		zap.String("total", snap.Total.String()),
	)
	return snap, nil
}
