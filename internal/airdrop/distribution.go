package airdrop

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mirrorScope/internal/merkle"
	"mirrorScope/internal/model"
	"mirrorScope/internal/storage"
)

// RootRegistrar publishes a stage's Merkle root on-chain.
type RootRegistrar interface {
	RegisterMerkleRoot(ctx context.Context, root common.Hash) error
}

// CommitResult counts the rows a stage commit wrote and skipped.
type CommitResult struct {
	Root     common.Hash
	Inserted int
	Skipped  int
}

// DistributionLedger persists stage records and registers the stage root.
type DistributionLedger struct {
	network   model.Network
	registrar RootRegistrar
	logger    *zap.Logger
	now       func() time.Time
}

func NewDistributionLedger(network model.Network, registrar RootRegistrar, logger *zap.Logger) *DistributionLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DistributionLedger{network: network, registrar: registrar, logger: logger, now: time.Now}
}

// CommitStage writes one record per allocation and then registers the root,
// all in one unit of work. Existing (stage, network, address) rows are
// skipped. A registration failure rolls back every row written here.
func (l *DistributionLedger) CommitStage(
	ctx context.Context,
	store storage.Store,
	stage uint32,
	allocations []Allocation,
	tree *merkle.Tree,
	total decimal.Decimal,
) (CommitResult, error) {
	if tree == nil {
		return CommitResult{}, fmt.Errorf("stage %d: nil merkle tree", stage)
	}
	if l.registrar == nil {
		return CommitResult{}, fmt.Errorf("stage %d: no root registrar", stage)
	}

	root := tree.Root()
	rootHex := root.Hex()
	createdAt := l.now().UTC()

	records := make([]model.DistributionRecord, 0, len(allocations))
	for _, alloc := range allocations {
		amount := alloc.Amount.String()
		proof, err := tree.Proof(alloc.Address, amount)
		if err != nil {
			return CommitResult{}, fmt.Errorf("stage %d proof for %s: %w", stage, alloc.Address, err)
		}
		encoded, err := merkle.EncodeProof(proof)
		if err != nil {
			return CommitResult{}, fmt.Errorf("stage %d encode proof for %s: %w", stage, alloc.Address, err)
		}
		records = append(records, model.DistributionRecord{
			Network:    l.network,
			Stage:      stage,
			Address:    alloc.Address,
			Staked:     alloc.Staked.String(),
			Rate:       alloc.Rate.String(),
			Amount:     amount,
			Total:      total.String(),
			Proof:      encoded,
			MerkleRoot: rootHex,
			CreatedAt:  createdAt,
		})
	}

	result := CommitResult{Root: root}
	err := store.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		result.Inserted, result.Skipped = 0, 0
		for _, rec := range records {
			inserted, err := tx.InsertDistribution(ctx, rec)
			if err != nil {
				return fmt.Errorf("insert distribution %s: %w", rec.Address, err)
			}
			if !inserted {
				l.logger.Info("distribution already recorded",
					zap.Uint32("stage", stage),
					zap.String("address", rec.Address),
				)
				result.Skipped++
				continue
			}
			result.Inserted++
		}

		if err := l.registrar.RegisterMerkleRoot(ctx, root); err != nil {
			return fmt.Errorf("register merkle root %s: %w", rootHex, err)
		}
		return nil
	})
	if err != nil {
		return CommitResult{Root: root}, err
	}
	return result, nil
}
