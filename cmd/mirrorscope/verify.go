package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mirrorScope/internal/config"
	"mirrorScope/internal/merkle"
	"mirrorScope/internal/storage/postgres"
)

func runVerify(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadVerify(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}
	if cfg.Stage == 0 || cfg.Address == "" {
		return fmt.Errorf("stage and address are required")
	}

	ctx := context.Background()
	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	rec, err := store.Distribution(ctx, cfg.Stage, cfg.Network, cfg.Address)
	if err != nil {
		return fmt.Errorf("load distribution: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("no distribution for %s at stage %d", cfg.Address, cfg.Stage)
	}

	root, err := merkle.ParseRoot(rec.MerkleRoot)
	if err != nil {
		return err
	}
	proof, err := merkle.DecodeProof(rec.Proof)
	if err != nil {
		return err
	}
	if !merkle.Verify(root, proof, rec.Address, rec.Amount) {
		return fmt.Errorf("proof for %s at stage %d does not verify against %s", rec.Address, rec.Stage, rec.MerkleRoot)
	}

	logger.Info("proof verified",
		zap.Uint32("stage", rec.Stage),
		zap.String("address", rec.Address),
		zap.String("amount", rec.Amount),
		zap.String("root", rec.MerkleRoot),
		zap.Int("proof_len", len(proof)),
	)
	return nil
}
