package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mirrorScope/internal/aggregate"
	"mirrorScope/internal/config"
	"mirrorScope/internal/indexer"
	"mirrorScope/internal/ledger"
	"mirrorScope/internal/metrics"
	"mirrorScope/internal/model"
	"mirrorScope/internal/parser"
	"mirrorScope/internal/storage"
	"mirrorScope/internal/storage/postgres"
)

func runIngest(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadIngest(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	if err := store.UpsertContracts(ctx, cfg.Contracts); err != nil {
		return fmt.Errorf("register contracts: %w", err)
	}

	var checkpoint indexer.CheckpointStore
	if cfg.StateFile != "" {
		checkpoint = &indexer.FileCheckpoint{Path: cfg.StateFile}
	} else {
		checkpoint = &indexer.DBCheckpoint{Store: store, Name: cfg.StateName}
	}

	m := metrics.New()
	stopMetrics := serveMetrics(cfg.MetricsAddr, m, logger)
	defer stopMetrics()

	registry := parser.NewRegistry()
	registry.Register(model.ContractTypePair, parser.NewPairClassifier(cfg.QuoteDenom))

	runner := indexer.NewRunner(
		indexer.RunConfig{In: cfg.In, FromHeight: cfg.FromHeight, ToHeight: cfg.ToHeight},
		store,
		registry,
		ledger.New(aggregate.NewEngine(logger), logger),
		storage.NewErrorLog(cfg.Errors),
		checkpoint,
		m,
		logger,
	)

	logger.Info("ingest start",
		zap.String("in", cfg.In),
		zap.String("errors", cfg.Errors),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Uint64("from", cfg.FromHeight),
		zap.Uint64("to", cfg.ToHeight),
		zap.Int("contracts", len(cfg.Contracts)),
	)

	_, err = runner.Run(ctx)
	return err
}
