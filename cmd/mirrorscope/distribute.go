package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mirrorScope/internal/airdrop"
	"mirrorScope/internal/chain"
	"mirrorScope/internal/config"
	"mirrorScope/internal/lock"
	"mirrorScope/internal/metrics"
	"mirrorScope/internal/storage/postgres"
)

func runDistribute(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDistribute(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}
	if cfg.SignerKey == "" {
		return fmt.Errorf("signer key is required")
	}
	stakingAddr, err := chain.ParseAddress(cfg.StakingContract)
	if err != nil {
		return fmt.Errorf("staking contract: %w", err)
	}
	airdropAddr, err := chain.ParseAddress(cfg.AirdropContract)
	if err != nil {
		return fmt.Errorf("airdrop contract: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	submitter, err := chain.NewRootSubmitter(ctx, chainClient, airdropAddr, cfg.SignerKey, logger)
	if err != nil {
		return err
	}

	var locker airdrop.Locker
	if cfg.RedisAddr != "" {
		client, err := lock.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer client.Close()
		locker = lock.NewRedisLocker(client, cfg.LockPrefix)
	}

	m := metrics.New()
	stopMetrics := serveMetrics(cfg.MetricsAddr, m, logger)
	defer stopMetrics()

	scheduler := airdrop.NewScheduler(cfg.Schedule, cfg.Interval)
	job := airdrop.NewJob(
		scheduler,
		chain.NewAirdropContract(chainClient, airdropAddr),
		airdrop.NewSnapshotter(chain.NewStakingLedger(chainClient, stakingAddr), cfg.Snapshot, logger),
		airdrop.NewDistributionLedger(cfg.Network, submitter, logger),
		store,
		locker,
		m,
		airdrop.JobConfig{LockTTL: cfg.LockTTL},
		logger,
	)

	logger.Info("distribute start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("staking_contract", stakingAddr.Hex()),
		zap.String("airdrop_contract", airdropAddr.Hex()),
		zap.Bool("redis_lock", locker != nil),
		zap.Duration("tick", cfg.Tick),
		zap.Duration("interval", cfg.Interval),
		zap.Bool("once", cfg.Once),
	)

	if cfg.Once {
		_, err := job.Tick(ctx)
		return err
	}

	ticker := time.NewTicker(cfg.Tick)
	defer ticker.Stop()
	for {
		if _, err := job.Tick(ctx); err != nil {
			logger.Error("distribution tick failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			logger.Info("distribute stopped")
			return nil
		case <-ticker.C:
		}
	}
}
