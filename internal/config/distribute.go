package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"mirrorScope/internal/airdrop"
	"mirrorScope/internal/model"
)

// DistributeConfig holds configuration for the distribute daemon.
type DistributeConfig struct {
	RPCURL          string
	PGDSN           string
	StakingContract string
	AirdropContract string
	SignerKey       string
	Network         model.Network

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockPrefix    string
	LockTTL       time.Duration

	Tick        time.Duration
	Interval    time.Duration
	Once        bool
	MetricsAddr string

	Schedule airdrop.Schedule
	Snapshot airdrop.SnapshotConfig

	LogLevel string
}

// LoadDistribute merges config file, environment variables, and flags into DistributeConfig.
func LoadDistribute(cfgFile string, flags *pflag.FlagSet) (DistributeConfig, error) {
	schedule := airdrop.DefaultSchedule()
	snapshot := airdrop.DefaultSnapshotConfig()

	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"network":             string(model.NetworkTerra),
		"redis-db":            0,
		"lock-prefix":         "mirrorscope:",
		"lock-ttl":            30 * time.Minute,
		"tick":                time.Minute,
		"interval":            time.Hour,
		"bootstrap-height":    schedule.BootstrapHeight,
		"bootstrap-amount":    schedule.BootstrapAmount.String(),
		"snapshot-start":      schedule.SnapshotStart,
		"snapshot-period":     schedule.SnapshotPeriod,
		"last-stage":          schedule.LastStage,
		"stage-amount":        schedule.StageAmount.String(),
		"confirmation-margin": schedule.ConfirmationMargin,
		"granularity":         snapshot.Granularity,
		"min-stake":           snapshot.MinStake.String(),
		"max-retries":         snapshot.MaxRetries,
		"retry-backoff":       snapshot.RetryDelay,
	})
	if err != nil {
		return DistributeConfig{}, err
	}

	bootstrapAmount, err := decimal.NewFromString(v.GetString("bootstrap-amount"))
	if err != nil {
		return DistributeConfig{}, fmt.Errorf("bootstrap-amount: %w", err)
	}
	stageAmount, err := decimal.NewFromString(v.GetString("stage-amount"))
	if err != nil {
		return DistributeConfig{}, fmt.Errorf("stage-amount: %w", err)
	}
	minStake, err := decimal.NewFromString(v.GetString("min-stake"))
	if err != nil {
		return DistributeConfig{}, fmt.Errorf("min-stake: %w", err)
	}

	cfg := DistributeConfig{
		RPCURL:          v.GetString("rpc"),
		PGDSN:           v.GetString("pg-dsn"),
		StakingContract: v.GetString("staking-contract"),
		AirdropContract: v.GetString("airdrop-contract"),
		SignerKey:       v.GetString("signer-key"),
		Network:         model.Network(v.GetString("network")),
		RedisAddr:       v.GetString("redis-addr"),
		RedisPassword:   v.GetString("redis-password"),
		RedisDB:         v.GetInt("redis-db"),
		LockPrefix:      v.GetString("lock-prefix"),
		LockTTL:         v.GetDuration("lock-ttl"),
		Tick:            v.GetDuration("tick"),
		Interval:        v.GetDuration("interval"),
		Once:            v.GetBool("once"),
		MetricsAddr:     v.GetString("metrics-addr"),
		Schedule: airdrop.Schedule{
			BootstrapHeight:    v.GetUint64("bootstrap-height"),
			BootstrapAmount:    bootstrapAmount,
			SnapshotStart:      v.GetUint64("snapshot-start"),
			SnapshotPeriod:     v.GetUint64("snapshot-period"),
			LastStage:          v.GetUint32("last-stage"),
			StageAmount:        stageAmount,
			ConfirmationMargin: v.GetUint64("confirmation-margin"),
		},
		Snapshot: airdrop.SnapshotConfig{
			Granularity: v.GetUint64("granularity"),
			MinStake:    minStake,
			MaxRetries:  v.GetInt("max-retries"),
			RetryDelay:  v.GetDuration("retry-backoff"),
		},
		LogLevel: v.GetString("log-level"),
	}
	if cfg.Tick <= 0 {
		return DistributeConfig{}, fmt.Errorf("tick must be positive")
	}
	if cfg.Schedule.SnapshotPeriod == 0 {
		return DistributeConfig{}, fmt.Errorf("snapshot-period must be positive")
	}
	return cfg, nil
}
