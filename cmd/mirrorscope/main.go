package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "mirrorscope",
		Short:        "Mirror transaction ledger and staking distribution",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Classify contract invocations and record them",
		RunE:  runIngest,
	}

	ingestCmd.Flags().String("in", "", "input invocation records JSONL")
	ingestCmd.Flags().String("errors", "./data/ingest_errors.jsonl", "failed records JSONL")
	ingestCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	ingestCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	ingestCmd.Flags().String("state-name", "ingest", "progress key in indexer_state")
	ingestCmd.Flags().Uint64("from", 0, "first height to ingest (inclusive)")
	ingestCmd.Flags().Uint64("to", 0, "last height to ingest (inclusive), 0 means all")
	ingestCmd.Flags().String("quote-denom", "uusd", "quote currency denom")
	ingestCmd.Flags().String("contracts", "", "contracts to register (comma-separated address=type[:token])")
	ingestCmd.Flags().String("metrics-addr", "", "serve /metrics on this address while ingesting")
	ingestCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(ingestCmd)

	distributeCmd := &cobra.Command{
		Use:   "distribute",
		Short: "Run the staking distribution scheduler",
		RunE:  runDistribute,
	}

	distributeCmd.Flags().String("rpc", "", "RPC URL")
	distributeCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	distributeCmd.Flags().String("staking-contract", "", "staking ledger contract address")
	distributeCmd.Flags().String("airdrop-contract", "", "distribution contract address")
	distributeCmd.Flags().String("signer-key", "", "hex private key used to register roots")
	distributeCmd.Flags().String("network", "TERRA", "network recorded on distribution rows")
	distributeCmd.Flags().String("redis-addr", "", "redis address for the stage lock (empty disables)")
	distributeCmd.Flags().String("redis-password", "", "redis password")
	distributeCmd.Flags().Int("redis-db", 0, "redis database")
	distributeCmd.Flags().Duration("tick", time.Minute, "scheduler tick period")
	distributeCmd.Flags().Duration("interval", time.Hour, "minimum interval between schedule evaluations")
	distributeCmd.Flags().Bool("once", false, "evaluate the schedule once and exit")
	distributeCmd.Flags().String("metrics-addr", "", "serve /metrics on this address")
	distributeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(distributeCmd)

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a stored distribution proof against its root",
		RunE:  runVerify,
	}

	verifyCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	verifyCmd.Flags().Uint32("stage", 0, "stage number")
	verifyCmd.Flags().String("network", "TERRA", "network")
	verifyCmd.Flags().String("address", "", "recipient address")
	verifyCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(verifyCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE:  runMigrate,
	}

	migrateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	migrateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(migrateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
