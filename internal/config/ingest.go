package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"mirrorScope/internal/model"
)

// IngestConfig holds configuration for the ingest command.
type IngestConfig struct {
	In          string
	Errors      string
	PGDSN       string
	StateFile   string
	StateName   string
	FromHeight  uint64
	ToHeight    uint64
	QuoteDenom  string
	Contracts   []model.Contract
	MetricsAddr string
	LogLevel    string
}

// LoadIngest merges config file, environment variables, and flags into IngestConfig.
func LoadIngest(cfgFile string, flags *pflag.FlagSet) (IngestConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"errors":      "./data/ingest_errors.jsonl",
		"state-name":  "ingest",
		"quote-denom": "uusd",
	})
	if err != nil {
		return IngestConfig{}, err
	}

	contracts, err := parseContracts(getStringMap(v, "contracts"))
	if err != nil {
		return IngestConfig{}, err
	}

	cfg := IngestConfig{
		In:          v.GetString("in"),
		Errors:      v.GetString("errors"),
		PGDSN:       v.GetString("pg-dsn"),
		StateFile:   v.GetString("state-file"),
		StateName:   v.GetString("state-name"),
		FromHeight:  v.GetUint64("from"),
		ToHeight:    v.GetUint64("to"),
		QuoteDenom:  v.GetString("quote-denom"),
		Contracts:   contracts,
		MetricsAddr: v.GetString("metrics-addr"),
		LogLevel:    v.GetString("log-level"),
	}
	if cfg.ToHeight > 0 && cfg.ToHeight < cfg.FromHeight {
		return IngestConfig{}, fmt.Errorf("to height %d is below from height %d", cfg.ToHeight, cfg.FromHeight)
	}
	return cfg, nil
}

// parseContracts reads entries of the form address=type or
// address=type:token, ordered by address.
func parseContracts(entries map[string]string) ([]model.Contract, error) {
	out := make([]model.Contract, 0, len(entries))
	for address, spec := range entries {
		kind, token, _ := strings.Cut(spec, ":")
		contractType := model.ContractType(strings.TrimSpace(kind))
		if !contractType.Valid() {
			return nil, fmt.Errorf("contract %s: unknown type %q", address, kind)
		}
		out = append(out, model.Contract{
			Address: address,
			Type:    contractType,
			Token:   strings.TrimSpace(token),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}
