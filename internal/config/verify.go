package config

import (
	"github.com/spf13/pflag"

	"mirrorScope/internal/model"
)

// VerifyConfig holds configuration for the verify command.
type VerifyConfig struct {
	PGDSN    string
	Stage    uint32
	Network  model.Network
	Address  string
	LogLevel string
}

// LoadVerify merges config file, environment variables, and flags into VerifyConfig.
func LoadVerify(cfgFile string, flags *pflag.FlagSet) (VerifyConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"network": string(model.NetworkTerra),
	})
	if err != nil {
		return VerifyConfig{}, err
	}
	return VerifyConfig{
		PGDSN:    v.GetString("pg-dsn"),
		Stage:    v.GetUint32("stage"),
		Network:  model.Network(v.GetString("network")),
		Address:  v.GetString("address"),
		LogLevel: v.GetString("log-level"),
	}, nil
}

// MigrateConfig holds configuration for the migrate command.
type MigrateConfig struct {
	PGDSN    string
	LogLevel string
}

// LoadMigrate merges config file, environment variables, and flags into MigrateConfig.
func LoadMigrate(cfgFile string, flags *pflag.FlagSet) (MigrateConfig, error) {
	v, err := newViper(cfgFile, flags, nil)
	if err != nil {
		return MigrateConfig{}, err
	}
	return MigrateConfig{
		PGDSN:    v.GetString("pg-dsn"),
		LogLevel: v.GetString("log-level"),
	}, nil
}
