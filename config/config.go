// Package config loads the engine's tunable parameters (spec.md §6) via
// viper/cobra the way LeJamon's goXRPLd config layer does: defaults set
// programmatically, overridable by a config file or env, unmarshaled into a
// typed struct with mapstructure tags.
package config

import (
	"time"

	"github.com/spf13/viper"

	"clearinghouse/domain"
)

// Config holds every engine-tunable constant spec.md §6 names. The
// zero-value Config is invalid; use Default() or Load().
type Config struct {
	SettlementInterval time.Duration `mapstructure:"settlement_interval"`
	MaxFailedCycles    int           `mapstructure:"max_failed_cycles"`
	StakeBPS           int64         `mapstructure:"stake_bps"`
	LogLevel           string        `mapstructure:"log_level"`
}

// Default returns the spec's contractual defaults (spec.md §6).
func Default() Config {
	return Config{
		SettlementInterval: domain.DefaultSettlementInterval,
		MaxFailedCycles:    domain.DefaultMaxFailedCycles,
		StakeBPS:           domain.DefaultStakeBPS,
		LogLevel:           "info",
	}
}

// Load builds a viper instance seeded with Default(), then layers in the
// config file at path (when path is non-empty; a file that cannot be read
// is an error) and CLEARINGHOUSE_-prefixed environment
// variables, and unmarshals the result.
func Load(path string) (Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("settlement_interval", def.SettlementInterval)
	v.SetDefault("max_failed_cycles", def.MaxFailedCycles)
	v.SetDefault("stake_bps", def.StakeBPS)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvPrefix("clearinghouse")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// StakeRequirement returns the stake (in the same unit-equivalent scale as
// grossOutgoing) required for a given gross outgoing amount, floored per
// spec.md §4.4 P2.
func (c Config) StakeRequirement(grossOutgoing int64) int64 {
	if grossOutgoing <= 0 {
		return 0
	}
	return (grossOutgoing * c.StakeBPS) / domain.BPSDenominator
}
