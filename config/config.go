// Package config loads harness settings from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the tunables the CLI does not take as flags, or takes
// as flag defaults.
type Config struct {
	DataDir     string
	Iterations  int
	Concurrency int
	Seed        int64
	Quick       bool
	LogLevel    string
	KeepData    bool
}

// Load reads configuration from SOULBENCH_* environment variables with
// sensible defaults.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("soulbench_data_dir", "")
	v.SetDefault("soulbench_iterations", 0)
	v.SetDefault("soulbench_concurrency", 0)
	v.SetDefault("soulbench_seed", int64(12345))
	v.SetDefault("soulbench_quick", false)
	v.SetDefault("soulbench_log_level", "info")
	v.SetDefault("soulbench_keep_data", false)

	cfg := Config{
		DataDir:     v.GetString("soulbench_data_dir"),
		Iterations:  v.GetInt("soulbench_iterations"),
		Concurrency: v.GetInt("soulbench_concurrency"),
		Seed:        v.GetInt64("soulbench_seed"),
		Quick:       v.GetBool("soulbench_quick"),
		LogLevel:    strings.ToLower(v.GetString("soulbench_log_level")),
		KeepData:    v.GetBool("soulbench_keep_data"),
	}

	if cfg.Iterations < 0 {
		return Config{}, fmt.Errorf("invalid SOULBENCH_ITERATIONS: %d", cfg.Iterations)
	}
	if cfg.Concurrency < 0 {
		return Config{}, fmt.Errorf("invalid SOULBENCH_CONCURRENCY: %d", cfg.Concurrency)
	}
	if cfg.Concurrency > 256 {
		cfg.Concurrency = 256
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("invalid SOULBENCH_LOG_LEVEL: %q", cfg.LogLevel)
	}

	return cfg, nil
}
