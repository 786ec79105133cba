package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/veilmark/soulbench/common/benchmark"
	"github.com/veilmark/soulbench/config"
	"github.com/veilmark/soulbench/kvstore"
	"github.com/veilmark/soulbench/sqlstore"
)

func newRunCmd() *cobra.Command {
	var (
		backend     string
		quick       bool
		iterations  int
		concurrency int
		dataDir     string
		keepData    bool
		seed        int64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run benchmark scenarios against one or both backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("quick") {
				cfg.Quick = quick
			}
			if cmd.Flags().Changed("iterations") {
				cfg.Iterations = iterations
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Concurrency = concurrency
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.DataDir = dataDir
			}
			if cmd.Flags().Changed("keep-data") {
				cfg.KeepData = keepData
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}

			return runBenchmarks(cmd, cfg, backend)
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "compare", "Backend to benchmark: badger, sqlite, or compare")
	cmd.Flags().BoolVar(&quick, "quick", false, "Run quick scenarios (smaller datasets)")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "Override measured iterations per scenario")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Override concurrent workers per scenario")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory for database files (default: temp dir)")
	cmd.Flags().BoolVar(&keepData, "keep-data", false, "Keep database files after the run")
	cmd.Flags().Int64Var(&seed, "seed", 12345, "Deterministic workload seed")

	return cmd
}

func runBenchmarks(cmd *cobra.Command, cfg config.Config, backend string) error {
	logger := newLogger(cfg.LogLevel)

	dir := cfg.DataDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "soulbench-*")
		if err != nil {
			return fmt.Errorf("create temp dir: %w", err)
		}
		dir = tmp
	}
	if !cfg.KeepData {
		defer os.RemoveAll(dir)
	}
	logger.Info("starting benchmark", slog.String("backend", backend), slog.String("data_dir", dir))

	scenarios := benchmark.StandardScenarios()
	if cfg.Quick {
		scenarios = benchmark.QuickScenarios()
	}
	for i := range scenarios {
		if cfg.Iterations > 0 {
			scenarios[i].Iterations = cfg.Iterations
		}
		if cfg.Concurrency > 0 {
			scenarios[i].Concurrency = cfg.Concurrency
		}
		scenarios[i].Seed = cfg.Seed
	}

	backends, err := openBackends(dir, backend, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, b := range backends {
			if cerr := b.Store.Close(); cerr != nil {
				logger.Warn("close backend", slog.String("backend", b.Name), slog.String("error", cerr.Error()))
			}
		}
	}()

	suite := benchmark.NewComparisonSuite()
	suite.SetScenarios(scenarios)

	results, err := suite.RunComparison(cmd.Context(), backends)
	if err != nil {
		return err
	}
	suite.PrintComparisonTable(results, backends)

	logger.Info("benchmark complete")
	return nil
}

func openBackends(dir, backend string, logger *slog.Logger) ([]benchmark.Backend, error) {
	openBadger := func() (benchmark.Backend, error) {
		s, err := kvstore.Open(kvstore.Config{
			Path:   filepath.Join(dir, "badger"),
			Logger: logger,
		})
		if err != nil {
			return benchmark.Backend{}, fmt.Errorf("open badger backend: %w", err)
		}
		return benchmark.Backend{Name: "badger", Store: s}, nil
	}
	openSQLite := func() (benchmark.Backend, error) {
		s, err := sqlstore.Open(filepath.Join(dir, "contracts.sqlite"))
		if err != nil {
			return benchmark.Backend{}, fmt.Errorf("open sqlite backend: %w", err)
		}
		return benchmark.Backend{Name: "sqlite", Store: s}, nil
	}

	switch backend {
	case "badger":
		b, err := openBadger()
		if err != nil {
			return nil, err
		}
		return []benchmark.Backend{b}, nil
	case "sqlite":
		b, err := openSQLite()
		if err != nil {
			return nil, err
		}
		return []benchmark.Backend{b}, nil
	case "compare":
		kb, err := openBadger()
		if err != nil {
			return nil, err
		}
		sb, err := openSQLite()
		if err != nil {
			kb.Store.Close()
			return nil, err
		}
		return []benchmark.Backend{kb, sb}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (must be badger, sqlite, or compare)", backend)
	}
}
