// Command soulbench benchmarks a key-value backend (BadgerDB) against
// a relational backend (SQLite) for the soul contract domain and
// prints comparative latency statistics.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/veilmark/soulbench/common/benchmark"
	"github.com/veilmark/soulbench/config"
)

func main() {
	root := &cobra.Command{
		Use:           "soulbench",
		Short:         "Benchmark BadgerDB vs SQLite for the soul contract ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newScenariosCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "soulbench: %v\n", err)
		os.Exit(1)
	}
}

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List available benchmark scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Standard scenarios:")
			for _, c := range benchmark.StandardScenarios() {
				printScenario(c)
			}
			fmt.Println("\nQuick scenarios (--quick):")
			for _, c := range benchmark.QuickScenarios() {
				printScenario(c)
			}
			return nil
		},
	}
}

func printScenario(c benchmark.Config) {
	fmt.Printf("  %-22s kind=%-13s iterations=%-6d concurrency=%-2d preload=%d\n",
		c.Name, c.Kind, c.Iterations, c.Concurrency, c.Preload)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
