package benchmark

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/veilmark/soulbench/common"
	"github.com/veilmark/soulbench/stats"
)

// Backend pairs a display name with a store so comparison output comes
// out in a stable order.
type Backend struct {
	Name  string
	Store common.ContractStore
}

// ComparisonSuite runs every scenario against every backend and prints
// comparative statistics, including a per-operation significance
// judgment between the first two backends.
type ComparisonSuite struct {
	configs []Config
	out     io.Writer
}

func NewComparisonSuite() *ComparisonSuite {
	return &ComparisonSuite{
		configs: StandardScenarios(),
		out:     os.Stdout,
	}
}

// SetScenarios sets custom scenario configurations.
func (cs *ComparisonSuite) SetScenarios(configs []Config) {
	cs.configs = configs
}

// SetOutput redirects report output, mainly for tests.
func (cs *ComparisonSuite) SetOutput(w io.Writer) {
	cs.out = w
}

// StandardScenarios returns the full scenario set.
func StandardScenarios() []Config {
	return []Config{
		{
			Name:         "create-heavy-uniform",
			Kind:         ScenarioCreateHeavy,
			NumContracts: 5000,
			Preload:      2000,
			Holders:      50,
			Iterations:   5000,
			Warmup:       500,
			Concurrency:  8,
			Distribution: DistUniform,
			Seed:         12345,
		},
		{
			Name:         "read-heavy-zipfian",
			Kind:         ScenarioReadHeavy,
			NumContracts: 5000,
			Preload:      5000,
			Holders:      50,
			Iterations:   5000,
			Warmup:       500,
			Concurrency:  8,
			Distribution: DistZipfian,
			Seed:         12345,
		},
		{
			Name:         "balanced-uniform",
			Kind:         ScenarioBalanced,
			NumContracts: 5000,
			Preload:      2000,
			Holders:      50,
			Iterations:   5000,
			Warmup:       500,
			Concurrency:  8,
			Distribution: DistUniform,
			Seed:         12345,
		},
		{
			Name:         "analytics-uniform",
			Kind:         ScenarioAnalytics,
			NumContracts: 5000,
			Preload:      5000,
			Holders:      50,
			Iterations:   1000,
			Warmup:       100,
			Concurrency:  4,
			Distribution: DistUniform,
			Seed:         12345,
		},
	}
}

// QuickScenarios returns faster scenarios for smoke runs and testing.
func QuickScenarios() []Config {
	return []Config{
		{
			Name:         "quick-balanced",
			Kind:         ScenarioBalanced,
			NumContracts: 500,
			Preload:      200,
			Holders:      10,
			Iterations:   400,
			Warmup:       40,
			Concurrency:  4,
			Distribution: DistUniform,
			Seed:         12345,
		},
		{
			Name:         "quick-read-heavy",
			Kind:         ScenarioReadHeavy,
			NumContracts: 500,
			Preload:      500,
			Holders:      10,
			Iterations:   400,
			Warmup:       40,
			Concurrency:  4,
			Distribution: DistZipfian,
			Seed:         12345,
		},
		{
			Name:         "quick-analytics",
			Kind:         ScenarioAnalytics,
			NumContracts: 500,
			Preload:      500,
			Holders:      10,
			Iterations:   200,
			Warmup:       20,
			Concurrency:  2,
			Distribution: DistUniform,
			Seed:         12345,
		},
	}
}

// RunComparison runs all scenarios against each backend. Backends must
// be opened fresh per call; every scenario sees the data the previous
// scenarios left behind, identically on both backends.
func (cs *ComparisonSuite) RunComparison(ctx context.Context, backends []Backend) (map[string][]*Result, error) {
	results := make(map[string][]*Result)

	for _, backend := range backends {
		fmt.Fprintf(cs.out, "\n=== Benchmarking %s ===\n", backend.Name)
		backendResults := make([]*Result, 0, len(cs.configs))

		for _, config := range cs.configs {
			fmt.Fprintf(cs.out, "\nRunning: %s\n", config.Name)

			runner := NewRunner(backend.Store, config)
			result, err := runner.Run(ctx)
			if err != nil {
				return nil, fmt.Errorf("scenario %s on %s: %w", config.Name, backend.Name, err)
			}
			result.Backend = backend.Name

			backendResults = append(backendResults, result)
			cs.printResult(result)
		}

		results[backend.Name] = backendResults
	}

	return results, nil
}

func (cs *ComparisonSuite) printResult(r *Result) {
	fmt.Fprintf(cs.out, "\nResults for: %s\n", r.Config.Name)
	fmt.Fprintf(cs.out, "  Throughput: %.0f ops/sec\n", r.OpsPerSec)
	fmt.Fprintf(cs.out, "  Total Ops: %d (errors: %d)\n", r.TotalOps, r.Errors)

	w := tabwriter.NewWriter(cs.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  Operation\tN\tMean (ms)\t±CI95\tP50\tP95\tP99\tCV%\tConsistency")
	for _, op := range sortedOps(r.PerOp) {
		s := r.PerOp[op]
		fmt.Fprintf(w, "  %s\t%d\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.1f\t%s\n",
			op, s.N, s.Mean, s.CI95, s.P50, s.P95, s.P99, s.CV, stats.ConsistencyLabel(s.CV))
	}
	w.Flush()
}

// PrintComparisonTable prints mean-latency and significance tables for
// the first two backends.
func (cs *ComparisonSuite) PrintComparisonTable(results map[string][]*Result, backends []Backend) {
	if len(backends) < 2 {
		return
	}
	nameA, nameB := backends[0].Name, backends[1].Name
	resultsA, resultsB := results[nameA], results[nameB]

	w := tabwriter.NewWriter(cs.out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "\n=== THROUGHPUT COMPARISON (ops/sec) ===")
	fmt.Fprintf(w, "Scenario\t%s\t%s\n", nameA, nameB)
	for i := range cs.configs {
		if i >= len(resultsA) || i >= len(resultsB) {
			break
		}
		fmt.Fprintf(w, "%s\t%.0f\t%.0f\n",
			cs.configs[i].Name, resultsA[i].OpsPerSec, resultsB[i].OpsPerSec)
	}
	w.Flush()

	fmt.Fprintln(w, "\n=== SIGNIFICANCE (per operation) ===")
	fmt.Fprintf(w, "Scenario\tOperation\t%s mean\t%s mean\tt\tp\tEffect\tVerdict\n", nameA, nameB)
	for i := range cs.configs {
		if i >= len(resultsA) || i >= len(resultsB) {
			break
		}
		cs.printSignificanceRows(w, cs.configs[i].Name, nameA, nameB, resultsA[i], resultsB[i])
	}
	w.Flush()
}

func (cs *ComparisonSuite) printSignificanceRows(w io.Writer, scenario, nameA, nameB string, a, b *Result) {
	for _, op := range sortedOps(a.PerOp) {
		samplesB, ok := b.Samples[op]
		if !ok {
			continue
		}
		cmp := stats.Compare(a.Samples[op], samplesB)

		fmt.Fprintf(w, "%s\t%s\t%.3f\t%.3f\t%s\t%.3f\t%s\t%s\n",
			scenario, op,
			cmp.MeanA, cmp.MeanB,
			formatTStat(cmp.TStat),
			cmp.PValue,
			formatEffect(cmp),
			verdict(cmp, nameA, nameB))
	}
}

func formatTStat(t float64) string {
	if math.IsInf(t, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", t)
}

func formatEffect(cmp stats.ComparisonResult) string {
	if cmp.EffectUndefined {
		return "undefined"
	}
	return fmt.Sprintf("%.2f (%s)", cmp.EffectSize, stats.EffectSizeLabel(cmp.EffectSize))
}

func verdict(cmp stats.ComparisonResult, nameA, nameB string) string {
	if !cmp.Significant {
		return "no significant difference"
	}
	winner := nameA
	if cmp.MeanB < cmp.MeanA {
		winner = nameB
	}
	return winner + " faster"
}

func sortedOps(perOp map[string]stats.DescriptiveStats) []string {
	order := []string{OpCreate, OpRead, OpUpdate, OpDelete, OpListByHolder, OpTotals}
	out := make([]string, 0, len(perOp))
	for _, op := range order {
		if _, ok := perOp[op]; ok {
			out = append(out, op)
		}
	}
	return out
}
