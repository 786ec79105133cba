package benchmark

import (
	"context"
	"errors"
	"fmt"
	mrand "math/rand"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/veilmark/soulbench/common"
	"github.com/veilmark/soulbench/stats"
)

// ScenarioKind defines the operation mix of a scenario.
type ScenarioKind string

const (
	ScenarioCreateHeavy ScenarioKind = "create-heavy" // 80% creates
	ScenarioReadHeavy   ScenarioKind = "read-heavy"   // 90% reads
	ScenarioBalanced    ScenarioKind = "balanced"     // even CRUD split
	ScenarioAnalytics   ScenarioKind = "analytics"    // aggregate queries
)

// Operation names used as sample-set labels in reports.
const (
	OpCreate       = "create"
	OpRead         = "read"
	OpUpdate       = "update"
	OpDelete       = "delete"
	OpListByHolder = "list_by_holder"
	OpTotals       = "totals_by_status"
)

// Config defines one benchmark scenario.
type Config struct {
	Name string
	Kind ScenarioKind

	NumContracts int // ID space for reads/updates
	Preload      int // contracts loaded before measurement
	Holders      int // holder-name cardinality

	Iterations  int // measured operations
	Warmup      int // unmeasured operations before the clock starts
	Concurrency int // concurrent workers

	Distribution Distribution
	Seed         int64
}

// Result is the outcome of one scenario against one backend.
type Result struct {
	Config  Config
	Backend string

	// PerOp holds descriptive statistics per operation label; Samples
	// keeps the raw sample sets so two results can be compared with
	// stats.Compare afterwards.
	PerOp   map[string]stats.DescriptiveStats
	Samples map[string]stats.SampleSet

	TotalOps  int64
	Errors    int64
	Duration  time.Duration
	OpsPerSec float64
}

// Runner executes one scenario against one backend.
type Runner struct {
	store common.ContractStore
	cfg   Config
	gen   *ContractGen

	// churn hands out counters for scenario-scoped create and delete
	// IDs, kept disjoint from the preloaded ID space and from other
	// scenarios sharing the same store.
	churn atomic.Int64
}

func NewRunner(store common.ContractStore, cfg Config) *Runner {
	return &Runner{
		store: store,
		cfg:   cfg,
		gen:   NewContractGen(cfg.NumContracts, cfg.Holders, cfg.Distribution, cfg.Seed),
	}
}

// Run preloads the store, warms up unmeasured, then runs the measured
// phase and computes per-operation statistics.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.preload(ctx); err != nil {
		return nil, fmt.Errorf("preload: %w", err)
	}

	if r.cfg.Warmup > 0 {
		if err := r.runOps(ctx, r.cfg.Warmup, NewRecorder()); err != nil {
			return nil, fmt.Errorf("warmup: %w", err)
		}
	}

	rec := NewRecorder()
	start := time.Now()
	if err := r.runOps(ctx, r.cfg.Iterations, rec); err != nil {
		return nil, err
	}
	duration := time.Since(start)

	return r.collect(rec, duration), nil
}

// preload tolerates existing contracts: earlier scenarios on the same
// store may already have loaded part of the index range.
func (r *Runner) preload(ctx context.Context) error {
	for i := 0; i < r.cfg.Preload; i++ {
		err := r.store.Create(ctx, r.gen.Contract(i))
		if err != nil && !errors.Is(err, common.ErrContractExists) {
			return fmt.Errorf("contract %d: %w", i, err)
		}
	}
	return nil
}

// runOps spreads iterations across the worker pool. A failed operation
// is counted and its sample omitted; only context cancellation or a
// preload-level fault stops the run.
func (r *Runner) runOps(ctx context.Context, iterations int, rec *Recorder) error {
	workers := r.cfg.Concurrency
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		ops := iterations / workers
		if w == 0 {
			ops += iterations % workers
		}
		seed := r.cfg.Seed + int64(w)*7919

		g.Go(func() error {
			rng := mrand.New(mrand.NewSource(seed))
			for i := 0; i < ops; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				r.step(ctx, rng, rec)
			}
			return nil
		})
	}
	return g.Wait()
}

func (r *Runner) step(ctx context.Context, rng *mrand.Rand, rec *Recorder) {
	op := pickOp(r.cfg.Kind, rng.Float64())

	var err error
	start := time.Now()
	switch op {
	case OpCreate:
		k := int(r.churn.Add(1))
		c := r.gen.Contract(r.cfg.NumContracts + k)
		c.ID = r.gen.ScopedID(r.cfg.Name+"/create", k)
		err = r.store.Create(ctx, c)
	case OpRead:
		_, err = r.store.Get(ctx, r.gen.ID(r.gen.NextIndex()%r.preloaded()))
	case OpUpdate:
		c := r.gen.Contract(r.gen.NextIndex() % r.preloaded())
		err = r.store.Update(ctx, r.gen.Mutate(c))
	case OpDelete:
		// Churn: create a scoped contract unmeasured, time only the
		// delete.
		k := int(r.churn.Add(1))
		c := r.gen.Contract(r.cfg.NumContracts + k)
		c.ID = r.gen.ScopedID(r.cfg.Name+"/delete", k)
		if err = r.store.Create(ctx, c); err != nil {
			break
		}
		start = time.Now()
		err = r.store.Delete(ctx, c.ID)
	case OpListByHolder:
		_, err = r.store.ListByHolder(ctx, r.gen.Holder(r.gen.NextIndex()))
	case OpTotals:
		_, err = r.store.TotalsByStatus(ctx)
	}
	elapsed := time.Since(start)

	if err != nil {
		rec.Fail(op)
		return
	}
	rec.Observe(op, elapsed)
}

// preloaded clamps the read/update index range to contracts that exist.
func (r *Runner) preloaded() int {
	if r.cfg.Preload < 1 {
		return 1
	}
	return r.cfg.Preload
}

func pickOp(kind ScenarioKind, f float64) string {
	switch kind {
	case ScenarioCreateHeavy:
		if f < 0.80 {
			return OpCreate
		}
		return OpRead
	case ScenarioReadHeavy:
		if f < 0.90 {
			return OpRead
		}
		return OpUpdate
	case ScenarioAnalytics:
		switch {
		case f < 0.40:
			return OpTotals
		case f < 0.80:
			return OpListByHolder
		default:
			return OpRead
		}
	default: // balanced
		switch {
		case f < 0.25:
			return OpCreate
		case f < 0.50:
			return OpRead
		case f < 0.75:
			return OpUpdate
		default:
			return OpDelete
		}
	}
}

func (r *Runner) collect(rec *Recorder, duration time.Duration) *Result {
	perOp := make(map[string]stats.DescriptiveStats)
	samples := make(map[string]stats.SampleSet)
	for _, op := range rec.Operations() {
		s := rec.Samples(op)
		samples[op] = s
		perOp[op] = stats.Compute(s)
	}

	totalSamples, failures := rec.Totals()

	result := &Result{
		Config:   r.cfg,
		PerOp:    perOp,
		Samples:  samples,
		TotalOps: totalSamples + failures,
		Errors:   failures,
		Duration: duration,
	}
	if duration > 0 {
		result.OpsPerSec = float64(result.TotalOps) / duration.Seconds()
	}
	return result
}
