package benchmark

import (
	"sort"
	"sync"
	"time"

	"github.com/veilmark/soulbench/stats"
)

// Recorder collects latency samples per operation while workers run.
// Failed operations are counted separately; their timings never enter
// the sample sets.
type Recorder struct {
	mu       sync.Mutex
	samples  map[string]stats.SampleSet
	failures map[string]int64
}

func NewRecorder() *Recorder {
	return &Recorder{
		samples:  make(map[string]stats.SampleSet),
		failures: make(map[string]int64),
	}
}

// Observe records one successful operation's elapsed time.
func (r *Recorder) Observe(op string, elapsed time.Duration) {
	ms := float64(elapsed.Nanoseconds()) / 1e6

	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples[op] = append(r.samples[op], ms)
}

// Fail counts one failed operation.
func (r *Recorder) Fail(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[op]++
}

// Samples returns a copy of the collected samples for an operation.
func (r *Recorder) Samples(op string) stats.SampleSet {
	r.mu.Lock()
	defer r.mu.Unlock()

	src := r.samples[op]
	out := make(stats.SampleSet, len(src))
	copy(out, src)
	return out
}

// Operations returns the names of all operations with at least one
// sample or failure, sorted.
func (r *Recorder) Operations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(r.samples)+len(r.failures))
	for op := range r.samples {
		seen[op] = struct{}{}
	}
	for op := range r.failures {
		seen[op] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for op := range seen {
		out = append(out, op)
	}
	sort.Strings(out)
	return out
}

// Failures returns the failure count for an operation.
func (r *Recorder) Failures(op string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failures[op]
}

// Totals returns the overall successful-sample and failure counts.
func (r *Recorder) Totals() (samples, failures int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.samples {
		samples += int64(len(s))
	}
	for _, n := range r.failures {
		failures += n
	}
	return samples, failures
}
