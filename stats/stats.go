// Package stats turns raw latency samples into reportable descriptive
// statistics and provides a coarse two-sample significance judgment.
//
// Everything here is pure: no I/O, no shared state. Degenerate inputs
// (empty sample sets, zero mean, zero variance) produce zeroed or
// sentinel values instead of errors so that a benchmark report stays
// structurally complete even when every iteration of an operation failed.
package stats

import (
	"math"
	"sort"
)

// SampleSet is an ordered sequence of latency measurements in
// milliseconds for one operation against one backend. It is only ever
// appended to; percentile computation sorts a copy, never the original.
type SampleSet []float64

// DescriptiveStats is an immutable summary of one SampleSet.
type DescriptiveStats struct {
	N      int
	Mean   float64
	Min    float64
	Max    float64
	StdDev float64 // sample standard deviation, n-1 divisor, 0 for n<2
	CV     float64 // coefficient of variation in percent, 0 when mean is 0
	CI95   float64 // 95% confidence half-width, fixed z=1.96 approximation
	P50    float64
	P95    float64
	P99    float64
}

// ComparisonResult is the outcome of an approximate two-sample t-test
// between SampleSets A and B.
type ComparisonResult struct {
	MeanA        float64
	MeanB        float64
	PooledStdDev float64
	TStat        float64
	PValue       float64
	Significant  bool

	// EffectSize is Cohen's d. When the pooled standard deviation is
	// zero and the means differ, d has no finite value: EffectSize is
	// capped at EffectSizeCap and EffectUndefined is set so display
	// code can print "undefined" instead of a huge number.
	EffectSize      float64
	EffectUndefined bool
}

// EffectSizeCap is the sentinel stored in EffectSize when Cohen's d is
// undefined (zero pooled variance, unequal means).
const EffectSizeCap = 1e9

// Compute derives descriptive statistics from a sample set. An empty
// set yields the zero value so batch reports stay structurally complete
// when an operation failed for every iteration.
func Compute(samples SampleSet) DescriptiveStats {
	n := len(samples)
	if n == 0 {
		return DescriptiveStats{}
	}

	mean := mean(samples)
	sd := stdDev(samples, mean)

	cv := 0.0
	if mean != 0 {
		cv = sd / mean * 100
	}

	sorted := make([]float64, n)
	copy(sorted, samples)
	sort.Float64s(sorted)

	return DescriptiveStats{
		N:      n,
		Mean:   mean,
		Min:    sorted[0],
		Max:    sorted[n-1],
		StdDev: sd,
		CV:     cv,
		CI95:   1.96 * sd / math.Sqrt(float64(n)),
		P50:    nearestRank(sorted, 0.50),
		P95:    nearestRank(sorted, 0.95),
		P99:    nearestRank(sorted, 0.99),
	}
}

// Compare runs an approximate two-sample t-test between a and b. The
// p-value is a bucketed lookup, not a Student's-t CDF; the thresholds
// are fixed for parity with existing reports.
func Compare(a, b SampleSet) ComparisonResult {
	nA, nB := len(a), len(b)
	if nA == 0 || nB == 0 {
		return ComparisonResult{PValue: pValueBucket(0)}
	}

	meanA := mean(a)
	meanB := mean(b)
	varA := variance(a, meanA)
	varB := variance(b, meanB)

	df := float64(nA + nB - 2)
	if df < 1 {
		df = 1
	}
	pooledVar := (float64(nA-1)*varA + float64(nB-1)*varB) / df
	pooledStd := math.Sqrt(pooledVar)

	diff := math.Abs(meanA - meanB)

	result := ComparisonResult{
		MeanA:        meanA,
		MeanB:        meanB,
		PooledStdDev: pooledStd,
	}

	if pooledStd == 0 {
		if diff == 0 {
			result.TStat = 0
		} else {
			result.TStat = math.Inf(1)
			result.EffectSize = EffectSizeCap
			result.EffectUndefined = true
		}
	} else {
		result.TStat = diff / (pooledStd * math.Sqrt(1/float64(nA)+1/float64(nB)))
		result.EffectSize = diff / pooledStd
	}

	result.PValue = pValueBucket(result.TStat)
	result.Significant = result.PValue < 0.05

	return result
}

// EffectSizeLabel maps Cohen's d onto the conventional qualitative
// buckets. Display only, nothing branches on it.
func EffectSizeLabel(d float64) string {
	switch {
	case d < 0.2:
		return "negligible"
	case d < 0.5:
		return "small"
	case d < 0.8:
		return "medium"
	default:
		return "large"
	}
}

// ConsistencyLabel maps a coefficient of variation (percent) onto a
// qualitative latency-consistency label.
func ConsistencyLabel(cv float64) string {
	switch {
	case cv < 10:
		return "Excellent"
	case cv < 25:
		return "Good"
	default:
		return "Variable"
	}
}

func mean(samples []float64) float64 {
	sum := 0.0
	for _, v := range samples {
		sum += v
	}
	return sum / float64(len(samples))
}

// variance is the sample variance (n-1 divisor), defined as 0 for n<2.
func variance(samples []float64, mean float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range samples {
		d := v - mean
		sumSq += d * d
	}
	return sumSq / float64(len(samples)-1)
}

func stdDev(samples []float64, mean float64) float64 {
	return math.Sqrt(variance(samples, mean))
}

// nearestRank picks index floor(n*q) on the ascending sorted slice,
// clamped to the valid range. p99 of 100 samples is the last element;
// callers rely on this exact off-by-one behavior.
func nearestRank(sorted []float64, q float64) float64 {
	idx := int(math.Floor(float64(len(sorted)) * q))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func pValueBucket(t float64) float64 {
	switch {
	case t > 3:
		return 0.001
	case t > 2.5:
		return 0.01
	case t > 2:
		return 0.05
	case t > 1.5:
		return 0.1
	default:
		return 0.2
	}
}
