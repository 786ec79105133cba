package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBasic(t *testing.T) {
	s := Compute(SampleSet{10, 20, 30, 40, 50})

	assert.Equal(t, 5, s.N)
	assert.InDelta(t, 30, s.Mean, 1e-9)
	assert.Equal(t, 10.0, s.Min)
	assert.Equal(t, 50.0, s.Max)

	// Nearest-rank on the sorted copy: floor(5*0.5)=2, floor(5*0.95)=4,
	// floor(5*0.99)=4.
	assert.Equal(t, 30.0, s.P50)
	assert.Equal(t, 50.0, s.P95)
	assert.Equal(t, 50.0, s.P99)

	// Sample stddev of 10..50 step 10 is sqrt(250).
	assert.InDelta(t, math.Sqrt(250), s.StdDev, 1e-9)
	assert.InDelta(t, math.Sqrt(250)/30*100, s.CV, 1e-9)
	assert.InDelta(t, 1.96*math.Sqrt(250)/math.Sqrt(5), s.CI95, 1e-9)
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil)
	assert.Equal(t, DescriptiveStats{}, s)
}

func TestComputeSingleSample(t *testing.T) {
	s := Compute(SampleSet{42.5})

	assert.Equal(t, 1, s.N)
	assert.Equal(t, 42.5, s.Mean)
	assert.Equal(t, 42.5, s.Min)
	assert.Equal(t, 42.5, s.Max)
	assert.Equal(t, 0.0, s.StdDev)
	assert.Equal(t, 0.0, s.CV)
	assert.Equal(t, 0.0, s.CI95)
	assert.Equal(t, 42.5, s.P50)
	assert.Equal(t, 42.5, s.P95)
	assert.Equal(t, 42.5, s.P99)
}

func TestComputeZeroMean(t *testing.T) {
	// All-zero samples happen when every timed call failed instantly.
	s := Compute(SampleSet{0, 0, 0})
	assert.Equal(t, 0.0, s.Mean)
	assert.Equal(t, 0.0, s.CV)
	assert.False(t, math.IsNaN(s.CV))
}

func TestComputePercentileOrdering(t *testing.T) {
	sets := []SampleSet{
		{1},
		{3, 1, 2},
		{5, 5, 5, 5},
		{100, 1, 50, 2, 99, 3, 75, 4},
		{0.1, 0.2, 0.3, 1000},
	}
	for _, set := range sets {
		s := Compute(set)
		assert.LessOrEqual(t, s.Min, s.P50)
		assert.LessOrEqual(t, s.P50, s.P95)
		assert.LessOrEqual(t, s.P95, s.P99)
		assert.LessOrEqual(t, s.P99, s.Max)
	}
}

func TestComputeOutlierSensitivity(t *testing.T) {
	// One outlier in ten samples moves p99 but not p50.
	s := Compute(SampleSet{5, 5, 5, 5, 5, 5, 5, 5, 5, 100})
	assert.Equal(t, 5.0, s.P50)
	assert.Equal(t, 100.0, s.P99)
}

func TestComputeDeterministic(t *testing.T) {
	set := SampleSet{7.2, 1.1, 9.9, 3.3, 5.5}
	assert.Equal(t, Compute(set), Compute(set))
}

func TestComputeDoesNotReorderInput(t *testing.T) {
	set := SampleSet{9, 1, 5}
	Compute(set)
	assert.Equal(t, SampleSet{9, 1, 5}, set)
}

func TestCompareIdenticalSamples(t *testing.T) {
	r := Compare(SampleSet{10, 10, 10}, SampleSet{10, 10, 10})

	assert.Equal(t, 0.0, r.TStat)
	assert.Equal(t, 0.2, r.PValue)
	assert.False(t, r.Significant)
	assert.Equal(t, 0.0, r.EffectSize)
	assert.False(t, r.EffectUndefined)
}

func TestCompareZeroVarianceUnequalMeans(t *testing.T) {
	r := Compare(SampleSet{100, 100, 100}, SampleSet{10, 10, 10})

	assert.True(t, math.IsInf(r.TStat, 1))
	assert.Equal(t, 0.001, r.PValue)
	assert.True(t, r.Significant)
	assert.True(t, r.EffectUndefined)
	assert.Equal(t, EffectSizeCap, r.EffectSize)
}

func TestCompareClearDifference(t *testing.T) {
	a := SampleSet{10, 11, 9, 10, 12, 10, 9, 11}
	b := SampleSet{50, 52, 48, 51, 49, 50, 53, 47}

	r := Compare(a, b)
	require.False(t, math.IsInf(r.TStat, 1))
	assert.Greater(t, r.TStat, 3.0)
	assert.Equal(t, 0.001, r.PValue)
	assert.True(t, r.Significant)
	assert.Greater(t, r.EffectSize, 0.8)
	assert.Equal(t, "large", EffectSizeLabel(r.EffectSize))
}

func TestCompareEffectSizeSymmetry(t *testing.T) {
	a := SampleSet{1, 2, 3, 4, 5}
	b := SampleSet{10, 12, 14, 16, 18}

	ab := Compare(a, b)
	ba := Compare(b, a)
	assert.Equal(t, ab.EffectSize, ba.EffectSize)
	assert.Equal(t, ab.TStat, ba.TStat)
	assert.Equal(t, ab.PValue, ba.PValue)
}

func TestCompareSignificanceMonotonic(t *testing.T) {
	// Same spread, growing mean difference: tStat never decreases and
	// the p bucket never becomes less significant.
	base := SampleSet{10, 11, 12, 13, 14}
	prevT := 0.0
	prevP := 1.0
	for _, shift := range []float64{0, 1, 2, 5, 10, 50} {
		shifted := make(SampleSet, len(base))
		for i, v := range base {
			shifted[i] = v + shift
		}
		r := Compare(base, shifted)
		assert.GreaterOrEqual(t, r.TStat, prevT)
		assert.LessOrEqual(t, r.PValue, prevP)
		prevT = r.TStat
		prevP = r.PValue
	}
}

func TestCompareTinySamples(t *testing.T) {
	// nA+nB==2: pooled-variance divisor is guarded, no NaN escapes.
	r := Compare(SampleSet{5}, SampleSet{9})
	assert.False(t, math.IsNaN(r.PooledStdDev))
	assert.False(t, math.IsNaN(r.PValue))
	assert.True(t, r.Significant) // zero variance, unequal means
}

func TestCompareEmptyInput(t *testing.T) {
	r := Compare(nil, SampleSet{1, 2, 3})
	assert.Equal(t, 0.0, r.TStat)
	assert.False(t, r.Significant)
}

func TestPValueBuckets(t *testing.T) {
	cases := []struct {
		t    float64
		want float64
	}{
		{0, 0.2},
		{1.5, 0.2},
		{1.6, 0.1},
		{2.0, 0.1},
		{2.1, 0.05},
		{2.5, 0.05},
		{2.6, 0.01},
		{3.0, 0.01},
		{3.1, 0.001},
		{math.Inf(1), 0.001},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, pValueBucket(c.t), "t=%v", c.t)
	}
}

func TestEffectSizeLabel(t *testing.T) {
	assert.Equal(t, "negligible", EffectSizeLabel(0.1))
	assert.Equal(t, "small", EffectSizeLabel(0.3))
	assert.Equal(t, "medium", EffectSizeLabel(0.6))
	assert.Equal(t, "large", EffectSizeLabel(1.5))
}

func TestConsistencyLabel(t *testing.T) {
	assert.Equal(t, "Excellent", ConsistencyLabel(5))
	assert.Equal(t, "Good", ConsistencyLabel(15))
	assert.Equal(t, "Variable", ConsistencyLabel(40))
}
