package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Mean([]float64{}))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-9)
}

func TestStdDev(t *testing.T) {
	assert.Equal(t, 0.0, StdDev(nil))
	assert.Equal(t, 0.0, StdDev([]float64{5}))

	// Population stddev of {2,4,4,4,5,5,7,9} is exactly 2.
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 2.0, StdDev(values), 1e-9)
}

func TestStdDev_ConstantSeries(t *testing.T) {
	assert.Equal(t, 0.0, StdDev([]float64{3, 3, 3, 3}))
}

func TestSkewness(t *testing.T) {
	assert.Equal(t, 0.0, Skewness([]float64{1, 2}))
	assert.Equal(t, 0.0, Skewness([]float64{5, 5, 5, 5}))

	// Symmetric distribution has zero skewness.
	assert.InDelta(t, 0.0, Skewness([]float64{1, 2, 3, 4, 5}), 1e-9)

	// Right-tailed series skews positive.
	assert.Greater(t, Skewness([]float64{1, 1, 1, 1, 10}), 0.0)
}

func TestExcessKurtosis(t *testing.T) {
	assert.Equal(t, 0.0, ExcessKurtosis([]float64{1, 2, 3}))
	assert.Equal(t, 0.0, ExcessKurtosis([]float64{7, 7, 7, 7}))

	// A heavy-tailed series has higher kurtosis than a uniform one.
	heavy := []float64{0, 0, 0, 0, 0, 0, 0, 0, -20, 20}
	uniform := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Greater(t, ExcessKurtosis(heavy), ExcessKurtosis(uniform))
}

func TestPercentile(t *testing.T) {
	assert.Equal(t, 0.0, Percentile(nil, 50))

	values := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 1.0, Percentile(values, 0))
	assert.Equal(t, 5.0, Percentile(values, 100))
	assert.Equal(t, 3.0, Percentile(values, 50))
	assert.InDelta(t, 2.0, Percentile(values, 25), 1e-9)

	// Interpolated between samples.
	assert.InDelta(t, 1.4, Percentile([]float64{1, 2}, 40), 1e-9)
}

func TestPercentile_UnsortedInput(t *testing.T) {
	values := []float64{5, 1, 4, 2, 3}
	assert.Equal(t, 3.0, Percentile(values, 50))
	// Input slice must not be reordered.
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, values)
}

func TestPearsonCorrelation_Perfect(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}
	assert.InDelta(t, 1.0, PearsonCorrelation(x, y), 1e-9)

	inverse := []float64{10, 8, 6, 4, 2}
	assert.InDelta(t, -1.0, PearsonCorrelation(x, inverse), 1e-9)
}

func TestPearsonCorrelation_Degenerate(t *testing.T) {
	assert.Equal(t, 0.0, PearsonCorrelation([]float64{1, 2}, []float64{1}))
	assert.Equal(t, 0.0, PearsonCorrelation([]float64{1}, []float64{1}))

	// Zero variance must yield 0, not NaN.
	flat := []float64{5, 5, 5}
	varying := []float64{1, 2, 3}
	result := PearsonCorrelation(flat, varying)
	assert.Equal(t, 0.0, result)
	assert.False(t, math.IsNaN(result))
}

func TestReturns(t *testing.T) {
	assert.Nil(t, Returns([]float64{100}))

	returns := Returns([]float64{100, 110, 99})
	assert.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-9)
	assert.InDelta(t, -0.10, returns[1], 1e-9)
}

func TestReturns_SkipsZeroPrices(t *testing.T) {
	returns := Returns([]float64{100, 0, 50})
	assert.Len(t, returns, 1)
	assert.InDelta(t, -1.0, returns[0], 1e-9)
}
