package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndStdDev(t *testing.T) {
	data := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.InDelta(t, 5.0, Mean(data), 1e-12)
	// Sample standard deviation with N-1 denominator.
	assert.InDelta(t, math.Sqrt(32.0/7.0), StdDev(data), 1e-12)

	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, StdDev([]float64{1}))
}

func TestCovariance(t *testing.T) {
	x := []float64{1, 2, 3}
	y := []float64{2, 4, 6}

	assert.InDelta(t, 2.0, Covariance(x, y), 1e-12)
	assert.InDelta(t, Variance(x), Covariance(x, x), 1e-12)
	assert.Equal(t, 0.0, Covariance(x, []float64{1}))
}

func TestCalculateReturns(t *testing.T) {
	returns := CalculateReturns([]float64{100, 110, 99})

	assert.InDelta(t, 0.10, returns[0], 1e-12)
	assert.InDelta(t, -0.10, returns[1], 1e-12)
	assert.Empty(t, CalculateReturns([]float64{100}))
}

func TestTotalReturn(t *testing.T) {
	assert.InDelta(t, 0.5, TotalReturn([]float64{1.0, 1.2, 1.5}), 1e-12)
	assert.Equal(t, 0.0, TotalReturn([]float64{1.0}))
	assert.Equal(t, 0.0, TotalReturn([]float64{0, 1}))
}

func TestSharpeRatio(t *testing.T) {
	// Constant returns have zero volatility.
	assert.Equal(t, 0.0, SharpeRatio([]float64{0.01, 0.01, 0.01}))

	positive := SharpeRatio([]float64{0.01, 0.02, 0.015, 0.005})
	assert.Greater(t, positive, 0.0)

	negative := SharpeRatio([]float64{-0.01, -0.02, -0.015, -0.005})
	assert.Less(t, negative, 0.0)
}

func TestAnnualizedVolatility(t *testing.T) {
	returns := []float64{0.01, -0.01, 0.02, -0.02}

	expected := StdDev(returns) * math.Sqrt(TradingDaysPerYear)
	assert.InDelta(t, expected, AnnualizedVolatility(returns), 1e-12)
	assert.Equal(t, 0.0, AnnualizedVolatility(nil))
}

func TestMaxDrawdown(t *testing.T) {
	// Peak 1.2 to trough 0.9 is a 25% drawdown.
	assert.InDelta(t, 0.25, MaxDrawdown([]float64{1.0, 1.2, 0.9, 1.1}), 1e-12)

	// Monotonically increasing series never draws down.
	assert.Equal(t, 0.0, MaxDrawdown([]float64{1, 2, 3}))
	assert.Equal(t, 0.0, MaxDrawdown(nil))
}

func TestPercentile(t *testing.T) {
	data := []float64{5, 1, 4, 2, 3}

	assert.InDelta(t, 3.0, Percentile(data, 0.5), 1e-12)
	assert.InDelta(t, 1.0, Percentile(data, 0.05), 1e-12)
	assert.InDelta(t, 5.0, Percentile(data, 0.95), 1e-12)

	// Input order is preserved.
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, data)
}
