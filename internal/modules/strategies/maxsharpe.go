package strategies

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// MaximumSharpe maximizes the expected-return-to-risk ratio
// (μ'w) / sqrt(w'Σw) with a zero risk-free rate, subject to the weights
// summing to one, via the same penalty formulation as the other numeric
// optimizers.
type MaximumSharpe struct{}

// NewMaximumSharpe creates a maximum Sharpe strategy.
func NewMaximumSharpe() *MaximumSharpe {
	return &MaximumSharpe{}
}

// Name returns the strategy name used in reports.
func (ms *MaximumSharpe) Name() string {
	return "Maximum Sharpe Portfolio (MSR)"
}

// ComputeWeights solves the maximum Sharpe problem over the covariance
// estimate and the expected-return vector.
func (ms *MaximumSharpe) ComputeWeights(in Inputs) (map[string]float64, error) {
	n := len(in.Symbols)
	if n == 0 {
		return nil, fmt.Errorf("no symbols provided")
	}
	if len(in.ExpectedReturns) != n {
		return nil, fmt.Errorf("expected returns length %d doesn't match symbol count %d", len(in.ExpectedReturns), n)
	}

	sigma, err := covarianceToDense(in.Covariance, n)
	if err != nil {
		return nil, err
	}

	mu := in.ExpectedReturns
	lower, upper := bounds(in.LongOnly)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			xProj := projectToBounds(x, lower, upper)

			var returnVal, variance float64
			for i := 0; i < n; i++ {
				returnVal += mu[i] * xProj[i]
				for j := 0; j < n; j++ {
					variance += xProj[i] * xProj[j] * sigma.At(i, j)
				}
			}
			stdDev := math.Sqrt(math.Max(variance, 1e-10))

			sum := 0.0
			for i := 0; i < n; i++ {
				sum += xProj[i]
			}

			return -returnVal/stdDev + penaltyWeight*(sum-1.0)*(sum-1.0)
		},
		Grad: func(grad, x []float64) {
			xProj := projectToBounds(x, lower, upper)

			var returnVal, variance float64
			for i := 0; i < n; i++ {
				returnVal += mu[i] * xProj[i]
				for j := 0; j < n; j++ {
					variance += xProj[i] * xProj[j] * sigma.At(i, j)
				}
			}
			stdDev := math.Sqrt(math.Max(variance, 1e-10))

			for i := 0; i < n; i++ {
				var dVariance float64
				for j := 0; j < n; j++ {
					dVariance += 2 * sigma.At(i, j) * xProj[j]
				}
				grad[i] = -mu[i]/stdDev + returnVal*dVariance/(2*stdDev*stdDev*stdDev)
			}

			sum := 0.0
			for i := 0; i < n; i++ {
				sum += xProj[i]
			}
			for i := 0; i < n; i++ {
				grad[i] += 2 * penaltyWeight * (sum - 1.0)
			}
		},
	}

	result, err := minimize(problem, n)
	if err != nil {
		return nil, err
	}

	return finalizeWeights(result.X, in.Symbols, lower, upper)
}
