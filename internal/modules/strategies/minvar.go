package strategies

import (
	"fmt"

	"gonum.org/v1/gonum/optimize"
)

// MinimumVariance minimizes total portfolio variance w'Σw subject to the
// weights summing to one, via a penalty formulation:
//
//	minimize  w'Σw + λ(Σw - 1)²
//	subject to lower_i ≤ w_i ≤ upper_i (projection)
type MinimumVariance struct{}

// NewMinimumVariance creates a minimum variance strategy.
func NewMinimumVariance() *MinimumVariance {
	return &MinimumVariance{}
}

// Name returns the strategy name used in reports.
func (mv *MinimumVariance) Name() string {
	return "Minimum Variance Portfolio (MVP)"
}

// ComputeWeights solves the minimum variance problem over the covariance
// estimate.
func (mv *MinimumVariance) ComputeWeights(in Inputs) (map[string]float64, error) {
	n := len(in.Symbols)
	if n == 0 {
		return nil, fmt.Errorf("no symbols provided")
	}

	sigma, err := covarianceToDense(in.Covariance, n)
	if err != nil {
		return nil, err
	}

	lower, upper := bounds(in.LongOnly)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			xProj := projectToBounds(x, lower, upper)

			var variance float64
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					variance += xProj[i] * xProj[j] * sigma.At(i, j)
				}
			}

			sum := 0.0
			for i := 0; i < n; i++ {
				sum += xProj[i]
			}

			return variance + penaltyWeight*(sum-1.0)*(sum-1.0)
		},
		Grad: func(grad, x []float64) {
			xProj := projectToBounds(x, lower, upper)

			for i := 0; i < n; i++ {
				grad[i] = 0
				for j := 0; j < n; j++ {
					grad[i] += 2 * sigma.At(i, j) * xProj[j]
				}
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
