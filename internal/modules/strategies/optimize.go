package strategies

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// penaltyWeight enforces the sum-to-one budget constraint in the penalty
// formulation used by the numerical optimizers.
const penaltyWeight = 1000.0

// bounds returns the per-asset weight bounds for the optimizers: [0, 1]
// under long-only, [-1, 1] otherwise.
func bounds(longOnly bool) (float64, float64) {
	if longOnly {
		return 0.0, 1.0
	}
	return -1.0, 1.0
}

// projectToBounds clamps every weight into [lower, upper].
func projectToBounds(x []float64, lower, upper float64) []float64 {
	proj := make([]float64, len(x))
	for i := range x {
		proj[i] = math.Max(lower, math.Min(upper, x[i]))
	}
	return proj
}

// covarianceToDense converts a [][]float64 covariance matrix to a gonum
// matrix, validating squareness.
func covarianceToDense(cov [][]float64, n int) (*mat.Dense, error) {
	if len(cov) != n {
		return nil, fmt.Errorf("covariance matrix size %d doesn't match symbol count %d", len(cov), n)
	}
	sigma := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		if len(cov[i]) != n {
			return nil, fmt.Errorf("covariance matrix row %d has size %d, expected %d", i, len(cov[i]), n)
		}
		for j := 0; j < n; j++ {
			sigma.Set(i, j, cov[i][j])
		}
	}
	return sigma, nil
}

// minimize runs the penalty-formulated problem with BFGS and falls back to
// Nelder-Mead when BFGS fails or does not converge.
func minimize(problem optimize.Problem, n int) (*optimize.Result, error) {
	initial := make([]float64, n)
	for i := range initial {
		initial[i] = 1.0 / float64(n)
	}

	successStatuses := map[optimize.Status]bool{
		optimize.Success:             true,
		optimize.GradientThreshold:   true,
		optimize.FunctionConvergence: true,
	}

	result, err := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.BFGS{})
	if err != nil || !successStatuses[result.Status] {
		result, err = optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.NelderMead{})
		if err != nil {
			return nil, fmt.Errorf("optimization failed: %w", err)
		}
		if !successStatuses[result.Status] {
			return nil, fmt.Errorf("optimization did not converge: status=%v", result.Status)
		}
	}

	return result, nil
}

// finalizeWeights projects the solution to bounds and normalizes it to sum
// to one, keyed by symbol.
func finalizeWeights(x []float64, symbols []string, lower, upper float64) (map[string]float64, error) {
	proj := projectToBounds(x, lower, upper)

	sum := 0.0
	for _, w := range proj {
		sum += w
	}
	if math.Abs(sum) < 1e-10 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, fmt.Errorf("degenerate solution: weight sum %v", sum)
	}

	weights := make(map[string]float64, len(symbols))
	for i, symbol := range symbols {
		weights[symbol] = proj[i] / sum
	}
	return weights, nil
}
