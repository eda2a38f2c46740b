package strategies

import (
	"fmt"
	"math"

	"github.com/aristath/eiten/internal/modules/risk"
	"gonum.org/v1/gonum/mat"
)

// NewMarchenkoPasturFilter builds a random-matrix-theory noise filter for
// covariance matrices. numObservations is the number of return observations
// the covariance was estimated from; it fixes the Marchenko-Pastur upper
// eigenvalue bound λ+ = (1 + sqrt(N/T))² of a pure-noise correlation
// matrix. Eigenvalues of the implied correlation matrix at or below that
// bound carry no reliable correlation structure and are flattened to their
// average (preserving the trace) before the covariance is rebuilt.
//
// Reference: Laloux, Cizeau, Bouchaud & Potters (1999),
// "Noise Dressing of Financial Correlation Matrices".
func NewMarchenkoPasturFilter(numObservations int) risk.NoiseFilter {
	return func(cov [][]float64) ([][]float64, error) {
		n := len(cov)
		if n == 0 {
			return nil, fmt.Errorf("empty covariance matrix")
		}
		if numObservations < 2 {
			return nil, fmt.Errorf("need at least 2 observations for noise filtering, got %d", numObservations)
		}

		// Extract standard deviations and build the correlation matrix.
		stds := make([]float64, n)
		for i := 0; i < n; i++ {
			if len(cov[i]) != n {
				return nil, fmt.Errorf("covariance matrix is not square")
			}
			if cov[i][i] <= 0 {
				return nil, fmt.Errorf("non-positive variance at index %d: %v", i, cov[i][i])
			}
			stds[i] = math.Sqrt(cov[i][i])
		}

		corr := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				corr.SetSym(i, j, cov[i][j]/(stds[i]*stds[j]))
			}
		}

		var eig mat.EigenSym
		if ok := eig.Factorize(corr, true); !ok {
			return nil, fmt.Errorf("eigen decomposition failed")
		}

		eigenvalues := eig.Values(nil)
		var vectors mat.Dense
		eig.VectorsTo(&vectors)

		// Marchenko-Pastur upper bound for a pure-noise correlation matrix.
		q := float64(n) / float64(numObservations)
		lambdaMax := (1 + math.Sqrt(q)) * (1 + math.Sqrt(q))

		noisySum := 0.0
		noisyCount := 0
		for _, lambda := range eigenvalues {
			if lambda <= lambdaMax {
				noisySum += lambda
				noisyCount++
			}
		}
		if noisyCount > 0 {
			noisyMean := noisySum / float64(noisyCount)
			for i, lambda := range eigenvalues {
				if lambda <= lambdaMax {
					eigenvalues[i] = noisyMean
				}
			}
		}

		// Rebuild the correlation matrix from the cleaned spectrum:
		// C' = V diag(λ') V', then force a unit diagonal.
		cleaned := make([][]float64, n)
		for i := range cleaned {
			cleaned[i] = make([]float64, n)
		}
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				v := 0.0
				for k := 0; k < n; k++ {
					v += vectors.At(i, k) * eigenvalues[k] * vectors.At(j, k)
				}
				cleaned[i][j] = v
				cleaned[j][i] = v
			}
		}
		for i := 0; i < n; i++ {
			cleaned[i][i] = 1.0
		}

		// Rescale back to a covariance matrix.
		filtered := make([][]float64, n)
		for i := range filtered {
			filtered[i] = make([]float64, n)
		}
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				v := cleaned[i][j] * stds[i] * stds[j]
				filtered[i][j] = v
				filtered[j][i] = v
			}
		}

		return filtered, nil
	}
}
