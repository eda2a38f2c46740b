package strategies

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// EigenPortfolio derives weights from a principal eigenvector of the
// covariance matrix. PortfolioNumber selects which eigen portfolio to use,
// 1 being the one with the largest eigenvalue.
type EigenPortfolio struct {
	PortfolioNumber int
}

// NewEigenPortfolio creates an eigen portfolio strategy for the given
// eigen portfolio number (1-based, largest eigenvalue first).
func NewEigenPortfolio(portfolioNumber int) *EigenPortfolio {
	if portfolioNumber < 1 {
		portfolioNumber = 1
	}
	return &EigenPortfolio{PortfolioNumber: portfolioNumber}
}

// Name returns the strategy name used in reports.
func (ep *EigenPortfolio) Name() string {
	return "Eigen Portfolio"
}

// ComputeWeights extracts the selected eigenvector of the covariance matrix
// and normalizes its components to sum to one. Under long-only, negative
// components are clipped before normalization.
func (ep *EigenPortfolio) ComputeWeights(in Inputs) (map[string]float64, error) {
	n := len(in.Symbols)
	if n == 0 {
		return nil, fmt.Errorf("no symbols provided")
	}
	if len(in.Covariance) != n {
		return nil, fmt.Errorf("covariance matrix size %d doesn't match symbol count %d", len(in.Covariance), n)
	}

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		if len(in.Covariance[i]) != n {
			return nil, fmt.Errorf("covariance matrix is not square")
		}
		for j := i; j < n; j++ {
			sym.SetSym(i, j, in.Covariance[i][j])
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		return nil, fmt.Errorf("eigen decomposition failed")
	}

	index := ep.PortfolioNumber
	if index > n {
		index = n
	}

	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// gonum returns eigenvalues in ascending order; portfolio #1 is the
	// column with the largest eigenvalue.
	column := n - index

	components := make([]float64, n)
	for i := 0; i < n; i++ {
		components[i] = vectors.At(i, column)
	}

	// Eigenvector sign is arbitrary; orient it so the total exposure is
	// positive before normalizing.
	sum := 0.0
	for _, c := range components {
		sum += c
	}
	if sum < 0 {
		for i := range components {
			components[i] = -components[i]
		}
		sum = -sum
	}

	if in.LongOnly {
		sum = 0.0
		for i, c := range components {
			if c < 0 {
				components[i] = 0
				continue
			}
			sum += c
		}
	}

	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, fmt.Errorf("degenerate eigenvector: component sum %v", sum)
	}

	weights := make(map[string]float64, n)
	for i, symbol := range in.Symbols {
		weights[symbol] = components[i] / sum
	}
	return weights, nil
}
