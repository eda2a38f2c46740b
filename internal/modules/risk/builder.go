// Package risk builds covariance estimates from return matrices.
package risk

import (
	"fmt"
	"math"

	"github.com/aristath/eiten/internal/domain"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// symmetryTolerance bounds the allowed asymmetry of a filtered covariance
// matrix, relative to the magnitude of the entries involved.
const symmetryTolerance = 1e-9

// NoiseFilter transforms a covariance estimate into a filtered covariance
// estimate of the same dimension. Implementations must preserve shape and
// symmetry; the builder enforces nothing beyond that.
type NoiseFilter func(cov [][]float64) ([][]float64, error)

// Builder computes covariance matrices over asset returns.
type Builder struct {
	log zerolog.Logger
}

// NewBuilder creates a new risk builder.
func NewBuilder(log zerolog.Logger) *Builder {
	return &Builder{
		log: log.With().Str("component", "risk").Logger(),
	}
}

// SampleCovariance computes the sample covariance matrix of the return
// matrix, treating each row as one asset's return series. The result is
// square and symmetric with dimension equal to the row count.
//
// Fewer than 2 return observations per asset fails with
// domain.ErrInsufficientHistory.
func (b *Builder) SampleCovariance(returns [][]float64) ([][]float64, error) {
	n := len(returns)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty return matrix", domain.ErrInsufficientHistory)
	}

	observations := len(returns[0])
	for i, row := range returns {
		if len(row) != observations {
			return nil, fmt.Errorf("%w: return matrix row %d has %d columns, expected %d",
				domain.ErrDataIntegrity, i, len(row), observations)
		}
	}
	if observations < 2 {
		return nil, fmt.Errorf("%w: covariance needs at least 2 return observations, got %d",
			domain.ErrInsufficientHistory, observations)
	}

	cov := make([][]float64, n)
	for i := range cov {
		cov[i] = make([]float64, n)
	}

	// Sample covariance with N-1 denominator, pairwise via gonum.
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c := stat.Covariance(returns[i], returns[j], nil)
			cov[i][j] = c
			cov[j][i] = c
		}
	}

	b.log.Debug().
		Int("dimension", n).
		Int("observations", observations).
		Msg("Calculated sample covariance matrix")

	return cov, nil
}

// Build computes the covariance estimate for the given return matrix and,
// when a filter is provided, replaces it wholesale with the filtered
// variant. The filter's output is validated for shape and symmetry only;
// a violation fails with domain.ErrContractViolation.
func (b *Builder) Build(returns [][]float64, filter NoiseFilter) ([][]float64, error) {
	cov, err := b.SampleCovariance(returns)
	if err != nil {
		return nil, err
	}

	if filter == nil {
		return cov, nil
	}

	filtered, err := filter(cov)
	if err != nil {
		return nil, fmt.Errorf("noise filter failed: %w", err)
	}

	if err := validateShape(filtered, len(cov)); err != nil {
		return nil, err
	}

	b.log.Info().
		Int("dimension", len(filtered)).
		Msg("Applied noise filtering to covariance matrix")

	return filtered, nil
}

// validateShape checks that a filtered covariance matrix is square with the
// expected dimension and symmetric.
func validateShape(cov [][]float64, dim int) error {
	if len(cov) != dim {
		return fmt.Errorf("%w: noise filter returned %dx? matrix, expected %dx%d",
			domain.ErrContractViolation, len(cov), dim, dim)
	}
	for i, row := range cov {
		if len(row) != dim {
			return fmt.Errorf("%w: noise filter returned non-square matrix (row %d has %d columns)",
				domain.ErrContractViolation, i, len(row))
		}
	}
	for i := 0; i < dim; i++ {
		for j := i + 1; j < dim; j++ {
			diff := math.Abs(cov[i][j] - cov[j][i])
			scale := math.Max(1.0, math.Max(math.Abs(cov[i][j]), math.Abs(cov[j][i])))
			if diff > symmetryTolerance*scale {
				return fmt.Errorf("%w: noise filter broke symmetry at (%d,%d): %v vs %v",
					domain.ErrContractViolation, i, j, cov[i][j], cov[j][i])
			}
		}
	}
	return nil
}
