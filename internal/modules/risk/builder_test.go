package risk

import (
	"fmt"
	"testing"

	"github.com/aristath/eiten/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleCovariance_KnownValues(t *testing.T) {
	builder := NewBuilder(zerolog.Nop())

	// y = 2x, so cov(x,y) = 2*var(x) and var(y) = 4*var(x).
	cov, err := builder.SampleCovariance([][]float64{
		{1, 2, 3},
		{2, 4, 6},
	})
	require.NoError(t, err)

	require.Len(t, cov, 2)
	assert.InDelta(t, 1.0, cov[0][0], 1e-12)
	assert.InDelta(t, 2.0, cov[0][1], 1e-12)
	assert.InDelta(t, 2.0, cov[1][0], 1e-12)
	assert.InDelta(t, 4.0, cov[1][1], 1e-12)
}

func TestSampleCovariance_Symmetry(t *testing.T) {
	builder := NewBuilder(zerolog.Nop())

	cov, err := builder.SampleCovariance([][]float64{
		{0.1, -0.2, 0.05, 0.3},
		{-0.05, 0.15, 0.2, -0.1},
		{0.02, 0.02, -0.03, 0.08},
	})
	require.NoError(t, err)

	for i := range cov {
		assert.GreaterOrEqual(t, cov[i][i], 0.0)
		for j := range cov {
			assert.InDelta(t, cov[j][i], cov[i][j], 1e-12)
		}
	}
}

func TestSampleCovariance_InsufficientObservations(t *testing.T) {
	builder := NewBuilder(zerolog.Nop())

	_, err := builder.SampleCovariance([][]float64{{0.1}})
	assert.ErrorIs(t, err, domain.ErrInsufficientHistory)

	_, err = builder.SampleCovariance(nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientHistory)
}

func TestSampleCovariance_RaggedMatrix(t *testing.T) {
	builder := NewBuilder(zerolog.Nop())

	_, err := builder.SampleCovariance([][]float64{
		{0.1, 0.2, 0.3},
		{0.1, 0.2},
	})
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
}

func TestBuild_NilFilterReturnsSampleCovariance(t *testing.T) {
	builder := NewBuilder(zerolog.Nop())

	returns := [][]float64{
		{1, 2, 3},
		{2, 4, 6},
	}
	sample, err := builder.SampleCovariance(returns)
	require.NoError(t, err)

	built, err := builder.Build(returns, nil)
	require.NoError(t, err)
	assert.Equal(t, sample, built)
}

func TestBuild_FilterReplacesCovariance(t *testing.T) {
	builder := NewBuilder(zerolog.Nop())

	diagonal := func(cov [][]float64) ([][]float64, error) {
		out := domain.CopyMatrix(cov)
		for i := range out {
			for j := range out[i] {
				if i != j {
					out[i][j] = 0
				}
			}
		}
		return out, nil
	}

	built, err := builder.Build([][]float64{
		{1, 2, 3},
		{2, 4, 6},
	}, diagonal)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, built[0][1], 1e-12)
	assert.InDelta(t, 1.0, built[0][0], 1e-12)
	assert.InDelta(t, 4.0, built[1][1], 1e-12)
}

func TestBuild_FilterShapeViolation(t *testing.T) {
	builder := NewBuilder(zerolog.Nop())
	returns := [][]float64{
		{1, 2, 3},
		{2, 4, 6},
	}

	wrongDim := func(cov [][]float64) ([][]float64, error) {
		return [][]float64{{1}}, nil
	}
	_, err := builder.Build(returns, wrongDim)
	assert.ErrorIs(t, err, domain.ErrContractViolation)

	asymmetric := func(cov [][]float64) ([][]float64, error) {
		out := domain.CopyMatrix(cov)
		out[0][1] = out[1][0] + 1
		return out, nil
	}
	_, err = builder.Build(returns, asymmetric)
	assert.ErrorIs(t, err, domain.ErrContractViolation)
}

func TestBuild_FilterErrorPropagates(t *testing.T) {
	builder := NewBuilder(zerolog.Nop())

	failing := func(cov [][]float64) ([][]float64, error) {
		return nil, fmt.Errorf("spectral decomposition diverged")
	}
	_, err := builder.Build([][]float64{
		{1, 2, 3},
		{2, 4, 6},
	}, failing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "noise filter failed")
}
