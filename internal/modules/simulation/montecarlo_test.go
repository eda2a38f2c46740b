package simulation

import (
	"testing"

	"github.com/aristath/eiten/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatePaths_ShapeAndPositivity(t *testing.T) {
	mc := NewMonteCarlo(25, zerolog.Nop())

	logReturns := []float64{0.01, -0.02, 0.015, 0.005, -0.01}
	paths, err := mc.SimulatePaths(logReturns, 100.0, 10)
	require.NoError(t, err)

	require.Len(t, paths, 25)
	for _, path := range paths {
		require.Len(t, path, 10)
		for _, price := range path {
			// Compounding exponentials from a positive start can never
			// cross zero.
			assert.Greater(t, price, 0.0)
		}
	}
}

func TestSimulatePaths_ZeroVolatilityIsDeterministic(t *testing.T) {
	mc := NewMonteCarlo(5, zerolog.Nop())

	// Identical log returns make sigma zero, so every path compounds the
	// same drift.
	paths, err := mc.SimulatePaths([]float64{0.0, 0.0, 0.0}, 50.0, 3)
	require.NoError(t, err)

	for _, path := range paths {
		for _, price := range path {
			assert.InDelta(t, 50.0, price, 1e-9)
		}
	}
}

func TestSimulatePaths_DefaultPathCount(t *testing.T) {
	mc := NewMonteCarlo(0, zerolog.Nop())
	assert.Equal(t, DefaultNumPaths, mc.NumPaths)
}

func TestSimulatePaths_InvalidInputs(t *testing.T) {
	mc := NewMonteCarlo(10, zerolog.Nop())

	_, err := mc.SimulatePaths([]float64{0.01}, 100.0, 5)
	assert.ErrorIs(t, err, domain.ErrInsufficientHistory)

	_, err = mc.SimulatePaths([]float64{0.01, 0.02}, 0, 5)
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)

	_, err = mc.SimulatePaths([]float64{0.01, 0.02}, 100.0, 0)
	assert.Error(t, err)
}
