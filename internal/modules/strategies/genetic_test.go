package strategies

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gaInputs builds a two-asset universe where STEADY gains 1% every step and
// CHOPPY swings wildly around zero.
func gaInputs(longOnly bool) Inputs {
	observations := 40
	steady := make([]float64, observations)
	choppy := make([]float64, observations)
	for t := range steady {
		steady[t] = 1.0
		if t%2 == 0 {
			choppy[t] = 8.0
		} else {
			choppy[t] = -8.5
		}
	}
	return Inputs{
		Symbols:    []string{"CHOPPY", "STEADY"},
		PctReturns: [][]float64{choppy, steady},
		LongOnly:   longOnly,
	}
}

func TestGeneticSearch_PrefersSteadyReturns(t *testing.T) {
	gs := NewGeneticSearch(42, zerolog.Nop())

	weights, err := gs.ComputeWeights(gaInputs(true))
	require.NoError(t, err)

	assertNormalized(t, weights, true)
	assert.Greater(t, weights["STEADY"], weights["CHOPPY"])
}

func TestGeneticSearch_SeedReproducibility(t *testing.T) {
	first, err := NewGeneticSearch(7, zerolog.Nop()).ComputeWeights(gaInputs(true))
	require.NoError(t, err)

	second, err := NewGeneticSearch(7, zerolog.Nop()).ComputeWeights(gaInputs(true))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGeneticSearch_LongShortCandidatesStayNormalized(t *testing.T) {
	weights, err := NewGeneticSearch(3, zerolog.Nop()).ComputeWeights(gaInputs(false))
	require.NoError(t, err)
	assertNormalized(t, weights, false)
}

func TestGeneticSearch_InvalidInputs(t *testing.T) {
	gs := NewGeneticSearch(1, zerolog.Nop())

	_, err := gs.ComputeWeights(Inputs{})
	assert.Error(t, err)

	_, err = gs.ComputeWeights(Inputs{
		Symbols:    []string{"AAA"},
		PctReturns: [][]float64{{}},
	})
	assert.Error(t, err)
}
