// Package simulation generates stochastic future price paths for the
// simulation phase of the evaluation pipeline.
package simulation

import (
	"fmt"
	"math"

	"github.com/aristath/eiten/internal/domain"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultNumPaths is the number of sampled future paths per asset.
const DefaultNumPaths = 100

// MonteCarlo simulates future closing prices by drawing log returns from a
// normal distribution fitted to the asset's historical log returns, then
// compounding them from the last observed close.
type MonteCarlo struct {
	NumPaths int
	log      zerolog.Logger
}

// NewMonteCarlo creates a Monte Carlo simulator.
func NewMonteCarlo(numPaths int, log zerolog.Logger) *MonteCarlo {
	if numPaths <= 0 {
		numPaths = DefaultNumPaths
	}
	return &MonteCarlo{
		NumPaths: numPaths,
		log:      log.With().Str("component", "monte_carlo").Logger(),
	}
}

// SimulatePaths returns NumPaths simulated price paths of horizon steps for
// one asset. Every path starts (implicitly) from the last historical close;
// path[p][t] is the simulated close t+1 steps into the future.
func (mc *MonteCarlo) SimulatePaths(logReturns []float64, lastClose float64, horizon int) ([][]float64, error) {
	if len(logReturns) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 historical returns for simulation, got %d",
			domain.ErrInsufficientHistory, len(logReturns))
	}
	if lastClose <= 0 {
		return nil, fmt.Errorf("%w: non-positive starting price %v", domain.ErrDataIntegrity, lastClose)
	}
	if horizon < 1 {
		return nil, fmt.Errorf("simulation horizon must be at least 1, got %d", horizon)
	}

	mu := stat.Mean(logReturns, nil)
	sigma := stat.StdDev(logReturns, nil)

	normal := distuv.Normal{
		Mu:    mu,
		Sigma: sigma,
	}

	paths := make([][]float64, mc.NumPaths)
	for p := 0; p < mc.NumPaths; p++ {
		path := make([]float64, horizon)
		price := lastClose
		for t := 0; t < horizon; t++ {
			price *= math.Exp(normal.Rand())
			path[t] = price
		}
		paths[p] = path
	}

	mc.log.Debug().
		Int("num_paths", mc.NumPaths).
		Int("horizon", horizon).
		Float64("mu", mu).
		Float64("sigma", sigma).
		Msg("Simulated price paths")

	return paths, nil
}
