package strategies

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/aristath/eiten/pkg/formulas"
	"github.com/rs/zerolog"
)

// Default genetic search parameters.
const (
	DefaultPopulationSize = 100
	DefaultGenerations    = 200
	DefaultMutationRate   = 0.1
)

// GeneticSearch evolves a population of normalized weight vectors against
// the historical percentage-return matrix, scoring candidates by the Sharpe
// ratio of the resulting portfolio return series.
type GeneticSearch struct {
	PopulationSize int
	Generations    int
	MutationRate   float64

	rng *rand.Rand
	log zerolog.Logger
}

// NewGeneticSearch creates a genetic search strategy with default parameters
// and the given random seed (fixed seed gives a reproducible search).
func NewGeneticSearch(seed int64, log zerolog.Logger) *GeneticSearch {
	return &GeneticSearch{
		PopulationSize: DefaultPopulationSize,
		Generations:    DefaultGenerations,
		MutationRate:   DefaultMutationRate,
		rng:            rand.New(rand.NewSource(seed)),
		log:            log.With().Str("component", "genetic_search").Logger(),
	}
}

// Name returns the strategy name used in reports.
func (gs *GeneticSearch) Name() string {
	return "Genetic Algo (GA)"
}

// ComputeWeights runs the evolutionary search over the percentage-return
// matrix and returns the fittest normalized weight vector.
func (gs *GeneticSearch) ComputeWeights(in Inputs) (map[string]float64, error) {
	n := len(in.Symbols)
	if n == 0 {
		return nil, fmt.Errorf("no symbols provided")
	}
	if len(in.PctReturns) != n {
		return nil, fmt.Errorf("return matrix rows %d don't match symbol count %d", len(in.PctReturns), n)
	}
	if len(in.PctReturns[0]) == 0 {
		return nil, fmt.Errorf("return matrix has no observations")
	}

	population := make([][]float64, gs.PopulationSize)
	for i := range population {
		population[i] = gs.randomCandidate(n, in.LongOnly)
	}

	var best []float64
	bestFitness := math.Inf(-1)

	for gen := 0; gen < gs.Generations; gen++ {
		type scored struct {
			candidate []float64
			fitness   float64
		}
		ranked := make([]scored, len(population))
		for i, candidate := range population {
			ranked[i] = scored{candidate, gs.fitness(candidate, in.PctReturns)}
		}
		sort.Slice(ranked, func(i, j int) bool {
			return ranked[i].fitness > ranked[j].fitness
		})

		if ranked[0].fitness > bestFitness {
			bestFitness = ranked[0].fitness
			best = append([]float64(nil), ranked[0].candidate...)
		}

		// Elitism: the top half survives; children fill the rest via
		// uniform crossover and gaussian mutation.
		elite := len(population) / 2
		next := make([][]float64, 0, len(population))
		for i := 0; i < elite; i++ {
			next = append(next, ranked[i].candidate)
		}
		for len(next) < len(population) {
			a := ranked[gs.rng.Intn(elite)].candidate
			b := ranked[gs.rng.Intn(elite)].candidate
			next = append(next, gs.offspring(a, b, in.LongOnly))
		}
		population = next
	}

	if best == nil {
		return nil, fmt.Errorf("genetic search produced no viable candidate")
	}

	gs.log.Debug().
		Float64("fitness", bestFitness).
		Int("generations", gs.Generations).
		Int("population", gs.PopulationSize).
		Msg("Genetic search finished")

	weights := make(map[string]float64, n)
	for i, symbol := range in.Symbols {
		weights[symbol] = best[i]
	}
	return weights, nil
}

// fitness scores a candidate by the Sharpe ratio of its historical portfolio
// return series.
func (gs *GeneticSearch) fitness(weights []float64, pctReturns [][]float64) float64 {
	observations := len(pctReturns[0])
	portfolio := make([]float64, observations)
	for t := 0; t < observations; t++ {
		v := 0.0
		for i, w := range weights {
			v += w * pctReturns[i][t] / 100.0
		}
		portfolio[t] = v
	}

	sd := formulas.StdDev(portfolio)
	if sd == 0 {
		return math.Inf(-1)
	}
	return formulas.Mean(portfolio) / sd
}

// randomCandidate draws a random normalized weight vector. Long-only
// candidates are uniform on [0, 1] before normalization; otherwise
// components are uniform on [-1, 1].
func (gs *GeneticSearch) randomCandidate(n int, longOnly bool) []float64 {
	for {
		candidate := make([]float64, n)
		for i := range candidate {
			if longOnly {
				candidate[i] = gs.rng.Float64()
			} else {
				candidate[i] = gs.rng.Float64()*2 - 1
			}
		}
		if gs.normalize(candidate, longOnly) {
			return candidate
		}
	}
}

// offspring combines two parents with uniform crossover, applies gaussian
// mutation, and re-normalizes. Falls back to a fresh random candidate when
// the child degenerates.
func (gs *GeneticSearch) offspring(a, b []float64, longOnly bool) []float64 {
	child := make([]float64, len(a))
	for i := range child {
		if gs.rng.Float64() < 0.5 {
			child[i] = a[i]
		} else {
			child[i] = b[i]
		}
		if gs.rng.Float64() < gs.MutationRate {
			child[i] += gs.rng.NormFloat64() * 0.1
		}
		if longOnly && child[i] < 0 {
			child[i] = 0
		}
	}
	if !gs.normalize(child, longOnly) {
		return gs.randomCandidate(len(a), longOnly)
	}
	return child
}

// normalize scales a candidate to sum to one in place. Returns false when
// the component sum is too close to zero to normalize safely.
func (gs *GeneticSearch) normalize(candidate []float64, longOnly bool) bool {
	sum := 0.0
	for _, w := range candidate {
		sum += w
	}
	if math.Abs(sum) < 1e-6 {
		return false
	}
	for i := range candidate {
		candidate[i] /= sum
	}
	if longOnly {
		for _, w := range candidate {
			if w < 0 {
				return false
			}
		}
	}
	return true
}
