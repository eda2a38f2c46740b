// Package orchestrator invokes the registered weight-construction strategies
// and validates their output against the calling contract.
package orchestrator

import (
	"fmt"

	"github.com/aristath/eiten/internal/domain"
	"github.com/aristath/eiten/internal/modules/strategies"
	"github.com/rs/zerolog"
)

// StrategyWeights is the outcome of one strategy invocation. Err is non-nil
// when the strategy failed or violated the weight-mapping contract; the
// weights are nil in that case.
type StrategyWeights struct {
	Strategy string
	Weights  map[string]float64
	Err      error
}

// Orchestrator runs strategies sequentially in caller order, isolating
// failures so one broken strategy never affects its siblings.
type Orchestrator struct {
	log zerolog.Logger
}

// New creates a new strategy orchestrator.
func New(log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		log: log.With().Str("component", "orchestrator").Logger(),
	}
}

// Run invokes every strategy with its own read-only copy of the inputs and
// collects one StrategyWeights per strategy, in invocation order. A strategy
// whose weight mapping does not cover exactly the input symbol set fails
// with domain.ErrContractViolation; other strategies are unaffected.
func (o *Orchestrator) Run(in strategies.Inputs, strats []strategies.Strategy) []StrategyWeights {
	results := make([]StrategyWeights, 0, len(strats))

	for _, strategy := range strats {
		name := strategy.Name()

		weights, err := strategy.ComputeWeights(copyInputs(in))
		if err == nil {
			err = validateCoverage(weights, in.Symbols)
		}
		if err != nil {
			o.log.Warn().
				Str("strategy", name).
				Err(err).
				Msg("Strategy failed")
			results = append(results, StrategyWeights{Strategy: name, Err: err})
			continue
		}

		o.log.Info().
			Str("strategy", name).
			Int("num_symbols", len(weights)).
			Msg("Computed portfolio weights")

		results = append(results, StrategyWeights{Strategy: name, Weights: weights})
	}

	return results
}

// validateCoverage checks the postcondition that a weight mapping covers
// exactly the expected symbol set.
func validateCoverage(weights map[string]float64, symbols []string) error {
	if len(weights) != len(symbols) {
		return fmt.Errorf("%w: weight mapping has %d symbols, expected %d",
			domain.ErrContractViolation, len(weights), len(symbols))
	}
	for _, symbol := range symbols {
		if _, ok := weights[symbol]; !ok {
			return fmt.Errorf("%w: weight mapping missing symbol %s",
				domain.ErrContractViolation, symbol)
		}
	}
	return nil
}

// copyInputs deep-copies the shared estimates so strategies cannot mutate
// each other's view.
func copyInputs(in strategies.Inputs) strategies.Inputs {
	symbols := make([]string, len(in.Symbols))
	copy(symbols, in.Symbols)
	return strategies.Inputs{
		Symbols:         symbols,
		Covariance:      domain.CopyMatrix(in.Covariance),
		ExpectedReturns: domain.CopyVector(in.ExpectedReturns),
		PctReturns:      domain.CopyMatrix(in.PctReturns),
		LongOnly:        in.LongOnly,
	}
}
