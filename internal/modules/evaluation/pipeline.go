package evaluation

import (
	"fmt"
	"math"
	"sort"

	"github.com/aristath/eiten/internal/domain"
	"github.com/aristath/eiten/internal/modules/orchestrator"
	"github.com/aristath/eiten/pkg/formulas"
	"github.com/rs/zerolog"
)

// PriceSource supplies the per-phase price series the pipeline consumes.
// Future and MarketFuture must not be called unless the run is in test mode;
// the pipeline guarantees this.
type PriceSource interface {
	Historical(symbol string) ([]float64, bool)
	Future(symbol string) ([]float64, bool)
	MarketHistorical() []float64
	MarketFuture() []float64
}

// PathSimulator generates stochastic future price paths for one asset from
// its historical log returns and last observed close.
type PathSimulator interface {
	SimulatePaths(logReturns []float64, lastClose float64, horizon int) ([][]float64, error)
}

// Config holds the pipeline's run configuration.
type Config struct {
	// TestMode enables the future-test phase. When false that phase is
	// skipped entirely and the future price source is never touched.
	TestMode bool

	// SimulationHorizon is the number of future steps to simulate.
	SimulationHorizon int
}

// Pipeline evaluates every strategy's weights against historical, future and
// simulated prices. Phases run sequentially per strategy; a failure in one
// (strategy, phase) pair never aborts sibling phases or other strategies.
type Pipeline struct {
	source    PriceSource
	simulator PathSimulator
	cfg       Config
	log       zerolog.Logger
}

// New creates a new evaluation pipeline.
func New(source PriceSource, simulator PathSimulator, cfg Config, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		source:    source,
		simulator: simulator,
		cfg:       cfg,
		log:       log.With().Str("component", "evaluation").Logger(),
	}
}

// Evaluate runs every active phase for every strategy, in strategy input
// order, and returns one immutable Result per (strategy, phase) pair.
// Strategies that already failed in the orchestrator get failed cells for
// every active phase so the report never silently omits them.
func (p *Pipeline) Evaluate(runID string, weights []orchestrator.StrategyWeights) []Result {
	phases := []Phase{PhaseBacktest}
	if p.cfg.TestMode {
		phases = append(phases, PhaseFutureTest)
	}
	phases = append(phases, PhaseSimulation)

	results := make([]Result, 0, len(weights)*len(phases))

	for _, sw := range weights {
		for _, phase := range phases {
			result := Result{
				RunID:    runID,
				Strategy: sw.Strategy,
				Phase:    phase,
				Status:   StatusPending,
			}

			if sw.Err != nil {
				result.Status = StatusFailed
				result.Error = sw.Err.Error()
				results = append(results, result)
				continue
			}

			result.Status = StatusRunning
			p.log.Debug().
				Str("strategy", sw.Strategy).
				Str("phase", string(phase)).
				Msg("Running evaluation phase")

			err := p.runPhase(&result, sw.Weights)
			if err != nil {
				result.Status = StatusFailed
				result.Error = err.Error()
				p.log.Warn().
					Str("strategy", sw.Strategy).
					Str("phase", string(phase)).
					Err(err).
					Msg("Evaluation phase failed")
			} else {
				result.Status = StatusCompleted
				p.log.Info().
					Str("strategy", sw.Strategy).
					Str("phase", string(phase)).
					Float64("final_value", result.Summary.FinalValue).
					Msg("Evaluation phase completed")
			}

			results = append(results, result)
		}
	}

	return results
}

func (p *Pipeline) runPhase(result *Result, weights map[string]float64) error {
	switch result.Phase {
	case PhaseBacktest:
		return p.runPriceReplay(result, weights, p.source.Historical, p.source.MarketHistorical)
	case PhaseFutureTest:
		return p.runPriceReplay(result, weights, p.source.Future, p.source.MarketFuture)
	case PhaseSimulation:
		return p.runSimulation(result, weights)
	default:
		return fmt.Errorf("unknown phase %q", result.Phase)
	}
}

// runPriceReplay computes the cumulative portfolio value series under fixed
// weights over the given price source, plus the normalized benchmark when
// one is available.
func (p *Pipeline) runPriceReplay(
	result *Result,
	weights map[string]float64,
	prices func(symbol string) ([]float64, bool),
	market func() []float64,
) error {
	series := make(map[string][]float64, len(weights))
	length := 0
	for _, symbol := range sortedKeys(weights) {
		closes, ok := prices(symbol)
		if !ok || len(closes) == 0 {
			return fmt.Errorf("%w: no %s prices for %s", domain.ErrPhaseDataMissing, result.Phase, symbol)
		}
		if length == 0 {
			length = len(closes)
		}
		if len(closes) != length {
			return fmt.Errorf("%w: %s has %d %s observations, expected %d",
				domain.ErrDataIntegrity, symbol, len(closes), result.Phase, length)
		}
		series[symbol] = closes
	}

	values, err := portfolioValues(weights, series, length)
	if err != nil {
		return err
	}

	result.Values = values
	result.Market = normalizeSeries(market())
	result.Summary = summarize(values)
	return nil
}

// runSimulation applies the fixed-weight valuation rule across many sampled
// future price paths, producing a distribution of outcomes.
func (p *Pipeline) runSimulation(result *Result, weights map[string]float64) error {
	horizon := p.cfg.SimulationHorizon
	if horizon < 1 {
		return fmt.Errorf("simulation horizon must be at least 1, got %d", horizon)
	}

	symbols := sortedKeys(weights)

	// Simulate per-asset price paths from each asset's historical returns.
	assetPaths := make(map[string][][]float64, len(symbols))
	lastCloses := make(map[string]float64, len(symbols))
	numPaths := 0
	for _, symbol := range symbols {
		closes, ok := p.source.Historical(symbol)
		if !ok || len(closes) < 2 {
			return fmt.Errorf("%w: no historical prices for %s", domain.ErrPhaseDataMissing, symbol)
		}

		logReturns, err := logReturnsOf(closes, symbol)
		if err != nil {
			return err
		}

		paths, err := p.simulator.SimulatePaths(logReturns, closes[len(closes)-1], horizon)
		if err != nil {
			return fmt.Errorf("simulation failed for %s: %w", symbol, err)
		}
		if numPaths == 0 {
			numPaths = len(paths)
		}
		if len(paths) != numPaths {
			return fmt.Errorf("simulator returned %d paths for %s, expected %d", len(paths), symbol, numPaths)
		}

		assetPaths[symbol] = paths
		lastCloses[symbol] = closes[len(closes)-1]
	}

	// Combine per-asset paths into portfolio value trajectories using the
	// same valuation rule as the replay phases, with the last historical
	// close as the step-0 base price.
	portfolioPaths := make([][]float64, numPaths)
	finals := make([]float64, numPaths)
	for pi := 0; pi < numPaths; pi++ {
		values := make([]float64, horizon+1)
		for _, symbol := range symbols {
			values[0] += weights[symbol]
		}
		for t := 0; t < horizon; t++ {
			v := 0.0
			for _, symbol := range symbols {
				v += weights[symbol] * assetPaths[symbol][pi][t] / lastCloses[symbol]
			}
			values[t+1] = v
		}
		portfolioPaths[pi] = values
		finals[pi] = values[horizon]
	}

	// Mean trajectory across paths, for reporting alongside the bands.
	mean := make([]float64, horizon+1)
	for t := 0; t <= horizon; t++ {
		s := 0.0
		for pi := 0; pi < numPaths; pi++ {
			s += portfolioPaths[pi][t]
		}
		mean[t] = s / float64(numPaths)
	}

	result.Values = mean
	result.Paths = portfolioPaths
	result.Summary = summarize(mean)
	result.Summary.FinalValue = formulas.Mean(finals)
	result.Summary.FinalValueP5 = formulas.Percentile(finals, 0.05)
	result.Summary.FinalValueP95 = formulas.Percentile(finals, 0.95)
	return nil
}

// portfolioValues applies the common valuation rule across all phases:
// V(t) = Σ over assets of weight × price(t) / price(0), i.e. weights are
// initial capital allocation fractions, not share counts.
func portfolioValues(weights map[string]float64, series map[string][]float64, length int) ([]float64, error) {
	values := make([]float64, length)
	for symbol, closes := range series {
		base := closes[0]
		if base <= 0 || math.IsNaN(base) {
			return nil, fmt.Errorf("%w: %s has non-positive base price %v", domain.ErrDataIntegrity, symbol, base)
		}
		w := weights[symbol]
		for t := 0; t < length; t++ {
			values[t] += w * closes[t] / base
		}
	}
	return values, nil
}

// normalizeSeries rescales a benchmark series to 1.0 at step 0. Returns nil
// when no benchmark is available.
func normalizeSeries(closes []float64) []float64 {
	if len(closes) == 0 || closes[0] <= 0 {
		return nil
	}
	out := make([]float64, len(closes))
	for i, c := range closes {
		out[i] = c / closes[0]
	}
	return out
}

func logReturnsOf(closes []float64, symbol string) ([]float64, error) {
	logReturns := make([]float64, len(closes)-1)
	for t := 1; t < len(closes); t++ {
		if closes[t] <= 0 || closes[t-1] <= 0 {
			return nil, fmt.Errorf("%w: %s has non-positive close in history", domain.ErrDataIntegrity, symbol)
		}
		logReturns[t-1] = math.Log(closes[t] / closes[t-1])
	}
	return logReturns, nil
}

func summarize(values []float64) Summary {
	returns := formulas.CalculateReturns(values)
	return Summary{
		FinalValue:           values[len(values)-1],
		TotalReturn:          formulas.TotalReturn(values),
		AnnualizedVolatility: formulas.AnnualizedVolatility(returns),
		SharpeRatio:          formulas.SharpeRatio(returns),
		MaxDrawdown:          formulas.MaxDrawdown(values),
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
