// Package returns converts aligned historical price series into return
// matrices and a recency-weighted expected-return vector.
package returns

import (
	"fmt"
	"math"

	"github.com/aristath/eiten/internal/domain"
	"github.com/rs/zerolog"
)

// Estimates bundles the derived return structures for one run. Rows of both
// matrices and entries of ExpectedReturns follow the order of Symbols.
type Estimates struct {
	Symbols []string

	// LogReturns[i][t] = ln(close[t+1] / close[t]) for asset i.
	LogReturns [][]float64

	// PctReturns[i][t] = 100 * (close[t+1] - close[t]) / close[t] for asset i.
	PctReturns [][]float64

	// ExpectedReturns[i] is the recency-weighted mean percentage return:
	// mean over t of PctReturns[i][t] / (L - 1 - t), where L is the
	// observation count. The shrinking divisor gives more weight to returns
	// near the end of history.
	ExpectedReturns []float64
}

// Estimator builds return matrices and expected-return vectors from price
// history.
type Estimator struct {
	log zerolog.Logger
}

// NewEstimator creates a new return estimator.
func NewEstimator(log zerolog.Logger) *Estimator {
	return &Estimator{
		log: log.With().Str("component", "returns").Logger(),
	}
}

// Estimate computes log-return and percentage-return matrices plus the
// expected-return vector for the given series. The input must already be
// sorted by symbol; all series must share the same observation count and
// contain only strictly positive closes.
//
// Validation happens before any matrix is returned: a zero or negative close
// or a length mismatch fails with domain.ErrDataIntegrity, and fewer than 2
// observations fails with domain.ErrInsufficientHistory.
func (e *Estimator) Estimate(series []domain.AssetSeries) (*Estimates, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no asset series provided", domain.ErrDataIntegrity)
	}

	observations := len(series[0].Closes)
	if observations < 2 {
		return nil, fmt.Errorf("%w: %s has %d observations, need at least 2",
			domain.ErrInsufficientHistory, series[0].Symbol, observations)
	}

	// Validate every series up front so no partial matrix escapes.
	for _, s := range series {
		if len(s.Closes) != observations {
			return nil, fmt.Errorf("%w: %s has %d observations, expected %d",
				domain.ErrDataIntegrity, s.Symbol, len(s.Closes), observations)
		}
		for t, price := range s.Closes {
			if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
				return nil, fmt.Errorf("%w: %s has non-positive close %v at observation %d",
					domain.ErrDataIntegrity, s.Symbol, price, t)
			}
		}
	}

	numAssets := len(series)
	est := &Estimates{
		Symbols:         make([]string, numAssets),
		LogReturns:      make([][]float64, numAssets),
		PctReturns:      make([][]float64, numAssets),
		ExpectedReturns: make([]float64, numAssets),
	}

	for i, s := range series {
		est.Symbols[i] = s.Symbol

		logRow := make([]float64, observations-1)
		pctRow := make([]float64, observations-1)
		weightedSum := 0.0

		for t := 1; t < observations; t++ {
			logRow[t-1] = math.Log(s.Closes[t] / s.Closes[t-1])
			pctRow[t-1] = percentageChange(s.Closes[t-1], s.Closes[t])

			// Recency weighting: the divisor shrinks towards 1 for the
			// newest observation, so recent returns dominate the average.
			weightedSum += pctRow[t-1] / float64(observations-t)
		}

		est.LogReturns[i] = logRow
		est.PctReturns[i] = pctRow
		est.ExpectedReturns[i] = weightedSum / float64(observations-1)
	}

	e.log.Debug().
		Int("num_assets", numAssets).
		Int("observations", observations).
		Int("return_columns", observations-1).
		Msg("Built return matrices")

	return est, nil
}

// percentageChange calculates the percentage change between two prices.
func percentageChange(old, new float64) float64 {
	return (new - old) * 100 / old
}
