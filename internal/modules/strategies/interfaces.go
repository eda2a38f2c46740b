// Package strategies implements the portfolio weight-construction strategies
// and the covariance noise filter consumed by the orchestrator and risk
// modules.
package strategies

// Inputs carries the read-only estimates a strategy may consume. The
// orchestrator hands every strategy its own deep copy, so implementations
// are free to scratch on the slices.
//
// Covariance rows/columns, ExpectedReturns entries and PctReturns rows are
// all aligned to Symbols.
type Inputs struct {
	Symbols         []string
	Covariance      [][]float64
	ExpectedReturns []float64
	PctReturns      [][]float64
	LongOnly        bool
}

// Strategy is the single capability every weight-construction variant
// implements. ComputeWeights must return a mapping covering exactly the
// input symbol set; the orchestrator validates that postcondition.
type Strategy interface {
	Name() string
	ComputeWeights(in Inputs) (map[string]float64, error)
}
