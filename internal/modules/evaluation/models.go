// Package evaluation runs the backtest, future-test and simulation phases
// uniformly across every strategy's weights.
package evaluation

// Phase identifies one evaluation phase.
type Phase string

const (
	PhaseBacktest   Phase = "backtest"
	PhaseFutureTest Phase = "future_test"
	PhaseSimulation Phase = "simulation"
)

// Status tracks the lifecycle of one (strategy, phase) evaluation:
// pending → running → completed | failed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Summary holds the aggregate statistics of one evaluated value series.
// FinalValueP5/P95 are populated for the simulation phase only, where the
// outcome is a distribution rather than a single path.
type Summary struct {
	FinalValue           float64 `msgpack:"final_value"`
	TotalReturn          float64 `msgpack:"total_return"`
	AnnualizedVolatility float64 `msgpack:"annualized_volatility"`
	SharpeRatio          float64 `msgpack:"sharpe_ratio"`
	MaxDrawdown          float64 `msgpack:"max_drawdown"`
	FinalValueP5         float64 `msgpack:"final_value_p5,omitempty"`
	FinalValueP95        float64 `msgpack:"final_value_p95,omitempty"`
}

// Result is the immutable outcome of one (strategy, phase) evaluation.
// Values is the portfolio value series (normalized to 1.0 at step 0);
// Market is the equally normalized benchmark series when available; Paths
// holds the sampled portfolio trajectories for the simulation phase.
type Result struct {
	RunID    string      `msgpack:"run_id"`
	Strategy string      `msgpack:"strategy"`
	Phase    Phase       `msgpack:"phase"`
	Status   Status      `msgpack:"status"`
	Values   []float64   `msgpack:"values,omitempty"`
	Market   []float64   `msgpack:"market,omitempty"`
	Paths    [][]float64 `msgpack:"paths,omitempty"`
	Summary  Summary     `msgpack:"summary"`
	Error    string      `msgpack:"error,omitempty"`
}
