// Package charts renders run results as PNG images: one weight allocation
// chart per run plus one value curve chart per evaluation phase.
package charts

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aristath/eiten/internal/modules/evaluation"
	"github.com/aristath/eiten/internal/modules/orchestrator"
	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
	"github.com/vicanso/go-charts/v2"
)

// smaPeriod is the smoothing window for the benchmark overlay.
const smaPeriod = 10

// Service renders portfolio charts into an output directory.
type Service struct {
	outputDir string
	log       zerolog.Logger
}

// NewService creates a chart service writing PNGs under outputDir.
func NewService(outputDir string, log zerolog.Logger) *Service {
	return &Service{
		outputDir: outputDir,
		log:       log.With().Str("component", "charts").Logger(),
	}
}

// RenderAll renders the weight chart and one chart per phase present in the
// results. Returns the paths of the written files.
func (s *Service) RenderAll(runID string, symbols []string, weights []orchestrator.StrategyWeights, results []evaluation.Result) ([]string, error) {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}

	var paths []string

	path, err := s.renderWeights(runID, symbols, weights)
	if err != nil {
		return nil, err
	}
	if path != "" {
		paths = append(paths, path)
	}

	for _, phase := range []evaluation.Phase{evaluation.PhaseBacktest, evaluation.PhaseFutureTest, evaluation.PhaseSimulation} {
		path, err := s.renderPhase(runID, phase, results)
		if err != nil {
			return nil, err
		}
		if path != "" {
			paths = append(paths, path)
		}
	}

	return paths, nil
}

// renderWeights draws one bar series per successful strategy over the symbol
// universe.
func (s *Service) renderWeights(runID string, symbols []string, weights []orchestrator.StrategyWeights) (string, error) {
	var series [][]float64
	var names []string
	for _, sw := range weights {
		if sw.Err != nil {
			continue
		}
		row := make([]float64, len(symbols))
		for i, symbol := range symbols {
			row[i] = sw.Weights[symbol]
		}
		series = append(series, row)
		names = append(names, sw.Strategy)
	}
	if len(series) == 0 {
		return "", nil
	}

	painter, err := charts.BarRender(
		series,
		charts.TitleTextOptionFunc("Portfolio Weights"),
		charts.XAxisDataOptionFunc(symbols),
		charts.LegendLabelsOptionFunc(names),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.PNGTypeOption(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to render weights chart: %w", err)
	}

	return s.write(runID, "weights", painter)
}

// renderPhase draws the portfolio value curves of every completed strategy
// for one phase, plus the benchmark and its smoothed overlay when available.
func (s *Service) renderPhase(runID string, phase evaluation.Phase, results []evaluation.Result) (string, error) {
	var series [][]float64
	var names []string
	var market []float64

	for _, result := range results {
		if result.Phase != phase || result.Status != evaluation.StatusCompleted {
			continue
		}
		series = append(series, result.Values)
		names = append(names, result.Strategy)
		if market == nil && len(result.Market) > 0 {
			market = result.Market
		}
	}
	if len(series) == 0 {
		return "", nil
	}

	if len(market) > 0 {
		series = append(series, market)
		names = append(names, "Market")
		if len(market) >= smaPeriod {
			series = append(series, talib.Sma(market, smaPeriod))
			names = append(names, fmt.Sprintf("Market SMA(%d)", smaPeriod))
		}
	}

	xLabels := make([]string, len(series[0]))
	for i := range xLabels {
		xLabels[i] = strconv.Itoa(i)
	}

	painter, err := charts.LineRender(
		series,
		charts.TitleTextOptionFunc(chartTitle(phase)),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.LegendLabelsOptionFunc(names),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.PNGTypeOption(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to render %s chart: %w", phase, err)
	}

	return s.write(runID, string(phase), painter)
}

func (s *Service) write(runID, name string, painter *charts.Painter) (string, error) {
	buf, err := painter.Bytes()
	if err != nil {
		return "", fmt.Errorf("failed to generate %s chart bytes: %w", name, err)
	}

	path := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.png", runID, name))
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s chart: %w", name, err)
	}

	s.log.Info().Str("path", path).Msg("Wrote chart")
	return path, nil
}

func chartTitle(phase evaluation.Phase) string {
	switch phase {
	case evaluation.PhaseBacktest:
		return "Backtest Portfolio Value"
	case evaluation.PhaseFutureTest:
		return "Future Test Portfolio Value"
	case evaluation.PhaseSimulation:
		return "Simulated Portfolio Value (mean path)"
	default:
		return string(phase)
	}
}
