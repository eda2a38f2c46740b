// Command eiten estimates returns and risk for a stock universe, builds
// portfolios with several strategies and evaluates them against historical,
// withheld and simulated prices.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/aristath/eiten/internal/config"
	"github.com/aristath/eiten/internal/database"
	"github.com/aristath/eiten/internal/modules/charts"
	"github.com/aristath/eiten/internal/modules/evaluation"
	"github.com/aristath/eiten/internal/modules/marketdata"
	"github.com/aristath/eiten/internal/modules/orchestrator"
	"github.com/aristath/eiten/internal/modules/results"
	"github.com/aristath/eiten/internal/modules/returns"
	"github.com/aristath/eiten/internal/modules/risk"
	"github.com/aristath/eiten/internal/modules/simulation"
	"github.com/aristath/eiten/internal/modules/strategies"
	"github.com/aristath/eiten/pkg/logger"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "eiten",
		Usage: "portfolio estimation and multi-strategy evaluation",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "symbols", Usage: "comma-separated stock symbols"},
			&cli.StringFlag{Name: "stocks-file", Usage: "file with one symbol per line (# comments allowed)"},
			&cli.StringFlag{Name: "market-index", Usage: "benchmark symbol"},
			&cli.IntFlag{Name: "granularity", Usage: "bar size in minutes (3600 = daily)"},
			&cli.StringFlag{Name: "history", Usage: "trailing bars for estimation, or \"all\""},
			&cli.IntFlag{Name: "future-bars", Usage: "bars withheld for future testing"},
			&cli.BoolFlag{Name: "test-mode", Usage: "withhold recent bars and run the future-test phase"},
			&cli.BoolFlag{Name: "long-only", Usage: "restrict weights to [0,1]"},
			&cli.BoolFlag{Name: "noise-filtering", Usage: "apply random-matrix noise filtering to the covariance"},
			&cli.IntFlag{Name: "eigen-portfolio-number", Usage: "which eigen portfolio to build (1 = largest eigenvalue)"},
			&cli.IntFlag{Name: "simulation-paths", Usage: "number of Monte Carlo paths"},
			&cli.BoolFlag{Name: "refresh-cache", Usage: "ignore cached prices and re-fetch"},
			&cli.BoolFlag{Name: "save-charts", Usage: "write PNG charts"},
			&cli.StringFlag{Name: "charts-dir", Usage: "chart output directory"},
			&cli.StringFlag{Name: "log-level", Usage: "log level (trace, debug, info, warn, error)"},
		},
		Action: runAction,
		Commands: []*cli.Command{
			{
				Name:   "runs",
				Usage:  "list stored run IDs",
				Action: listRunsAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig builds the run configuration from the environment, applying any
// command line overrides on top.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if c.IsSet("symbols") {
		cfg.Symbols = nil
		for _, s := range strings.Split(c.String("symbols"), ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.Symbols = append(cfg.Symbols, s)
			}
		}
	}
	if c.IsSet("stocks-file") {
		cfg.StocksFile = c.String("stocks-file")
		if !c.IsSet("symbols") {
			cfg.Symbols = nil
		}
	}
	if c.IsSet("market-index") {
		cfg.MarketIndex = c.String("market-index")
	}
	if c.IsSet("granularity") {
		cfg.GranularityMinutes = c.Int("granularity")
	}
	if c.IsSet("history") {
		bars, err := config.ParseHistory(c.String("history"))
		if err != nil {
			return nil, err
		}
		cfg.HistoryBars = bars
	}
	if c.IsSet("future-bars") {
		cfg.FutureBars = c.Int("future-bars")
	}
	if c.IsSet("test-mode") {
		cfg.TestMode = c.Bool("test-mode")
	}
	if c.IsSet("long-only") {
		cfg.LongOnly = c.Bool("long-only")
	}
	if c.IsSet("noise-filtering") {
		cfg.ApplyNoiseFiltering = c.Bool("noise-filtering")
	}
	if c.IsSet("eigen-portfolio-number") {
		cfg.EigenPortfolioNumber = c.Int("eigen-portfolio-number")
	}
	if c.IsSet("simulation-paths") {
		cfg.SimulationPaths = c.Int("simulation-paths")
	}
	if c.IsSet("refresh-cache") {
		cfg.RefreshCache = c.Bool("refresh-cache")
	}
	if c.IsSet("save-charts") {
		cfg.SaveCharts = c.Bool("save-charts")
	}
	if c.IsSet("charts-dir") {
		cfg.ChartsDir = c.String("charts-dir")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	if err := cfg.ResolveSymbols(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	pricesDB, err := database.New(database.Config{
		Path:    cfg.PriceDBPath(),
		Profile: database.ProfileCache,
		Name:    "prices",
	})
	if err != nil {
		return err
	}
	defer pricesDB.Close()

	resultsDB, err := database.New(database.Config{
		Path:    cfg.ResultsDBPath(),
		Profile: database.ProfileStandard,
		Name:    "results",
	})
	if err != nil {
		return err
	}
	defer resultsDB.Close()

	priceRepo, err := marketdata.NewRepository(pricesDB)
	if err != nil {
		return err
	}
	resultsRepo, err := results.NewRepository(resultsDB)
	if err != nil {
		return err
	}

	provider := marketdata.NewProvider(
		marketdata.NewYahooClient(log),
		priceRepo,
		marketdata.Config{
			MarketIndex:        cfg.MarketIndex,
			GranularityMinutes: cfg.GranularityMinutes,
			HistoryBars:        cfg.HistoryBars,
			FutureBars:         cfg.FutureBars,
			TestMode:           cfg.TestMode,
			RefreshCache:       cfg.RefreshCache,
		},
		log,
	)

	dataset, err := provider.Collect(context.Background(), cfg.Symbols)
	if err != nil {
		return fmt.Errorf("data collection failed: %w", err)
	}

	estimates, err := returns.NewEstimator(log).Estimate(dataset.AssetSeries())
	if err != nil {
		return fmt.Errorf("return estimation failed: %w", err)
	}

	var filter risk.NoiseFilter
	if cfg.ApplyNoiseFiltering {
		filter = strategies.NewMarchenkoPasturFilter(len(estimates.LogReturns[0]))
	}
	covariance, err := risk.NewBuilder(log).Build(estimates.LogReturns, filter)
	if err != nil {
		return fmt.Errorf("risk estimation failed: %w", err)
	}

	inputs := strategies.Inputs{
		Symbols:         estimates.Symbols,
		Covariance:      covariance,
		ExpectedReturns: estimates.ExpectedReturns,
		PctReturns:      estimates.PctReturns,
		LongOnly:        cfg.LongOnly,
	}

	strats := []strategies.Strategy{
		strategies.NewEigenPortfolio(cfg.EigenPortfolioNumber),
		strategies.NewMinimumVariance(),
		strategies.NewMaximumSharpe(),
		strategies.NewGeneticSearch(cfg.GASeed, log),
	}

	weights := orchestrator.New(log).Run(inputs, strats)
	printWeights(weights)

	runID := uuid.NewString()
	pipeline := evaluation.New(
		dataset,
		simulation.NewMonteCarlo(cfg.SimulationPaths, log),
		evaluation.Config{
			TestMode:          cfg.TestMode,
			SimulationHorizon: cfg.FutureBars,
		},
		log,
	)

	evalResults := pipeline.Evaluate(runID, weights)
	printResults(evalResults)

	if err := resultsRepo.Save(evalResults); err != nil {
		return fmt.Errorf("failed to persist results: %w", err)
	}
	log.Info().Str("run_id", runID).Msg("Run results saved")

	if cfg.SaveCharts {
		chartService := charts.NewService(cfg.ChartsDir, log)
		paths, err := chartService.RenderAll(runID, estimates.Symbols, weights, evalResults)
		if err != nil {
			return fmt.Errorf("failed to render charts: %w", err)
		}
		for _, path := range paths {
			fmt.Println("Chart:", path)
		}
	}

	return nil
}

func listRunsAction(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	resultsDB, err := database.New(database.Config{
		Path:    cfg.ResultsDBPath(),
		Profile: database.ProfileStandard,
		Name:    "results",
	})
	if err != nil {
		return err
	}
	defer resultsDB.Close()

	repo, err := results.NewRepository(resultsDB)
	if err != nil {
		return err
	}

	runs, err := repo.ListRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		log.Info().Msg("No stored runs")
		return nil
	}
	for _, runID := range runs {
		fmt.Println(runID)
	}
	return nil
}

func printWeights(weights []orchestrator.StrategyWeights) {
	for _, sw := range weights {
		fmt.Printf("\n%s\n", sw.Strategy)
		if sw.Err != nil {
			fmt.Printf("  failed: %v\n", sw.Err)
			continue
		}
		symbols := make([]string, 0, len(sw.Weights))
		for symbol := range sw.Weights {
			symbols = append(symbols, symbol)
		}
		sort.Strings(symbols)
		for _, symbol := range symbols {
			fmt.Printf("  %-8s %8.4f\n", symbol, sw.Weights[symbol])
		}
	}
}

func printResults(evalResults []evaluation.Result) {
	fmt.Printf("\n%-36s %-12s %-10s %10s %10s %10s\n",
		"Strategy", "Phase", "Status", "Final", "Sharpe", "MaxDD")
	for _, r := range evalResults {
		if r.Status != evaluation.StatusCompleted {
			fmt.Printf("%-36s %-12s %-10s %s\n", r.Strategy, r.Phase, r.Status, r.Error)
			continue
		}
		fmt.Printf("%-36s %-12s %-10s %10.4f %10.4f %10.4f\n",
			r.Strategy, r.Phase, r.Status,
			r.Summary.FinalValue, r.Summary.SharpeRatio, r.Summary.MaxDrawdown)
	}
}
