// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// supportedGranularities are the bar sizes (in minutes) the data layer can
// fetch; 3600 is the conventional value for daily bars.
var supportedGranularities = map[int]bool{
	1:    true,
	5:    true,
	10:   true,
	15:   true,
	30:   true,
	60:   true,
	3600: true,
}

// Config holds application configuration
type Config struct {
	// Universe. Symbols may be given directly or resolved from StocksFile
	// (one symbol per line) when none are set.
	Symbols     []string
	StocksFile  string
	MarketIndex string

	// Data window. HistoryBars is the trailing estimation window in bars;
	// 0 means all available history.
	GranularityMinutes int
	HistoryBars        int
	FutureBars         int
	TestMode           bool
	RefreshCache       bool

	// Estimation and strategies
	ApplyNoiseFiltering  bool
	LongOnly             bool
	EigenPortfolioNumber int
	SimulationPaths      int
	GASeed               int64

	// Output
	DataDir    string
	ChartsDir  string
	SaveCharts bool

	// Logging
	LogLevel  string
	LogPretty bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("EITEN_DATA_DIR", "data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	historyBars, err := ParseHistory(getEnv("EITEN_HISTORY_TO_USE", "all"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Symbols:     splitSymbols(getEnv("EITEN_SYMBOLS", "")),
		StocksFile:  getEnv("EITEN_STOCKS_FILE", ""),
		MarketIndex: getEnv("EITEN_MARKET_INDEX", "QQQ"),

		GranularityMinutes: getEnvAsInt("EITEN_GRANULARITY_MINUTES", 3600),
		HistoryBars:        historyBars,
		FutureBars:         getEnvAsInt("EITEN_FUTURE_BARS", 30),
		TestMode:           getEnvAsBool("EITEN_TEST_MODE", true),
		RefreshCache:       getEnvAsBool("EITEN_REFRESH_CACHE", false),

		ApplyNoiseFiltering:  getEnvAsBool("EITEN_APPLY_NOISE_FILTERING", true),
		LongOnly:             getEnvAsBool("EITEN_LONG_ONLY", true),
		EigenPortfolioNumber: getEnvAsInt("EITEN_EIGEN_PORTFOLIO_NUMBER", 3),
		SimulationPaths:      getEnvAsInt("EITEN_SIMULATION_PATHS", 100),
		GASeed:               int64(getEnvAsInt("EITEN_GA_SEED", 42)),

		DataDir:    absDataDir,
		ChartsDir:  getEnv("EITEN_CHARTS_DIR", "output"),
		SaveCharts: getEnvAsBool("EITEN_SAVE_CHARTS", true),

		LogLevel:  getEnv("EITEN_LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("EITEN_LOG_PRETTY", true),
	}

	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("no symbols configured")
	}
	if !supportedGranularities[c.GranularityMinutes] {
		return fmt.Errorf("unsupported granularity %d minutes", c.GranularityMinutes)
	}
	if c.HistoryBars != 0 && c.HistoryBars < 2 {
		return fmt.Errorf("history window must be at least 2 bars, got %d", c.HistoryBars)
	}
	if c.FutureBars < 1 {
		return fmt.Errorf("future bars must be at least 1, got %d", c.FutureBars)
	}
	if c.TestMode && c.FutureBars < 2 {
		return fmt.Errorf("test mode needs at least 2 future bars, got %d", c.FutureBars)
	}
	if c.HistoryBars != 0 && c.HistoryBars <= c.FutureBars {
		return fmt.Errorf("history window (%d bars) must exceed future bars (%d)", c.HistoryBars, c.FutureBars)
	}
	if c.EigenPortfolioNumber < 1 || c.EigenPortfolioNumber > len(c.Symbols) {
		return fmt.Errorf("eigen portfolio number %d out of range [1, %d]", c.EigenPortfolioNumber, len(c.Symbols))
	}
	if c.SimulationPaths < 1 {
		return fmt.Errorf("simulation paths must be at least 1, got %d", c.SimulationPaths)
	}
	return nil
}

// PriceDBPath returns the price cache database path.
func (c *Config) PriceDBPath() string {
	return filepath.Join(c.DataDir, "prices.db")
}

// ResultsDBPath returns the run results database path.
func (c *Config) ResultsDBPath() string {
	return filepath.Join(c.DataDir, "results.db")
}

// ParseHistory converts the history selector into a bar count. The literal
// "all" selects the full cached history and maps to 0.
func ParseHistory(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "all") {
		return 0, nil
	}
	bars, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("history must be a bar count or \"all\", got %q", raw)
	}
	return bars, nil
}

// ResolveSymbols fills Symbols from StocksFile when none were configured
// directly. The file lists one symbol per line; blank lines and lines
// starting with # are skipped.
func (c *Config) ResolveSymbols() error {
	if len(c.Symbols) > 0 || c.StocksFile == "" {
		return nil
	}
	raw, err := os.ReadFile(c.StocksFile)
	if err != nil {
		return fmt.Errorf("failed to read stocks file: %w", err)
	}
	for _, line := range strings.Split(string(raw), "\n") {
		s := strings.TrimSpace(line)
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		c.Symbols = append(c.Symbols, s)
	}
	return nil
}

func splitSymbols(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
