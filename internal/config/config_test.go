package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Symbols:              []string{"AAPL", "MSFT", "GOOG"},
		MarketIndex:          "QQQ",
		GranularityMinutes:   3600,
		HistoryBars:          250,
		FutureBars:           30,
		TestMode:             true,
		EigenPortfolioNumber: 2,
		SimulationPaths:      100,
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("EITEN_DATA_DIR", t.TempDir())
	t.Setenv("EITEN_SYMBOLS", "AAPL")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "QQQ", cfg.MarketIndex)
	assert.Equal(t, 3600, cfg.GranularityMinutes)
	assert.Equal(t, 0, cfg.HistoryBars)
	assert.Equal(t, 30, cfg.FutureBars)
	assert.True(t, cfg.TestMode)
	assert.True(t, cfg.ApplyNoiseFiltering)
	assert.True(t, cfg.LongOnly)
	assert.Equal(t, 100, cfg.SimulationPaths)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_ParsesSymbolList(t *testing.T) {
	t.Setenv("EITEN_DATA_DIR", t.TempDir())
	t.Setenv("EITEN_SYMBOLS", " AAPL, MSFT ,,GOOG ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG"}, cfg.Symbols)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EITEN_DATA_DIR", t.TempDir())
	t.Setenv("EITEN_SYMBOLS", "AAPL")
	t.Setenv("EITEN_GRANULARITY_MINUTES", "60")
	t.Setenv("EITEN_TEST_MODE", "false")
	t.Setenv("EITEN_GA_SEED", "1234")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.GranularityMinutes)
	assert.False(t, cfg.TestMode)
	assert.Equal(t, int64(1234), cfg.GASeed)
}

func TestValidate_AcceptsValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Rejections(t *testing.T) {
	cases := map[string]func(*Config){
		"no symbols":                  func(c *Config) { c.Symbols = nil },
		"unsupported granularity":     func(c *Config) { c.GranularityMinutes = 7 },
		"history too short":           func(c *Config) { c.HistoryBars = 1 },
		"future bars zero":            func(c *Config) { c.FutureBars = 0 },
		"one future bar in test mode": func(c *Config) { c.FutureBars = 1 },
		"history not above future bars": func(c *Config) {
			c.HistoryBars = 20
			c.FutureBars = 30
		},
		"eigen number zero":      func(c *Config) { c.EigenPortfolioNumber = 0 },
		"eigen number too large": func(c *Config) { c.EigenPortfolioNumber = 4 },
		"no simulation paths":    func(c *Config) { c.SimulationPaths = 0 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_AcceptsAllHistoryAndTenMinuteBars(t *testing.T) {
	cfg := validConfig()
	cfg.HistoryBars = 0
	cfg.GranularityMinutes = 10

	assert.NoError(t, cfg.Validate())
}

func TestParseHistory(t *testing.T) {
	bars, err := ParseHistory("all")
	require.NoError(t, err)
	assert.Equal(t, 0, bars)

	bars, err = ParseHistory(" 250 ")
	require.NoError(t, err)
	assert.Equal(t, 250, bars)

	_, err = ParseHistory("lots")
	assert.Error(t, err)
}

func TestResolveSymbols_ReadsStocksFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stocks.txt")
	content := "# tech universe\nAAPL\n\n  MSFT  \nGOOG\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := &Config{StocksFile: path}
	require.NoError(t, cfg.ResolveSymbols())
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG"}, cfg.Symbols)
}

func TestResolveSymbols_KeepsExplicitSymbols(t *testing.T) {
	cfg := &Config{Symbols: []string{"AAPL"}, StocksFile: "missing.txt"}
	require.NoError(t, cfg.ResolveSymbols())
	assert.Equal(t, []string{"AAPL"}, cfg.Symbols)
}

func TestResolveSymbols_MissingFile(t *testing.T) {
	cfg := &Config{StocksFile: filepath.Join(t.TempDir(), "absent.txt")}
	assert.Error(t, cfg.ResolveSymbols())
}

func TestDatabasePaths(t *testing.T) {
	cfg := validConfig()
	cfg.DataDir = filepath.Join("/tmp", "eiten-test")

	assert.Equal(t, filepath.Join(cfg.DataDir, "prices.db"), cfg.PriceDBPath())
	assert.Equal(t, filepath.Join(cfg.DataDir, "results.db"), cfg.ResultsDBPath())
}
