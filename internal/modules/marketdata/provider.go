package marketdata

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aristath/eiten/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Config holds the data collection parameters for one run.
type Config struct {
	// MarketIndex is the benchmark symbol (e.g. SPY). Optional.
	MarketIndex string

	// GranularityMinutes is the bar size; 3600 means daily bars.
	GranularityMinutes int

	// HistoryBars is the number of trailing bars used for estimation.
	// 0 selects all available history, aligned to the shortest series.
	HistoryBars int

	// FutureBars is the number of most recent bars withheld from estimation
	// for the future-test phase. Only meaningful in test mode.
	FutureBars int

	// TestMode withholds the last FutureBars closes from the historical
	// window instead of estimating on the full series.
	TestMode bool

	// RefreshCache forces a re-fetch even when cached prices exist.
	RefreshCache bool
}

// DataSet is the aligned, immutable price universe for one run. It serves
// both the estimators (via AssetSeries) and the evaluation pipeline (via the
// Historical/Future accessors).
type DataSet struct {
	symbols    []string
	historical map[string][]float64
	future     map[string][]float64
	marketHist []float64
	marketFut  []float64
}

// Symbols returns the universe in sorted order.
func (d *DataSet) Symbols() []string {
	out := make([]string, len(d.symbols))
	copy(out, d.symbols)
	return out
}

// AssetSeries returns the historical closes as estimator input, sorted by
// symbol.
func (d *DataSet) AssetSeries() []domain.AssetSeries {
	series := make([]domain.AssetSeries, 0, len(d.symbols))
	for _, symbol := range d.symbols {
		series = append(series, domain.AssetSeries{
			Symbol: symbol,
			Closes: domain.CopyVector(d.historical[symbol]),
		})
	}
	return series
}

// Historical returns the estimation-window closes for a symbol.
func (d *DataSet) Historical(symbol string) ([]float64, bool) {
	closes, ok := d.historical[symbol]
	return closes, ok
}

// Future returns the withheld closes for a symbol. Empty outside test mode.
func (d *DataSet) Future(symbol string) ([]float64, bool) {
	closes, ok := d.future[symbol]
	return closes, ok
}

// MarketHistorical returns the benchmark closes over the estimation window,
// or nil when no benchmark was configured.
func (d *DataSet) MarketHistorical() []float64 {
	return d.marketHist
}

// MarketFuture returns the benchmark closes over the withheld window.
func (d *DataSet) MarketFuture() []float64 {
	return d.marketFut
}

// Provider collects, caches and aligns closing prices for a symbol universe.
type Provider struct {
	client QuoteClient
	repo   *Repository
	cfg    Config
	log    zerolog.Logger
}

// NewProvider creates a market data provider. repo may be nil to disable the
// price cache.
func NewProvider(client QuoteClient, repo *Repository, cfg Config, log zerolog.Logger) *Provider {
	return &Provider{
		client: client,
		repo:   repo,
		cfg:    cfg,
		log:    log.With().Str("component", "marketdata").Logger(),
	}
}

// Collect fetches closes for every symbol (and the benchmark) concurrently,
// truncates each series to the run window, verifies alignment and applies
// the test-mode historical/future split.
func (p *Provider) Collect(ctx context.Context, symbols []string) (*DataSet, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: no symbols to collect", domain.ErrDataIntegrity)
	}

	universe := dedupeSorted(symbols)

	var mu sync.Mutex
	fetched := make(map[string][]float64, len(universe)+1)

	g, gctx := errgroup.WithContext(ctx)
	for _, symbol := range universe {
		symbol := symbol
		g.Go(func() error {
			closes, err := p.fetchCloses(gctx, symbol)
			if err != nil {
				return err
			}
			mu.Lock()
			fetched[symbol] = closes
			mu.Unlock()
			return nil
		})
	}

	var marketCloses []float64
	if p.cfg.MarketIndex != "" {
		g.Go(func() error {
			closes, err := p.fetchCloses(gctx, p.cfg.MarketIndex)
			if err != nil {
				return err
			}
			mu.Lock()
			marketCloses = closes
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	windowBars := p.cfg.HistoryBars
	if windowBars > 0 && p.cfg.TestMode {
		windowBars += p.cfg.FutureBars
	}
	if windowBars == 0 {
		// Full history: align every series to the shortest one fetched.
		for _, symbol := range universe {
			if n := len(fetched[symbol]); windowBars == 0 || n < windowBars {
				windowBars = n
			}
		}
	}

	// All assets must cover the same window; a short series means the
	// matrices downstream would silently misalign.
	for _, symbol := range universe {
		closes := fetched[symbol]
		if len(closes) < windowBars {
			return nil, fmt.Errorf("%w: %s has %d bars, run window needs %d",
				domain.ErrDataIntegrity, symbol, len(closes), windowBars)
		}
		fetched[symbol] = tail(closes, windowBars)
	}

	ds := &DataSet{
		symbols:    universe,
		historical: make(map[string][]float64, len(universe)),
		future:     make(map[string][]float64, len(universe)),
	}

	for _, symbol := range universe {
		closes := fetched[symbol]
		if p.cfg.TestMode {
			split := len(closes) - p.cfg.FutureBars
			if split < 2 {
				return nil, fmt.Errorf("%w: %s keeps only %d bars for estimation after withholding %d",
					domain.ErrInsufficientHistory, symbol, split, p.cfg.FutureBars)
			}
			ds.historical[symbol] = closes[:split]
			ds.future[symbol] = closes[split:]
		} else {
			ds.historical[symbol] = closes
		}
	}

	if len(marketCloses) > 0 {
		if len(marketCloses) < windowBars {
			// A shorter benchmark cannot line up bar-for-bar with the
			// universe, so drop it rather than plot it misaligned.
			p.log.Warn().
				Str("symbol", p.cfg.MarketIndex).
				Int("bars", len(marketCloses)).
				Int("window_bars", windowBars).
				Msg("Benchmark history shorter than run window, dropping benchmark")
		} else {
			marketCloses = tail(marketCloses, windowBars)
			if p.cfg.TestMode {
				split := len(marketCloses) - p.cfg.FutureBars
				ds.marketHist = marketCloses[:split]
				ds.marketFut = marketCloses[split:]
			} else {
				ds.marketHist = marketCloses
			}
		}
	}

	p.log.Info().
		Int("num_symbols", len(universe)).
		Int("history_bars", len(ds.historical[universe[0]])).
		Bool("test_mode", p.cfg.TestMode).
		Msg("Collected price universe")

	return ds, nil
}

// fetchCloses returns the cached series when available, falling back to the
// quote client (and caching the result).
func (p *Provider) fetchCloses(ctx context.Context, symbol string) ([]float64, error) {
	if p.repo != nil && !p.cfg.RefreshCache {
		cached, err := p.repo.LoadCloses(symbol, p.cfg.GranularityMinutes)
		if err != nil {
			return nil, err
		}
		if len(cached) > 0 {
			p.log.Debug().Str("symbol", symbol).Int("count", len(cached)).Msg("Using cached closes")
			return cached, nil
		}
	}

	closes, err := p.client.HistoricalCloses(ctx, symbol, p.cfg.GranularityMinutes)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch closes for %s: %w", symbol, err)
	}
	if len(closes) == 0 {
		return nil, fmt.Errorf("%w: no price data for %s", domain.ErrDataIntegrity, symbol)
	}

	if p.repo != nil {
		if err := p.repo.SaveCloses(symbol, p.cfg.GranularityMinutes, closes); err != nil {
			p.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache closes")
		}
	}

	return closes, nil
}

func dedupeSorted(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func tail(closes []float64, n int) []float64 {
	if len(closes) <= n {
		return closes
	}
	return closes[len(closes)-n:]
}
