// Package marketdata fetches, caches and aligns the closing-price series
// every estimation run is built on.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// QuoteClient fetches historical closing prices for one symbol at the given
// bar granularity (in minutes, 3600 meaning daily bars).
type QuoteClient interface {
	HistoricalCloses(ctx context.Context, symbol string, granularityMinutes int) ([]float64, error)
}

// YahooClient is a Yahoo Finance chart API client.
type YahooClient struct {
	client  *http.Client
	baseURL string
	log     zerolog.Logger
}

// NewYahooClient creates a new Yahoo Finance client.
func NewYahooClient(log zerolog.Logger) *YahooClient {
	return &YahooClient{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: "https://query1.finance.yahoo.com/v8/finance/chart/",
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

// NewYahooClientWithBaseURL creates a client against a custom endpoint.
// Used by tests to point at a local server.
func NewYahooClientWithBaseURL(baseURL string, log zerolog.Logger) *YahooClient {
	c := NewYahooClient(log)
	c.baseURL = baseURL
	return c
}

// intervalFor maps a bar granularity in minutes to a Yahoo chart interval.
// 3600 is the conventional value for daily bars.
func intervalFor(granularityMinutes int) (interval, dataRange string, err error) {
	switch granularityMinutes {
	case 1:
		return "1m", "7d", nil
	case 5:
		return "5m", "1mo", nil
	case 10:
		// Yahoo has no native 10m interval; 15m is the closest coverage.
		return "15m", "1mo", nil
	case 15:
		return "15m", "1mo", nil
	case 30:
		return "30m", "1mo", nil
	case 60:
		return "60m", "2y", nil
	case 3600:
		return "1d", "2y", nil
	default:
		return "", "", fmt.Errorf("unsupported bar granularity %d minutes", granularityMinutes)
	}
}

// HistoricalCloses fetches the closing price series for one symbol via the
// Yahoo chart API. Bars with null closes are skipped.
func (c *YahooClient) HistoricalCloses(ctx context.Context, symbol string, granularityMinutes int) ([]float64, error) {
	interval, dataRange, err := intervalFor(granularityMinutes)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Add("interval", interval)
	params.Add("range", dataRange)

	reqURL := c.baseURL + url.QueryEscape(symbol) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers to mimic browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch historical data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Yahoo Finance API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result struct {
		Chart struct {
			Result []struct {
				Timestamp  []int64 `json:"timestamp"`
				Indicators struct {
					Quote []struct {
						Close []float64 `json:"close"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"result"`
			Error interface{} `json:"error"`
		} `json:"chart"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("Yahoo Finance API error: %v", result.Chart.Error)
	}

	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No historical data returned")
		return nil, nil
	}

	raw := result.Chart.Result[0].Indicators.Quote[0].Close

	// Yahoo returns null (decoded as 0) for halted or missing bars.
	closes := make([]float64, 0, len(raw))
	for _, close := range raw {
		if close > 0 {
			closes = append(closes, close)
		}
	}

	c.log.Info().
		Str("symbol", symbol).
		Str("interval", interval).
		Int("count", len(closes)).
		Msg("Fetched historical closes")

	return closes, nil
}
