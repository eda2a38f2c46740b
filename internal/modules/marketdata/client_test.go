package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoricalCloses_ParsesChartResponse(t *testing.T) {
	var gotPath, gotInterval, gotRange string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInterval = r.URL.Query().Get("interval")
		gotRange = r.URL.Query().Get("range")
		w.Header().Set("Content-Type", "application/json")
		// Null closes decode as 0 and must be dropped.
		_, _ = w.Write([]byte(`{
			"chart": {
				"result": [{
					"timestamp": [1, 2, 3, 4],
					"indicators": {
						"quote": [{"close": [100.5, null, 101.25, 102.0]}]
					}
				}],
				"error": null
			}
		}`))
	}))
	defer server.Close()

	client := NewYahooClientWithBaseURL(server.URL+"/", zerolog.Nop())

	closes, err := client.HistoricalCloses(context.Background(), "AAPL", 3600)
	require.NoError(t, err)

	assert.Equal(t, []float64{100.5, 101.25, 102.0}, closes)
	assert.Equal(t, "/AAPL", gotPath)
	assert.Equal(t, "1d", gotInterval)
	assert.Equal(t, "2y", gotRange)
}

func TestHistoricalCloses_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chart": {"result": [], "error": {"code": "Not Found"}}}`))
	}))
	defer server.Close()

	client := NewYahooClientWithBaseURL(server.URL+"/", zerolog.Nop())

	_, err := client.HistoricalCloses(context.Background(), "NOPE", 3600)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Yahoo Finance API error")
}

func TestHistoricalCloses_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewYahooClientWithBaseURL(server.URL+"/", zerolog.Nop())

	_, err := client.HistoricalCloses(context.Background(), "AAPL", 3600)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestHistoricalCloses_UnsupportedGranularity(t *testing.T) {
	client := NewYahooClient(zerolog.Nop())

	_, err := client.HistoricalCloses(context.Background(), "AAPL", 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported bar granularity")
}

func TestIntervalFor_Mapping(t *testing.T) {
	cases := map[int]string{
		1:    "1m",
		5:    "5m",
		10:   "15m",
		15:   "15m",
		30:   "30m",
		60:   "60m",
		3600: "1d",
	}
	for granularity, want := range cases {
		interval, _, err := intervalFor(granularity)
		require.NoError(t, err)
		assert.Equal(t, want, interval)
	}
}
