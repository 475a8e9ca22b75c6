package moexiss

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:         baseURL,
		RateLimitRPS:    1000,
		TimeoutSeconds:  5,
		MaxLookbackDays: 3650,
		DefaultBoard:    "TQBR",
		EnableCache:     true,
		CacheTTLSeconds: 60,
		CacheMaxSize:    100,
	}
}

func candlesFixture() map[string]interface{} {
	return map[string]interface{}{
		"candles": map[string]interface{}{
			"columns": []string{"OPEN", "CLOSE", "HIGH", "LOW", "VALUE", "VOLUME", "BEGIN", "END"},
			"data": [][]interface{}{
				{100.0, 110.0, 111.0, 99.0, 1000.0, 10.0, "2026-01-01 00:00:00", "2026-01-01 23:59:59"},
				{110.0, 121.0, 122.0, 109.0, 1100.0, 11.0, "2026-01-02 00:00:00", "2026-01-02 23:59:59"},
			},
		},
	}
}

func TestGetOhlcvSeries(t *testing.T) {
	t.Run("decodes candles into ordered bars", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(candlesFixture())
		}))
		defer srv.Close()

		client := NewClient(testConfig(srv.URL), zerolog.Nop())
		bars, err := client.GetOhlcvSeries(context.Background(), "SBER", "TQBR", "2026-01-01", "2026-01-02", "1d")
		require.NoError(t, err)
		require.Len(t, bars, 2)
		assert.InDelta(t, 110.0, bars[0].Close, 1e-9)
		assert.InDelta(t, 121.0, bars[1].Close, 1e-9)
	})

	t.Run("empty table is an invalid ticker", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"candles": map[string]interface{}{"columns": []string{"OPEN"}, "data": [][]interface{}{}},
			})
		}))
		defer srv.Close()

		client := NewClient(testConfig(srv.URL), zerolog.Nop())
		_, err := client.GetOhlcvSeries(context.Background(), "NOPE", "TQBR", "2026-01-01", "2026-01-02", "1d")
		require.Error(t, err)
		var invalidTicker *InvalidTickerError
		assert.ErrorAs(t, err, &invalidTicker)
	})

	t.Run("date range exceeding max lookback is rejected before any request", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			_ = json.NewEncoder(w).Encode(candlesFixture())
		}))
		defer srv.Close()

		cfg := testConfig(srv.URL)
		cfg.MaxLookbackDays = 10
		client := NewClient(cfg, zerolog.Nop())
		_, err := client.GetOhlcvSeries(context.Background(), "SBER", "TQBR", "2020-01-01", "2026-01-01", "1d")
		require.Error(t, err)
		var dateRange *DateRangeTooLargeError
		assert.ErrorAs(t, err, &dateRange)
		assert.Equal(t, 0, calls)
	})

	t.Run("second call within TTL is served from cache", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			_ = json.NewEncoder(w).Encode(candlesFixture())
		}))
		defer srv.Close()

		client := NewClient(testConfig(srv.URL), zerolog.Nop())
		_, err := client.GetOhlcvSeries(context.Background(), "SBER", "TQBR", "2026-01-01", "2026-01-02", "1d")
		require.NoError(t, err)
		_, err = client.GetOhlcvSeries(context.Background(), "SBER", "TQBR", "2026-01-01", "2026-01-02", "1d")
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestGetOhlcvSeriesRetriesOn5xxThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(candlesFixture())
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), zerolog.Nop())
	bars, err := client.GetOhlcvSeries(context.Background(), "SBER", "TQBR", "2026-01-01", "2026-01-02", "1d")
	require.NoError(t, err)
	assert.Len(t, bars, 2)
	assert.Equal(t, 2, attempts)
}

func TestGetOhlcvSeriesExhausts5xxRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), zerolog.Nop())
	_, err := client.GetOhlcvSeries(context.Background(), "SBER", "TQBR", "2026-01-01", "2026-01-02", "1d")
	require.Error(t, err)
	var serverErr *IssServerError
	assert.ErrorAs(t, err, &serverErr)
}

func TestCacheStatsReflectsEnableCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(candlesFixture())
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.EnableCache = false
	client := NewClient(cfg, zerolog.Nop())
	size, enabled := client.CacheStats()
	assert.False(t, enabled)
	assert.Equal(t, 0, size)

	_, err := client.GetOhlcvSeries(context.Background(), "SBER", "TQBR", "2026-01-01", "2026-01-02", "1d")
	require.NoError(t, err)
	size, enabled = client.CacheStats()
	assert.False(t, enabled)
	assert.Equal(t, 0, size)
}

func TestPurgeExpiredCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(candlesFixture())
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.CacheTTLSeconds = 0
	client := NewClient(cfg, zerolog.Nop())
	_, err := client.GetOhlcvSeries(context.Background(), "SBER", "TQBR", "2026-01-01", "2026-01-02", "1d")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	purged := client.PurgeExpiredCache()
	assert.Equal(t, 1, purged)
}
