// Package config loads the risk-analytics service configuration from
// environment variables (and an optional .env file).
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every configuration knob enumerated in the service's
// external-interface contract.
type Config struct {
	Port int // HTTP server port
	LogLevel string
	DevMode  bool

	IssBaseURL      string
	IssRateLimitRPS float64
	IssTimeoutSec   int
	IssMaxLookback  int
	IssDefaultBoard string

	EnableCache    bool
	CacheTTLSec    int
	CacheMaxSize   int

	MaxPortfolioTickers   int
	MaxCorrelationTickers int
	MaxPeers              int
	MaxLookbackDays       int
	DefaultIndexTicker    string

	FundamentalsCacheTTLSec int
}

// Load reads configuration from the environment, applying the documented
// defaults for anything unset. godotenv.Load is best-effort: a missing .env
// file is not an error.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnvAsInt("GO_PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		IssBaseURL:      getEnv("MOEX_ISS_BASE_URL", "https://iss.moex.com/iss/"),
		IssRateLimitRPS: getEnvAsFloat("MOEX_ISS_RATE_LIMIT_RPS", 3),
		IssTimeoutSec:   getEnvAsInt("MOEX_ISS_TIMEOUT_SECONDS", 10),
		IssMaxLookback:  getEnvAsInt("MOEX_ISS_MAX_LOOKBACK_DAYS", 730),
		IssDefaultBoard: getEnv("MOEX_ISS_DEFAULT_BOARD", "TQBR"),

		EnableCache:  getEnvAsBool("ENABLE_CACHE", true),
		CacheTTLSec:  getEnvAsInt("CACHE_TTL_SECONDS", 300),
		CacheMaxSize: getEnvAsInt("CACHE_MAX_SIZE", 500),

		MaxPortfolioTickers:   getEnvAsInt("RISK_MAX_PORTFOLIO_TICKERS", 50),
		MaxCorrelationTickers: getEnvAsInt("RISK_MAX_CORRELATION_TICKERS", 20),
		MaxPeers:              getEnvAsInt("RISK_MAX_PEERS", 15),
		MaxLookbackDays:       getEnvAsInt("RISK_MAX_LOOKBACK_DAYS", 365),
		DefaultIndexTicker:    getEnv("RISK_DEFAULT_INDEX_TICKER", "IMOEX"),

		FundamentalsCacheTTLSec: getEnvAsInt("RISK_FUNDAMENTALS_CACHE_TTL_SECONDS", 900),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
