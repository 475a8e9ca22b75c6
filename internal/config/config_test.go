package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "https://iss.moex.com/iss/", cfg.IssBaseURL)
	assert.Equal(t, 730, cfg.IssMaxLookback)
	assert.True(t, cfg.EnableCache)
	assert.Equal(t, 50, cfg.MaxPortfolioTickers)
	assert.Equal(t, "IMOEX", cfg.DefaultIndexTicker)
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	t.Setenv("GO_PORT", "9090")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("MOEX_ISS_RATE_LIMIT_RPS", "7.5")
	t.Setenv("RISK_MAX_PEERS", "25")

	cfg := Load()
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.InDelta(t, 7.5, cfg.IssRateLimitRPS, 1e-9)
	assert.Equal(t, 25, cfg.MaxPeers)
}

func TestLoadFallsBackOnUnparsableValues(t *testing.T) {
	t.Setenv("GO_PORT", "not-a-number")
	cfg := Load()
	assert.Equal(t, 8080, cfg.Port)
}
