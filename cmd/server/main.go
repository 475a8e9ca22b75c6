// Package main is the entry point for the MOEX portfolio risk analytics
// service: an IssClient SDK, a pure calculation kernel, and five
// HTTP-bound risk reports.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aristath/moex-risk-analytics/internal/config"
	"github.com/aristath/moex-risk-analytics/internal/fundamentals"
	"github.com/aristath/moex-risk-analytics/internal/moexiss"
	"github.com/aristath/moex-risk-analytics/internal/server"
	"github.com/aristath/moex-risk-analytics/internal/tools"
	"github.com/aristath/moex-risk-analytics/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	log.Info().Msg("starting moex-risk-analytics")

	issClient := moexiss.NewClient(moexiss.Config{
		BaseURL:         cfg.IssBaseURL,
		RateLimitRPS:    cfg.IssRateLimitRPS,
		TimeoutSeconds:  cfg.IssTimeoutSec,
		MaxLookbackDays: cfg.IssMaxLookback,
		DefaultBoard:    cfg.IssDefaultBoard,
		EnableCache:     cfg.EnableCache,
		CacheTTLSeconds: cfg.CacheTTLSec,
		CacheMaxSize:    cfg.CacheMaxSize,
	}, log)

	fundamentalsProvider := fundamentals.NewProvider(issClient, cfg.FundamentalsCacheTTLSec, log)

	portfolioRiskTool := tools.NewPortfolioRiskTool(issClient, cfg.MaxPortfolioTickers, cfg.MaxLookbackDays)
	correlationMatrixTool := tools.NewCorrelationMatrixTool(issClient, cfg.MaxCorrelationTickers)
	cfoLiquidityTool := tools.NewCfoLiquidityTool(issClient, cfg.MaxPortfolioTickers, cfg.MaxLookbackDays)
	peerCompareTool := tools.NewPeerCompareTool(issClient, fundamentalsProvider, cfg.MaxPeers)
	rebalanceTool := tools.NewRebalanceTool()

	srv := server.New(server.Config{
		Log:                   log,
		DevMode:               cfg.DevMode,
		Port:                  cfg.Port,
		IssClient:             issClient,
		PortfolioRiskTool:     portfolioRiskTool,
		CorrelationMatrixTool: correlationMatrixTool,
		CfoLiquidityTool:      cfoLiquidityTool,
		PeerCompareTool:       peerCompareTool,
		RebalanceTool:         rebalanceTool,
	})

	// Periodic cache housekeeping: evict expired entries so the LRU ring
	// doesn't carry stale data past its TTL between requests.
	scheduler := cron.New()
	_, err := scheduler.AddFunc("@every 5m", func() {
		purged := issClient.PurgeExpiredCache()
		if purged > 0 {
			log.Debug().Int("purged", purged).Msg("purged expired ISS cache entries")
		}
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to schedule cache purge job")
	}
	scheduler.Start()
	defer scheduler.Stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("HTTP server listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server stopped")
}
