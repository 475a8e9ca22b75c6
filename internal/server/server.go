// Package server wires the risk-analytics tools into an HTTP API.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/moex-risk-analytics/internal/moexiss"
	"github.com/aristath/moex-risk-analytics/internal/tools"
)

// Config holds the dependencies New needs to build a Server.
type Config struct {
	Log                   zerolog.Logger
	DevMode               bool
	Port                  int
	IssClient             *moexiss.Client
	PortfolioRiskTool     *tools.PortfolioRiskTool
	CorrelationMatrixTool *tools.CorrelationMatrixTool
	CfoLiquidityTool      *tools.CfoLiquidityTool
	PeerCompareTool       *tools.PeerCompareTool
	RebalanceTool         *tools.RebalanceTool
}

// Server is the risk-analytics HTTP API.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    Config
}

// New builds a Server with routes and middleware configured.
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg,
	}
	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()
	port := cfg.Port
	if port == 0 {
		port = 8080
	}
	s.server = &http.Server{
		Addr:    ":" + strconv.Itoa(port),
		Handler: s.router,
	}
	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealthz)

	s.router.Route("/api/risk", func(r chi.Router) {
		r.Post("/portfolio-basic", s.handlePortfolioRisk)
		r.Post("/correlation-matrix", s.handleCorrelationMatrix)
		r.Post("/cfo-liquidity", s.handleCfoLiquidity)
		r.Post("/peers-compare", s.handlePeerCompare)
		r.Post("/suggest-rebalance", s.handleSuggestRebalance)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	size, enabled := s.cfg.IssClient.CacheStats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"cache_size":  size,
		"cache_on":    enabled,
		"server_time": time.Now().UTC().Format(time.RFC3339),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": map[string]string{"error_type": "VALIDATION_ERROR", "message": "malformed JSON body"},
		})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handlePortfolioRisk(w http.ResponseWriter, r *http.Request) {
	var in tools.PortfolioRiskInput
	if !decodeJSON(w, r, &in) {
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.PortfolioRiskTool.Run(r.Context(), in))
}

func (s *Server) handleCorrelationMatrix(w http.ResponseWriter, r *http.Request) {
	var in tools.CorrelationMatrixInput
	if !decodeJSON(w, r, &in) {
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.CorrelationMatrixTool.Run(r.Context(), in))
}

func (s *Server) handleCfoLiquidity(w http.ResponseWriter, r *http.Request) {
	var in tools.CfoLiquidityInput
	if !decodeJSON(w, r, &in) {
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.CfoLiquidityTool.Run(r.Context(), in))
}

func (s *Server) handlePeerCompare(w http.ResponseWriter, r *http.Request) {
	var in tools.PeerCompareInput
	if !decodeJSON(w, r, &in) {
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.PeerCompareTool.Run(r.Context(), in))
}

func (s *Server) handleSuggestRebalance(w http.ResponseWriter, r *http.Request) {
	var in tools.SuggestRebalanceInput
	if !decodeJSON(w, r, &in) {
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.RebalanceTool.Run(r.Context(), in))
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
