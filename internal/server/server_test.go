package server

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/moex-risk-analytics/internal/moexiss"
	"github.com/aristath/moex-risk-analytics/internal/tools"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	iss := moexiss.NewClient(moexiss.Config{
		BaseURL:         "http://127.0.0.1:0",
		RateLimitRPS:    10,
		TimeoutSeconds:  5,
		MaxLookbackDays: 730,
		DefaultBoard:    "TQBR",
		EnableCache:     true,
		CacheTTLSeconds: 60,
		CacheMaxSize:    100,
	}, zerolog.Nop())

	return New(Config{
		Log:                   zerolog.Nop(),
		IssClient:             iss,
		PortfolioRiskTool:     tools.NewPortfolioRiskTool(iss, 50, 730),
		CorrelationMatrixTool: tools.NewCorrelationMatrixTool(iss, 50),
		CfoLiquidityTool:      tools.NewCfoLiquidityTool(iss, 50, 730),
		PeerCompareTool:       tools.NewPeerCompareTool(iss, nil, 50),
		RebalanceTool:         tools.NewRebalanceTool(),
	})
}

func TestHandleHealthz(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHandleSuggestRebalanceRoundTrip(t *testing.T) {
	s := testServer(t)
	payload := []byte(`{"positions":[{"ticker":"A","current_weight":0.6},{"ticker":"B","current_weight":0.4}]}`)
	req := httptest.NewRequest("POST", "/api/risk/suggest-rebalance", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	var out tools.SuggestRebalanceOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Nil(t, out.Error)
	require.NotNil(t, out.Summary)
}

func TestHandleMalformedJSONReturnsValidationError(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest("POST", "/api/risk/suggest-rebalance", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errBody["error_type"])
}
