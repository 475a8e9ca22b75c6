package tools

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/moex-risk-analytics/internal/calc"
	"github.com/aristath/moex-risk-analytics/internal/model"
)

// CorrelationMatrixInput is the request body for compute_correlation_matrix.
type CorrelationMatrixInput struct {
	Tickers  []string `json:"tickers"`
	FromDate string   `json:"from_date"`
	ToDate   string   `json:"to_date"`
}

// CorrelationMatrixOutput is the response envelope for compute_correlation_matrix.
type CorrelationMatrixOutput struct {
	Metadata model.Metadata   `json:"metadata"`
	Tickers  []string         `json:"tickers"`
	Matrix   [][]float64      `json:"matrix"`
	Error    *model.ToolError `json:"error"`
}

// CorrelationMatrixTool implements compute_correlation_matrix.
type CorrelationMatrixTool struct {
	iss                   IssClient
	maxCorrelationTickers int
}

// NewCorrelationMatrixTool builds a CorrelationMatrixTool.
func NewCorrelationMatrixTool(iss IssClient, maxCorrelationTickers int) *CorrelationMatrixTool {
	return &CorrelationMatrixTool{iss: iss, maxCorrelationTickers: maxCorrelationTickers}
}

// Run computes the pairwise Pearson correlation matrix over the supplied
// tickers' daily returns.
func (t *CorrelationMatrixTool) Run(ctx context.Context, in CorrelationMatrixInput) CorrelationMatrixOutput {
	meta := newMetadata(in.FromDate, in.ToDate)
	meta.Method = "pearson"
	out := CorrelationMatrixOutput{Metadata: meta}

	tickers, vErr := normalizeTickerList(in.Tickers, t.maxCorrelationTickers)
	if vErr != nil {
		out.Error = vErr
		return out
	}

	series := make([]calc.DateCloses, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			bars, err := t.iss.GetOhlcvSeries(gctx, ticker, "", in.FromDate, in.ToDate, "1d")
			if err != nil {
				return err
			}
			dates := make([]string, len(bars))
			closes := make([]float64, len(bars))
			for j, b := range bars {
				dates[j] = b.Ts.Format("2006-01-02")
				closes[j] = b.Close
			}
			series[i] = calc.DateCloses{Dates: dates, Closes: closes}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		out.Error = errorFrom(err)
		return out
	}

	seriesByTicker := make(map[string]calc.DateCloses, len(tickers))
	for i, ticker := range tickers {
		seriesByTicker[ticker] = series[i]
	}

	matrix, k, err := calc.PearsonCorrelationMatrix(tickers, seriesByTicker)
	if err != nil {
		out.Error = errorFrom(err)
		return out
	}

	out.Metadata.NumObservations = k
	out.Tickers = tickers
	out.Matrix = matrix
	return out
}

// normalizeTickerList upper-cases and de-duplicates tickers, enforcing
// 2 <= len(tickers) <= max.
func normalizeTickerList(tickers []string, max int) ([]string, *model.ToolError) {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, raw := range tickers {
		t := strings.ToUpper(strings.TrimSpace(raw))
		if t == "" {
			continue
		}
		if seen[t] {
			return nil, model.NewToolError(model.ErrValidation, "duplicate ticker: "+t, nil)
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) < 2 {
		return nil, model.NewToolError(model.ErrValidation, "at least two distinct tickers are required", nil)
	}
	if len(out) > max {
		return nil, model.NewToolError(model.ErrTooManyTickers, "too many tickers for correlation matrix", map[string]interface{}{
			"max": max, "got": len(out),
		})
	}
	return out, nil
}
