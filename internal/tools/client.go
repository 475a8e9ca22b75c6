package tools

import (
	"context"

	"github.com/aristath/moex-risk-analytics/internal/model"
	"github.com/aristath/moex-risk-analytics/internal/moexiss"
)

// IssClient is the subset of moexiss.Client every tool depends on.
type IssClient interface {
	GetSecuritySnapshot(ctx context.Context, ticker, board string) (*model.SecuritySnapshot, error)
	GetOhlcvSeries(ctx context.Context, ticker, board, fromDate, toDate, interval string) ([]model.OhlcvBar, error)
	GetIndexConstituents(ctx context.Context, indexTicker, asOfDate string) ([]model.IndexConstituent, error)
	GetSecurityDividends(ctx context.Context, ticker, fromDate, toDate string) ([]model.DividendRecord, error)
	GetSecurityInfo(ctx context.Context, ticker string) (*moexiss.SecurityInfo, error)
}

// FundamentalsProvider is the subset of fundamentals.Provider the peer
// comparison tool depends on.
type FundamentalsProvider interface {
	Get(ctx context.Context, ticker, board string) (*model.IssuerFundamentals, error)
}
