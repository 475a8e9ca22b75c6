package tools

import (
	"context"
	"time"

	"github.com/aristath/moex-risk-analytics/internal/model"
	"github.com/aristath/moex-risk-analytics/internal/moexiss"
)

// fakeIssClient is a test double for IssClient, returning canned series per
// ticker and erroring for any ticker not present in Bars.
type fakeIssClient struct {
	Bars         map[string][]model.OhlcvBar
	Constituents []model.IndexConstituent
	Dividends    map[string][]model.DividendRecord
	Err          error
}

func (f *fakeIssClient) GetSecuritySnapshot(ctx context.Context, ticker, board string) (*model.SecuritySnapshot, error) {
	return &model.SecuritySnapshot{Ticker: ticker, Board: board}, nil
}

func (f *fakeIssClient) GetOhlcvSeries(ctx context.Context, ticker, board, fromDate, toDate, interval string) ([]model.OhlcvBar, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	bars, ok := f.Bars[ticker]
	if !ok {
		return nil, &moexiss.InvalidTickerError{Ticker: ticker, Board: board}
	}
	return bars, nil
}

func (f *fakeIssClient) GetIndexConstituents(ctx context.Context, indexTicker, asOfDate string) ([]model.IndexConstituent, error) {
	return f.Constituents, nil
}

func (f *fakeIssClient) GetSecurityDividends(ctx context.Context, ticker, fromDate, toDate string) ([]model.DividendRecord, error) {
	return f.Dividends[ticker], nil
}

func (f *fakeIssClient) GetSecurityInfo(ctx context.Context, ticker string) (*moexiss.SecurityInfo, error) {
	return &moexiss.SecurityInfo{Ticker: ticker}, nil
}

func closeBars(closes ...float64) []model.OhlcvBar {
	bars := make([]model.OhlcvBar, len(closes))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = model.OhlcvBar{Ts: base.AddDate(0, 0, i), Close: c}
	}
	return bars
}

// fakeFundamentalsProvider is a test double for FundamentalsProvider.
type fakeFundamentalsProvider struct {
	Data map[string]*model.IssuerFundamentals
	Err  error
}

func (f *fakeFundamentalsProvider) Get(ctx context.Context, ticker, board string) (*model.IssuerFundamentals, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if v, ok := f.Data[ticker]; ok {
		return v, nil
	}
	return &model.IssuerFundamentals{Ticker: ticker}, nil
}

func ptr(f float64) *float64 { return &f }
