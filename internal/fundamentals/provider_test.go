package fundamentals

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/moex-risk-analytics/internal/model"
	"github.com/aristath/moex-risk-analytics/internal/moexiss"
)

type fakeIssClient struct {
	Snapshot  *model.SecuritySnapshot
	Info      *moexiss.SecurityInfo
	Dividends []model.DividendRecord
	Calls     int
}

func (f *fakeIssClient) GetSecuritySnapshot(ctx context.Context, ticker, board string) (*model.SecuritySnapshot, error) {
	f.Calls++
	return f.Snapshot, nil
}

func (f *fakeIssClient) GetSecurityInfo(ctx context.Context, ticker string) (*moexiss.SecurityInfo, error) {
	return f.Info, nil
}

func (f *fakeIssClient) GetSecurityDividends(ctx context.Context, ticker, fromDate, toDate string) ([]model.DividendRecord, error) {
	return f.Dividends, nil
}

func TestProviderGetAggregatesMarketCapAndDividendYield(t *testing.T) {
	price := 250.0
	shares := 1000.0
	iss := &fakeIssClient{
		Snapshot:  &model.SecuritySnapshot{Ticker: "SBER", LastPrice: &price},
		Info:      &moexiss.SecurityInfo{Ticker: "SBER", SharesOutstanding: &shares},
		Dividends: []model.DividendRecord{{Ticker: "SBER", Dividend: 10}, {Ticker: "SBER", Dividend: 5}},
	}
	p := NewProvider(iss, 60, zerolog.Nop())

	got, err := p.Get(context.Background(), "SBER", "TQBR")
	require.NoError(t, err)
	require.NotNil(t, got.MarketCap)
	assert.InDelta(t, 250000.0, *got.MarketCap, 1e-9)
	require.NotNil(t, got.DividendYieldPct)
	assert.InDelta(t, 6.0, *got.DividendYieldPct, 1e-9)
	assert.Nil(t, got.PeRatio, "no SDK source provides P/E; must stay nil rather than guess")
}

func TestProviderGetCachesWithinTTL(t *testing.T) {
	price := 100.0
	iss := &fakeIssClient{Snapshot: &model.SecuritySnapshot{Ticker: "SBER", LastPrice: &price}}
	p := NewProvider(iss, 60, zerolog.Nop())

	_, err := p.Get(context.Background(), "SBER", "TQBR")
	require.NoError(t, err)
	_, err = p.Get(context.Background(), "SBER", "TQBR")
	require.NoError(t, err)

	assert.Equal(t, 1, iss.Calls)
}

func TestProviderGetNoDividendsLeavesYieldNil(t *testing.T) {
	price := 100.0
	iss := &fakeIssClient{Snapshot: &model.SecuritySnapshot{Ticker: "SBER", LastPrice: &price}}
	p := NewProvider(iss, 60, zerolog.Nop())

	got, err := p.Get(context.Background(), "SBER", "TQBR")
	require.NoError(t, err)
	assert.Nil(t, got.DividendYieldPct)
}
