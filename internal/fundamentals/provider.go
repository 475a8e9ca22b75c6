// Package fundamentals aggregates the MOEX ISS calls needed to describe an
// issuer's valuation profile into a single, TTL-cached IssuerFundamentals
// record.
package fundamentals

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/moex-risk-analytics/internal/model"
	"github.com/aristath/moex-risk-analytics/internal/moexiss"
)

// IssClient is the subset of moexiss.Client the provider depends on.
type IssClient interface {
	GetSecuritySnapshot(ctx context.Context, ticker, board string) (*model.SecuritySnapshot, error)
	GetSecurityInfo(ctx context.Context, ticker string) (*moexiss.SecurityInfo, error)
	GetSecurityDividends(ctx context.Context, ticker, fromDate, toDate string) ([]model.DividendRecord, error)
}

type cacheEntry struct {
	value     *model.IssuerFundamentals
	expiresAt time.Time
}

// Provider computes and caches IssuerFundamentals records.
type Provider struct {
	iss IssClient
	ttl time.Duration
	log zerolog.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewProvider builds a Provider with the given cache TTL.
func NewProvider(iss IssClient, ttlSeconds int, log zerolog.Logger) *Provider {
	return &Provider{
		iss:   iss,
		ttl:   time.Duration(ttlSeconds) * time.Second,
		log:   log.With().Str("component", "fundamentals").Logger(),
		cache: make(map[string]cacheEntry),
	}
}

// Get returns ticker's fundamentals, fetching and aggregating the
// underlying SDK calls on a cache miss. The three SDK calls are issued
// concurrently.
func (p *Provider) Get(ctx context.Context, ticker, board string) (*model.IssuerFundamentals, error) {
	if v, ok := p.fromCache(ticker); ok {
		return v, nil
	}

	var (
		snapshot  *model.SecuritySnapshot
		info      *moexiss.SecurityInfo
		dividends []model.DividendRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := p.iss.GetSecuritySnapshot(gctx, ticker, board)
		if err != nil {
			return err
		}
		snapshot = s
		return nil
	})
	g.Go(func() error {
		i, err := p.iss.GetSecurityInfo(gctx, ticker)
		if err != nil {
			return err
		}
		info = i
		return nil
	})
	g.Go(func() error {
		to := time.Now().UTC()
		from := to.AddDate(-1, 0, 0)
		d, err := p.iss.GetSecurityDividends(gctx, ticker, from.Format("2006-01-02"), to.Format("2006-01-02"))
		if err != nil {
			return err
		}
		dividends = d
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &model.IssuerFundamentals{Ticker: ticker}
	if info != nil {
		out.ISIN = info.ISIN
		out.SharesOutstanding = info.SharesOutstanding
	}
	if snapshot != nil {
		out.Price = snapshot.LastPrice
	}

	if out.Price != nil && out.SharesOutstanding != nil {
		mc := *out.Price * *out.SharesOutstanding
		out.MarketCap = &mc
	}

	if out.Price != nil && *out.Price != 0 {
		sum := 0.0
		for _, d := range dividends {
			sum += d.Dividend
		}
		if sum > 0 {
			yield := sum / *out.Price * 100
			out.DividendYieldPct = &yield
		}
	}

	p.toCache(ticker, out)
	return out, nil
}

func (p *Provider) fromCache(ticker string) (*model.IssuerFundamentals, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.cache[ticker]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (p *Provider) toCache(ticker string, v *model.IssuerFundamentals) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache[ticker] = cacheEntry{value: v, expiresAt: time.Now().Add(p.ttl)}
}
