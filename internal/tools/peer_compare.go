package tools

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/moex-risk-analytics/internal/calc"
	"github.com/aristath/moex-risk-analytics/internal/model"
)

// comparisonMetrics lists the IssuerFundamentals fields ranked for peer
// comparison, in output order.
var comparisonMetrics = []string{"pe_ratio", "ev_to_ebitda", "debt_to_ebitda", "roe_pct", "dividend_yield_pct"}

// PeerCompareInput is the request body for issuer_peers_compare.
type PeerCompareInput struct {
	Ticker      string   `json:"ticker,omitempty"`
	ISIN        string   `json:"isin,omitempty"`
	IssuerID    string   `json:"issuer_id,omitempty"`
	IndexTicker string   `json:"index_ticker,omitempty"`
	Sector      string   `json:"sector,omitempty"`
	PeerTickers []string `json:"peer_tickers,omitempty"`
	MaxPeers    int      `json:"max_peers,omitempty"`
	AsOfDate    string   `json:"as_of_date,omitempty"`
}

// PeerFlag is a heuristic valuation flag attached to the base issuer.
type PeerFlag struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Metric   string `json:"metric"`
}

// MetricRanking is one metric's peer ranking, including the base issuer.
type MetricRanking struct {
	Metric string          `json:"metric"`
	Ranks  []calc.PeerRank `json:"ranks"`
}

// PeerCompareOutput is the response envelope for issuer_peers_compare.
type PeerCompareOutput struct {
	Metadata    model.Metadata             `json:"metadata"`
	BaseIssuer  *model.IssuerFundamentals  `json:"base_issuer,omitempty"`
	Peers       []model.IssuerFundamentals `json:"peers"`
	Ranking     []MetricRanking            `json:"ranking"`
	Flags       []PeerFlag                 `json:"flags"`
	Error       *model.ToolError           `json:"error"`
}

// PeerCompareTool implements issuer_peers_compare.
type PeerCompareTool struct {
	iss             IssClient
	fundamentals    FundamentalsProvider
	defaultMaxPeers int
}

// NewPeerCompareTool builds a PeerCompareTool.
func NewPeerCompareTool(iss IssClient, fundamentals FundamentalsProvider, defaultMaxPeers int) *PeerCompareTool {
	return &PeerCompareTool{iss: iss, fundamentals: fundamentals, defaultMaxPeers: defaultMaxPeers}
}

// Run builds the peer comparison report.
func (t *PeerCompareTool) Run(ctx context.Context, in PeerCompareInput) PeerCompareOutput {
	meta := newMetadata("", "")
	out := PeerCompareOutput{Metadata: meta}

	// isin/issuer_id are accepted on the request but not yet resolvable to a
	// ticker: MOEX ISS has no ISIN/issuer_id lookup endpoint in this SDK, so
	// only ticker currently identifies the base issuer.
	baseTicker := strings.ToUpper(strings.TrimSpace(in.Ticker))
	if baseTicker == "" {
		out.Error = model.NewToolError(model.ErrInvalidTicker, "ticker is required; isin/issuer_id lookup is not yet supported", nil)
		return out
	}

	maxPeers := in.MaxPeers
	if maxPeers == 0 {
		maxPeers = t.defaultMaxPeers
	}
	indexTicker := in.IndexTicker
	if indexTicker == "" {
		indexTicker = "IMOEX"
	}

	peerTickers, err := t.resolvePeers(ctx, in, baseTicker, indexTicker, maxPeers)
	if err != nil {
		out.Error = errorFrom(err)
		return out
	}
	if len(peerTickers) == 0 {
		out.Error = model.NewToolError(model.ErrNoPeersFound, "no peers found for the requested sector/index", nil)
		return out
	}

	allTickers := append([]string{baseTicker}, peerTickers...)
	fundamentalsByTicker := make(map[string]*model.IssuerFundamentals, len(allTickers))
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	for _, ticker := range allTickers {
		ticker := ticker
		g.Go(func() error {
			f, err := t.fundamentals.Get(gctx, ticker, "")
			if err != nil {
				return err
			}
			mu.Lock()
			fundamentalsByTicker[ticker] = f
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		out.Error = errorFrom(err)
		return out
	}

	base := fundamentalsByTicker[baseTicker]
	out.BaseIssuer = base
	peers := make([]model.IssuerFundamentals, 0, len(peerTickers))
	for _, ticker := range peerTickers {
		if f := fundamentalsByTicker[ticker]; f != nil {
			peers = append(peers, *f)
		}
	}
	out.Peers = peers

	rankings, hasAnyMetric := rankMetrics(base, peers, baseTicker)
	out.Ranking = rankings
	if !hasAnyMetric {
		out.Error = model.NewToolError(model.ErrNoFundamentalData, "base issuer lacks any field usable for peer ranking", nil)
		return out
	}

	out.Flags = buildPeerFlags(rankings, baseTicker)
	return out
}

func (t *PeerCompareTool) resolvePeers(ctx context.Context, in PeerCompareInput, baseTicker, indexTicker string, maxPeers int) ([]string, error) {
	if len(in.PeerTickers) > 0 {
		out := make([]string, 0, len(in.PeerTickers))
		for _, p := range in.PeerTickers {
			p = strings.ToUpper(strings.TrimSpace(p))
			if p != "" && p != baseTicker {
				out = append(out, p)
			}
		}
		if len(out) > maxPeers {
			out = out[:maxPeers]
		}
		return out, nil
	}

	constituents, err := t.iss.GetIndexConstituents(ctx, indexTicker, in.AsOfDate)
	if err != nil {
		return nil, err
	}

	out := []string{}
	for _, c := range constituents {
		if c.Ticker == baseTicker {
			continue
		}
		if in.Sector != "" && (c.Sector == nil || *c.Sector != in.Sector) {
			continue
		}
		out = append(out, c.Ticker)
		if len(out) >= maxPeers {
			break
		}
	}
	return out, nil
}

// rankMetrics ranks base+peers on every comparisonMetrics entry the base
// issuer has a non-nil value for, returning whether any metric could be
// ranked at all.
func rankMetrics(base *model.IssuerFundamentals, peers []model.IssuerFundamentals, baseTicker string) ([]MetricRanking, bool) {
	if base == nil {
		return nil, false
	}
	all := append([]model.IssuerFundamentals{*base}, peers...)

	hasAny := false
	var rankings []MetricRanking
	for _, metric := range comparisonMetrics {
		values := []calc.PeerMetricValue{}
		for _, f := range all {
			if v := metricValue(f, metric); v != nil {
				values = append(values, calc.PeerMetricValue{Ticker: f.Ticker, Value: *v})
			}
		}
		if len(values) == 0 {
			continue
		}
		if _, ok := calc.RankOf(calc.RankPeers(metric, values), baseTicker); !ok {
			continue
		}
		hasAny = true
		rankings = append(rankings, MetricRanking{Metric: metric, Ranks: calc.RankPeers(metric, values)})
	}
	return rankings, hasAny
}

func metricValue(f model.IssuerFundamentals, metric string) *float64 {
	switch metric {
	case "pe_ratio":
		return f.PeRatio
	case "ev_to_ebitda":
		return f.EvToEbitda
	case "debt_to_ebitda":
		return f.DebtToEbitda
	case "roe_pct":
		return f.RoePct
	case "dividend_yield_pct":
		return f.DividendYieldPct
	}
	return nil
}

// buildPeerFlags derives valuation flags from the base issuer's percentile
// in each ranked metric. Percentile follows calc.RankPeers: 1.0 is the most
// favorable rank among peers (cheapest P/E, highest ROE, ...), 0.0 the
// least favorable, regardless of whether the metric ranks ascending or
// descending.
func buildPeerFlags(rankings []MetricRanking, baseTicker string) []PeerFlag {
	var flags []PeerFlag
	for _, r := range rankings {
		rank, ok := calc.RankOf(r.Ranks, baseTicker)
		if !ok || rank.Percentile == nil {
			continue
		}
		p := *rank.Percentile
		switch r.Metric {
		case "pe_ratio":
			if p >= 0.75 {
				flags = append(flags, PeerFlag{Code: "UNDERVALUED", Severity: "info", Message: "P/E ranks in the cheapest quartile among peers", Metric: r.Metric})
			} else if p <= 0.25 {
				flags = append(flags, PeerFlag{Code: "OVERVALUED", Severity: "info", Message: "P/E ranks in the most expensive quartile among peers", Metric: r.Metric})
			}
		case "debt_to_ebitda":
			// debt_to_ebitda ranks ascending (lower is cheaper), so the
			// highest-leverage issuer sits at the low end of the
			// rank-derived percentile, not the high end.
			if p < 0.25 {
				flags = append(flags, PeerFlag{Code: "HIGH_LEVERAGE", Severity: "warning", Message: "leverage ranks among the highest of peers", Metric: r.Metric})
			}
		case "roe_pct":
			if p > 0.75 {
				flags = append(flags, PeerFlag{Code: "HIGH_ROE", Severity: "info", Message: "return on equity ranks among the highest of peers", Metric: r.Metric})
			}
		case "dividend_yield_pct":
			if p > 0.75 {
				flags = append(flags, PeerFlag{Code: "HIGH_DIVIDEND", Severity: "info", Message: "dividend yield ranks among the highest of peers", Metric: r.Metric})
			}
		}
	}
	return flags
}
