package calc

import "sort"

// lowerIsCheaper lists the metrics ranked ascending (rank 1 = cheapest).
var lowerIsCheaper = map[string]bool{
	"pe_ratio":       true,
	"ev_to_ebitda":   true,
	"debt_to_ebitda": true,
}

// PeerMetricValue pairs an issuer ticker with one metric's value. Issuers
// lacking the metric are excluded from the caller's input slice, not passed
// in with a nil/zero placeholder.
type PeerMetricValue struct {
	Ticker string
	Value  float64
}

// PeerRank is one issuer's rank and percentile for a single metric.
type PeerRank struct {
	Ticker     string
	Value      float64
	Rank       int
	Percentile *float64
}

// RankPeers ranks values for one metric: ascending (rank 1 = lowest) for
// lower-is-cheaper metrics, descending (rank 1 = highest) for higher-is-
// better metrics. percentile = (total-rank)/(total-1) when total >= 2.
func RankPeers(metric string, values []PeerMetricValue) []PeerRank {
	sorted := make([]PeerMetricValue, len(values))
	copy(sorted, values)

	ascending := lowerIsCheaper[metric]
	sort.SliceStable(sorted, func(i, j int) bool {
		if ascending {
			return sorted[i].Value < sorted[j].Value
		}
		return sorted[i].Value > sorted[j].Value
	})

	total := len(sorted)
	out := make([]PeerRank, total)
	for i, v := range sorted {
		rank := i + 1
		var percentile *float64
		if total >= 2 {
			p := float64(total-rank) / float64(total-1)
			percentile = &p
		}
		out[i] = PeerRank{Ticker: v.Ticker, Value: v.Value, Rank: rank, Percentile: percentile}
	}
	return out
}

// RankOf finds one ticker's PeerRank within a ranked slice, if present.
func RankOf(ranks []PeerRank, ticker string) (PeerRank, bool) {
	for _, r := range ranks {
		if r.Ticker == ticker {
			return r, true
		}
	}
	return PeerRank{}, false
}
