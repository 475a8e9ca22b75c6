package calc

import (
	"sort"
)

const (
	RebalanceBuyAndHold = "buy_and_hold"
	RebalanceMonthly    = "monthly"
)

// unionDates returns the sorted union of every ticker's observed dates.
func unionDates(series map[string]DateCloses) []string {
	seen := map[string]bool{}
	for _, s := range series {
		for _, d := range s.Dates {
			seen[d] = true
		}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// forwardFill resolves one ticker's close on each of dates, carrying the
// last known close forward across gaps. Dates preceding the ticker's first
// observation are resolved to that first observation's close.
func forwardFill(s DateCloses, dates []string) []float64 {
	out := make([]float64, len(dates))
	idx := 0
	last := 0.0
	if len(s.Closes) > 0 {
		last = s.Closes[0]
	}
	for i, d := range dates {
		for idx < len(s.Dates) && s.Dates[idx] <= d {
			last = s.Closes[idx]
			idx++
		}
		out[i] = last
	}
	return out
}

// monthKey returns the "YYYY-MM" prefix of a "YYYY-MM-DD" date string.
func monthKey(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// BuildPortfolioValueSeries constructs the aligned portfolio value series
// (starting at 1.0) for the given tickers, initial weights and per-ticker
// close series, under the requested rebalance policy. The aligned date
// range begins at the latest date on which every ticker has at least one
// observation, so every ticker contributes from day one.
func BuildPortfolioValueSeries(tickers []string, weights []float64, series map[string]DateCloses, rebalance string) ([]string, []float64, error) {
	if len(tickers) == 0 || len(tickers) != len(weights) {
		return nil, nil, ErrInsufficientData
	}

	all := unionDates(series)
	if len(all) < 2 {
		return nil, nil, ErrInsufficientData
	}

	// Aligned dates start once every ticker has produced at least one bar.
	start := all[0]
	for _, t := range tickers {
		s := series[t]
		if len(s.Dates) == 0 {
			return nil, nil, ErrInsufficientData
		}
		if s.Dates[0] > start {
			start = s.Dates[0]
		}
	}
	dates := make([]string, 0, len(all))
	for _, d := range all {
		if d >= start {
			dates = append(dates, d)
		}
	}
	if len(dates) < 2 {
		return nil, nil, ErrInsufficientData
	}

	filled := make(map[string][]float64, len(tickers))
	for _, t := range tickers {
		filled[t] = forwardFill(series[t], dates)
	}

	values := make([]float64, len(dates))

	switch rebalance {
	case RebalanceMonthly:
		segmentStart := 0
		carry := 1.0
		currentMonth := monthKey(dates[0])
		for i := range dates {
			month := monthKey(dates[i])
			if month != currentMonth {
				carry = values[i-1]
				segmentStart = i
				currentMonth = month
			}
			values[i] = carry * weightedFactor(tickers, weights, filled, segmentStart, i)
		}
	default:
		for i := range dates {
			values[i] = weightedFactor(tickers, weights, filled, 0, i)
		}
	}

	return dates, values, nil
}

// weightedFactor computes the weight-averaged cumulative price factor at
// index i relative to segmentStart, using the target weights as the
// rebalance-point allocation.
func weightedFactor(tickers []string, weights []float64, filled map[string][]float64, segmentStart, i int) float64 {
	total := 0.0
	for k, t := range tickers {
		base := filled[t][segmentStart]
		if base == 0 {
			continue
		}
		total += weights[k] * (filled[t][i] / base)
	}
	return total
}
