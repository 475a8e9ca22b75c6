package calc

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DateCloses is one ticker's chronologically sorted close-price series,
// annotated with the calendar date ("YYYY-MM-DD") of each close.
type DateCloses struct {
	Dates  []string
	Closes []float64
}

// dailyReturnsByDate converts a DateCloses series into a date->return map,
// where the return dated d is computed from close_d and the prior close.
func dailyReturnsByDate(s DateCloses) map[string]float64 {
	out := make(map[string]float64, len(s.Closes))
	for i := 1; i < len(s.Closes); i++ {
		if s.Closes[i-1] == 0 {
			continue
		}
		out[s.Dates[i]] = s.Closes[i]/s.Closes[i-1] - 1
	}
	return out
}

// PearsonCorrelationMatrix computes the pairwise Pearson correlation of
// daily returns across the intersection of trading dates shared by every
// ticker in tickers. Returns ErrInsufficientData if fewer than two common
// observations remain, or if any series has zero variance over that
// intersection.
func PearsonCorrelationMatrix(tickers []string, series map[string]DateCloses) ([][]float64, int, error) {
	n := len(tickers)
	returnsByTicker := make(map[string]map[string]float64, n)
	for _, t := range tickers {
		returnsByTicker[t] = dailyReturnsByDate(series[t])
	}

	// Intersect the return-date sets.
	var common []string
	for date := range returnsByTicker[tickers[0]] {
		inAll := true
		for _, t := range tickers[1:] {
			if _, ok := returnsByTicker[t][date]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			common = append(common, date)
		}
	}
	sort.Strings(common)
	k := len(common)
	if k < 2 {
		return nil, k, ErrInsufficientData
	}

	aligned := make([][]float64, n)
	for i, t := range tickers {
		vec := make([]float64, k)
		for j, date := range common {
			vec[j] = returnsByTicker[t][date]
		}
		aligned[i] = vec
		if stat.Variance(vec, nil) == 0 {
			return nil, k, ErrInsufficientData
		}
	}

	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		matrix[i][i] = 1.0
		for j := i + 1; j < n; j++ {
			corr := stat.Correlation(aligned[i], aligned[j], nil)
			matrix[i][j] = corr
			matrix[j][i] = corr
		}
	}

	return matrix, k, nil
}
