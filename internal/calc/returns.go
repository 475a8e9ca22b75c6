package calc

// DailyReturns converts a chronologically sorted close-price series into
// simple daily returns: r_t = close_t/close_{t-1} - 1. An input of length n
// yields n-1 returns.
func DailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			returns[i-1] = 0
			continue
		}
		returns[i-1] = closes[i]/closes[i-1] - 1
	}
	return returns
}

// TotalReturnPct computes (close_last/close_first - 1) * 100. Requires at
// least two observations.
func TotalReturnPct(closes []float64) *float64 {
	if len(closes) < 2 || closes[0] == 0 {
		return nil
	}
	v := (closes[len(closes)-1]/closes[0] - 1) * 100
	return &v
}
