package calc

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const tradingDaysPerYear = 252

// AnnualizedVolatilityPct returns stdev(returns) * sqrt(252) * 100, using the
// sample standard deviation (denominator n-1). Requires at least two
// returns; otherwise nil.
func AnnualizedVolatilityPct(returns []float64) *float64 {
	if len(returns) < 2 {
		return nil
	}
	sd := stat.StdDev(returns, nil)
	v := sd * math.Sqrt(tradingDaysPerYear) * 100
	return &v
}
