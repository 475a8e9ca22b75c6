package calc

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ParametricNormalVaRPct computes a parametric-normal Value-at-Risk estimate
// as a positive loss percentage: z * sigma_daily * sqrt(horizonDays) * 100,
// where z is the standard-normal quantile at confidenceLevel and sigma_daily
// is the daily volatility implied by annualizedVolPct (annualizedVolPct/100
// divided by sqrt(252)).
//
// confidenceLevel must lie in (0, 1) and horizonDays must be positive;
// otherwise nil is returned.
func ParametricNormalVaRPct(annualizedVolPct float64, confidenceLevel float64, horizonDays int) *float64 {
	if confidenceLevel <= 0 || confidenceLevel >= 1 || horizonDays <= 0 {
		return nil
	}
	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(confidenceLevel)
	sigmaDaily := (annualizedVolPct / 100) / math.Sqrt(tradingDaysPerYear)
	v := z * sigmaDaily * math.Sqrt(float64(horizonDays)) * 100
	return &v
}
