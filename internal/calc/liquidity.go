package calc

// defaultLiquidityBucket returns the bucket to assume when a position does
// not specify one: equity defaults to the most liquid bucket, fixed income
// to the next, everything else is left unknown.
func defaultLiquidityBucket(assetClass string) string {
	switch assetClass {
	case "equity":
		return "0-7d"
	case "fixed_income":
		return "8-30d"
	default:
		return ""
	}
}

// LiquidityPosition is the subset of a portfolio position needed for
// liquidity-bucket and currency-exposure aggregation.
type LiquidityPosition struct {
	Ticker          string
	Weight          float64
	Value           float64
	LiquidityBucket string
	Currency        string
	AssetClass      string
}

// LiquidityProfile reports weight and value totals per liquidity bucket plus
// the derived quick and short-term ratios.
type LiquidityProfile struct {
	WeightByBucket    map[string]float64
	ValueByBucket     map[string]float64
	QuickRatioPct     float64
	ShortTermRatioPct float64
}

// AggregateLiquidity buckets positions by liquidity_bucket (applying the
// documented default when absent) and derives quick/short-term ratios.
func AggregateLiquidity(positions []LiquidityPosition) LiquidityProfile {
	weightByBucket := map[string]float64{}
	valueByBucket := map[string]float64{}
	for _, p := range positions {
		bucket := p.LiquidityBucket
		if bucket == "" {
			bucket = defaultLiquidityBucket(p.AssetClass)
		}
		if bucket == "" {
			continue
		}
		weightByBucket[bucket] += p.Weight
		valueByBucket[bucket] += p.Value
	}
	quick := weightByBucket["0-7d"] * 100
	short := (weightByBucket["0-7d"] + weightByBucket["8-30d"]) * 100
	return LiquidityProfile{
		WeightByBucket:    weightByBucket,
		ValueByBucket:     valueByBucket,
		QuickRatioPct:     quick,
		ShortTermRatioPct: short,
	}
}

// CurrencyExposure reports weight per currency and the FX-risk percentage
// relative to baseCurrency.
type CurrencyExposure struct {
	WeightByCurrency map[string]float64
	FxRiskPct        float64
}

// AggregateCurrencyExposure groups positions by currency and derives
// fx_risk_pct = 100 * (1 - weight in baseCurrency).
func AggregateCurrencyExposure(positions []LiquidityPosition, baseCurrency string) CurrencyExposure {
	weightByCurrency := map[string]float64{}
	for _, p := range positions {
		weightByCurrency[p.Currency] += p.Weight
	}
	fxRisk := 100 * (1 - weightByCurrency[baseCurrency])
	return CurrencyExposure{
		WeightByCurrency: weightByCurrency,
		FxRiskPct:        fxRisk,
	}
}
