package tools

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/moex-risk-analytics/internal/calc"
	"github.com/aristath/moex-risk-analytics/internal/model"
)

// CovenantLimits holds the CFO report's debt-covenant thresholds.
type CovenantLimits struct {
	MinLiquidityRatio *float64 `json:"min_liquidity_ratio,omitempty"`
}

// CfoLiquidityInput is the request body for build_cfo_liquidity_report.
type CfoLiquidityInput struct {
	Positions           []model.Position          `json:"positions"`
	FromDate            string                     `json:"from_date"`
	ToDate              string                     `json:"to_date"`
	BaseCurrency        string                     `json:"base_currency,omitempty"`
	TotalPortfolioValue *float64                   `json:"total_portfolio_value,omitempty"`
	HorizonMonths       int                        `json:"horizon_months,omitempty"`
	StressScenarios     []string                   `json:"stress_scenarios,omitempty"`
	Aggregates          *model.PortfolioAggregates `json:"aggregates,omitempty"`
	CovenantLimits      *CovenantLimits            `json:"covenant_limits,omitempty"`
}

// LiquidityProfileOut mirrors calc.LiquidityProfile for the wire.
type LiquidityProfileOut struct {
	WeightByBucket    map[string]float64 `json:"weight_by_bucket"`
	QuickRatioPct     float64            `json:"quick_ratio_pct"`
	ShortTermRatioPct float64            `json:"short_term_ratio_pct"`
}

// DurationProfileOut surfaces the duration drivers used by the rates stress
// scenario.
type DurationProfileOut struct {
	FixedIncomeDurationYrs *float64 `json:"fixed_income_duration_years,omitempty"`
	SpreadDurationYrs      *float64 `json:"spread_duration_years,omitempty"`
}

// CurrencyExposureOut mirrors calc.CurrencyExposure for the wire.
type CurrencyExposureOut struct {
	WeightByCurrency map[string]float64 `json:"weight_by_currency"`
	FxRiskPct        float64            `json:"fx_risk_pct"`
}

// RiskMetricsOut reports portfolio-level return/vol/drawdown under the CFO
// report's sign convention (max_drawdown_pct normalized to a positive
// magnitude).
type RiskMetricsOut struct {
	TotalReturnPct          *float64 `json:"total_return_pct"`
	AnnualizedVolatilityPct *float64 `json:"annualized_volatility_pct"`
	MaxDrawdownPct          *float64 `json:"max_drawdown_pct"`
}

// StressScenarioWithCovenant augments a stress result with the post-shock
// liquidity ratio and covenant breach flag. LiquidityRatioAfter is a
// fraction (0.6 means 60%), not a percentage, so it compares directly
// against CovenantLimits.MinLiquidityRatio.
type StressScenarioWithCovenant struct {
	model.StressScenarioResult
	LiquidityRatioAfter *float64 `json:"liquidity_ratio_after,omitempty"`
	CovenantBreach      bool     `json:"covenant_breach"`
}

// Recommendation is one deterministic, rule-derived action item.
type Recommendation struct {
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Action      string `json:"action"`
}

// ExecutiveSummary is the CFO report's headline section.
type ExecutiveSummary struct {
	OverallLiquidityStatus string   `json:"overall_liquidity_status"`
	TopRisks               []string `json:"top_risks"`
	Strengths               []string `json:"strengths"`
	Actions                 []string `json:"actions"`
}

// CfoLiquidityOutput is the response envelope for build_cfo_liquidity_report.
type CfoLiquidityOutput struct {
	Metadata             model.Metadata               `json:"metadata"`
	LiquidityProfile     *LiquidityProfileOut          `json:"liquidity_profile"`
	DurationProfile      *DurationProfileOut           `json:"duration_profile"`
	CurrencyExposure     *CurrencyExposureOut          `json:"currency_exposure"`
	ConcentrationProfile *model.ConcentrationMetrics   `json:"concentration_profile"`
	RiskMetrics          *RiskMetricsOut               `json:"risk_metrics"`
	StressScenarios      []StressScenarioWithCovenant  `json:"stress_scenarios"`
	Recommendations      []Recommendation              `json:"recommendations"`
	ExecutiveSummary     *ExecutiveSummary              `json:"executive_summary"`
	Error                *model.ToolError               `json:"error"`
}

// CfoLiquidityTool implements build_cfo_liquidity_report.
type CfoLiquidityTool struct {
	iss                 IssClient
	maxPortfolioTickers int
	maxLookbackDays     int
}

// NewCfoLiquidityTool builds a CfoLiquidityTool.
func NewCfoLiquidityTool(iss IssClient, maxPortfolioTickers, maxLookbackDays int) *CfoLiquidityTool {
	return &CfoLiquidityTool{iss: iss, maxPortfolioTickers: maxPortfolioTickers, maxLookbackDays: maxLookbackDays}
}

// Run builds the CFO liquidity report.
func (t *CfoLiquidityTool) Run(ctx context.Context, in CfoLiquidityInput) CfoLiquidityOutput {
	meta := newMetadata(in.FromDate, in.ToDate)
	meta.DrawdownSignConvention = "normalized_positive"
	meta.LiquidityRatioUnit = "fraction"
	out := CfoLiquidityOutput{Metadata: meta}

	positions, vErr := normalizePositions(in.Positions)
	if vErr != nil {
		out.Error = vErr
		return out
	}
	if len(positions) > t.maxPortfolioTickers {
		out.Error = model.NewToolError(model.ErrTooManyTickers, "too many positions in portfolio", map[string]interface{}{
			"max": t.maxPortfolioTickers, "got": len(positions),
		})
		return out
	}

	baseCurrency := in.BaseCurrency
	if baseCurrency == "" {
		baseCurrency = "RUB"
	}
	horizonMonths := in.HorizonMonths
	if horizonMonths == 0 {
		horizonMonths = 12
	}

	liqPositions := make([]calc.LiquidityPosition, len(positions))
	weights := make([]float64, len(positions))
	for i, p := range positions {
		liqPositions[i] = calc.LiquidityPosition{
			Ticker:          p.Ticker,
			Weight:          p.Weight,
			Value:           p.Value,
			LiquidityBucket: p.LiquidityBucket,
			Currency:        p.Currency,
			AssetClass:      p.AssetClass,
		}
		weights[i] = p.Weight
	}

	liquidity := calc.AggregateLiquidity(liqPositions)
	out.LiquidityProfile = &LiquidityProfileOut{
		WeightByBucket:    liquidity.WeightByBucket,
		QuickRatioPct:     liquidity.QuickRatioPct,
		ShortTermRatioPct: liquidity.ShortTermRatioPct,
	}

	currencyExposure := calc.AggregateCurrencyExposure(liqPositions, baseCurrency)
	out.CurrencyExposure = &CurrencyExposureOut{
		WeightByCurrency: currencyExposure.WeightByCurrency,
		FxRiskPct:        currencyExposure.FxRiskPct,
	}

	concentration := calc.Concentration(weights)
	out.ConcentrationProfile = &model.ConcentrationMetrics{
		Top1WeightPct: concentration.Top1WeightPct,
		Top3WeightPct: concentration.Top3WeightPct,
		Top5WeightPct: concentration.Top5WeightPct,
		HHI:           concentration.HHI,
	}

	durationProfile := &DurationProfileOut{}
	stressInputs := calc.StressInputs{BaseCurrency: baseCurrency}
	if in.Aggregates != nil {
		stressInputs.AssetClassWeights = in.Aggregates.AssetClassWeights
		stressInputs.FxExposureWeights = in.Aggregates.FxExposureWeights
		stressInputs.FixedIncomeDurationYrs = in.Aggregates.FixedIncomeDurationYrs
		stressInputs.SpreadDurationYrs = in.Aggregates.SpreadDurationYrs
		durationProfile.FixedIncomeDurationYrs = in.Aggregates.FixedIncomeDurationYrs
		durationProfile.SpreadDurationYrs = in.Aggregates.SpreadDurationYrs
	}
	out.DurationProfile = durationProfile

	stressRaw := calc.RunStressScenarios(in.StressScenarios, stressInputs)
	var minRatio *float64
	if in.CovenantLimits != nil {
		minRatio = in.CovenantLimits.MinLiquidityRatio
	}
	stressOut := make([]StressScenarioWithCovenant, len(stressRaw))
	for i, r := range stressRaw {
		item := StressScenarioWithCovenant{
			StressScenarioResult: model.StressScenarioResult{ID: r.ID, Description: r.Description, PnlPct: r.PnlPct, Drivers: r.Drivers},
		}
		if r.PnlPct != nil {
			ratio := liquidity.QuickRatioPct/100 + *r.PnlPct/100
			item.LiquidityRatioAfter = &ratio
			if minRatio != nil && ratio < *minRatio {
				item.CovenantBreach = true
			}
		}
		stressOut[i] = item
	}
	out.StressScenarios = stressOut

	if len(positions) > 0 {
		tickers := make([]string, len(positions))
		for i, p := range positions {
			tickers[i] = p.Ticker
		}
		series := make([]calc.DateCloses, len(positions))
		g, gctx := errgroup.WithContext(ctx)
		for i, p := range positions {
			i, p := i, p
			g.Go(func() error {
				bars, err := t.iss.GetOhlcvSeries(gctx, p.Ticker, p.Board, in.FromDate, in.ToDate, "1d")
				if err != nil {
					return err
				}
				dates := make([]string, len(bars))
				closes := make([]float64, len(bars))
				for j, b := range bars {
					dates[j] = b.Ts.Format("2006-01-02")
					closes[j] = b.Close
				}
				series[i] = calc.DateCloses{Dates: dates, Closes: closes}
				return nil
			})
		}
		if err := g.Wait(); err == nil {
			seriesByTicker := make(map[string]calc.DateCloses, len(positions))
			for i, p := range positions {
				seriesByTicker[p.Ticker] = series[i]
			}
			if _, values, pvErr := calc.BuildPortfolioValueSeries(tickers, weights, seriesByTicker, calc.RebalanceBuyAndHold); pvErr == nil {
				dd := calc.MaxDrawdownPct(values)
				if dd != nil {
					normalized := math.Abs(*dd)
					dd = &normalized
				}
				out.RiskMetrics = &RiskMetricsOut{
					TotalReturnPct:          calc.TotalReturnPct(values),
					AnnualizedVolatilityPct: calc.AnnualizedVolatilityPct(calc.DailyReturns(values)),
					MaxDrawdownPct:          dd,
				}
			}
		}
	}

	out.Recommendations = buildRecommendations(liquidity, currencyExposure, concentration, stressOut)
	out.ExecutiveSummary = buildExecutiveSummary(liquidity, out.Recommendations)

	return out
}

func buildRecommendations(liq calc.LiquidityProfile, fx calc.CurrencyExposure, conc calc.ConcentrationResult, stress []StressScenarioWithCovenant) []Recommendation {
	var recs []Recommendation

	if conc.Top1WeightPct > 25 {
		recs = append(recs, Recommendation{
			Priority: "medium", Category: "concentration",
			Title: "reduce concentration",
			Description: fmt.Sprintf("largest single position is %.1f%% of the portfolio", conc.Top1WeightPct),
			Action: "trim the largest position or add offsetting names",
		})
	}
	if conc.HHI > 0.20 {
		recs = append(recs, Recommendation{
			Priority: "medium", Category: "concentration",
			Title: "diversify",
			Description: fmt.Sprintf("Herfindahl-Hirschman index is %.3f", conc.HHI),
			Action: "spread weight across a larger number of issuers",
		})
	}
	if fx.FxRiskPct > 30 {
		recs = append(recs, Recommendation{
			Priority: "medium", Category: "fx",
			Title: "hedge FX",
			Description: fmt.Sprintf("%.1f%% of the portfolio is exposed to non-base currencies", fx.FxRiskPct),
			Action: "add an FX hedge or rebalance toward base-currency assets",
		})
	}
	for _, s := range stress {
		if s.PnlPct != nil && math.Abs(*s.PnlPct) >= 10 {
			recs = append(recs, Recommendation{
				Priority: "high", Category: "stress",
				Title: "material stress exposure: " + s.ID,
				Description: fmt.Sprintf("scenario %s implies a %.1f%% P&L move", s.ID, *s.PnlPct),
				Action: "review hedges or reduce exposure to the scenario's drivers",
			})
		}
	}
	return recs
}

func buildExecutiveSummary(liq calc.LiquidityProfile, recs []Recommendation) *ExecutiveSummary {
	status := "weak"
	switch {
	case liq.QuickRatioPct >= 50:
		status = "strong"
	case liq.QuickRatioPct >= 25:
		status = "adequate"
	}

	var risks, actions []string
	for _, r := range recs {
		if r.Priority == "high" {
			risks = append(risks, r.Title)
		}
		actions = append(actions, r.Action)
	}
	strengths := []string{}
	if liq.QuickRatioPct >= 50 {
		strengths = append(strengths, "strong near-term liquidity buffer")
	}

	return &ExecutiveSummary{
		OverallLiquidityStatus: status,
		TopRisks:                risks,
		Strengths:               strengths,
		Actions:                 actions,
	}
}
