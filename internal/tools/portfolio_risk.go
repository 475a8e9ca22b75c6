package tools

import (
	"context"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/moex-risk-analytics/internal/calc"
	"github.com/aristath/moex-risk-analytics/internal/model"
)

// PortfolioRiskInput is the request body for compute_portfolio_risk_basic.
type PortfolioRiskInput struct {
	Positions       []model.Position          `json:"positions"`
	FromDate        string                     `json:"from_date"`
	ToDate          string                     `json:"to_date"`
	Rebalance       string                     `json:"rebalance,omitempty"`
	Aggregates      *model.PortfolioAggregates `json:"aggregates,omitempty"`
	StressScenarios []string                   `json:"stress_scenarios,omitempty"`
	VarConfig       *model.VarConfig           `json:"var_config,omitempty"`
}

// PortfolioRiskOutput is the response envelope for compute_portfolio_risk_basic.
type PortfolioRiskOutput struct {
	Metadata             model.Metadata                `json:"metadata"`
	PerInstrument        []model.PerInstrumentRisk      `json:"per_instrument"`
	PortfolioMetrics     *model.PortfolioMetrics        `json:"portfolio_metrics"`
	ConcentrationMetrics *model.ConcentrationMetrics    `json:"concentration_metrics"`
	StressResults        []model.StressScenarioResult   `json:"stress_results"`
	VarLight             *model.VarLight               `json:"var_light"`
	Error                *model.ToolError              `json:"error"`
}

// PortfolioRiskTool implements compute_portfolio_risk_basic.
type PortfolioRiskTool struct {
	iss                 IssClient
	maxPortfolioTickers int
	maxLookbackDays     int
}

// NewPortfolioRiskTool builds a PortfolioRiskTool.
func NewPortfolioRiskTool(iss IssClient, maxPortfolioTickers, maxLookbackDays int) *PortfolioRiskTool {
	return &PortfolioRiskTool{iss: iss, maxPortfolioTickers: maxPortfolioTickers, maxLookbackDays: maxLookbackDays}
}

// Run computes the basic portfolio risk report.
func (t *PortfolioRiskTool) Run(ctx context.Context, in PortfolioRiskInput) PortfolioRiskOutput {
	meta := newMetadata(in.FromDate, in.ToDate)
	meta.DrawdownSignConvention = "non_positive"
	out := PortfolioRiskOutput{Metadata: meta}

	positions, err := normalizePositions(in.Positions)
	if err != nil {
		out.Error = err
		return out
	}
	if len(positions) > t.maxPortfolioTickers {
		out.Error = model.NewToolError(model.ErrTooManyTickers, "too many positions in portfolio", map[string]interface{}{
			"max": t.maxPortfolioTickers, "got": len(positions),
		})
		return out
	}
	if sumErr := validateWeightSum(positions); sumErr != nil {
		out.Error = sumErr
		return out
	}
	if dateErr := validateLookback(in.FromDate, in.ToDate, t.maxLookbackDays); dateErr != nil {
		out.Error = dateErr
		return out
	}

	rebalance := in.Rebalance
	if rebalance == "" {
		rebalance = calc.RebalanceBuyAndHold
	}

	tickers := make([]string, len(positions))
	weights := make([]float64, len(positions))
	for i, p := range positions {
		tickers[i] = p.Ticker
		weights[i] = p.Weight
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
	if err := g.Wait(); err != nil {
		out.Error = errorFrom(err)
		return out
	}

	perInstrument := make([]model.PerInstrumentRisk, len(positions))
	for i, p := range positions {
		closes := series[i].Closes
		returns := calc.DailyReturns(closes)
		perInstrument[i] = model.PerInstrumentRisk{
			Ticker:                  p.Ticker,
			Weight:                  p.Weight,
			TotalReturnPct:          calc.TotalReturnPct(closes),
			AnnualizedVolatilityPct: calc.AnnualizedVolatilityPct(returns),
			MaxDrawdownPct:          calc.MaxDrawdownPct(closes),
		}
	}
	out.PerInstrument = perInstrument

	seriesByTicker := make(map[string]calc.DateCloses, len(positions))
	for i, p := range positions {
		seriesByTicker[p.Ticker] = series[i]
	}
	_, values, pvErr := calc.BuildPortfolioValueSeries(tickers, weights, seriesByTicker, rebalance)

	var portfolioMetrics model.PortfolioMetrics
	var annualizedVol *float64
	if pvErr == nil {
		portfolioReturns := calc.DailyReturns(values)
		portfolioMetrics.TotalReturnPct = calc.TotalReturnPct(values)
		annualizedVol = calc.AnnualizedVolatilityPct(portfolioReturns)
		portfolioMetrics.AnnualizedVolatilityPct = annualizedVol
		portfolioMetrics.MaxDrawdownPct = calc.MaxDrawdownPct(values)
	}
	out.PortfolioMetrics = &portfolioMetrics

	concentration := calc.Concentration(weights)
	out.ConcentrationMetrics = &model.ConcentrationMetrics{
		Top1WeightPct: concentration.Top1WeightPct,
		Top3WeightPct: concentration.Top3WeightPct,
		Top5WeightPct: concentration.Top5WeightPct,
		HHI:           concentration.HHI,
	}

	stressInputs := calc.StressInputs{BaseCurrency: "RUB"}
	if in.Aggregates != nil {
		stressInputs.BaseCurrency = in.Aggregates.BaseCurrency
		stressInputs.AssetClassWeights = in.Aggregates.AssetClassWeights
		stressInputs.FxExposureWeights = in.Aggregates.FxExposureWeights
		stressInputs.FixedIncomeDurationYrs = in.Aggregates.FixedIncomeDurationYrs
		stressInputs.SpreadDurationYrs = in.Aggregates.SpreadDurationYrs
	}
	results := calc.RunStressScenarios(in.StressScenarios, stressInputs)
	stressResults := make([]model.StressScenarioResult, len(results))
	for i, r := range results {
		stressResults[i] = model.StressScenarioResult{ID: r.ID, Description: r.Description, PnlPct: r.PnlPct, Drivers: r.Drivers}
	}
	out.StressResults = stressResults

	// var_light prefers realized portfolio volatility; if price history was
	// too short to compute it, fall back to a caller-supplied reference
	// volatility instead of omitting var_light entirely.
	confidence := 0.95
	horizon := 1
	var refVol *float64
	if in.VarConfig != nil {
		if in.VarConfig.ConfidenceLevel > 0 {
			confidence = in.VarConfig.ConfidenceLevel
		}
		if in.VarConfig.HorizonDays > 0 {
			horizon = in.VarConfig.HorizonDays
		}
		refVol = in.VarConfig.ReferenceVolatilityPct
	}
	volForVar := annualizedVol
	if volForVar == nil {
		volForVar = refVol
	}
	if volForVar != nil {
		varPct := calc.ParametricNormalVaRPct(*volForVar, confidence, horizon)
		out.VarLight = &model.VarLight{
			Method:                  "parametric_normal",
			ConfidenceLevel:         confidence,
			HorizonDays:             horizon,
			AnnualizedVolatilityPct: annualizedVol,
			VarPct:                  varPct,
		}
	}

	return out
}

// normalizePositions upper-cases tickers, rejects duplicates, and requires
// a non-empty portfolio.
func normalizePositions(positions []model.Position) ([]model.Position, *model.ToolError) {
	if len(positions) == 0 {
		return nil, model.NewToolError(model.ErrEmptyPortfolio, "portfolio has no positions", nil)
	}
	seen := make(map[string]bool, len(positions))
	out := make([]model.Position, len(positions))
	for i, p := range positions {
		p.Ticker = strings.ToUpper(strings.TrimSpace(p.Ticker))
		if p.Ticker == "" {
			return nil, model.NewToolError(model.ErrValidation, "position missing ticker", nil)
		}
		if seen[p.Ticker] {
			return nil, model.NewToolError(model.ErrValidation, "duplicate ticker: "+p.Ticker, nil)
		}
		seen[p.Ticker] = true
		out[i] = p
	}
	return out, nil
}

// validateLookback rejects ranges spanning more than maxLookbackDays before
// any network call is issued.
func validateLookback(fromDate, toDate string, maxLookbackDays int) *model.ToolError {
	from, err1 := time.Parse("2006-01-02", fromDate)
	to, err2 := time.Parse("2006-01-02", toDate)
	if err1 != nil || err2 != nil {
		return model.NewToolError(model.ErrValidation, "from_date/to_date must be YYYY-MM-DD", nil)
	}
	days := int(to.Sub(from).Hours() / 24)
	if days < 0 {
		return model.NewToolError(model.ErrValidation, "to_date must not precede from_date", nil)
	}
	if days > maxLookbackDays {
		return model.NewToolError(model.ErrDateRangeTooLarge, "requested range exceeds maximum lookback", map[string]interface{}{
			"max_days": maxLookbackDays, "requested_days": days,
		})
	}
	return nil
}

// validateWeightSum enforces |Sum(weight) - 1| <= 1e-2.
func validateWeightSum(positions []model.Position) *model.ToolError {
	sum := 0.0
	for _, p := range positions {
		sum += p.Weight
	}
	if math.Abs(sum-1.0) > 1e-2 {
		return model.NewToolError(model.ErrValidation, "position weights must sum to 1.0", map[string]interface{}{"sum": sum})
	}
	return nil
}
