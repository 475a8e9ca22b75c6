package calc

// Built-in stress scenario identifiers.
const (
	ScenarioEquityFx      = "equity_-10_fx_+20"
	ScenarioRatesUp300bp  = "rates_+300bp"
	ScenarioCreditUp150bp = "credit_spreads_+150bp"
)

// AllScenarios lists the built-in stress scenarios in canonical order.
var AllScenarios = []string{ScenarioEquityFx, ScenarioRatesUp300bp, ScenarioCreditUp150bp}

// StressInputs carries the aggregate drivers a stress scenario may consume.
// Pointer fields are nil when the corresponding driver was not supplied.
type StressInputs struct {
	BaseCurrency           string
	AssetClassWeights      map[string]float64
	FxExposureWeights      map[string]float64
	FixedIncomeDurationYrs *float64
	SpreadDurationYrs      *float64
}

// StressResult is one scenario's computed P&L and the drivers it consumed.
type StressResult struct {
	ID          string
	Description string
	PnlPct      *float64
	Drivers     map[string]float64
}

// RunStressScenario evaluates a single built-in scenario identifier against
// the supplied inputs. Unknown identifiers yield a nil PnlPct and no drivers.
func RunStressScenario(id string, in StressInputs) StressResult {
	switch id {
	case ScenarioEquityFx:
		wEquity := in.AssetClassWeights["equity"]
		wBase := in.FxExposureWeights[in.BaseCurrency]
		wFxNonBase := 1 - wBase
		pnl := -10*wEquity + 20*wFxNonBase
		return StressResult{
			ID:          id,
			Description: "Equity -10%, non-base FX +20%",
			PnlPct:      &pnl,
			Drivers: map[string]float64{
				"equity_weight_pct":     wEquity * 100,
				"fx_exposed_weight_pct": wFxNonBase * 100,
			},
		}

	case ScenarioRatesUp300bp:
		if in.FixedIncomeDurationYrs == nil {
			return StressResult{ID: id, Description: "Rates +300bp", PnlPct: nil, Drivers: map[string]float64{}}
		}
		wFixedIncome := in.AssetClassWeights["fixed_income"]
		duration := *in.FixedIncomeDurationYrs
		pnl := -3.0 * duration * wFixedIncome
		return StressResult{
			ID:          id,
			Description: "Rates +300bp",
			PnlPct:      &pnl,
			Drivers: map[string]float64{
				"duration_years":          duration,
				"fixed_income_weight_pct": wFixedIncome * 100,
			},
		}

	case ScenarioCreditUp150bp:
		if in.SpreadDurationYrs == nil {
			return StressResult{ID: id, Description: "Credit spreads +150bp", PnlPct: nil, Drivers: map[string]float64{}}
		}
		wCredit := in.AssetClassWeights["credit"]
		spreadDuration := *in.SpreadDurationYrs
		pnl := -1.5 * spreadDuration * wCredit
		return StressResult{
			ID:          id,
			Description: "Credit spreads +150bp",
			PnlPct:      &pnl,
			Drivers: map[string]float64{
				"spread_duration_years": spreadDuration,
				"credit_weight_pct":     wCredit * 100,
			},
		}
	}
	return StressResult{ID: id, Description: "unknown scenario", PnlPct: nil, Drivers: map[string]float64{}}
}

// RunStressScenarios evaluates the requested subset of scenario identifiers
// in the order given; an empty selection runs every built-in in
// AllScenarios' order.
func RunStressScenarios(selection []string, in StressInputs) []StressResult {
	ids := selection
	if len(ids) == 0 {
		ids = AllScenarios
	}
	results := make([]StressResult, 0, len(ids))
	for _, id := range ids {
		results = append(results, RunStressScenario(id, in))
	}
	return results
}
