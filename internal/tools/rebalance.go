package tools

import (
	"context"
	"strings"

	"github.com/aristath/moex-risk-analytics/internal/calc"
	"github.com/aristath/moex-risk-analytics/internal/model"
)

// RebalancePosition is one current holding in a suggest_rebalance request.
type RebalancePosition struct {
	Ticker        string  `json:"ticker"`
	CurrentWeight float64 `json:"current_weight"`
	IssuerID      string  `json:"issuer_id,omitempty"`
	AssetClass    string  `json:"asset_class,omitempty"`
}

// RebalanceConstraintsInput is the constraint section of a suggest_rebalance
// request.
type RebalanceConstraintsInput struct {
	MaxSinglePositionWeight *float64           `json:"max_single_position_weight,omitempty"`
	MaxIssuerWeight         *float64           `json:"max_issuer_weight,omitempty"`
	AssetClassLimits        map[string]float64 `json:"asset_class_limits,omitempty"`
	TargetAssetClassWeights map[string]float64 `json:"target_asset_class_weights,omitempty"`
	MaxTurnover             *float64           `json:"max_turnover,omitempty"`
}

// SuggestRebalanceInput is the request body for suggest_rebalance.
type SuggestRebalanceInput struct {
	Positions   []RebalancePosition       `json:"positions"`
	Constraints RebalanceConstraintsInput `json:"constraints"`
}

// RebalanceTradeOut is one ticker's prescribed weight change.
type RebalanceTradeOut struct {
	Ticker        string  `json:"ticker"`
	CurrentWeight float64 `json:"current_weight"`
	TargetWeight  float64 `json:"target_weight"`
	Delta         float64 `json:"delta"`
}

// RebalanceSummary reports turnover bookkeeping and any solver warnings.
type RebalanceSummary struct {
	Turnover            float64  `json:"turnover"`
	TurnoverWithinLimit bool     `json:"turnover_within_limit"`
	Warnings            []string `json:"warnings,omitempty"`
}

// SuggestRebalanceOutput is the response envelope for suggest_rebalance.
type SuggestRebalanceOutput struct {
	Metadata      model.Metadata       `json:"metadata"`
	TargetWeights map[string]float64   `json:"target_weights"`
	Trades        []RebalanceTradeOut  `json:"trades"`
	Summary       *RebalanceSummary    `json:"summary"`
	Error         *model.ToolError     `json:"error"`
}

// RebalanceTool implements suggest_rebalance.
type RebalanceTool struct{}

// NewRebalanceTool builds a RebalanceTool.
func NewRebalanceTool() *RebalanceTool {
	return &RebalanceTool{}
}

// Run runs the deterministic rebalance solver.
func (t *RebalanceTool) Run(ctx context.Context, in SuggestRebalanceInput) SuggestRebalanceOutput {
	meta := newMetadata("", "")
	out := SuggestRebalanceOutput{Metadata: meta}

	if len(in.Positions) == 0 {
		out.Error = model.NewToolError(model.ErrEmptyPortfolio, "portfolio has no positions", nil)
		return out
	}

	seen := make(map[string]bool, len(in.Positions))
	positions := make([]calc.RebalancePosition, len(in.Positions))
	for i, p := range in.Positions {
		ticker := strings.ToUpper(strings.TrimSpace(p.Ticker))
		if ticker == "" {
			out.Error = model.NewToolError(model.ErrValidation, "position missing ticker", nil)
			return out
		}
		if seen[ticker] {
			out.Error = model.NewToolError(model.ErrValidation, "duplicate ticker: "+ticker, nil)
			return out
		}
		seen[ticker] = true
		positions[i] = calc.RebalancePosition{
			Ticker:        ticker,
			CurrentWeight: p.CurrentWeight,
			IssuerID:      p.IssuerID,
			AssetClass:    p.AssetClass,
		}
	}

	constraints := calc.RebalanceConstraints{
		MaxSinglePositionWeight: in.Constraints.MaxSinglePositionWeight,
		MaxIssuerWeight:         in.Constraints.MaxIssuerWeight,
		AssetClassLimits:        in.Constraints.AssetClassLimits,
		TargetAssetClassWeights: in.Constraints.TargetAssetClassWeights,
		MaxTurnover:             in.Constraints.MaxTurnover,
	}

	result, err := calc.SuggestRebalance(positions, constraints)
	if err != nil {
		out.Error = errorFrom(err)
		return out
	}

	trades := make([]RebalanceTradeOut, len(result.Trades))
	for i, tr := range result.Trades {
		trades[i] = RebalanceTradeOut{Ticker: tr.Ticker, CurrentWeight: tr.CurrentWeight, TargetWeight: tr.TargetWeight, Delta: tr.Delta}
	}

	out.TargetWeights = result.TargetWeights
	out.Trades = trades
	out.Summary = &RebalanceSummary{
		Turnover:            result.Turnover,
		TurnoverWithinLimit: result.TurnoverWithinLimit,
		Warnings:            result.Warnings,
	}
	return out
}
