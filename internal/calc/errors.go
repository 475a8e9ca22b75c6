// Package calc holds the pure, side-effect-free numerical kernel: returns,
// volatility, drawdown, concentration, correlation, VaR, stress, liquidity,
// peer ranking, and the rebalance solver. Every function here is safe to
// call concurrently on disjoint inputs — none of them suspend or share state.
package calc

import "errors"

// ErrInsufficientData is returned by the correlation matrix and portfolio
// value series calculations when there are too few aligned observations, or
// (correlation) when a series has zero variance, and by the rebalance solver
// for an empty portfolio.
var ErrInsufficientData = errors.New("insufficient data")

// ErrConstraintsInfeasible is returned by the rebalance solver when no
// feasible target allocation exists under the supplied constraints.
var ErrConstraintsInfeasible = errors.New("constraints infeasible")
