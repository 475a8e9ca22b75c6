package calc

// RebalancePosition is one current holding considered by the rebalance
// solver.
type RebalancePosition struct {
	Ticker        string
	CurrentWeight float64
	IssuerID      string
	AssetClass    string
}

// RebalanceConstraints bounds the solver. Nil/empty fields mean "no limit".
type RebalanceConstraints struct {
	MaxSinglePositionWeight *float64
	MaxIssuerWeight         *float64
	AssetClassLimits        map[string]float64
	TargetAssetClassWeights map[string]float64
	MaxTurnover             *float64
}

// Trade is one ticker's prescribed weight change.
type Trade struct {
	Ticker        string
	CurrentWeight float64
	TargetWeight  float64
	Delta         float64
}

// RebalanceResult is the solver's output: final target weights, the implied
// trades, and turnover bookkeeping.
type RebalanceResult struct {
	TargetWeights       map[string]float64
	Trades              []Trade
	Turnover            float64
	TurnoverWithinLimit bool
	Warnings            []string
}

// SuggestRebalance runs the deterministic eight-step rebalance solver
// described for suggest_rebalance: per-position caps, issuer caps,
// asset-class caps, movement toward target class weights, renormalization,
// trade derivation, turnover capping, and infeasibility detection.
func SuggestRebalance(positions []RebalancePosition, c RebalanceConstraints) (RebalanceResult, error) {
	if len(positions) == 0 {
		return RebalanceResult{}, ErrInsufficientData
	}

	n := len(positions)
	tickers := make([]string, n)
	weights := make([]float64, n)
	for i, p := range positions {
		tickers[i] = p.Ticker
		weights[i] = p.CurrentWeight
	}

	// Step 1: cap each position individually.
	if c.MaxSinglePositionWeight != nil {
		capLimit := *c.MaxSinglePositionWeight
		// Infeasible in principle if even an equal split can't respect the cap.
		if capLimit*float64(n) < 1-1e-9 {
			return RebalanceResult{}, ErrConstraintsInfeasible
		}
		for i := range weights {
			if weights[i] > capLimit {
				weights[i] = capLimit
			}
		}
	}

	// Step 2: cap issuer-aggregated weight, scaling the issuer's tickers
	// proportionally.
	if c.MaxIssuerWeight != nil {
		byIssuer := map[string][]int{}
		for i, p := range positions {
			if p.IssuerID == "" {
				continue
			}
			byIssuer[p.IssuerID] = append(byIssuer[p.IssuerID], i)
		}
		for _, idx := range byIssuer {
			scaleGroup(weights, idx, *c.MaxIssuerWeight)
		}
	}

	// Step 3: cap asset-class weight, scaling the class's tickers
	// proportionally.
	if len(c.AssetClassLimits) > 0 {
		for class, limit := range c.AssetClassLimits {
			idx := []int{}
			for i, p := range positions {
				if p.AssetClass == class {
					idx = append(idx, i)
				}
			}
			scaleGroup(weights, idx, limit)
		}
	}

	// Step 4: move each class toward its target, distributing proportionally
	// to post-cap weights within the class, never exceeding the
	// per-position cap already applied in step 1.
	if len(c.TargetAssetClassWeights) > 0 {
		singleCap := 1.0
		if c.MaxSinglePositionWeight != nil {
			singleCap = *c.MaxSinglePositionWeight
		}
		for class, target := range c.TargetAssetClassWeights {
			idx := []int{}
			classSum := 0.0
			for i, p := range positions {
				if p.AssetClass == class {
					idx = append(idx, i)
					classSum += weights[i]
				}
			}
			if len(idx) == 0 || classSum == 0 {
				continue
			}
			factor := target / classSum
			for _, i := range idx {
				scaled := weights[i] * factor
				if scaled > singleCap {
					scaled = singleCap
				}
				weights[i] = scaled
			}
		}
	}

	// Step 5: renormalize to sum 1. When a per-position cap is in effect,
	// plain proportional scaling can push a position back over the cap it
	// was just capped to (e.g. capping the largest holding shrinks the
	// total, so naive renormalization inflates everyone, including the
	// position already at the cap). renormalizeCapped redistributes the
	// capped excess to the still-uncapped positions instead.
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return RebalanceResult{}, ErrConstraintsInfeasible
	}
	var target []float64
	if c.MaxSinglePositionWeight != nil {
		target = renormalizeCapped(weights, *c.MaxSinglePositionWeight)
	} else {
		target = make([]float64, n)
		for i, w := range weights {
			target[i] = w / total
		}
	}

	// Step 6: trades and turnover.
	trades := make([]Trade, n)
	turnover := 0.0
	for i := range positions {
		delta := target[i] - positions[i].CurrentWeight
		trades[i] = Trade{Ticker: tickers[i], CurrentWeight: positions[i].CurrentWeight, TargetWeight: target[i], Delta: delta}
		turnover += abs(delta)
	}
	turnover *= 0.5

	warnings := []string{}
	if c.MaxTurnover != nil && turnover > *c.MaxTurnover {
		factor := *c.MaxTurnover / turnover
		for i := range trades {
			trades[i].Delta *= factor
			trades[i].TargetWeight = trades[i].CurrentWeight + trades[i].Delta
		}
		turnover = *c.MaxTurnover
		warnings = append(warnings, "turnover scaled down to respect max_turnover; some position limits may be marginally violated")
	}

	targetWeights := make(map[string]float64, n)
	for _, t := range trades {
		targetWeights[t.Ticker] = t.TargetWeight
	}

	return RebalanceResult{
		TargetWeights:       targetWeights,
		Trades:              trades,
		Turnover:            turnover,
		TurnoverWithinLimit: true,
		Warnings:            warnings,
	}, nil
}

// renormalizeCapped scales weights to sum to 1 without letting any entry
// exceed capLimit. Positions whose proportional share would overflow the
// cap are pinned there and the remaining budget is redistributed among the
// still-uncapped positions, repeating until no position overflows.
func renormalizeCapped(weights []float64, capLimit float64) []float64 {
	n := len(weights)
	target := make([]float64, n)
	fixed := make([]bool, n)
	budget := 1.0
	for {
		sum := 0.0
		active := 0
		for i := 0; i < n; i++ {
			if !fixed[i] {
				sum += weights[i]
				active++
			}
		}
		if active == 0 || sum <= 0 {
			break
		}
		factor := budget / sum
		overflowed := false
		for i := 0; i < n; i++ {
			if fixed[i] {
				continue
			}
			scaled := weights[i] * factor
			if scaled > capLimit+1e-9 {
				target[i] = capLimit
				fixed[i] = true
				budget -= capLimit
				overflowed = true
			}
		}
		if !overflowed {
			for i := 0; i < n; i++ {
				if !fixed[i] {
					target[i] = weights[i] * factor
				}
			}
			break
		}
	}
	return target
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// scaleGroup scales the weights at idx down proportionally so their sum
// does not exceed limit. No-op if idx is empty or already within limit.
func scaleGroup(weights []float64, idx []int, limit float64) {
	if len(idx) == 0 {
		return
	}
	sum := 0.0
	for _, i := range idx {
		sum += weights[i]
	}
	if sum <= limit || sum == 0 {
		return
	}
	factor := limit / sum
	for _, i := range idx {
		weights[i] *= factor
	}
}
