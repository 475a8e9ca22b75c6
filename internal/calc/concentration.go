package calc

import "sort"

// ConcentrationResult reports top-K weight concentration and the
// Herfindahl-Hirschman Index over a set of portfolio weights (fractions).
type ConcentrationResult struct {
	Top1WeightPct float64
	Top3WeightPct float64
	Top5WeightPct float64
	HHI           float64
}

// Concentration computes top1/top3/top5 weight percentages and HHI from a
// slice of fractional weights (summing to ~1.0).
func Concentration(weights []float64) ConcentrationResult {
	sorted := make([]float64, len(weights))
	copy(sorted, weights)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	topK := func(k int) float64 {
		sum := 0.0
		for i := 0; i < k && i < len(sorted); i++ {
			sum += sorted[i]
		}
		return sum * 100
	}

	hhi := 0.0
	for _, w := range weights {
		hhi += w * w
	}

	return ConcentrationResult{
		Top1WeightPct: topK(1),
		Top3WeightPct: topK(3),
		Top5WeightPct: topK(5),
		HHI:           hhi,
	}
}
