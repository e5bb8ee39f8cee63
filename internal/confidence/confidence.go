// Package confidence aggregates per-signal confidences into one scalar.
package confidence

import "math"

// Method names the aggregation recorded in workflow explainability metadata.
const Method = "weighted_mean"

// Precision is the number of decimal digits kept in aggregated results.
const Precision = 4

// Weighted is one confidence with its caller-supplied weight.
type Weighted struct {
	Confidence float64
	Weight     float64
}

// WeightedMean returns sum(c*w)/sum(w) rounded to Precision digits.
// ok is false when there are no inputs or the weights do not sum to a
// positive total; callers must treat that as "no confidence available".
func WeightedMean(in []Weighted) (mean float64, ok bool) {
	if len(in) == 0 {
		return 0, false
	}
	var num, total float64
	for _, w := range in {
		num += w.Confidence * w.Weight
		total += w.Weight
	}
	if total <= 0 {
		return 0, false
	}
	return round(num / total), true
}

func round(v float64) float64 {
	scale := math.Pow10(Precision)
	return math.Round(v*scale) / scale
}
