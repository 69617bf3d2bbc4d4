package domain

import "math"

// ScoreRange is a closed interval of prior relevance scores assigned to one
// data-quality tier. The prior is a placeholder heuristic used when a provider
// reports no relevance signal of its own; it is not a measured relevance.
type ScoreRange struct {
	Min float64
	Max float64
}

// PriorRealSource is the tier for records fetched from a live provider.
var PriorRealSource = ScoreRange{Min: 0.6, Max: 1.0}

// Scale maps a fraction in [0, 1] into the range. Out-of-range and NaN input is clamped.
func (r ScoreRange) Scale(fraction float64) float64 {
	if math.IsNaN(fraction) || fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return r.Min + (r.Max-r.Min)*fraction
}
