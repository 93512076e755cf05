package domain

import "math"

// Magnitude threshold slider bounds.
const (
	MinThreshold  = 0.0
	MaxThreshold  = 10.0
	ThresholdStep = 0.1
)

// VisibleSubset returns the events with magnitude >= minMagnitude in their
// feed order. The input is never modified, so repeated calls with
// different thresholds always filter the full collection.
func VisibleSubset(events []Event, minMagnitude float64) []Event {
	visible := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Magnitude >= minMagnitude {
			visible = append(visible, e)
		}
	}
	return visible
}

// NormalizeThreshold clamps a slider value to [MinThreshold, MaxThreshold]
// and snaps it to ThresholdStep. NaN becomes MinThreshold.
func NormalizeThreshold(v float64) float64 {
	if math.IsNaN(v) {
		return MinThreshold
	}
	v = math.Min(math.Max(v, MinThreshold), MaxThreshold)
	return math.Round(v/ThresholdStep) * ThresholdStep
}
