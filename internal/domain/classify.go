package domain

import "math"

// Tier is the visual weight class of a magnitude. Higher tiers draw larger,
// more saturated markers.
type Tier int

const (
	TierMinor Tier = iota
	TierModerate
	TierMajor
	TierCritical
	TierExtreme
)

var tierNames = [...]string{"minor", "moderate", "major", "critical", "extreme"}

func (t Tier) String() string {
	if t < TierMinor || t > TierExtreme {
		return "unknown"
	}
	return tierNames[t]
}

type tierStyle struct {
	min    float64
	color  string
	radius int
}

// tierStyles is indexed by Tier. The minor tier has no lower bound.
var tierStyles = [...]tierStyle{
	TierMinor:    {min: math.Inf(-1), color: "#2ecc71", radius: 5},
	TierModerate: {min: 4.0, color: "#f1c40f", radius: 8},
	TierMajor:    {min: 5.0, color: "#e67e22", radius: 11},
	TierCritical: {min: 6.0, color: "#e74c3c", radius: 14},
	TierExtreme:  {min: 7.0, color: "#9b59b6", radius: 18},
}

// TierOf classifies a magnitude. NaN is treated as minor.
func TierOf(mag float64) Tier {
	for t := TierExtreme; t > TierMinor; t-- {
		if mag >= tierStyles[t].min {
			return t
		}
	}
	return TierMinor
}

// ColorFor returns the marker fill color for a magnitude.
func ColorFor(mag float64) string {
	return tierStyles[TierOf(mag)].color
}

// RadiusFor returns the map marker radius in pixels for a magnitude.
func RadiusFor(mag float64) int {
	return tierStyles[TierOf(mag)].radius
}

// ScatterRadiusFor returns the point radius used on the magnitude-over-time
// chart: magnitude minus two, never below three.
func ScatterRadiusFor(mag float64) float64 {
	if math.IsNaN(mag) {
		return 3
	}
	return math.Max(3, mag-2)
}

// Severity is the coarse classification used by the major-events list.
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// Major-events thresholds.
const (
	MajorThreshold    = 5.0
	CriticalThreshold = 6.0
)

// SeverityOf returns critical at M 6.0+, major at M 5.0+, normal otherwise.
func SeverityOf(mag float64) Severity {
	switch {
	case mag >= CriticalThreshold:
		return SeverityCritical
	case mag >= MajorThreshold:
		return SeverityMajor
	default:
		return SeverityNormal
	}
}

// IsMajor reports whether a magnitude belongs on the major-events list.
func IsMajor(mag float64) bool {
	return mag >= MajorThreshold
}
