package domain

import (
	"math"
	"sort"
	"time"
)

// DefaultDepthKm stands in for a missing depth when averaging.
const DefaultDepthKm = 10.0

// Summary holds the headline statistics for an event collection.
// An empty collection yields the zero Summary.
type Summary struct {
	Total        int     `json:"total"`
	MaxMagnitude float64 `json:"max_magnitude"`
	AvgMagnitude float64 `json:"avg_magnitude"`
	AvgDepthKm   float64 `json:"avg_depth_km"`
}

// Summarize computes count, max magnitude, and the one-decimal averages of
// magnitude and depth.
func Summarize(events []Event) Summary {
	if len(events) == 0 {
		return Summary{}
	}

	maxMag := math.Inf(-1)
	var magSum, depthSum float64
	for _, e := range events {
		if e.Magnitude > maxMag {
			maxMag = e.Magnitude
		}
		magSum += e.Magnitude

		depth, ok := e.Depth()
		if !ok {
			depth = DefaultDepthKm
		}
		depthSum += depth
	}

	n := float64(len(events))
	return Summary{
		Total:        len(events),
		MaxMagnitude: maxMag,
		AvgMagnitude: roundTenth(magSum / n),
		AvgDepthKm:   roundTenth(depthSum / n),
	}
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// MagnitudeBucket is one row of the magnitude distribution. A bucket holds
// magnitudes in [Min, upper), where upper is the next bucket's Min; the last
// bucket is unbounded. Max is the display upper bound only.
type MagnitudeBucket struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Color string  `json:"color"`

	upper float64
}

// Contains reports whether mag falls in the bucket.
func (b MagnitudeBucket) Contains(mag float64) bool {
	return mag >= b.Min && mag < b.upper
}

var magnitudeBuckets = []MagnitudeBucket{
	{Label: "M 2.5-3.9", Min: 2.5, Max: 3.9, Color: "#2ecc71", upper: 4.0},
	{Label: "M 4.0-4.9", Min: 4.0, Max: 4.9, Color: "#f1c40f", upper: 5.0},
	{Label: "M 5.0-5.9", Min: 5.0, Max: 5.9, Color: "#e67e22", upper: 6.0},
	{Label: "M 6.0-6.9", Min: 6.0, Max: 6.9, Color: "#e74c3c", upper: 7.0},
	{Label: "M 7.0+", Min: 7.0, Max: 10, Color: "#9b59b6", upper: math.Inf(1)},
}

// MagnitudeBuckets returns the fixed histogram buckets in ascending order.
func MagnitudeBuckets() []MagnitudeBucket {
	out := make([]MagnitudeBucket, len(magnitudeBuckets))
	copy(out, magnitudeBuckets)
	return out
}

// BucketCount is a histogram row. Percent is the bar width relative to the
// fullest bucket.
type BucketCount struct {
	MagnitudeBucket
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// MagnitudeHistogram counts events per magnitude bucket. Events below the
// first bucket are not counted anywhere.
func MagnitudeHistogram(events []Event) []BucketCount {
	rows := make([]BucketCount, len(magnitudeBuckets))
	for i, b := range magnitudeBuckets {
		rows[i].MagnitudeBucket = b
	}

	for _, e := range events {
		for i := range rows {
			if rows[i].Contains(e.Magnitude) {
				rows[i].Count++
				break
			}
		}
	}

	maxCount := 0
	for _, r := range rows {
		maxCount = max(maxCount, r.Count)
	}
	if maxCount > 0 {
		for i := range rows {
			rows[i].Percent = float64(rows[i].Count) / float64(maxCount) * 100
		}
	}
	return rows
}

// MonthSeries is the monthly event count as parallel, chronologically
// ordered slices. Months without events are omitted.
type MonthSeries struct {
	Keys   []string `json:"keys"`
	Labels []string `json:"labels"`
	Counts []int    `json:"counts"`
}

// Len returns the number of observed months.
func (s MonthSeries) Len() int { return len(s.Keys) }

const (
	monthKeyLayout   = "2006-01"
	monthLabelLayout = "Jan 06"
)

// MonthKey returns the "YYYY-MM" bucket of t in loc. A nil loc means time.Local.
func MonthKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(monthKeyLayout)
}

// MonthlyHistogram groups events by month of origin time in loc.
func MonthlyHistogram(events []Event, loc *time.Location) MonthSeries {
	counts := make(map[string]int)
	for _, e := range events {
		counts[MonthKey(e.Time, loc)]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	series := MonthSeries{
		Keys:   keys,
		Labels: make([]string, len(keys)),
		Counts: make([]int, len(keys)),
	}
	for i, k := range keys {
		series.Labels[i] = monthLabel(k)
		series.Counts[i] = counts[k]
	}
	return series
}

func monthLabel(key string) string {
	t, err := time.Parse(monthKeyLayout, key)
	if err != nil {
		return key
	}
	return t.Format(monthLabelLayout)
}

// MajorEvent is an entry of the major-events list.
type MajorEvent struct {
	Event
	Severity Severity `json:"severity"`
	Date     string   `json:"date"`
}

// MajorEvents returns events at or above MajorThreshold, strongest first.
// Equal magnitudes keep their feed order.
func MajorEvents(events []Event, loc *time.Location) []MajorEvent {
	if loc == nil {
		loc = time.Local
	}

	major := make([]MajorEvent, 0)
	for _, e := range events {
		if !IsMajor(e.Magnitude) {
			continue
		}
		major = append(major, MajorEvent{
			Event:    e,
			Severity: SeverityOf(e.Magnitude),
			Date:     e.Time.In(loc).Format(dateLayout),
		})
	}

	sort.SliceStable(major, func(i, j int) bool {
		return major[i].Magnitude > major[j].Magnitude
	})
	return major
}

// ScatterPoint is one point of the magnitude-over-time chart.
type ScatterPoint struct {
	Time      time.Time `json:"x"`
	Magnitude float64   `json:"y"`
	Color     string    `json:"color"`
	Radius    float64   `json:"radius"`
}

// ScatterSeries returns one point per event in ascending time order.
func ScatterSeries(events []Event) []ScatterPoint {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	points := make([]ScatterPoint, len(sorted))
	for i, e := range sorted {
		points[i] = ScatterPoint{
			Time:      e.Time,
			Magnitude: e.Magnitude,
			Color:     ColorFor(e.Magnitude),
			Radius:    ScatterRadiusFor(e.Magnitude),
		}
	}
	return points
}
