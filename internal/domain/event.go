package domain

import "time"

// Feed names used in logs, metrics, and errors.
const (
	FeedEarthquakes = "earthquakes"
	FeedTectonic    = "tectonic"
)

// Position is a WGS-84 longitude/latitude pair in degrees.
type Position struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Event is a single earthquake from the catalog feed. Events are immutable
// once the feature store has loaded them.
type Event struct {
	ID        string    `json:"id"`
	Magnitude float64   `json:"magnitude"`
	Place     string    `json:"place"`
	Time      time.Time `json:"time"`
	Longitude float64   `json:"longitude"`
	Latitude  float64   `json:"latitude"`
	DepthKm   *float64  `json:"depth_km,omitempty"`

	// PlaceSource records where Place came from: "feed", "reverse", or "failed".
	PlaceSource string `json:"place_source,omitempty"`
}

// Position returns the event epicentre.
func (e Event) Position() Position {
	return Position{Longitude: e.Longitude, Latitude: e.Latitude}
}

// Depth returns the reported depth and whether the feed carried one.
func (e Event) Depth() (float64, bool) {
	if e.DepthKm == nil {
		return 0, false
	}
	return *e.DepthKm, true
}

// TimeMillis returns the origin time as epoch milliseconds.
func (e Event) TimeMillis() int64 {
	return e.Time.UnixMilli()
}

// DefaultLineamentName is shown for lineaments without a name property.
const DefaultLineamentName = "Tectonic Lineament"

// Lineament is one tectonic line from the overlay feed.
type Lineament struct {
	Name     string     `json:"name,omitempty"`
	Vertices []Position `json:"vertices"`
}

// DisplayName returns the lineament name or DefaultLineamentName.
func (l Lineament) DisplayName() string {
	if l.Name == "" {
		return DefaultLineamentName
	}
	return l.Name
}
