package dashboard

import (
	"github.com/couchcryptid/quake-dashboard/internal/basemap"
	"github.com/couchcryptid/quake-dashboard/internal/domain"
)

// Layer identifies a toggleable map overlay.
type Layer string

const (
	LayerEarthquakes Layer = "earthquakes"
	LayerFaults      Layer = "faults"
)

// Layers lists the overlays in display order.
var Layers = []Layer{LayerEarthquakes, LayerFaults}

// ParseLayer validates a layer name.
func ParseLayer(s string) (Layer, bool) {
	switch Layer(s) {
	case LayerEarthquakes, LayerFaults:
		return Layer(s), true
	}
	return "", false
}

// MarkerStyle is the circle marker appearance for an earthquake.
type MarkerStyle struct {
	Radius      int     `json:"radius"`
	FillColor   string  `json:"fillColor"`
	Color       string  `json:"color"`
	Weight      int     `json:"weight"`
	Opacity     float64 `json:"opacity"`
	FillOpacity float64 `json:"fillOpacity"`
}

// MarkerStyleFor sizes and colors a marker by magnitude tier.
func MarkerStyleFor(mag float64) MarkerStyle {
	return MarkerStyle{
		Radius:      domain.RadiusFor(mag),
		FillColor:   domain.ColorFor(mag),
		Color:       "#fff",
		Weight:      1,
		Opacity:     0.9,
		FillOpacity: 0.8,
	}
}

// LineStyle is the polyline appearance for tectonic lineaments.
type LineStyle struct {
	Color     string  `json:"color"`
	Weight    int     `json:"weight"`
	Opacity   float64 `json:"opacity"`
	DashArray string  `json:"dashArray,omitempty"`
}

// FaultLineStyle is the dashed red style used for the faults layer.
var FaultLineStyle = LineStyle{
	Color:     "#ff6b6b",
	Weight:    2,
	Opacity:   0.7,
	DashArray: "5, 5",
}

// PopupBuilder produces popup content for one lineament.
type PopupBuilder func(domain.Lineament) domain.Popup

// MapRenderer draws the map surface of one session.
type MapRenderer interface {
	AddMarker(pos domain.Position, style MarkerStyle, popup domain.Popup)
	ClearMarkers()
	AddPolylineLayer(lineaments []domain.Lineament, style LineStyle, popup PopupBuilder)
	SetBasemap(b basemap.Basemap)
	FlyTo(pos domain.Position, zoom int)
	ToggleLayer(layer Layer, visible bool)
	SetVisibleCount(n int)
}

// ChartRenderer draws the timeline and magnitude-over-time charts. Each
// call replaces the previous chart.
type ChartRenderer interface {
	RenderBarSeries(labels []string, values []int)
	RenderScatterSeries(points []domain.ScatterPoint, colors []string, radii []float64)
}

// PanelRenderer fills the summary, distribution, and major-event panels.
type PanelRenderer interface {
	RenderSummary(s domain.Summary)
	RenderMagnitudeHistogram(rows []domain.BucketCount)
	RenderMajorEvents(events []domain.MajorEvent)
}

// Renderers is the set of presentation surfaces owned by one session.
type Renderers struct {
	Map    MapRenderer
	Charts ChartRenderer
	Panels PanelRenderer
}

// RendererFactory creates fresh surfaces for a new session.
type RendererFactory func() Renderers
