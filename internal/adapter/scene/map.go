// Package scene implements the dashboard renderers as in-memory scene
// graphs that serialise to JSON for the browser map and chart libraries.
package scene

import (
	"encoding/json"
	"maps"
	"slices"
	"sync"

	"github.com/couchcryptid/quake-dashboard/internal/basemap"
	"github.com/couchcryptid/quake-dashboard/internal/dashboard"
	"github.com/couchcryptid/quake-dashboard/internal/domain"
)

// LatLng is a coordinate pair in [latitude, longitude] order, as Leaflet
// expects.
type LatLng [2]float64

func toLatLng(p domain.Position) LatLng { return LatLng{p.Latitude, p.Longitude} }

// Marker is a circle marker on the earthquakes layer.
type Marker struct {
	LatLng LatLng                `json:"latlng"`
	Style  dashboard.MarkerStyle `json:"style"`
	Popup  domain.Popup          `json:"popup"`
}

// Polyline is one drawn lineament.
type Polyline struct {
	LatLngs []LatLng     `json:"latlngs"`
	Popup   domain.Popup `json:"popup"`
}

// PolylineLayer is a group of polylines sharing one style.
type PolylineLayer struct {
	Style dashboard.LineStyle `json:"style"`
	Lines []Polyline          `json:"lines"`
}

// View is the map camera.
type View struct {
	Center LatLng `json:"center"`
	Zoom   int    `json:"zoom"`
}

// Map records map renderer calls.
type Map struct {
	mu           sync.Mutex
	basemap      basemap.Basemap
	view         View
	markers      []Marker
	polylines    []PolylineLayer
	layers       map[dashboard.Layer]bool
	visibleCount int
}

var _ dashboard.MapRenderer = (*Map)(nil)

// NewMap returns an empty map scene.
func NewMap() *Map {
	return &Map{
		markers:   []Marker{},
		polylines: []PolylineLayer{},
		layers:    make(map[dashboard.Layer]bool),
	}
}

func (m *Map) AddMarker(pos domain.Position, style dashboard.MarkerStyle, popup domain.Popup) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers = append(m.markers, Marker{LatLng: toLatLng(pos), Style: style, Popup: popup})
}

func (m *Map) ClearMarkers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers = m.markers[:0]
}

func (m *Map) AddPolylineLayer(lineaments []domain.Lineament, style dashboard.LineStyle, popup dashboard.PopupBuilder) {
	layer := PolylineLayer{Style: style, Lines: make([]Polyline, 0, len(lineaments))}
	for _, l := range lineaments {
		line := Polyline{LatLngs: make([]LatLng, len(l.Vertices))}
		for i, v := range l.Vertices {
			line.LatLngs[i] = toLatLng(v)
		}
		if popup != nil {
			line.Popup = popup(l)
		}
		layer.Lines = append(layer.Lines, line)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.polylines = append(m.polylines, layer)
}

func (m *Map) SetBasemap(b basemap.Basemap) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.basemap = b
}

func (m *Map) FlyTo(pos domain.Position, zoom int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = View{Center: toLatLng(pos), Zoom: zoom}
}

func (m *Map) ToggleLayer(layer dashboard.Layer, visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layers[layer] = visible
}

func (m *Map) SetVisibleCount(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visibleCount = n
}

// Markers returns a copy of the current markers.
func (m *Map) Markers() []Marker {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.markers)
}

// View returns the current camera.
func (m *Map) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

type mapJSON struct {
	Basemap      basemap.Basemap          `json:"basemap"`
	View         View                     `json:"view"`
	Layers       map[dashboard.Layer]bool `json:"layers"`
	Markers      []Marker                 `json:"markers"`
	Polylines    []PolylineLayer          `json:"polylines"`
	VisibleCount int                      `json:"visible_count"`
	CountLabel   string                   `json:"count_label"`
}

func (m *Map) MarshalJSON() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return json.Marshal(mapJSON{
		Basemap:      m.basemap,
		View:         m.view,
		Layers:       maps.Clone(m.layers),
		Markers:      m.markers,
		Polylines:    m.polylines,
		VisibleCount: m.visibleCount,
		CountLabel:   CountLabel(m.visibleCount),
	})
}
