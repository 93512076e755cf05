package scene

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/couchcryptid/quake-dashboard/internal/dashboard"
	"github.com/couchcryptid/quake-dashboard/internal/domain"
)

// CountLabel is the visible-events status text, e.g. "42 events".
func CountLabel(n int) string {
	return fmt.Sprintf("%d events", n)
}

// BarSeries is the monthly timeline chart.
type BarSeries struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

// ScatterPoint is one point of the magnitude-over-time chart; X is epoch
// milliseconds.
type ScatterPoint struct {
	X int64   `json:"x"`
	Y float64 `json:"y"`
}

// ScatterSeries is the magnitude-over-time chart.
type ScatterSeries struct {
	Points []ScatterPoint `json:"points"`
	Colors []string       `json:"colors"`
	Radii  []float64      `json:"radii"`
}

// Charts records chart renderer calls. Each render replaces the previous
// chart of that kind.
type Charts struct {
	mu      sync.Mutex
	bar     *BarSeries
	scatter *ScatterSeries
}

var _ dashboard.ChartRenderer = (*Charts)(nil)

// NewCharts returns an empty chart scene.
func NewCharts() *Charts { return &Charts{} }

func (c *Charts) RenderBarSeries(labels []string, values []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bar = &BarSeries{Labels: labels, Values: values}
}

func (c *Charts) RenderScatterSeries(points []domain.ScatterPoint, colors []string, radii []float64) {
	series := &ScatterSeries{
		Points: make([]ScatterPoint, len(points)),
		Colors: colors,
		Radii:  radii,
	}
	for i, p := range points {
		series.Points[i] = ScatterPoint{X: p.Time.UnixMilli(), Y: p.Magnitude}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.scatter = series
}

// Timeline returns the bar series, or nil before the first render.
func (c *Charts) Timeline() *BarSeries {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bar
}

// Scatter returns the scatter series, or nil before the first render.
func (c *Charts) Scatter() *ScatterSeries {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scatter
}

func (c *Charts) MarshalJSON() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return json.Marshal(struct {
		Timeline *BarSeries     `json:"timeline"`
		Scatter  *ScatterSeries `json:"scatter"`
	}{c.bar, c.scatter})
}

// Panels records the summary, distribution, and major-event panels.
type Panels struct {
	mu        sync.Mutex
	summary   *domain.Summary
	histogram []domain.BucketCount
	majors    []domain.MajorEvent
}

var _ dashboard.PanelRenderer = (*Panels)(nil)

// NewPanels returns empty panels.
func NewPanels() *Panels { return &Panels{} }

func (p *Panels) RenderSummary(s domain.Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summary = &s
}

func (p *Panels) RenderMagnitudeHistogram(rows []domain.BucketCount) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.histogram = rows
}

func (p *Panels) RenderMajorEvents(events []domain.MajorEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.majors = events
}

// Summary returns the summary panel, or nil before the first render.
func (p *Panels) Summary() *domain.Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.summary
}

func (p *Panels) MarshalJSON() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return json.Marshal(struct {
		Summary     *domain.Summary      `json:"summary"`
		Histogram   []domain.BucketCount `json:"magnitude_histogram"`
		MajorEvents []domain.MajorEvent  `json:"major_events"`
	}{p.summary, p.histogram, p.majors})
}

// NewRenderers builds a fresh set of scene renderers for a session.
func NewRenderers() dashboard.Renderers {
	return dashboard.Renderers{
		Map:    NewMap(),
		Charts: NewCharts(),
		Panels: NewPanels(),
	}
}
