// Package dashboard owns the per-session view state and drives the map,
// chart, and panel renderers from the feature store.
package dashboard

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/quake-dashboard/internal/basemap"
	"github.com/couchcryptid/quake-dashboard/internal/domain"
	"github.com/couchcryptid/quake-dashboard/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Initial map view and the zoom used when focusing an event.
var InitialCenter = domain.Position{Longitude: 96.0, Latitude: 21.5}

const (
	InitialZoom = 7
	FocusZoom   = 10
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEventNotFound   = errors.New("event not found")
	ErrUnknownBasemap  = errors.New("unknown basemap")
	ErrUnknownLayer    = errors.New("unknown layer")
)

// Catalog is the read side of the feature store.
type Catalog interface {
	Events() []domain.Event
	Lineaments() []domain.Lineament
	Event(id string) (domain.Event, bool)
}

// Controller holds the application state: loaded-feed flags and the open
// sessions. Feed completions and user actions both arrive here.
type Controller struct {
	store        Catalog
	basemaps     *basemap.Catalog
	newRenderers RendererFactory
	loc          *time.Location
	clock        clockwork.Clock
	logger       *slog.Logger
	metrics      *observability.Metrics

	mu               sync.RWMutex
	sessions         map[string]*Session
	earthquakesReady bool
	faultsReady      bool
}

// NewController creates a controller with no sessions. loc is the display
// timezone for month buckets and popup times.
func NewController(store Catalog, basemaps *basemap.Catalog, factory RendererFactory, loc *time.Location, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Controller {
	if loc == nil {
		loc = time.Local
	}
	return &Controller{
		store:        store,
		basemaps:     basemaps,
		newRenderers: factory,
		loc:          loc,
		clock:        clock,
		logger:       logger,
		metrics:      metrics,
		sessions:     make(map[string]*Session),
	}
}

// Location returns the display timezone.
func (c *Controller) Location() *time.Location { return c.loc }

// Basemaps returns the basemap catalog.
func (c *Controller) Basemaps() *basemap.Catalog { return c.basemaps }

// Open creates a session on the default basemap with every layer visible,
// centred on the initial view, and renders whatever feeds have loaded.
func (c *Controller) Open() *Session {
	bm, _ := c.basemaps.Get(c.basemaps.DefaultID())
	s := &Session{
		id:       uuid.NewString(),
		openedAt: c.clock.Now(),
		state: State{
			MinMagnitude: domain.MinThreshold,
			Basemap:      bm.ID,
			Layers:       map[Layer]bool{LayerEarthquakes: true, LayerFaults: true},
		},
		renderers: c.newRenderers(),
	}

	s.renderers.Map.SetBasemap(bm)
	s.renderers.Map.FlyTo(InitialCenter, InitialZoom)
	for _, l := range Layers {
		s.renderers.Map.ToggleLayer(l, true)
	}

	// Holding the write lock while rendering keeps Open ordered against
	// feed completions, so a session never misses a feed.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.earthquakesReady {
		c.renderEarthquakes(s, c.store.Events())
	}
	if c.faultsReady {
		c.renderFaults(s, c.store.Lineaments())
	}
	c.sessions[s.id] = s
	c.metrics.SessionsActive.Set(float64(len(c.sessions)))

	c.logger.Debug("session opened", "session_id", s.id)
	return s
}

// Session looks up an open session.
func (c *Controller) Session(id string) (*Session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// SessionCount returns the number of open sessions.
func (c *Controller) SessionCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// Close tears down a session.
func (c *Controller) Close(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	delete(c.sessions, id)
	c.metrics.SessionsActive.Set(float64(len(c.sessions)))
	c.logger.Debug("session closed", "session_id", id, "open_for", c.clock.Since(s.OpenedAt()))
	return nil
}

// CloseAll tears down every session, on process shutdown.
func (c *Controller) CloseAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.sessions)
	clear(c.sessions)
	c.metrics.SessionsActive.Set(0)
	if n > 0 {
		c.logger.Info("sessions closed", "count", n)
	}
}

// SetMinMagnitude applies a new magnitude threshold and redraws the
// markers from the full event collection. The read lock orders the redraw
// against EarthquakesLoaded so a stale pre-load snapshot never wins.
func (c *Controller) SetMinMagnitude(id string, minMagnitude float64) (State, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[id]
	if !ok {
		return State{}, ErrSessionNotFound
	}
	events := []domain.Event{}
	if c.earthquakesReady {
		events = c.store.Events()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.MinMagnitude = domain.NormalizeThreshold(minMagnitude)
	c.renderMarkers(s, events)
	c.metrics.FilterApplications.Inc()
	return s.state.clone(), nil
}

// ToggleLayer shows or hides an overlay.
func (c *Controller) ToggleLayer(id string, layer Layer, visible bool) (State, error) {
	if _, ok := ParseLayer(string(layer)); !ok {
		return State{}, ErrUnknownLayer
	}
	s, err := c.Session(id)
	if err != nil {
		return State{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Layers[layer] = visible
	s.renderers.Map.ToggleLayer(layer, visible)
	return s.state.clone(), nil
}

// SelectBasemap swaps the tile layer.
func (c *Controller) SelectBasemap(id, basemapID string) (State, error) {
	bm, ok := c.basemaps.Get(basemapID)
	if !ok {
		return State{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownBasemap, basemapID, strings.Join(c.basemaps.IDs(), ", "))
	}
	s, err := c.Session(id)
	if err != nil {
		return State{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Basemap = bm.ID
	s.renderers.Map.SetBasemap(bm)
	return s.state.clone(), nil
}

// FocusEvent flies the session's map to an event.
func (c *Controller) FocusEvent(id, eventID string) (State, error) {
	s, err := c.Session(id)
	if err != nil {
		return State{}, err
	}
	e, ok := c.store.Event(eventID)
	if !ok {
		return State{}, ErrEventNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.FocusedEvent = e.ID
	s.renderers.Map.FlyTo(e.Position(), FocusZoom)
	return s.state.clone(), nil
}

// EarthquakesLoaded is the earthquake feed completion handler. On success
// every open session renders markers, charts, and panels.
func (c *Controller) EarthquakesLoaded(count int, err error) {
	if err != nil {
		c.logger.Error("earthquake layer unavailable", "error", err)
		return
	}
	events := c.store.Events()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.earthquakesReady = true
	for _, s := range c.sessions {
		c.renderEarthquakes(s, events)
	}
	c.logger.Info("earthquake views rendered", "events", count, "sessions", len(c.sessions))
}

// LineamentsLoaded is the tectonic feed completion handler.
func (c *Controller) LineamentsLoaded(count int, err error) {
	if err != nil {
		c.logger.Error("faults layer unavailable", "error", err)
		return
	}
	lineaments := c.store.Lineaments()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.faultsReady = true
	for _, s := range c.sessions {
		c.renderFaults(s, lineaments)
	}
	c.logger.Info("faults layer rendered", "lineaments", count, "sessions", len(c.sessions))
}

// renderEarthquakes draws every earthquake-derived surface. Charts and
// panels always use the full collection; only markers follow the filter.
func (c *Controller) renderEarthquakes(s *Session, events []domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.renderMarkers(s, events)

	months := domain.MonthlyHistogram(events, c.loc)
	s.renderers.Charts.RenderBarSeries(months.Labels, months.Counts)

	points := domain.ScatterSeries(events)
	colors := make([]string, len(points))
	radii := make([]float64, len(points))
	for i, p := range points {
		colors[i] = p.Color
		radii[i] = p.Radius
	}
	s.renderers.Charts.RenderScatterSeries(points, colors, radii)

	s.renderers.Panels.RenderSummary(domain.Summarize(events))
	s.renderers.Panels.RenderMagnitudeHistogram(domain.MagnitudeHistogram(events))
	s.renderers.Panels.RenderMajorEvents(domain.MajorEvents(events, c.loc))
}

// renderMarkers requires s.mu.
func (c *Controller) renderMarkers(s *Session, events []domain.Event) {
	visible := domain.VisibleSubset(events, s.state.MinMagnitude)

	s.renderers.Map.ClearMarkers()
	for _, e := range visible {
		s.renderers.Map.AddMarker(e.Position(), MarkerStyleFor(e.Magnitude), domain.EventPopup(e, c.loc))
	}
	s.renderers.Map.SetVisibleCount(len(visible))
	s.state.VisibleCount = len(visible)
	c.metrics.VisibleEvents.Observe(float64(len(visible)))
}

func (c *Controller) renderFaults(s *Session, lineaments []domain.Lineament) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderers.Map.AddPolylineLayer(lineaments, FaultLineStyle, domain.LineamentPopup)
}
