package dashboard

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/quake-dashboard/internal/basemap"
	"github.com/couchcryptid/quake-dashboard/internal/domain"
	"github.com/couchcryptid/quake-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeCatalog struct {
	events     []domain.Event
	lineaments []domain.Lineament
}

func (f *fakeCatalog) Events() []domain.Event         { return append([]domain.Event(nil), f.events...) }
func (f *fakeCatalog) Lineaments() []domain.Lineament { return f.lineaments }
func (f *fakeCatalog) Event(id string) (domain.Event, bool) {
	for _, e := range f.events {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Event{}, false
}

// gatedCatalog models a store that has not loaded yet. The first Events
// call made before loaded is set parks until release closes, then returns
// the empty pre-load snapshot.
type gatedCatalog struct {
	*fakeCatalog
	loaded  atomic.Bool
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedCatalog) Events() []domain.Event {
	if g.loaded.Load() {
		return g.fakeCatalog.Events()
	}
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return []domain.Event{}
}

type recorder struct {
	mu         sync.Mutex
	markers    []domain.Position
	clears     int
	polylines  int
	lineCount  int
	basemap    string
	center     domain.Position
	zoom       int
	layers     map[Layer]bool
	count      int
	barLabels  []string
	barValues  []int
	scatter    int
	summary    *domain.Summary
	histogram  []domain.BucketCount
	majors     []domain.MajorEvent
	popupTitle string
}

func newRecorder() *recorder { return &recorder{layers: map[Layer]bool{}} }

func (r *recorder) AddMarker(pos domain.Position, _ MarkerStyle, popup domain.Popup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers = append(r.markers, pos)
	r.popupTitle = popup.Title
}

func (r *recorder) ClearMarkers() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers = nil
	r.clears++
}

func (r *recorder) AddPolylineLayer(l []domain.Lineament, _ LineStyle, _ PopupBuilder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polylines++
	r.lineCount = len(l)
}

func (r *recorder) SetBasemap(b basemap.Basemap) { r.basemap = b.ID }

func (r *recorder) FlyTo(pos domain.Position, zoom int) {
	r.center = pos
	r.zoom = zoom
}

func (r *recorder) ToggleLayer(l Layer, visible bool) { r.layers[l] = visible }
func (r *recorder) SetVisibleCount(n int)             { r.count = n }

func (r *recorder) RenderBarSeries(labels []string, values []int) {
	r.barLabels = labels
	r.barValues = values
}

func (r *recorder) RenderScatterSeries(points []domain.ScatterPoint, _ []string, _ []float64) {
	r.scatter = len(points)
}

func (r *recorder) RenderSummary(s domain.Summary)                  { r.summary = &s }
func (r *recorder) RenderMagnitudeHistogram(rows []domain.BucketCount) { r.histogram = rows }
func (r *recorder) RenderMajorEvents(events []domain.MajorEvent)       { r.majors = events }

type harness struct {
	mu        sync.Mutex
	ctl       *Controller
	store     Catalog
	recorders []*recorder
}

func (h *harness) last() *recorder {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.recorders[len(h.recorders)-1]
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, newFakeCatalog())
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		events: []domain.Event{
			quake("a", 4.2, "2023-01-05T10:00:00Z"),
			quake("b", 6.1, "2023-02-10T10:00:00Z"),
			quake("c", 7.5, "2023-01-20T10:00:00Z"),
		},
		lineaments: []domain.Lineament{
			{Name: "Sagaing Fault", Vertices: []domain.Position{{Longitude: 96, Latitude: 25}, {Longitude: 96, Latitude: 17}}},
		},
	}
}

func newHarnessWith(t *testing.T, store Catalog) *harness {
	t.Helper()
	h := &harness{store: store}
	factory := func() Renderers {
		r := newRecorder()
		h.mu.Lock()
		defer h.mu.Unlock()
		h.recorders = append(h.recorders, r)
		return Renderers{Map: r, Charts: r, Panels: r}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.ctl = NewController(h.store, basemap.Default(), factory, time.UTC,
		clockwork.NewFakeClockAt(time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC)),
		logger, observability.NewMetricsForTesting())
	return h
}

func quake(id string, mag float64, ts string) domain.Event {
	tm, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return domain.Event{ID: id, Magnitude: mag, Time: tm, Longitude: 96, Latitude: 21, Place: "Myanmar"}
}

// --- tests ---

func TestOpen_InitialState(t *testing.T) {
	h := newHarness(t)
	s := h.ctl.Open()
	assert.Equal(t, time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC), s.OpenedAt())
	r := h.last()

	assert.NotEmpty(t, s.ID())
	st := s.State()
	assert.Equal(t, "dark", st.Basemap)
	assert.InDelta(t, 0.0, st.MinMagnitude, 1e-9)
	assert.Equal(t, map[Layer]bool{LayerEarthquakes: true, LayerFaults: true}, st.Layers)

	assert.Equal(t, "dark", r.basemap)
	assert.Equal(t, InitialCenter, r.center)
	assert.Equal(t, InitialZoom, r.zoom)
	assert.Empty(t, r.markers, "nothing drawn before the feeds load")
	assert.Nil(t, r.summary)
	assert.Equal(t, 1, h.ctl.SessionCount())
}

func TestEarthquakesLoaded_RendersOpenSessions(t *testing.T) {
	h := newHarness(t)
	h.ctl.Open()
	h.ctl.Open()

	h.ctl.EarthquakesLoaded(3, nil)

	for _, r := range h.recorders {
		assert.Len(t, r.markers, 3)
		assert.Equal(t, 3, r.count)
		assert.Equal(t, []string{"Jan 23", "Feb 23"}, r.barLabels)
		assert.Equal(t, []int{2, 1}, r.barValues)
		assert.Equal(t, 3, r.scatter)
		require.NotNil(t, r.summary)
		assert.Equal(t, 3, r.summary.Total)
		assert.InDelta(t, 7.5, r.summary.MaxMagnitude, 1e-9)
		assert.InDelta(t, 5.9, r.summary.AvgMagnitude, 1e-9)
		require.Len(t, r.majors, 2)
		assert.Equal(t, "c", r.majors[0].ID)
		assert.Equal(t, "b", r.majors[1].ID)
		assert.Len(t, r.histogram, 5)
	}
}

func TestEarthquakesLoaded_FailureRendersNothing(t *testing.T) {
	h := newHarness(t)
	h.ctl.Open()
	h.ctl.EarthquakesLoaded(0, errors.New("fetch failed"))

	r := h.last()
	assert.Empty(t, r.markers)
	assert.Nil(t, r.summary)
}

func TestOpen_AfterLoadRendersImmediately(t *testing.T) {
	h := newHarness(t)
	h.ctl.EarthquakesLoaded(3, nil)
	h.ctl.LineamentsLoaded(1, nil)

	h.ctl.Open()
	r := h.last()
	assert.Len(t, r.markers, 3)
	assert.Equal(t, 1, r.polylines)
	assert.Equal(t, 1, r.lineCount)
}

func TestLineamentsLoaded_IndependentOfEarthquakes(t *testing.T) {
	h := newHarness(t)
	h.ctl.Open()
	h.ctl.EarthquakesLoaded(0, errors.New("boom"))
	h.ctl.LineamentsLoaded(1, nil)

	r := h.last()
	assert.Equal(t, 1, r.polylines)
	assert.Empty(t, r.markers)
}

func TestSetMinMagnitude_FiltersFromFullCollection(t *testing.T) {
	h := newHarness(t)
	s := h.ctl.Open()
	h.ctl.EarthquakesLoaded(3, nil)
	r := h.last()

	st, err := h.ctl.SetMinMagnitude(s.ID(), 6.0)
	require.NoError(t, err)
	assert.Equal(t, 2, st.VisibleCount)
	assert.Len(t, r.markers, 2)
	assert.Equal(t, 2, r.count)

	st, err = h.ctl.SetMinMagnitude(s.ID(), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, st.VisibleCount, "lowering the threshold restores markers")

	st, err = h.ctl.SetMinMagnitude(s.ID(), 11)
	require.NoError(t, err)
	assert.InDelta(t, domain.MaxThreshold, st.MinMagnitude, 1e-9)
	assert.Zero(t, st.VisibleCount)
	assert.Empty(t, r.markers)

	require.NotNil(t, r.summary)
	assert.Equal(t, 3, r.summary.Total, "summary is not affected by the filter")
}

func TestSetMinMagnitude_DuringLoadKeepsLoadedMarkers(t *testing.T) {
	cat := &gatedCatalog{
		fakeCatalog: newFakeCatalog(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	h := newHarnessWith(t, cat)
	s := h.ctl.Open()
	r := h.last()

	filtered := make(chan struct{})
	go func() {
		defer close(filtered)
		_, err := h.ctl.SetMinMagnitude(s.ID(), 0)
		assert.NoError(t, err)
	}()
	select {
	case <-cat.entered:
	case <-filtered:
	}

	cat.loaded.Store(true)
	loaded := make(chan struct{})
	go func() {
		defer close(loaded)
		h.ctl.EarthquakesLoaded(3, nil)
	}()
	<-loaded
	close(cat.release)
	<-filtered

	assert.Equal(t, 3, s.State().VisibleCount)
	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Len(t, r.markers, 3)
	assert.Equal(t, 3, r.count)
}

func TestSetMinMagnitude_BeforeLoadShowsNothing(t *testing.T) {
	h := newHarness(t)
	s := h.ctl.Open()

	st, err := h.ctl.SetMinMagnitude(s.ID(), 5.0)
	require.NoError(t, err)
	assert.Zero(t, st.VisibleCount)

	h.ctl.EarthquakesLoaded(3, nil)
	assert.Equal(t, 2, s.State().VisibleCount, "load honours the threshold set earlier")
}

func TestSetMinMagnitude_UnknownSession(t *testing.T) {
	h := newHarness(t)
	_, err := h.ctl.SetMinMagnitude("nope", 3)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestToggleLayer(t *testing.T) {
	h := newHarness(t)
	s := h.ctl.Open()

	st, err := h.ctl.ToggleLayer(s.ID(), LayerFaults, false)
	require.NoError(t, err)
	assert.False(t, st.Layers[LayerFaults])
	assert.True(t, st.Layers[LayerEarthquakes])
	assert.False(t, h.last().layers[LayerFaults])

	_, err = h.ctl.ToggleLayer(s.ID(), Layer("volcanoes"), true)
	require.ErrorIs(t, err, ErrUnknownLayer)
}

func TestSelectBasemap(t *testing.T) {
	h := newHarness(t)
	s := h.ctl.Open()

	st, err := h.ctl.SelectBasemap(s.ID(), "terrain")
	require.NoError(t, err)
	assert.Equal(t, "terrain", st.Basemap)
	assert.Equal(t, "terrain", h.last().basemap)

	_, err = h.ctl.SelectBasemap(s.ID(), "watercolor")
	require.ErrorIs(t, err, ErrUnknownBasemap)
	assert.Contains(t, err.Error(), "dark, satellite, terrain, light")
	assert.Equal(t, "terrain", s.State().Basemap)
}

func TestFocusEvent(t *testing.T) {
	h := newHarness(t)
	s := h.ctl.Open()

	st, err := h.ctl.FocusEvent(s.ID(), "c")
	require.NoError(t, err)
	assert.Equal(t, "c", st.FocusedEvent)
	r := h.last()
	assert.Equal(t, FocusZoom, r.zoom)
	assert.Equal(t, domain.Position{Longitude: 96, Latitude: 21}, r.center)

	_, err = h.ctl.FocusEvent(s.ID(), "zzz")
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestSessionsAreIndependent(t *testing.T) {
	h := newHarness(t)
	a := h.ctl.Open()
	b := h.ctl.Open()
	h.ctl.EarthquakesLoaded(3, nil)

	_, err := h.ctl.SetMinMagnitude(a.ID(), 7)
	require.NoError(t, err)

	assert.Equal(t, 1, a.State().VisibleCount)
	assert.Equal(t, 3, b.State().VisibleCount)
}

func TestClose(t *testing.T) {
	h := newHarness(t)
	s := h.ctl.Open()

	require.NoError(t, h.ctl.Close(s.ID()))
	_, err := h.ctl.Session(s.ID())
	require.ErrorIs(t, err, ErrSessionNotFound)
	require.ErrorIs(t, h.ctl.Close(s.ID()), ErrSessionNotFound)
}

func TestCloseAll(t *testing.T) {
	h := newHarness(t)
	h.ctl.Open()
	h.ctl.Open()
	h.ctl.CloseAll()
	assert.Zero(t, h.ctl.SessionCount())
}

func TestSession_MarshalJSON(t *testing.T) {
	h := newHarness(t)
	s := h.ctl.Open()

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var got struct {
		ID    string `json:"id"`
		State struct {
			Basemap string          `json:"basemap"`
			Layers  map[string]bool `json:"layers"`
		} `json:"state"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, s.ID(), got.ID)
	assert.Equal(t, "dark", got.State.Basemap)
	assert.True(t, got.State.Layers["faults"])
}

func TestOpenConcurrentWithLoad(t *testing.T) {
	h := newHarness(t)
	var wg sync.WaitGroup
	sessions := make(chan *Session, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sessions <- h.ctl.Open()
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.ctl.EarthquakesLoaded(3, nil)
	}()
	wg.Wait()
	close(sessions)

	for s := range sessions {
		assert.Equal(t, 3, s.State().VisibleCount, "every session sees the loaded feed exactly once")
	}
}

func TestMarkerStyleFor(t *testing.T) {
	st := MarkerStyleFor(7.5)
	assert.Equal(t, "#9b59b6", st.FillColor)
	assert.Equal(t, 18, st.Radius)
	assert.Equal(t, "#fff", st.Color)
	assert.InDelta(t, 0.8, st.FillOpacity, 1e-9)
}

func TestParseLayer(t *testing.T) {
	l, ok := ParseLayer("faults")
	assert.True(t, ok)
	assert.Equal(t, LayerFaults, l)
	_, ok = ParseLayer("Faults")
	assert.False(t, ok)
}
