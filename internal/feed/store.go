package feed

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
	"github.com/couchcryptid/quake-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
)

// LoadState describes where a feed is in its single load attempt.
type LoadState string

const (
	StatePending LoadState = "pending"
	StateLoaded  LoadState = "loaded"
	StateFailed  LoadState = "failed"
)

// Status reports the outcome of a feed load.
type Status struct {
	Feed     string    `json:"feed"`
	Source   string    `json:"source,omitempty"`
	State    LoadState `json:"state"`
	Count    int       `json:"count"`
	Skipped  int       `json:"skipped"`
	Error    string    `json:"error,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitzero"`
}

// Settled reports whether the load has finished, successfully or not.
func (s Status) Settled() bool { return s.State != StatePending }

// LoadCallback is invoked when a feed load finishes.
type LoadCallback func(count int, err error)

// Store holds the in-memory earthquake and lineament collections. Each
// collection is written once by its loader and read concurrently by the
// dashboard and the HTTP API.
type Store struct {
	geocoder domain.ReverseGeocoder
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu              sync.RWMutex
	events          []domain.Event
	lineaments      []domain.Lineament
	eventStatus     Status
	lineamentStatus Status
}

// NewStore creates an empty store. geocoder may be nil, in which case
// events keep the place their feed published.
func NewStore(geocoder domain.ReverseGeocoder, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		geocoder:        geocoder,
		clock:           clock,
		logger:          logger,
		metrics:         metrics,
		events:          []domain.Event{},
		lineaments:      []domain.Lineament{},
		eventStatus:     Status{Feed: domain.FeedEarthquakes, State: StatePending},
		lineamentStatus: Status{Feed: domain.FeedTectonic, State: StatePending},
	}
}

// LoadEvents fetches and decodes the earthquake feed, replacing the event
// collection. On failure the collection is left empty and a *domain.FetchError
// is returned. There is no retry.
func (s *Store) LoadEvents(ctx context.Context, src Source) (int, error) {
	start := s.clock.Now()
	feed := domain.FeedEarthquakes

	data, err := src.Fetch(ctx)
	if err != nil {
		return 0, s.failEvents(src, err, start)
	}
	events, malformed, err := DecodeEvents(data)
	if err != nil {
		return 0, s.failEvents(src, err, start)
	}
	s.reportMalformed(feed, malformed)

	for i := range events {
		events[i] = domain.EnrichPlace(ctx, events[i], s.geocoder, s.logger)
	}

	now := s.clock.Now()
	s.mu.Lock()
	s.events = events
	s.eventStatus = Status{
		Feed:     feed,
		Source:   src.String(),
		State:    StateLoaded,
		Count:    len(events),
		Skipped:  len(malformed),
		LoadedAt: now,
	}
	s.mu.Unlock()

	s.recordSuccess(feed, len(events), start)
	s.logger.Info("feed loaded",
		"feed", feed,
		"source", src.String(),
		"count", len(events),
		"skipped", len(malformed),
	)
	return len(events), nil
}

// LoadLineaments fetches and decodes the tectonic overlay.
func (s *Store) LoadLineaments(ctx context.Context, src Source) (int, error) {
	start := s.clock.Now()
	feed := domain.FeedTectonic

	data, err := src.Fetch(ctx)
	if err != nil {
		return 0, s.failLineaments(src, err, start)
	}
	lineaments, malformed, err := DecodeLineaments(data)
	if err != nil {
		return 0, s.failLineaments(src, err, start)
	}
	s.reportMalformed(feed, malformed)

	now := s.clock.Now()
	s.mu.Lock()
	s.lineaments = lineaments
	s.lineamentStatus = Status{
		Feed:     feed,
		Source:   src.String(),
		State:    StateLoaded,
		Count:    len(lineaments),
		Skipped:  len(malformed),
		LoadedAt: now,
	}
	s.mu.Unlock()

	s.recordSuccess(feed, len(lineaments), start)
	s.logger.Info("feed loaded",
		"feed", feed,
		"source", src.String(),
		"count", len(lineaments),
		"skipped", len(malformed),
	)
	return len(lineaments), nil
}

// LoadAll starts both loads concurrently. Each callback runs on its
// loader's goroutine as soon as that feed settles, independent of the
// other feed. The returned channel is closed once both have settled.
func (s *Store) LoadAll(ctx context.Context, events, lineaments Source, onEvents, onLineaments LoadCallback) <-chan struct{} {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		n, err := s.LoadEvents(ctx, events)
		if onEvents != nil {
			onEvents(n, err)
		}
	}()
	go func() {
		defer wg.Done()
		n, err := s.LoadLineaments(ctx, lineaments)
		if onLineaments != nil {
			onLineaments(n, err)
		}
	}()
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

// Events returns a copy of the loaded events in feed order.
func (s *Store) Events() []domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

// Lineaments returns a copy of the loaded lineaments.
func (s *Store) Lineaments() []domain.Lineament {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lineaments)
}

// Event looks up a loaded event by id.
func (s *Store) Event(id string) (domain.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Event{}, false
}

// Status returns the earthquake and tectonic feed statuses, in that order.
func (s *Store) Status() []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return []Status{s.eventStatus, s.lineamentStatus}
}

// CheckReadiness returns nil once both feeds have settled. A failed feed
// still counts as settled: the dashboard renders without it.
func (s *Store) CheckReadiness(_ context.Context) error {
	var pending []string
	for _, st := range s.Status() {
		if !st.Settled() {
			pending = append(pending, st.Feed)
		}
	}
	if len(pending) > 0 {
		return fmt.Errorf("feeds still loading: %s", strings.Join(pending, ", "))
	}
	return nil
}

func (s *Store) failEvents(src Source, cause error, start time.Time) error {
	fetchErr := &domain.FetchError{Feed: domain.FeedEarthquakes, Source: src.String(), Err: cause}
	s.mu.Lock()
	s.events = []domain.Event{}
	s.eventStatus = failedStatus(domain.FeedEarthquakes, src, fetchErr)
	s.mu.Unlock()
	s.recordFailure(fetchErr, start)
	return fetchErr
}

func (s *Store) failLineaments(src Source, cause error, start time.Time) error {
	fetchErr := &domain.FetchError{Feed: domain.FeedTectonic, Source: src.String(), Err: cause}
	s.mu.Lock()
	s.lineaments = []domain.Lineament{}
	s.lineamentStatus = failedStatus(domain.FeedTectonic, src, fetchErr)
	s.mu.Unlock()
	s.recordFailure(fetchErr, start)
	return fetchErr
}

func failedStatus(feed string, src Source, err error) Status {
	return Status{
		Feed:   feed,
		Source: src.String(),
		State:  StateFailed,
		Error:  err.Error(),
	}
}

func (s *Store) reportMalformed(feed string, malformed []*domain.MalformedRecordError) {
	if len(malformed) == 0 {
		return
	}
	for _, m := range malformed {
		s.logger.Warn("skipping malformed feature", "feed", feed, "error", m)
	}
	s.metrics.MalformedRecords.WithLabelValues(feed).Add(float64(len(malformed)))
}

func (s *Store) recordSuccess(feed string, count int, start time.Time) {
	s.metrics.FeedLoads.WithLabelValues(feed, "success").Inc()
	s.metrics.FeedRecords.WithLabelValues(feed).Set(float64(count))
	s.metrics.FeedLoadDuration.WithLabelValues(feed).Observe(s.clock.Since(start).Seconds())
}

func (s *Store) recordFailure(err *domain.FetchError, start time.Time) {
	s.metrics.FeedLoads.WithLabelValues(err.Feed, "error").Inc()
	s.metrics.FeedRecords.WithLabelValues(err.Feed).Set(0)
	s.metrics.FeedLoadDuration.WithLabelValues(err.Feed).Observe(s.clock.Since(start).Seconds())
	s.logger.Error("feed load failed", "feed", err.Feed, "source", err.Source, "error", err.Err)
}
