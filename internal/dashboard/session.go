package dashboard

import (
	"encoding/json"
	"maps"
	"sync"
	"time"
)

// State is the UI state of one session.
type State struct {
	MinMagnitude float64        `json:"min_magnitude"`
	Basemap      string         `json:"basemap"`
	Layers       map[Layer]bool `json:"layers"`
	VisibleCount int            `json:"visible_count"`
	FocusedEvent string         `json:"focused_event,omitempty"`
}

func (s State) clone() State {
	s.Layers = maps.Clone(s.Layers)
	return s
}

// Session is one dashboard view, typically a browser tab. All renderer
// calls for a session happen under its lock.
type Session struct {
	id       string
	openedAt time.Time

	mu        sync.Mutex
	state     State
	renderers Renderers
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// OpenedAt returns when the session was created.
func (s *Session) OpenedAt() time.Time { return s.openedAt }

// State returns a copy of the current UI state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

type sessionView struct {
	ID       string        `json:"id"`
	OpenedAt time.Time     `json:"opened_at"`
	State    State         `json:"state"`
	Map      MapRenderer   `json:"map"`
	Charts   ChartRenderer `json:"charts"`
	Panels   PanelRenderer `json:"panels"`
}

// MarshalJSON encodes the state and the rendered surfaces as one
// consistent snapshot.
func (s *Session) MarshalJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(sessionView{
		ID:       s.id,
		OpenedAt: s.openedAt,
		State:    s.state.clone(),
		Map:      s.renderers.Map,
		Charts:   s.renderers.Charts,
		Panels:   s.renderers.Panels,
	})
}
