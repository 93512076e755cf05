package http

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/couchcryptid/quake-dashboard/internal/basemap"
	"github.com/couchcryptid/quake-dashboard/internal/dashboard"
	"github.com/couchcryptid/quake-dashboard/internal/domain"
	"github.com/couchcryptid/quake-dashboard/internal/feed"
	geojson "github.com/paulmach/go.geojson"
)

type statusResponse struct {
	Feeds    []feed.Status `json:"feeds"`
	Sessions int           `json:"sessions"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Feeds:    s.store.Status(),
		Sessions: s.controller.SessionCount(),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Summarize(s.store.Events()))
}

func (s *Server) handleMagnitudeHistogram(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.MagnitudeHistogram(s.store.Events()))
}

func (s *Server) handleMonthlyHistogram(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.MonthlyHistogram(s.store.Events(), s.controller.Location()))
}

func (s *Server) handleMajorEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.MajorEvents(s.store.Events(), s.controller.Location()))
}

// handleEvents returns the visible subset for ?min_mag= as GeoJSON, with
// the marker color and radius precomputed per feature.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	minMag := domain.MinThreshold
	if v := r.URL.Query().Get("min_mag"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			writeError(w, http.StatusBadRequest, "invalid_min_mag", fmt.Sprintf("min_mag must be a number, got %q", v))
			return
		}
		minMag = parsed
	}

	visible := domain.VisibleSubset(s.store.Events(), minMag)
	fc := geojson.NewFeatureCollection()
	for _, e := range visible {
		fc.AddFeature(eventFeature(e))
	}
	writeGeoJSON(w, fc)
}

func eventFeature(e domain.Event) *geojson.Feature {
	coords := []float64{e.Longitude, e.Latitude}
	if d, ok := e.Depth(); ok {
		coords = append(coords, d)
	}
	f := geojson.NewPointFeature(coords)
	f.ID = e.ID
	f.SetProperty("mag", e.Magnitude)
	f.SetProperty("place", e.Place)
	f.SetProperty("time", e.TimeMillis())
	f.SetProperty("severity", string(domain.SeverityOf(e.Magnitude)))
	f.SetProperty("tier", domain.TierOf(e.Magnitude).String())
	f.SetProperty("color", domain.ColorFor(e.Magnitude))
	f.SetProperty("radius", domain.RadiusFor(e.Magnitude))
	return f
}

func (s *Server) handleLineaments(w http.ResponseWriter, _ *http.Request) {
	fc := geojson.NewFeatureCollection()
	for _, l := range s.store.Lineaments() {
		coords := make([][]float64, len(l.Vertices))
		for i, v := range l.Vertices {
			coords[i] = []float64{v.Longitude, v.Latitude}
		}
		f := geojson.NewLineStringFeature(coords)
		f.SetProperty("name", l.DisplayName())
		fc.AddFeature(f)
	}
	writeGeoJSON(w, fc)
}

func writeGeoJSON(w http.ResponseWriter, fc *geojson.FeatureCollection) {
	data, err := fc.MarshalJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck // client may have gone away
}

type basemapsResponse struct {
	Default  string            `json:"default"`
	Basemaps []basemap.Basemap `json:"basemaps"`
}

func (s *Server) handleBasemaps(w http.ResponseWriter, _ *http.Request) {
	c := s.controller.Basemaps()
	writeJSON(w, http.StatusOK, basemapsResponse{Default: c.DefaultID(), Basemaps: c.List()})
}

// writeControllerError maps dashboard lookup failures to 404.
func (s *Server) writeControllerError(w http.ResponseWriter, err error) {
	code := "internal"
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, dashboard.ErrSessionNotFound):
		code, status = "session_not_found", http.StatusNotFound
	case errors.Is(err, dashboard.ErrEventNotFound):
		code, status = "event_not_found", http.StatusNotFound
	case errors.Is(err, dashboard.ErrUnknownBasemap):
		code, status = "unknown_basemap", http.StatusNotFound
	case errors.Is(err, dashboard.ErrUnknownLayer):
		code, status = "unknown_layer", http.StatusNotFound
	default:
		s.logger.Error("dashboard request failed", "error", err)
	}
	writeError(w, status, code, err.Error())
}
