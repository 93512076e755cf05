package feed

import (
	"bytes"
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
	geojson "github.com/paulmach/go.geojson"
)

// indexedFeature is a decoded feature and its position in the document.
// feature is nil when the document holds a JSON null.
type indexedFeature struct {
	index   int
	feature *geojson.Feature
}

// splitFeatures decodes each feature of a FeatureCollection on its own, so
// one unreadable feature is reported as malformed instead of failing the
// whole document. Only an unreadable envelope is an error.
func splitFeatures(data []byte, feed string) ([]indexedFeature, []*domain.MalformedRecordError, error) {
	var envelope struct {
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, nil, fmt.Errorf("decode feature collection: %w", err)
	}

	features := make([]indexedFeature, 0, len(envelope.Features))
	var malformed []*domain.MalformedRecordError
	for i, raw := range envelope.Features {
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			features = append(features, indexedFeature{index: i})
			continue
		}
		f, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			malformed = append(malformed, &domain.MalformedRecordError{
				Feed:   feed,
				Index:  i,
				ID:     rawFeatureID(raw),
				Reason: "invalid feature: " + err.Error(),
			})
			continue
		}
		features = append(features, indexedFeature{index: i, feature: f})
	}
	return features, malformed, nil
}

// rawFeatureID recovers the id of a feature that failed to decode.
func rawFeatureID(raw json.RawMessage) string {
	var probe struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return formatID(probe.ID)
}

func sortByIndex(malformed []*domain.MalformedRecordError) {
	slices.SortStableFunc(malformed, func(a, b *domain.MalformedRecordError) int {
		return cmp.Compare(a.Index, b.Index)
	})
}

// DecodeEvents parses an earthquake feed. Features missing a magnitude,
// time, or point coordinates are returned as malformed and left out.
func DecodeEvents(data []byte) ([]domain.Event, []*domain.MalformedRecordError, error) {
	features, malformed, err := splitFeatures(data, domain.FeedEarthquakes)
	if err != nil {
		return nil, nil, err
	}

	events := make([]domain.Event, 0, len(features))
	seen := make(map[string]struct{}, len(features))

	for _, item := range features {
		f := item.feature
		event, reason := parseEvent(f)
		if reason == "" {
			if _, dup := seen[event.ID]; dup {
				reason = "duplicate id"
			}
		}
		if reason != "" {
			malformed = append(malformed, &domain.MalformedRecordError{
				Feed:   domain.FeedEarthquakes,
				Index:  item.index,
				ID:     featureID(f),
				Reason: reason,
			})
			continue
		}
		seen[event.ID] = struct{}{}
		events = append(events, event)
	}
	sortByIndex(malformed)
	return events, malformed, nil
}

// parseEvent converts one feature, returning a non-empty reason when the
// feature cannot be used.
func parseEvent(f *geojson.Feature) (domain.Event, string) {
	if f == nil {
		return domain.Event{}, "null feature"
	}
	if f.Geometry == nil || !f.Geometry.IsPoint() {
		return domain.Event{}, "missing point geometry"
	}
	coords := f.Geometry.Point
	if len(coords) < 2 {
		return domain.Event{}, "coordinates need longitude and latitude"
	}
	lon, lat := coords[0], coords[1]
	if !validLongitude(lon) || !validLatitude(lat) {
		return domain.Event{}, "coordinates out of range"
	}

	mag, err := f.PropertyFloat64("mag")
	if err != nil || math.IsNaN(mag) || math.IsInf(mag, 0) {
		return domain.Event{}, "missing magnitude"
	}
	millis, err := f.PropertyFloat64("time")
	if err != nil {
		return domain.Event{}, "missing time"
	}

	event := domain.Event{
		ID:        featureID(f),
		Magnitude: mag,
		Place:     f.PropertyMustString("place", ""),
		Time:      time.UnixMilli(int64(millis)).UTC(),
		Longitude: lon,
		Latitude:  lat,
	}
	if len(coords) >= 3 {
		d := coords[2]
		event.DepthKm = &d
	}
	if event.ID == "" {
		event.ID = generateID(mag, int64(millis), lon, lat)
	}
	return event, ""
}

func featureID(f *geojson.Feature) string {
	if f == nil {
		return ""
	}
	return formatID(f.ID)
}

func formatID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	default:
		return fmt.Sprint(id)
	}
}

// generateID derives a stable id for features published without one, so
// reloading the same document yields the same ids.
func generateID(mag float64, millis int64, lon, lat float64) string {
	input := fmt.Sprintf("%g|%d|%.4f|%.4f", mag, millis, lon, lat)
	hash := sha256.Sum256([]byte(input))
	return "eq-" + hex.EncodeToString(hash[:8])
}

func validLongitude(v float64) bool { return !math.IsNaN(v) && v >= -180 && v <= 180 }
func validLatitude(v float64) bool  { return !math.IsNaN(v) && v >= -90 && v <= 90 }

// DecodeLineaments parses a tectonic overlay. Line and polygon geometries
// are split into one lineament per line or ring; point geometries are
// reported as malformed.
func DecodeLineaments(data []byte) ([]domain.Lineament, []*domain.MalformedRecordError, error) {
	features, malformed, err := splitFeatures(data, domain.FeedTectonic)
	if err != nil {
		return nil, nil, err
	}

	var lineaments []domain.Lineament

	for _, item := range features {
		i, f := item.index, item.feature
		if f == nil || f.Geometry == nil {
			malformed = append(malformed, &domain.MalformedRecordError{
				Feed: domain.FeedTectonic, Index: i, ID: featureID(f), Reason: "missing geometry",
			})
			continue
		}

		name := featureName(f)
		paths := linePaths(f.Geometry)
		if len(paths) == 0 {
			malformed = append(malformed, &domain.MalformedRecordError{
				Feed:   domain.FeedTectonic,
				Index:  i,
				ID:     featureID(f),
				Reason: fmt.Sprintf("no drawable lines in %s geometry", f.Geometry.Type),
			})
			continue
		}
		for _, p := range paths {
			lineaments = append(lineaments, domain.Lineament{Name: name, Vertices: p})
		}
	}
	if lineaments == nil {
		lineaments = []domain.Lineament{}
	}
	sortByIndex(malformed)
	return lineaments, malformed, nil
}

// featureName prefers "Name" over "name"; either may be absent.
func featureName(f *geojson.Feature) string {
	if name := f.PropertyMustString("Name", ""); name != "" {
		return name
	}
	return f.PropertyMustString("name", "")
}

func linePaths(g *geojson.Geometry) [][]domain.Position {
	var paths [][]domain.Position
	add := func(line [][]float64) {
		if p := toPositions(line); len(p) >= 2 {
			paths = append(paths, p)
		}
	}

	switch g.Type {
	case geojson.GeometryLineString:
		add(g.LineString)
	case geojson.GeometryMultiLineString:
		for _, line := range g.MultiLineString {
			add(line)
		}
	case geojson.GeometryPolygon:
		for _, ring := range g.Polygon {
			add(ring)
		}
	case geojson.GeometryMultiPolygon:
		for _, poly := range g.MultiPolygon {
			for _, ring := range poly {
				add(ring)
			}
		}
	case geojson.GeometryCollection:
		for _, child := range g.Geometries {
			if child != nil {
				paths = append(paths, linePaths(child)...)
			}
		}
	}
	return paths
}

func toPositions(line [][]float64) []domain.Position {
	out := make([]domain.Position, 0, len(line))
	for _, c := range line {
		if len(c) < 2 || !validLongitude(c[0]) || !validLatitude(c[1]) {
			continue
		}
		out = append(out, domain.Position{Longitude: c[0], Latitude: c[1]})
	}
	return out
}
