package domain

import (
	"context"
	"log/slog"
	"strings"
)

// Place sources recorded on Event.PlaceSource.
const (
	PlaceSourceFeed    = "feed"
	PlaceSourceReverse = "reverse"
	PlaceSourceFailed  = "failed"
)

// EnrichPlace fills an empty Place by reverse geocoding the epicentre.
// Events that already carry a place, or a nil geocoder, pass through with
// PlaceSource set to "feed". Geocoding errors are logged and leave Place empty.
func EnrichPlace(ctx context.Context, event Event, geocoder ReverseGeocoder, logger *slog.Logger) Event {
	if strings.TrimSpace(event.Place) != "" || geocoder == nil {
		event.PlaceSource = PlaceSourceFeed
		return event
	}

	result, err := geocoder.ReverseGeocode(ctx, event.Latitude, event.Longitude)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"event_id", event.ID,
			"lat", event.Latitude,
			"lon", event.Longitude,
			"error", err,
		)
		event.PlaceSource = PlaceSourceFailed
		return event
	}
	if result.FormattedAddress == "" {
		event.PlaceSource = PlaceSourceFeed
		return event
	}

	event.Place = result.FormattedAddress
	event.PlaceSource = PlaceSourceReverse
	return event
}
