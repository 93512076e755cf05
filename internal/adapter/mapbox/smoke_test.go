//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/quake-dashboard/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, 10*time.Second, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_ReverseGeocode(t *testing.T) {
	c := smokeClient(t)

	// Mandalay epicentre of the 2025 M7.7 earthquake.
	result, err := c.ReverseGeocode(context.Background(), 22.0108, 95.9223)
	require.NoError(t, err)

	assert.Contains(t, result.FormattedAddress, "Myanmar")
	assert.NotEmpty(t, result.PlaceName)
	assert.Greater(t, result.Confidence, 0.0)
}

func TestSmoke_ReverseGeocode_OpenOcean(t *testing.T) {
	c := smokeClient(t)

	// Andaman Sea; the API may return nothing, which is not an error.
	_, err := c.ReverseGeocode(context.Background(), 10.5, 95.5)
	require.NoError(t, err)
}

func TestSmoke_CachedGeocoder(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedGeocoder(smokeClient(t), 10, metrics)

	r1, err := cached.ReverseGeocode(context.Background(), 16.8409, 96.1735)
	require.NoError(t, err)
	r2, err := cached.ReverseGeocode(context.Background(), 16.8409, 96.1735)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
