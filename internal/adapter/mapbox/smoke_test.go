//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/energy-usage-report/internal/domain"
	"github.com/couchcryptid/energy-usage-report/internal/observability"
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

func TestSmoke_LocateCapital(t *testing.T) {
	c := smokeClient(t)

	result, err := c.LocateCapital(context.Background(), "Germany")
	require.NoError(t, err)

	assert.InDelta(t, 51, result.Lat, 5, "lat should be inside Germany")
	assert.InDelta(t, 10, result.Lon, 5, "lon should be inside Germany")
	assert.Equal(t, "Germany", result.PlaceName)
	assert.Greater(t, result.Confidence, 0.8)
}

func TestSmoke_LocateCapital_Nonsense(t *testing.T) {
	c := smokeClient(t)

	_, err := c.LocateCapital(context.Background(), "XYZNONEXISTENT99")
	assert.ErrorIs(t, err, domain.ErrCountryNotFound)
}

func TestSmoke_CachedLocator(t *testing.T) {
	cached := NewCachedLocator(smokeClient(t), 10, observability.NewMetricsForTesting())

	r1, err := cached.LocateCapital(context.Background(), "Japan")
	require.NoError(t, err)
	r2, err := cached.LocateCapital(context.Background(), "Japan")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
