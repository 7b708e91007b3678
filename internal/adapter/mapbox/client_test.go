package mapbox

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/energy-usage-report/internal/domain"
	"github.com/couchcryptid/energy-usage-report/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToken         = "test-token"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string, timeout time.Duration) *Client {
	c := NewClient(testToken, timeout, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.baseURL = baseURL
	return c
}

func serveFeatures(t *testing.T, features ...feature) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(response{Features: features}))
	}))
}

func TestClient_LocateCapital_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/New Zealand.json", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "country", r.URL.Query().Get("types"))
		assert.Equal(t, testToken, r.URL.Query().Get("access_token"))

		resp := response{Features: []feature{{
			Center:    []float64{172.0, -41.0},
			PlaceName: "New Zealand",
			Text:      "New Zealand",
			Relevance: 1,
		}}}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	result, err := c.LocateCapital(context.Background(), "New Zealand")
	require.NoError(t, err)

	assert.Equal(t, -41.0, result.Lat)
	assert.Equal(t, 172.0, result.Lon)
	assert.Equal(t, "New Zealand", result.PlaceName)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("success")))
}

func TestClient_LocateCapital_NoResults(t *testing.T) {
	srv := serveFeatures(t)
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	_, err := c.LocateCapital(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, domain.ErrCountryNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("empty")))
}

func TestClient_LocateCapital_LowRelevance(t *testing.T) {
	srv := serveFeatures(t, feature{Center: []float64{1, 2}, Text: "Somewhere", Relevance: 0.4})
	defer srv.Close()

	_, err := testClient(srv.URL, 5*time.Second).LocateCapital(context.Background(), "Smwhr")
	assert.ErrorIs(t, err, domain.ErrCountryNotFound)
}

func TestClient_LocateCapital_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not Authorized"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	_, err := c.LocateCapital(context.Background(), "Peru")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.NotErrorIs(t, err, domain.ErrCountryNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("error")))
}

func TestClient_LocateCapital_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 50*time.Millisecond).LocateCapital(context.Background(), "Peru")
	require.Error(t, err)
}

func TestClient_BehindReferenceChain(t *testing.T) {
	srv := serveFeatures(t, feature{Center: []float64{-58.4, -34.6}, Text: "Argentina", Relevance: 0.99})
	defer srv.Close()

	empty := domain.ChainLocator{}
	chain := domain.ChainLocator{empty, NewCachedLocator(testClient(srv.URL, 5*time.Second), 10, observability.NewMetricsForTesting())}

	result, err := chain.LocateCapital(context.Background(), "Argentina")
	require.NoError(t, err)
	assert.Equal(t, "Argentina", result.PlaceName)
}
