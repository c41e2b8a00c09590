package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"najah-search-go/internal/config"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(config.GeocoderConfig{
		BaseURL:   srv.URL,
		UserAgent: "najah-search-test/1.0",
		Timeout:   2 * time.Second,
	})
	return srv, client
}

func TestResolve_BestRankedResult(t *testing.T) {
	var gotQuery, gotAgent string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"lat": "32.2211", "lon": "35.2544", "importance": 0.72},
			{"lat": "10.0", "lon": "10.0", "importance": 0.10}
		]`))
	})

	coords, confidence, err := client.Resolve(context.Background(), "Nablus")
	require.NoError(t, err)
	require.NotNil(t, coords)

	assert.Equal(t, "Nablus", gotQuery)
	assert.Equal(t, "najah-search-test/1.0", gotAgent)
	assert.InDelta(t, 32.2211, coords.Lat, 1e-6)
	assert.InDelta(t, 35.2544, coords.Lon, 1e-6)
	assert.InDelta(t, 0.72, confidence, 1e-9)
}

func TestResolve_UnknownPlace(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})

	coords, confidence, err := client.Resolve(context.Background(), "Nowhereville")
	require.NoError(t, err, "an unknown place is not an error")
	assert.Nil(t, coords)
	assert.Zero(t, confidence)
}

func TestResolve_ServerErrorSurfaces(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, _, err := client.Resolve(context.Background(), "Nablus")
	assert.Error(t, err)
}

func TestResolve_MalformedCoordinatesRejected(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat": "not-a-number", "lon": "35.0", "importance": 0.5}]`))
	})

	_, _, err := client.Resolve(context.Background(), "Nablus")
	assert.Error(t, err)
}

func TestResolve_OutOfRangeCoordinatesRejected(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat": "123.0", "lon": "35.0", "importance": 0.5}]`))
	})

	_, _, err := client.Resolve(context.Background(), "Nablus")
	assert.Error(t, err)
}

func TestResolve_ConfidenceClamped(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat": "31.9", "lon": "35.2", "importance": 3.4}]`))
	})

	_, confidence, err := client.Resolve(context.Background(), "Jerusalem")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, confidence, 1e-9)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "geocode:nablus", cacheKey("  Nablus "))
	assert.Equal(t, cacheKey("NABLUS"), cacheKey("nablus"))
}
