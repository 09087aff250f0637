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

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/threatmap-service/internal/observability"
)

const (
	testToken         = "test-token"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string, timeout time.Duration) *Client {
	c := NewClient(testToken, timeout, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	c.baseURL = baseURL
	return c
}

func TestClient_ForwardGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "Tokyo Tower")
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, testToken, r.URL.Query().Get("access_token"))

		resp := response{
			Features: []feature{{
				Center:    []float64{139.7454, 35.6586},
				PlaceName: "Tokyo Tower, Minato, Tokyo, Japan",
				Text:      "Tokyo Tower",
				Relevance: 0.97,
			}},
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	result, err := c.ForwardGeocode(context.Background(), "  Tokyo Tower ")
	require.NoError(t, err)

	assert.Equal(t, 35.6586, result.Lat)
	assert.Equal(t, 139.7454, result.Lon)
	assert.Equal(t, "Tokyo Tower, Minato, Tokyo, Japan", result.FormattedAddress)
	assert.Equal(t, "Tokyo Tower", result.PlaceName)
	assert.Equal(t, 0.97, result.Confidence)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("forward", "success")))
}

func TestClient_ForwardGeocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(response{Features: []feature{}}))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	result, err := c.ForwardGeocode(context.Background(), "Nowhereville")
	require.NoError(t, err)
	assert.Zero(t, result.Lat)
	assert.Empty(t, result.FormattedAddress)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("forward", "empty")))
}

func TestClient_ForwardGeocode_BlankQuerySkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer srv.Close()

	result, err := testClient(srv.URL, 5*time.Second).ForwardGeocode(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, result.FormattedAddress)
	assert.False(t, called)
}

func TestClient_ForwardGeocode_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not Authorized"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	_, err := c.ForwardGeocode(context.Background(), "Paris")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("forward", "error")))
}

func TestClient_ForwardGeocode_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 50*time.Millisecond).ForwardGeocode(context.Background(), "London")
	require.Error(t, err)
}
