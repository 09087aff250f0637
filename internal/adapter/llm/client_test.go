package llm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/threatmap-service/internal/domain"
)

var fixedTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestClient(url string) *Client {
	return NewClient(url+"/", "llama3", 5*time.Second, clockwork.NewFakeClockAt(fixedTime),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// modelServer replies with the given text and records the last request.
func modelServer(t *testing.T, reply string, got *generateRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		if got != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(generateResponse{Response: reply}))
	}))
	t.Cleanup(srv.Close)
	return srv
}

var (
	tokyo = domain.MonitoredLocation{ID: "tokyo", Name: "Tokyo", Latitude: 35.68, Longitude: 139.69, RadiusKm: 200}
	osaka = domain.MonitoredLocation{ID: "osaka", Name: "Osaka", Latitude: 34.69, Longitude: 135.50, RadiusKm: 200}
	quake = domain.ThreatRecord{
		ID: "t1", Type: domain.ThreatEarthquake, Severity: domain.SeverityHigh,
		Title: "M 6.2 Earthquake - Japan", Description: "Depth: 10km.", Latitude: 36.2, Longitude: 138.25,
		Source: "USGS Earthquake Feed",
	}
)

func TestClient_Summarize(t *testing.T) {
	var req generateRequest
	srv := modelServer(t, "  A strong quake hit central Japan.\n", &req)

	text, err := newTestClient(srv.URL).Summarize(context.Background(), tokyo, []domain.ThreatRecord{quake})
	require.NoError(t, err)
	assert.Equal(t, "A strong quake hit central Japan.", text)

	assert.Equal(t, "llama3", req.Model)
	assert.False(t, req.Stream)
	assert.Contains(t, req.Prompt, `"Tokyo"`)
	assert.Contains(t, req.Prompt, "- [EARTHQUAKE] (HIGH) M 6.2 Earthquake - Japan: Depth: 10km. (Source: USGS Earthquake Feed)")
}

func TestClient_Summarize_EmptyReply(t *testing.T) {
	srv := modelServer(t, "", nil)

	text, err := newTestClient(srv.URL).Summarize(context.Background(), tokyo, []domain.ThreatRecord{quake})
	require.NoError(t, err)
	assert.Equal(t, emptySummary, text)
}

func TestClient_Summarize_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Summarize(context.Background(), tokyo, []domain.ThreatRecord{quake})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_AnalyzeRoute(t *testing.T) {
	var req generateRequest
	srv := modelServer(t, `{"riskLevel":"high","summary":"Quake damage near the Chuo line.","alternatives":"Fly instead."}`, &req)

	got, err := newTestClient(srv.URL).AnalyzeRoute(context.Background(), tokyo, osaka, []domain.ThreatRecord{quake})
	require.NoError(t, err)

	assert.Equal(t, domain.RouteAnalysis{
		RiskLevel:    domain.SeverityHigh,
		Summary:      "Quake damage near the Chuo line.",
		Alternatives: "Fly instead.",
		Timestamp:    fixedTime,
	}, got)
	assert.Equal(t, "json", req.Format)
	assert.Contains(t, req.Prompt, "between Tokyo (35.68, 139.69) and Osaka (34.69, 135.5)")
	assert.Contains(t, req.Prompt, "M 6.2 Earthquake - Japan (HIGH) at 36.2,138.25")
}

func TestClient_AnalyzeRoute_MissingFields(t *testing.T) {
	srv := modelServer(t, `{"riskLevel":"LOW"}`, nil)

	got, err := newTestClient(srv.URL).AnalyzeRoute(context.Background(), tokyo, osaka, nil)
	require.NoError(t, err)
	assert.Equal(t, emptyRouteSummary, got.Summary)
	assert.Equal(t, emptyAlternatives, got.Alternatives)
}

func TestClient_AnalyzeRoute_Errors(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "unknown risk level", reply: `{"riskLevel":"UNKNOWN","summary":"x","alternatives":"y"}`},
		{name: "not json", reply: `the route looks fine`},
		{name: "empty", reply: ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := modelServer(t, tt.reply, nil)
			_, err := newTestClient(srv.URL).AnalyzeRoute(context.Background(), tokyo, osaka, nil)
			assert.Error(t, err)
		})
	}
}
