package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json")

	logger.Info("hidden")
	logger.Warn("shown", "location_id", "loc-1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "loc-1", entry["location_id"])
	assert.Equal(t, "threatmap", entry["service"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "text")

	logger.Debug("feed polled", "threats", 3)

	assert.Contains(t, buf.String(), "msg=\"feed polled\"")
	assert.Contains(t, buf.String(), "threats=3")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}

func TestMetrics_Registerable(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { reg.MustRegister(m.collectors()...) })

	m.ThreatsLoaded.Add(3)
	m.LocationRiskScore.WithLabelValues("loc-1").Set(80)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ThreatsLoaded))
	assert.Equal(t, 80.0, testutil.ToFloat64(m.LocationRiskScore.WithLabelValues("loc-1")))
}
