package mapbox

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/threatmap-service/internal/domain"
	"github.com/couchcryptid/threatmap-service/internal/observability"
)

type countingGeocoder struct {
	calls  int
	result domain.GeocodingResult
	err    error
}

func (m *countingGeocoder) ForwardGeocode(_ context.Context, _ string) (domain.GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

func paris() domain.GeocodingResult {
	return domain.GeocodingResult{Lat: 48.8566, Lon: 2.3522, PlaceName: "Paris", FormattedAddress: "Paris, France"}
}

func TestCachedGeocoder_HitNormalizesQuery(t *testing.T) {
	inner := &countingGeocoder{result: paris()}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedGeocoder(inner, 10, metrics)

	r1, err := cached.ForwardGeocode(context.Background(), "Paris")
	require.NoError(t, err)
	r2, err := cached.ForwardGeocode(context.Background(), "  PARIS ")
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("forward", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("forward", "miss")))
}

func TestCachedGeocoder_EmptyResultNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.ForwardGeocode(context.Background(), "nowhere")
	_, _ = cached.ForwardGeocode(context.Background(), "nowhere")

	assert.Equal(t, 2, inner.calls)
	assert.Zero(t, cached.Len())
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("boom")}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.ForwardGeocode(context.Background(), "Paris")
	require.Error(t, err)

	inner.err = nil
	inner.result = paris()
	r, err := cached.ForwardGeocode(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, "Paris", r.PlaceName)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_EvictsLeastRecentlyUsed(t *testing.T) {
	inner := &countingGeocoder{result: paris()}
	cached := NewCachedGeocoder(inner, 2, observability.NewMetricsForTesting())
	ctx := context.Background()

	_, _ = cached.ForwardGeocode(ctx, "a")
	_, _ = cached.ForwardGeocode(ctx, "b")
	_, _ = cached.ForwardGeocode(ctx, "a") // a becomes most recent
	_, _ = cached.ForwardGeocode(ctx, "c") // evicts b
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, 2, cached.Len())

	_, _ = cached.ForwardGeocode(ctx, "a")
	assert.Equal(t, 3, inner.calls)
	_, _ = cached.ForwardGeocode(ctx, "b")
	assert.Equal(t, 4, inner.calls)
}

func TestNewCachedGeocoder_ClampsSize(t *testing.T) {
	cached := NewCachedGeocoder(&countingGeocoder{result: paris()}, 0, observability.NewMetricsForTesting())
	_, _ = cached.ForwardGeocode(context.Background(), "x")
	assert.Equal(t, 1, cached.Len())
}
