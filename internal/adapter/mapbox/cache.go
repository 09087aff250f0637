package mapbox

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/threatmap-service/internal/domain"
	"github.com/couchcryptid/threatmap-service/internal/observability"
)

// CachedGeocoder wraps a Geocoder with a bounded LRU keyed by the normalized query.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lru.Cache[string, domain.GeocodingResult]
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder. A size below
// one is treated as one.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	if maxEntries < 1 {
		maxEntries = 1
	}
	cache, _ := lru.New[string, domain.GeocodingResult](maxEntries) // only errors on size <= 0
	return &CachedGeocoder{inner: inner, cache: cache, metrics: metrics}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	key := cacheKey(query)
	if result, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("forward", "hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("forward", "miss").Inc()

	result, err := c.inner.ForwardGeocode(ctx, query)
	if err != nil {
		return result, err
	}
	// Empty results are not cached so a later lookup can retry.
	if result.FormattedAddress != "" {
		c.cache.Add(key, result)
	}
	return result, nil
}

// Len reports the number of cached entries.
func (c *CachedGeocoder) Len() int {
	return c.cache.Len()
}

func cacheKey(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}
