// Package usgs fetches the USGS real-time earthquake GeoJSON feed.
package usgs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/threatmap-service/internal/domain"
)

// Client implements feed.QuakeFetcher.
type Client struct {
	feedURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the given GeoJSON summary feed URL.
func NewClient(feedURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		feedURL:    feedURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// FetchQuakes downloads the feed and normalizes every feature into a threat record.
func (c *Client) FetchQuakes(ctx context.Context) ([]domain.ThreatRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("usgs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("usgs feed error: status %d: %s", resp.StatusCode, body)
	}

	var coll domain.QuakeCollection
	if err := json.NewDecoder(resp.Body).Decode(&coll); err != nil {
		return nil, fmt.Errorf("decode usgs feed: %w", err)
	}

	threats := domain.NormalizeQuakes(coll)
	c.logger.Debug("usgs feed fetched", "features", len(coll.Features), "threats", len(threats))
	return threats, nil
}
