package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/threatmap-service/internal/domain"
	"github.com/couchcryptid/threatmap-service/internal/observability"
)

// QuakeFetcher retrieves the current earthquake feed as threat records.
type QuakeFetcher interface {
	FetchQuakes(ctx context.Context) ([]domain.ThreatRecord, error)
}

// Poller periodically refreshes the USGS-owned part of the snapshot. A failed
// fetch keeps the previous data and marks the sensor degraded.
type Poller struct {
	fetcher  QuakeFetcher
	store    *Store
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewPoller creates a Poller that fetches every interval.
func NewPoller(fetcher QuakeFetcher, store *Store, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Poller {
	return &Poller{
		fetcher:  fetcher,
		store:    store,
		interval: interval,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run polls once immediately and then on every tick until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("usgs poller started", "interval", p.interval)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	p.PollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("usgs poller stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			p.PollOnce(ctx)
		}
	}
}

// PollOnce performs a single fetch and reports whether it succeeded.
func (p *Poller) PollOnce(ctx context.Context) bool {
	quakes, err := p.fetcher.FetchQuakes(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Warn("usgs fetch failed, keeping previous data", "error", err)
		p.metrics.FeedFetches.WithLabelValues(OriginUSGS, "error").Inc()
		p.store.SetSensorStatus(domain.USGSSensorID, domain.SensorDegraded)
		return false
	}

	p.metrics.FeedFetches.WithLabelValues(OriginUSGS, "success").Inc()
	p.store.SetSensorStatus(domain.USGSSensorID, domain.SensorOnline)
	if p.store.ReplaceOrigin(ctx, OriginUSGS, quakes) {
		p.logger.Debug("usgs feed refreshed", "quakes", len(quakes))
	}
	return true
}
