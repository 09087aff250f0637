package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/threatmap-service/internal/adapter/api"
	"github.com/couchcryptid/threatmap-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/threatmap-service/internal/adapter/kafka"
	"github.com/couchcryptid/threatmap-service/internal/adapter/llm"
	"github.com/couchcryptid/threatmap-service/internal/adapter/mapbox"
	natsadapter "github.com/couchcryptid/threatmap-service/internal/adapter/nats"
	redisadapter "github.com/couchcryptid/threatmap-service/internal/adapter/redis"
	"github.com/couchcryptid/threatmap-service/internal/adapter/usgs"
	"github.com/couchcryptid/threatmap-service/internal/config"
	"github.com/couchcryptid/threatmap-service/internal/domain"
	"github.com/couchcryptid/threatmap-service/internal/feed"
	"github.com/couchcryptid/threatmap-service/internal/monitor"
	"github.com/couchcryptid/threatmap-service/internal/observability"
	"github.com/couchcryptid/threatmap-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := httpadapter.Checks{}

	// Optional Redis mirror of the threat snapshot.
	var mirror feed.Mirror
	if cfg.RedisAddr != "" {
		cache := redisadapter.NewSnapshotCache(redisadapter.NewClient(cfg.RedisAddr), cfg.RedisSnapshotTTL)
		mirror = cache
		checks["redis"] = cache
		logger.Info("redis snapshot mirror enabled", "addr", cfg.RedisAddr, "ttl", cfg.RedisSnapshotTTL)
	}

	store := feed.NewStore(mirror, cfg.ThreatRetention, clock, logger, metrics)
	if cfg.SeedThreats {
		store.Upsert(ctx, feed.OriginSeed, domain.SeedThreats(clock.Now()))
	}
	if _, err := store.Restore(ctx); err != nil {
		logger.Warn("threat snapshot restore failed", "error", err)
	}

	// Free-text location resolution (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var narrator domain.Narrator
	if cfg.LLMURL != "" {
		narrator = llm.NewClient(cfg.LLMURL, cfg.LLMModel, cfg.LLMTimeout, clock, logger)
		logger.Info("narrative service enabled", "url", cfg.LLMURL, "model", cfg.LLMModel)
	}

	deps := monitor.Deps{Threats: store, Geocoder: geocoder, Narrator: narrator}

	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		deps.Sink = writer
	}

	var alerts *natsadapter.Publisher
	if cfg.NATSURL != "" {
		alerts, err = natsadapter.Connect(cfg.NATSURL, cfg.NATSAlertSubject, logger)
		if err != nil {
			logger.Error("nats connect failed", "error", err)
			os.Exit(1)
		}
		deps.Alerter = alerts
		checks["nats"] = alerts
	}

	registry := monitor.New(deps, monitor.Options{
		DefaultRadiusKm: cfg.DefaultRadiusKm,
		GuestLimit:      cfg.GuestLocationLimit,
	}, clock, logger, metrics)

	if cfg.WatchlistFile != "" {
		wl, err := config.LoadWatchlist(cfg.WatchlistFile, cfg.DefaultRadiusKm)
		if err != nil {
			logger.Error("failed to load watchlist", "error", err)
			os.Exit(1)
		}
		if err := registry.Seed(wl.Locations, wl.Settings); err != nil {
			logger.Error("invalid watchlist", "error", err)
			os.Exit(1)
		}
		logger.Info("watchlist loaded", "file", cfg.WatchlistFile, "locations", len(wl.Locations))
	}

	store.OnChange(registry.Refresh)
	registry.Refresh(ctx)

	var p *pipeline.Pipeline
	if cfg.KafkaEnabled {
		p = pipeline.New(reader, pipeline.NewTransformer(logger), store, logger, metrics, cfg.BatchSize)
		checks["pipeline"] = p
	}

	handler := api.NewHandler(registry, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, checks, api.NewEngine(handler), logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ingestion pipeline.
	if p != nil {
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	// Drop threats that aged out of the retention window.
	go func() {
		if err := store.RunRetention(ctx, time.Minute); err != nil {
			logger.Error("retention loop error", "error", err)
		}
	}()

	// Start USGS poller.
	if cfg.USGSEnabled {
		fetcher := usgs.NewClient(cfg.USGSFeedURL, cfg.USGSTimeout, logger)
		poller := feed.NewPoller(fetcher, store, cfg.USGSPollInterval, clock, logger, metrics)
		go func() {
			if err := poller.Run(ctx); err != nil {
				logger.Error("usgs poller error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if alerts != nil {
		alerts.Close()
	}

	logger.Info("shutdown complete")
}
