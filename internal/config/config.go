package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// DefaultUSGSFeedURL is the public M4.5+ past-day earthquake summary feed.
const DefaultUSGSFeedURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/4.5_day.geojson"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Kafka ingestion and assessment sink.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string

	BatchSize          int
	BatchFlushInterval time.Duration

	// USGS earthquake feed polling.
	USGSEnabled      bool
	USGSFeedURL      string
	USGSPollInterval time.Duration
	USGSTimeout      time.Duration
	SeedThreats      bool

	// Feed records older than ThreatRetention (by event time) are dropped.
	ThreatRetention time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Narrative service. An empty URL disables it.
	LLMURL     string
	LLMModel   string
	LLMTimeout time.Duration

	// Optional snapshot mirror and alert fan-out. Empty addresses disable them.
	RedisAddr        string
	RedisSnapshotTTL time.Duration
	NATSURL          string
	NATSAlertSubject string

	WatchlistFile      string
	DefaultRadiusKm    float64
	GuestLocationLimit int
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is applied first if present;
// variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}
	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	p := &parser{}
	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:     p.bool("KAFKA_ENABLED", true),
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic: sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-threat-records"),
		KafkaSinkTopic:   sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "location-assessments"),
		KafkaGroupID:     sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "threatmap"),

		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		USGSEnabled:      p.bool("USGS_ENABLED", true),
		USGSFeedURL:      sharedcfg.EnvOrDefault("USGS_FEED_URL", DefaultUSGSFeedURL),
		USGSPollInterval: p.duration("USGS_POLL_INTERVAL", time.Minute),
		USGSTimeout:      p.duration("USGS_TIMEOUT", 10*time.Second),
		SeedThreats:      p.bool("SEED_THREATS", true),
		ThreatRetention:  p.duration("THREAT_RETENTION", 72*time.Hour),

		MapboxToken:     os.Getenv("MAPBOX_TOKEN"),
		MapboxTimeout:   p.duration("MAPBOX_TIMEOUT", 5*time.Second),
		MapboxCacheSize: p.positiveInt("MAPBOX_CACHE_SIZE", 1000),

		LLMURL:     os.Getenv("LLM_URL"),
		LLMModel:   sharedcfg.EnvOrDefault("LLM_MODEL", "llama3"),
		LLMTimeout: p.duration("LLM_TIMEOUT", 30*time.Second),

		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisSnapshotTTL: p.duration("REDIS_SNAPSHOT_TTL", time.Hour),
		NATSURL:          os.Getenv("NATS_URL"),
		NATSAlertSubject: sharedcfg.EnvOrDefault("NATS_ALERT_SUBJECT", "threatmap.alerts"),

		WatchlistFile:      os.Getenv("WATCHLIST_FILE"),
		DefaultRadiusKm:    p.positiveFloat("DEFAULT_RADIUS_KM", 200),
		GuestLocationLimit: p.positiveInt("GUEST_LOCATION_LIMIT", 2),
	}
	cfg.MapboxEnabled = p.bool("MAPBOX_ENABLED", cfg.MapboxToken != "")

	if p.err != nil {
		return nil, p.err
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if cfg.USGSEnabled && cfg.USGSFeedURL == "" {
		return nil, errors.New("USGS_FEED_URL is required when USGS_ENABLED is true")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// parser reads typed env values and keeps the first error, naming its key.
type parser struct {
	err error
}

func (p *parser) fail(key, value string) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: %q", key, value)
	}
}

func (p *parser) bool(key string, def bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		p.fail(key, s)
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		p.fail(key, s)
		return def
	}
	return d
}

func (p *parser) positiveInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		p.fail(key, s)
		return def
	}
	return n
}

func (p *parser) positiveFloat(key string, def float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		p.fail(key, s)
		return def
	}
	return f
}
