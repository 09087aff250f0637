package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "threatmap"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Ingestion pipeline metrics.
	MessagesConsumed prometheus.Counter
	ThreatsLoaded    prometheus.Counter
	ParseErrors      prometheus.Counter
	LoadErrors       prometheus.Counter
	PipelineRunning  prometheus.Gauge

	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Feed metrics.
	FeedFetches    *prometheus.CounterVec // labels: source, outcome={success,error}
	ThreatsTracked prometheus.Gauge
	ThreatsExpired prometheus.Counter
	MirrorErrors   prometheus.Counter

	// Evaluation metrics.
	Evaluations          prometheus.Counter
	EvaluationDuration   prometheus.Histogram
	LocationRiskScore    *prometheus.GaugeVec   // labels: location_id
	AssessmentsPublished *prometheus.CounterVec // labels: outcome={success,error}
	AlertsPublished      *prometheus.CounterVec // labels: label, outcome

	// Narrative service metrics.
	NarrativeRequests *prometheus.CounterVec // labels: kind={summary,route}, outcome={success,error,skipped}

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward}
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total messages read from the threat source topic.",
		}),
		ThreatsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threats_loaded_total",
			Help:      "Total threat records upserted into the feed store.",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "Total threat records rejected at ingestion.",
		}),
		LoadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      "Failed attempts to load a parsed batch into the feed store.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the ingestion pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-parse-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fetches_total",
			Help:      "Upstream feed polls by source and outcome.",
		}, []string{"source", "outcome"}),
		ThreatsTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "threats_tracked",
			Help:      "Threats currently held in the feed snapshot.",
		}),
		ThreatsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threats_expired_total",
			Help:      "Threats dropped for being older than the retention window.",
		}),
		MirrorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_mirror_errors_total",
			Help:      "Failed writes of the threat snapshot to the mirror.",
		}),
		Evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Total location evaluations.",
		}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of a full watchlist re-evaluation.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		LocationRiskScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "location_risk_score",
			Help:      "Latest risk score per monitored location.",
		}, []string{"location_id"}),
		AssessmentsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_published_total",
			Help:      "Assessment events written to the sink topic by outcome.",
		}, []string{"outcome"}),
		AlertsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_published_total",
			Help:      "Escalation alerts published by label and outcome.",
		}, []string{"label", "outcome"}),
		NarrativeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narrative_requests_total",
			Help:      "Narrative service requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when place-name resolution is enabled, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.MessagesConsumed,
		m.ThreatsLoaded,
		m.ParseErrors,
		m.LoadErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.FeedFetches,
		m.ThreatsTracked,
		m.ThreatsExpired,
		m.MirrorErrors,
		m.Evaluations,
		m.EvaluationDuration,
		m.LocationRiskScore,
		m.AssessmentsPublished,
		m.AlertsPublished,
		m.NarrativeRequests,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	}
}
