package observability

import (
	"time"

	"github.com/couchcryptid/diary-location-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for location
// resolution and the diary entry pipeline.
type Metrics struct {
	// Resolution metrics.
	Resolutions      *prometheus.CounterVec // labels: tier={message,user_config,system_default}, method={bare,pattern,none}
	ResolveDuration  prometheus.Histogram
	UserConfigLookup *prometheus.CounterVec // labels: outcome={found,absent,error}
	UserConfigCache  *prometheus.CounterVec // labels: result={hit,miss}
	DictionarySize   prometheus.Gauge

	// Pipeline metrics.
	MessagesConsumed        prometheus.Counter
	MessagesProduced        prometheus.Counter
	TransformErrors         prometheus.Counter
	PipelineRunning         prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.Resolutions,
		m.ResolveDuration,
		m.UserConfigLookup,
		m.UserConfigCache,
		m.DictionarySize,
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diary_location",
			Name:      "resolutions_total",
			Help:      help("Location resolutions by tier and extraction method."),
		}, []string{"tier", "method"}),
		ResolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "diary_location",
			Name:      "resolve_duration_seconds",
			Help:      help("Duration of a single resolution including the config lookup."),
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		}),
		UserConfigLookup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diary_location",
			Name:      "user_config_lookups_total",
			Help:      help("User config store reads by outcome."),
		}, []string{"outcome"}),
		UserConfigCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diary_location",
			Name:      "user_config_cache_total",
			Help:      help("User config cache lookups by result."),
		}, []string{"result"}),
		DictionarySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "diary_location",
			Name:      "dictionary_entries",
			Help:      help("Number of registered location display names."),
		}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "diary_location",
			Name:      "messages_consumed_total",
			Help:      help("Total diary messages read from the source topic."),
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "diary_location",
			Name:      "messages_produced_total",
			Help:      help("Total titled entries written to the sink topic."),
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "diary_location",
			Name:      "transform_errors_total",
			Help:      help("Total diary messages that could not be parsed."),
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "diary_location",
			Name:      "pipeline_running",
			Help:      help("1 when the pipeline is active, 0 when shut down."),
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "diary_location",
			Name:      "batch_size",
			Help:      help("Number of messages per batch extracted from Kafka."),
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "diary_location",
			Name:      "batch_processing_duration_seconds",
			Help:      help("Duration of a complete batch extract-transform-load cycle."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// ObserveResolution records the tier, extraction method, and latency of one
// Resolve call.
func (m *Metrics) ObserveResolution(r domain.ResolutionResult, elapsed time.Duration) {
	m.Resolutions.WithLabelValues(r.Tier.String(), r.Method.String()).Inc()
	m.ResolveDuration.Observe(elapsed.Seconds())
}
