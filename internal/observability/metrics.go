package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "ipeds_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the import
// and enrichment pipelines.
type Metrics struct {
	RecordsRead            prometheus.Counter
	RecordsLoaded          prometheus.Counter
	TransformErrors        *prometheus.CounterVec // labels: kind={missing_field,invalid_literal,coercion,decode}
	ConsiderationFallbacks *prometheus.CounterVec // labels: field
	PipelineRunning        prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Timezone enrichment metrics.
	TimezoneLookups     *prometheus.CounterVec // labels: outcome={success,fallback}
	TimezoneAPIDuration prometheus.Histogram
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		RecordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_read_total",
			Help:      help("Total CSV rows read from the source file."),
		}),
		RecordsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_loaded_total",
			Help:      help("Total institutions written to the sink."),
		}),
		TransformErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      help("Rows rejected during normalization, by error kind."),
		}, []string{"kind"}),
		ConsiderationFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consideration_fallback_total",
			Help:      help("Unrecognized consideration literals folded into not_recommended, by column."),
		}, []string{"field"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 while a pipeline is active, 0 otherwise."),
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      help("Number of rows per extracted batch."),
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100, 250, 500},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      help("Duration of a complete batch extract-transform-load cycle."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		TimezoneLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timezone_lookups_total",
			Help:      help("Timezone lookups by outcome."),
		}, []string{"outcome"}),
		TimezoneAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "timezone_api_duration_seconds",
			Help:      help("Timezone API request duration in seconds."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// NewMetrics creates all pipeline metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newMetrics(true)
	reg.MustRegister(
		m.RecordsRead,
		m.RecordsLoaded,
		m.TransformErrors,
		m.ConsiderationFallbacks,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.TimezoneLookups,
		m.TimezoneAPIDuration,
	)
	return m
}

// NewRegistry returns a registry with the Go runtime and process collectors
// installed, for serving alongside the pipeline metrics.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}
