package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ga_dashboard"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	// Source fetch metrics.
	FetchRequests *prometheus.CounterVec   // labels: scheme={http,file}, outcome={success,error}
	FetchDuration *prometheus.HistogramVec // labels: scheme
	FetchCache    *prometheus.CounterVec   // labels: result={hit,miss}

	// View lifecycle metrics.
	ViewLoads        *prometheus.CounterVec   // labels: view, outcome={ready,error,stale}
	ViewLoadDuration *prometheus.HistogramVec // labels: view
	JoinUnmatched    *prometheus.GaugeVec     // labels: view, side={features,records}
	ViewsReady       prometheus.Gauge

	// Rendering metrics.
	Renders        *prometheus.CounterVec   // labels: view, cache={hit,miss}
	RenderDuration *prometheus.HistogramVec // labels: view

	// Export metrics.
	RecordsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
	ExportEnabled    prometheus.Gauge
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.FetchCache,
		m.ViewLoads,
		m.ViewLoadDuration,
		m.JoinUnmatched,
		m.ViewsReady,
		m.Renders,
		m.RenderDuration,
		m.RecordsPublished,
		m.PublishErrors,
		m.ExportEnabled,
	)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Source fetches by scheme and outcome.",
		}, []string{"scheme", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Source fetch duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"scheme"}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_cache_total",
			Help:      "Source payload cache lookups by result.",
		}, []string{"result"}),
		ViewLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_loads_total",
			Help:      "View loads by view and outcome. Stale loads were superseded by a newer generation.",
		}, []string{"view", "outcome"}),
		ViewLoadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "view_load_duration_seconds",
			Help:      "Duration of a complete fetch-join-scale cycle per view.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"view"}),
		JoinUnmatched: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "join_unmatched",
			Help:      "Unmatched features or records in the latest join per view.",
		}, []string{"view", "side"}),
		ViewsReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "views_ready",
			Help:      "Number of views whose latest load succeeded.",
		}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "SVG render requests by view and cache result.",
		}, []string{"view", "cache"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent drawing a view to SVG.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"view"}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Joined records written to the export topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed export batches.",
		}),
		ExportEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "export_enabled",
			Help:      "1 when the joined-record export is enabled, 0 otherwise.",
		}),
	}
}
