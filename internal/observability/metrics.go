package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the feed service.
type Metrics struct {
	// Upstream fetch metrics.
	FetchRequests *prometheus.CounterVec   // labels: method={list,detail}, outcome={success,error,not_found}
	FetchDuration *prometheus.HistogramVec // labels: method={list,detail}
	DetailCache   *prometheus.CounterVec   // labels: result={hit,miss,evict}

	// Store metrics.
	FetchCycles  *prometheus.CounterVec // labels: outcome={success,error,stale,canceled}
	EventsHeld   prometheus.Gauge
	StoreLoading prometheus.Gauge

	// Downstream metrics.
	AlertsPublished    prometheus.Counter
	AlertPublishErrors prometheus.Counter
	SnapshotOps        *prometheus.CounterVec // labels: op={load,save}, outcome={success,error,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_feed",
			Name:      "fetch_requests_total",
			Help:      "USGS API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quake_feed",
			Name:      "fetch_duration_seconds",
			Help:      "USGS API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		DetailCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_feed",
			Name:      "detail_cache_total",
			Help:      "Event detail cache lookups and evictions by result.",
		}, []string{"result"}),
		FetchCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_feed",
			Name:      "fetch_cycles_total",
			Help:      "Completed store fetch cycles by outcome; stale cycles were superseded before completing.",
		}, []string{"outcome"}),
		EventsHeld: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_feed",
			Name:      "events_held",
			Help:      "Number of earthquake events currently held by the store.",
		}),
		StoreLoading: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_feed",
			Name:      "store_loading",
			Help:      "1 while the latest fetch cycle is in flight, 0 otherwise.",
		}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_feed",
			Name:      "alerts_published_total",
			Help:      "Total alerts published.",
		}),
		AlertPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_feed",
			Name:      "alert_publish_errors_total",
			Help:      "Total failed alert publish attempts.",
		}),
		SnapshotOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_feed",
			Name:      "snapshot_operations_total",
			Help:      "Snapshot cache operations by kind and outcome.",
		}, []string{"op", "outcome"}),
	}

	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.DetailCache,
		m.FetchCycles,
		m.EventsHeld,
		m.StoreLoading,
		m.AlertsPublished,
		m.AlertPublishErrors,
		m.SnapshotOps,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FetchRequests:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_feed", Name: "fetch_requests_total"}, []string{"method", "outcome"}),
		FetchDuration:      prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "quake_feed", Name: "fetch_duration_seconds"}, []string{"method"}),
		DetailCache:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_feed", Name: "detail_cache_total"}, []string{"result"}),
		FetchCycles:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_feed", Name: "fetch_cycles_total"}, []string{"outcome"}),
		EventsHeld:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "quake_feed", Name: "events_held"}),
		StoreLoading:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "quake_feed", Name: "store_loading"}),
		AlertsPublished:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_feed", Name: "alerts_published_total"}),
		AlertPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_feed", Name: "alert_publish_errors_total"}),
		SnapshotOps:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_feed", Name: "snapshot_operations_total"}, []string{"op", "outcome"}),
	}
}
