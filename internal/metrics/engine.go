package metrics

import "github.com/prometheus/client_golang/prometheus"

// Engine Prometheus metrics.
var (
	EngineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tubesearch",
			Name:      "engine_requests_total",
			Help:      "Total number of search engine requests",
		},
		[]string{"op", "status"},
	)

	EngineRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tubesearch",
			Name:      "engine_request_duration_seconds",
			Help:      "Search engine request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"op"},
	)

	BulkItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tubesearch",
			Name:      "bulk_items_total",
			Help:      "Bulk items by kind and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: "succeeded" / "skipped" / "failed"
	)

	MappingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tubesearch",
			Name:      "mapping_cache_total",
			Help:      "Index mapping cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers Prometheus engine metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(EngineRequestsTotal)
	prometheus.MustRegister(EngineRequestDuration)
	prometheus.MustRegister(BulkItemsTotal)
	prometheus.MustRegister(MappingCacheTotal)
	engineMetricsRegistered = true
}
