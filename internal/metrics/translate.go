package metrics

import "github.com/prometheus/client_golang/prometheus"

// Translation Prometheus metrics.
var (
	TranslateRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tubesearch",
			Name:      "translate_requests_total",
			Help:      "Total number of translation requests",
		},
		[]string{"model", "status"},
	)

	TranslateRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tubesearch",
			Name:      "translate_request_duration_seconds",
			Help:      "Translation request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	TranslateCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tubesearch",
			Name:      "translate_cache_total",
			Help:      "Translation cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var translateMetricsRegistered bool

// RegisterTranslateMetrics registers Prometheus translation metrics. Must be called once from main.
func RegisterTranslateMetrics() {
	if translateMetricsRegistered {
		return
	}
	prometheus.MustRegister(TranslateRequestsTotal)
	prometheus.MustRegister(TranslateRequestDuration)
	prometheus.MustRegister(TranslateCacheTotal)
	translateMetricsRegistered = true
}
