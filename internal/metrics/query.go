package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query pipeline and backend Prometheus metrics.
var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgeq",
			Name:      "queries_total",
			Help:      "Total number of executed queries",
		},
		[]string{"format", "status"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "edgeq",
			Name:      "query_duration_seconds",
			Help:      "End-to-end query duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"format"},
	)

	QueryRows = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "edgeq",
			Name:      "query_rows",
			Help:      "Number of terminal buckets decoded per query",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"format"},
	)

	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgeq",
			Name:      "backend_requests_total",
			Help:      "Total number of search backend requests",
		},
		[]string{"status"},
	)

	BackendRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "edgeq",
			Name:      "backend_request_duration_seconds",
			Help:      "Search backend request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ResponseCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgeq",
			Name:      "response_cache_total",
			Help:      "Response cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var queryMetricsRegistered bool

// RegisterQueryMetrics registers the query and backend metrics. Must be called once from main.
func RegisterQueryMetrics() {
	if queryMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryRows)
	prometheus.MustRegister(BackendRequestsTotal)
	prometheus.MustRegister(BackendRequestDuration)
	prometheus.MustRegister(ResponseCacheTotal)
	queryMetricsRegistered = true
}
