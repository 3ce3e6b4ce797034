package metrics

import "github.com/prometheus/client_golang/prometheus"

// Hybrid query Prometheus metrics.
var (
	QueryRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fusiondex",
			Name:      "query_requests_total",
			Help:      "Total number of hybrid search pipeline executions",
		},
		[]string{"status"},
	)

	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fusiondex",
			Name:      "query_duration_seconds",
			Help:      "Hybrid search pipeline execution time in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	QueryResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fusiondex",
			Name:      "query_results",
			Help:      "Number of documents returned per hybrid search",
			Buckets:   []float64{0, 1, 2, 5, 10},
		},
	)
)

var queryMetricsRegistered bool

// RegisterQueryMetrics registers Prometheus query metrics. Must be called once from main.
func RegisterQueryMetrics() {
	if queryMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueryRequestsTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryResults)
	queryMetricsRegistered = true
}
