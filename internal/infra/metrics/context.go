package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(contextRequestsTotal, contextFetchFailures, contextMessagesFetched) }

var contextRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "context_requests_total",
		Help: "Context build requests by policy path.",
	},
	[]string{"path"}, // "live_only" | "cache_hit" | "cache_miss"
)

var contextFetchFailures = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "context_fetch_failures_total",
		Help: "Live history fetches that degraded to an empty context.",
	},
)

var contextMessagesFetched = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "context_messages_fetched",
		Help:    "Messages returned per live history fetch.",
		Buckets: []float64{0, 1, 2, 5, 10, 15, 20, 30},
	},
)

func IncContextRequest(path string) {
	contextRequestsTotal.WithLabelValues(norm(path)).Inc()
}

func IncContextFetchFailure() {
	contextFetchFailures.Inc()
}

func ObserveContextFetch(n int) {
	contextMessagesFetched.Observe(float64(n))
}
