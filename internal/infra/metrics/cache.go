package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(cacheRequestsTotal, cacheSweptTotal) }

var cacheRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Tracks cache lookups by outcome.",
	},
	[]string{"cache", "result"}, // e.g., cache="context", result="hit"
)

var cacheSweptTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "cache_swept_entries_total",
		Help: "Expired context cache entries removed by the sweeper.",
	},
)

func IncCacheRequest(cacheName, result string) {
	cacheRequestsTotal.WithLabelValues(norm(cacheName), norm(result)).Inc()
}

func AddCacheSwept(n int) {
	if n > 0 {
		cacheSweptTotal.Add(float64(n))
	}
}
