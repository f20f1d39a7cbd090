package translate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	translationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiplash_translation_requests_total",
			Help: "Total translation service requests by operation and status",
		},
		[]string{"op", "status"},
	)

	translationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiplash_translation_cache_hits_total",
			Help: "Total translation fan-outs served from cache",
		},
	)
)

func recordRequest(op string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	translationRequests.WithLabelValues(op, status).Inc()
}
