package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for API calls
const (
	OutcomeOK        = "ok"
	OutcomeAPIError  = "api_error"
	OutcomeTransport = "transport_error"
)

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wishbot",
		Name:      "api_requests_total",
		Help:      "Wishlist API calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	apiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wishbot",
		Name:      "api_request_duration_seconds",
		Help:      "Wishlist API call latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	updates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wishbot",
		Name:      "updates_total",
		Help:      "Telegram updates handled, by kind.",
	}, []string{"kind"})
)

// ObserveAPIRequest records one finished API call
func ObserveAPIRequest(operation, outcome string, d time.Duration) {
	apiRequests.WithLabelValues(operation, outcome).Inc()
	apiDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveUpdate records one Telegram update of the given kind
// (command, callback, text, other)
func ObserveUpdate(kind string) {
	updates.WithLabelValues(kind).Inc()
}
