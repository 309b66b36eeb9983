package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics records outcomes of outbound API requests.
type RequestMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

// NewRequestMetrics registers the request metrics on the provided registerer.
// A nil registerer yields a no-op instance.
func NewRequestMetrics(reg prometheus.Registerer) *RequestMetrics {
	if reg == nil {
		return &RequestMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_request_duration_seconds",
		Help:    "Duration of outbound API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_requests_total",
		Help: "Outbound API requests by method and outcome.",
	}, []string{"method", "outcome"})
	reg.MustRegister(duration, requests)
	return &RequestMetrics{
		duration: duration,
		requests: requests,
	}
}

// ObserveDuration records how long a request took.
func (r *RequestMetrics) ObserveDuration(method string, elapsed time.Duration) {
	if r == nil || r.duration == nil {
		return
	}
	r.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// IncRequest counts a finished request with its outcome label
// (ok, api_error, transport_error, malformed).
func (r *RequestMetrics) IncRequest(method, outcome string) {
	if r == nil || r.requests == nil {
		return
	}
	r.requests.WithLabelValues(method, outcome).Inc()
}
