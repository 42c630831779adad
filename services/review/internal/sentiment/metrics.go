package sentiment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes recorded on RequestsTotal.
const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeHTTPError   = "http_error"
	OutcomeMalformed   = "malformed"
	OutcomeCircuitOpen = "circuit_open"
)

var (
	// RequestsTotal counts sentiment API calls by outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiment_requests_total",
			Help: "Total number of sentiment API requests by outcome",
		},
		[]string{"outcome"},
	)

	// RequestDuration observes sentiment API call latency.
	RequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentiment_request_duration_seconds",
			Help:    "Duration of sentiment API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
