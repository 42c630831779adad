package kafka

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

var (
	// EventsPublished counts publish attempts by topic and outcome.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reviews",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Domain events handed to Kafka, by topic and outcome (ok or error).",
	}, []string{"topic", "outcome"})

	// PublishLatency observes how long the brokers took to acknowledge.
	PublishLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "reviews",
		Subsystem: "events",
		Name:      "publish_duration_seconds",
		Help:      "Time spent in a single Kafka write.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"topic"})
)

func observePublish(topic string, started time.Time, err error) {
	PublishLatency.WithLabelValues(topic).Observe(time.Since(started).Seconds())
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
	}
	EventsPublished.WithLabelValues(topic, outcome).Inc()
}
