// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "playersync"

// Reasons a listener is dropped by the hub.
const (
	DropSendFailed = "send_failed"
	DropOverflow   = "overflow"
	DropInitFailed = "init_failed"
	DropResync     = "resync"
)

var (
	// Listeners is the number of attached WebSocket listeners.
	Listeners = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "listeners",
		Help:      "Number of attached WebSocket listeners.",
	})

	// EventsDispatched counts dispatch passes by outbound message type.
	EventsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "events_dispatched_total",
			Help:      "Total number of events dispatched to listeners.",
		},
		[]string{"type"},
	)

	// ListenersDropped counts listeners removed because delivery failed.
	ListenersDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "listeners_dropped_total",
			Help:      "Total number of listeners dropped after a delivery failure.",
		},
		[]string{"reason"},
	)

	// RelayPublishFailures counts events that could not be published to Redis.
	RelayPublishFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "relay",
		Name:      "publish_failures_total",
		Help:      "Total number of events that failed to publish to the relay.",
	})

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"path", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
)

func init() {
	prometheus.MustRegister(
		Listeners,
		EventsDispatched,
		ListenersDropped,
		RelayPublishFailures,
		HTTPRequests,
		HTTPRequestDuration,
	)
}
