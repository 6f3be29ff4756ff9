// Package metrics exposes Prometheus collectors for backend resolution and
// executor invocations.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// LLMBuckets covers agent call latencies from 100ms to 2 minutes.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	resolutions        *prometheus.CounterVec
	invocations        *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
	streamEvents       *prometheus.CounterVec
}

var (
	defaultOnce sync.Once
	shared      *Metrics
)

// Default returns the process-wide instance registered with the default
// Prometheus registerer. Collectors are created once so repeated executor
// construction does not panic on duplicate registration.
func Default() *Metrics {
	defaultOnce.Do(func() {
		shared = MustNew(prometheus.DefaultRegisterer)
	})
	return shared
}

// MustNew builds a Metrics registered with reg and panics on registration
// errors. Tests should pass a fresh prometheus.NewRegistry().
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "agentshim",
				Subsystem: "backend",
				Name:      "resolutions_total",
				Help:      "Backend resolution attempts by strategy and status.",
			},
			[]string{"strategy", "status"},
		),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "agentshim",
				Subsystem: "executor",
				Name:      "invocations_total",
				Help:      "Executor invocations by operation and status.",
			},
			[]string{"operation", "status"},
		),
		invocationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "agentshim",
				Subsystem: "executor",
				Name:      "invocation_duration_seconds",
				Help:      "Time spent in the backend per invocation.",
				Buckets:   LLMBuckets,
			},
			[]string{"operation"},
		),
		streamEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "agentshim",
				Subsystem: "executor",
				Name:      "stream_events_total",
				Help:      "Stream events emitted by event tag.",
			},
			[]string{"event"},
		),
	}
	reg.MustRegister(m.resolutions, m.invocations, m.invocationDuration, m.streamEvents)
	return m
}

// ObserveResolution counts one strategy attempt.
func (m *Metrics) ObserveResolution(strategy, status string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(strategy, status).Inc()
}

// ObserveInvocation counts one invocation and records its backend latency.
func (m *Metrics) ObserveInvocation(operation, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(operation, status).Inc()
	m.invocationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveStreamEvent counts one emitted stream event.
func (m *Metrics) ObserveStreamEvent(event string) {
	if m == nil {
		return
	}
	m.streamEvents.WithLabelValues(event).Inc()
}
