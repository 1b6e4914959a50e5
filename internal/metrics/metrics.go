// Package metrics defines the Prometheus collectors for SOS dispatches.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dispatch outcomes, used as the "outcome" label.
const (
	OutcomeOK                 = "ok"
	OutcomeUnauthenticated    = "unauthenticated"
	OutcomeInvalidArgument    = "invalid_argument"
	OutcomeFailedPrecondition = "failed_precondition"
	OutcomeInternal           = "internal"
)

type Metrics struct {
	registry    *prometheus.Registry
	dispatches  *prometheus.CounterVec
	pushResults *prometheus.CounterVec
	duration    prometheus.Histogram
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sos_dispatch_total",
				Help: "SOS dispatch invocations by outcome",
			},
			[]string{"outcome"},
		),
		pushResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sos_push_results_total",
				Help: "Per-token push delivery results",
			},
			[]string{"result"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sos_dispatch_duration_seconds",
				Help:    "End-to-end SOS dispatch latency",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	m.registry.MustRegister(
		m.dispatches,
		m.pushResults,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveDispatch records one finished invocation.
func (m *Metrics) ObserveDispatch(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// ObservePushResults records the per-token counts of one multicast.
func (m *Metrics) ObservePushResults(success, failure int) {
	if m == nil {
		return
	}
	m.pushResults.WithLabelValues("success").Add(float64(success))
	m.pushResults.WithLabelValues("failure").Add(float64(failure))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
