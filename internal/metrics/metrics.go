// Package metrics provides the Prometheus collectors for the calculator service.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/iwvelando/qslp-calculator/pkg/match"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "qslp"

// Metrics holds every collector exposed by the service on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	CalculationsTotal  *prometheus.CounterVec
	CapAppliedTotal    prometheus.Counter
	AnnualMatchDollars prometheus.Histogram
	WizardStepsTotal   *prometheus.CounterVec
	WizardSessions     prometheus.Counter
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPRequestSeconds *prometheus.HistogramVec
}

// New creates and registers all collectors, including the Go and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CalculationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Total number of match calculations by employer rule",
		}, []string{"rule"}),
		CapAppliedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cap_applied_total",
			Help:      "Total number of calculations reduced by the contribution limit",
		}),
		AnnualMatchDollars: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_annual_dollars",
			Help:      "Distribution of computed annual match amounts",
			Buckets:   []float64{0, 500, 1000, 2000, 3000, 5000, 7500, 10000, 20000, 31000},
		}),
		WizardStepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wizard_steps_total",
			Help:      "Total number of wizard step submissions by step and outcome",
		}, []string{"step", "outcome"}),
		WizardSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wizard_sessions_started_total",
			Help:      "Total number of wizard sessions started",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"route", "status"}),
		HTTPRequestSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.CalculationsTotal,
		m.CapAppliedTotal,
		m.AnnualMatchDollars,
		m.WizardStepsTotal,
		m.WizardSessions,
		m.HTTPRequestsTotal,
		m.HTTPRequestSeconds,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordCalculation records a completed match calculation.
func (m *Metrics) RecordCalculation(rule match.Rule, result match.Result) {
	m.CalculationsTotal.WithLabelValues(string(rule)).Inc()
	m.AnnualMatchDollars.Observe(result.AnnualMatch)
	if result.CapApplied {
		m.CapAppliedTotal.Inc()
	}
}

// RecordWizardStep records a step submission. outcome is "accepted" or "rejected".
func (m *Metrics) RecordWizardStep(step, outcome string) {
	m.WizardStepsTotal.WithLabelValues(step, outcome).Inc()
}

// RecordWizardStarted records a new wizard session.
func (m *Metrics) RecordWizardStarted() {
	m.WizardSessions.Inc()
}

// RecordRequest records an HTTP request.
func (m *Metrics) RecordRequest(route string, status int, seconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPRequestSeconds.WithLabelValues(route).Observe(seconds)
}
