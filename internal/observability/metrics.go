package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/spec-kit/maintenance-service/internal/events"
)

// Metrics holds the Prometheus collectors for the service on a private
// registry.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrorsTotal     *prometheus.CounterVec

	PolicyDecisionsTotal *prometheus.CounterVec
	GuardRetriesTotal    prometheus.Counter
	RequestEventsTotal   *prometheus.CounterVec
	RateLimitedTotal     prometheus.Counter
}

// NewMetrics registers all collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maintenance",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		}, []string{"method", "path", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "maintenance",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		HTTPErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maintenance",
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "HTTP error responses by code.",
		}, []string{"method", "path", "code"}),

		PolicyDecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maintenance",
			Subsystem: "policy",
			Name:      "decisions_total",
			Help:      "Authorization decisions by operation and outcome.",
		}, []string{"operation", "outcome"}),

		GuardRetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "maintenance",
			Subsystem: "policy",
			Name:      "guard_retries_total",
			Help:      "Writes retried after the stored assignee changed.",
		}),

		RequestEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "maintenance",
			Subsystem: "requests",
			Name:      "events_total",
			Help:      "Maintenance request lifecycle events.",
		}, []string{"type"}),

		RateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "maintenance",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPErrorsTotal,
		m.PolicyDecisionsTotal,
		m.GuardRetriesTotal,
		m.RequestEventsTotal,
		m.RateLimitedTotal,
	)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.HTTPErrorsTotal.WithLabelValues(method, path, code).Inc()
}

// RecordDecision counts a policy outcome; outcome is "allow" or a deny reason.
func (m *Metrics) RecordDecision(operation, outcome string) {
	if m == nil {
		return
	}
	m.PolicyDecisionsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordGuardRetry counts a write retried after a lost compare-and-swap.
func (m *Metrics) RecordGuardRetry() {
	if m == nil {
		return
	}
	m.GuardRetriesTotal.Inc()
}

// RecordRateLimited counts a throttled request.
func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
}

// SubscribeEvents counts every lifecycle event published on d.
func (m *Metrics) SubscribeEvents(d events.Dispatcher) {
	events.SubscribeAll(d, func(_ context.Context, e events.Event) error {
		m.RequestEventsTotal.WithLabelValues(string(e.Type)).Inc()
		return nil
	},
		events.EventRequestCreated,
		events.EventRequestUpdated,
		events.EventRequestAssigned,
		events.EventRequestDenied,
		events.EventTeamMemberAdded,
		events.EventTeamMemberGone,
	)
}
