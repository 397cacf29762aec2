// Package telemetry exposes the ward administration metrics in the
// Prometheus text format. All Provider methods are safe on a nil receiver
// so metrics can be switched off without touching callers.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wardadmin"

// Room recompute outcomes.
const (
	RecomputeAvailable = "available"
	RecomputeFull      = "full"
	RecomputeMissing   = "missing"
)

// Provider owns a private registry and the application collectors.
type Provider struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	activeRequests prometheus.Gauge

	evaluations      *prometheus.CounterVec
	isolatedPatients prometheus.Gauge
	recomputes       *prometheus.CounterVec
	assignments      prometheus.Counter
	auditEvents      *prometheus.CounterVec
}

func NewProvider() *Provider {
	reg := prometheus.NewRegistry()
	p := &Provider{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_active_requests",
			Help:      "Requests currently being served.",
		}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "isolation_evaluations_total",
			Help:      "Isolation evaluations by outcome.",
		}, []string{"result"}),
		isolatedPatients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "isolated_patients",
			Help:      "Patients flagged for isolation after the last bulk evaluation.",
		}),
		recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "room_availability_recomputes_total",
			Help:      "Room availability recomputations by outcome.",
		}, []string{"result"}),
		assignments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "room_assignments_total",
			Help:      "Patients placed into rooms.",
		}),
		auditEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_events_total",
			Help:      "Audited ward changes by resource, action and outcome.",
		}, []string{"resource", "action", "outcome"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.requests, p.duration, p.activeRequests,
		p.evaluations, p.isolatedPatients, p.recomputes, p.assignments, p.auditEvents,
	)
	return p
}

// Registry is exposed for tests and extra collectors.
func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}

// ObserveIsolation counts one evaluation outcome.
func (p *Provider) ObserveIsolation(isolated bool) {
	if p == nil {
		return
	}
	result := "cleared"
	if isolated {
		result = "isolated"
	}
	p.evaluations.WithLabelValues(result).Inc()
}

func (p *Provider) SetIsolatedPatients(n int) {
	if p == nil {
		return
	}
	p.isolatedPatients.Set(float64(n))
}

func (p *Provider) ObserveRecompute(result string) {
	if p == nil {
		return
	}
	p.recomputes.WithLabelValues(result).Inc()
}

func (p *Provider) ObserveAssignment() {
	if p == nil {
		return
	}
	p.assignments.Inc()
}

// ObserveAudit counts one audited change. Outcome is "ok" below 400,
// "denied" for 401 and 403, and "failed" otherwise.
func (p *Provider) ObserveAudit(resource, action string, status int) {
	if p == nil {
		return
	}
	outcome := "ok"
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		outcome = "denied"
	case status >= 400:
		outcome = "failed"
	}
	p.auditEvents.WithLabelValues(resource, action, outcome).Inc()
}

// MetricsMiddleware records request counts, latency and in-flight requests.
// The route label is the registered path so IDs do not explode cardinality.
func (p *Provider) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if p == nil {
			return next
		}
		return func(c echo.Context) error {
			p.activeRequests.Inc()
			defer p.activeRequests.Dec()

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			p.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			p.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Provider) Handler() echo.HandlerFunc {
	if p == nil {
		return func(c echo.Context) error {
			return c.NoContent(http.StatusNotFound)
		}
	}
	return echo.WrapHandler(promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))
}
