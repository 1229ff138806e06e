// Package metrics exposes Prometheus instrumentation for assessments, history
// persistence and HTTP traffic. All methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hf-risk-server/internal/domain"
)

const namespace = "hf_risk"

// Metrics holds the collectors registered on a private registry
type Metrics struct {
	registry *prometheus.Registry

	assessments         *prometheus.CounterVec
	validationFailures  *prometheus.CounterVec
	assessmentDuration  prometheus.Histogram
	persistenceFailures prometheus.Counter
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Completed risk assessments by source and risk category.",
		}, []string{"source", "category"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Assessments rejected because the profile was invalid.",
		}, []string{"source"}),
		assessmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assessment_duration_seconds",
			Help:      "Time spent computing one assessment.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		}),
		persistenceFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_persistence_failures_total",
			Help:      "Assessments that could not be written to the history store.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.assessments,
		m.validationFailures,
		m.assessmentDuration,
		m.persistenceFailures,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveAssessment records one completed assessment
func (m *Metrics) ObserveAssessment(source string, category domain.RiskCategory, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.assessments.WithLabelValues(source, category.String()).Inc()
	m.assessmentDuration.Observe(elapsed.Seconds())
}

// ValidationFailed records a rejected profile
func (m *Metrics) ValidationFailed(source string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(source).Inc()
}

// PersistenceFailed records a failed history write
func (m *Metrics) PersistenceFailed() {
	if m == nil {
		return
	}
	m.persistenceFailures.Inc()
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
