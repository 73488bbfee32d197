package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors. Each server owns its
// registry so several can live in one process.
type Metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	evaluations *prometheus.HistogramVec
	jobs        *prometheus.CounterVec
	steps       prometheus.Counter
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proxsweep_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "proxsweep_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		evaluations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "proxsweep_objective_evaluations",
			Help:    "Objective evaluations per scalar search",
			Buckets: prometheus.ExponentialBuckets(8, 2, 10),
		}, []string{"operation"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proxsweep_descent_jobs_total",
			Help: "Finished descent jobs by final state",
		}, []string{"state"}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "proxsweep_descent_steps_total",
			Help: "Prox steps taken by descent jobs",
		}),
	}

	m.registry.MustRegister(m.requests, m.latency, m.evaluations, m.jobs, m.steps)
	m.registry.MustRegister(collectors.NewGoCollector())
	return m
}

// The observe helpers are no-ops on a nil *Metrics.

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeRequest(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.latency.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) observeEvaluations(operation string, n int) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(operation).Observe(float64(n))
}

func (m *Metrics) jobFinished(state JobState) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(string(state)).Inc()
}

func (m *Metrics) stepTaken() {
	if m == nil {
		return
	}
	m.steps.Inc()
}
