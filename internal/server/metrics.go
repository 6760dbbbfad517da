package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/alexanderramin/studymap/internal/layout"
	"github.com/alexanderramin/studymap/internal/llm"
	"github.com/alexanderramin/studymap/internal/service"
	"github.com/alexanderramin/studymap/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors exported on /metrics. Each instance owns its
// registry so tests can build several.
type Metrics struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	transitions *prometheus.CounterVec
	resets      prometheus.Counter
	useCases    *prometheus.CounterVec
	llmCalls    *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studymap_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studymap_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studymap_status_transitions_total",
			Help: "Node status changes by new status.",
		}, []string{"status"}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "studymap_progress_resets_total",
			Help: "Plans whose progress was reset.",
		}),
		useCases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studymap_use_cases_total",
			Help: "Service use cases by name and outcome.",
		}, []string{"use_case", "success"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studymap_llm_calls_total",
			Help: "Language model calls by task and outcome.",
		}, []string{"task", "success"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studymap_llm_call_duration_seconds",
			Help:    "Language model call latency including retries.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"task"}),
	}
	m.registry.MustRegister(
		m.requests, m.latency, m.transitions, m.resets,
		m.useCases, m.llmCalls, m.llmLatency,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WatchLayoutCache exports the hit and miss counts of c.
func (m *Metrics) WatchLayoutCache(c *layout.Cache) {
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "studymap_layout_cache_hits_total",
			Help: "Layouts served from the topology cache.",
		}, func() float64 { h, _ := c.Stats(); return float64(h) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "studymap_layout_cache_misses_total",
			Help: "Layouts computed because the topology was new.",
		}, func() float64 { _, mi := c.Stats(); return float64(mi) }),
	)
}

// WatchBus counts progress events published on b. The returned function
// stops counting.
func (m *Metrics) WatchBus(b *store.Bus) func() {
	return store.On(b, func(e store.ProgressUpdated) {
		if e.Reset {
			m.resets.Inc()
			return
		}
		m.transitions.WithLabelValues(string(e.Status)).Inc()
	})
}

// ObserveUseCase implements service.UseCaseObserver.
func (m *Metrics) ObserveUseCase(_ context.Context, e service.UseCaseEvent) {
	m.useCases.WithLabelValues(e.Name, strconv.FormatBool(e.Success)).Inc()
}

// OnCallComplete implements llm.Observer.
func (m *Metrics) OnCallComplete(e llm.LLMCallEvent) {
	m.llmCalls.WithLabelValues(string(e.Task), strconv.FormatBool(e.Success)).Inc()
	m.llmLatency.WithLabelValues(string(e.Task)).Observe(float64(e.LatencyMs) / 1000)
}

// instrument records every request under its chi route pattern.
func (m *Metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.code)).Inc()
		m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}
