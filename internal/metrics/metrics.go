// Package metrics provides Prometheus metrics for the Orrery server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector. A nil *Metrics is valid and records
// nothing, so components can run without a registry in tests.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	tickDuration prometheus.Histogram
	framesTotal  prometheus.Counter
	landingState *prometheus.GaugeVec
	landings     prometheus.Counter

	layoutDuration *prometheus.HistogramVec
	reloadsTotal   *prometheus.CounterVec
	galaxyBodies   *prometheus.GaugeVec

	sseConnectionsActive prometheus.Gauge
	sseEventsTotal       *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orrery_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		tickDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "orrery_sim_tick_duration_seconds",
				Help:    "Time spent in one simulation tick",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
		),
		framesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "orrery_sim_frames_total",
				Help: "Total simulation frames produced",
			},
		),
		landingState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "orrery_sim_landing_state",
				Help: "1 for the current landing state, 0 otherwise",
			},
			[]string{"state"},
		),
		landings: f.NewCounter(
			prometheus.CounterOpts{
				Name: "orrery_sim_landings_total",
				Help: "Total successful landings",
			},
		),

		layoutDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orrery_layout_duration_seconds",
				Help:    "Layout computation time in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"strategy"},
		),
		reloadsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_galaxy_reloads_total",
				Help: "Total galaxy reloads",
			},
			[]string{"result"},
		),
		galaxyBodies: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "orrery_galaxy_bodies",
				Help: "Number of bodies in the current galaxy",
			},
			[]string{"kind"},
		),

		sseConnectionsActive: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "orrery_sse_connections_active",
				Help: "Number of active SSE connections",
			},
		),
		sseEventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_sse_events_total",
				Help: "Total SSE events published",
			},
			[]string{"type"},
		),
	}
}

// Handler returns the Prometheus metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and durations by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordTick records one simulation tick.
func (m *Metrics) RecordTick(d time.Duration) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(d.Seconds())
	m.framesTotal.Inc()
}

// SetLandingState marks state as the current landing state.
func (m *Metrics) SetLandingState(state string, all ...string) {
	if m == nil {
		return
	}
	for _, s := range all {
		m.landingState.WithLabelValues(s).Set(0)
	}
	m.landingState.WithLabelValues(state).Set(1)
}

// RecordLanding counts a successful landing.
func (m *Metrics) RecordLanding() {
	if m == nil {
		return
	}
	m.landings.Inc()
}

// ObserveLayout records a layout run. Its signature matches layout.Observer.
func (m *Metrics) ObserveLayout(strategy string, d time.Duration) {
	if m == nil {
		return
	}
	m.layoutDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

// RecordReload counts a galaxy reload and, on success, the body counts.
func (m *Metrics) RecordReload(err error, folders, files int) {
	if m == nil {
		return
	}
	if err != nil {
		m.reloadsTotal.WithLabelValues("error").Inc()
		return
	}
	m.reloadsTotal.WithLabelValues("ok").Inc()
	m.galaxyBodies.WithLabelValues("folder").Set(float64(folders))
	m.galaxyBodies.WithLabelValues("file").Set(float64(files))
}

// SSEConnected adjusts the active SSE connection gauge by delta.
func (m *Metrics) SSEConnected(delta int) {
	if m == nil {
		return
	}
	m.sseConnectionsActive.Add(float64(delta))
}

// RecordSSEEvent counts a published SSE event.
func (m *Metrics) RecordSSEEvent(eventType string) {
	if m == nil {
		return
	}
	m.sseEventsTotal.WithLabelValues(eventType).Inc()
}
