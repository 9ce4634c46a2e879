package monitoring

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service. Each Metrics
// instance carries its own registry so tests can create collectors
// freely without duplicate-registration panics.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionsActive  prometheus.Gauge
	SessionsCreated prometheus.Counter
	SessionsExited  prometheus.Counter
	OutputBytes     prometheus.Counter
	InputBytes      prometheus.Counter

	// Surface / event feed metrics
	SurfacesConnected prometheus.Gauge
	FeedClients       prometheus.Gauge

	// Attention metrics
	FlashesRaised prometheus.Counter

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	activeSessions atomic.Int64
}

// NewMetrics creates a metrics collector backed by a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry:  registry,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termdeck_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "termdeck_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "termdeck_sessions_active",
				Help: "Number of live shell sessions",
			},
		),
		SessionsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "termdeck_sessions_created_total",
				Help: "Total number of sessions created",
			},
		),
		SessionsExited: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "termdeck_sessions_exited_total",
				Help: "Total number of sessions that exited",
			},
		),
		OutputBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "termdeck_session_output_bytes_total",
				Help: "Bytes read from session output streams",
			},
		),
		InputBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "termdeck_session_input_bytes_total",
				Help: "Bytes written to session input streams",
			},
		),

		SurfacesConnected: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "termdeck_surfaces_connected",
				Help: "Number of attached display surfaces",
			},
		),
		FeedClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "termdeck_event_feed_clients",
				Help: "Number of connected host event feed clients",
			},
		),

		FlashesRaised: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "termdeck_attention_flashes_total",
				Help: "Total number of attention flashes raised",
			},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "termdeck_uptime_seconds",
			Help: "Service uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Handler returns the Prometheus exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SessionStarted records a session creation.
func (m *Metrics) SessionStarted() {
	m.SessionsCreated.Inc()
	m.SessionsActive.Set(float64(m.activeSessions.Add(1)))
}

// SessionEnded records a session exit.
func (m *Metrics) SessionEnded() {
	m.SessionsExited.Inc()
	m.SessionsActive.Set(float64(m.activeSessions.Add(-1)))
}

// AddOutputBytes accounts bytes produced by a session.
func (m *Metrics) AddOutputBytes(n int) { m.OutputBytes.Add(float64(n)) }

// AddInputBytes accounts bytes forwarded to a session.
func (m *Metrics) AddInputBytes(n int) { m.InputBytes.Add(float64(n)) }

// SurfaceConnected records a display surface attaching.
func (m *Metrics) SurfaceConnected() { m.SurfacesConnected.Inc() }

// SurfaceDisconnected records a display surface detaching.
func (m *Metrics) SurfaceDisconnected() { m.SurfacesConnected.Dec() }

// FeedClientConnected records an event feed client connecting.
func (m *Metrics) FeedClientConnected() { m.FeedClients.Inc() }

// FeedClientDisconnected records an event feed client disconnecting.
func (m *Metrics) FeedClientDisconnected() { m.FeedClients.Dec() }

// FlashRaised records one attention cue.
func (m *Metrics) FlashRaised() { m.FlashesRaised.Inc() }
