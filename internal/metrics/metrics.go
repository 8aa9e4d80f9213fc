// Package metrics provides Prometheus metrics for the chat client.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing,
// so components can be constructed without instrumentation in tests.
type Metrics struct {
	registry *prometheus.Registry

	// Stream decoder
	FramesTotal          *prometheus.CounterVec
	MalformedFramesTotal prometheus.Counter
	StreamDuration       prometheus.Histogram

	// Transport
	RequestsTotal     *prometheus.CounterVec
	LoginPromptsTotal prometheus.Counter

	// Canvas registry
	CanvasItems prometheus.Gauge
}

// New creates a private registry and registers all collectors on it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.FramesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "versa_chat_stream_frames_total",
			Help: "Total number of decoded stream frames by type",
		},
		[]string{"type"},
	)

	m.MalformedFramesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "versa_chat_stream_malformed_frames_total",
			Help: "Total number of data lines that failed to decode",
		},
	)

	m.StreamDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "versa_chat_stream_duration_seconds",
			Help:    "Duration of stream processing in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "versa_chat_requests_total",
			Help: "Total number of backend requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	m.LoginPromptsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "versa_chat_login_prompts_total",
			Help: "Total number of login-required events raised",
		},
	)

	m.CanvasItems = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "versa_chat_canvas_items",
			Help: "Number of items currently held by the canvas registry",
		},
	)

	reg.MustRegister(collectors.NewGoCollector())

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordFrame counts one decoded frame.
func (m *Metrics) RecordFrame(frameType string) {
	if m == nil {
		return
	}
	m.FramesTotal.WithLabelValues(frameType).Inc()
}

// RecordMalformedFrame counts one undecodable data line.
func (m *Metrics) RecordMalformedFrame() {
	if m == nil {
		return
	}
	m.MalformedFramesTotal.Inc()
}

// RecordStream observes the duration of one stream.
func (m *Metrics) RecordStream(start time.Time) {
	if m == nil {
		return
	}
	m.StreamDuration.Observe(time.Since(start).Seconds())
}

// RecordRequest counts one backend request outcome.
func (m *Metrics) RecordRequest(operation, outcome string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordLoginPrompt counts one login-required event.
func (m *Metrics) RecordLoginPrompt() {
	if m == nil {
		return
	}
	m.LoginPromptsTotal.Inc()
}

// SetCanvasItems updates the registry size gauge.
func (m *Metrics) SetCanvasItems(n int) {
	if m == nil {
		return
	}
	m.CanvasItems.Set(float64(n))
}
