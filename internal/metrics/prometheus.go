// Package metrics exposes Prometheus instrumentation for the voice exchange.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector on a private registry, so several
// instances (one per test) can coexist.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	StageDuration  *prometheus.HistogramVec
	StageFailures  *prometheus.CounterVec
	ChatFallbacks  prometheus.Counter
	SynthesizedOut prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voice_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route"}),

		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voice_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		StageFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_stage_failures_total",
			Help: "Total number of pipeline failures by stage",
		}, []string{"stage"}),
		ChatFallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "voice_chat_fallbacks_total",
			Help: "Total number of chat replies replaced by the fallback message",
		}),
		SynthesizedOut: f.NewCounter(prometheus.CounterOpts{
			Name: "voice_synthesized_bytes_total",
			Help: "Total number of synthesized audio bytes produced",
		}),
	}
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) RecordStageFailure(stage string) {
	m.StageFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) RecordFallback() {
	m.ChatFallbacks.Inc()
}

func (m *Metrics) RecordSynthesized(n int) {
	m.SynthesizedOut.Add(float64(n))
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
