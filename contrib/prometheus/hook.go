// Package prometheus exports Venice client telemetry as Prometheus metrics.
//
//	reg := prometheus.NewRegistry()
//	client := core.NewClient(provider, core.WithTelemetry(vprom.NewHook(reg)))
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/petal-labs/venice/core"
)

// Namespace prefixes every metric name.
const Namespace = "venice"

// Hook is a core.TelemetryHook that records request counts, latencies,
// in-flight requests, token usage and streamed chunks.
type Hook struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
	tokens   *prometheus.CounterVec
	chunks   *prometheus.CounterVec
}

var _ core.TelemetryHook = (*Hook)(nil)

// NewHook registers the metrics with reg. Pass prometheus.DefaultRegisterer
// to expose them on the default handler.
func NewHook(reg prometheus.Registerer) *Hook {
	f := promauto.With(reg)
	return &Hook{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "requests_total",
				Help:      "Requests by operation, model and outcome.",
			},
			[]string{"provider", "operation", "model", "status"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds; streams are measured until closed.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"provider", "operation"},
		),
		inFlight: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "requests_in_flight",
				Help:      "Requests started but not finished.",
			},
			[]string{"provider", "operation"},
		),
		tokens: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "tokens_total",
				Help:      "Tokens consumed, by direction.",
			},
			[]string{"provider", "model", "direction"},
		),
		chunks: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "stream_chunks_total",
				Help:      "Chunks delivered by streaming operations.",
			},
			[]string{"provider", "operation"},
		),
	}
}

// OnRequestStart implements core.TelemetryHook.
func (h *Hook) OnRequestStart(e core.RequestStartEvent) {
	h.inFlight.WithLabelValues(e.Provider, e.Operation).Inc()
}

// OnRequestEnd implements core.TelemetryHook.
func (h *Hook) OnRequestEnd(e core.RequestEndEvent) {
	h.inFlight.WithLabelValues(e.Provider, e.Operation).Dec()

	status := "ok"
	if e.Err != nil {
		status = core.ErrorKind(e.Err)
	}
	model := string(e.Model)
	h.requests.WithLabelValues(e.Provider, e.Operation, model, status).Inc()
	h.duration.WithLabelValues(e.Provider, e.Operation).Observe(e.Duration().Seconds())

	if e.Usage.PromptTokens > 0 {
		h.tokens.WithLabelValues(e.Provider, model, "prompt").Add(float64(e.Usage.PromptTokens))
	}
	if e.Usage.CompletionTokens > 0 {
		h.tokens.WithLabelValues(e.Provider, model, "completion").Add(float64(e.Usage.CompletionTokens))
	}
	if e.Chunks > 0 {
		h.chunks.WithLabelValues(e.Provider, e.Operation).Add(float64(e.Chunks))
	}
}
