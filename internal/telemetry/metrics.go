package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	RequestTotal       *prometheus.CounterVec
	RateLimitHitTotal  prometheus.Counter
	GateRejectTotal    prometheus.Counter
	StreamChunksTotal  prometheus.Counter
	UpstreamErrorTotal *prometheus.CounterVec
	ActiveStreams      prometheus.Gauge
	StreamDurationSecs prometheus.Histogram
}

// NewMetrics creates and registers all gateway metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lanibot_request_total",
			Help: "Total number of requests handled, by route and status.",
		}, []string{"route", "status"}),

		RateLimitHitTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "lanibot_rate_limit_hit_total",
			Help: "Total number of requests rejected by the rate limiter.",
		}),

		GateRejectTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "lanibot_turnstile_reject_total",
			Help: "Total number of requests rejected by Turnstile verification.",
		}),

		StreamChunksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "lanibot_stream_chunks_total",
			Help: "Total upstream SSE chunks forwarded to clients.",
		}),

		UpstreamErrorTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lanibot_upstream_error_total",
			Help: "Total upstream failures, by kind (open_failed, status, timeout, read).",
		}, []string{"kind"}),

		ActiveStreams: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lanibot_active_streams",
			Help: "Number of SSE relays currently running.",
		}),

		StreamDurationSecs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lanibot_stream_duration_seconds",
			Help:    "Duration of completed SSE relays in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
}

// RecordRequest records a completed non-streaming request.
func (m *Metrics) RecordRequest(route, status string) {
	m.RequestTotal.WithLabelValues(route, status).Inc()
}

// RecordRateLimitHit records a request rejected by the rate limiter.
func (m *Metrics) RecordRateLimitHit() {
	m.RateLimitHitTotal.Inc()
}

// RecordGateReject records a request rejected by the abuse gate.
func (m *Metrics) RecordGateReject() {
	m.GateRejectTotal.Inc()
}

// RecordUpstreamError records an upstream failure of the given kind.
func (m *Metrics) RecordUpstreamError(kind string) {
	m.UpstreamErrorTotal.WithLabelValues(kind).Inc()
}
