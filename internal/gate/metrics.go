package gate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomePass      = "pass"
	outcomeChallenge = "challenge"
	outcomeRedirect  = "redirect"
	outcomeDenied    = "denied"
	outcomeError     = "error"
)

// Metrics holds the router's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	requests         *prometheus.CounterVec
	callbackDuration *prometheus.HistogramVec
	authFailures     *prometheus.CounterVec
}

// NewMetrics registers the gate collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "edge_gate",
			Name:      "requests_total",
			Help:      "Requests handled by the gate, by flow and outcome",
		}, []string{"flow", "outcome"}),

		callbackDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "edge_gate",
			Name:      "callback_duration_seconds",
			Help:      "Time spent exchanging and authorizing provider codes",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),

		authFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "edge_gate",
			Name:      "auth_failures_total",
			Help:      "Failed callbacks, by failure kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) observe(flow, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(flow, outcome).Inc()
}

func (m *Metrics) observeFailure(kind string) {
	if m == nil {
		return
	}
	m.authFailures.WithLabelValues(kind).Inc()
}

// timeCallback starts a timer; the returned func records it under outcome
func (m *Metrics) timeCallback() func(outcome string) {
	start := time.Now()
	return func(outcome string) {
		if m == nil {
			return
		}
		m.callbackDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}
}
