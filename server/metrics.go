package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	ChatTurns         *prometheus.CounterVec
	ChatMessages      *prometheus.CounterVec
	ApprovalsCreated  prometheus.Counter
	ApprovalsResolved *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
}

// NewMetrics creates and registers the server collectors on a fresh
// registry, so tests can instantiate servers without collision.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		ChatTurns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bodhikit_chat_turns_total",
			Help: "Completed chat turns by terminal state.",
		}, []string{"state"}),
		ChatMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bodhikit_chat_messages_total",
			Help: "Outbound chat messages by type.",
		}, []string{"type"}),
		ApprovalsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bodhikit_approvals_created_total",
			Help: "Approval requests created.",
		}),
		ApprovalsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bodhikit_approvals_resolved_total",
			Help: "Approval verdicts applied, by decision.",
		}, []string{"decision"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bodhikit_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}

	reg.MustRegister(
		m.ChatTurns,
		m.ChatMessages,
		m.ApprovalsCreated,
		m.ApprovalsResolved,
		m.RequestDuration,
	)
	return m
}

// Registry returns the backing registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
