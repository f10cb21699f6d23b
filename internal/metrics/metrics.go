package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	WebhookRequests *prometheus.CounterVec
	InboundEvents   *prometheus.CounterVec
	Routes          *prometheus.CounterVec
	ReplyRequests   *prometheus.CounterVec
	ReplyMessages   *prometheus.CounterVec
	LLMRequests     *prometheus.CounterVec
	LLMLatency      *prometheus.HistogramVec
	RateFetches     *prometheus.CounterVec
	Errors          *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds the process wide metrics singleton on the default
// registerer with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = New(namespace, prometheus.DefaultRegisterer)
	})
	return metricsInstance
}

// New creates a fresh set of collectors and registers them with reg.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		WebhookRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_requests_total",
			Help:      "Total webhook callbacks by outcome.",
		}, []string{"status"}),
		InboundEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_events_total",
			Help:      "Total inbound LINE events by message type.",
		}, []string{"type"}),
		Routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routes_total",
			Help:      "Text messages answered per route.",
		}, []string{"route"}),
		ReplyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reply_requests_total",
			Help:      "Total LINE reply API calls by outcome.",
		}, []string{"status"}),
		ReplyMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reply_messages_total",
			Help:      "Total outgoing LINE messages by type.",
		}, []string{"type"}),
		LLMRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total language model requests by outcome.",
		}, []string{"status"}),
		LLMLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Latency distribution for language model calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		RateFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_fetch_total",
			Help:      "Exchange table loads by source and outcome.",
		}, []string{"source", "status"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total errors grouped by component.",
		}, []string{"component"}),
	}

	reg.MustRegister(
		m.WebhookRequests,
		m.InboundEvents,
		m.Routes,
		m.ReplyRequests,
		m.ReplyMessages,
		m.LLMRequests,
		m.LLMLatency,
		m.RateFetches,
		m.Errors,
	)
	return m
}
