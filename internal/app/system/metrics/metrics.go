// Package metrics exposes Prometheus counters for authentication and
// notification delivery.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the application's collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	SignIns             *prometheus.CounterVec
	SignUps             *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
	OutboxDelivered     prometheus.Counter
	OutboxRetried       prometheus.Counter
	OutboxAbandoned     prometheus.Counter
	LiveSubscribers     *prometheus.GaugeVec
}

// New registers all collectors on a fresh registry, along with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		SignIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentorhub",
			Name:      "sign_ins_total",
			Help:      "Sign-in attempts by outcome.",
		}, []string{"outcome"}),
		SignUps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentorhub",
			Name:      "sign_ups_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"outcome"}),
		NotificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentorhub",
			Name:      "notifications_failed_total",
			Help:      "Notification writes that failed and were parked in the outbox.",
		}, []string{"type"}),
		OutboxDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mentorhub",
			Name:      "outbox_delivered_total",
			Help:      "Outbox entries delivered on retry.",
		}),
		OutboxRetried: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mentorhub",
			Name:      "outbox_retried_total",
			Help:      "Outbox retry attempts that failed again.",
		}),
		OutboxAbandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mentorhub",
			Name:      "outbox_abandoned_total",
			Help:      "Outbox entries given up after the maximum attempts.",
		}),
		LiveSubscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mentorhub",
			Name:      "live_subscribers",
			Help:      "Open websocket subscriptions by feed.",
		}, []string{"feed"}),
	}
	reg.MustRegister(
		m.SignIns, m.SignUps, m.NotificationsFailed,
		m.OutboxDelivered, m.OutboxRetried, m.OutboxAbandoned,
		m.LiveSubscribers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Outcome labels used with SignIns and SignUps.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeLimited = "rate_limited"
)

// Nil-safe helpers so services can run without metrics in tests.

// SignIn counts a sign-in attempt.
func (m *Metrics) SignIn(outcome string) {
	if m != nil {
		m.SignIns.WithLabelValues(outcome).Inc()
	}
}

// SignUp counts a registration attempt.
func (m *Metrics) SignUp(outcome string) {
	if m != nil {
		m.SignUps.WithLabelValues(outcome).Inc()
	}
}

// NotificationFailed counts a notification write that went to the outbox.
func (m *Metrics) NotificationFailed(notifType string) {
	if m != nil {
		m.NotificationsFailed.WithLabelValues(notifType).Inc()
	}
}

// Delivered counts an outbox entry written on retry.
func (m *Metrics) Delivered() {
	if m != nil {
		m.OutboxDelivered.Inc()
	}
}

// Retried counts a failed outbox retry.
func (m *Metrics) Retried() {
	if m != nil {
		m.OutboxRetried.Inc()
	}
}

// Abandoned counts an outbox entry that hit the attempt limit.
func (m *Metrics) Abandoned() {
	if m != nil {
		m.OutboxAbandoned.Inc()
	}
}

// Subscribed adjusts the live subscriber gauge for feed by delta.
func (m *Metrics) Subscribed(feed string, delta float64) {
	if m != nil {
		m.LiveSubscribers.WithLabelValues(feed).Add(delta)
	}
}
