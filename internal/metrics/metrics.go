// Package metrics exposes Prometheus counters for the visit engine.
// A nil *Metrics is valid and records nothing, so tests can skip wiring it.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dockgate"

// Result label values.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics holds the engine's collectors.
type Metrics struct {
	transitions   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	reservations  *prometheus.CounterVec
	inflight      prometheus.Gauge
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		transitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Lifecycle transitions attempted, by event and result",
			},
			[]string{"event", "result"},
		),
		notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Outbound driver notifications, by event and result",
			},
			[]string{"event", "result"},
		),
		reservations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gate_reservations_total",
				Help:      "Dock reservation attempts during call, by result",
			},
			[]string{"result"},
		),
		inflight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "notifications_inflight",
				Help:      "Notifications currently being delivered",
			},
		),
	}
}

// Transition counts one transition attempt.
func (m *Metrics) Transition(event, result string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(event, result).Inc()
}

// Notification counts one delivery attempt.
func (m *Metrics) Notification(event, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(event, result).Inc()
}

// Reservation counts one dock reservation attempt.
func (m *Metrics) Reservation(result string) {
	if m == nil {
		return
	}
	m.reservations.WithLabelValues(result).Inc()
}

// NotificationStarted and NotificationDone track in-flight deliveries.
func (m *Metrics) NotificationStarted() {
	if m == nil {
		return
	}
	m.inflight.Inc()
}

func (m *Metrics) NotificationDone() {
	if m == nil {
		return
	}
	m.inflight.Dec()
}
