// Package metrics holds the Prometheus collectors of the ledger, the change
// stream and the notifier. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups all application collectors.
type Metrics struct {
	roundsConsumed  *prometheus.CounterVec
	shortfalls      *prometheus.CounterVec
	thresholdFires  *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	deliveries      *prometheus.CounterVec
	deliveryRetries *prometheus.CounterVec
	queueDepth      *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		roundsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zaloga",
			Name:      "rounds_consumed_total",
			Help:      "Rounds deducted from ammo stock.",
		}, []string{"caliber"}),
		shortfalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zaloga",
			Name:      "rounds_shortfall_total",
			Help:      "Rounds requested beyond what was on hand.",
		}, []string{"caliber"}),
		thresholdFires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zaloga",
			Name:      "threshold_fires_total",
			Help:      "Low-stock thresholds that triggered a notification.",
		}, []string{"caliber"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zaloga",
			Name:      "notifications_total",
			Help:      "Notification attempts by channel and outcome.",
		}, []string{"channel", "outcome"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zaloga",
			Name:      "trigger_deliveries_total",
			Help:      "Change stream batches handed to subscribers, by outcome.",
		}, []string{"subscription", "outcome"}),
		deliveryRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zaloga",
			Name:      "trigger_retries_total",
			Help:      "Change stream batches redelivered after a handler error.",
		}, []string{"subscription"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "zaloga",
			Name:      "trigger_queue_depth",
			Help:      "Events waiting for delivery per subscription.",
		}, []string{"subscription"}),
	}

	reg.MustRegister(
		m.roundsConsumed, m.shortfalls, m.thresholdFires, m.notifications,
		m.deliveries, m.deliveryRetries, m.queueDepth,
	)
	return m
}

// Consumed records a committed deduction.
func (m *Metrics) Consumed(caliber string, consumed, shortfall int) {
	if m == nil {
		return
	}
	m.roundsConsumed.WithLabelValues(caliber).Add(float64(consumed))
	if shortfall > 0 {
		m.shortfalls.WithLabelValues(caliber).Add(float64(shortfall))
	}
}

// ThresholdFired records a threshold that qualified for notification.
func (m *Metrics) ThresholdFired(caliber string) {
	if m == nil {
		return
	}
	m.thresholdFires.WithLabelValues(caliber).Inc()
}

// Notification records one notifier outcome.
func (m *Metrics) Notification(channel string, ok bool) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(channel, outcome(ok)).Inc()
}

// Delivery records the final outcome of a change stream batch.
func (m *Metrics) Delivery(subscription string, ok bool) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(subscription, outcome(ok)).Inc()
}

// Retry records a redelivery of a change stream batch.
func (m *Metrics) Retry(subscription string) {
	if m == nil {
		return
	}
	m.deliveryRetries.WithLabelValues(subscription).Inc()
}

// QueueDepth reports the pending events of a subscription.
func (m *Metrics) QueueDepth(subscription string, n int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(subscription).Set(float64(n))
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
