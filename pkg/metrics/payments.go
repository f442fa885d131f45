package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records checkout and payment outcomes.
type PaymentMetrics struct {
	ordersCreated *prometheus.CounterVec
	confirmations *prometheus.CounterVec
	webhookEvents *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders accepted at checkout.",
	}, []string{"source"})
	confirmations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_confirmations_total",
		Help: "Payment confirmation attempts by outcome.",
	}, []string{"outcome"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Webhook events received by type.",
	}, []string{"type"})
	reg.MustRegister(ordersCreated, confirmations, webhookEvents)
	return &PaymentMetrics{
		ordersCreated: ordersCreated,
		confirmations: confirmations,
		webhookEvents: webhookEvents,
	}
}

// IncOrderCreated increments the accepted-order counter for the named source.
func (m *PaymentMetrics) IncOrderCreated(source string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncConfirmation increments the confirmation counter for the named outcome.
func (m *PaymentMetrics) IncConfirmation(outcome string) {
	if m == nil || m.confirmations == nil {
		return
	}
	m.confirmations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncWebhookEvent increments the webhook counter for the named event type.
func (m *PaymentMetrics) IncWebhookEvent(eventType string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
