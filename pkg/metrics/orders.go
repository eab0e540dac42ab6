package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records checkout and order lifecycle activity.
type OrderMetrics struct {
	ordersCreated    *prometheus.CounterVec
	checkoutDuration prometheus.Histogram
	payments         *prometheus.CounterVec
	fulfillments     *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created, labeled by processing method.",
	}, []string{"processing_method"})
	checkoutDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout conversions in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_dispatch_total",
		Help: "Payment gateway dispatches, labeled by gateway, kind and resulting status.",
	}, []string{"gateway", "kind", "status"})
	fulfillments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_dispatch_total",
		Help: "Fulfillment provider dispatches, labeled by service and resulting status.",
	}, []string{"service", "status"})
	reg.MustRegister(ordersCreated, checkoutDuration, payments, fulfillments)
	return &OrderMetrics{
		ordersCreated:    ordersCreated,
		checkoutDuration: checkoutDuration,
		payments:         payments,
		fulfillments:     fulfillments,
	}
}

// IncOrderCreated increments the created counter for the processing method.
func (o *OrderMetrics) IncOrderCreated(processingMethod string) {
	if o == nil || o.ordersCreated == nil {
		return
	}
	o.ordersCreated.WithLabelValues(normalizeLabel(processingMethod)).Inc()
}

// ObserveCheckoutDuration records the time a checkout conversion took.
func (o *OrderMetrics) ObserveCheckoutDuration(duration time.Duration) {
	if o == nil || o.checkoutDuration == nil {
		return
	}
	o.checkoutDuration.Observe(duration.Seconds())
}

// IncPaymentDispatch increments the payment counter for the outcome.
func (o *OrderMetrics) IncPaymentDispatch(gateway, kind, status string) {
	if o == nil || o.payments == nil {
		return
	}
	o.payments.WithLabelValues(normalizeLabel(gateway), normalizeLabel(kind), normalizeLabel(status)).Inc()
}

// IncFulfillmentDispatch increments the fulfillment counter for the outcome.
func (o *OrderMetrics) IncFulfillmentDispatch(service, status string) {
	if o == nil || o.fulfillments == nil {
		return
	}
	o.fulfillments.WithLabelValues(normalizeLabel(service), normalizeLabel(status)).Inc()
}
