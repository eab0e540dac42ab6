package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOrderMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOrderMetrics(reg)

	metrics.IncOrderCreated("checkout")
	metrics.IncPaymentDispatch("manual", "sale", "success")
	metrics.IncFulfillmentDispatch("manual", "sent")
	metrics.ObserveCheckoutDuration(150 * time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "orders_created_total", "processing_method", "checkout"); err != nil {
		t.Fatalf("fetch orders created: %v", err)
	} else if got != 1 {
		t.Fatalf("expected created=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "payment_dispatch_total", "gateway", "manual"); err != nil {
		t.Fatalf("fetch payments: %v", err)
	} else if got != 1 {
		t.Fatalf("expected payments=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "fulfillment_dispatch_total", "service", "manual"); err != nil {
		t.Fatalf("fetch fulfillments: %v", err)
	} else if got != 1 {
		t.Fatalf("expected fulfillments=1, got %f", got)
	}
}

func TestOrderMetricsNilReceiverSafe(t *testing.T) {
	var metrics *OrderMetrics
	metrics.IncOrderCreated("checkout")
	metrics.IncPaymentDispatch("manual", "sale", "success")
	metrics.IncFulfillmentDispatch("manual", "sent")
	metrics.ObserveCheckoutDuration(time.Second)

	empty := NewOrderMetrics(nil)
	empty.IncOrderCreated("checkout")
}
