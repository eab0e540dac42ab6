package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/thall003/proxycart/pkg/db/models"
	"github.com/thall003/proxycart/pkg/enums"
	"github.com/thall003/proxycart/pkg/logger"
)

// Coordinator issues compensating payment and fulfillment actions when a
// recalculation changes an order's due amount or item count. Deltas are
// exact integer comparisons; equal values are always a no-op.
type Coordinator struct {
	payments     PaymentProvider
	fulfillments FulfillmentProvider
	logg         *logger.Logger
}

// NewCoordinator wires the coordinator to its collaborators.
func NewCoordinator(payments PaymentProvider, fulfillments FulfillmentProvider, logg *logger.Logger) *Coordinator {
	return &Coordinator{payments: payments, fulfillments: fulfillments, logg: logg}
}

// ReconcileFinancial compares the freshly derived total_due against its
// pre-recalculation value. A decrease releases money back (refund when
// anything was captured, void otherwise); an increase issues a new charge
// following the order's payment kind. The returned transaction, if any, has
// already been persisted by the payment collaborator.
func (c *Coordinator) ReconcileFinancial(ctx context.Context, tx *gorm.DB, order *models.Order, previousDue int64) (*models.Transaction, error) {
	if order.TotalDue == previousDue || c.payments == nil {
		return nil, nil
	}

	req := PaymentRequest{
		OrderID:  order.ID,
		Currency: order.Currency,
		Gateway:  lastGateway(order),
	}

	if order.TotalDue < previousDue {
		req.Amount = previousDue - order.TotalDue
		c.log(ctx, order, req.Amount, "reconciling decreased balance")
		if order.TotalCaptured > 0 {
			return c.payments.Refund(ctx, tx, req)
		}
		return c.payments.Void(ctx, tx, req)
	}

	req.Amount = order.TotalDue - previousDue
	c.log(ctx, order, req.Amount, "reconciling increased balance")
	if order.PaymentKind == enums.TransactionKindAuthorize {
		return c.payments.Authorize(ctx, tx, req)
	}
	return c.payments.Sale(ctx, tx, req)
}

// ReconcileItems compares the derived total_items against its
// pre-recalculation value and delegates the fulfillment adjustment.
func (c *Coordinator) ReconcileItems(ctx context.Context, tx *gorm.DB, order *models.Order, previousItems int) error {
	if order.TotalItems == previousItems || c.fulfillments == nil {
		return nil
	}
	if order.TotalItems > previousItems {
		return c.fulfillments.ReconcileCreate(ctx, tx, order)
	}
	return c.fulfillments.ReconcileUpdate(ctx, tx, order)
}

func (c *Coordinator) log(ctx context.Context, order *models.Order, amount int64, msg string) {
	if c.logg == nil {
		return
	}
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"amount":   amount,
	})
	c.logg.Info(logCtx, msg)
}

// lastGateway picks the gateway of the most recent transaction so
// compensating actions land on the same processor.
func lastGateway(order *models.Order) string {
	gateway := "manual"
	for _, transaction := range order.Transactions {
		if transaction.Gateway != "" {
			gateway = transaction.Gateway
		}
	}
	return gateway
}
