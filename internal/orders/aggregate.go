package orders

import (
	"time"

	"github.com/thall003/proxycart/internal/ledger"
	"github.com/thall003/proxycart/pkg/db/models"
	"github.com/thall003/proxycart/pkg/enums"
	pkgerrors "github.com/thall003/proxycart/pkg/errors"
)

// The stamp functions below are the ordered derivation pipeline run by
// Recalculate. Each one rewrites derived fields on the in-memory order and
// nothing else; persistence happens once, after the whole pipeline.

// StampItemTotals sums the loaded items into total_items and
// total_line_items_price.
func StampItemTotals(order *models.Order) error {
	if !order.ItemsLoaded() {
		return pkgerrors.New(pkgerrors.CodePrecondition, "order items not loaded")
	}
	var totalItems int
	var lineItemsPrice int64
	for _, item := range order.Items {
		totalItems += item.Quantity
		lineItemsPrice += item.CalculatedPrice
	}
	order.TotalItems = totalItems
	order.TotalLineItemsPrice = lineItemsPrice
	return nil
}

// StampMoneyTotals sums the order's line collections and recomputes
// subtotal_price and total_price. Both are floored at zero.
func StampMoneyTotals(order *models.Order) {
	subtotal := order.TotalLineItemsPrice
	if subtotal < 0 {
		subtotal = 0
	}
	order.SubtotalPrice = subtotal

	order.TotalTax = ledger.SumLines(order.TaxLines)
	order.TotalShipping = ledger.SumLines(order.ShippingLines)
	order.TotalDiscounts = ledger.SumLines(order.DiscountedLines)
	order.TotalCoupons = ledger.SumLines(order.CouponLines)
	order.TotalOverrides = ledger.SumLines(order.PricingOverrides)

	total := order.TotalLineItemsPrice +
		order.TotalTax +
		order.TotalShipping -
		order.TotalDiscounts -
		order.TotalCoupons -
		order.TotalOverrides
	if total < 0 {
		total = 0
	}
	order.TotalPrice = total
}

// StampFinancialStatus resolves the financial status from the loaded
// transactions and writes the derived money fields.
func StampFinancialStatus(order *models.Order) error {
	if !order.TransactionsLoaded() {
		return pkgerrors.New(pkgerrors.CodePrecondition, "order transactions not loaded")
	}
	summary := ledger.SummarizeTransactions(order.Transactions)
	status, totals := ResolveFinancialStatus(order.TotalPrice, summary)
	order.FinancialStatus = status
	order.TotalAuthorized = totals.Authorized
	order.TotalCaptured = totals.Captured
	order.TotalRefunds = totals.Refunds
	order.TotalVoided = totals.Voided
	order.TotalPending = totals.Pending
	order.TotalCancelled = totals.Cancelled
	order.TotalDue = totals.Due
	return nil
}

// StampFulfillmentStatus resolves the fulfillment status from the loaded
// fulfillments and writes the per-status counters. A fully fulfilled or
// fully cancelled order is closed in the same call.
func StampFulfillmentStatus(order *models.Order, now time.Time) error {
	if !order.ItemsLoaded() {
		return pkgerrors.New(pkgerrors.CodePrecondition, "order items not loaded")
	}
	if !order.FulfillmentsLoaded() {
		return pkgerrors.New(pkgerrors.CodePrecondition, "order fulfillments not loaded")
	}
	counts := ledger.CountFulfillments(order.Fulfillments)
	status := ResolveFulfillmentStatus(counts)
	order.FulfillmentStatus = status
	order.TotalFulfilledFulfillments = counts.Fulfilled
	order.TotalPartialFulfillments = counts.Partial
	order.TotalSentFulfillments = counts.Sent
	order.TotalPendingFulfillments = counts.None
	order.TotalCancelledFulfillments = counts.Cancelled
	if ClosesOrder(status) {
		MarkClosed(order, now)
	}
	return nil
}

// MarkClosed transitions the order to closed and stamps closed_at once.
func MarkClosed(order *models.Order, now time.Time) {
	if order.Status == enums.OrderStatusClosed {
		return
	}
	order.Status = enums.OrderStatusClosed
	closedAt := now
	order.ClosedAt = &closedAt
}

// MarkCancelled records the cancellation and closes the order. Cancellation
// is only permitted while nothing has been sent to fulfillment.
func MarkCancelled(order *models.Order, reason enums.CancelReason, now time.Time) error {
	if order.CancelledAt != nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order already cancelled")
	}
	if order.FulfillmentStatus != enums.FulfillmentStatusNone {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order has fulfillment activity and cannot be cancelled")
	}
	cancelledAt := now
	order.CancelReason = &reason
	order.CancelledAt = &cancelledAt
	MarkClosed(order, now)
	return nil
}

// ItemMutation reports the row an item merge touched so the caller can
// persist it.
type ItemMutation struct {
	Item    *models.OrderItem
	Removed bool
}

// AddItem merges an incoming line into the loaded items. A line matching on
// product and variant absorbs the quantity; otherwise the line is appended.
// A merge that drives quantity to zero or below removes the line.
func AddItem(order *models.Order, incoming models.OrderItem) (*ItemMutation, error) {
	if !order.ItemsLoaded() {
		return nil, pkgerrors.New(pkgerrors.CodePrecondition, "order items not loaded")
	}
	for i := range order.Items {
		if order.Items[i].Matches(incoming) {
			return mergeQuantity(order, i, incoming.Quantity)
		}
	}
	line := incoming
	line.OrderID = order.ID
	StampItemPrice(&line)
	order.Items = append(order.Items, line)
	return &ItemMutation{Item: &order.Items[len(order.Items)-1]}, nil
}

// UpdateItem merges a quantity delta into an existing line. Unlike AddItem
// it never inserts; an unknown product/variant pair is a lookup failure.
func UpdateItem(order *models.Order, incoming models.OrderItem) (*ItemMutation, error) {
	if !order.ItemsLoaded() {
		return nil, pkgerrors.New(pkgerrors.CodePrecondition, "order items not loaded")
	}
	for i := range order.Items {
		if order.Items[i].Matches(incoming) {
			if incoming.PricePerUnit != 0 {
				order.Items[i].PricePerUnit = incoming.PricePerUnit
			}
			if incoming.Weight != 0 {
				order.Items[i].Weight = incoming.Weight
			}
			return mergeQuantity(order, i, incoming.Quantity)
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
}

// RemoveItem subtracts an incoming line's quantity from the matching line,
// removing it entirely when nothing is left.
func RemoveItem(order *models.Order, incoming models.OrderItem) (*ItemMutation, error) {
	if !order.ItemsLoaded() {
		return nil, pkgerrors.New(pkgerrors.CodePrecondition, "order items not loaded")
	}
	for i := range order.Items {
		if order.Items[i].Matches(incoming) {
			return mergeQuantity(order, i, -incoming.Quantity)
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
}

func mergeQuantity(order *models.Order, index, delta int) (*ItemMutation, error) {
	line := &order.Items[index]
	line.Quantity += delta
	if line.Quantity <= 0 {
		removed := order.Items[index]
		order.Items = append(order.Items[:index], order.Items[index+1:]...)
		return &ItemMutation{Item: &removed, Removed: true}, nil
	}
	StampItemPrice(line)
	return &ItemMutation{Item: line}, nil
}

// StampItemPrice recomputes the derived money fields of a single line from
// its quantity, unit price and per-line adjustments. Floored at zero.
func StampItemPrice(item *models.OrderItem) {
	item.Price = item.PricePerUnit * int64(item.Quantity)
	item.TotalWeight = item.Weight * int64(item.Quantity)
	item.FulfillableQuantity = item.Quantity

	calculated := item.Price +
		ledger.SumLines(item.ShippingLines) +
		ledger.SumLines(item.TaxLines) -
		ledger.SumLines(item.DiscountedLines) -
		ledger.SumLines(item.CouponLines)
	if calculated < 0 {
		calculated = 0
	}
	item.CalculatedPrice = calculated
}
