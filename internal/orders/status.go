package orders

import (
	"github.com/thall003/proxycart/internal/ledger"
	"github.com/thall003/proxycart/pkg/enums"
)

// FinancialTotals carries the derived money fields that accompany a
// financial status resolution. Due is floored at zero.
type FinancialTotals struct {
	Authorized int64
	Captured   int64
	Refunds    int64
	Voided     int64
	Pending    int64
	Cancelled  int64
	Due        int64
}

// ResolveFinancialStatus maps an order total and a transaction summary onto
// a financial status. The clauses are evaluated in order and the first match
// wins; that ordering is the tie-break contract and must not be rearranged.
func ResolveFinancialStatus(totalPrice int64, summary ledger.TransactionSummary) (enums.FinancialStatus, FinancialTotals) {
	totals := FinancialTotals{
		Authorized: summary.Authorized,
		Captured:   summary.Sale,
		Refunds:    summary.Refunded,
		Voided:     summary.Voided,
		Pending:    summary.Pending,
		Cancelled:  summary.Cancelled,
		Due:        totalPrice - summary.Sale,
	}
	if totals.Due < 0 {
		totals.Due = 0
	}

	var status enums.FinancialStatus
	switch {
	case totalPrice == 0:
		status = enums.FinancialStatusPaid
	case summary.Authorized == totalPrice && summary.Sale == 0 && summary.Voided == 0 && summary.Refunded == 0:
		status = enums.FinancialStatusAuthorized
	case (summary.Authorized == summary.Voided && summary.Voided > 0) ||
		(totalPrice == summary.Voided && summary.Voided > 0):
		status = enums.FinancialStatusVoided
	case summary.Sale == totalPrice && summary.Refunded == 0:
		status = enums.FinancialStatusPaid
	case summary.Sale > 0 && summary.Sale < totalPrice && summary.Refunded == 0:
		status = enums.FinancialStatusPartiallyPaid
	case totalPrice == summary.Refunded:
		status = enums.FinancialStatusRefunded
	case summary.Refunded > 0 && summary.Refunded < totalPrice:
		status = enums.FinancialStatusPartiallyRefunded
	default:
		status = enums.FinancialStatusPending
	}
	return status, totals
}

// ResolveFulfillmentStatus maps fulfillment counts onto the order-level
// fulfillment status. An order with no fulfillments at all is `none`.
func ResolveFulfillmentStatus(counts ledger.FulfillmentCounts) enums.FulfillmentStatus {
	n := counts.Total
	switch {
	case n > 0 && counts.Fulfilled == n:
		return enums.FulfillmentStatusFulfilled
	case n > 0 && counts.Sent == n:
		return enums.FulfillmentStatusSent
	case counts.Partial > 0:
		return enums.FulfillmentStatusPartial
	case n > 0 && counts.None >= n:
		return enums.FulfillmentStatusNone
	case n > 0 && counts.Cancelled == n:
		return enums.FulfillmentStatusCancelled
	default:
		return enums.FulfillmentStatusNone
	}
}

// ClosesOrder reports whether a derived fulfillment status also closes the
// order. Fully fulfilled and fully cancelled orders have nothing left to do.
func ClosesOrder(status enums.FulfillmentStatus) bool {
	return status == enums.FulfillmentStatusFulfilled || status == enums.FulfillmentStatusCancelled
}
