package ledger

import (
	"github.com/thall003/proxycart/pkg/db/models"
	"github.com/thall003/proxycart/pkg/enums"
)

// TransactionSummary holds per-kind totals over a set of transactions,
// partitioned by status first. Capture and sale kinds are summed together
// into Sale. Pending covers pending/failure/error statuses; Cancelled covers
// cancelled status. Within those two buckets void and refund kinds subtract.
type TransactionSummary struct {
	Authorized int64
	Sale       int64
	Refunded   int64
	Voided     int64
	Pending    int64
	Cancelled  int64
}

// SummarizeTransactions classifies transactions by status and kind and
// produces per-kind totals. An empty sequence yields the zero summary.
func SummarizeTransactions(transactions []models.Transaction) TransactionSummary {
	var summary TransactionSummary
	for _, tx := range transactions {
		switch tx.Status {
		case enums.TransactionStatusSuccess:
			switch tx.Kind {
			case enums.TransactionKindAuthorize:
				summary.Authorized += tx.Amount
			case enums.TransactionKindVoid:
				summary.Voided += tx.Amount
			case enums.TransactionKindCapture, enums.TransactionKindSale:
				summary.Sale += tx.Amount
			case enums.TransactionKindRefund:
				summary.Refunded += tx.Amount
			}
		case enums.TransactionStatusPending, enums.TransactionStatusFailure, enums.TransactionStatusError:
			summary.Pending += pendingDelta(tx)
		case enums.TransactionStatusCancelled:
			summary.Cancelled += pendingDelta(tx)
		}
	}
	return summary
}

// pendingDelta treats authorize/capture/sale as money still expected and
// void/refund as money expected to leave.
func pendingDelta(tx models.Transaction) int64 {
	switch tx.Kind {
	case enums.TransactionKindAuthorize, enums.TransactionKindCapture, enums.TransactionKindSale:
		return tx.Amount
	case enums.TransactionKindVoid, enums.TransactionKindRefund:
		return -tx.Amount
	default:
		return 0
	}
}
