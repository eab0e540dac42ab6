package ledger

import (
	"github.com/thall003/proxycart/pkg/db/models"
	"github.com/thall003/proxycart/pkg/enums"
)

// FulfillmentCounts holds per-status counts over a set of fulfillments.
type FulfillmentCounts struct {
	Fulfilled int
	Partial   int
	Sent      int
	None      int
	Cancelled int
	Total     int
}

// CountFulfillments counts fulfillments by status. An empty sequence yields
// the zero counts.
func CountFulfillments(fulfillments []models.Fulfillment) FulfillmentCounts {
	counts := FulfillmentCounts{Total: len(fulfillments)}
	for _, f := range fulfillments {
		switch f.Status {
		case enums.FulfillmentStatusFulfilled:
			counts.Fulfilled++
		case enums.FulfillmentStatusPartial:
			counts.Partial++
		case enums.FulfillmentStatusSent:
			counts.Sent++
		case enums.FulfillmentStatusNone:
			counts.None++
		case enums.FulfillmentStatusCancelled:
			counts.Cancelled++
		}
	}
	return counts
}
