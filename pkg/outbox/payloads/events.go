// Package payloads defines the typed event bodies carried inside outbox
// envelopes. Keep these structs backward compatible; bump the envelope
// version when a breaking change is unavoidable.
package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/thall003/proxycart/pkg/enums"
)

// OrderCreatedEvent is emitted once when checkout converts a cart.
type OrderCreatedEvent struct {
	OrderID           uuid.UUID               `json:"order_id"`
	Token             string                  `json:"token"`
	CartToken         *string                 `json:"cart_token,omitempty"`
	CustomerID        *uuid.UUID              `json:"customer_id,omitempty"`
	Email             string                  `json:"email,omitempty"`
	Currency          enums.Currency          `json:"currency"`
	TotalPrice        int64                   `json:"total_price"`
	TotalDue          int64                   `json:"total_due"`
	TotalItems        int                     `json:"total_items"`
	FinancialStatus   enums.FinancialStatus   `json:"financial_status"`
	FulfillmentStatus enums.FulfillmentStatus `json:"fulfillment_status"`
}

// FinancialStatusChangedEvent is emitted on every financial status
// transition, including transitions back to an earlier status.
type FinancialStatusChangedEvent struct {
	OrderID    uuid.UUID             `json:"order_id"`
	Token      string                `json:"token"`
	Previous   enums.FinancialStatus `json:"previous"`
	Current    enums.FinancialStatus `json:"current"`
	TotalPrice int64                 `json:"total_price"`
	TotalDue   int64                 `json:"total_due"`
}

// FulfillmentStatusChangedEvent is emitted on every fulfillment status
// transition.
type FulfillmentStatusChangedEvent struct {
	OrderID  uuid.UUID               `json:"order_id"`
	Token    string                  `json:"token"`
	Previous enums.FulfillmentStatus `json:"previous"`
	Current  enums.FulfillmentStatus `json:"current"`
}

// OrderClosedEvent is emitted when an order transitions to closed.
type OrderClosedEvent struct {
	OrderID  uuid.UUID `json:"order_id"`
	Token    string    `json:"token"`
	ClosedAt time.Time `json:"closed_at"`
}

// OrderCancelledEvent is emitted when an order is cancelled.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID          `json:"order_id"`
	Token       string             `json:"token"`
	Reason      enums.CancelReason `json:"reason"`
	CancelledAt time.Time          `json:"cancelled_at"`
}

// CartConvertedEvent is emitted when a cart is closed by checkout.
type CartConvertedEvent struct {
	CartToken  string     `json:"cart_token"`
	OrderID    uuid.UUID  `json:"order_id"`
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
}

// AccountBalanceDeductedEvent is emitted when checkout spends stored
// customer credit against an order.
type AccountBalanceDeductedEvent struct {
	CustomerID       uuid.UUID `json:"customer_id"`
	OrderID          uuid.UUID `json:"order_id"`
	Amount           int64     `json:"amount"`
	RemainingBalance int64     `json:"remaining_balance"`
}

// CartAbandonedEvent is emitted when the abandonment job closes a stale
// open cart.
type CartAbandonedEvent struct {
	CartToken   string     `json:"cart_token"`
	CustomerID  *uuid.UUID `json:"customer_id,omitempty"`
	AbandonedAt time.Time  `json:"abandoned_at"`
}

// SubscriptionRenewedEvent is emitted when the renewal job converts an
// active subscription into a new order.
type SubscriptionRenewedEvent struct {
	SubscriptionID uuid.UUID  `json:"subscription_id"`
	Token          string     `json:"token"`
	OrderID        uuid.UUID  `json:"order_id"`
	CustomerID     *uuid.UUID `json:"customer_id,omitempty"`
	RenewsAt       *time.Time `json:"renews_at,omitempty"`
}
