package checkout

import (
	"github.com/google/uuid"

	"github.com/thall003/proxycart/pkg/enums"
	pkgerrors "github.com/thall003/proxycart/pkg/errors"
	"github.com/thall003/proxycart/pkg/types"
)

// PaymentDetail is one payment instrument applied to the checkout. Amount
// zero means "the remaining balance due".
type PaymentDetail struct {
	Gateway string            `json:"gateway"`
	Amount  int64             `json:"amount"`
	Details map[string]string `json:"details"`
}

// CreateRequest is the full checkout payload. Exactly one of CartToken and
// SubscriptionToken selects the source of the order.
type CreateRequest struct {
	CartToken         string `json:"cart_token"`
	SubscriptionToken string `json:"subscription_token"`

	CustomerID *uuid.UUID `json:"customer_id"`
	Email      string     `json:"email"`

	BillingAddress  *types.Address `json:"billing_address"`
	ShippingAddress *types.Address `json:"shipping_address"`

	PaymentKind      enums.TransactionKind  `json:"payment_kind"`
	FulfillmentKind  enums.FulfillmentKind  `json:"fulfillment_kind"`
	ProcessingMethod enums.ProcessingMethod `json:"processing_method"`

	PaymentDetails []PaymentDetail `json:"payment_details"`
}

// Validate enforces the structural rules the orchestration relies on.
func (r CreateRequest) Validate() error {
	if r.CartToken == "" && r.SubscriptionToken == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart token or subscription token required")
	}
	if r.CartToken != "" && r.SubscriptionToken != "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart token and subscription token are mutually exclusive")
	}
	if len(r.PaymentDetails) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment details required")
	}
	for _, detail := range r.PaymentDetails {
		if detail.Amount < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment detail amount must not be negative")
		}
	}
	if r.PaymentKind != "" && !r.PaymentKind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment kind")
	}
	if r.FulfillmentKind != "" && !r.FulfillmentKind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid fulfillment kind")
	}
	return nil
}
