package orders

import (
	"github.com/google/uuid"

	"github.com/thall003/proxycart/pkg/enums"
	pkgerrors "github.com/thall003/proxycart/pkg/errors"
)

// Ref identifies an order by id or by its human-readable token.
type Ref struct {
	ID    uuid.UUID
	Token string
}

// Validate rejects a reference that carries neither identifier.
func (r Ref) Validate() error {
	if r.ID == uuid.Nil && r.Token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id or token is required")
	}
	return nil
}

// ItemInput carries an item mutation against an order line.
type ItemInput struct {
	Ref          Ref
	ProductID    uuid.UUID `validate:"required"`
	VariantID    uuid.UUID `validate:"required"`
	Quantity     int       `validate:"gt=0"`
	PricePerUnit int64     `validate:"gte=0"`
	Weight       int64     `validate:"gte=0"`
	Title        string
	SKU          string
}

// PayInput requests payment of an order's outstanding balance.
type PayInput struct {
	Ref     Ref
	Amount  int64 `validate:"gte=0"`
	Gateway string
	Details map[string]string
}

// RefundLine targets a single transaction for a partial refund.
type RefundLine struct {
	TransactionID uuid.UUID `validate:"required"`
	Amount        int64     `validate:"gt=0"`
}

// RefundInput requests a refund. An empty Lines slice means a full refund of
// every captured transaction.
type RefundInput struct {
	Ref    Ref
	Lines  []RefundLine
	Reason string
}

// CancelInput requests cancellation of an order.
type CancelInput struct {
	Ref    Ref
	Reason enums.CancelReason
}
