package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/thall003/proxycart/pkg/enums"
)

// Transaction is one payment-ledger entry belonging to exactly one order.
// It is append-only from the order's perspective: status derivation reads
// transactions but never rewrites past ones except through explicit
// capture/void/refund operations.
type Transaction struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`

	Kind   enums.TransactionKind   `gorm:"column:kind;type:transaction_kind;not null"`
	Status enums.TransactionStatus `gorm:"column:status;type:transaction_status;not null;default:'pending'"`

	Amount   int64          `gorm:"column:amount;not null"`
	Currency enums.Currency `gorm:"column:currency;type:text;not null;default:'USD'"`

	Gateway          string  `gorm:"column:gateway;not null;default:'manual'"`
	GatewayReference *string `gorm:"column:gateway_reference"`
	ErrorCode        *string `gorm:"column:error_code"`

	AuthorizedAt *time.Time `gorm:"column:authorized_at"`
	CapturedAt   *time.Time `gorm:"column:captured_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
