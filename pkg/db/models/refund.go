package models

import (
	"time"

	"github.com/google/uuid"
)

// Refund records an amount refunded against an order, linked to the
// transaction it reverses.
type Refund struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`

	TransactionID *uuid.UUID `gorm:"column:transaction_id;type:uuid"`
	OrderItemID   *uuid.UUID `gorm:"column:order_item_id;type:uuid"`

	Amount int64  `gorm:"column:amount;not null"`
	Reason string `gorm:"column:reason"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
