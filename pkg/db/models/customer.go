package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/thall003/proxycart/pkg/types"
)

// Customer holds the account fields the order core touches: balance,
// lifetime spend and the last-order pointer.
type Customer struct {
	ID    uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email string    `gorm:"column:email;not null;unique"`

	FirstName string `gorm:"column:first_name"`
	LastName  string `gorm:"column:last_name"`

	AccountBalance int64 `gorm:"column:account_balance;not null;default:0"`
	TotalSpent     int64 `gorm:"column:total_spent;not null;default:0"`

	LastOrderID *uuid.UUID `gorm:"column:last_order_id;type:uuid"`

	BillingAddress  *types.Address `gorm:"column:billing_address;type:jsonb;serializer:json"`
	ShippingAddress *types.Address `gorm:"column:shipping_address;type:jsonb;serializer:json"`

	AcceptsMarketing bool `gorm:"column:accepts_marketing;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
