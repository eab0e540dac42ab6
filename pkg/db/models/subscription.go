package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/thall003/proxycart/pkg/enums"
)

// Subscription is created from an order whose items require renewal.
type Subscription struct {
	ID    uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Token string    `gorm:"column:token;not null;unique"`

	OrderID    uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	CustomerID *uuid.UUID `gorm:"column:customer_id;type:uuid"`

	Status enums.SubscriptionStatus `gorm:"column:status;type:subscription_status;not null;default:'pending'"`

	Interval int    `gorm:"column:interval;not null;default:0"`
	Unit     string `gorm:"column:unit"`

	ActivatedAt *time.Time `gorm:"column:activated_at"`
	RenewsAt    *time.Time `gorm:"column:renews_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
