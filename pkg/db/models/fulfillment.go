package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/thall003/proxycart/pkg/enums"
)

// Fulfillment is one shipment dispatch belonging to exactly one order,
// referencing a subset of the order's items.
type Fulfillment struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`

	Status  enums.FulfillmentStatus `gorm:"column:status;type:fulfillment_status;not null;default:'none'"`
	Service string                  `gorm:"column:service;not null;default:'manual'"`

	TrackingCompany *string `gorm:"column:tracking_company"`
	TrackingNumber  *string `gorm:"column:tracking_number"`

	Items []OrderItem `gorm:"foreignKey:FulfillmentID"`

	SentAt      *time.Time `gorm:"column:sent_at"`
	FulfilledAt *time.Time `gorm:"column:fulfilled_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
