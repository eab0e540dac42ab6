package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/thall003/proxycart/pkg/enums"
	"github.com/thall003/proxycart/pkg/types"
)

// OrderItem is one purchased line (product variant x quantity) belonging to
// exactly one order.
type OrderItem struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`

	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	VariantID uuid.UUID `gorm:"column:variant_id;type:uuid;not null"`

	Title string `gorm:"column:title;not null"`
	SKU   string `gorm:"column:sku"`

	Quantity            int   `gorm:"column:quantity;not null;default:0"`
	FulfillableQuantity int   `gorm:"column:fulfillable_quantity;not null;default:0"`
	Price               int64 `gorm:"column:price;not null;default:0"`
	PricePerUnit        int64 `gorm:"column:price_per_unit;not null;default:0"`
	CalculatedPrice     int64 `gorm:"column:calculated_price;not null;default:0"`
	Weight              int64 `gorm:"column:weight;not null;default:0"`
	TotalWeight         int64 `gorm:"column:total_weight;not null;default:0"`

	Currency enums.Currency `gorm:"column:currency;type:text;not null;default:'USD'"`

	TaxLines        types.PriceLines `gorm:"column:tax_lines;type:jsonb;serializer:json"`
	ShippingLines   types.PriceLines `gorm:"column:shipping_lines;type:jsonb;serializer:json"`
	DiscountedLines types.PriceLines `gorm:"column:discounted_lines;type:jsonb;serializer:json"`
	CouponLines     types.PriceLines `gorm:"column:coupon_lines;type:jsonb;serializer:json"`

	RequiresShipping     bool `gorm:"column:requires_shipping;not null;default:false"`
	RequiresSubscription bool `gorm:"column:requires_subscription;not null;default:false"`

	SubscriptionInterval int    `gorm:"column:subscription_interval;not null;default:0"`
	SubscriptionUnit     string `gorm:"column:subscription_unit"`

	FulfillmentID      *uuid.UUID `gorm:"column:fulfillment_id;type:uuid"`
	FulfillmentService string     `gorm:"column:fulfillment_service;not null;default:'manual'"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Matches reports whether two items reference the same product variant, the
// merge key for add/update/remove operations.
func (i OrderItem) Matches(other OrderItem) bool {
	return i.ProductID == other.ProductID && i.VariantID == other.VariantID
}
