package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/thall003/proxycart/pkg/enums"
	"github.com/thall003/proxycart/pkg/types"
)

// Cart is the pre-checkout snapshot an order is created from.
type Cart struct {
	ID    uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Token string    `gorm:"column:token;not null;unique"`

	CustomerID *uuid.UUID `gorm:"column:customer_id;type:uuid"`
	OrderID    *uuid.UUID `gorm:"column:order_id;type:uuid"`

	Status   enums.CartStatus `gorm:"column:status;type:cart_status;not null;default:'open'"`
	Currency enums.Currency   `gorm:"column:currency;type:text;not null;default:'USD'"`

	LineItems []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`

	TaxLines         types.PriceLines `gorm:"column:tax_lines;type:jsonb;serializer:json"`
	ShippingLines    types.PriceLines `gorm:"column:shipping_lines;type:jsonb;serializer:json"`
	DiscountedLines  types.PriceLines `gorm:"column:discounted_lines;type:jsonb;serializer:json"`
	CouponLines      types.PriceLines `gorm:"column:coupon_lines;type:jsonb;serializer:json"`
	PricingOverrides types.PriceLines `gorm:"column:pricing_overrides;type:jsonb;serializer:json"`

	SubtotalPrice       int64 `gorm:"column:subtotal_price;not null;default:0"`
	TotalTax            int64 `gorm:"column:total_tax;not null;default:0"`
	TotalShipping       int64 `gorm:"column:total_shipping;not null;default:0"`
	TotalDiscounts      int64 `gorm:"column:total_discounts;not null;default:0"`
	TotalCoupons        int64 `gorm:"column:total_coupons;not null;default:0"`
	TotalOverrides      int64 `gorm:"column:total_overrides;not null;default:0"`
	TotalLineItemsPrice int64 `gorm:"column:total_line_items_price;not null;default:0"`
	TotalPrice          int64 `gorm:"column:total_price;not null;default:0"`
	TotalDue            int64 `gorm:"column:total_due;not null;default:0"`
	TotalWeight         int64 `gorm:"column:total_weight;not null;default:0"`

	HasShipping     bool `gorm:"column:has_shipping;not null;default:false"`
	HasSubscription bool `gorm:"column:has_subscription;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// CartItem is one line in a cart, carried over into an OrderItem at checkout.
type CartItem struct {
	ID     uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID uuid.UUID `gorm:"column:cart_id;type:uuid;not null;index"`

	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	VariantID uuid.UUID `gorm:"column:variant_id;type:uuid;not null"`

	Title string `gorm:"column:title;not null"`
	SKU   string `gorm:"column:sku"`

	Quantity     int   `gorm:"column:quantity;not null;default:0"`
	Price        int64 `gorm:"column:price;not null;default:0"`
	PricePerUnit int64 `gorm:"column:price_per_unit;not null;default:0"`
	Weight       int64 `gorm:"column:weight;not null;default:0"`

	TaxLines        types.PriceLines `gorm:"column:tax_lines;type:jsonb;serializer:json"`
	ShippingLines   types.PriceLines `gorm:"column:shipping_lines;type:jsonb;serializer:json"`
	DiscountedLines types.PriceLines `gorm:"column:discounted_lines;type:jsonb;serializer:json"`
	CouponLines     types.PriceLines `gorm:"column:coupon_lines;type:jsonb;serializer:json"`

	RequiresShipping     bool `gorm:"column:requires_shipping;not null;default:false"`
	RequiresSubscription bool `gorm:"column:requires_subscription;not null;default:false"`

	SubscriptionInterval int    `gorm:"column:subscription_interval;not null;default:0"`
	SubscriptionUnit     string `gorm:"column:subscription_unit"`

	FulfillmentService string `gorm:"column:fulfillment_service;not null;default:'manual'"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
