package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/thall003/proxycart/pkg/enums"
	"github.com/thall003/proxycart/pkg/types"
)

// Order is one purchase transaction envelope. Money fields are integer
// minor-currency units; totals and the two status fields are derived, never
// written directly by callers.
type Order struct {
	ID    uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Token string    `gorm:"column:token;not null;unique"`

	CartToken         *string    `gorm:"column:cart_token"`
	SubscriptionToken *string    `gorm:"column:subscription_token"`
	CustomerID        *uuid.UUID `gorm:"column:customer_id;type:uuid"`

	Email    string         `gorm:"column:email"`
	Currency enums.Currency `gorm:"column:currency;type:text;not null;default:'USD'"`

	Status            enums.OrderStatus       `gorm:"column:status;type:order_status;not null;default:'open'"`
	FinancialStatus   enums.FinancialStatus   `gorm:"column:financial_status;type:financial_status;not null;default:'pending'"`
	FulfillmentStatus enums.FulfillmentStatus `gorm:"column:fulfillment_status;type:fulfillment_status;not null;default:'none'"`

	PaymentKind      enums.TransactionKind  `gorm:"column:payment_kind;type:transaction_kind;not null;default:'manual'"`
	FulfillmentKind  enums.FulfillmentKind  `gorm:"column:fulfillment_kind;type:fulfillment_kind;not null;default:'manual'"`
	ProcessingMethod enums.ProcessingMethod `gorm:"column:processing_method;type:processing_method"`

	HasShipping     bool `gorm:"column:has_shipping;not null;default:false"`
	HasSubscription bool `gorm:"column:has_subscription;not null;default:false"`

	BillingAddress  *types.Address `gorm:"column:billing_address;type:jsonb;serializer:json"`
	ShippingAddress *types.Address `gorm:"column:shipping_address;type:jsonb;serializer:json"`

	TaxLines         types.PriceLines `gorm:"column:tax_lines;type:jsonb;serializer:json"`
	ShippingLines    types.PriceLines `gorm:"column:shipping_lines;type:jsonb;serializer:json"`
	DiscountedLines  types.PriceLines `gorm:"column:discounted_lines;type:jsonb;serializer:json"`
	CouponLines      types.PriceLines `gorm:"column:coupon_lines;type:jsonb;serializer:json"`
	PricingOverrides types.PriceLines `gorm:"column:pricing_overrides;type:jsonb;serializer:json"`

	TotalItems          int   `gorm:"column:total_items;not null;default:0"`
	TotalLineItemsPrice int64 `gorm:"column:total_line_items_price;not null;default:0"`
	SubtotalPrice       int64 `gorm:"column:subtotal_price;not null;default:0"`
	TotalTax            int64 `gorm:"column:total_tax;not null;default:0"`
	TotalShipping       int64 `gorm:"column:total_shipping;not null;default:0"`
	TotalDiscounts      int64 `gorm:"column:total_discounts;not null;default:0"`
	TotalCoupons        int64 `gorm:"column:total_coupons;not null;default:0"`
	TotalOverrides      int64 `gorm:"column:total_overrides;not null;default:0"`
	TotalPrice          int64 `gorm:"column:total_price;not null;default:0"`
	TotalDue            int64 `gorm:"column:total_due;not null;default:0"`
	TotalRefunds        int64 `gorm:"column:total_refunds;not null;default:0"`
	TotalAuthorized     int64 `gorm:"column:total_authorized;not null;default:0"`
	TotalCaptured       int64 `gorm:"column:total_captured;not null;default:0"`
	TotalVoided         int64 `gorm:"column:total_voided;not null;default:0"`
	TotalCancelled      int64 `gorm:"column:total_cancelled;not null;default:0"`
	TotalPending        int64 `gorm:"column:total_pending;not null;default:0"`

	TotalFulfilledFulfillments int `gorm:"column:total_fulfilled_fulfillments;not null;default:0"`
	TotalPartialFulfillments   int `gorm:"column:total_partial_fulfillments;not null;default:0"`
	TotalSentFulfillments      int `gorm:"column:total_sent_fulfillments;not null;default:0"`
	TotalPendingFulfillments   int `gorm:"column:total_pending_fulfillments;not null;default:0"`
	TotalCancelledFulfillments int `gorm:"column:total_cancelled_fulfillments;not null;default:0"`

	CancelReason *enums.CancelReason `gorm:"column:cancel_reason;type:cancel_reason"`
	CancelledAt  *time.Time          `gorm:"column:cancelled_at"`
	ClosedAt     *time.Time          `gorm:"column:closed_at"`
	ProcessedAt  *time.Time          `gorm:"column:processed_at"`

	Note string `gorm:"column:note"`

	// Owned collections, loaded on demand before any derivation runs.
	Items        []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Transactions []Transaction `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Fulfillments []Fulfillment `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Refunds      []Refund      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// ItemsLoaded reports whether the items collection has been attached.
// A loaded-but-empty collection is represented by an empty non-nil slice.
func (o *Order) ItemsLoaded() bool { return o.Items != nil }

// TransactionsLoaded reports whether the transactions collection has been attached.
func (o *Order) TransactionsLoaded() bool { return o.Transactions != nil }

// FulfillmentsLoaded reports whether the fulfillments collection has been attached.
func (o *Order) FulfillmentsLoaded() bool { return o.Fulfillments != nil }
