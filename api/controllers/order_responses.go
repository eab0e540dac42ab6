package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/thall003/proxycart/pkg/db/models"
	"github.com/thall003/proxycart/pkg/types"
)

type orderResponse struct {
	ID    uuid.UUID `json:"id"`
	Token string    `json:"token"`

	CartToken         *string    `json:"cart_token,omitempty"`
	SubscriptionToken *string    `json:"subscription_token,omitempty"`
	CustomerID        *uuid.UUID `json:"customer_id,omitempty"`

	Email    string `json:"email,omitempty"`
	Currency string `json:"currency"`

	Status            string `json:"status"`
	FinancialStatus   string `json:"financial_status"`
	FulfillmentStatus string `json:"fulfillment_status"`

	PaymentKind      string `json:"payment_kind"`
	FulfillmentKind  string `json:"fulfillment_kind"`
	ProcessingMethod string `json:"processing_method,omitempty"`

	HasShipping     bool `json:"has_shipping"`
	HasSubscription bool `json:"has_subscription"`

	BillingAddress  *types.Address `json:"billing_address,omitempty"`
	ShippingAddress *types.Address `json:"shipping_address,omitempty"`

	TotalItems          int   `json:"total_items"`
	TotalLineItemsPrice int64 `json:"total_line_items_price"`
	SubtotalPrice       int64 `json:"subtotal_price"`
	TotalTax            int64 `json:"total_tax"`
	TotalShipping       int64 `json:"total_shipping"`
	TotalDiscounts      int64 `json:"total_discounts"`
	TotalCoupons        int64 `json:"total_coupons"`
	TotalOverrides      int64 `json:"total_overrides"`
	TotalPrice          int64 `json:"total_price"`
	TotalDue            int64 `json:"total_due"`
	TotalRefunds        int64 `json:"total_refunds"`
	TotalAuthorized     int64 `json:"total_authorized"`
	TotalCaptured       int64 `json:"total_captured"`
	TotalPending        int64 `json:"total_pending"`

	CancelReason *string    `json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`

	Items        []orderItemResponse   `json:"items,omitempty"`
	Transactions []transactionResponse `json:"transactions,omitempty"`
	Fulfillments []fulfillmentResponse `json:"fulfillments,omitempty"`
	Refunds      []refundResponse      `json:"refunds,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type orderItemResponse struct {
	ID                   uuid.UUID  `json:"id"`
	ProductID            uuid.UUID  `json:"product_id"`
	VariantID            uuid.UUID  `json:"variant_id"`
	Title                string     `json:"title,omitempty"`
	SKU                  string     `json:"sku,omitempty"`
	Quantity             int        `json:"quantity"`
	FulfillableQuantity  int        `json:"fulfillable_quantity"`
	PricePerUnit         int64      `json:"price_per_unit"`
	Price                int64      `json:"price"`
	CalculatedPrice      int64      `json:"calculated_price"`
	RequiresShipping     bool       `json:"requires_shipping"`
	RequiresSubscription bool       `json:"requires_subscription"`
	FulfillmentID        *uuid.UUID `json:"fulfillment_id,omitempty"`
	FulfillmentService   string     `json:"fulfillment_service,omitempty"`
}

type transactionResponse struct {
	ID               uuid.UUID `json:"id"`
	Kind             string    `json:"kind"`
	Status           string    `json:"status"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	Gateway          string    `json:"gateway"`
	GatewayReference *string   `json:"gateway_reference,omitempty"`
	ErrorCode        *string   `json:"error_code,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type fulfillmentResponse struct {
	ID              uuid.UUID  `json:"id"`
	Status          string     `json:"status"`
	Service         string     `json:"service"`
	TrackingCompany *string    `json:"tracking_company,omitempty"`
	TrackingNumber  *string    `json:"tracking_number,omitempty"`
	SentAt          *time.Time `json:"sent_at,omitempty"`
	FulfilledAt     *time.Time `json:"fulfilled_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
}

type refundResponse struct {
	ID            uuid.UUID  `json:"id"`
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
	Amount        int64      `json:"amount"`
	Reason        string     `json:"reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}

	resp := orderResponse{
		ID:                order.ID,
		Token:             order.Token,
		CartToken:         order.CartToken,
		SubscriptionToken: order.SubscriptionToken,
		CustomerID:        order.CustomerID,
		Email:             order.Email,
		Currency:          string(order.Currency),
		Status:            string(order.Status),
		FinancialStatus:   string(order.FinancialStatus),
		FulfillmentStatus: string(order.FulfillmentStatus),
		PaymentKind:       string(order.PaymentKind),
		FulfillmentKind:   string(order.FulfillmentKind),
		ProcessingMethod:  string(order.ProcessingMethod),
		HasShipping:       order.HasShipping,
		HasSubscription:   order.HasSubscription,
		BillingAddress:    order.BillingAddress,
		ShippingAddress:   order.ShippingAddress,

		TotalItems:          order.TotalItems,
		TotalLineItemsPrice: order.TotalLineItemsPrice,
		SubtotalPrice:       order.SubtotalPrice,
		TotalTax:            order.TotalTax,
		TotalShipping:       order.TotalShipping,
		TotalDiscounts:      order.TotalDiscounts,
		TotalCoupons:        order.TotalCoupons,
		TotalOverrides:      order.TotalOverrides,
		TotalPrice:          order.TotalPrice,
		TotalDue:            order.TotalDue,
		TotalRefunds:        order.TotalRefunds,
		TotalAuthorized:     order.TotalAuthorized,
		TotalCaptured:       order.TotalCaptured,
		TotalPending:        order.TotalPending,

		CancelledAt: order.CancelledAt,
		ClosedAt:    order.ClosedAt,
		ProcessedAt: order.ProcessedAt,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}

	if order.CancelReason != nil {
		reason := string(*order.CancelReason)
		resp.CancelReason = &reason
	}

	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:                   item.ID,
			ProductID:            item.ProductID,
			VariantID:            item.VariantID,
			Title:                item.Title,
			SKU:                  item.SKU,
			Quantity:             item.Quantity,
			FulfillableQuantity:  item.FulfillableQuantity,
			PricePerUnit:         item.PricePerUnit,
			Price:                item.Price,
			CalculatedPrice:      item.CalculatedPrice,
			RequiresShipping:     item.RequiresShipping,
			RequiresSubscription: item.RequiresSubscription,
			FulfillmentID:        item.FulfillmentID,
			FulfillmentService:   item.FulfillmentService,
		})
	}
	for _, transaction := range order.Transactions {
		resp.Transactions = append(resp.Transactions, transactionResponse{
			ID:               transaction.ID,
			Kind:             string(transaction.Kind),
			Status:           string(transaction.Status),
			Amount:           transaction.Amount,
			Currency:         string(transaction.Currency),
			Gateway:          transaction.Gateway,
			GatewayReference: transaction.GatewayReference,
			ErrorCode:        transaction.ErrorCode,
			CreatedAt:        transaction.CreatedAt,
		})
	}
	for _, fulfillment := range order.Fulfillments {
		resp.Fulfillments = append(resp.Fulfillments, fulfillmentResponse{
			ID:              fulfillment.ID,
			Status:          string(fulfillment.Status),
			Service:         fulfillment.Service,
			TrackingCompany: fulfillment.TrackingCompany,
			TrackingNumber:  fulfillment.TrackingNumber,
			SentAt:          fulfillment.SentAt,
			FulfilledAt:     fulfillment.FulfilledAt,
			CancelledAt:     fulfillment.CancelledAt,
		})
	}
	for _, refund := range order.Refunds {
		resp.Refunds = append(resp.Refunds, refundResponse{
			ID:            refund.ID,
			TransactionID: refund.TransactionID,
			Amount:        refund.Amount,
			Reason:        refund.Reason,
			CreatedAt:     refund.CreatedAt,
		})
	}

	return resp
}
