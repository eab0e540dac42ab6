package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/thall003/proxycart/api/responses"
	"github.com/thall003/proxycart/api/validators"
	internalorders "github.com/thall003/proxycart/internal/orders"
	"github.com/thall003/proxycart/pkg/db/models"
	"github.com/thall003/proxycart/pkg/enums"
	pkgerrors "github.com/thall003/proxycart/pkg/errors"
	"github.com/thall003/proxycart/pkg/logger"
)

// OrderDetail returns the full order aggregate.
func OrderDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := orderRef(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), ref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// OrderRecalculate re-derives totals and statuses and reconciles any drift
// against the payment and fulfillment collaborators.
func OrderRecalculate(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := orderRef(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Recalculate(r.Context(), ref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type payRequest struct {
	Amount  int64             `json:"amount" validate:"gte=0"`
	Gateway string            `json:"gateway"`
	Details map[string]string `json:"details"`
}

// OrderPay collects the outstanding balance, or part of it.
func OrderPay(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := orderRef(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload payRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Pay(r.Context(), internalorders.PayInput{
			Ref:     ref,
			Amount:  payload.Amount,
			Gateway: payload.Gateway,
			Details: payload.Details,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// OrderCancel cancels an order that has not started fulfilling.
func OrderCancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := orderRef(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload cancelRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reason := enums.CancelReasonCustomer
		if payload.Reason != "" {
			parsed, err := enums.ParseCancelReason(payload.Reason)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cancel reason"))
				return
			}
			reason = parsed
		}
		order, err := svc.Cancel(r.Context(), internalorders.CancelInput{Ref: ref, Reason: reason})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type refundLineRequest struct {
	TransactionID uuid.UUID `json:"transaction_id" validate:"required"`
	Amount        int64     `json:"amount" validate:"gt=0"`
}

type refundRequest struct {
	Lines  []refundLineRequest `json:"lines" validate:"dive"`
	Reason string              `json:"reason"`
}

// OrderRefund reverses captured payments. An empty lines list refunds every
// captured transaction in full.
func OrderRefund(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := orderRef(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload refundRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines := make([]internalorders.RefundLine, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			lines = append(lines, internalorders.RefundLine{
				TransactionID: line.TransactionID,
				Amount:        line.Amount,
			})
		}
		order, err := svc.Refund(r.Context(), internalorders.RefundInput{
			Ref:    ref,
			Lines:  lines,
			Reason: payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// TransactionRetry re-dispatches a pending or failed transaction.
func TransactionRetry(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := orderRef(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		raw := strings.TrimSpace(chi.URLParam(r, "transactionId"))
		transactionID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction id"))
			return
		}
		order, err := svc.RetryTransaction(r.Context(), ref, transactionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type itemRequest struct {
	ProductID    uuid.UUID `json:"product_id" validate:"required"`
	VariantID    uuid.UUID `json:"variant_id" validate:"required"`
	Quantity     int       `json:"quantity" validate:"gt=0"`
	PricePerUnit int64     `json:"price_per_unit" validate:"gte=0"`
	Weight       int64     `json:"weight" validate:"gte=0"`
	Title        string    `json:"title"`
	SKU          string    `json:"sku"`
}

func (i itemRequest) toInput(ref internalorders.Ref) internalorders.ItemInput {
	return internalorders.ItemInput{
		Ref:          ref,
		ProductID:    i.ProductID,
		VariantID:    i.VariantID,
		Quantity:     i.Quantity,
		PricePerUnit: i.PricePerUnit,
		Weight:       i.Weight,
		Title:        i.Title,
		SKU:          i.SKU,
	}
}

// OrderAddItem adds quantity to an order line, creating it when absent.
func OrderAddItem(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return itemMutationHandler(svc, logg, internalorders.Service.AddItem)
}

// OrderUpdateItem replaces a line's quantity and pricing.
func OrderUpdateItem(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return itemMutationHandler(svc, logg, internalorders.Service.UpdateItem)
}

// OrderRemoveItem decrements a line, deleting it when it reaches zero.
func OrderRemoveItem(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return itemMutationHandler(svc, logg, internalorders.Service.RemoveItem)
}

func itemMutationHandler(
	svc internalorders.Service,
	logg *logger.Logger,
	mutate func(internalorders.Service, context.Context, internalorders.ItemInput) (*models.Order, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := orderRef(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload itemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := mutate(svc, r.Context(), payload.toInput(ref))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// orderRef resolves the {orderRef} path segment, which is either the order's
// UUID or its public token.
func orderRef(r *http.Request) (internalorders.Ref, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderRef"))
	if raw == "" {
		return internalorders.Ref{}, pkgerrors.New(pkgerrors.CodeValidation, "order reference is required")
	}
	if id, err := uuid.Parse(raw); err == nil {
		return internalorders.Ref{ID: id}, nil
	}
	return internalorders.Ref{Token: raw}, nil
}
