package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/thall003/proxycart/api/responses"
	"github.com/thall003/proxycart/api/validators"
	checkoutsvc "github.com/thall003/proxycart/internal/checkout"
	"github.com/thall003/proxycart/pkg/db/models"
	pkgerrors "github.com/thall003/proxycart/pkg/errors"
	"github.com/thall003/proxycart/pkg/logger"
	"github.com/thall003/proxycart/pkg/metrics"
)

// CheckoutService is the slice of the checkout orchestrator the handler needs.
type CheckoutService interface {
	Create(ctx context.Context, req checkoutsvc.CreateRequest) (*models.Order, error)
}

// Checkout converts a cart or subscription into an order.
func Checkout(svc CheckoutService, orderMetrics *metrics.OrderMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutsvc.CreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		started := time.Now()
		order, err := svc.Create(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderMetrics.IncOrderCreated(string(order.ProcessingMethod))
		orderMetrics.ObserveCheckoutDuration(time.Since(started))

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}
