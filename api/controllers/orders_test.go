package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	internalorders "github.com/thall003/proxycart/internal/orders"
	"github.com/thall003/proxycart/pkg/db/models"
	"github.com/thall003/proxycart/pkg/enums"
	pkgerrors "github.com/thall003/proxycart/pkg/errors"
)

type stubOrderService struct {
	get    func(ctx context.Context, ref internalorders.Ref) (*models.Order, error)
	pay    func(ctx context.Context, input internalorders.PayInput) (*models.Order, error)
	cancel func(ctx context.Context, input internalorders.CancelInput) (*models.Order, error)
	refund func(ctx context.Context, input internalorders.RefundInput) (*models.Order, error)
	retry  func(ctx context.Context, ref internalorders.Ref, transactionID uuid.UUID) (*models.Order, error)
	item   func(ctx context.Context, input internalorders.ItemInput) (*models.Order, error)
}

func (s *stubOrderService) Get(ctx context.Context, ref internalorders.Ref) (*models.Order, error) {
	if s.get != nil {
		return s.get(ctx, ref)
	}
	panic("not implemented")
}

func (s *stubOrderService) Recalculate(ctx context.Context, ref internalorders.Ref) (*models.Order, error) {
	if s.get != nil {
		return s.get(ctx, ref)
	}
	panic("not implemented")
}

func (s *stubOrderService) Pay(ctx context.Context, input internalorders.PayInput) (*models.Order, error) {
	if s.pay != nil {
		return s.pay(ctx, input)
	}
	panic("not implemented")
}

func (s *stubOrderService) RetryTransaction(ctx context.Context, ref internalorders.Ref, transactionID uuid.UUID) (*models.Order, error) {
	if s.retry != nil {
		return s.retry(ctx, ref, transactionID)
	}
	panic("not implemented")
}

func (s *stubOrderService) Refund(ctx context.Context, input internalorders.RefundInput) (*models.Order, error) {
	if s.refund != nil {
		return s.refund(ctx, input)
	}
	panic("not implemented")
}

func (s *stubOrderService) Cancel(ctx context.Context, input internalorders.CancelInput) (*models.Order, error) {
	if s.cancel != nil {
		return s.cancel(ctx, input)
	}
	panic("not implemented")
}

func (s *stubOrderService) AddItem(ctx context.Context, input internalorders.ItemInput) (*models.Order, error) {
	if s.item != nil {
		return s.item(ctx, input)
	}
	panic("not implemented")
}

func (s *stubOrderService) UpdateItem(ctx context.Context, input internalorders.ItemInput) (*models.Order, error) {
	if s.item != nil {
		return s.item(ctx, input)
	}
	panic("not implemented")
}

func (s *stubOrderService) RemoveItem(ctx context.Context, input internalorders.ItemInput) (*models.Order, error) {
	if s.item != nil {
		return s.item(ctx, input)
	}
	panic("not implemented")
}

func sampleOrder() *models.Order {
	return &models.Order{
		ID:                uuid.New(),
		Token:             "ord_sample",
		Status:            enums.OrderStatusOpen,
		FinancialStatus:   enums.FinancialStatusPaid,
		FulfillmentStatus: enums.FulfillmentStatusNone,
		Currency:          enums.CurrencyUSD,
		TotalPrice:        1000,
		TotalCaptured:     1000,
	}
}

func requestWithRef(method, target, ref string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderRef", ref)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func decodeOrder(t *testing.T, resp *httptest.ResponseRecorder) orderResponse {
	t.Helper()
	var envelope struct {
		Data orderResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode order envelope: %v", err)
	}
	return envelope.Data
}

func TestOrderDetailResolvesToken(t *testing.T) {
	order := sampleOrder()
	svc := &stubOrderService{
		get: func(ctx context.Context, ref internalorders.Ref) (*models.Order, error) {
			if ref.Token != "ord_sample" || ref.ID != uuid.Nil {
				t.Fatalf("unexpected ref %+v", ref)
			}
			return order, nil
		},
	}

	resp := httptest.NewRecorder()
	OrderDetail(svc, nil).ServeHTTP(resp, requestWithRef(http.MethodGet, "/api/v1/orders/ord_sample", "ord_sample", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	got := decodeOrder(t, resp)
	if got.Token != order.Token || got.FinancialStatus != "paid" {
		t.Fatalf("unexpected body %+v", got)
	}
}

func TestOrderDetailResolvesUUID(t *testing.T) {
	order := sampleOrder()
	svc := &stubOrderService{
		get: func(ctx context.Context, ref internalorders.Ref) (*models.Order, error) {
			if ref.ID != order.ID || ref.Token != "" {
				t.Fatalf("unexpected ref %+v", ref)
			}
			return order, nil
		},
	}

	resp := httptest.NewRecorder()
	OrderDetail(svc, nil).ServeHTTP(resp, requestWithRef(http.MethodGet, "/api/v1/orders/"+order.ID.String(), order.ID.String(), ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestOrderDetailNotFound(t *testing.T) {
	svc := &stubOrderService{
		get: func(ctx context.Context, ref internalorders.Ref) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		},
	}

	resp := httptest.NewRecorder()
	OrderDetail(svc, nil).ServeHTTP(resp, requestWithRef(http.MethodGet, "/api/v1/orders/missing", "missing", ""))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestOrderPayForwardsInput(t *testing.T) {
	order := sampleOrder()
	var got internalorders.PayInput
	svc := &stubOrderService{
		pay: func(ctx context.Context, input internalorders.PayInput) (*models.Order, error) {
			got = input
			return order, nil
		},
	}

	resp := httptest.NewRecorder()
	body := `{"amount":600,"gateway":"manual","details":{"note":"partial"}}`
	OrderPay(svc, nil).ServeHTTP(resp, requestWithRef(http.MethodPost, "/api/v1/orders/ord_sample/pay", "ord_sample", body))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if got.Amount != 600 || got.Gateway != "manual" || got.Details["note"] != "partial" {
		t.Fatalf("unexpected pay input %+v", got)
	}
}

func TestOrderCancelDefaultsReason(t *testing.T) {
	order := sampleOrder()
	var got internalorders.CancelInput
	svc := &stubOrderService{
		cancel: func(ctx context.Context, input internalorders.CancelInput) (*models.Order, error) {
			got = input
			return order, nil
		},
	}

	resp := httptest.NewRecorder()
	OrderCancel(svc, nil).ServeHTTP(resp, requestWithRef(http.MethodPost, "/api/v1/orders/ord_sample/cancel", "ord_sample", `{}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got.Reason != enums.CancelReasonCustomer {
		t.Fatalf("expected customer default, got %s", got.Reason)
	}
}

func TestOrderCancelRejectsUnknownReason(t *testing.T) {
	svc := &stubOrderService{}

	resp := httptest.NewRecorder()
	OrderCancel(svc, nil).ServeHTTP(resp, requestWithRef(http.MethodPost, "/api/v1/orders/ord_sample/cancel", "ord_sample", `{"reason":"boredom"}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderRefundMapsLines(t *testing.T) {
	order := sampleOrder()
	transactionID := uuid.New()
	var got internalorders.RefundInput
	svc := &stubOrderService{
		refund: func(ctx context.Context, input internalorders.RefundInput) (*models.Order, error) {
			got = input
			return order, nil
		},
	}

	resp := httptest.NewRecorder()
	body := `{"lines":[{"transaction_id":"` + transactionID.String() + `","amount":250}],"reason":"damaged"}`
	OrderRefund(svc, nil).ServeHTTP(resp, requestWithRef(http.MethodPost, "/api/v1/orders/ord_sample/refund", "ord_sample", body))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(got.Lines) != 1 || got.Lines[0].TransactionID != transactionID || got.Lines[0].Amount != 250 {
		t.Fatalf("unexpected refund input %+v", got)
	}
	if got.Reason != "damaged" {
		t.Fatalf("unexpected reason %q", got.Reason)
	}
}

func TestTransactionRetryParsesID(t *testing.T) {
	order := sampleOrder()
	transactionID := uuid.New()
	svc := &stubOrderService{
		retry: func(ctx context.Context, ref internalorders.Ref, gotID uuid.UUID) (*models.Order, error) {
			if gotID != transactionID {
				t.Fatalf("unexpected transaction id %s", gotID)
			}
			return order, nil
		},
	}

	req := requestWithRef(http.MethodPost, "/api/v1/orders/ord_sample/transactions/x/retry", "ord_sample", "")
	chi.RouteContext(req.Context()).URLParams.Add("transactionId", transactionID.String())
	resp := httptest.NewRecorder()
	TransactionRetry(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestTransactionRetryRejectsBadID(t *testing.T) {
	svc := &stubOrderService{}

	req := requestWithRef(http.MethodPost, "/api/v1/orders/ord_sample/transactions/nope/retry", "ord_sample", "")
	chi.RouteContext(req.Context()).URLParams.Add("transactionId", "nope")
	resp := httptest.NewRecorder()
	TransactionRetry(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderAddItemValidatesBody(t *testing.T) {
	svc := &stubOrderService{}

	resp := httptest.NewRecorder()
	OrderAddItem(svc, nil).ServeHTTP(resp, requestWithRef(http.MethodPost, "/api/v1/orders/ord_sample/items", "ord_sample", `{"quantity":0}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderAddItemForwardsInput(t *testing.T) {
	order := sampleOrder()
	productID := uuid.New()
	variantID := uuid.New()
	var got internalorders.ItemInput
	svc := &stubOrderService{
		item: func(ctx context.Context, input internalorders.ItemInput) (*models.Order, error) {
			got = input
			return order, nil
		},
	}

	resp := httptest.NewRecorder()
	body := `{"product_id":"` + productID.String() + `","variant_id":"` + variantID.String() + `","quantity":2,"price_per_unit":400,"title":"Beans"}`
	OrderAddItem(svc, nil).ServeHTTP(resp, requestWithRef(http.MethodPost, "/api/v1/orders/ord_sample/items", "ord_sample", body))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if got.ProductID != productID || got.VariantID != variantID || got.Quantity != 2 || got.PricePerUnit != 400 {
		t.Fatalf("unexpected item input %+v", got)
	}
}
