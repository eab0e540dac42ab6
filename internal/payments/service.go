package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thall003/proxycart/internal/orders"
	"github.com/thall003/proxycart/pkg/config"
	"github.com/thall003/proxycart/pkg/db/models"
	"github.com/thall003/proxycart/pkg/enums"
	pkgerrors "github.com/thall003/proxycart/pkg/errors"
	"github.com/thall003/proxycart/pkg/logger"
	"github.com/thall003/proxycart/pkg/metrics"
)

const (
	errorCodeTimeout = "gateway_timeout"
	errorCodeFailure = "gateway_failure"
)

// Service dispatches payment operations to the configured gateways and
// records every attempt as a ledger entry. A gateway failure or timeout is
// not an error to the caller: the attempt lands as an error-status
// transaction and the order keeps its balance due.
type Service struct {
	repo     Repository
	registry *Registry
	timeout  time.Duration
	logg     *logger.Logger
	metrics  *metrics.OrderMetrics
	now      func() time.Time
}

// WithMetrics attaches dispatch counters. Safe to skip in tests.
func (s *Service) WithMetrics(m *metrics.OrderMetrics) *Service {
	s.metrics = m
	return s
}

// NewService builds the payment service.
func NewService(repo Repository, registry *Registry, cfg config.PaymentsConfig, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if registry == nil {
		return nil, fmt.Errorf("gateway registry required")
	}
	return &Service{
		repo:     repo,
		registry: registry,
		timeout:  cfg.GatewayTimeout,
		logg:     logg,
		now:      time.Now,
	}, nil
}

type gatewayCall func(gateway Gateway, ctx context.Context, req GatewayRequest) (GatewayResult, error)

func (s *Service) Authorize(ctx context.Context, tx *gorm.DB, req orders.PaymentRequest) (*models.Transaction, error) {
	return s.dispatch(ctx, tx, enums.TransactionKindAuthorize, req, Gateway.Authorize)
}

func (s *Service) Capture(ctx context.Context, tx *gorm.DB, req orders.PaymentRequest) (*models.Transaction, error) {
	return s.dispatch(ctx, tx, enums.TransactionKindCapture, req, Gateway.Capture)
}

func (s *Service) Sale(ctx context.Context, tx *gorm.DB, req orders.PaymentRequest) (*models.Transaction, error) {
	return s.dispatch(ctx, tx, enums.TransactionKindSale, req, Gateway.Sale)
}

func (s *Service) Void(ctx context.Context, tx *gorm.DB, req orders.PaymentRequest) (*models.Transaction, error) {
	return s.dispatch(ctx, tx, enums.TransactionKindVoid, req, Gateway.Void)
}

func (s *Service) Refund(ctx context.Context, tx *gorm.DB, req orders.PaymentRequest) (*models.Transaction, error) {
	return s.dispatch(ctx, tx, enums.TransactionKindRefund, req, Gateway.Refund)
}

func (s *Service) dispatch(ctx context.Context, tx *gorm.DB, kind enums.TransactionKind, req orders.PaymentRequest, call gatewayCall) (*models.Transaction, error) {
	if req.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment requires an order")
	}
	if req.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	gatewayName := req.Gateway
	if gatewayName == "" {
		gatewayName = GatewayManual
	}
	gateway, err := s.registry.Resolve(gatewayName)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "resolve payment gateway")
	}

	transaction := &models.Transaction{
		OrderID:  req.OrderID,
		Kind:     kind,
		Status:   enums.TransactionStatusPending,
		Amount:   req.Amount,
		Currency: req.Currency,
		Gateway:  gatewayName,
	}
	s.resolve(ctx, gateway, transaction, GatewayRequest{
		OrderID:  req.OrderID,
		Amount:   req.Amount,
		Currency: req.Currency,
		Details:  req.Details,
	}, call)

	if err := s.repo.WithTx(tx).Create(ctx, transaction); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist transaction")
	}
	s.metrics.IncPaymentDispatch(transaction.Gateway, string(transaction.Kind), string(transaction.Status))
	return transaction, nil
}

// resolve runs the gateway call under the configured deadline and stamps the
// outcome onto the transaction.
func (s *Service) resolve(ctx context.Context, gateway Gateway, transaction *models.Transaction, req GatewayRequest, call gatewayCall) {
	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := call(gateway, callCtx, req)
	if err != nil {
		code := errorCodeFailure
		if errors.Is(err, context.DeadlineExceeded) {
			code = errorCodeTimeout
		}
		transaction.Status = enums.TransactionStatusError
		transaction.ErrorCode = &code
		if s.logg != nil {
			s.logg.Error(s.logg.WithFields(ctx, map[string]any{
				"order_id": transaction.OrderID.String(),
				"gateway":  transaction.Gateway,
				"kind":     transaction.Kind.String(),
			}), "payment gateway call failed", err)
		}
		return
	}

	transaction.Status = result.Status
	transaction.GatewayReference = result.Reference
	transaction.ErrorCode = result.ErrorCode
	if result.Status == enums.TransactionStatusSuccess {
		now := s.now()
		switch transaction.Kind {
		case enums.TransactionKindAuthorize:
			transaction.AuthorizedAt = &now
		case enums.TransactionKindCapture, enums.TransactionKindSale:
			transaction.CapturedAt = &now
		}
	}
}

// Retry re-dispatches a transaction that never settled. Successful and
// cancelled entries are final.
func (s *Service) Retry(ctx context.Context, tx *gorm.DB, transactionID uuid.UUID) (*models.Transaction, error) {
	repo := s.repo.WithTx(tx)
	transaction, err := repo.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	switch transaction.Status {
	case enums.TransactionStatusPending, enums.TransactionStatusFailure, enums.TransactionStatusError:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "transaction is settled and cannot be retried")
	}

	gateway, err := s.registry.Resolve(transaction.Gateway)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "resolve payment gateway")
	}
	call, err := callForKind(transaction.Kind)
	if err != nil {
		return nil, err
	}

	s.resolve(ctx, gateway, transaction, GatewayRequest{
		OrderID:  transaction.OrderID,
		Amount:   transaction.Amount,
		Currency: transaction.Currency,
	}, call)

	if err := repo.Save(ctx, transaction); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist transaction retry")
	}
	s.metrics.IncPaymentDispatch(transaction.Gateway, string(transaction.Kind), string(transaction.Status))
	return transaction, nil
}

func callForKind(kind enums.TransactionKind) (gatewayCall, error) {
	switch kind {
	case enums.TransactionKindAuthorize:
		return Gateway.Authorize, nil
	case enums.TransactionKindCapture:
		return Gateway.Capture, nil
	case enums.TransactionKindSale:
		return Gateway.Sale, nil
	case enums.TransactionKindVoid:
		return Gateway.Void, nil
	case enums.TransactionKindRefund:
		return Gateway.Refund, nil
	default:
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "transaction kind %s cannot be dispatched", kind)
	}
}
