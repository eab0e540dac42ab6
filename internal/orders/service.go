package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thall003/proxycart/pkg/db/models"
	"github.com/thall003/proxycart/pkg/enums"
	pkgerrors "github.com/thall003/proxycart/pkg/errors"
	"github.com/thall003/proxycart/pkg/logger"
	"github.com/thall003/proxycart/pkg/outbox"
	"github.com/thall003/proxycart/pkg/outbox/payloads"
)

// Service defines order-level operations beyond repository reads.
type Service interface {
	Get(ctx context.Context, ref Ref) (*models.Order, error)
	Recalculate(ctx context.Context, ref Ref) (*models.Order, error)
	Pay(ctx context.Context, input PayInput) (*models.Order, error)
	RetryTransaction(ctx context.Context, ref Ref, transactionID uuid.UUID) (*models.Order, error)
	Refund(ctx context.Context, input RefundInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
	AddItem(ctx context.Context, input ItemInput) (*models.Order, error)
	UpdateItem(ctx context.Context, input ItemInput) (*models.Order, error)
	RemoveItem(ctx context.Context, input ItemInput) (*models.Order, error)
}

type service struct {
	repo          Repository
	tx            txRunner
	outbox        outboxPublisher
	payments      PaymentProvider
	fulfillments  FulfillmentProvider
	subscriptions SubscriptionProvider
	coordinator   *Coordinator
	logg          *logger.Logger
	now           func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(
	repo Repository,
	tx txRunner,
	outboxSvc outboxPublisher,
	payments PaymentProvider,
	fulfillments FulfillmentProvider,
	subscriptions SubscriptionProvider,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment provider required")
	}
	if fulfillments == nil {
		return nil, fmt.Errorf("fulfillment provider required")
	}
	if subscriptions == nil {
		return nil, fmt.Errorf("subscription provider required")
	}
	return &service{
		repo:          repo,
		tx:            tx,
		outbox:        outboxSvc,
		payments:      payments,
		fulfillments:  fulfillments,
		subscriptions: subscriptions,
		coordinator:   NewCoordinator(payments, fulfillments, logg),
		logg:          logg,
		now:           time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, ref Ref) (*models.Order, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return s.resolve(ctx, s.repo, ref, false)
}

func (s *service) resolve(ctx context.Context, repo Repository, ref Ref, lock bool) (*models.Order, error) {
	if ref.ID != uuid.Nil {
		if lock {
			return repo.FindByIDForUpdate(ctx, ref.ID)
		}
		return repo.FindByID(ctx, ref.ID)
	}
	order, err := repo.FindByToken(ctx, ref.Token)
	if err != nil {
		return nil, err
	}
	if lock {
		return repo.FindByIDForUpdate(ctx, order.ID)
	}
	return order, nil
}

// snapshot captures the derived fields whose transitions trigger
// reconciliation actions and events.
type snapshot struct {
	TotalDue          int64
	TotalItems        int
	Status            enums.OrderStatus
	FinancialStatus   enums.FinancialStatus
	FulfillmentStatus enums.FulfillmentStatus
}

func takeSnapshot(order *models.Order) snapshot {
	return snapshot{
		TotalDue:          order.TotalDue,
		TotalItems:        order.TotalItems,
		Status:            order.Status,
		FinancialStatus:   order.FinancialStatus,
		FulfillmentStatus: order.FulfillmentStatus,
	}
}

// recalculate runs the full derivation pipeline on a loaded order and
// persists the row exactly once. Reconciliation runs only for
// mutation-driven passes: a payment reducing the balance due is the intended
// effect of that payment, not a delta needing compensation. Reconciliation
// transactions created along the way are attached to the in-memory order;
// their effect on status lands on the next recalculation pass.
func (s *service) recalculate(ctx context.Context, tx *gorm.DB, order *models.Order, reconcile bool) error {
	repo := s.repo.WithTx(tx)
	prev := takeSnapshot(order)

	if err := StampItemTotals(order); err != nil {
		return err
	}
	StampMoneyTotals(order)

	if err := StampFinancialStatus(order); err != nil {
		return err
	}
	if reconcile {
		created, err := s.coordinator.ReconcileFinancial(ctx, tx, order, prev.TotalDue)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconcile balance delta")
		}
		if created != nil {
			order.Transactions = append(order.Transactions, *created)
		}
	}

	if err := StampFulfillmentStatus(order, s.now()); err != nil {
		return err
	}
	if reconcile {
		if err := s.coordinator.ReconcileItems(ctx, tx, order, prev.TotalItems); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconcile item delta")
		}
	}

	if err := repo.Save(ctx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order totals")
	}
	return s.emitTransitions(ctx, tx, order, prev)
}

func (s *service) emitTransitions(ctx context.Context, tx *gorm.DB, order *models.Order, prev snapshot) error {
	if order.FinancialStatus != prev.FinancialStatus {
		event := outbox.DomainEvent{
			EventType:     enums.FinancialStatusEvent(order.FinancialStatus),
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.FinancialStatusChangedEvent{
				OrderID:    order.ID,
				Token:      order.Token,
				Previous:   prev.FinancialStatus,
				Current:    order.FinancialStatus,
				TotalPrice: order.TotalPrice,
				TotalDue:   order.TotalDue,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
	}
	if order.FulfillmentStatus != prev.FulfillmentStatus {
		event := outbox.DomainEvent{
			EventType:     enums.FulfillmentStatusEvent(order.FulfillmentStatus),
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.FulfillmentStatusChangedEvent{
				OrderID:  order.ID,
				Token:    order.Token,
				Previous: prev.FulfillmentStatus,
				Current:  order.FulfillmentStatus,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
	}
	if order.Status == enums.OrderStatusClosed && prev.Status != enums.OrderStatusClosed && order.CancelledAt == nil {
		closedAt := s.now()
		if order.ClosedAt != nil {
			closedAt = *order.ClosedAt
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderClosed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderClosedEvent{
				OrderID:  order.ID,
				Token:    order.Token,
				ClosedAt: closedAt,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) Recalculate(ctx context.Context, ref Ref) (*models.Order, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.resolve(ctx, s.repo.WithTx(tx), ref, true)
		if err != nil {
			return err
		}
		if err := s.recalculate(ctx, tx, order, true); err != nil {
			return err
		}
		result = order
		return nil
	})
	return result, err
}

func (s *service) Pay(ctx context.Context, input PayInput) (*models.Order, error) {
	if err := input.Ref.Validate(); err != nil {
		return nil, err
	}
	if input.Amount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must not be negative")
	}
	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.resolve(ctx, repo, input.Ref, true)
		if err != nil {
			return err
		}
		if order.Status == enums.OrderStatusClosed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is closed")
		}
		if order.TotalDue == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no balance due")
		}

		amount := input.Amount
		if amount == 0 {
			amount = order.TotalDue
		}
		if amount > order.TotalDue {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment exceeds balance due")
		}

		gateway := input.Gateway
		if gateway == "" {
			gateway = lastGateway(order)
		}
		req := PaymentRequest{
			OrderID:  order.ID,
			Amount:   amount,
			Currency: order.Currency,
			Gateway:  gateway,
			Details:  input.Details,
		}

		outstanding := order.TotalAuthorized - order.TotalVoided
		var transaction *models.Transaction
		if outstanding >= amount {
			transaction, err = s.payments.Capture(ctx, tx, req)
		} else {
			transaction, err = s.payments.Sale(ctx, tx, req)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dispatch payment")
		}
		order.Transactions = append(order.Transactions, *transaction)

		if err := s.recalculate(ctx, tx, order, false); err != nil {
			return err
		}
		if err := s.attemptImmediate(ctx, tx, order); err != nil {
			return err
		}
		result = order
		return nil
	})
	return result, err
}

// RetryTransaction re-dispatches a transaction that never settled and folds
// the outcome back into the order's derived state.
func (s *service) RetryTransaction(ctx context.Context, ref Ref, transactionID uuid.UUID) (*models.Order, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if transactionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.resolve(ctx, repo, ref, true)
		if err != nil {
			return err
		}
		var target *models.Transaction
		for i := range order.Transactions {
			if order.Transactions[i].ID == transactionID {
				target = &order.Transactions[i]
				break
			}
		}
		if target == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "transaction does not belong to this order")
		}

		retried, err := s.payments.Retry(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		*target = *retried

		if err := s.recalculate(ctx, tx, order, false); err != nil {
			return err
		}
		if err := s.attemptImmediate(ctx, tx, order); err != nil {
			return err
		}
		result = order
		return nil
	})
	return result, err
}

func (s *service) Refund(ctx context.Context, input RefundInput) (*models.Order, error) {
	if err := input.Ref.Validate(); err != nil {
		return nil, err
	}
	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.resolve(ctx, repo, input.Ref, true)
		if err != nil {
			return err
		}
		if order.TotalCaptured == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no captured payments to refund")
		}

		targets, err := refundTargets(order, input.Lines)
		if err != nil {
			return err
		}
		for _, target := range targets {
			req := PaymentRequest{
				OrderID:  order.ID,
				Amount:   target.amount,
				Currency: order.Currency,
				Gateway:  target.transaction.Gateway,
			}
			transaction, err := s.payments.Refund(ctx, tx, req)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dispatch refund")
			}
			order.Transactions = append(order.Transactions, *transaction)

			transactionID := target.transaction.ID
			refund := models.Refund{
				OrderID:       order.ID,
				TransactionID: &transactionID,
				Amount:        target.amount,
				Reason:        input.Reason,
			}
			if err := repo.CreateRefund(ctx, &refund); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist refund record")
			}
			order.Refunds = append(order.Refunds, refund)
		}

		if err := s.recalculate(ctx, tx, order, false); err != nil {
			return err
		}
		result = order
		return nil
	})
	return result, err
}

type refundTarget struct {
	transaction models.Transaction
	amount      int64
}

// refundTargets maps requested refund lines onto captured transactions. An
// empty request refunds every successful capture/sale in full.
func refundTargets(order *models.Order, lines []RefundLine) ([]refundTarget, error) {
	if len(lines) == 0 {
		var targets []refundTarget
		for _, transaction := range order.Transactions {
			if transaction.Status != enums.TransactionStatusSuccess {
				continue
			}
			if transaction.Kind != enums.TransactionKindCapture && transaction.Kind != enums.TransactionKindSale {
				continue
			}
			targets = append(targets, refundTarget{transaction: transaction, amount: transaction.Amount})
		}
		return targets, nil
	}

	byID := make(map[uuid.UUID]models.Transaction, len(order.Transactions))
	for _, transaction := range order.Transactions {
		byID[transaction.ID] = transaction
	}
	targets := make([]refundTarget, 0, len(lines))
	for _, line := range lines {
		transaction, ok := byID[line.TransactionID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "refund transaction not found")
		}
		if transaction.Status != enums.TransactionStatusSuccess {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "refund target transaction is not successful")
		}
		if line.Amount <= 0 || line.Amount > transaction.Amount {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount out of range")
		}
		targets = append(targets, refundTarget{transaction: transaction, amount: line.Amount})
	}
	return targets, nil
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	if err := input.Ref.Validate(); err != nil {
		return nil, err
	}
	reason := input.Reason
	if reason == "" {
		reason = enums.CancelReasonOther
	}
	if !reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cancel reason")
	}
	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.resolve(ctx, repo, input.Ref, true)
		if err != nil {
			return err
		}
		if err := MarkCancelled(order, reason, s.now()); err != nil {
			return err
		}

		// Pending ledger entries are cancelled in place; successful holds
		// get a compensating void through the gateway.
		for i := range order.Transactions {
			transaction := &order.Transactions[i]
			if transaction.Status == enums.TransactionStatusPending {
				transaction.Status = enums.TransactionStatusCancelled
				if err := repo.SaveTransaction(ctx, transaction); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel pending transaction")
				}
			}
		}
		unvoided := order.TotalAuthorized - order.TotalVoided
		if unvoided > 0 {
			req := PaymentRequest{
				OrderID:  order.ID,
				Amount:   unvoided,
				Currency: order.Currency,
				Gateway:  lastGateway(order),
			}
			voided, err := s.payments.Void(ctx, tx, req)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void authorized payment")
			}
			order.Transactions = append(order.Transactions, *voided)
		}

		if err := s.recalculate(ctx, tx, order, false); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				Token:       order.Token,
				Reason:      reason,
				CancelledAt: *order.CancelledAt,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
		result = order
		return nil
	})
	return result, err
}

func (s *service) AddItem(ctx context.Context, input ItemInput) (*models.Order, error) {
	return s.mutateItem(ctx, input, AddItem)
}

func (s *service) UpdateItem(ctx context.Context, input ItemInput) (*models.Order, error) {
	return s.mutateItem(ctx, input, UpdateItem)
}

func (s *service) RemoveItem(ctx context.Context, input ItemInput) (*models.Order, error) {
	return s.mutateItem(ctx, input, RemoveItem)
}

func (s *service) mutateItem(ctx context.Context, input ItemInput, merge func(*models.Order, models.OrderItem) (*ItemMutation, error)) (*models.Order, error) {
	if err := input.Ref.Validate(); err != nil {
		return nil, err
	}
	if input.ProductID == uuid.Nil || input.VariantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product and variant are required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.resolve(ctx, repo, input.Ref, true)
		if err != nil {
			return err
		}
		if order.Status == enums.OrderStatusClosed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is closed")
		}

		incoming := models.OrderItem{
			OrderID:      order.ID,
			ProductID:    input.ProductID,
			VariantID:    input.VariantID,
			Quantity:     input.Quantity,
			PricePerUnit: input.PricePerUnit,
			Weight:       input.Weight,
			Title:        input.Title,
			SKU:          input.SKU,
			Currency:     order.Currency,
		}
		mutation, err := merge(order, incoming)
		if err != nil {
			return err
		}
		switch {
		case mutation.Removed:
			if err := repo.DeleteItem(ctx, mutation.Item.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order item")
			}
		case mutation.Item.ID == uuid.Nil:
			if err := repo.CreateItem(ctx, mutation.Item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order item")
			}
		default:
			if err := repo.SaveItem(ctx, mutation.Item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order item")
			}
		}
		if err := repo.ReloadItems(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order items")
		}

		if err := s.recalculate(ctx, tx, order, true); err != nil {
			return err
		}
		result = order
		return nil
	})
	return result, err
}

// attemptImmediate dispatches fulfillment and subscription setup for orders
// configured to fulfill as soon as they are fully paid.
func (s *service) attemptImmediate(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	// A zero-price order is trivially covered and dispatches immediately.
	fullyPaid := order.TotalCaptured >= order.TotalPrice

	if order.HasSubscription && order.FulfillmentStatus == enums.FulfillmentStatusNone && fullyPaid {
		subscriptions, err := s.subscriptions.SetupSubscriptions(ctx, tx, order, true)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "setup subscriptions")
		}
		if s.logg != nil {
			s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), fmt.Sprintf("created %d subscriptions", len(subscriptions)))
		}
	}

	if order.FulfillmentKind == enums.FulfillmentKindImmediate &&
		order.FulfillmentStatus == enums.FulfillmentStatusNone &&
		fullyPaid {
		fulfillments, err := s.fulfillments.SendOrder(ctx, tx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send order to fulfillment")
		}
		order.Fulfillments = append(order.Fulfillments, fulfillments...)
		prev := takeSnapshot(order)
		if err := StampFulfillmentStatus(order, s.now()); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist fulfillment dispatch")
		}
		if err := s.emitTransitions(ctx, tx, order, prev); err != nil {
			return err
		}
	}
	return nil
}
