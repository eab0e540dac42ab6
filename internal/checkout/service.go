package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thall003/proxycart/internal/carts"
	"github.com/thall003/proxycart/internal/customers"
	"github.com/thall003/proxycart/internal/orders"
	"github.com/thall003/proxycart/internal/subscriptions"
	"github.com/thall003/proxycart/pkg/config"
	"github.com/thall003/proxycart/pkg/db/models"
	"github.com/thall003/proxycart/pkg/enums"
	pkgerrors "github.com/thall003/proxycart/pkg/errors"
	"github.com/thall003/proxycart/pkg/logger"
	"github.com/thall003/proxycart/pkg/outbox"
	"github.com/thall003/proxycart/pkg/outbox/payloads"
	"github.com/thall003/proxycart/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams groups the checkout collaborators.
type ServiceParams struct {
	Carts         carts.Repository
	Orders        orders.Repository
	Subscriptions subscriptions.Repository
	Customers     *customers.Service
	Payments      orders.PaymentProvider
	Fulfillments  orders.FulfillmentProvider
	Subscribe     orders.SubscriptionProvider
	Outbox        outboxPublisher
	Tx            txRunner
	Payment       config.PaymentsConfig
	Fulfillment   config.FulfillmentConfig
	Logger        *logger.Logger
}

// Service turns carts and subscription renewals into orders: one
// transaction covering order creation, cart closure, balance deduction,
// payment dispatch and the immediate fulfillment decision.
type Service struct {
	carts         carts.Repository
	orders        orders.Repository
	subscriptions subscriptions.Repository
	customers     *customers.Service
	payments      orders.PaymentProvider
	fulfillments  orders.FulfillmentProvider
	subscribe     orders.SubscriptionProvider
	outbox        outboxPublisher
	tx            txRunner
	paymentCfg    config.PaymentsConfig
	fulfillCfg    config.FulfillmentConfig
	logg          *logger.Logger
	now           func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("carts repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customers service required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment provider required")
	}
	if params.Fulfillments == nil {
		return nil, fmt.Errorf("fulfillment provider required")
	}
	if params.Subscribe == nil {
		return nil, fmt.Errorf("subscription provider required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Service{
		carts:         params.Carts,
		orders:        params.Orders,
		subscriptions: params.Subscriptions,
		customers:     params.Customers,
		payments:      params.Payments,
		fulfillments:  params.Fulfillments,
		subscribe:     params.Subscribe,
		outbox:        params.Outbox,
		tx:            params.Tx,
		paymentCfg:    params.Payment,
		fulfillCfg:    params.Fulfillment,
		logg:          params.Logger,
		now:           time.Now,
	}, nil
}

// Create runs the whole checkout in a single transaction and returns the
// created order with its collections loaded.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, cart, err := s.buildOrder(ctx, tx, req)
		if err != nil {
			return err
		}

		customer, err := s.resolveCustomer(ctx, tx, req, order)
		if err != nil {
			return err
		}

		deduction, err := s.applyAccountBalance(order, customer)
		if err != nil {
			return err
		}

		if _, err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}

		if cart != nil {
			if err := carts.Close(cart, order); err != nil {
				return err
			}
			if err := s.carts.WithTx(tx).Save(ctx, cart); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close cart")
			}
		}

		if customer != nil {
			if err := s.settleCustomer(ctx, tx, order, customer, deduction); err != nil {
				return err
			}
		}

		if err := s.dispatchPayments(ctx, tx, order, req); err != nil {
			return err
		}

		if err := orders.StampFinancialStatus(order); err != nil {
			return err
		}

		if err := s.attemptImmediate(ctx, tx, order); err != nil {
			return err
		}
		if err := orders.StampFulfillmentStatus(order, s.now()); err != nil {
			return err
		}

		if err := s.orders.WithTx(tx).Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order totals")
		}

		if err := s.emitCreated(ctx, tx, order, cart); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, result.ID.String()), "checkout converted")
	}
	return result, nil
}

// buildOrder drafts the unsaved order from its source. The cart return is
// nil for subscription renewals.
func (s *Service) buildOrder(ctx context.Context, tx *gorm.DB, req CreateRequest) (*models.Order, *models.Cart, error) {
	if req.CartToken != "" {
		cart, err := s.carts.WithTx(tx).FindByTokenForUpdate(ctx, req.CartToken)
		if err != nil {
			return nil, nil, err
		}
		if cart.Status != enums.CartStatusOpen {
			return nil, nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "cart is %s and cannot be checked out", cart.Status)
		}
		if len(cart.LineItems) == 0 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart has no items")
		}
		return s.draftFromCart(cart, req), cart, nil
	}

	subscription, err := s.subscriptions.WithTx(tx).FindByToken(ctx, req.SubscriptionToken)
	if err != nil {
		return nil, nil, err
	}
	if subscription.Status == enums.SubscriptionStatusCancelled {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "subscription is cancelled")
	}
	source, err := s.orders.WithTx(tx).FindByID(ctx, subscription.OrderID)
	if err != nil {
		return nil, nil, err
	}
	draft, err := s.draftFromSubscription(subscription, source, req)
	if err != nil {
		return nil, nil, err
	}
	return draft, nil, nil
}

func (s *Service) draftFromCart(cart *models.Cart, req CreateRequest) *models.Order {
	id := uuid.New()
	cartToken := cart.Token
	processedAt := s.now()

	order := &models.Order{
		ID:               id,
		Token:            fmt.Sprintf("ord_%s", id),
		CartToken:        &cartToken,
		CustomerID:       req.CustomerID,
		Email:            req.Email,
		Currency:         cart.Currency,
		Status:           enums.OrderStatusOpen,
		PaymentKind:      s.paymentKind(req),
		FulfillmentKind:  s.fulfillmentKind(req),
		ProcessingMethod: processingMethod(req, enums.ProcessingMethodCheckout),
		HasShipping:      cart.HasShipping,
		HasSubscription:  cart.HasSubscription,
		TaxLines:         cart.TaxLines,
		ShippingLines:    cart.ShippingLines,
		DiscountedLines:  cart.DiscountedLines,
		CouponLines:      cart.CouponLines,
		PricingOverrides: stripBalanceOverride(cart.PricingOverrides),
		SubtotalPrice:    cart.SubtotalPrice,
		ProcessedAt:      &processedAt,
		Transactions:     []models.Transaction{},
		Fulfillments:     []models.Fulfillment{},
		Refunds:          []models.Refund{},
	}
	if cart.CustomerID != nil && order.CustomerID == nil {
		order.CustomerID = cart.CustomerID
	}

	order.Items = make([]models.OrderItem, 0, len(cart.LineItems))
	for _, line := range cart.LineItems {
		item := models.OrderItem{
			ID:                   uuid.New(),
			OrderID:              order.ID,
			ProductID:            line.ProductID,
			VariantID:            line.VariantID,
			Title:                line.Title,
			SKU:                  line.SKU,
			Quantity:             line.Quantity,
			PricePerUnit:         line.PricePerUnit,
			Weight:               line.Weight,
			Currency:             cart.Currency,
			TaxLines:             line.TaxLines,
			ShippingLines:        line.ShippingLines,
			DiscountedLines:      line.DiscountedLines,
			CouponLines:          line.CouponLines,
			RequiresShipping:     line.RequiresShipping,
			RequiresSubscription: line.RequiresSubscription,
			SubscriptionInterval: line.SubscriptionInterval,
			SubscriptionUnit:     line.SubscriptionUnit,
			FulfillmentService:   line.FulfillmentService,
		}
		orders.StampItemPrice(&item)
		order.Items = append(order.Items, item)
	}
	return order
}

func (s *Service) draftFromSubscription(subscription *models.Subscription, source *models.Order, req CreateRequest) (*models.Order, error) {
	renewable := make([]models.OrderItem, 0, len(source.Items))
	for _, item := range source.Items {
		if item.RequiresSubscription {
			renewable = append(renewable, item)
		}
	}
	if len(renewable) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "subscription has no renewable items")
	}

	id := uuid.New()
	token := subscription.Token
	processedAt := s.now()
	order := &models.Order{
		ID:                id,
		Token:             fmt.Sprintf("ord_%s", id),
		SubscriptionToken: &token,
		CustomerID:        subscription.CustomerID,
		Email:             source.Email,
		Currency:          source.Currency,
		Status:            enums.OrderStatusOpen,
		PaymentKind:       s.paymentKind(req),
		FulfillmentKind:   s.fulfillmentKind(req),
		ProcessingMethod:  processingMethod(req, enums.ProcessingMethodSubscription),
		HasShipping:       source.HasShipping,
		HasSubscription:   false,
		BillingAddress:    source.BillingAddress,
		ShippingAddress:   source.ShippingAddress,
		ProcessedAt:       &processedAt,
		Transactions:      []models.Transaction{},
		Fulfillments:      []models.Fulfillment{},
		Refunds:           []models.Refund{},
	}
	order.Items = make([]models.OrderItem, 0, len(renewable))
	for _, item := range renewable {
		renewed := item
		renewed.ID = uuid.New()
		renewed.OrderID = order.ID
		renewed.FulfillmentID = nil
		orders.StampItemPrice(&renewed)
		order.Items = append(order.Items, renewed)
	}
	return order, nil
}

// resolveCustomer loads the customer when one is referenced and settles the
// order's addresses through the fallback chain: the customer's stored
// addresses win, the request fills the gaps.
func (s *Service) resolveCustomer(ctx context.Context, tx *gorm.DB, req CreateRequest, order *models.Order) (*models.Customer, error) {
	if order.CustomerID == nil {
		if order.BillingAddress == nil {
			order.BillingAddress = req.BillingAddress
		}
		if order.ShippingAddress == nil {
			order.ShippingAddress = req.ShippingAddress
		}
		return nil, s.requireShipping(order)
	}

	customer, err := s.customers.Resolve(ctx, tx, *order.CustomerID)
	if err != nil {
		return nil, err
	}
	if order.Email == "" {
		order.Email = customer.Email
	}

	billing := customer.BillingAddress
	if billing == nil {
		billing = req.BillingAddress
	}
	if billing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer has no billing address and none was provided")
	}
	order.BillingAddress = billing

	if order.ShippingAddress == nil {
		shipping := customer.ShippingAddress
		if shipping == nil {
			shipping = req.ShippingAddress
		}
		order.ShippingAddress = shipping
	}
	return customer, s.requireShipping(order)
}

func (s *Service) requireShipping(order *models.Order) error {
	if order.HasShipping && order.ShippingAddress == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order requires a shipping address")
	}
	return nil
}

// applyAccountBalance stamps the draft's totals and, when the customer
// carries credit, folds it in as a pricing override. Returns the applied
// deduction.
func (s *Service) applyAccountBalance(order *models.Order, customer *models.Customer) (int64, error) {
	if err := orders.StampItemTotals(order); err != nil {
		return 0, err
	}
	orders.StampMoneyTotals(order)

	if customer == nil {
		order.TotalDue = order.TotalPrice
		return 0, nil
	}
	deduction := balanceDeduction(order.TotalPrice, customer.AccountBalance)
	if deduction > 0 {
		order.PricingOverrides = append(order.PricingOverrides, types.PriceLine{
			Name:  accountBalanceOverride,
			Price: deduction,
		})
		orders.StampMoneyTotals(order)
	}
	order.TotalDue = order.TotalPrice
	return deduction, nil
}

func (s *Service) settleCustomer(ctx context.Context, tx *gorm.DB, order *models.Order, customer *models.Customer, deduction int64) error {
	if deduction > 0 {
		updated, err := s.customers.DeductBalance(ctx, tx, customer.ID, deduction)
		if err != nil {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventAccountBalanceDeducted,
			AggregateType: enums.AggregateCustomer,
			AggregateID:   customer.ID,
			Version:       1,
			Data: payloads.AccountBalanceDeductedEvent{
				CustomerID:       customer.ID,
				OrderID:          order.ID,
				Amount:           deduction,
				RemainingBalance: updated.AccountBalance,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
	}
	return s.customers.RecordOrder(ctx, tx, customer.ID, order.ID, order.TotalPrice)
}

// dispatchPayments runs every payment detail against its gateway inside the
// checkout transaction. A detail with no amount takes the remaining balance
// due; the order's payment kind picks authorize vs sale.
func (s *Service) dispatchPayments(ctx context.Context, tx *gorm.DB, order *models.Order, req CreateRequest) error {
	remaining := order.TotalPrice
	for _, detail := range req.PaymentDetails {
		if remaining <= 0 {
			break
		}
		amount := detail.Amount
		if amount == 0 || amount > remaining {
			amount = remaining
		}
		payReq := orders.PaymentRequest{
			OrderID:  order.ID,
			Amount:   amount,
			Currency: order.Currency,
			Gateway:  detail.Gateway,
			Details:  detail.Details,
		}

		var transaction *models.Transaction
		var err error
		if order.PaymentKind == enums.TransactionKindAuthorize {
			transaction, err = s.payments.Authorize(ctx, tx, payReq)
		} else {
			transaction, err = s.payments.Sale(ctx, tx, payReq)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dispatch checkout payment")
		}
		order.Transactions = append(order.Transactions, *transaction)
		remaining -= amount
	}
	return nil
}

// attemptImmediate makes the same-transaction fulfillment and subscription
// decision: only a checkout fully settled by successful sales qualifies.
func (s *Service) attemptImmediate(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	// A zero-price checkout (stored credit covered everything) is settled
	// by definition.
	immediate := order.TotalPrice == 0 || settledBySales(order.Transactions)

	if order.HasSubscription {
		if _, err := s.subscribe.SetupSubscriptions(ctx, tx, order, immediate); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "setup subscriptions")
		}
	}

	if immediate && order.FulfillmentKind == enums.FulfillmentKindImmediate {
		fulfillments, err := s.fulfillments.SendOrder(ctx, tx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send order to fulfillment")
		}
		order.Fulfillments = append(order.Fulfillments, fulfillments...)
	}
	return nil
}

// settledBySales reports whether every dispatched payment is a successful
// sale covering the checkout.
func settledBySales(transactions []models.Transaction) bool {
	if len(transactions) == 0 {
		return false
	}
	for _, transaction := range transactions {
		if transaction.Status != enums.TransactionStatusSuccess {
			return false
		}
		if transaction.Kind != enums.TransactionKindSale {
			return false
		}
	}
	return true
}

func (s *Service) emitCreated(ctx context.Context, tx *gorm.DB, order *models.Order, cart *models.Cart) error {
	created := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Data: payloads.OrderCreatedEvent{
			OrderID:           order.ID,
			Token:             order.Token,
			CartToken:         order.CartToken,
			CustomerID:        order.CustomerID,
			Email:             order.Email,
			Currency:          order.Currency,
			TotalPrice:        order.TotalPrice,
			TotalDue:          order.TotalDue,
			TotalItems:        order.TotalItems,
			FinancialStatus:   order.FinancialStatus,
			FulfillmentStatus: order.FulfillmentStatus,
		},
	}
	if err := s.outbox.Emit(ctx, tx, created); err != nil {
		return err
	}

	if cart != nil {
		converted := outbox.DomainEvent{
			EventType:     enums.EventCartConverted,
			AggregateType: enums.AggregateCart,
			AggregateID:   cart.ID,
			Version:       1,
			Data: payloads.CartConvertedEvent{
				CartToken:  cart.Token,
				OrderID:    order.ID,
				CustomerID: order.CustomerID,
			},
		}
		if err := s.outbox.Emit(ctx, tx, converted); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) paymentKind(req CreateRequest) enums.TransactionKind {
	if req.PaymentKind != "" {
		return req.PaymentKind
	}
	if kind, err := enums.ParseTransactionKind(s.paymentCfg.DefaultKind); err == nil {
		return kind
	}
	return enums.TransactionKindManual
}

func (s *Service) fulfillmentKind(req CreateRequest) enums.FulfillmentKind {
	if req.FulfillmentKind != "" {
		return req.FulfillmentKind
	}
	if kind, err := enums.ParseFulfillmentKind(s.fulfillCfg.DefaultKind); err == nil {
		return kind
	}
	return enums.FulfillmentKindManual
}

func processingMethod(req CreateRequest, fallback enums.ProcessingMethod) enums.ProcessingMethod {
	if req.ProcessingMethod != "" {
		return req.ProcessingMethod
	}
	return fallback
}
