package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thall003/proxycart/pkg/db/models"
	"github.com/thall003/proxycart/pkg/enums"
	"github.com/thall003/proxycart/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// PaymentRequest is the envelope handed to the payment collaborator.
type PaymentRequest struct {
	OrderID  uuid.UUID
	Amount   int64
	Currency enums.Currency
	Gateway  string
	Details  map[string]string
}

// PaymentProvider dispatches payment operations through a gateway and
// persists the resulting transaction inside the caller's database
// transaction.
type PaymentProvider interface {
	Authorize(ctx context.Context, tx *gorm.DB, req PaymentRequest) (*models.Transaction, error)
	Capture(ctx context.Context, tx *gorm.DB, req PaymentRequest) (*models.Transaction, error)
	Sale(ctx context.Context, tx *gorm.DB, req PaymentRequest) (*models.Transaction, error)
	Void(ctx context.Context, tx *gorm.DB, req PaymentRequest) (*models.Transaction, error)
	Refund(ctx context.Context, tx *gorm.DB, req PaymentRequest) (*models.Transaction, error)
	Retry(ctx context.Context, tx *gorm.DB, transactionID uuid.UUID) (*models.Transaction, error)
}

// FulfillmentProvider dispatches orders to a fulfillment service.
type FulfillmentProvider interface {
	SendOrder(ctx context.Context, tx *gorm.DB, order *models.Order) ([]models.Fulfillment, error)
	ReconcileCreate(ctx context.Context, tx *gorm.DB, order *models.Order) error
	ReconcileUpdate(ctx context.Context, tx *gorm.DB, order *models.Order) error
}

// SubscriptionProvider creates subscription records for orders that carry
// subscription lines.
type SubscriptionProvider interface {
	SetupSubscriptions(ctx context.Context, tx *gorm.DB, order *models.Order, immediate bool) ([]models.Subscription, error)
}

// Repository is the persistence surface for order aggregates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByToken(ctx context.Context, token string) (*models.Order, error)

	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) error

	CreateItem(ctx context.Context, item *models.OrderItem) error
	SaveItem(ctx context.Context, item *models.OrderItem) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	ReloadItems(ctx context.Context, order *models.Order) error
	ReloadTransactions(ctx context.Context, order *models.Order) error
	ReloadFulfillments(ctx context.Context, order *models.Order) error

	SaveTransaction(ctx context.Context, transaction *models.Transaction) error
	CreateRefund(ctx context.Context, refund *models.Refund) error
}
