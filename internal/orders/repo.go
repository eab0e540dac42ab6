package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thall003/proxycart/pkg/db/models"
	pkgerrors "github.com/thall003/proxycart/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.findOne(ctx, false, "id = ?", id)
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.findOne(ctx, true, "id = ?", id)
}

func (r *repository) FindByToken(ctx context.Context, token string) (*models.Order, error) {
	return r.findOne(ctx, false, "token = ?", token)
}

func (r *repository) findOne(ctx context.Context, lock bool, query string, args ...any) (*models.Order, error) {
	var order models.Order
	q := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Transactions").
		Preload("Fulfillments").
		Preload("Refunds")
	if lock && r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "orders"}})
	}
	err := q.Where(query, args...).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	ensureLoaded(&order)
	return &order, nil
}

// ensureLoaded normalizes preloaded-but-empty collections to non-nil slices
// so the derivation preconditions can tell "loaded and empty" from "never
// loaded".
func ensureLoaded(order *models.Order) {
	if order.Items == nil {
		order.Items = []models.OrderItem{}
	}
	if order.Transactions == nil {
		order.Transactions = []models.Transaction{}
	}
	if order.Fulfillments == nil {
		order.Fulfillments = []models.Fulfillment{}
	}
	if order.Refunds == nil {
		order.Refunds = []models.Refund{}
	}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// Save writes the order row itself. Owned collections are persisted through
// their dedicated methods, never as a side effect of saving the parent.
func (r *repository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Save(order).Error
}

func (r *repository) CreateItem(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) SaveItem(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.OrderItem{}, "id = ?", id).Error
}

func (r *repository) ReloadItems(ctx context.Context, order *models.Order) error {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", order.ID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return err
	}
	order.Items = items
	ensureLoaded(order)
	return nil
}

func (r *repository) ReloadTransactions(ctx context.Context, order *models.Order) error {
	var transactions []models.Transaction
	err := r.db.WithContext(ctx).
		Where("order_id = ?", order.ID).
		Order("created_at ASC").
		Find(&transactions).Error
	if err != nil {
		return err
	}
	order.Transactions = transactions
	ensureLoaded(order)
	return nil
}

func (r *repository) ReloadFulfillments(ctx context.Context, order *models.Order) error {
	var fulfillments []models.Fulfillment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", order.ID).
		Order("created_at ASC").
		Find(&fulfillments).Error
	if err != nil {
		return err
	}
	order.Fulfillments = fulfillments
	ensureLoaded(order)
	return nil
}

func (r *repository) SaveTransaction(ctx context.Context, transaction *models.Transaction) error {
	return r.db.WithContext(ctx).Save(transaction).Error
}

func (r *repository) CreateRefund(ctx context.Context, refund *models.Refund) error {
	return r.db.WithContext(ctx).Create(refund).Error
}
