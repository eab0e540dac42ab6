package fulfillments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thall003/proxycart/pkg/db/models"
)

// Repository persists fulfillments and the item assignments they own.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, fulfillment *models.Fulfillment) error
	Save(ctx context.Context, fulfillment *models.Fulfillment) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Fulfillment, error)
	AssignItem(ctx context.Context, itemID, fulfillmentID uuid.UUID) error
	CountItems(ctx context.Context, fulfillmentID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a fulfillments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, fulfillment *models.Fulfillment) error {
	return r.db.WithContext(ctx).Create(fulfillment).Error
}

func (r *repository) Save(ctx context.Context, fulfillment *models.Fulfillment) error {
	return r.db.WithContext(ctx).Omit("Items").Save(fulfillment).Error
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Fulfillment, error) {
	var fulfillments []models.Fulfillment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Find(&fulfillments).Error
	return fulfillments, err
}

func (r *repository) AssignItem(ctx context.Context, itemID, fulfillmentID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", itemID).
		Update("fulfillment_id", fulfillmentID).Error
}

func (r *repository) CountItems(ctx context.Context, fulfillmentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("fulfillment_id = ?", fulfillmentID).
		Count(&count).Error
	return count, err
}
