package subscriptions

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/thall003/proxycart/pkg/db/models"
	pkgerrors "github.com/thall003/proxycart/pkg/errors"
)

// Repository persists subscriptions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, subscription *models.Subscription) error
	Save(ctx context.Context, subscription *models.Subscription) error
	FindByToken(ctx context.Context, token string) (*models.Subscription, error)
	ListDueForRenewal(ctx context.Context, cutoff time.Time, limit int) ([]models.Subscription, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a subscriptions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, subscription *models.Subscription) error {
	return r.db.WithContext(ctx).Create(subscription).Error
}

func (r *repository) Save(ctx context.Context, subscription *models.Subscription) error {
	return r.db.WithContext(ctx).Save(subscription).Error
}

func (r *repository) FindByToken(ctx context.Context, token string) (*models.Subscription, error) {
	var subscription models.Subscription
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
		}
		return nil, err
	}
	return &subscription, nil
}

func (r *repository) ListDueForRenewal(ctx context.Context, cutoff time.Time, limit int) ([]models.Subscription, error) {
	var subscriptions []models.Subscription
	err := r.db.WithContext(ctx).
		Where("status = ? AND renews_at IS NOT NULL AND renews_at <= ?", "active", cutoff).
		Order("renews_at ASC").
		Limit(limit).
		Find(&subscriptions).Error
	return subscriptions, err
}
