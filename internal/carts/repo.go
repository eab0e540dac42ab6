package carts

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thall003/proxycart/pkg/db/models"
	pkgerrors "github.com/thall003/proxycart/pkg/errors"
)

// Repository loads carts for checkout and closes them once ordered.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByToken(ctx context.Context, token string) (*models.Cart, error)
	FindByTokenForUpdate(ctx context.Context, token string) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	ListOpenUpdatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Cart, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a carts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByToken(ctx context.Context, token string) (*models.Cart, error) {
	return r.findOne(ctx, token, false)
}

func (r *repository) FindByTokenForUpdate(ctx context.Context, token string) (*models.Cart, error) {
	return r.findOne(ctx, token, true)
}

func (r *repository) findOne(ctx context.Context, token string, lock bool) (*models.Cart, error) {
	var cart models.Cart
	q := r.db.WithContext(ctx).Preload("LineItems")
	if lock && r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "carts"}})
	}
	err := q.Where("token = ?", token).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, err
	}
	if cart.LineItems == nil {
		cart.LineItems = []models.CartItem{}
	}
	return &cart, nil
}

func (r *repository) Save(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(cart).Error
}

func (r *repository) ListOpenUpdatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Cart, error) {
	var carts []models.Cart
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", "open", cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&carts).Error
	return carts, err
}
