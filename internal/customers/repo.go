package customers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thall003/proxycart/pkg/db/models"
	pkgerrors "github.com/thall003/proxycart/pkg/errors"
)

// Repository persists customers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	Save(ctx context.Context, customer *models.Customer) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a customers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return r.findOne(ctx, id, false)
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return r.findOne(ctx, id, true)
}

func (r *repository) findOne(ctx context.Context, id uuid.UUID, lock bool) (*models.Customer, error) {
	var customer models.Customer
	q := r.db.WithContext(ctx)
	if lock && r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.Where("id = ?", id).First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, err
	}
	return &customer, nil
}

func (r *repository) Save(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}
