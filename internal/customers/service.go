package customers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thall003/proxycart/pkg/db/models"
	pkgerrors "github.com/thall003/proxycart/pkg/errors"
	"github.com/thall003/proxycart/pkg/logger"
)

// Service exposes the customer operations the order flows need: balance
// handling and the lifetime-spend bookkeeping after a converted checkout.
type Service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the customer service.
func NewService(repo Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	return &Service{repo: repo, logg: logg}, nil
}

// Resolve loads a customer by id.
func (s *Service) Resolve(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Customer, error) {
	return s.repo.WithTx(tx).FindByID(ctx, id)
}

// DeductBalance takes amount off the customer's account balance under a row
// lock. The balance never goes below zero.
func (s *Service) DeductBalance(ctx context.Context, tx *gorm.DB, id uuid.UUID, amount int64) (*models.Customer, error) {
	if amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deduction amount must be positive")
	}
	repo := s.repo.WithTx(tx)
	customer, err := repo.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer.AccountBalance < amount {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient account balance")
	}
	customer.AccountBalance -= amount
	if err := repo.Save(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist balance deduction")
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"customer_id": id.String(),
			"amount":      amount,
		})
		s.logg.Info(logCtx, "account balance deducted")
	}
	return customer, nil
}

// RecordOrder updates the customer's lifetime-spend counters after a
// checkout converts.
func (s *Service) RecordOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID, orderID uuid.UUID, spent int64) error {
	repo := s.repo.WithTx(tx)
	customer, err := repo.FindByIDForUpdate(ctx, id)
	if err != nil {
		return err
	}
	customer.LastOrderID = &orderID
	customer.TotalSpent += spent
	if err := repo.Save(ctx, customer); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist customer order stats")
	}
	return nil
}
