package customers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thall003/proxycart/pkg/db/models"
	pkgerrors "github.com/thall003/proxycart/pkg/errors"
	"github.com/thall003/proxycart/pkg/logger"
)

type stubRepo struct {
	customer *models.Customer
	saved    int
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	if s.customer == nil || s.customer.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return s.customer, nil
}

func (s *stubRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return s.FindByID(ctx, id)
}

func (s *stubRepo) Save(ctx context.Context, customer *models.Customer) error {
	s.saved++
	s.customer = customer
	return nil
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	svc, err := NewService(repo, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestDeductBalance(t *testing.T) {
	repo := &stubRepo{customer: &models.Customer{ID: uuid.New(), AccountBalance: 1000}}
	svc := newTestService(t, repo)

	customer, err := svc.DeductBalance(context.Background(), nil, repo.customer.ID, 400)
	if err != nil {
		t.Fatalf("deduct: %v", err)
	}
	if customer.AccountBalance != 600 {
		t.Fatalf("expected balance 600, got %d", customer.AccountBalance)
	}
	if repo.saved != 1 {
		t.Fatalf("expected one save, got %d", repo.saved)
	}
}

func TestDeductBalanceNeverBelowZero(t *testing.T) {
	repo := &stubRepo{customer: &models.Customer{ID: uuid.New(), AccountBalance: 300}}
	svc := newTestService(t, repo)

	_, err := svc.DeductBalance(context.Background(), nil, repo.customer.ID, 400)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if repo.customer.AccountBalance != 300 {
		t.Fatalf("balance must be untouched, got %d", repo.customer.AccountBalance)
	}
}

func TestDeductBalanceValidatesAmount(t *testing.T) {
	svc := newTestService(t, &stubRepo{})
	_, err := svc.DeductBalance(context.Background(), nil, uuid.New(), 0)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecordOrder(t *testing.T) {
	repo := &stubRepo{customer: &models.Customer{ID: uuid.New(), TotalSpent: 500}}
	svc := newTestService(t, repo)
	orderID := uuid.New()

	if err := svc.RecordOrder(context.Background(), nil, repo.customer.ID, orderID, 1200); err != nil {
		t.Fatalf("record order: %v", err)
	}
	if repo.customer.TotalSpent != 1700 {
		t.Fatalf("expected total spent 1700, got %d", repo.customer.TotalSpent)
	}
	if repo.customer.LastOrderID == nil || *repo.customer.LastOrderID != orderID {
		t.Fatalf("last order not recorded")
	}
}
