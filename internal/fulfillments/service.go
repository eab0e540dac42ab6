package fulfillments

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thall003/proxycart/pkg/config"
	"github.com/thall003/proxycart/pkg/db/models"
	"github.com/thall003/proxycart/pkg/enums"
	pkgerrors "github.com/thall003/proxycart/pkg/errors"
	"github.com/thall003/proxycart/pkg/logger"
	"github.com/thall003/proxycart/pkg/metrics"
)

// Service hands orders to fulfillment providers and keeps the fulfillment
// rows aligned with the order's items. Items are grouped into one shipment
// per fulfillment service.
type Service struct {
	repo     Repository
	registry *Registry
	timeout  time.Duration
	logg     *logger.Logger
	metrics  *metrics.OrderMetrics
	now      func() time.Time
}

// WithMetrics attaches dispatch counters. Safe to skip in tests.
func (s *Service) WithMetrics(m *metrics.OrderMetrics) *Service {
	s.metrics = m
	return s
}

// NewService builds the fulfillment service.
func NewService(repo Repository, registry *Registry, cfg config.FulfillmentConfig, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fulfillments repository required")
	}
	if registry == nil {
		return nil, fmt.Errorf("provider registry required")
	}
	return &Service{
		repo:     repo,
		registry: registry,
		timeout:  cfg.ProviderTimeout,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// SendOrder dispatches every unassigned item to its fulfillment service and
// records one fulfillment per service. A provider failure is not fatal: the
// shipment is recorded unsent and picked up again later.
func (s *Service) SendOrder(ctx context.Context, tx *gorm.DB, order *models.Order) ([]models.Fulfillment, error) {
	if !order.ItemsLoaded() {
		return nil, pkgerrors.New(pkgerrors.CodePrecondition, "order items not loaded")
	}
	repo := s.repo.WithTx(tx)

	groups := groupUnassigned(order.Items)
	created := make([]models.Fulfillment, 0, len(groups))
	for _, group := range groups {
		fulfillment := models.Fulfillment{
			OrderID: order.ID,
			Service: group.service,
			Status:  enums.FulfillmentStatusNone,
		}

		result, err := s.send(ctx, group)
		if err != nil {
			s.warn(ctx, order.ID, group.service, err)
		} else {
			fulfillment.Status = result.Status
			fulfillment.TrackingCompany = result.TrackingCompany
			fulfillment.TrackingNumber = result.TrackingNumber
			if result.Status == enums.FulfillmentStatusSent {
				sentAt := s.now()
				fulfillment.SentAt = &sentAt
			}
		}

		if err := repo.Create(ctx, &fulfillment); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist fulfillment")
		}
		for _, item := range group.items {
			if err := repo.AssignItem(ctx, item.ID, fulfillment.ID); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign item to fulfillment")
			}
		}
		assignInMemory(order, group, fulfillment.ID)
		s.metrics.IncFulfillmentDispatch(fulfillment.Service, string(fulfillment.Status))
		created = append(created, fulfillment)
	}
	return created, nil
}

// ReconcileCreate picks up items added after the order was first built. New
// items join an unsent shipment for their service or start a fresh one;
// shipments already sent are never reopened.
func (s *Service) ReconcileCreate(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if !order.ItemsLoaded() {
		return pkgerrors.New(pkgerrors.CodePrecondition, "order items not loaded")
	}
	repo := s.repo.WithTx(tx)

	groups := groupUnassigned(order.Items)
	if len(groups) == 0 {
		return nil
	}
	existing, err := repo.ListByOrder(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list fulfillments")
	}

	for _, group := range groups {
		var target *models.Fulfillment
		for i := range existing {
			if existing[i].Service == group.service && existing[i].Status == enums.FulfillmentStatusNone {
				target = &existing[i]
				break
			}
		}
		if target == nil {
			fulfillment := models.Fulfillment{
				OrderID: order.ID,
				Service: group.service,
				Status:  enums.FulfillmentStatusNone,
			}
			if err := repo.Create(ctx, &fulfillment); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist fulfillment")
			}
			existing = append(existing, fulfillment)
			order.Fulfillments = append(order.Fulfillments, fulfillment)
			target = &existing[len(existing)-1]
		}
		for _, item := range group.items {
			if err := repo.AssignItem(ctx, item.ID, target.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign item to fulfillment")
			}
		}
		assignInMemory(order, group, target.ID)
	}
	return nil
}

// ReconcileUpdate cancels shipments whose items were all removed from the
// order. Sent shipments are cancelled with their provider first.
func (s *Service) ReconcileUpdate(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	repo := s.repo.WithTx(tx)
	existing, err := repo.ListByOrder(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list fulfillments")
	}

	for i := range existing {
		fulfillment := &existing[i]
		switch fulfillment.Status {
		case enums.FulfillmentStatusNone, enums.FulfillmentStatusSent:
		default:
			continue
		}
		count, err := repo.CountItems(ctx, fulfillment.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count fulfillment items")
		}
		if count > 0 {
			continue
		}

		if fulfillment.Status == enums.FulfillmentStatusSent {
			if err := s.cancel(ctx, fulfillment); err != nil {
				s.warn(ctx, order.ID, fulfillment.Service, err)
				continue
			}
		}
		fulfillment.Status = enums.FulfillmentStatusCancelled
		cancelledAt := s.now()
		fulfillment.CancelledAt = &cancelledAt
		if err := repo.Save(ctx, fulfillment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist fulfillment cancellation")
		}
		syncInMemory(order, fulfillment)
	}
	return nil
}

type serviceGroup struct {
	service string
	items   []models.OrderItem
}

// groupUnassigned buckets items not yet attached to a fulfillment by their
// fulfillment service, in stable name order.
func groupUnassigned(items []models.OrderItem) []serviceGroup {
	buckets := map[string][]models.OrderItem{}
	for _, item := range items {
		if item.FulfillmentID != nil || item.FulfillableQuantity <= 0 {
			continue
		}
		service := item.FulfillmentService
		if service == "" {
			service = ServiceManual
		}
		buckets[service] = append(buckets[service], item)
	}
	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]serviceGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, serviceGroup{service: name, items: buckets[name]})
	}
	return groups
}

func (s *Service) send(ctx context.Context, group serviceGroup) (ProviderResult, error) {
	provider, err := s.registry.Resolve(group.service)
	if err != nil {
		return ProviderResult{}, err
	}
	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return provider.Send(callCtx, ProviderRequest{OrderID: group.items[0].OrderID, Items: group.items})
}

func (s *Service) cancel(ctx context.Context, fulfillment *models.Fulfillment) error {
	provider, err := s.registry.Resolve(fulfillment.Service)
	if err != nil {
		return err
	}
	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return provider.Cancel(callCtx, ProviderRequest{OrderID: fulfillment.OrderID})
}

func assignInMemory(order *models.Order, group serviceGroup, fulfillmentID uuid.UUID) {
	for i := range order.Items {
		for _, item := range group.items {
			if order.Items[i].ID == item.ID {
				id := fulfillmentID
				order.Items[i].FulfillmentID = &id
			}
		}
	}
}

func syncInMemory(order *models.Order, fulfillment *models.Fulfillment) {
	for i := range order.Fulfillments {
		if order.Fulfillments[i].ID == fulfillment.ID {
			order.Fulfillments[i] = *fulfillment
		}
	}
}

func (s *Service) warn(ctx context.Context, orderID uuid.UUID, service string, err error) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id": orderID.String(),
		"service":  service,
	})
	s.logg.Error(logCtx, "fulfillment provider call failed", err)
}
