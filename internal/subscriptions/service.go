package subscriptions

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thall003/proxycart/pkg/db/models"
	"github.com/thall003/proxycart/pkg/enums"
	pkgerrors "github.com/thall003/proxycart/pkg/errors"
	"github.com/thall003/proxycart/pkg/logger"
)

// Service creates subscriptions from orders whose items renew. Items are
// grouped by renewal interval; each group becomes one subscription.
type Service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the subscription service.
func NewService(repo Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	return &Service{repo: repo, logg: logg, now: time.Now}, nil
}

// SetupSubscriptions creates one subscription per renewal-interval group of
// the order's items. When immediate is true the subscriptions start active
// with their first renewal scheduled; otherwise they wait as pending.
func (s *Service) SetupSubscriptions(ctx context.Context, tx *gorm.DB, order *models.Order, immediate bool) ([]models.Subscription, error) {
	if !order.ItemsLoaded() {
		return nil, pkgerrors.New(pkgerrors.CodePrecondition, "order items not loaded")
	}
	repo := s.repo.WithTx(tx)

	groups := renewalGroups(order.Items)
	created := make([]models.Subscription, 0, len(groups))
	for _, group := range groups {
		id := uuid.New()
		subscription := models.Subscription{
			ID:         id,
			Token:      fmt.Sprintf("sub_%s", id),
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			Status:     enums.SubscriptionStatusPending,
			Interval:   group.interval,
			Unit:       group.unit,
		}
		if immediate {
			now := s.now()
			renewsAt := nextRenewal(now, group.interval, group.unit)
			subscription.Status = enums.SubscriptionStatusActive
			subscription.ActivatedAt = &now
			subscription.RenewsAt = &renewsAt
		}
		if err := repo.Create(ctx, &subscription); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist subscription")
		}
		created = append(created, subscription)
	}

	if s.logg != nil && len(created) > 0 {
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()),
			fmt.Sprintf("created %d subscriptions", len(created)))
	}
	return created, nil
}

// MarkRenewed advances the subscription's renewal clock after a renewal
// order was created from it.
func (s *Service) MarkRenewed(ctx context.Context, tx *gorm.DB, subscription *models.Subscription) error {
	if subscription.Status != enums.SubscriptionStatusActive {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "subscription is %s and cannot renew", subscription.Status)
	}
	// Advance from the scheduled time, not the processing time, so late
	// runs do not drift the renewal day.
	from := s.now()
	if subscription.RenewsAt != nil {
		from = *subscription.RenewsAt
	}
	renewsAt := nextRenewal(from, subscription.Interval, normalizeUnit(subscription.Unit))
	subscription.RenewsAt = &renewsAt
	if err := s.repo.WithTx(tx).Save(ctx, subscription); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist subscription renewal")
	}
	return nil
}

type renewalGroup struct {
	interval int
	unit     string
}

// renewalGroups collects the distinct renewal intervals of the order's
// subscription items, in stable order.
func renewalGroups(items []models.OrderItem) []renewalGroup {
	seen := map[renewalGroup]bool{}
	for _, item := range items {
		if !item.RequiresSubscription || item.SubscriptionInterval <= 0 {
			continue
		}
		group := renewalGroup{interval: item.SubscriptionInterval, unit: normalizeUnit(item.SubscriptionUnit)}
		seen[group] = true
	}
	groups := make([]renewalGroup, 0, len(seen))
	for group := range seen {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].unit != groups[j].unit {
			return groups[i].unit < groups[j].unit
		}
		return groups[i].interval < groups[j].interval
	})
	return groups
}

func normalizeUnit(unit string) string {
	switch strings.ToLower(unit) {
	case "d", "day", "days":
		return "day"
	case "w", "week", "weeks":
		return "week"
	case "y", "year", "years":
		return "year"
	default:
		return "month"
	}
}

func nextRenewal(from time.Time, interval int, unit string) time.Time {
	switch unit {
	case "day":
		return from.AddDate(0, 0, interval)
	case "week":
		return from.AddDate(0, 0, 7*interval)
	case "year":
		return from.AddDate(interval, 0, 0)
	default:
		return from.AddDate(0, interval, 0)
	}
}
