package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/thall003/proxycart/internal/checkout"
	"github.com/thall003/proxycart/internal/subscriptions"
	"github.com/thall003/proxycart/pkg/db/models"
	"github.com/thall003/proxycart/pkg/enums"
	"github.com/thall003/proxycart/pkg/logger"
	"github.com/thall003/proxycart/pkg/outbox"
	"github.com/thall003/proxycart/pkg/outbox/payloads"
)

const (
	defaultRenewalLimit   = 250
	defaultRenewalGateway = "manual"
)

type checkoutCreator interface {
	Create(ctx context.Context, req checkout.CreateRequest) (*models.Order, error)
}

// SubscriptionRenewalJobParams configure the renewal job.
type SubscriptionRenewalJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Subscriptions subscriptions.Repository
	Renewer       *subscriptions.Service
	Checkout      checkoutCreator
	Outbox        outboxEmitter
	Gateway       string
	Limit         int
	Now           func() time.Time
}

// NewSubscriptionRenewalJob builds the job that converts due subscriptions
// into renewal orders and advances their renewal clock.
func NewSubscriptionRenewalJob(params SubscriptionRenewalJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	if params.Renewer == nil {
		return nil, fmt.Errorf("subscriptions service required")
	}
	if params.Checkout == nil {
		return nil, fmt.Errorf("checkout service required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	gateway := params.Gateway
	if gateway == "" {
		gateway = defaultRenewalGateway
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultRenewalLimit
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &subscriptionRenewalJob{
		logg:          params.Logger,
		db:            params.DB,
		subscriptions: params.Subscriptions,
		renewer:       params.Renewer,
		checkout:      params.Checkout,
		outbox:        params.Outbox,
		gateway:       gateway,
		limit:         limit,
		now:           now,
	}, nil
}

type subscriptionRenewalJob struct {
	logg          *logger.Logger
	db            txRunner
	subscriptions subscriptions.Repository
	renewer       *subscriptions.Service
	checkout      checkoutCreator
	outbox        outboxEmitter
	gateway       string
	limit         int
	now           func() time.Time
}

func (j *subscriptionRenewalJob) Name() string { return "subscription-renewal" }

func (j *subscriptionRenewalJob) Run(ctx context.Context) error {
	due, err := j.subscriptions.ListDueForRenewal(ctx, j.now().UTC(), j.limit)
	if err != nil {
		return fmt.Errorf("query due subscriptions: %w", err)
	}
	renewed := 0
	var errs []error
	for i := range due {
		if err := j.renewSubscription(ctx, &due[i]); err != nil {
			errs = append(errs, fmt.Errorf("renew subscription %s: %w", due[i].Token, err))
			errCtx := j.logg.WithField(ctx, "subscription_token", due[i].Token)
			j.logg.Error(errCtx, "subscription renewal failed", err)
			continue
		}
		renewed++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"renewed": renewed, "failed": len(errs)})
	j.logg.Info(logCtx, "subscription renewal loop complete")
	return multierr.Combine(errs...)
}

func (j *subscriptionRenewalJob) renewSubscription(ctx context.Context, subscription *models.Subscription) error {
	order, err := j.checkout.Create(ctx, checkout.CreateRequest{
		SubscriptionToken: subscription.Token,
		PaymentKind:       enums.TransactionKindSale,
		PaymentDetails: []checkout.PaymentDetail{
			{Gateway: j.gateway},
		},
	})
	if err != nil {
		return err
	}

	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := j.renewer.MarkRenewed(ctx, tx, subscription); err != nil {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventSubscriptionRenewed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			OccurredAt:    j.now().UTC(),
			Data: payloads.SubscriptionRenewedEvent{
				SubscriptionID: subscription.ID,
				Token:          subscription.Token,
				OrderID:        order.ID,
				CustomerID:     subscription.CustomerID,
				RenewsAt:       subscription.RenewsAt,
			},
		}
		return j.outbox.Emit(ctx, tx, event)
	})
}
