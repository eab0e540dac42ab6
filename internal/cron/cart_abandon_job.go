package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/thall003/proxycart/internal/carts"
	"github.com/thall003/proxycart/pkg/enums"
	"github.com/thall003/proxycart/pkg/logger"
	"github.com/thall003/proxycart/pkg/outbox"
	"github.com/thall003/proxycart/pkg/outbox/payloads"
)

const (
	defaultCartIdleAfter    = 3 * 24 * time.Hour
	defaultCartAbandonLimit = 500
)

// CartAbandonJobParams configure the cart abandonment job.
type CartAbandonJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Carts     carts.Repository
	Outbox    outboxEmitter
	IdleAfter time.Duration
	Limit     int
	Now       func() time.Time
}

// NewCartAbandonJob builds the job that closes open carts nobody touched
// for the configured idle window.
func NewCartAbandonJob(params CartAbandonJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("carts repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	idleAfter := params.IdleAfter
	if idleAfter <= 0 {
		idleAfter = defaultCartIdleAfter
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultCartAbandonLimit
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &cartAbandonJob{
		logg:      params.Logger,
		db:        params.DB,
		carts:     params.Carts,
		outbox:    params.Outbox,
		idleAfter: idleAfter,
		limit:     limit,
		now:       now,
	}, nil
}

type cartAbandonJob struct {
	logg      *logger.Logger
	db        txRunner
	carts     carts.Repository
	outbox    outboxEmitter
	idleAfter time.Duration
	limit     int
	now       func() time.Time
}

func (j *cartAbandonJob) Name() string { return "cart-abandon" }

func (j *cartAbandonJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.idleAfter)
	stale, err := j.carts.ListOpenUpdatedBefore(ctx, cutoff, j.limit)
	if err != nil {
		return fmt.Errorf("query stale carts: %w", err)
	}
	count := 0
	var errs []error
	for _, cart := range stale {
		if err := j.abandonCart(ctx, cart.Token); err != nil {
			errs = append(errs, fmt.Errorf("abandon cart %s: %w", cart.Token, err))
			errCtx := j.logg.WithField(ctx, "cart_token", cart.Token)
			j.logg.Error(errCtx, "cart abandonment failed", err)
			continue
		}
		count++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count, "failed": len(errs), "cutoff": cutoff})
	j.logg.Info(logCtx, "cart abandonment loop complete")
	return multierr.Combine(errs...)
}

func (j *cartAbandonJob) abandonCart(ctx context.Context, token string) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := j.carts.WithTx(tx).FindByTokenForUpdate(ctx, token)
		if err != nil {
			return err
		}
		// Checkout may have converted the cart since the listing query.
		if cart.Status != enums.CartStatusOpen {
			return nil
		}
		cart.Status = enums.CartStatusAbandoned
		if err := j.carts.WithTx(tx).Save(ctx, cart); err != nil {
			return fmt.Errorf("save cart: %w", err)
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventCartAbandoned,
			AggregateType: enums.AggregateCart,
			AggregateID:   cart.ID,
			Version:       1,
			OccurredAt:    j.now().UTC(),
			Data: payloads.CartAbandonedEvent{
				CartToken:   cart.Token,
				CustomerID:  cart.CustomerID,
				AbandonedAt: j.now().UTC(),
			},
		}
		return j.outbox.Emit(ctx, tx, event)
	})
}
