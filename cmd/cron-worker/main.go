package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/thall003/proxycart/internal/carts"
	checkoutsvc "github.com/thall003/proxycart/internal/checkout"
	"github.com/thall003/proxycart/internal/cron"
	"github.com/thall003/proxycart/internal/customers"
	"github.com/thall003/proxycart/internal/fulfillments"
	"github.com/thall003/proxycart/internal/orders"
	"github.com/thall003/proxycart/internal/payments"
	"github.com/thall003/proxycart/internal/subscriptions"
	"github.com/thall003/proxycart/pkg/config"
	"github.com/thall003/proxycart/pkg/db"
	"github.com/thall003/proxycart/pkg/logger"
	"github.com/thall003/proxycart/pkg/metrics"
	"github.com/thall003/proxycart/pkg/migrate"
	"github.com/thall003/proxycart/pkg/outbox"
	"github.com/thall003/proxycart/pkg/redis"
)

const lockKeyFormat = "pc:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	outboxRepo := outbox.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outboxRepo, logg)

	paymentService, err := payments.NewService(
		payments.NewRepository(dbClient.DB()),
		payments.NewRegistry(payments.NewManualGateway()),
		cfg.Payments,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	fulfillmentService, err := fulfillments.NewService(
		fulfillments.NewRepository(dbClient.DB()),
		fulfillments.NewRegistry(fulfillments.NewManualProvider()),
		cfg.Fulfillment,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create fulfillment service", err)
		os.Exit(1)
	}

	subscriptionRepo := subscriptions.NewRepository(dbClient.DB())

	subscriptionService, err := subscriptions.NewService(subscriptionRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	customerService, err := customers.NewService(customers.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create customer service", err)
		os.Exit(1)
	}

	cartRepo := carts.NewRepository(dbClient.DB())

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Carts:         cartRepo,
		Orders:        orders.NewRepository(dbClient.DB()),
		Subscriptions: subscriptionRepo,
		Customers:     customerService,
		Payments:      paymentService,
		Fulfillments:  fulfillmentService,
		Subscribe:     subscriptionService,
		Outbox:        outboxService,
		Tx:            dbClient,
		Payment:       cfg.Payments,
		Fulfillment:   cfg.Fulfillment,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	cartAbandonJob, err := cron.NewCartAbandonJob(cron.CartAbandonJobParams{
		Logger: logg,
		DB:     dbClient,
		Carts:  cartRepo,
		Outbox: outboxService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart abandon job", err)
		os.Exit(1)
	}

	renewalJob, err := cron.NewSubscriptionRenewalJob(cron.SubscriptionRenewalJobParams{
		Logger:        logg,
		DB:            dbClient,
		Subscriptions: subscriptionRepo,
		Renewer:       subscriptionService,
		Checkout:      checkoutService,
		Outbox:        outboxService,
		Gateway:       cfg.Payments.DefaultKind,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription renewal job", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(cartAbandonJob, renewalJob, retentionJob),
		Lock:     lock,
		Metrics:  metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
