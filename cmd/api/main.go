package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/thall003/proxycart/api/routes"
	"github.com/thall003/proxycart/internal/carts"
	checkoutsvc "github.com/thall003/proxycart/internal/checkout"
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

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	promRegistry := prometheus.NewRegistry()
	orderMetrics := metrics.NewOrderMetrics(promRegistry)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

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
	paymentService.WithMetrics(orderMetrics)

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
	fulfillmentService.WithMetrics(orderMetrics)

	subscriptionService, err := subscriptions.NewService(subscriptions.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	customerService, err := customers.NewService(customers.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create customer service", err)
		os.Exit(1)
	}

	orderRepo := orders.NewRepository(dbClient.DB())

	orderService, err := orders.NewService(
		orderRepo,
		dbClient,
		outboxService,
		paymentService,
		fulfillmentService,
		subscriptionService,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Carts:         carts.NewRepository(dbClient.DB()),
		Orders:        orderRepo,
		Subscriptions: subscriptions.NewRepository(dbClient.DB()),
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

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:           cfg,
			Logger:           logg,
			DB:               dbClient,
			Redis:            redisClient,
			IdempotencyStore: redisClient,
			Checkout:         checkoutService,
			Orders:           orderService,
			OrderMetrics:     orderMetrics,
			Registry:         promRegistry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
