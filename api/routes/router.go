package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thall003/proxycart/api/controllers"
	"github.com/thall003/proxycart/api/middleware"
	"github.com/thall003/proxycart/internal/orders"
	"github.com/thall003/proxycart/pkg/config"
	"github.com/thall003/proxycart/pkg/db"
	"github.com/thall003/proxycart/pkg/logger"
	"github.com/thall003/proxycart/pkg/metrics"
	pkgredis "github.com/thall003/proxycart/pkg/redis"
)

// Params carries every collaborator the HTTP surface needs. Optional fields
// (metrics, idempotency store, prometheus registry) may be nil.
type Params struct {
	Config *config.Config
	Logger *logger.Logger

	DB    db.Pinger
	Redis pkgredis.Pinger

	IdempotencyStore pkgredis.IdempotencyStore

	Checkout controllers.CheckoutService
	Orders   orders.Service

	OrderMetrics *metrics.OrderMetrics
	Registry     *prometheus.Registry
}

// NewRouter assembles the chi router: health and metrics outside the API
// middleware chain, order operations inside it.
func NewRouter(p Params) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, p.DB, p.Redis))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(p.IdempotencyStore, p.Logger))

		r.Post("/checkout", controllers.Checkout(p.Checkout, p.OrderMetrics, p.Logger))

		r.Route("/orders/{orderRef}", func(r chi.Router) {
			r.Get("/", controllers.OrderDetail(p.Orders, p.Logger))
			r.Post("/recalculate", controllers.OrderRecalculate(p.Orders, p.Logger))
			r.Post("/pay", controllers.OrderPay(p.Orders, p.Logger))
			r.Post("/cancel", controllers.OrderCancel(p.Orders, p.Logger))
			r.Post("/refund", controllers.OrderRefund(p.Orders, p.Logger))
			r.Post("/transactions/{transactionId}/retry", controllers.TransactionRetry(p.Orders, p.Logger))

			r.Post("/items", controllers.OrderAddItem(p.Orders, p.Logger))
			r.Put("/items", controllers.OrderUpdateItem(p.Orders, p.Logger))
			r.Delete("/items", controllers.OrderRemoveItem(p.Orders, p.Logger))
		})
	})

	return r
}
