package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vendgb/vendgb-backend/api/controllers"
	webhookcontrollers "github.com/vendgb/vendgb-backend/api/controllers/webhooks"
	"github.com/vendgb/vendgb-backend/api/middleware"
	"github.com/vendgb/vendgb-backend/internal/catalog"
	checkoutsvc "github.com/vendgb/vendgb-backend/internal/checkout"
	"github.com/vendgb/vendgb-backend/internal/orders"
	"github.com/vendgb/vendgb-backend/internal/payments"
	stripewebhook "github.com/vendgb/vendgb-backend/internal/webhooks/stripe"
	"github.com/vendgb/vendgb-backend/pkg/config"
	"github.com/vendgb/vendgb-backend/pkg/logger"
	"github.com/vendgb/vendgb-backend/pkg/redis"
	"github.com/vendgb/vendgb-backend/pkg/stripe"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	Redis        *redis.Client
	HealthProbes map[string]controllers.Pinger

	Catalog  catalog.Service
	Checkout checkoutsvc.Service
	Orders   orders.Service
	Payments payments.Service

	StripeClient *stripe.Client
	WebhookSvc   *stripewebhook.Service
	WebhookGuard *stripewebhook.IdempotencyGuard
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.HealthProbes))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Catalog, logg))
			r.Get("/{id}", controllers.GetProduct(deps.Catalog, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

		r.Route("/payment", func(r chi.Router) {
			r.Post("/create-intent", controllers.CreatePaymentIntent(deps.Payments, logg))
			r.Post("/confirm", controllers.ConfirmPayment(deps.Payments, logg))
			r.Post("/webhook", webhookcontrollers.StripeWebhook(deps.WebhookSvc, deps.StripeClient, deps.WebhookGuard, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminListProducts(deps.Catalog, logg))
				r.Post("/", controllers.AdminCreateProduct(deps.Catalog, logg))
				r.Get("/{id}", controllers.AdminGetProduct(deps.Catalog, logg))
				r.Put("/{id}", controllers.AdminUpdateProduct(deps.Catalog, logg))
				r.Delete("/{id}", controllers.AdminDeleteProduct(deps.Catalog, logg))
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
				r.Post("/", controllers.AdminCreateOrder(deps.Checkout, logg))
				r.Get("/{id}", controllers.AdminGetOrder(deps.Orders, logg))
				r.Put("/{id}/status", controllers.AdminUpdateOrderStatus(deps.Orders, logg))
				r.Delete("/{id}", controllers.AdminDeleteOrder(deps.Orders, logg))
			})
		})
	})

	return r
}
