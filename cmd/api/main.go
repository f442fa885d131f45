package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vendgb/vendgb-backend/api/controllers"
	"github.com/vendgb/vendgb-backend/api/routes"
	"github.com/vendgb/vendgb-backend/internal/catalog"
	"github.com/vendgb/vendgb-backend/internal/checkout"
	"github.com/vendgb/vendgb-backend/internal/orders"
	"github.com/vendgb/vendgb-backend/internal/payments"
	stripewebhook "github.com/vendgb/vendgb-backend/internal/webhooks/stripe"
	"github.com/vendgb/vendgb-backend/pkg/config"
	"github.com/vendgb/vendgb-backend/pkg/db"
	"github.com/vendgb/vendgb-backend/pkg/enums"
	"github.com/vendgb/vendgb-backend/pkg/logger"
	"github.com/vendgb/vendgb-backend/pkg/metrics"
	"github.com/vendgb/vendgb-backend/pkg/migrate"
	"github.com/vendgb/vendgb-backend/pkg/redis"
	"github.com/vendgb/vendgb-backend/pkg/stripe"
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

	var stripeClient *stripe.Client
	if cfg.Stripe.Configured() {
		stripeClient, err = stripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap stripe", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "stripe secret key not set, payment endpoints disabled")
	}

	paymentMetrics := metrics.NewPaymentMetrics(prometheus.DefaultRegisterer)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(catalogRepo, ordersRepo, dbClient, logg, paymentMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	currency, err := enums.ParseCurrency(cfg.Stripe.Currency)
	if err != nil {
		currency = enums.CurrencyGBP
	}

	var intentClient payments.StripeIntentClient
	if stripeClient != nil {
		intentClient = payments.NewStripeClient(stripeClient)
	}
	paymentsService, err := payments.NewService(intentClient, ordersService, ordersRepo, currency, logg, paymentMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Orders:     ordersService,
		OrdersRepo: ordersRepo,
		Logger:     logg,
		Metrics:    paymentMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.WebhookGuard, "stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
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
		Handler: routes.NewRouter(routes.Deps{
			Config: cfg,
			Logger: logg,
			Redis:  redisClient,
			HealthProbes: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
			Catalog:      catalogService,
			Checkout:     checkoutService,
			Orders:       ordersService,
			Payments:     paymentsService,
			StripeClient: stripeClient,
			WebhookSvc:   webhookService,
			WebhookGuard: webhookGuard,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
