package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/stockyardhq/stockyard-backend/api/routes"
	"github.com/stockyardhq/stockyard-backend/internal/disputes"
	"github.com/stockyardhq/stockyard-backend/internal/fulfillment"
	"github.com/stockyardhq/stockyard-backend/internal/notifications"
	"github.com/stockyardhq/stockyard-backend/internal/orders"
	"github.com/stockyardhq/stockyard-backend/internal/payments"
	"github.com/stockyardhq/stockyard-backend/internal/payouts"
	"github.com/stockyardhq/stockyard-backend/internal/timeline"
	stripewebhook "github.com/stockyardhq/stockyard-backend/internal/webhooks/stripe"
	"github.com/stockyardhq/stockyard-backend/pkg/config"
	"github.com/stockyardhq/stockyard-backend/pkg/db"
	"github.com/stockyardhq/stockyard-backend/pkg/logger"
	"github.com/stockyardhq/stockyard-backend/pkg/migrate"
	"github.com/stockyardhq/stockyard-backend/pkg/outbox"
	"github.com/stockyardhq/stockyard-backend/pkg/redis"
	pkgstripe "github.com/stockyardhq/stockyard-backend/pkg/stripe"
)

const webhookGuardTTL = 7 * 24 * time.Hour

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

	gormDB := dbClient.DB()

	recorder, err := timeline.NewRecorder(gormDB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create timeline recorder", err)
		os.Exit(1)
	}
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	notifRepo := notifications.NewRepository(gormDB)
	notifier, err := notifications.NewDispatcher(notifRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification dispatcher", err)
		os.Exit(1)
	}
	notificationsSvc, err := notifications.NewService(notifRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	var stripePayments payments.StripePaymentClient
	var stripeClient *pkgstripe.Client
	if cfg.Stripe.APIKey != "" {
		stripeClient, err = pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe client", err)
			os.Exit(1)
		}
		stripePayments = payments.NewStripeClient(stripeClient)
	} else {
		logg.Warn(context.Background(), "stripe api key not configured; payment operations disabled")
	}

	ordersSvc, err := orders.NewService(
		orders.NewRepository(gormDB),
		dbClient,
		outboxSvc,
		recorder,
		notifier,
		logg,
		orders.Config{
			PlatformFeePercent: decimalFromConfig(cfg.Custody.PlatformFeePercent, "5"),
			HighValueThreshold: decimalFromConfig(cfg.Custody.HighValueThresholdUSD, "5000"),
			PaymentTTL:         cfg.Checkout.PaymentTTL(),
			WireTTL:            cfg.Checkout.WireTTL(),
		},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	fulfillmentSvc, err := fulfillment.NewService(
		fulfillment.NewRepository(gormDB),
		dbClient,
		outboxSvc,
		recorder,
		notifier,
		logg,
		fulfillment.Config{ProtectionWindow: cfg.Custody.ProtectionWindow()},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create fulfillment service", err)
		os.Exit(1)
	}

	payoutsSvc, err := payouts.NewService(
		payouts.NewRepository(gormDB),
		dbClient,
		stripePayments,
		outboxSvc,
		recorder,
		notifier,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payouts service", err)
		os.Exit(1)
	}

	disputesSvc, err := disputes.NewService(
		disputes.NewRepository(gormDB),
		dbClient,
		stripePayments,
		outboxSvc,
		recorder,
		notifier,
		logg,
		disputes.Config{},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create disputes service", err)
		os.Exit(1)
	}

	webhookSvc, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Orders:            ordersSvc,
		OrderRepo:         stripewebhook.NewOrderRepository(gormDB),
		TransactionRunner: dbClient,
		Outbox:            outboxSvc,
		Recorder:          recorder,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}
	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, webhookGuardTTL, "stripe-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
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
			Config:             cfg,
			Logger:             logg,
			DBPinger:           dbClient,
			Redis:              redisClient,
			Orders:             ordersSvc,
			Fulfillment:        fulfillmentSvc,
			Disputes:           disputesSvc,
			Payouts:            payoutsSvc,
			Notifications:      notificationsSvc,
			Timeline:           recorder,
			StripeClient:       stripeClient,
			StripeWebhookSvc:   webhookSvc,
			StripeWebhookGuard: webhookGuard,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func decimalFromConfig(raw, fallback string) decimal.Decimal {
	if value, err := decimal.NewFromString(raw); err == nil {
		return value
	}
	value, _ := decimal.NewFromString(fallback)
	return value
}
