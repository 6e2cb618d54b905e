package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/stockyardhq/stockyard-backend/internal/cron"
	"github.com/stockyardhq/stockyard-backend/internal/notifications"
	"github.com/stockyardhq/stockyard-backend/internal/orders"
	"github.com/stockyardhq/stockyard-backend/internal/payments"
	"github.com/stockyardhq/stockyard-backend/internal/payouts"
	"github.com/stockyardhq/stockyard-backend/internal/timeline"
	"github.com/stockyardhq/stockyard-backend/pkg/config"
	"github.com/stockyardhq/stockyard-backend/pkg/db"
	"github.com/stockyardhq/stockyard-backend/pkg/logger"
	"github.com/stockyardhq/stockyard-backend/pkg/metrics"
	"github.com/stockyardhq/stockyard-backend/pkg/migrate"
	"github.com/stockyardhq/stockyard-backend/pkg/outbox"
	"github.com/stockyardhq/stockyard-backend/pkg/redis"
	pkgstripe "github.com/stockyardhq/stockyard-backend/pkg/stripe"
)

const lockKeyFormat = "sy:cron-worker:lock:%s"

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

	cfg.Service.Kind = "cron-worker"

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

	gormDB := dbClient.DB()

	recorder, err := timeline.NewRecorder(gormDB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create timeline recorder", err)
		os.Exit(1)
	}
	outboxRepo := outbox.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outboxRepo, logg)

	notifRepo := notifications.NewRepository(gormDB)
	notifier, err := notifications.NewDispatcher(notifRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification dispatcher", err)
		os.Exit(1)
	}

	var stripePayments payments.StripePaymentClient
	if cfg.Stripe.APIKey != "" {
		stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe client", err)
			os.Exit(1)
		}
		stripePayments = payments.NewStripeClient(stripeClient)
	} else {
		logg.Warn(context.Background(), "stripe api key not configured; protection release will skip transfers")
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

	payoutsRepo := payouts.NewRepository(gormDB)
	payoutsSvc, err := payouts.NewService(
		payoutsRepo,
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

	checkoutExpiry, err := cron.NewCheckoutExpiryJob(cron.CheckoutExpiryJobParams{
		Logger:    logg,
		Orders:    ordersSvc,
		BatchSize: cfg.Checkout.ExpiryBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout expiry job", err)
		os.Exit(1)
	}
	protectionRelease, err := cron.NewProtectionReleaseJob(cron.ProtectionReleaseJobParams{
		Logger:    logg,
		Reader:    payoutsRepo,
		Payouts:   payoutsSvc,
		BatchSize: cfg.Custody.SweepBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create protection release job", err)
		os.Exit(1)
	}
	notificationCleanup, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		Repository: notifRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification cleanup job", err)
		os.Exit(1)
	}
	outboxRetention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
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

	registry := cron.NewRegistry(checkoutExpiry, protectionRelease, notificationCleanup, outboxRetention)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
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

func decimalFromConfig(raw, fallback string) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		d, _ = decimal.NewFromString(fallback)
	}
	return d
}
