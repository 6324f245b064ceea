package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/shopvite/shopvite-backend/internal/analytics"
	analyticsconsumer "github.com/shopvite/shopvite-backend/internal/consumers/analytics"
	trackingconsumer "github.com/shopvite/shopvite-backend/internal/consumers/tracking"
	"github.com/shopvite/shopvite-backend/internal/notifications"
	"github.com/shopvite/shopvite-backend/internal/users"
	"github.com/shopvite/shopvite-backend/pkg/bigquery"
	"github.com/shopvite/shopvite-backend/pkg/config"
	"github.com/shopvite/shopvite-backend/pkg/db"
	"github.com/shopvite/shopvite-backend/pkg/email"
	"github.com/shopvite/shopvite-backend/pkg/instance"
	"github.com/shopvite/shopvite-backend/pkg/logger"
	"github.com/shopvite/shopvite-backend/pkg/migrate"
	"github.com/shopvite/shopvite-backend/pkg/outbox/idempotency"
	"github.com/shopvite/shopvite-backend/pkg/pubsub"
	"github.com/shopvite/shopvite-backend/pkg/redis"
)

// processedEventTTL bounds how long a consumed event ID stays marked in
// Redis. A week comfortably outlives Pub/Sub's redelivery window.
const processedEventTTL = 7 * 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	bigqueryClient, err := bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap bigquery", err)
		os.Exit(1)
	}
	defer func() {
		if err := bigqueryClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing bigquery client", err)
		}
	}()

	idempotencyManager, err := idempotency.NewManager(redisClient, processedEventTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency manager", err)
		os.Exit(1)
	}

	emailSender, err := email.NewLogSender(cfg.Email, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create email sender", err)
		os.Exit(1)
	}
	retryingSender, err := email.NewRetryingSender(emailSender, cfg.Email)
	if err != nil {
		logg.Error(context.Background(), "failed to create retrying email sender", err)
		os.Exit(1)
	}

	notificationConsumer, err := notifications.NewConsumer(
		notifications.NewRepository(dbClient.DB()),
		users.NewRepository(dbClient.DB()),
		retryingSender,
		pubsubClient.NotificationSubscription(),
		idempotencyManager,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification consumer", err)
		os.Exit(1)
	}

	trackingConsumer, err := trackingconsumer.NewConsumer(redisClient, pubsubClient.OrdersSubscription(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create tracking consumer", err)
		os.Exit(1)
	}

	analyticsWriter, err := analytics.NewWriter(bigqueryClient, analytics.WriterConfig{
		Table: cfg.BigQuery.OrderEventsTable,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics writer", err)
		os.Exit(1)
	}
	analyticsConsumer, err := analyticsconsumer.NewConsumer(
		analyticsWriter,
		pubsubClient.AnalyticsSubscription(),
		idempotencyManager,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:               cfg,
		Logger:               logg,
		DB:                   dbClient,
		Redis:                redisClient,
		PubSub:               pubsubClient,
		BigQuery:             bigqueryClient,
		NotificationConsumer: notificationConsumer,
		TrackingConsumer:     trackingConsumer,
		AnalyticsConsumer:    analyticsConsumer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "worker",
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}
