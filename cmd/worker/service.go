package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	analyticsconsumer "github.com/shopvite/shopvite-backend/internal/consumers/analytics"
	trackingconsumer "github.com/shopvite/shopvite-backend/internal/consumers/tracking"
	"github.com/shopvite/shopvite-backend/internal/notifications"
	"github.com/shopvite/shopvite-backend/pkg/bigquery"
	"github.com/shopvite/shopvite-backend/pkg/config"
	"github.com/shopvite/shopvite-backend/pkg/db"
	"github.com/shopvite/shopvite-backend/pkg/logger"
	"github.com/shopvite/shopvite-backend/pkg/pubsub"
	"github.com/shopvite/shopvite-backend/pkg/redis"
)

type ServiceParams struct {
	Config               *config.Config
	Logger               *logger.Logger
	DB                   *db.Client
	Redis                *redis.Client
	PubSub               *pubsub.Client
	BigQuery             *bigquery.Client
	NotificationConsumer *notifications.Consumer
	TrackingConsumer     *trackingconsumer.Consumer
	AnalyticsConsumer    *analyticsconsumer.Consumer
}

// Service supervises the queue consumers: notifications, tracking fanout,
// and the BigQuery analytics sink. One failing consumer brings the whole
// worker down so the process supervisor restarts a clean instance.
type Service struct {
	cfg                  *config.Config
	logg                 *logger.Logger
	db                   *db.Client
	redis                *redis.Client
	pubsub               *pubsub.Client
	bigquery             *bigquery.Client
	notificationConsumer *notifications.Consumer
	trackingConsumer     *trackingconsumer.Consumer
	analyticsConsumer    *analyticsconsumer.Consumer
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.BigQuery == nil {
		return nil, errors.New("bigquery client is required")
	}
	if params.NotificationConsumer == nil {
		return nil, errors.New("notification consumer is required")
	}
	if params.TrackingConsumer == nil {
		return nil, errors.New("tracking consumer is required")
	}
	if params.AnalyticsConsumer == nil {
		return nil, errors.New("analytics consumer is required")
	}

	return &Service{
		cfg:                  params.Config,
		logg:                 params.Logger,
		db:                   params.DB,
		redis:                params.Redis,
		pubsub:               params.PubSub,
		bigquery:             params.BigQuery,
		notificationConsumer: params.NotificationConsumer,
		trackingConsumer:     params.TrackingConsumer,
		analyticsConsumer:    params.AnalyticsConsumer,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "redis", s.redis.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "pubsub", s.pubsub.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "bigquery", s.bigquery.Ping); err != nil {
		return err
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type consumerResult struct {
		name string
		err  error
	}
	consumers := []struct {
		name string
		run  func(context.Context) error
	}{
		{"notifications", s.notificationConsumer.Run},
		{"tracking", s.trackingConsumer.Run},
		{"analytics", s.analyticsConsumer.Run},
	}

	results := make(chan consumerResult, len(consumers))
	for _, c := range consumers {
		c := c
		go func() {
			results <- consumerResult{name: c.name, err: c.run(runCtx)}
		}()
	}

	// The first consumer to exit cancels the rest; every exit error is
	// collected so the shutdown log names all of them.
	var errs error
	for i := 0; i < len(consumers); i++ {
		result := <-results
		if i == 0 {
			cancel()
		}
		if result.err != nil && !errors.Is(result.err, context.Canceled) {
			s.logg.Error(ctx, fmt.Sprintf("%s consumer stopped unexpectedly", result.name), result.err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", result.name, result.err))
		}
	}

	if errs != nil {
		return errs
	}
	return ctx.Err()
}
