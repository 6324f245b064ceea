package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	webhookcontrollers "github.com/shopvite/shopvite-backend/api/controllers/webhooks"
	"github.com/shopvite/shopvite-backend/api/routes"
	"github.com/shopvite/shopvite-backend/internal/auth"
	"github.com/shopvite/shopvite-backend/internal/cart"
	"github.com/shopvite/shopvite-backend/internal/categories"
	"github.com/shopvite/shopvite-backend/internal/dashboard"
	"github.com/shopvite/shopvite-backend/internal/inventory"
	"github.com/shopvite/shopvite-backend/internal/notifications"
	"github.com/shopvite/shopvite-backend/internal/orders"
	"github.com/shopvite/shopvite-backend/internal/payments"
	"github.com/shopvite/shopvite-backend/internal/products"
	"github.com/shopvite/shopvite-backend/internal/reviews"
	"github.com/shopvite/shopvite-backend/internal/roles"
	"github.com/shopvite/shopvite-backend/internal/tracking"
	"github.com/shopvite/shopvite-backend/internal/uow"
	"github.com/shopvite/shopvite-backend/internal/users"
	"github.com/shopvite/shopvite-backend/pkg/auth/session"
	"github.com/shopvite/shopvite-backend/pkg/config"
	"github.com/shopvite/shopvite-backend/pkg/db"
	"github.com/shopvite/shopvite-backend/pkg/logger"
	"github.com/shopvite/shopvite-backend/pkg/migrate"
	"github.com/shopvite/shopvite-backend/pkg/outbox"
	"github.com/shopvite/shopvite-backend/pkg/outbox/idempotency"
	"github.com/shopvite/shopvite-backend/pkg/redis"
	"github.com/shopvite/shopvite-backend/pkg/square"
)

const (
	shutdownGrace        = 15 * time.Second
	webhookEventGuardTTL = 7 * 24 * time.Hour
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	outboxRepo := outbox.NewRepository(gormDB, cfg.Outbox.MaxAttempts)
	outboxEmitter := outbox.NewService(outboxRepo, logg)

	base := &uow.UnitOfWork{
		Users:         users.NewRepository(gormDB),
		Roles:         roles.NewRepository(gormDB),
		Categories:    categories.NewRepository(gormDB),
		Products:      products.NewRepository(gormDB),
		Carts:         cart.NewRepository(gormDB),
		Orders:        orders.NewRepository(gormDB),
		Reviews:       reviews.NewRepository(gormDB),
		Inventory:     inventory.NewRepository(gormDB),
		Warehouses:    inventory.NewWarehouseRepository(gormDB),
		Notifications: notifications.NewRepository(gormDB),
		Payments:      payments.NewRepository(gormDB),
		Outbox:        outboxEmitter,
	}
	runner, err := uow.NewRunner(dbClient, base)
	if err != nil {
		logg.Error(context.Background(), "failed to create unit of work runner", err)
		os.Exit(1)
	}

	roleVersions, err := roles.NewVersions(base.Roles, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create role version source", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Runner:         runner,
		SessionManager: sessionManager,
		ResetStore:     redisClient,
		Limiter:        redisClient,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		ResetConfig:    cfg.PasswordReset,
		RateLimit:      cfg.AuthRateLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(runner)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}
	productsService, err := products.NewService(runner)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}
	categoriesService, err := categories.NewService(runner)
	if err != nil {
		logg.Error(context.Background(), "failed to create categories service", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(runner)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	ordersService, err := orders.NewService(runner, cfg.Checkout)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	reviewsService, err := reviews.NewService(runner)
	if err != nil {
		logg.Error(context.Background(), "failed to create reviews service", err)
		os.Exit(1)
	}
	inventoryService, err := inventory.NewService(runner)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}
	notificationsService, err := notifications.NewService(runner)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}
	dashboardService, err := dashboard.NewService(runner)
	if err != nil {
		logg.Error(context.Background(), "failed to create dashboard service", err)
		os.Exit(1)
	}

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create square client", err)
		os.Exit(1)
	}
	paymentsService, err := payments.NewService(runner, squareClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}
	webhookIdempotency, err := idempotency.NewManager(redisClient, webhookEventGuardTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency manager", err)
		os.Exit(1)
	}

	trackingHub, err := tracking.NewHub(logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create tracking hub", err)
		os.Exit(1)
	}
	trackingBridge, err := tracking.NewBridge(trackingHub, base.Orders, redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create tracking bridge", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := routes.NewRouter(routes.RouterParams{
		Config:   cfg,
		Logger:   logg,
		Registry: registry,

		DB:    dbClient,
		Redis: redisClient,

		Sessions:     sessionManager,
		RoleVersions: roleVersions,

		AuthService:          authService,
		UsersService:         usersService,
		ProductsService:      productsService,
		CategoriesService:    categoriesService,
		CartService:          cartService,
		OrdersService:        ordersService,
		ReviewsService:       reviewsService,
		InventoryService:     inventoryService,
		NotificationsService: notificationsService,
		DashboardService:     dashboardService,

		PaymentsService: paymentsService,
		PaymentsWebhook: paymentsService,
		SquareClient:    squareClient,
		WebhookGuard:    webhookcontrollers.NewGuard(webhookIdempotency),

		TrackingHub: trackingHub,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		if err := trackingBridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "tracking bridge stopped unexpectedly", err)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "api server shutdown error", err)
		}
	}

	logg.Info(logCtx, "api server shutting down gracefully")
}
