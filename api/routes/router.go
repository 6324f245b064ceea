package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopvite/shopvite-backend/api/controllers"
	webhookcontrollers "github.com/shopvite/shopvite-backend/api/controllers/webhooks"
	"github.com/shopvite/shopvite-backend/api/middleware"
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
	"github.com/shopvite/shopvite-backend/internal/tracking"
	"github.com/shopvite/shopvite-backend/internal/users"
	"github.com/shopvite/shopvite-backend/pkg/config"
	"github.com/shopvite/shopvite-backend/pkg/db"
	"github.com/shopvite/shopvite-backend/pkg/logger"
	"github.com/shopvite/shopvite-backend/pkg/metrics"
	"github.com/shopvite/shopvite-backend/pkg/redis"
	"github.com/shopvite/shopvite-backend/pkg/square"
)

// RouterParams collects everything the HTTP surface depends on. Nil optional
// fields degrade the matching routes rather than failing router construction.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	Registry *prometheus.Registry

	DB    db.Pinger
	Redis *redis.Client

	Sessions     middleware.SessionChecker
	RoleVersions middleware.RoleVersionSource

	AuthService          auth.Service
	UsersService         users.Service
	ProductsService      products.Service
	CategoriesService    categories.Service
	CartService          cart.Service
	OrdersService        orders.Service
	ReviewsService       reviews.Service
	InventoryService     inventory.Service
	NotificationsService notifications.Service
	DashboardService     dashboard.Service

	PaymentsService payments.Service
	PaymentsWebhook payments.WebhookService
	SquareClient    *square.Client
	WebhookGuard    *webhookcontrollers.Guard

	TrackingHub *tracking.Hub
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	var httpMetrics *metrics.HTTPMetrics
	if p.Registry != nil {
		httpMetrics = metrics.NewHTTPMetrics(p.Registry)
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(p.DB, p.Redis, logg))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/webhooks", func(r chi.Router) {
		r.Post("/payments", webhookcontrollers.PaymentsWebhook(p.PaymentsWebhook, p.SquareClient, p.WebhookGuard, logg))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegister(p.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))
		r.Route("/password-reset", func(r chi.Router) {
			r.Post("/request", controllers.PasswordResetRequest(p.AuthService, logg))
			r.Post("/confirm", controllers.PasswordResetConfirm(p.AuthService, logg))
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, p.RoleVersions, logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Post("/auth/logout", controllers.AuthLogout(p.AuthService, logg))
		r.With(middleware.RequirePermission("users:write", logg)).
			Post("/auth/permissions", controllers.ChangePermissions(p.AuthService, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/profile", controllers.UserProfile(p.UsersService, logg))
			r.Put("/profile", controllers.UpdateUserProfile(p.UsersService, logg))
			r.Route("/favorites", func(r chi.Router) {
				r.Get("/", controllers.ListFavorites(p.UsersService, logg))
				r.Post("/", controllers.AddFavorite(p.UsersService, logg))
				r.Delete("/{productId}", controllers.RemoveFavorite(p.UsersService, logg))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(p.ProductsService, logg))
			r.Get("/slug/{slug}", controllers.GetProductBySlug(p.ProductsService, logg))
			r.Get("/{productId}", controllers.GetProduct(p.ProductsService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission("products:write", logg))
				r.Post("/", controllers.CreateProduct(p.ProductsService, logg))
				r.Put("/{productId}", controllers.UpdateProduct(p.ProductsService, logg))
				r.Delete("/{productId}", controllers.DeleteProduct(p.ProductsService, logg))
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.ListCategories(p.CategoriesService, logg))
			r.Get("/{categoryId}", controllers.GetCategory(p.CategoriesService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission("categories:write", logg))
				r.Post("/", controllers.CreateCategory(p.CategoriesService, logg))
				r.Put("/{categoryId}", controllers.UpdateCategory(p.CategoriesService, logg))
				r.Delete("/{categoryId}", controllers.DeleteCategory(p.CategoriesService, logg))
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(p.CartService, logg))
			r.Post("/add", controllers.AddToCart(p.CartService, logg))
			r.Put("/items/{itemId}", controllers.UpdateCartItem(p.CartService, logg))
			r.Delete("/items/{itemId}", controllers.RemoveCartItem(p.CartService, logg))
			r.Delete("/", controllers.ClearCart(p.CartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(p.OrdersService, logg))
			r.Post("/", controllers.CreateOrder(p.OrdersService, logg))
			r.Get("/{orderId}", controllers.GetOrder(p.OrdersService, logg))
			r.Post("/{orderId}/pay", controllers.PayOrder(p.PaymentsService, logg))
			r.Get("/{orderId}/payment", controllers.GetOrderPayment(p.PaymentsService, logg))
			r.With(middleware.RequirePermission("orders:write", logg)).
				Put("/{orderId}/status", controllers.UpdateOrderStatus(p.OrdersService, logg))
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/product/{productId}", controllers.ListProductReviews(p.ReviewsService, logg))
			r.Post("/", controllers.CreateReview(p.ReviewsService, logg))
			r.With(middleware.RequirePermission("reviews:write", logg)).
				Put("/{reviewId}/status", controllers.ModerateReview(p.ReviewsService, logg))
		})

		r.Route("/warehouses", func(r chi.Router) {
			r.With(middleware.RequirePermission("warehouses:read", logg)).
				Get("/", controllers.ListWarehouses(p.InventoryService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission("warehouses:write", logg))
				r.Post("/", controllers.CreateWarehouse(p.InventoryService, logg))
				r.Delete("/{warehouseId}", controllers.DeleteWarehouse(p.InventoryService, logg))
			})
		})

		r.Route("/inventory", func(r chi.Router) {
			r.With(middleware.RequirePermission("inventory:read", logg)).
				Get("/", controllers.ListStock(p.InventoryService, logg))
			r.With(middleware.RequirePermission("inventory:write", logg)).
				Put("/", controllers.UpsertStock(p.InventoryService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission("inventory:write", logg))
				r.Post("/adjust", controllers.AdjustStock(p.InventoryService, logg))
				r.Post("/reserve", controllers.ReserveStock(p.InventoryService, logg))
				r.Post("/release", controllers.ReleaseStock(p.InventoryService, logg))
			})
			r.With(middleware.RequirePermission("inventory:read", logg)).
				Get("/product/{productId}", controllers.ProductStock(p.InventoryService, logg))
			r.With(middleware.RequirePermission("inventory:read", logg)).
				Get("/low-stock", controllers.LowStock(p.InventoryService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.NotificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.NotificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.NotificationsService, logg))
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(middleware.RequirePermission("dashboard:read", logg))
			r.Get("/stats", controllers.DashboardStats(p.DashboardService, logg))
			r.Get("/analytics/sales", controllers.DashboardSales(p.DashboardService, logg))
		})

		r.Get("/ws/orders", controllers.OrdersWS(p.TrackingHub, p.OrdersService, cfg.Tracking, logg))
	})

	return r
}
