package uow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopvite/shopvite-backend/pkg/db/models"
	"github.com/shopvite/shopvite-backend/pkg/enums"
	"github.com/shopvite/shopvite-backend/pkg/outbox"
	"github.com/shopvite/shopvite-backend/pkg/pagination"
)

// Repository contracts live here so every domain package can implement its
// own persistence while the unit of work binds them all to one transaction.

// ErrInsufficientStock is returned by inventory mutations that would drive
// a quantity below zero. Services translate it to a state-conflict error.
var ErrInsufficientStock = errors.New("insufficient stock")

type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Count(ctx context.Context) (int64, error)
}

type RoleRepository interface {
	WithTx(tx *gorm.DB) RoleRepository
	Create(ctx context.Context, role *models.Role) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Role, error)
	FindByName(ctx context.Context, name string) (*models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
	UpdatePermissions(ctx context.Context, id uuid.UUID, permissions []string, actor uuid.UUID) error
}

type CategoryRepository interface {
	WithTx(tx *gorm.DB) CategoryRepository
	Create(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductFilters narrows storefront product listings.
type ProductFilters struct {
	CategoryID *uuid.UUID
	Active     *bool
	Featured   *bool
	Search     string
}

type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	List(ctx context.Context, params pagination.Params, filters ProductFilters) ([]models.Product, int64, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ReplaceVariants(ctx context.Context, productID uuid.UUID, variants []models.ProductVariant) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
}

type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	Create(ctx context.Context, cart *models.Cart) error
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) error
	UpdateTotals(ctx context.Context, cartID uuid.UUID, totalQuantity, totalPriceCents int) error
}

// OrderFilters narrows admin order listings.
type OrderFilters struct {
	Status *enums.OrderStatus
	UserID *uuid.UUID
}

// SalesPoint is one day of the dashboard sales series.
type SalesPoint struct {
	Day          time.Time
	OrderCount   int64
	RevenueCents int64
}

type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	NextOrderNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CreateTrackingEvent(ctx context.Context, event *models.TrackingEvent) error
	ListTrackingEvents(ctx context.Context, orderID uuid.UUID) ([]models.TrackingEvent, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, int64, error)
	List(ctx context.Context, params pagination.Params, filters OrderFilters) ([]models.Order, int64, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status enums.OrderStatus) (int64, error)
	TotalRevenueCents(ctx context.Context) (int64, error)
	SalesSeries(ctx context.Context, days int) ([]SalesPoint, error)
}

type ReviewRepository interface {
	WithTx(tx *gorm.DB) ReviewRepository
	Create(ctx context.Context, review *models.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.Review, error)
	ListApprovedByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.Review, int64, error)
	AverageRating(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ReviewStatus) error
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}

type InventoryRepository interface {
	WithTx(tx *gorm.DB) InventoryRepository
	Upsert(ctx context.Context, item *models.InventoryItem) error
	FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (*models.InventoryItem, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.InventoryItem, error)
	List(ctx context.Context, params pagination.Params) ([]models.InventoryItem, int64, error)
	Adjust(ctx context.Context, id uuid.UUID, delta int) error
	Reserve(ctx context.Context, productID uuid.UUID, qty int) error
	Release(ctx context.Context, productID uuid.UUID, qty int) error
	AvailableForProduct(ctx context.Context, productID uuid.UUID) (int, error)
	LowStock(ctx context.Context) ([]models.InventoryItem, error)
	CountByWarehouse(ctx context.Context, warehouseID uuid.UUID) (int64, error)
}

type WarehouseRepository interface {
	WithTx(tx *gorm.DB) WarehouseRepository
	Create(ctx context.Context, warehouse *models.Warehouse) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
	List(ctx context.Context) ([]models.Warehouse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type NotificationRepository interface {
	WithTx(tx *gorm.DB) NotificationRepository
	Create(ctx context.Context, notification *models.Notification) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, params pagination.Params) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}

type PaymentRepository interface {
	WithTx(tx *gorm.DB) PaymentRepository
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	FindByGatewayID(ctx context.Context, gatewayPaymentID string) (*models.Payment, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

// OutboxEmitter appends domain events inside the caller's transaction.
type OutboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}
