package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopvite/shopvite-backend/internal/uow"
	"github.com/shopvite/shopvite-backend/pkg/db/models"
	"github.com/shopvite/shopvite-backend/pkg/enums"
	"github.com/shopvite/shopvite-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) uow.OrderRepository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) uow.OrderRepository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// NextOrderNumber reserves the next human-facing order number from the
// database sequence. Numbers are monotonic but may have gaps when a
// checkout transaction rolls back.
func (r *repository) NextOrderNumber(ctx context.Context) (int64, error) {
	var number int64
	err := r.db.WithContext(ctx).
		Raw("SELECT nextval('order_number_seq')").
		Scan(&number).Error
	if err != nil {
		return 0, err
	}
	return number, nil
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("TrackingEvents", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CreateTrackingEvent(ctx context.Context, event *models.TrackingEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListTrackingEvents(ctx context.Context, orderID uuid.UUID) ([]models.TrackingEvent, error) {
	var events []models.TrackingEvent
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, int64, error) {
	return r.List(ctx, params, uow.OrderFilters{UserID: &userID})
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters uow.OrderFilters) ([]models.Order, int64, error) {
	params = params.Normalize()

	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := query.
		Preload("Items").
		Order("created_at DESC, id DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&count).Error
	return count, err
}

func (r *repository) CountByStatus(ctx context.Context, status enums.OrderStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

// TotalRevenueCents sums order totals, excluding orders that never produced
// revenue (cancelled) or gave it back (refunded).
func (r *repository) TotalRevenueCents(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status NOT IN ?", []enums.OrderStatus{enums.OrderStatusCancelled, enums.OrderStatusRefunded}).
		Select("COALESCE(SUM(total_cents), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repository) SalesSeries(ctx context.Context, days int) ([]uow.SalesPoint, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().UTC().AddDate(0, 0, -days).Truncate(24 * time.Hour)

	var points []uow.SalesPoint
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("date_trunc('day', created_at) AS day, COUNT(*) AS order_count, COALESCE(SUM(total_cents), 0) AS revenue_cents").
		Where("created_at >= ?", since).
		Where("status NOT IN ?", []enums.OrderStatus{enums.OrderStatusCancelled, enums.OrderStatusRefunded}).
		Group("date_trunc('day', created_at)").
		Order("day ASC").
		Scan(&points).Error
	if err != nil {
		return nil, err
	}
	return points, nil
}
