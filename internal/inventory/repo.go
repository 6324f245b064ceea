package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopvite/shopvite-backend/internal/uow"
	"github.com/shopvite/shopvite-backend/pkg/db/models"
	"github.com/shopvite/shopvite-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) uow.InventoryRepository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) uow.InventoryRepository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert writes the stock row for a product/warehouse pair, updating counts
// in place when the pair already exists.
func (r *repository) Upsert(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "warehouse_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"available_qty", "reorder_level", "updated_at"}),
		}).
		Create(item).Error
}

func (r *repository) FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params) ([]models.InventoryItem, int64, error) {
	params = params.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.InventoryItem{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Adjust moves available stock by delta. The guarded UPDATE keeps the count
// from going negative under concurrent writes.
func (r *repository) Adjust(ctx context.Context, id uuid.UUID, delta int) error {
	result := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ? AND available_qty + ? >= 0", id, delta).
		Update("available_qty", gorm.Expr("available_qty + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).Model(&models.InventoryItem{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return gorm.ErrRecordNotFound
		}
		return uow.ErrInsufficientStock
	}
	return nil
}

// Reserve moves qty from available to reserved, draining warehouses one at
// a time. Row locks keep concurrent checkouts from double-reserving.
func (r *repository) Reserve(ctx context.Context, productID uuid.UUID, qty int) error {
	remaining := qty
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND available_qty > 0", productID).
		Order("available_qty DESC").
		Find(&items).Error
	if err != nil {
		return err
	}
	for i := range items {
		if remaining == 0 {
			break
		}
		take := remaining
		if take > items[i].AvailableQty {
			take = items[i].AvailableQty
		}
		err := r.db.WithContext(ctx).
			Model(&models.InventoryItem{}).
			Where("id = ?", items[i].ID).
			Updates(map[string]any{
				"available_qty": gorm.Expr("available_qty - ?", take),
				"reserved_qty":  gorm.Expr("reserved_qty + ?", take),
			}).Error
		if err != nil {
			return err
		}
		remaining -= take
	}
	if remaining > 0 {
		return uow.ErrInsufficientStock
	}
	return nil
}

// Release hands reserved stock back to available. Releasing more than is
// reserved is clamped, not an error.
func (r *repository) Release(ctx context.Context, productID uuid.UUID, qty int) error {
	remaining := qty
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND reserved_qty > 0", productID).
		Find(&items).Error
	if err != nil {
		return err
	}
	for i := range items {
		if remaining == 0 {
			break
		}
		give := remaining
		if give > items[i].ReservedQty {
			give = items[i].ReservedQty
		}
		err := r.db.WithContext(ctx).
			Model(&models.InventoryItem{}).
			Where("id = ?", items[i].ID).
			Updates(map[string]any{
				"available_qty": gorm.Expr("available_qty + ?", give),
				"reserved_qty":  gorm.Expr("reserved_qty - ?", give),
			}).Error
		if err != nil {
			return err
		}
		remaining -= give
	}
	return nil
}

func (r *repository) AvailableForProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(available_qty), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repository) LowStock(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("available_qty <= reorder_level").
		Order("available_qty ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) CountByWarehouse(ctx context.Context, warehouseID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("warehouse_id = ?", warehouseID).
		Count(&count).Error
	return count, err
}
