package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopvite/shopvite-backend/internal/uow"
	"github.com/shopvite/shopvite-backend/pkg/db/models"
)

type warehouseRepository struct {
	db *gorm.DB
}

// NewWarehouseRepository builds a warehouse repository bound to the provided DB.
func NewWarehouseRepository(db *gorm.DB) uow.WarehouseRepository {
	return &warehouseRepository{db: db}
}

func (r *warehouseRepository) WithTx(tx *gorm.DB) uow.WarehouseRepository {
	if tx == nil {
		return r
	}
	return &warehouseRepository{db: tx}
}

func (r *warehouseRepository) Create(ctx context.Context, warehouse *models.Warehouse) error {
	return r.db.WithContext(ctx).Create(warehouse).Error
}

func (r *warehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	if err := r.db.WithContext(ctx).First(&warehouse, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func (r *warehouseRepository) List(ctx context.Context) ([]models.Warehouse, error) {
	var warehouses []models.Warehouse
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&warehouses).Error; err != nil {
		return nil, err
	}
	return warehouses, nil
}

func (r *warehouseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Warehouse{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
