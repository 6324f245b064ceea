package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/pkg/db/models"
	"github.com/shopvite/shopvite-backend/pkg/pagination"
)

// CreateWarehouseInput registers a stock location.
type CreateWarehouseInput struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Code     string  `json:"code" validate:"required,max=50"`
	Location *string `json:"location" validate:"omitempty,max=500"`
}

// UpsertStockInput sets the stock row for a product/warehouse pair.
type UpsertStockInput struct {
	ProductID    uuid.UUID `json:"product_id" validate:"required"`
	WarehouseID  uuid.UUID `json:"warehouse_id" validate:"required"`
	AvailableQty int       `json:"available_qty" validate:"min=0"`
	ReorderLevel int       `json:"reorder_level" validate:"min=0"`
}

// AdjustStockInput moves available stock by a signed delta.
type AdjustStockInput struct {
	ProductID   uuid.UUID `json:"product_id" validate:"required"`
	WarehouseID uuid.UUID `json:"warehouse_id" validate:"required"`
	Delta       int       `json:"delta" validate:"required"`
}

// ReservationInput reserves or releases stock across warehouses.
type ReservationInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// WarehouseDTO is the API shape of a warehouse.
type WarehouseDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Location  *string   `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StockItemDTO is the API shape of one inventory row.
type StockItemDTO struct {
	ID           uuid.UUID `json:"id"`
	ProductID    uuid.UUID `json:"product_id"`
	WarehouseID  uuid.UUID `json:"warehouse_id"`
	AvailableQty int       `json:"available_qty"`
	ReservedQty  int       `json:"reserved_qty"`
	ReorderLevel int       `json:"reorder_level"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StockListResult is a paginated page of inventory rows.
type StockListResult struct {
	Items      []StockItemDTO    `json:"items"`
	Pagination pagination.Result `json:"pagination"`
}

// ProductStockResult is the per-warehouse breakdown for one product.
type ProductStockResult struct {
	ProductID      uuid.UUID      `json:"product_id"`
	TotalAvailable int            `json:"total_available"`
	Items          []StockItemDTO `json:"items"`
}

func warehouseFromModel(warehouse *models.Warehouse) *WarehouseDTO {
	return &WarehouseDTO{
		ID:        warehouse.ID,
		Name:      warehouse.Name,
		Code:      warehouse.Code,
		Location:  warehouse.Location,
		CreatedAt: warehouse.CreatedAt,
	}
}

func stockFromModel(item *models.InventoryItem) StockItemDTO {
	return StockItemDTO{
		ID:           item.ID,
		ProductID:    item.ProductID,
		WarehouseID:  item.WarehouseID,
		AvailableQty: item.AvailableQty,
		ReservedQty:  item.ReservedQty,
		ReorderLevel: item.ReorderLevel,
		UpdatedAt:    item.UpdatedAt,
	}
}
