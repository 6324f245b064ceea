package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopvite/shopvite-backend/internal/uow"
	"github.com/shopvite/shopvite-backend/pkg/db"
	"github.com/shopvite/shopvite-backend/pkg/db/models"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
	"github.com/shopvite/shopvite-backend/pkg/pagination"
)

type uowRunner interface {
	Run(ctx context.Context, fn func(u *uow.UnitOfWork) error) error
	Repos() *uow.UnitOfWork
}

// Service exposes warehouse and stock management.
type Service interface {
	CreateWarehouse(ctx context.Context, input CreateWarehouseInput) (*WarehouseDTO, error)
	ListWarehouses(ctx context.Context) ([]WarehouseDTO, error)
	DeleteWarehouse(ctx context.Context, id uuid.UUID) error
	UpsertStock(ctx context.Context, input UpsertStockInput) (*StockItemDTO, error)
	AdjustStock(ctx context.Context, input AdjustStockInput) (*StockItemDTO, error)
	ReserveStock(ctx context.Context, input ReservationInput) error
	ReleaseStock(ctx context.Context, input ReservationInput) error
	ListStock(ctx context.Context, params pagination.Params) (*StockListResult, error)
	ProductStock(ctx context.Context, productID uuid.UUID) (*ProductStockResult, error)
	LowStock(ctx context.Context) ([]StockItemDTO, error)
}

type service struct {
	runner uowRunner
}

// NewService wires the inventory service.
func NewService(runner uowRunner) (Service, error) {
	if runner == nil {
		return nil, errors.New("inventory: runner is required")
	}
	return &service{runner: runner}, nil
}

func (s *service) CreateWarehouse(ctx context.Context, input CreateWarehouseInput) (*WarehouseDTO, error) {
	warehouse := &models.Warehouse{
		ID:       uuid.New(),
		Name:     input.Name,
		Code:     input.Code,
		Location: input.Location,
	}
	err := s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		if err := u.Warehouses.Create(ctx, warehouse); err != nil {
			if db.IsUniqueViolation(err, "ux_warehouses_code") {
				return pkgerrors.New(pkgerrors.CodeConflict, "warehouse code already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create warehouse")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return warehouseFromModel(warehouse), nil
}

func (s *service) ListWarehouses(ctx context.Context) ([]WarehouseDTO, error) {
	warehouses, err := s.runner.Repos().Warehouses.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list warehouses")
	}
	out := make([]WarehouseDTO, 0, len(warehouses))
	for i := range warehouses {
		out = append(out, *warehouseFromModel(&warehouses[i]))
	}
	return out, nil
}

// DeleteWarehouse refuses to remove a warehouse that still holds stock rows.
// The guard and the delete run in one transaction.
func (s *service) DeleteWarehouse(ctx context.Context, id uuid.UUID) error {
	return s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		if _, err := u.Warehouses.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Warehouse not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load warehouse")
		}
		count, err := u.Inventory.CountByWarehouse(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count stock rows")
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "warehouse still holds inventory")
		}
		if err := u.Warehouses.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete warehouse")
		}
		return nil
	})
}

func (s *service) UpsertStock(ctx context.Context, input UpsertStockInput) (*StockItemDTO, error) {
	var stored *models.InventoryItem
	err := s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		if _, err := u.Products.FindByID(ctx, input.ProductID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		if _, err := u.Warehouses.FindByID(ctx, input.WarehouseID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Warehouse not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load warehouse")
		}
		item := &models.InventoryItem{
			ProductID:    input.ProductID,
			WarehouseID:  input.WarehouseID,
			AvailableQty: input.AvailableQty,
			ReorderLevel: input.ReorderLevel,
		}
		if err := u.Inventory.Upsert(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert stock")
		}
		reloaded, err := u.Inventory.FindByProductAndWarehouse(ctx, input.ProductID, input.WarehouseID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload stock")
		}
		stored = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := stockFromModel(stored)
	return &dto, nil
}

func (s *service) AdjustStock(ctx context.Context, input AdjustStockInput) (*StockItemDTO, error) {
	var adjusted *models.InventoryItem
	err := s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		item, err := u.Inventory.FindByProductAndWarehouse(ctx, input.ProductID, input.WarehouseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Stock record not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load stock")
		}
		if err := u.Inventory.Adjust(ctx, item.ID, input.Delta); err != nil {
			if errors.Is(err, uow.ErrInsufficientStock) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "adjustment would drive stock negative")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adjust stock")
		}
		reloaded, err := u.Inventory.FindByProductAndWarehouse(ctx, input.ProductID, input.WarehouseID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload stock")
		}
		adjusted = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := stockFromModel(adjusted)
	return &dto, nil
}

func (s *service) ReserveStock(ctx context.Context, input ReservationInput) error {
	return s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		if err := u.Inventory.Reserve(ctx, input.ProductID, input.Quantity); err != nil {
			if errors.Is(err, uow.ErrInsufficientStock) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock to reserve")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserve stock")
		}
		return nil
	})
}

func (s *service) ReleaseStock(ctx context.Context, input ReservationInput) error {
	return s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		if err := u.Inventory.Release(ctx, input.ProductID, input.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "release stock")
		}
		return nil
	})
}

func (s *service) ListStock(ctx context.Context, params pagination.Params) (*StockListResult, error) {
	params = params.Normalize()
	items, total, err := s.runner.Repos().Inventory.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list stock")
	}
	result := &StockListResult{
		Items:      make([]StockItemDTO, 0, len(items)),
		Pagination: pagination.BuildResult(params, total),
	}
	for i := range items {
		result.Items = append(result.Items, stockFromModel(&items[i]))
	}
	return result, nil
}

func (s *service) ProductStock(ctx context.Context, productID uuid.UUID) (*ProductStockResult, error) {
	repos := s.runner.Repos()
	if _, err := repos.Products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	items, err := repos.Inventory.ListByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list product stock")
	}
	result := &ProductStockResult{
		ProductID: productID,
		Items:     make([]StockItemDTO, 0, len(items)),
	}
	for i := range items {
		result.TotalAvailable += items[i].AvailableQty
		result.Items = append(result.Items, stockFromModel(&items[i]))
	}
	return result, nil
}

func (s *service) LowStock(ctx context.Context) ([]StockItemDTO, error) {
	items, err := s.runner.Repos().Inventory.LowStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list low stock")
	}
	out := make([]StockItemDTO, 0, len(items))
	for i := range items {
		out = append(out, stockFromModel(&items[i]))
	}
	return out, nil
}
