package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	invsvc "github.com/shopvite/shopvite-backend/internal/inventory"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
	"github.com/shopvite/shopvite-backend/pkg/pagination"
)

type stubInventoryService struct {
	stock      *invsvc.StockItemDTO
	productRes *invsvc.ProductStockResult
	err        error
	lastAdjust invsvc.AdjustStockInput
}

func (s *stubInventoryService) CreateWarehouse(ctx context.Context, input invsvc.CreateWarehouseInput) (*invsvc.WarehouseDTO, error) {
	return nil, s.err
}

func (s *stubInventoryService) ListWarehouses(ctx context.Context) ([]invsvc.WarehouseDTO, error) {
	return nil, s.err
}

func (s *stubInventoryService) DeleteWarehouse(ctx context.Context, id uuid.UUID) error {
	return s.err
}

func (s *stubInventoryService) UpsertStock(ctx context.Context, input invsvc.UpsertStockInput) (*invsvc.StockItemDTO, error) {
	return s.stock, s.err
}

func (s *stubInventoryService) AdjustStock(ctx context.Context, input invsvc.AdjustStockInput) (*invsvc.StockItemDTO, error) {
	s.lastAdjust = input
	return s.stock, s.err
}

func (s *stubInventoryService) ReserveStock(ctx context.Context, input invsvc.ReservationInput) error {
	return s.err
}

func (s *stubInventoryService) ReleaseStock(ctx context.Context, input invsvc.ReservationInput) error {
	return s.err
}

func (s *stubInventoryService) ListStock(ctx context.Context, params pagination.Params) (*invsvc.StockListResult, error) {
	return nil, s.err
}

func (s *stubInventoryService) ProductStock(ctx context.Context, productID uuid.UUID) (*invsvc.ProductStockResult, error) {
	return s.productRes, s.err
}

func (s *stubInventoryService) LowStock(ctx context.Context) ([]invsvc.StockItemDTO, error) {
	return nil, s.err
}

func TestAdjustStockSuccess(t *testing.T) {
	productID := uuid.New()
	warehouseID := uuid.New()
	svc := &stubInventoryService{stock: &invsvc.StockItemDTO{ProductID: productID, WarehouseID: warehouseID, AvailableQty: 7}}
	handler := AdjustStock(svc, nil)

	body, _ := json.Marshal(map[string]any{
		"product_id":   productID,
		"warehouse_id": warehouseID,
		"delta":        -3,
	})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/inventory/adjust", bytes.NewReader(body)))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastAdjust.ProductID != productID || svc.lastAdjust.Delta != -3 {
		t.Fatalf("unexpected adjust input %+v", svc.lastAdjust)
	}
}

func TestAdjustStockDrivenNegative(t *testing.T) {
	svc := &stubInventoryService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "adjustment would drive stock negative")}
	handler := AdjustStock(svc, nil)

	body, _ := json.Marshal(map[string]any{
		"product_id":   uuid.New(),
		"warehouse_id": uuid.New(),
		"delta":        -100,
	})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/inventory/adjust", bytes.NewReader(body)))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestReserveStockInsufficient(t *testing.T) {
	svc := &stubInventoryService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock to reserve")}
	handler := ReserveStock(svc, nil)

	body, _ := json.Marshal(map[string]any{"product_id": uuid.New(), "quantity": 5})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/inventory/reserve", bytes.NewReader(body)))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestReleaseStockSuccess(t *testing.T) {
	handler := ReleaseStock(&stubInventoryService{}, nil)

	body, _ := json.Marshal(map[string]any{"product_id": uuid.New(), "quantity": 5})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/inventory/release", bytes.NewReader(body)))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestProductStockMalformedID(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/inventory/product/{productId}", ProductStock(&stubInventoryService{}, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/inventory/product/not-a-uuid", nil))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
