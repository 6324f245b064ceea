package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/internal/uow/uowtest"
	"github.com/shopvite/shopvite-backend/pkg/db/models"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
)

type cartFixture struct {
	svc    Service
	runner *uowtest.Runner
	userID uuid.UUID
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()
	runner := uowtest.NewRunner()
	svc, err := NewService(runner)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	role := runner.Store.SeedRole("customer", nil)
	user := runner.Store.SeedUser("jo@example.com", role)
	return &cartFixture{svc: svc, runner: runner, userID: user.ID}
}

func (fx *cartFixture) seedProduct(t *testing.T, name string, priceCents int) *models.Product {
	t.Helper()
	category := fx.runner.Store.SeedCategory(name + " category")
	return fx.runner.Store.SeedProduct(name, priceCents, category.ID)
}

func TestGetCartAbsentReturnsNil(t *testing.T) {
	fx := newCartFixture(t)

	dto, err := fx.svc.GetCart(context.Background(), fx.userID)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if dto != nil {
		t.Fatalf("expected nil cart, got %+v", dto)
	}
}

func TestAddToCartCreatesAndMerges(t *testing.T) {
	fx := newCartFixture(t)
	product := fx.seedProduct(t, "Headphones", 12999)

	dto, err := fx.svc.AddToCart(context.Background(), fx.userID, AddToCartInput{ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if len(dto.Items) != 1 || dto.TotalQuantity != 2 || dto.TotalPriceCents != 2*12999 {
		t.Fatalf("unexpected cart after first add: %+v", dto)
	}

	// A second add of the same product merges into the existing line.
	dto, err = fx.svc.AddToCart(context.Background(), fx.userID, AddToCartInput{ProductID: product.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("AddToCart merge: %v", err)
	}
	if len(dto.Items) != 1 {
		t.Fatalf("expected merged line, got %d lines", len(dto.Items))
	}
	if dto.Items[0].Quantity != 5 || dto.TotalQuantity != 5 || dto.TotalPriceCents != 5*12999 {
		t.Fatalf("unexpected merged totals: %+v", dto)
	}
}

func TestAddToCartUnknownOrInactiveProduct(t *testing.T) {
	fx := newCartFixture(t)
	inactive := fx.seedProduct(t, "Ghost", 999)
	inactive.IsActive = false

	_, err := fx.svc.AddToCart(context.Background(), fx.userID, AddToCartInput{ProductID: uuid.New(), Quantity: 1})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for unknown product, got %v", err)
	}
	_, err = fx.svc.AddToCart(context.Background(), fx.userID, AddToCartInput{ProductID: inactive.ID, Quantity: 1})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for inactive product, got %v", err)
	}
}

func TestUpdateCartItemRecomputesTotals(t *testing.T) {
	fx := newCartFixture(t)
	product := fx.seedProduct(t, "Headphones", 1000)

	dto, err := fx.svc.AddToCart(context.Background(), fx.userID, AddToCartInput{ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("AddToCart: %v", err)
	}

	dto, err = fx.svc.UpdateCartItem(context.Background(), fx.userID, dto.Items[0].ID, 7)
	if err != nil {
		t.Fatalf("UpdateCartItem: %v", err)
	}
	if dto.TotalQuantity != 7 || dto.TotalPriceCents != 7000 {
		t.Fatalf("expected recomputed totals, got %+v", dto)
	}

	stored := fx.runner.Store.Carts[dto.ID]
	if stored.TotalQuantity != 7 || stored.TotalPriceCents != 7000 {
		t.Fatalf("expected persisted totals, got %+v", stored)
	}
}

func TestUpdateCartItemWithoutCart(t *testing.T) {
	fx := newCartFixture(t)

	_, err := fx.svc.UpdateCartItem(context.Background(), fx.userID, uuid.New(), 1)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestRemoveFromCartRejectsForeignItem(t *testing.T) {
	fx := newCartFixture(t)
	product := fx.seedProduct(t, "Headphones", 1000)

	other := fx.runner.Store.SeedUser("other@example.com", nil)
	if _, err := fx.svc.AddToCart(context.Background(), other.ID, AddToCartInput{ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("AddToCart other: %v", err)
	}
	var foreignItem uuid.UUID
	for id := range fx.runner.Store.CartItems {
		foreignItem = id
	}

	if _, err := fx.svc.AddToCart(context.Background(), fx.userID, AddToCartInput{ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}

	_, err := fx.svc.RemoveFromCart(context.Background(), fx.userID, foreignItem)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for another user's line, got %v", err)
	}
}

func TestGetCartPrunesVanishedProducts(t *testing.T) {
	fx := newCartFixture(t)
	kept := fx.seedProduct(t, "Headphones", 1000)
	gone := fx.seedProduct(t, "Speaker", 2000)

	if _, err := fx.svc.AddToCart(context.Background(), fx.userID, AddToCartInput{ProductID: kept.ID, Quantity: 1}); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if _, err := fx.svc.AddToCart(context.Background(), fx.userID, AddToCartInput{ProductID: gone.ID, Quantity: 2}); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	delete(fx.runner.Store.Products, gone.ID)

	dto, err := fx.svc.GetCart(context.Background(), fx.userID)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(dto.Items) != 1 || dto.Items[0].ProductID != kept.ID {
		t.Fatalf("expected vanished line pruned, got %+v", dto.Items)
	}
	if dto.TotalQuantity != 1 || dto.TotalPriceCents != 1000 {
		t.Fatalf("expected corrected totals, got %+v", dto)
	}
	stored := fx.runner.Store.Carts[dto.ID]
	if stored.TotalQuantity != 1 || stored.TotalPriceCents != 1000 {
		t.Fatalf("expected corrected totals persisted, got %+v", stored)
	}
}

func TestClearCart(t *testing.T) {
	fx := newCartFixture(t)
	product := fx.seedProduct(t, "Headphones", 1000)

	if _, err := fx.svc.AddToCart(context.Background(), fx.userID, AddToCartInput{ProductID: product.ID, Quantity: 3}); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if err := fx.svc.ClearCart(context.Background(), fx.userID); err != nil {
		t.Fatalf("ClearCart: %v", err)
	}

	dto, err := fx.svc.GetCart(context.Background(), fx.userID)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(dto.Items) != 0 || dto.TotalQuantity != 0 || dto.TotalPriceCents != 0 {
		t.Fatalf("expected empty cart, got %+v", dto)
	}
}

func TestClearCartWithoutCart(t *testing.T) {
	fx := newCartFixture(t)

	err := fx.svc.ClearCart(context.Background(), fx.userID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
