package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/internal/uow/uowtest"
	"github.com/shopvite/shopvite-backend/pkg/config"
	"github.com/shopvite/shopvite-backend/pkg/db/models"
	"github.com/shopvite/shopvite-backend/pkg/enums"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
	"github.com/shopvite/shopvite-backend/pkg/outbox"
	"github.com/shopvite/shopvite-backend/pkg/pagination"
	"github.com/shopvite/shopvite-backend/pkg/types"
)

type ordersFixture struct {
	svc    Service
	runner *uowtest.Runner
	userID uuid.UUID
}

func newOrdersFixture(t *testing.T) *ordersFixture {
	t.Helper()
	runner := uowtest.NewRunner()
	svc, err := NewService(runner, config.CheckoutConfig{
		FlatShippingCents:    500,
		FreeShippingMinCents: 10000,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	role := runner.Store.SeedRole("customer", nil)
	user := runner.Store.SeedUser("buyer@example.com", role)
	return &ordersFixture{svc: svc, runner: runner, userID: user.ID}
}

// seedStockedProduct creates a product with inventory in a single warehouse.
func (fx *ordersFixture) seedStockedProduct(t *testing.T, name string, priceCents, available int) *models.Product {
	t.Helper()
	category := fx.runner.Store.SeedCategory(name + " category")
	product := fx.runner.Store.SeedProduct(name, priceCents, category.ID)
	warehouse := fx.runner.Store.SeedWarehouse("WH-" + name)
	fx.runner.Store.SeedInventory(product.ID, warehouse.ID, available, 0)
	return product
}

func (fx *ordersFixture) seedCartLine(t *testing.T, productID uuid.UUID, quantity, unitPriceCents int) *models.Cart {
	t.Helper()
	var cart *models.Cart
	for _, existing := range fx.runner.Store.Carts {
		if existing.UserID == fx.userID {
			cart = existing
		}
	}
	if cart == nil {
		cart = &models.Cart{ID: uuid.New(), UserID: fx.userID}
		fx.runner.Store.Carts[cart.ID] = cart
	}
	item := &models.CartItem{
		ID:             uuid.New(),
		CartID:         cart.ID,
		ProductID:      productID,
		Quantity:       quantity,
		UnitPriceCents: unitPriceCents,
	}
	fx.runner.Store.CartItems[item.ID] = item
	return cart
}

func testAddress() types.Address {
	return types.Address{
		Line1:      "1 Main St",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62701",
		Country:    "US",
	}
}

func TestCheckoutFromCart(t *testing.T) {
	fx := newOrdersFixture(t)
	product := fx.seedStockedProduct(t, "Desk Lamp", 2599, 10)
	// Unit price in the cart is stale; checkout snapshots the live price.
	cart := fx.seedCartLine(t, product.ID, 2, 1999)

	dto, err := fx.svc.Checkout(context.Background(), fx.userID, CheckoutInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   "card",
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if dto.Status != enums.OrderStatusPending {
		t.Fatalf("expected PENDING, got %s", dto.Status)
	}
	if dto.OrderNumber != 100001 {
		t.Fatalf("expected order number 100001, got %d", dto.OrderNumber)
	}
	if dto.SubtotalCents != 5198 {
		t.Fatalf("expected subtotal 5198, got %d", dto.SubtotalCents)
	}
	if dto.ShippingCents != 500 || dto.TotalCents != 5698 {
		t.Fatalf("unexpected shipping %d / total %d", dto.ShippingCents, dto.TotalCents)
	}
	if len(dto.Items) != 1 || dto.Items[0].UnitPriceCents != 2599 {
		t.Fatalf("expected one line at live price, got %+v", dto.Items)
	}
	if len(dto.TrackingEvents) != 1 || dto.TrackingEvents[0].Status != enums.OrderStatusPending {
		t.Fatalf("expected initial PENDING tracking event, got %+v", dto.TrackingEvents)
	}

	if len(fx.runner.Store.CartItems) != 0 {
		t.Fatalf("expected cart cleared, %d items remain", len(fx.runner.Store.CartItems))
	}
	if stored := fx.runner.Store.Carts[cart.ID]; stored.TotalQuantity != 0 || stored.TotalPriceCents != 0 {
		t.Fatalf("expected cart totals reset, got %d/%d", stored.TotalQuantity, stored.TotalPriceCents)
	}

	for _, item := range fx.runner.Store.Inventory {
		if item.ProductID == product.ID {
			if item.AvailableQty != 8 || item.ReservedQty != 2 {
				t.Fatalf("expected 8 available / 2 reserved, got %d/%d", item.AvailableQty, item.ReservedQty)
			}
		}
	}

	if len(fx.runner.Store.Emitted) != 1 {
		t.Fatalf("expected 1 emitted event, got %d", len(fx.runner.Store.Emitted))
	}
	event := fx.runner.Store.Emitted[0]
	if event.EventType != enums.EventOrderCreated || event.AggregateID != dto.ID {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestCheckoutFreeShippingOverThreshold(t *testing.T) {
	fx := newOrdersFixture(t)
	product := fx.seedStockedProduct(t, "Monitor", 6000, 5)

	dto, err := fx.svc.Checkout(context.Background(), fx.userID, CheckoutInput{
		Items:           []CheckoutItemInput{{ProductID: product.ID, Quantity: 2}},
		ShippingAddress: testAddress(),
		PaymentMethod:   "card",
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if dto.ShippingCents != 0 {
		t.Fatalf("expected free shipping, got %d", dto.ShippingCents)
	}
	if dto.TotalCents != 12000 {
		t.Fatalf("expected total 12000, got %d", dto.TotalCents)
	}
}

func TestCheckoutPayloadMergesDuplicateLines(t *testing.T) {
	fx := newOrdersFixture(t)
	product := fx.seedStockedProduct(t, "Mug", 900, 10)

	dto, err := fx.svc.Checkout(context.Background(), fx.userID, CheckoutInput{
		Items: []CheckoutItemInput{
			{ProductID: product.ID, Quantity: 1},
			{ProductID: product.ID, Quantity: 2},
		},
		ShippingAddress: testAddress(),
		PaymentMethod:   "cash_on_delivery",
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if len(dto.Items) != 1 || dto.Items[0].Quantity != 3 {
		t.Fatalf("expected one merged line with quantity 3, got %+v", dto.Items)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	fx := newOrdersFixture(t)

	_, err := fx.svc.Checkout(context.Background(), fx.userID, CheckoutInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   "card",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckoutInsufficientStock(t *testing.T) {
	fx := newOrdersFixture(t)
	product := fx.seedStockedProduct(t, "Chair", 4500, 2)

	_, err := fx.svc.Checkout(context.Background(), fx.userID, CheckoutInput{
		Items:           []CheckoutItemInput{{ProductID: product.ID, Quantity: 5}},
		ShippingAddress: testAddress(),
		PaymentMethod:   "card",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(fx.runner.Store.Orders) != 0 {
		t.Fatalf("expected no order written, got %d", len(fx.runner.Store.Orders))
	}
	if len(fx.runner.Store.Emitted) != 0 {
		t.Fatalf("expected no events, got %d", len(fx.runner.Store.Emitted))
	}
}

func TestCheckoutRejectsHiddenProduct(t *testing.T) {
	fx := newOrdersFixture(t)
	product := fx.seedStockedProduct(t, "Old Phone", 9900, 3)
	product.IsActive = false

	_, err := fx.svc.Checkout(context.Background(), fx.userID, CheckoutInput{
		Items:           []CheckoutItemInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: testAddress(),
		PaymentMethod:   "card",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckoutInvalidPaymentMethod(t *testing.T) {
	fx := newOrdersFixture(t)

	_, err := fx.svc.Checkout(context.Background(), fx.userID, CheckoutInput{
		ShippingAddress: testAddress(),
		PaymentMethod:   "barter",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckoutIncompleteAddress(t *testing.T) {
	fx := newOrdersFixture(t)

	_, err := fx.svc.Checkout(context.Background(), fx.userID, CheckoutInput{
		ShippingAddress: types.Address{Line1: "1 Main St"},
		PaymentMethod:   "card",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func (fx *ordersFixture) placeOrder(t *testing.T, productID uuid.UUID, quantity int) *OrderDTO {
	t.Helper()
	dto, err := fx.svc.Checkout(context.Background(), fx.userID, CheckoutInput{
		Items:           []CheckoutItemInput{{ProductID: productID, Quantity: quantity}},
		ShippingAddress: testAddress(),
		PaymentMethod:   "card",
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	return dto
}

func TestUpdateStatusAppendsTrackingAndEmits(t *testing.T) {
	fx := newOrdersFixture(t)
	product := fx.seedStockedProduct(t, "Keyboard", 7500, 10)
	order := fx.placeOrder(t, product.ID, 1)
	fx.runner.Store.Emitted = nil

	actor := &outbox.ActorRef{UserID: uuid.New(), Role: "admin"}
	dto, err := fx.svc.UpdateStatus(context.Background(), order.ID, UpdateStatusInput{Status: "CONFIRMED"}, actor)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if dto.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", dto.Status)
	}
	if len(dto.TrackingEvents) != 2 {
		t.Fatalf("expected 2 tracking events, got %d", len(dto.TrackingEvents))
	}
	last := dto.TrackingEvents[len(dto.TrackingEvents)-1]
	if last.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected CONFIRMED tracking event, got %s", last.Status)
	}

	if len(fx.runner.Store.Emitted) != 1 {
		t.Fatalf("expected 1 emitted event, got %d", len(fx.runner.Store.Emitted))
	}
	event := fx.runner.Store.Emitted[0]
	if event.EventType != enums.EventOrderStatusChanged {
		t.Fatalf("unexpected event type %s", event.EventType)
	}
	if event.Actor == nil || event.Actor.Role != "admin" {
		t.Fatalf("expected admin actor, got %+v", event.Actor)
	}
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	fx := newOrdersFixture(t)
	product := fx.seedStockedProduct(t, "Router", 3000, 5)
	order := fx.placeOrder(t, product.ID, 1)

	_, err := fx.svc.UpdateStatus(context.Background(), order.ID, UpdateStatusInput{Status: "DELIVERED"}, nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestUpdateStatusRejectsTerminalOrder(t *testing.T) {
	fx := newOrdersFixture(t)
	product := fx.seedStockedProduct(t, "Cable", 1200, 5)
	order := fx.placeOrder(t, product.ID, 1)

	for _, status := range []string{"CANCELLED", "REFUNDED"} {
		if _, err := fx.svc.UpdateStatus(context.Background(), order.ID, UpdateStatusInput{Status: status}, nil); err != nil {
			t.Fatalf("UpdateStatus(%s): %v", status, err)
		}
	}

	_, err := fx.svc.UpdateStatus(context.Background(), order.ID, UpdateStatusInput{Status: "PENDING"}, nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict for terminal order, got %v", err)
	}
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	fx := newOrdersFixture(t)

	_, err := fx.svc.UpdateStatus(context.Background(), uuid.New(), UpdateStatusInput{Status: "CONFIRMED"}, nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateStatusCancelReleasesStock(t *testing.T) {
	fx := newOrdersFixture(t)
	product := fx.seedStockedProduct(t, "Speaker", 8800, 4)
	order := fx.placeOrder(t, product.ID, 3)

	dto, err := fx.svc.UpdateStatus(context.Background(), order.ID, UpdateStatusInput{Status: "CANCELLED"}, nil)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if dto.CancelledAt == nil {
		t.Fatal("expected cancelled_at set")
	}

	for _, item := range fx.runner.Store.Inventory {
		if item.ProductID == product.ID {
			if item.AvailableQty != 4 || item.ReservedQty != 0 {
				t.Fatalf("expected stock released to 4/0, got %d/%d", item.AvailableQty, item.ReservedQty)
			}
		}
	}
}

func TestGetOrderHidesForeignOrders(t *testing.T) {
	fx := newOrdersFixture(t)
	product := fx.seedStockedProduct(t, "Tablet", 19900, 5)
	order := fx.placeOrder(t, product.ID, 1)

	stranger := uuid.New()
	if _, err := fx.svc.GetOrder(context.Background(), order.ID, stranger, false); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for stranger, got %v", err)
	}

	dto, err := fx.svc.GetOrder(context.Background(), order.ID, stranger, true)
	if err != nil {
		t.Fatalf("GetOrder elevated: %v", err)
	}
	if dto.ID != order.ID {
		t.Fatalf("unexpected order %s", dto.ID)
	}

	dto, err = fx.svc.GetOrder(context.Background(), order.ID, fx.userID, false)
	if err != nil {
		t.Fatalf("GetOrder owner: %v", err)
	}
	if dto.ID != order.ID {
		t.Fatalf("unexpected order %s", dto.ID)
	}
}

func TestListUserOrdersPaginates(t *testing.T) {
	fx := newOrdersFixture(t)
	product := fx.seedStockedProduct(t, "Pen", 300, 100)
	for i := 0; i < 3; i++ {
		fx.placeOrder(t, product.ID, 1)
	}

	result, err := fx.svc.ListUserOrders(context.Background(), fx.userID, pagination.Params{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("ListUserOrders: %v", err)
	}
	if len(result.Orders) != 2 {
		t.Fatalf("expected 2 orders on page, got %d", len(result.Orders))
	}
	if result.Pagination.Total != 3 || result.Pagination.Pages != 2 {
		t.Fatalf("unexpected pagination %+v", result.Pagination)
	}
}

func TestListAllOrdersFiltersByStatus(t *testing.T) {
	fx := newOrdersFixture(t)
	product := fx.seedStockedProduct(t, "Notebook", 1500, 100)
	first := fx.placeOrder(t, product.ID, 1)
	fx.placeOrder(t, product.ID, 1)

	if _, err := fx.svc.UpdateStatus(context.Background(), first.ID, UpdateStatusInput{Status: "CONFIRMED"}, nil); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	status := enums.OrderStatusConfirmed
	result, err := fx.svc.ListAllOrders(context.Background(), ListOrdersInput{Status: &status})
	if err != nil {
		t.Fatalf("ListAllOrders: %v", err)
	}
	if len(result.Orders) != 1 || result.Orders[0].ID != first.ID {
		t.Fatalf("expected one confirmed order, got %+v", result.Orders)
	}
}
