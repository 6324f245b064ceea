package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopvite/shopvite-backend/internal/uow"
	"github.com/shopvite/shopvite-backend/pkg/checkout"
	"github.com/shopvite/shopvite-backend/pkg/config"
	"github.com/shopvite/shopvite-backend/pkg/db/models"
	"github.com/shopvite/shopvite-backend/pkg/enums"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
	"github.com/shopvite/shopvite-backend/pkg/outbox"
	"github.com/shopvite/shopvite-backend/pkg/outbox/payloads"
	"github.com/shopvite/shopvite-backend/pkg/pagination"
	"github.com/shopvite/shopvite-backend/pkg/visibility"
)

type uowRunner interface {
	Run(ctx context.Context, fn func(u *uow.UnitOfWork) error) error
	Repos() *uow.UnitOfWork
}

// Service exposes checkout and order lifecycle operations.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, id, requesterID uuid.UUID, elevated bool) (*OrderDTO, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderListResult, error)
	ListAllOrders(ctx context.Context, input ListOrdersInput) (*OrderListResult, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, input UpdateStatusInput, actor *outbox.ActorRef) (*OrderDTO, error)
}

type service struct {
	runner   uowRunner
	checkout config.CheckoutConfig
}

// NewService wires the order service.
func NewService(runner uowRunner, checkoutCfg config.CheckoutConfig) (Service, error) {
	if runner == nil {
		return nil, errors.New("orders: runner is required")
	}
	return &service{runner: runner, checkout: checkoutCfg}, nil
}

// orderLine is a resolved checkout line with its price snapshot.
type orderLine struct {
	product  *models.Product
	quantity int
}

func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*OrderDTO, error) {
	method, err := enums.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.NewValidation("Invalid payment method", []pkgerrors.FieldDetail{
			{Field: "payment_method", Message: err.Error()},
		})
	}
	currency := enums.CurrencyUSD
	if input.Currency != "" {
		currency, err = enums.ParseCurrency(input.Currency)
		if err != nil {
			return nil, pkgerrors.NewValidation("Invalid currency", []pkgerrors.FieldDetail{
				{Field: "currency", Message: err.Error()},
			})
		}
	}
	address := input.ShippingAddress
	address.Normalize()
	if !address.Complete() {
		return nil, pkgerrors.NewValidation("Incomplete shipping address", []pkgerrors.FieldDetail{
			{Field: "shipping_address", Message: "line1, city, state, postal_code and country are required"},
		})
	}

	var created *models.Order
	err = s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		lines, fromCart, err := s.resolveLines(ctx, u, userID, input.Items)
		if err != nil {
			return err
		}
		if err := s.validateStock(ctx, u, lines); err != nil {
			return err
		}

		subtotal := 0
		itemCount := 0
		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			unit := line.product.PriceCents
			lineTotal := unit * line.quantity
			subtotal += lineTotal
			itemCount += line.quantity
			productID := line.product.ID
			items = append(items, models.OrderItem{
				ProductID:      &productID,
				Name:           line.product.Name,
				Quantity:       line.quantity,
				UnitPriceCents: unit,
				TotalCents:     lineTotal,
			})
		}
		shipping := s.shippingCents(subtotal)

		number, err := u.Orders.NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "allocate order number")
		}

		order := &models.Order{
			ID:              uuid.New(),
			OrderNumber:     number,
			UserID:          userID,
			Status:          enums.OrderStatusPending,
			SubtotalCents:   subtotal,
			ShippingCents:   shipping,
			TotalCents:      subtotal + shipping,
			Currency:        currency,
			ShippingAddress: &address,
			PaymentMethod:   method,
			Items:           items,
		}
		if err := u.Orders.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		for _, line := range lines {
			if err := u.Inventory.Reserve(ctx, line.product.ID, line.quantity); err != nil {
				if errors.Is(err, uow.ErrInsufficientStock) {
					return pkgerrors.New(pkgerrors.CodeStateConflict,
						fmt.Sprintf("insufficient stock for %s", line.product.Name))
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserve inventory")
			}
		}

		if err := u.Orders.CreateTrackingEvent(ctx, &models.TrackingEvent{
			OrderID: order.ID,
			Status:  enums.OrderStatusPending,
			Message: "Order placed",
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record tracking event")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				UserID:      userID,
				OrderNumber: order.OrderNumber,
				TotalCents:  order.TotalCents,
				Currency:    order.Currency,
				ItemCount:   itemCount,
			},
		}
		if err := u.Outbox.Emit(ctx, u.Tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue order event")
		}

		if fromCart != nil {
			if err := u.Carts.ClearItems(ctx, fromCart.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
			}
			if err := u.Carts.UpdateTotals(ctx, fromCart.ID, 0, 0); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reset cart totals")
			}
		}

		created, err = u.Orders.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(created), nil
}

// resolveLines turns either the explicit payload items or the caller's cart
// into priced order lines. The returned cart is non-nil only when the cart
// was the source, signalling it should be cleared after the order lands.
func (s *service) resolveLines(ctx context.Context, u *uow.UnitOfWork, userID uuid.UUID, items []CheckoutItemInput) ([]orderLine, *models.Cart, error) {
	requested := make(map[uuid.UUID]int)
	var productIDs []uuid.UUID
	var sourceCart *models.Cart

	if len(items) > 0 {
		for _, item := range items {
			if _, seen := requested[item.ProductID]; !seen {
				productIDs = append(productIDs, item.ProductID)
			}
			requested[item.ProductID] += item.Quantity
		}
	} else {
		cart, err := u.Carts.FindByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if len(cart.Items) == 0 {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		for _, item := range cart.Items {
			if _, seen := requested[item.ProductID]; !seen {
				productIDs = append(productIDs, item.ProductID)
			}
			requested[item.ProductID] += item.Quantity
		}
		sourceCart = cart
	}

	products, err := u.Products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	var invalid []pkgerrors.FieldDetail
	lines := make([]orderLine, 0, len(productIDs))
	for _, id := range productIDs {
		product, ok := byID[id]
		if !ok {
			invalid = append(invalid, pkgerrors.FieldDetail{
				Field:   id.String(),
				Message: "product no longer exists",
			})
			continue
		}
		if err := visibility.EnsureProductVisible(product); err != nil {
			invalid = append(invalid, pkgerrors.FieldDetail{
				Field:   id.String(),
				Message: "product is no longer available",
			})
			continue
		}
		lines = append(lines, orderLine{product: product, quantity: requested[id]})
	}
	if len(invalid) > 0 {
		return nil, nil, pkgerrors.NewValidation("Some items cannot be ordered", invalid)
	}
	return lines, sourceCart, nil
}

func (s *service) validateStock(ctx context.Context, u *uow.UnitOfWork, lines []orderLine) error {
	inputs := make([]checkout.StockValidationInput, 0, len(lines))
	for _, line := range lines {
		available, err := u.Inventory.AvailableForProduct(ctx, line.product.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check stock")
		}
		inputs = append(inputs, checkout.StockValidationInput{
			ProductID:   line.product.ID,
			ProductName: line.product.Name,
			Available:   available,
			Requested:   line.quantity,
		})
	}
	return checkout.ValidateStock(inputs)
}

// shippingCents applies the flat-rate rule with a free-shipping threshold.
func (s *service) shippingCents(subtotal int) int {
	if s.checkout.FreeShippingMinCents > 0 && subtotal >= s.checkout.FreeShippingMinCents {
		return 0
	}
	return s.checkout.FlatShippingCents
}

func (s *service) GetOrder(ctx context.Context, id, requesterID uuid.UUID, elevated bool) (*OrderDTO, error) {
	order, err := s.runner.Repos().Orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	// Non-elevated callers get a 404 rather than a 403 so order IDs are
	// not probeable.
	if !elevated && order.UserID != requesterID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
	}
	return FromModel(order), nil
}

func (s *service) ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderListResult, error) {
	params = params.Normalize()
	orders, total, err := s.runner.Repos().Orders.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return buildListResult(orders, params, total), nil
}

func (s *service) ListAllOrders(ctx context.Context, input ListOrdersInput) (*OrderListResult, error) {
	params := input.Pagination.Normalize()
	orders, total, err := s.runner.Repos().Orders.List(ctx, params, uow.OrderFilters{
		Status: input.Status,
		UserID: input.UserID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return buildListResult(orders, params, total), nil
}

func buildListResult(orders []models.Order, params pagination.Params, total int64) *OrderListResult {
	result := &OrderListResult{
		Orders:     make([]OrderDTO, 0, len(orders)),
		Pagination: pagination.BuildResult(params, total),
	}
	for i := range orders {
		result.Orders = append(result.Orders, *FromModel(&orders[i]))
	}
	return result
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, input UpdateStatusInput, actor *outbox.ActorRef) (*OrderDTO, error) {
	next, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.NewValidation("Invalid order status", []pkgerrors.FieldDetail{
			{Field: "status", Message: err.Error()},
		})
	}

	var updated *models.Order
	err = s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		order, err := u.Orders.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		from := order.Status
		if !from.CanTransitionTo(next) {
			if from.IsTerminal() {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("order is already %s and cannot change status", from))
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", from, next))
		}

		updates := map[string]any{"status": next}
		now := time.Now().UTC()
		switch next {
		case enums.OrderStatusDelivered:
			updates["delivered_at"] = now
		case enums.OrderStatusCancelled:
			updates["cancelled_at"] = now
		}
		if err := u.Orders.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order")
		}

		// Cancelling hands the reserved stock back.
		if next == enums.OrderStatusCancelled {
			if err := releaseItems(ctx, u, order.Items); err != nil {
				return err
			}
		}

		message := input.Message
		if message == "" {
			message = fmt.Sprintf("Status changed to %s", next)
		}
		if err := u.Orders.CreateTrackingEvent(ctx, &models.TrackingEvent{
			OrderID: order.ID,
			Status:  next,
			Message: message,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record tracking event")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     order.ID,
				UserID:      order.UserID,
				OrderNumber: order.OrderNumber,
				FromStatus:  from,
				ToStatus:    next,
				Message:     message,
			},
		}
		if err := u.Outbox.Emit(ctx, u.Tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue status event")
		}

		updated, err = u.Orders.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func releaseItems(ctx context.Context, u *uow.UnitOfWork, items []models.OrderItem) error {
	for _, item := range items {
		if item.ProductID == nil {
			continue
		}
		if err := u.Inventory.Release(ctx, *item.ProductID, item.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "release inventory")
		}
	}
	return nil
}
