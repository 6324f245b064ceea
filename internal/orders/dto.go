package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/pkg/db/models"
	"github.com/shopvite/shopvite-backend/pkg/enums"
	"github.com/shopvite/shopvite-backend/pkg/pagination"
	"github.com/shopvite/shopvite-backend/pkg/types"
)

// CheckoutItemInput is one explicit line of a payload-driven checkout.
// Quantities are validated against live inventory before anything is written.
type CheckoutItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// CheckoutInput creates an order. When Items is empty the caller's cart is
// used as the source of lines and cleared on success.
type CheckoutInput struct {
	Items           []CheckoutItemInput `json:"items" validate:"omitempty,dive"`
	ShippingAddress types.Address       `json:"shipping_address" validate:"required"`
	PaymentMethod   string              `json:"payment_method" validate:"required"`
	Currency        string              `json:"currency" validate:"omitempty"`
}

// UpdateStatusInput moves an order along its lifecycle.
type UpdateStatusInput struct {
	Status  string `json:"status" validate:"required"`
	Message string `json:"message" validate:"omitempty,max=500"`
}

// ListOrdersInput filters the admin order listing.
type ListOrdersInput struct {
	Pagination pagination.Params
	Status     *enums.OrderStatus
	UserID     *uuid.UUID
}

// OrderItemDTO is one immutable order line.
type OrderItemDTO struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      *uuid.UUID `json:"product_id,omitempty"`
	Name           string     `json:"name"`
	Quantity       int        `json:"quantity"`
	UnitPriceCents int        `json:"unit_price_cents"`
	TotalCents     int        `json:"total_cents"`
}

// TrackingEventDTO is one entry in the order's tracking history.
type TrackingEventDTO struct {
	ID        uuid.UUID         `json:"id"`
	Status    enums.OrderStatus `json:"status"`
	Message   string            `json:"message"`
	CreatedAt time.Time         `json:"created_at"`
}

// OrderDTO is the API shape of an order.
type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     int64               `json:"order_number"`
	UserID          uuid.UUID           `json:"user_id"`
	Status          enums.OrderStatus   `json:"status"`
	SubtotalCents   int                 `json:"subtotal_cents"`
	ShippingCents   int                 `json:"shipping_cents"`
	TotalCents      int                 `json:"total_cents"`
	Currency        enums.Currency      `json:"currency"`
	ShippingAddress *types.Address      `json:"shipping_address,omitempty"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	Items           []OrderItemDTO      `json:"items"`
	TrackingEvents  []TrackingEventDTO  `json:"tracking_events,omitempty"`
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// OrderListResult is a paginated page of orders.
type OrderListResult struct {
	Orders     []OrderDTO        `json:"orders"`
	Pagination pagination.Result `json:"pagination"`
}

// FromModel maps a stored order to its API shape.
func FromModel(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		UserID:          order.UserID,
		Status:          order.Status,
		SubtotalCents:   order.SubtotalCents,
		ShippingCents:   order.ShippingCents,
		TotalCents:      order.TotalCents,
		Currency:        order.Currency,
		ShippingAddress: order.ShippingAddress,
		PaymentMethod:   order.PaymentMethod,
		Items:           make([]OrderItemDTO, 0, len(order.Items)),
		DeliveredAt:     order.DeliveredAt,
		CancelledAt:     order.CancelledAt,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
		})
	}
	for _, event := range order.TrackingEvents {
		dto.TrackingEvents = append(dto.TrackingEvents, TrackingEventDTO{
			ID:        event.ID,
			Status:    event.Status,
			Message:   event.Message,
			CreatedAt: event.CreatedAt,
		})
	}
	return dto
}
