package payloads

import (
	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/pkg/enums"
)

// OrderCreatedEvent signals a checkout that produced a new order.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID      `json:"order_id"`
	UserID      uuid.UUID      `json:"user_id"`
	OrderNumber int64          `json:"order_number"`
	TotalCents  int            `json:"total_cents"`
	Currency    enums.Currency `json:"currency"`
	ItemCount   int            `json:"item_count"`
}

// OrderStatusChangedEvent is emitted on every order status transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	UserID      uuid.UUID         `json:"user_id"`
	OrderNumber int64             `json:"order_number"`
	FromStatus  enums.OrderStatus `json:"from_status"`
	ToStatus    enums.OrderStatus `json:"to_status"`
	Message     string            `json:"message,omitempty"`
}

// PaymentStatusEvent carries the outcome of a payment attempt.
type PaymentStatusEvent struct {
	PaymentID     uuid.UUID           `json:"payment_id"`
	OrderID       uuid.UUID           `json:"order_id"`
	UserID        uuid.UUID           `json:"user_id"`
	Status        enums.PaymentStatus `json:"status"`
	AmountCents   int                 `json:"amount_cents"`
	FailureReason *string             `json:"failure_reason,omitempty"`
}

// UserRegisteredEvent is emitted when a new account is created.
type UserRegisteredEvent struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
}
