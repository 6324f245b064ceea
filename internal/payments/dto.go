package payments

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/pkg/db/models"
	"github.com/shopvite/shopvite-backend/pkg/enums"
)

// ChargeInput starts a gateway charge for a placed order. SourceID is the
// tokenized payment source produced by the Square Web Payments SDK.
type ChargeInput struct {
	OrderID  uuid.UUID `json:"order_id" validate:"required"`
	SourceID string    `json:"source_id" validate:"required,max=200"`
}

// PaymentDTO is the API shape of a payment row.
type PaymentDTO struct {
	ID               uuid.UUID           `json:"id"`
	OrderID          uuid.UUID           `json:"orderId"`
	UserID           uuid.UUID           `json:"userId"`
	AmountCents      int                 `json:"amountCents"`
	Currency         enums.Currency      `json:"currency"`
	Status           enums.PaymentStatus `json:"status"`
	Method           enums.PaymentMethod `json:"method"`
	GatewayPaymentID *string             `json:"gatewayPaymentId,omitempty"`
	FailureReason    *string             `json:"failureReason,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// FromModel maps a payment row to its DTO.
func FromModel(payment *models.Payment) *PaymentDTO {
	if payment == nil {
		return nil
	}
	return &PaymentDTO{
		ID:               payment.ID,
		OrderID:          payment.OrderID,
		UserID:           payment.UserID,
		AmountCents:      payment.AmountCents,
		Currency:         payment.Currency,
		Status:           payment.Status,
		Method:           payment.Method,
		GatewayPaymentID: payment.GatewayPaymentID,
		FailureReason:    payment.FailureReason,
		CreatedAt:        payment.CreatedAt,
		UpdatedAt:        payment.UpdatedAt,
	}
}
