package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopvite/shopvite-backend/pkg/db/models"
	"github.com/shopvite/shopvite-backend/pkg/enums"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
)

// WebhookService applies gateway payment notifications.
type WebhookService interface {
	HandleWebhookEvent(ctx context.Context, event *WebhookEvent) error
}

// WebhookEvent is the Square webhook envelope for payment notifications.
type WebhookEvent struct {
	EventID   string           `json:"event_id"`
	Type      string           `json:"type"`
	CreatedAt string           `json:"created_at"`
	Data      WebhookEventData `json:"data"`
}

type WebhookEventData struct {
	Type   string             `json:"type"`
	ID     string             `json:"id"`
	Object WebhookEventObject `json:"object"`
}

type WebhookEventObject struct {
	Payment *GatewayPayment `json:"payment"`
}

// GatewayPayment is the payment snapshot Square embeds in webhook payloads.
// ReferenceID carries the local payment row ID set at charge time.
type GatewayPayment struct {
	ID          string        `json:"id"`
	Status      string        `json:"status"`
	ReferenceID string        `json:"reference_id"`
	AmountMoney *GatewayMoney `json:"amount_money"`
}

type GatewayMoney struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// HandleWebhookEvent maps a gateway notification onto the local payment row.
// Signature verification and event-level idempotency happen at the HTTP
// boundary before the event reaches this method.
func (s *service) HandleWebhookEvent(ctx context.Context, event *WebhookEvent) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "gateway event required")
	}

	switch strings.ToLower(event.Type) {
	case "payment.created", "payment.updated":
		gatewayPayment := event.Data.Object.Payment
		if gatewayPayment == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment payload missing")
		}
		return s.applyWebhookPayment(ctx, gatewayPayment)
	default:
		// Unhandled event types are acknowledged so the gateway stops retrying.
		return nil
	}
}

func (s *service) applyWebhookPayment(ctx context.Context, gatewayPayment *GatewayPayment) error {
	payment, err := s.locatePayment(ctx, gatewayPayment)
	if err != nil {
		return err
	}

	result := gatewayResult{
		GatewayPaymentID: gatewayPayment.ID,
		RawStatus:        gatewayPayment.Status,
		Status:           mapGatewayStatus(gatewayPayment.Status),
	}
	if result.Status == enums.PaymentStatusFailed || result.Status == enums.PaymentStatusCancelled {
		reason := fmt.Sprintf("gateway reported status %s", strings.ToUpper(strings.TrimSpace(gatewayPayment.Status)))
		result.FailureReason = &reason
	}

	_, err = s.applyGatewayResult(ctx, payment.ID, result)
	return err
}

// locatePayment resolves the local row first by the gateway payment ID and
// then by the reference ID, which covers a webhook arriving before the charge
// response was recorded.
func (s *service) locatePayment(ctx context.Context, gatewayPayment *GatewayPayment) (*models.Payment, error) {
	repos := s.runner.Repos()

	if gatewayPayment.ID != "" {
		payment, err := repos.Payments.FindByGatewayID(ctx, gatewayPayment.ID)
		if err == nil {
			return payment, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
		}
	}

	if referenceID, parseErr := uuid.Parse(gatewayPayment.ReferenceID); parseErr == nil {
		payment, err := repos.Payments.FindByID(ctx, referenceID)
		if err == nil {
			return payment, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
		}
	}

	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Payment not found")
}
