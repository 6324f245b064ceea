package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/api/responses"
	"github.com/shopvite/shopvite-backend/internal/payments"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
	"github.com/shopvite/shopvite-backend/pkg/logger"
	"github.com/shopvite/shopvite-backend/pkg/outbox/idempotency"
)

// guardConsumer scopes webhook event IDs in Redis away from the queue
// consumers that share the idempotency manager.
const guardConsumer = "payments-webhook"

type paymentWebhookService interface {
	HandleWebhookEvent(ctx context.Context, event *payments.WebhookEvent) error
}

type paymentWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type gatewaySigner interface {
	SigningSecret() string
}

// Guard adapts the shared event idempotency manager to webhook event IDs,
// which arrive as strings on the wire.
type Guard struct {
	manager *idempotency.Manager
}

func NewGuard(manager *idempotency.Manager) *Guard {
	return &Guard{manager: manager}
}

func (g *Guard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	id, err := uuid.Parse(eventID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed event id")
	}
	return g.manager.CheckAndMarkProcessed(ctx, guardConsumer, id)
}

func (g *Guard) Delete(ctx context.Context, eventID string) error {
	id, err := uuid.Parse(eventID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed event id")
	}
	return g.manager.Delete(ctx, guardConsumer, id)
}

// PaymentsWebhook receives Square payment notifications. The raw body is read
// before any JSON parsing so the signature check covers exactly the bytes the
// gateway signed.
func PaymentsWebhook(svc paymentWebhookService, signer gatewaySigner, guard paymentWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if signer == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gateway client unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Square-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "gateway signature missing"))
			return
		}

		if !validateSignature(payload, signer.SigningSecret(), sigHeader) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid gateway signature"))
			return
		}

		var event payments.WebhookEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event"))
			return
		}

		eventID := strings.TrimSpace(event.EventID)
		if eventID == "" {
			eventID = event.Data.ID
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, eventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, nil)
			return
		}

		if err := svc.HandleWebhookEvent(ctx, &event); err != nil {
			// Unmark so the gateway's retry gets another attempt.
			_ = guard.Delete(ctx, eventID)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("payment event %s processed", eventID))
		}
		responses.WriteSuccess(w, nil)
	}
}

func validateSignature(payload []byte, secret, header string) bool {
	if header == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}
