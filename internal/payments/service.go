package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	"gorm.io/gorm"

	"github.com/shopvite/shopvite-backend/internal/uow"
	"github.com/shopvite/shopvite-backend/pkg/db/models"
	"github.com/shopvite/shopvite-backend/pkg/enums"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
	"github.com/shopvite/shopvite-backend/pkg/outbox"
	"github.com/shopvite/shopvite-backend/pkg/outbox/payloads"
	"github.com/shopvite/shopvite-backend/pkg/square"
)

type uowRunner interface {
	Run(ctx context.Context, fn func(u *uow.UnitOfWork) error) error
	Repos() *uow.UnitOfWork
}

// gateway is the slice of the Square client the charge flow needs.
type gateway interface {
	CreatePayment(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error)
	LocationID() string
}

// Service charges orders through the payment gateway, exposes payment rows,
// and applies gateway webhook notifications.
type Service interface {
	WebhookService
	ChargeOrder(ctx context.Context, userID uuid.UUID, input ChargeInput) (*PaymentDTO, error)
	GetOrderPayment(ctx context.Context, orderID, requesterID uuid.UUID, elevated bool) (*PaymentDTO, error)
}

type service struct {
	runner  uowRunner
	gateway gateway
}

// NewService wires the charge flow to the unit-of-work runner and the gateway client.
func NewService(runner uowRunner, gw gateway) (Service, error) {
	if runner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "uow runner is required")
	}
	if gw == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway is required")
	}
	return &service{runner: runner, gateway: gw}, nil
}

// gatewayResult is the normalized outcome of a gateway call or webhook delivery.
type gatewayResult struct {
	GatewayPaymentID string
	Status           enums.PaymentStatus
	FailureReason    *string
	RawStatus        string
}

func (s *service) ChargeOrder(ctx context.Context, userID uuid.UUID, input ChargeInput) (*PaymentDTO, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.NewValidation("Invalid charge request", []pkgerrors.FieldDetail{
			{Field: "order_id", Message: "order id is required"},
		})
	}
	if strings.TrimSpace(input.SourceID) == "" {
		return nil, pkgerrors.NewValidation("Invalid charge request", []pkgerrors.FieldDetail{
			{Field: "source_id", Message: "payment source is required"},
		})
	}

	repos := s.runner.Repos()
	order, err := repos.Orders.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.UserID != userID {
		// A foreign order reads as missing so order IDs are not probeable.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is %s and not awaiting payment", order.Status))
	}
	if order.PaymentMethod == enums.PaymentMethodCashOnDelivery {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order does not require an online payment")
	}

	if existing, err := repos.Payments.FindByOrder(ctx, order.ID); err == nil {
		switch existing.Status {
		case enums.PaymentStatusSucceeded, enums.PaymentStatusRefunded, enums.PaymentStatusPartiallyRefunded:
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is already paid")
		case enums.PaymentStatusPending, enums.PaymentStatusProcessing:
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a payment for this order is already in progress")
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
	}

	payment := &models.Payment{
		ID:          uuid.New(),
		OrderID:     order.ID,
		UserID:      order.UserID,
		AmountCents: order.TotalCents,
		Currency:    order.Currency,
		Status:      enums.PaymentStatusPending,
		Method:      order.PaymentMethod,
	}
	err = s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		return u.Payments.Create(ctx, payment)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record payment")
	}

	// The gateway call runs outside any transaction so a slow network hop
	// never holds a database lock.
	charged, chargeErr := s.gateway.CreatePayment(ctx, square.PaymentCreateParams{
		AmountCents: int64(order.TotalCents),
		Currency:    string(order.Currency),
		LocationID:  s.gateway.LocationID(),
		SourceID:    input.SourceID,
		ReferenceID: payment.ID.String(),
		Note:        fmt.Sprintf("Order #%d", order.OrderNumber),
	})
	if chargeErr != nil {
		reason := chargeErr.Error()
		if _, applyErr := s.applyGatewayResult(ctx, payment.ID, gatewayResult{
			Status:        enums.PaymentStatusFailed,
			FailureReason: &reason,
		}); applyErr != nil {
			return nil, applyErr
		}
		return nil, chargeErr
	}

	result := gatewayResult{
		GatewayPaymentID: stringValue(charged.GetID()),
		RawStatus:        stringValue(charged.GetStatus()),
	}
	result.Status = mapGatewayStatus(result.RawStatus)
	if result.Status == enums.PaymentStatusFailed || result.Status == enums.PaymentStatusCancelled {
		reason := fmt.Sprintf("gateway reported status %s", result.RawStatus)
		result.FailureReason = &reason
	}

	updated, err := s.applyGatewayResult(ctx, payment.ID, result)
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) GetOrderPayment(ctx context.Context, orderID, requesterID uuid.UUID, elevated bool) (*PaymentDTO, error) {
	repos := s.runner.Repos()
	order, err := repos.Orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if !elevated && order.UserID != requesterID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
	}
	payment, err := repos.Payments.FindByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
	}
	return FromModel(payment), nil
}

// applyGatewayResult moves a payment row to the state the gateway reported and,
// when the charge settled, confirms the order and queues the outcome events.
// It is shared by the synchronous charge path and the webhook path, so a
// webhook that races the charge response settles on the same final state.
func (s *service) applyGatewayResult(ctx context.Context, paymentID uuid.UUID, result gatewayResult) (*models.Payment, error) {
	var applied *models.Payment
	err := s.runner.Run(ctx, func(u *uow.UnitOfWork) error {
		payment, err := u.Payments.FindByID(ctx, paymentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Payment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
		}

		if payment.Status == result.Status || !statusAdvances(payment.Status, result.Status) {
			applied = payment
			return nil
		}

		updates := map[string]any{"status": result.Status}
		if result.GatewayPaymentID != "" && payment.GatewayPaymentID == nil {
			updates["gateway_payment_id"] = result.GatewayPaymentID
		}
		if result.FailureReason != nil {
			updates["failure_reason"] = *result.FailureReason
		}
		if result.RawStatus != "" {
			updates["gateway_metadata"] = map[string]any{"gateway_status": result.RawStatus}
		}
		if err := u.Payments.Update(ctx, payment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update payment")
		}

		switch result.Status {
		case enums.PaymentStatusSucceeded:
			if err := s.confirmOrder(ctx, u, payment); err != nil {
				return err
			}
			if err := s.emitPaymentEvent(ctx, u, enums.EventPaymentSucceeded, payment, result); err != nil {
				return err
			}
		case enums.PaymentStatusFailed, enums.PaymentStatusCancelled:
			if err := s.emitPaymentEvent(ctx, u, enums.EventPaymentFailed, payment, result); err != nil {
				return err
			}
		}

		applied, err = u.Payments.FindByID(ctx, payment.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

// confirmOrder moves a pending order to CONFIRMED once its payment settled.
// Orders already past PENDING are left alone; a late or replayed settlement
// must not rewind fulfilment.
func (s *service) confirmOrder(ctx context.Context, u *uow.UnitOfWork, payment *models.Payment) error {
	order, err := u.Orders.FindByID(ctx, payment.OrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.Status != enums.OrderStatusPending || !order.Status.CanTransitionTo(enums.OrderStatusConfirmed) {
		return nil
	}
	if err := u.Orders.Update(ctx, order.ID, map[string]any{"status": enums.OrderStatusConfirmed}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "confirm order")
	}
	if err := u.Orders.CreateTrackingEvent(ctx, &models.TrackingEvent{
		OrderID: order.ID,
		Status:  enums.OrderStatusConfirmed,
		Message: "Payment received",
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record tracking event")
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:     order.ID,
			UserID:      order.UserID,
			OrderNumber: order.OrderNumber,
			FromStatus:  enums.OrderStatusPending,
			ToStatus:    enums.OrderStatusConfirmed,
			Message:     "Payment received",
		},
	}
	if err := u.Outbox.Emit(ctx, u.Tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue order event")
	}
	return nil
}

func (s *service) emitPaymentEvent(ctx context.Context, u *uow.UnitOfWork, eventType enums.OutboxEventType, payment *models.Payment, result gatewayResult) error {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePayment,
		AggregateID:   payment.ID,
		Data: payloads.PaymentStatusEvent{
			PaymentID:     payment.ID,
			OrderID:       payment.OrderID,
			UserID:        payment.UserID,
			Status:        result.Status,
			AmountCents:   payment.AmountCents,
			FailureReason: result.FailureReason,
		},
	}
	if err := u.Outbox.Emit(ctx, u.Tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue payment event")
	}
	return nil
}

// statusRank orders payment states so a stale gateway notification can never
// move a payment backwards.
var statusRank = map[enums.PaymentStatus]int{
	enums.PaymentStatusPending:           0,
	enums.PaymentStatusProcessing:        1,
	enums.PaymentStatusSucceeded:         2,
	enums.PaymentStatusFailed:            2,
	enums.PaymentStatusCancelled:         2,
	enums.PaymentStatusRefunded:          3,
	enums.PaymentStatusPartiallyRefunded: 3,
}

func statusAdvances(from, to enums.PaymentStatus) bool {
	return statusRank[to] > statusRank[from]
}

func mapGatewayStatus(raw string) enums.PaymentStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "COMPLETED":
		return enums.PaymentStatusSucceeded
	case "APPROVED", "PENDING":
		return enums.PaymentStatusProcessing
	case "FAILED":
		return enums.PaymentStatusFailed
	case "CANCELED":
		return enums.PaymentStatusCancelled
	default:
		return enums.PaymentStatusProcessing
	}
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
