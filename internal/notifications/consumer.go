package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/shopvite/shopvite-backend/pkg/db/models"
	"github.com/shopvite/shopvite-backend/pkg/email"
	"github.com/shopvite/shopvite-backend/pkg/enums"
	"github.com/shopvite/shopvite-backend/pkg/logger"
	"github.com/shopvite/shopvite-backend/pkg/outbox"
	"github.com/shopvite/shopvite-backend/pkg/outbox/idempotency"
	"github.com/shopvite/shopvite-backend/pkg/outbox/payloads"
)

const orderNotificationConsumer = "order-notifications"

type notificationWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Consumer turns order and payment events into notification rows and,
// where a channel asks for it, outbound email.
type Consumer struct {
	repo         notificationWriter
	users        userLoader
	sender       email.Sender
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds the notification consumer.
func NewConsumer(repo notificationWriter, users userLoader, sender email.Sender, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if sender == nil {
		return nil, fmt.Errorf("email sender required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		users:        users,
		sender:       sender,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	handler := c.handlerFor(enums.OutboxEventType(eventType))
	if handler == nil {
		c.logg.Info(logCtx, "skipping unhandled event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := handler(ctx, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

type eventHandler func(ctx context.Context, data json.RawMessage, logCtx context.Context) error

func (c *Consumer) handlerFor(eventType enums.OutboxEventType) eventHandler {
	switch eventType {
	case enums.EventOrderCreated:
		return c.handleOrderCreated
	case enums.EventOrderStatusChanged:
		return c.handleOrderStatusChanged
	case enums.EventPaymentSucceeded, enums.EventPaymentFailed:
		return c.handlePaymentStatus
	default:
		return nil
	}
}

func (c *Consumer) handleOrderCreated(ctx context.Context, data json.RawMessage, logCtx context.Context) error {
	var payload payloads.OrderCreatedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse order.created payload: %w", err)
	}
	link := fmt.Sprintf("/orders/%s", payload.OrderID)
	notification := &models.Notification{
		UserID:   payload.UserID,
		Type:     enums.NotificationTypeOrderUpdate,
		Priority: enums.NotificationPriorityNormal,
		Channels: pq.StringArray{string(enums.NotificationChannelInApp), string(enums.NotificationChannelEmail)},
		Title:    "Order confirmed",
		Message:  fmt.Sprintf("Your order #%d has been received.", payload.OrderNumber),
		Link:     &link,
	}
	return c.deliver(ctx, notification, logCtx)
}

func (c *Consumer) handleOrderStatusChanged(ctx context.Context, data json.RawMessage, logCtx context.Context) error {
	var payload payloads.OrderStatusChangedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse order.status_changed payload: %w", err)
	}
	link := fmt.Sprintf("/orders/%s", payload.OrderID)
	priority := enums.NotificationPriorityNormal
	if payload.ToStatus == enums.OrderStatusCancelled {
		priority = enums.NotificationPriorityHigh
	}
	notification := &models.Notification{
		UserID:   payload.UserID,
		Type:     enums.NotificationTypeOrderUpdate,
		Priority: priority,
		Channels: pq.StringArray{string(enums.NotificationChannelInApp), string(enums.NotificationChannelEmail)},
		Title:    fmt.Sprintf("Order %s", payload.ToStatus),
		Message:  fmt.Sprintf("Order #%d is now %s.", payload.OrderNumber, payload.ToStatus),
		Link:     &link,
	}
	return c.deliver(ctx, notification, logCtx)
}

func (c *Consumer) handlePaymentStatus(ctx context.Context, data json.RawMessage, logCtx context.Context) error {
	var payload payloads.PaymentStatusEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse payment payload: %w", err)
	}
	link := fmt.Sprintf("/orders/%s", payload.OrderID)
	title := "Payment received"
	message := fmt.Sprintf("Payment of %d.%02d was successful.", payload.AmountCents/100, payload.AmountCents%100)
	priority := enums.NotificationPriorityNormal
	if payload.Status == enums.PaymentStatusFailed {
		title = "Payment failed"
		priority = enums.NotificationPriorityUrgent
		message = "Your payment could not be processed."
		if payload.FailureReason != nil && *payload.FailureReason != "" {
			message = fmt.Sprintf("Your payment could not be processed: %s", *payload.FailureReason)
		}
	}
	notification := &models.Notification{
		UserID:   payload.UserID,
		Type:     enums.NotificationTypePaymentUpdate,
		Priority: priority,
		Channels: pq.StringArray{string(enums.NotificationChannelInApp), string(enums.NotificationChannelEmail)},
		Title:    title,
		Message:  message,
		Link:     &link,
	}
	return c.deliver(ctx, notification, logCtx)
}

// deliver writes the notification row, then attempts email for rows whose
// channels include EMAIL. Email failure is logged and swallowed so the row
// (and the originating event) is never lost to a mail outage.
func (c *Consumer) deliver(ctx context.Context, notification *models.Notification, logCtx context.Context) error {
	if notification.UserID == uuid.Nil {
		return fmt.Errorf("user id missing")
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "notification recorded")

	if !wantsEmail(notification.Channels) {
		return nil
	}
	user, err := c.users.FindByID(ctx, notification.UserID)
	if err != nil {
		c.logg.Error(logCtx, "email recipient lookup failed", err)
		return nil
	}
	msg := email.Message{
		To:      user.Email,
		Subject: notification.Title,
		Body:    notification.Message,
	}
	if err := c.sender.Send(ctx, msg); err != nil {
		c.logg.Error(logCtx, "email dispatch failed", err)
	}
	return nil
}

func wantsEmail(channels pq.StringArray) bool {
	for _, channel := range channels {
		if channel == string(enums.NotificationChannelEmail) {
			return true
		}
	}
	return false
}
