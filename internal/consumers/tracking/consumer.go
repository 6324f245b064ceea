package tracking

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/internal/tracking"
	"github.com/shopvite/shopvite-backend/pkg/enums"
	"github.com/shopvite/shopvite-backend/pkg/logger"
	"github.com/shopvite/shopvite-backend/pkg/outbox"
	"github.com/shopvite/shopvite-backend/pkg/outbox/payloads"
)

type channelPublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// Consumer relays order lifecycle events onto the Redis tracking channel,
// where every API instance's bridge picks them up for websocket fanout.
// Pushes are fire-and-forget, so no idempotency guard is needed; a duplicate
// delivery just repeats a push the client already applied.
type Consumer struct {
	redis        channelPublisher
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer builds the tracking fanout consumer.
func NewConsumer(redis channelPublisher, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if redis == nil {
		return nil, fmt.Errorf("redis publisher required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("orders subscription required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{redis: redis, subscription: subscription, logg: logg}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) bool {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != enums.EventOrderCreated && eventType != enums.EventOrderStatusChanged {
		return true
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return true
	}

	event, err := c.channelEvent(eventType, envelope)
	if err != nil {
		c.logg.Error(logCtx, "failed to build channel event", err)
		return true
	}

	raw, err := json.Marshal(event)
	if err != nil {
		c.logg.Error(logCtx, "failed to marshal channel event", err)
		return true
	}
	if err := c.redis.Publish(ctx, tracking.OrderEventsChannel, raw); err != nil {
		c.logg.Error(logCtx, "failed to publish channel event", err)
		return false
	}

	c.logg.Info(c.logg.WithOrderID(logCtx, event.OrderID.String()), "order event relayed to tracking channel")
	return true
}

func (c *Consumer) channelEvent(eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) (*tracking.ChannelEvent, error) {
	switch eventType {
	case enums.EventOrderCreated:
		var payload payloads.OrderCreatedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return nil, fmt.Errorf("decode order created payload: %w", err)
		}
		if payload.OrderID == uuid.Nil {
			return nil, fmt.Errorf("order id missing")
		}
		return &tracking.ChannelEvent{
			OrderID: payload.OrderID,
			UserID:  payload.UserID,
			Status:  enums.OrderStatusPending,
		}, nil
	case enums.EventOrderStatusChanged:
		var payload payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return nil, fmt.Errorf("decode status change payload: %w", err)
		}
		if payload.OrderID == uuid.Nil {
			return nil, fmt.Errorf("order id missing")
		}
		return &tracking.ChannelEvent{
			OrderID: payload.OrderID,
			UserID:  payload.UserID,
			Status:  payload.ToStatus,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported event type %s", eventType)
	}
}
