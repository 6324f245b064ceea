package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/internal/analytics"
	"github.com/shopvite/shopvite-backend/pkg/enums"
	"github.com/shopvite/shopvite-backend/pkg/logger"
	"github.com/shopvite/shopvite-backend/pkg/outbox"
)

const analyticsConsumerName = "analytics"

type rowWriter interface {
	Insert(ctx context.Context, row analytics.OrderEventRow) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer streams order and payment events into the BigQuery order_events
// table, guarded by the Redis idempotency store.
type Consumer struct {
	writer       rowWriter
	subscription *pubsub.Subscriber
	idempotency  idempotencyChecker
	logg         *logger.Logger
	handled      map[enums.OutboxEventType]struct{}
}

// NewConsumer builds the analytics consumer.
func NewConsumer(writer rowWriter, subscription *pubsub.Subscriber, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if writer == nil {
		return nil, fmt.Errorf("order events writer required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("analytics subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		writer:       writer,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
		handled: map[enums.OutboxEventType]struct{}{
			enums.EventOrderCreated:       {},
			enums.EventOrderStatusChanged: {},
			enums.EventPaymentSucceeded:   {},
			enums.EventPaymentFailed:      {},
		},
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
	rawType := strings.TrimSpace(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": rawType,
	})

	eventType, err := enums.ParseOutboxEventType(rawType)
	if err != nil {
		c.logg.Warn(logCtx, "skipping message with unknown event type")
		return processResult{ack: true}
	}
	if _, ok := c.handled[eventType]; !ok {
		c.logg.Info(logCtx, "event not handled by analytics consumer")
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

	aggregateType, err := enums.ParseOutboxAggregateType(strings.TrimSpace(msg.Attributes["aggregate_type"]))
	if err != nil {
		c.logg.Error(logCtx, "invalid aggregate type", err)
		return processResult{ack: true}
	}
	aggregateID := strings.TrimSpace(msg.Attributes["aggregate_id"])

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, analyticsConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	row, err := analytics.BuildOrderEventRow(eventType, aggregateType, aggregateID, envelope)
	if err != nil {
		// A payload that cannot be flattened will never succeed; drop it.
		c.logg.Error(logCtx, "failed to build order event row", err)
		return processResult{ack: true}
	}

	if err := c.writer.Insert(ctx, *row); err != nil {
		c.logg.Error(logCtx, "failed to insert order event row", err)
		_ = c.idempotency.Delete(ctx, analyticsConsumerName, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "order event ingested")
	return processResult{ack: true}
}
