package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/internal/tracking"
	"github.com/shopvite/shopvite-backend/pkg/enums"
	"github.com/shopvite/shopvite-backend/pkg/logger"
	"github.com/shopvite/shopvite-backend/pkg/outbox"
	"github.com/shopvite/shopvite-backend/pkg/outbox/payloads"
)

type recordingPublisher struct {
	channels []string
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, payload any) error {
	if p.err != nil {
		return p.err
	}
	p.channels = append(p.channels, channel)
	p.payloads = append(p.payloads, payload.([]byte))
	return nil
}

func newTestConsumer(publisher *recordingPublisher) *Consumer {
	return &Consumer{
		redis: publisher,
		logg:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	}
}

func statusChangedMessage(t *testing.T, orderID, userID uuid.UUID, to enums.OrderStatus) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(payloads.OrderStatusChangedEvent{
		OrderID:     orderID,
		UserID:      userID,
		OrderNumber: 100031,
		FromStatus:  enums.OrderStatusPending,
		ToStatus:    to,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &pubsub.Message{
		ID:         "m1",
		Data:       envelope,
		Attributes: map[string]string{"event_type": string(enums.EventOrderStatusChanged)},
	}
}

func TestProcessRelaysStatusChange(t *testing.T) {
	publisher := &recordingPublisher{}
	consumer := newTestConsumer(publisher)
	orderID := uuid.New()
	userID := uuid.New()

	if !consumer.process(context.Background(), statusChangedMessage(t, orderID, userID, enums.OrderStatusShipped)) {
		t.Fatal("expected ack")
	}

	if len(publisher.channels) != 1 || publisher.channels[0] != tracking.OrderEventsChannel {
		t.Fatalf("unexpected channels: %v", publisher.channels)
	}
	var event tracking.ChannelEvent
	if err := json.Unmarshal(publisher.payloads[0], &event); err != nil {
		t.Fatalf("decode channel event: %v", err)
	}
	if event.OrderID != orderID || event.UserID != userID || event.Status != enums.OrderStatusShipped {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestProcessRelaysOrderCreatedAsPending(t *testing.T) {
	publisher := &recordingPublisher{}
	consumer := newTestConsumer(publisher)
	orderID := uuid.New()

	data, _ := json.Marshal(payloads.OrderCreatedEvent{OrderID: orderID, UserID: uuid.New(), OrderNumber: 100032})
	envelope, _ := json.Marshal(outbox.PayloadEnvelope{Version: 1, EventID: uuid.NewString(), OccurredAt: time.Now().UTC(), Data: data})
	msg := &pubsub.Message{ID: "m2", Data: envelope, Attributes: map[string]string{"event_type": string(enums.EventOrderCreated)}}

	if !consumer.process(context.Background(), msg) {
		t.Fatal("expected ack")
	}
	var event tracking.ChannelEvent
	if err := json.Unmarshal(publisher.payloads[0], &event); err != nil {
		t.Fatalf("decode channel event: %v", err)
	}
	if event.Status != enums.OrderStatusPending {
		t.Fatalf("created orders relay as PENDING, got %s", event.Status)
	}
}

func TestProcessIgnoresOtherEvents(t *testing.T) {
	publisher := &recordingPublisher{}
	consumer := newTestConsumer(publisher)

	msg := &pubsub.Message{ID: "m3", Attributes: map[string]string{"event_type": string(enums.EventPaymentSucceeded)}}
	if !consumer.process(context.Background(), msg) {
		t.Fatal("unrelated events are acked")
	}
	if len(publisher.channels) != 0 {
		t.Fatal("nothing should be published")
	}
}

func TestProcessNacksOnPublishFailure(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("redis down")}
	consumer := newTestConsumer(publisher)

	if consumer.process(context.Background(), statusChangedMessage(t, uuid.New(), uuid.New(), enums.OrderStatusConfirmed)) {
		t.Fatal("publish failures must nack for redelivery")
	}
}
