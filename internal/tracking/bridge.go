package tracking

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/shopvite/shopvite-backend/pkg/db/models"
	"github.com/shopvite/shopvite-backend/pkg/logger"
)

type historyLoader interface {
	ListTrackingEvents(ctx context.Context, orderID uuid.UUID) ([]models.TrackingEvent, error)
}

type channelSubscriber interface {
	Subscribe(ctx context.Context, channels ...string) (*redislib.PubSub, error)
}

// Bridge relays order events arriving on the Redis channel into the local
// hub. Every API instance runs one bridge, which is what lets a client hold
// its socket against any instance.
type Bridge struct {
	hub    *Hub
	orders historyLoader
	redis  channelSubscriber
	logg   *logger.Logger
}

// NewBridge wires the Redis order-events channel to a hub.
func NewBridge(hub *Hub, orders historyLoader, redis channelSubscriber, logg *logger.Logger) (*Bridge, error) {
	if hub == nil {
		return nil, fmt.Errorf("tracking bridge hub is required")
	}
	if orders == nil {
		return nil, fmt.Errorf("tracking bridge order loader is required")
	}
	if redis == nil {
		return nil, fmt.Errorf("tracking bridge redis client is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("tracking bridge logger is required")
	}
	return &Bridge{hub: hub, orders: orders, redis: redis, logg: logg}, nil
}

// Run subscribes to the order-events channel and dispatches until the context
// is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	sub, err := b.redis.Subscribe(ctx, OrderEventsChannel)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", OrderEventsChannel, err)
	}
	defer func() { _ = sub.Close() }()

	b.logg.Info(ctx, "tracking bridge listening")
	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			b.handlePayload(ctx, []byte(msg.Payload))
		}
	}
}

func (b *Bridge) handlePayload(ctx context.Context, payload []byte) {
	var event ChannelEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		b.logg.Warn(ctx, "discarding malformed tracking channel payload")
		return
	}
	if event.OrderID == uuid.Nil {
		b.logg.Warn(ctx, "discarding tracking channel payload without order id")
		return
	}
	b.Dispatch(ctx, event)
}

// Dispatch pushes the status change and the refreshed tracking history to the
// order room and the owner's user room.
func (b *Bridge) Dispatch(ctx context.Context, event ChannelEvent) {
	ctx = b.logg.WithOrderID(ctx, event.OrderID.String())

	rooms := []string{OrderRoom(event.OrderID)}
	if event.UserID != uuid.Nil {
		rooms = append(rooms, UserRoom(event.UserID))
	}

	statusMsg := Message{
		Event: EventStatusChanged,
		Data:  StatusChangedData{OrderID: event.OrderID, Status: event.Status},
	}
	for _, room := range rooms {
		b.hub.Broadcast(ctx, room, statusMsg)
	}

	history, err := b.orders.ListTrackingEvents(ctx, event.OrderID)
	if err != nil {
		// Clients still got the status change; they refetch history over REST.
		b.logg.Error(ctx, "load tracking history", err)
		return
	}
	historyMsg := Message{
		Event: EventTrackingUpdate,
		Data:  TrackingUpdateData{OrderID: event.OrderID, History: historyFromModels(history)},
	}
	for _, room := range rooms {
		b.hub.Broadcast(ctx, room, historyMsg)
	}
}
