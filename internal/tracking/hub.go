package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/shopvite/shopvite-backend/pkg/logger"
)

// OrderRoom names the room that carries pushes for a single order.
func OrderRoom(orderID uuid.UUID) string {
	return fmt.Sprintf("order-%s", orderID)
}

// UserRoom names the room that carries pushes for all of a user's orders.
func UserRoom(userID uuid.UUID) string {
	return fmt.Sprintf("user-%s", userID)
}

// Hub tracks live websocket connections by room and fans messages out to
// them. All room bookkeeping happens under one mutex; writes to each
// connection go through its buffered send channel so a slow client never
// blocks a broadcast.
type Hub struct {
	mtx   sync.Mutex
	rooms map[string]map[*Conn]struct{}
	logg  *logger.Logger
}

// NewHub builds an empty hub.
func NewHub(logg *logger.Logger) (*Hub, error) {
	if logg == nil {
		return nil, fmt.Errorf("tracking hub logger is required")
	}
	return &Hub{
		rooms: map[string]map[*Conn]struct{}{},
		logg:  logg,
	}, nil
}

func (h *Hub) join(conn *Conn, rooms ...string) {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	for _, room := range rooms {
		members, ok := h.rooms[room]
		if !ok {
			members = map[*Conn]struct{}{}
			h.rooms[room] = members
		}
		members[conn] = struct{}{}
	}
	conn.rooms = append(conn.rooms, rooms...)
}

func (h *Hub) leave(conn *Conn) {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	for _, room := range conn.rooms {
		members, ok := h.rooms[room]
		if !ok {
			continue
		}
		delete(members, conn)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Broadcast marshals the message once and queues it to every member of the
// room. Connections whose send buffer is full are dropped; a client that
// cannot keep up reconnects and refetches.
func (h *Hub) Broadcast(ctx context.Context, room string, message Message) {
	raw, err := json.Marshal(message)
	if err != nil {
		h.logg.Error(h.logg.WithField(ctx, "room", room), "marshal tracking message", err)
		return
	}

	h.mtx.Lock()
	var stalled []*Conn
	for conn := range h.rooms[room] {
		select {
		case conn.send <- raw:
		default:
			stalled = append(stalled, conn)
		}
	}
	h.mtx.Unlock()

	for _, conn := range stalled {
		h.logg.Warn(h.logg.WithField(ctx, "room", room), "dropping stalled tracking connection")
		conn.Close()
	}
}

// RoomSize reports the current member count of a room.
func (h *Hub) RoomSize(room string) int {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	return len(h.rooms[room])
}
