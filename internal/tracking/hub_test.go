package tracking

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/shopvite/shopvite-backend/pkg/config"
	"github.com/shopvite/shopvite-backend/pkg/db/models"
	"github.com/shopvite/shopvite-backend/pkg/enums"
	"github.com/shopvite/shopvite-backend/pkg/logger"
)

func testTrackingConfig() config.TrackingConfig {
	return config.TrackingConfig{
		HandshakeTimeout: time.Second,
		WriteTimeout:     time.Second,
		PongTimeout:      5 * time.Second,
		PingInterval:     time.Second,
	}
}

func testHub(t *testing.T) *Hub {
	t.Helper()
	hub, err := NewHub(logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("new hub: %v", err)
	}
	return hub
}

// dialRoom spins up a server that joins every connection to the given rooms
// and returns a connected client.
func dialRoom(t *testing.T, hub *Hub, initial []Message, rooms ...string) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeConn(w, r, testTrackingConfig(), initial, rooms...)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	waitForMembers(t, hub, rooms[0], 1)
	return client
}

func waitForMembers(t *testing.T, hub *Hub, room string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.RoomSize(room) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("room %s never reached %d members", room, want)
}

func readMessage(t *testing.T, client *websocket.Conn) Message {
	t.Helper()
	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return msg
}

func TestBroadcastReachesRoomMembers(t *testing.T) {
	hub := testHub(t)
	orderID := uuid.New()
	room := OrderRoom(orderID)
	client := dialRoom(t, hub, nil, room)

	hub.Broadcast(context.Background(), room, Message{
		Event: EventStatusChanged,
		Data:  StatusChangedData{OrderID: orderID, Status: enums.OrderStatusShipped},
	})

	msg := readMessage(t, client)
	if msg.Event != EventStatusChanged {
		t.Fatalf("expected %s, got %s", EventStatusChanged, msg.Event)
	}
}

func TestBroadcastSkipsOtherRooms(t *testing.T) {
	hub := testHub(t)
	room := OrderRoom(uuid.New())
	client := dialRoom(t, hub, nil, room)

	hub.Broadcast(context.Background(), OrderRoom(uuid.New()), Message{Event: EventStatusChanged})
	hub.Broadcast(context.Background(), room, Message{Event: EventTrackingUpdate})

	// The only frame the client sees is the one for its own room.
	msg := readMessage(t, client)
	if msg.Event != EventTrackingUpdate {
		t.Fatalf("expected %s, got %s", EventTrackingUpdate, msg.Event)
	}
}

func TestServeConnDeliversInitialMessages(t *testing.T) {
	hub := testHub(t)
	orderID := uuid.New()
	initial := []Message{{
		Event: EventTrackingUpdate,
		Data:  TrackingUpdateData{OrderID: orderID, History: []TrackingEntry{{Status: enums.OrderStatusPending}}},
	}}
	client := dialRoom(t, hub, initial, OrderRoom(orderID))

	msg := readMessage(t, client)
	if msg.Event != EventTrackingUpdate {
		t.Fatalf("expected initial %s, got %s", EventTrackingUpdate, msg.Event)
	}
}

func TestDisconnectLeavesRoom(t *testing.T) {
	hub := testHub(t)
	room := OrderRoom(uuid.New())
	client := dialRoom(t, hub, nil, room)

	_ = client.Close()
	waitForMembers(t, hub, room, 0)
}

type stubHistoryLoader struct {
	events []models.TrackingEvent
	err    error
}

func (s *stubHistoryLoader) ListTrackingEvents(ctx context.Context, orderID uuid.UUID) ([]models.TrackingEvent, error) {
	return s.events, s.err
}

func newTestBridge(t *testing.T, hub *Hub, loader historyLoader) *Bridge {
	t.Helper()
	return &Bridge{
		hub:    hub,
		orders: loader,
		logg:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	}
}

func TestBridgeDispatchPushesStatusThenHistory(t *testing.T) {
	hub := testHub(t)
	orderID := uuid.New()
	userID := uuid.New()
	loader := &stubHistoryLoader{events: []models.TrackingEvent{
		{OrderID: orderID, Status: enums.OrderStatusPending, Message: "Order placed"},
		{OrderID: orderID, Status: enums.OrderStatusShipped, Message: "On the way"},
	}}
	bridge := newTestBridge(t, hub, loader)

	client := dialRoom(t, hub, nil, UserRoom(userID))

	bridge.Dispatch(context.Background(), ChannelEvent{
		OrderID: orderID,
		UserID:  userID,
		Status:  enums.OrderStatusShipped,
	})

	first := readMessage(t, client)
	if first.Event != EventStatusChanged {
		t.Fatalf("expected %s first, got %s", EventStatusChanged, first.Event)
	}
	second := readMessage(t, client)
	if second.Event != EventTrackingUpdate {
		t.Fatalf("expected %s second, got %s", EventTrackingUpdate, second.Event)
	}
	raw, _ := json.Marshal(second.Data)
	var data TrackingUpdateData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(data.History) != 2 || data.History[1].Status != enums.OrderStatusShipped {
		t.Fatalf("unexpected history: %+v", data.History)
	}
}

func TestBridgeHandlePayloadIgnoresGarbage(t *testing.T) {
	hub := testHub(t)
	bridge := newTestBridge(t, hub, &stubHistoryLoader{})

	bridge.handlePayload(context.Background(), []byte("not json"))
	bridge.handlePayload(context.Background(), []byte(`{"order_id":"00000000-0000-0000-0000-000000000000"}`))
}
