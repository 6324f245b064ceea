package tracking

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/shopvite/shopvite-backend/pkg/config"
)

// ServeConn upgrades the request to a websocket, joins the connection to the
// given rooms, queues any initial messages, and blocks until the connection
// closes. Authentication and authorization happen before this call; once the
// upgrade has been written the HTTP error path is gone.
func (h *Hub) ServeConn(w http.ResponseWriter, r *http.Request, cfg config.TrackingConfig, initial []Message, rooms ...string) error {
	upgrader := websocket.Upgrader{
		HandshakeTimeout: cfg.HandshakeTimeout,
		// Browsers drive origin; access control happened at auth time.
		CheckOrigin: func(*http.Request) bool { return true },
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	conn := newConn(ws, h)
	h.join(conn, rooms...)

	for _, msg := range initial {
		raw, marshalErr := json.Marshal(msg)
		if marshalErr != nil {
			continue
		}
		select {
		case conn.send <- raw:
		default:
		}
	}

	ctx := h.logg.WithField(r.Context(), "rooms", rooms)
	h.logg.Info(ctx, "tracking connection opened")
	conn.run(ctx, cfg, h.logg)
	return nil
}
