package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shopvite/shopvite-backend/pkg/config"
	"github.com/shopvite/shopvite-backend/pkg/logger"
)

const sendBufferSize = 16

// Conn wraps one websocket connection. The write pump is the only goroutine
// that touches the underlying socket for writes; the read pump exists to
// service pong frames and to detect the peer going away.
type Conn struct {
	ws   *websocket.Conn
	hub  *Hub
	send chan []byte

	rooms []string

	closeOnce sync.Once
	done      chan struct{}
}

func newConn(ws *websocket.Conn, hub *Hub) *Conn {
	return &Conn{
		ws:   ws,
		hub:  hub,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

// Close detaches the connection from its rooms and closes the socket. Safe to
// call from any goroutine, any number of times.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.hub.leave(c)
		_ = c.ws.Close()
	})
}

// run serves the connection until either pump exits.
func (c *Conn) run(ctx context.Context, cfg config.TrackingConfig, logg *logger.Logger) {
	go c.writePump(cfg)
	c.readPump(cfg)
	c.Close()
	logg.Info(ctx, "tracking connection closed")
}

func (c *Conn) readPump(cfg config.TrackingConfig) {
	c.ws.SetReadLimit(1024)
	_ = c.ws.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	})
	for {
		// Inbound frames carry no commands; reading drains control frames.
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Conn) writePump(cfg config.TrackingConfig) {
	ticker := time.NewTicker(cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, raw); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
