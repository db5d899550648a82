package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"chaos_market/internal/domain"
	"chaos_market/internal/infra"
)

const (
	writeTimeout  = 10 * time.Second
	pingInterval  = 30 * time.Second
	readDeadline  = 90 * time.Second
	sendQueueSize = 64
)

// frame is the wire envelope for non-event messages (the initial state).
type frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub fans change-events out to websocket subscribers. A newly connecting
// subscriber always receives a full current-state snapshot before any
// incremental event. Broadcast never blocks the engine: when the hub's queue
// is saturated the event is dropped and counted.
type Hub struct {
	snapshot func() domain.Snapshot
	upgrader websocket.Upgrader

	register   chan *client
	unregister chan *client
	events     chan domain.Event
	clients    map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub. snapshot supplies the full-state document for new
// subscribers. With no allowed origins every origin is accepted (overlays and
// the mobile UI are served from arbitrary hosts).
func NewHub(snapshot func() domain.Snapshot, allowedOrigins []string) *Hub {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	return &Hub{
		snapshot: snapshot,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin: func(r *http.Request) bool {
				if len(origins) == 0 {
					return true
				}
				_, ok := origins[r.Header.Get("Origin")]
				return ok
			},
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		events:     make(chan domain.Event, 256),
		clients:    make(map[*client]struct{}),
	}
}

// Broadcast implements domain.Broadcaster. It never blocks: the ledger
// mutation has already committed and must not wait on subscribers.
func (h *Hub) Broadcast(ev domain.Event) {
	select {
	case h.events <- ev:
	default:
		slog.Warn("event queue saturated, dropping", slog.String("type", string(ev.Type)))
	}
}

// Run owns the client set. Must run in a single goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				c.conn.Close()
			}
			return
		case c := <-h.register:
			// Initial state goes out before the client joins the
			// event fan-out, so it never sees an event it lacks
			// the base state for.
			initial, err := json.Marshal(frame{Type: "initial_state", Payload: h.snapshot()})
			if err != nil {
				slog.Error("failed to marshal initial state", slog.Any("error", err))
				c.conn.Close()
				continue
			}
			c.send <- initial
			h.clients[c] = struct{}{}
			infra.GlobalMetrics.IncrementSubscribers()
			slog.Info("subscriber connected", slog.Int("total", len(h.clients)))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				infra.GlobalMetrics.DecrementSubscribers()
				slog.Info("subscriber disconnected", slog.Int("total", len(h.clients)))
			}
		case ev := <-h.events:
			msg, err := json.Marshal(ev)
			if err != nil {
				slog.Error("failed to marshal event", slog.Any("error", err))
				continue
			}
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer: cut it loose rather than
					// stalling the fan-out.
					delete(h.clients, c)
					close(c.send)
					infra.GlobalMetrics.DecrementSubscribers()
				}
			}
		}
	}
}

// ServeWS upgrades an HTTP request into a hub subscription.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendQueueSize)}
	h.register <- c
	go c.writePump()
	go c.readPump(h)
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeTimeout))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains inbound frames (subscribers only listen) and detects
// disconnects.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(1024)
	c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
