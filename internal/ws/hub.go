package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/konkayan987-blip/Dashbord-condensate/internal/present"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong before treating the connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16
)

// Events sent to clients.
const (
	EventSummary = "summary"
	EventError   = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Summarizer produces the default-range dashboard summary.
// *dashboard.Service satisfies it.
type Summarizer interface {
	Summary(ctx context.Context) (present.Dashboard, error)
}

// Message is the JSON envelope sent to clients on connect and on every tick.
type Message struct {
	Event string             `json:"event"`
	Data  *present.Dashboard `json:"data,omitempty"`
	Error string             `json:"error,omitempty"`
}

// Hub manages WebSocket clients and pushes the current summary to all of
// them every interval.
type Hub struct {
	src      Summarizer
	interval time.Duration

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub that reads from src and broadcasts every interval.
func New(src Summarizer, interval time.Duration) *Hub {
	return &Hub{
		src:      src,
		interval: interval,
		clients:  make(map[*client]struct{}),
	}
}

// Run starts the broadcast loop. It blocks until ctx is cancelled, then
// closes all active connections. Ticks with no connected clients are skipped.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			if h.Count() == 0 {
				continue
			}
			h.broadcast(ctx)
		}
	}
}

// ServeHTTP upgrades the connection, sends the current summary immediately
// and then relays broadcasts until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	if data, err := h.buildMessage(r.Context()); err == nil {
		c.send <- data
	}
	h.register(c)
	defer h.unregister(c)

	go c.writePump()
	c.readPump()
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	slog.Debug("ws: client connected", "remote", c.conn.RemoteAddr().String())
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) broadcast(ctx context.Context) {
	data, err := h.buildMessage(ctx)
	if err != nil {
		return
	}

	// Sends happen under the read lock so unregister cannot close a
	// channel mid-send.
	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		slog.Warn("ws: client send buffer full, disconnecting")
		h.unregister(c)
	}
}

// buildMessage renders the summary. A load failure is sent as an error
// event with no dashboard data.
func (h *Hub) buildMessage(ctx context.Context) ([]byte, error) {
	msg := Message{Event: EventSummary}
	d, err := h.src.Summary(ctx)
	if err != nil {
		msg = Message{Event: EventError, Error: err.Error()}
	} else {
		msg.Data = &d
	}
	return json.Marshal(msg)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// writePump forwards queued messages and periodic pings to the connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump handles control frames and detects disconnects. It blocks until
// the connection closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
