package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"intervie-backend/internal/shared/telemetry"
)

const writeWait = 5 * time.Second

// Event is the wire shape sent to websocket subscribers.
type Event struct {
	Event     string    `json:"event"`
	SessionID string    `json:"sessionId"`
	Payload   any       `json:"payload"`
	SentAt    time.Time `json:"sentAt"`
}

// client serializes writes to one connection; gorilla/websocket allows a
// single concurrent writer and Publish runs on request goroutines.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (cl *client) writeJSON(v any) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return cl.conn.WriteJSON(v)
}

func (cl *client) close() {
	cl.conn.Close()
}

// Hub is a websocket-backed Notifier. Connections subscribe to one
// session id; events publish to every live connection for that session.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*client]bool
	upgrader websocket.Upgrader
}

var _ Notifier = (*Hub)(nil)

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]map[*client]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes attaches the subscription endpoint.
func (h *Hub) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/interviews/:sessionId", h.subscribe)
}

func (h *Hub) subscribe(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		telemetry.Warn("ws.upgrade.failed", map[string]any{"error": err.Error()})
		return
	}

	cl := &client{conn: conn}
	h.add(sessionID, cl)
	defer func() {
		h.remove(sessionID, cl)
		cl.close()
	}()

	// Reads are discarded; the socket exists for server push only.
	// Exiting the read loop means the peer went away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) add(sessionID string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.sessions[sessionID]
	if !ok {
		clients = make(map[*client]bool)
		h.sessions[sessionID] = clients
	}
	clients[cl] = true
}

func (h *Hub) remove(sessionID string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.sessions[sessionID]; ok {
		delete(clients, cl)
		if len(clients) == 0 {
			delete(h.sessions, sessionID)
		}
	}
}

// Publish sends the event to all subscribers of the session. Failed
// writes drop the connection; no error reaches the caller.
func (h *Hub) Publish(sessionID, event string, payload any) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.sessions[sessionID]))
	for cl := range h.sessions[sessionID] {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	msg := Event{Event: event, SessionID: sessionID, Payload: payload, SentAt: time.Now().UTC()}
	for _, cl := range clients {
		if err := cl.writeJSON(msg); err != nil {
			telemetry.Warn("ws.publish.failed", map[string]any{
				"session_id": sessionID,
				"event":      event,
				"error":      err.Error(),
			})
			h.remove(sessionID, cl)
			cl.close()
		}
	}
}

// Subscribers reports the number of live connections for a session.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}
