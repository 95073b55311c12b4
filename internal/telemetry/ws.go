package telemetry

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsConn wraps a websocket connection with a write mutex, matching the
// one-writer-goroutine-per-connection discipline gorilla/websocket
// requires.
type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (wc *wsConn) writeJSON(v interface{}) error {
	wc.writeMu.Lock()
	defer wc.writeMu.Unlock()

	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = wc.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return wc.conn.WriteMessage(websocket.TextMessage, body)
}

// Hub fans SnapshotPayload broadcasts out to every connected UI
// client; it backs hooks.Telemetry.RequestRedraw.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsConn]struct{}
}

// NewHub constructs an empty broadcast hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*wsConn]struct{})}
}

// HandleWebSocket upgrades an HTTP request to a websocket connection
// and registers it with the hub until the client disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	wc := &wsConn{conn: conn}

	h.mu.Lock()
	h.clients[wc] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, wc)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

// Broadcast pushes a snapshot payload to every connected client,
// dropping (not blocking on) any client whose write fails.
func (h *Hub) Broadcast(fields map[string]interface{}, now time.Time) {
	payload := SnapshotPayload{Timestamp: now.Unix(), Fields: fields}

	h.mu.RLock()
	targets := make([]*wsConn, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.writeJSON(payload); err != nil {
			h.mu.Lock()
			delete(h.clients, c)
			h.mu.Unlock()
		}
	}
}

// ClientCount reports how many UI clients are currently connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
