package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHubBroadcastReachesConnectedClient(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.HandleWebSocket(w, r)
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	waitForClientCount(t, hub, 1)

	hub.Broadcast(map[string]interface{}{"state": "OnVC"}, time.Unix(100, 0))

	var payload SnapshotPayload
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&payload); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if payload.Timestamp != 100 {
		t.Errorf("timestamp = %d, want 100", payload.Timestamp)
	}
	if payload.Fields["state"] != "OnVC" {
		t.Errorf("fields = %+v", payload.Fields)
	}
}

func waitForClientCount(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client count never reached %d, got %d", want, h.ClientCount())
}
