// Package dashboard exposes a purely observational view of the worker:
// Prometheus metrics, a live websocket feed of world-model snapshots, and a
// one-shot JSON snapshot endpoint. Nothing it serves feeds back into the
// dispatch pipeline.
package dashboard

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// hub manages every connected websocket client and broadcasts snapshots to
// all of them.
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	logger  *slog.Logger
}

func newHub(logger *slog.Logger) *hub {
	return &hub{clients: make(map[*websocket.Conn]bool), logger: logger}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (h *hub) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade websocket connection", "error", err)
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

// broadcast serializes payload once and fans it out to every connected
// client, dropping any client whose write fails.
func (h *hub) broadcast(payload any) {
	message, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to serialize snapshot", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}
