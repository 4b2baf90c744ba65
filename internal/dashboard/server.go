package dashboard

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bic-labs/mock-robot-worker/internal/eventbus"
	"github.com/bic-labs/mock-robot-worker/internal/protocol"
)

// worldSnapshotter is the narrow read-only view the dashboard needs of the
// world model.
type worldSnapshotter interface {
	Snapshot() []protocol.EntityUpdate
}

// Server bundles the dashboard's three endpoints behind one http.Handler.
type Server struct {
	world  worldSnapshotter
	hub    *hub
	logger *slog.Logger
}

// New builds a Server. When bus is non-nil, the server subscribes to
// eventbus.WorldUpdated and eventbus.HeartbeatSent and pushes a fresh
// snapshot to every connected websocket client on either event, so the
// feed broadcasts on both world-model changes and heartbeat ticks.
func New(world worldSnapshotter, bus *eventbus.Bus, logger *slog.Logger) *Server {
	s := &Server{world: world, hub: newHub(logger), logger: logger.With("component", "dashboard")}
	if bus != nil {
		broadcast := func(eventbus.Event) {
			s.hub.broadcast(s.world.Snapshot())
		}
		bus.Subscribe(eventbus.WorldUpdated, broadcast)
		bus.Subscribe(eventbus.HeartbeatSent, broadcast)
	}
	return s
}

// Handler returns the mux the caller should serve on the configured
// dashboard address.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", s.hub.serveWs)
	mux.HandleFunc("/api/state", s.serveState)
	return mux
}

func (s *Server) serveState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.world.Snapshot()); err != nil {
		s.logger.Error("failed to encode state snapshot", "error", err)
	}
}
