package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/soyeahso/botbridge/internal/activity"
	"github.com/soyeahso/botbridge/internal/dispatch"
	"github.com/soyeahso/botbridge/internal/logging"
)

// StageEvent is one dispatch lifecycle notification streamed to observers.
type StageEvent struct {
	Stage      string    `json:"stage"`
	Source     string    `json:"source"`
	ActivityID string    `json:"activityId,omitempty"`
	User       string    `json:"user,omitempty"`
	Time       time.Time `json:"time"`
}

// hub fans dispatch lifecycle events out to connected websocket observers.
type hub struct {
	mu       sync.Mutex
	clients  map[string]*websocket.Conn
	upgrader websocket.Upgrader
	log      *logging.Logger
}

func newHub(log *logging.Logger) *hub {
	return &hub{
		clients: make(map[string]*websocket.Conn),
		log:     log.Sub("events"),
	}
}

// handleWS upgrades the connection and registers the observer. Inbound
// frames are discarded; the stream is one-way.
func (h *hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	id := uuid.New().String()
	h.mu.Lock()
	h.clients[id] = conn
	h.mu.Unlock()
	h.log.Debug().Str("client", id).Msg("observer connected")

	go func() {
		defer h.drop(id)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *hub) drop(id string) {
	h.mu.Lock()
	conn, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()
	if ok {
		conn.Close()
		h.log.Debug().Str("client", id).Msg("observer disconnected")
	}
}

// broadcastStage is wired as a dispatch observer.
func (h *hub) broadcastStage(stage dispatch.Stage, act *activity.Activity) {
	evt := StageEvent{
		Stage:      string(stage),
		Source:     act.Source,
		ActivityID: act.ID,
		User:       act.Address.User.ID,
		Time:       time.Now(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.clients {
		if err := conn.WriteJSON(evt); err != nil {
			conn.Close()
			delete(h.clients, id)
		}
	}
}

// count returns the number of connected observers.
func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
