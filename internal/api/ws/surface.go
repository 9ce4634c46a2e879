package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/termdeck/termdeck/internal/infrastructure/logging"
	"github.com/termdeck/termdeck/internal/infrastructure/monitoring"
	"github.com/termdeck/termdeck/internal/router"
	"github.com/termdeck/termdeck/internal/shared/id"
	"github.com/termdeck/termdeck/internal/terminal"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The desktop shell connects from a file:// or localhost origin.
		return true
	},
}

// controlMessage is the JSON frame a surface sends on the socket.
// Output travels the other way as raw binary frames.
type controlMessage struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
	Cols int    `json:"cols,omitempty"`
	Rows int    `json:"rows,omitempty"`
}

// SessionStore is the slice of the session registry a surface needs:
// liveness checks and resize. Satisfied by *terminal.Registry.
type SessionStore interface {
	Get(id string) (terminal.Info, error)
	Resize(id string, cols, rows int) error
}

// SurfaceHandler attaches WebSocket display surfaces to sessions.
type SurfaceHandler struct {
	router   *router.Router
	registry SessionStore
	log      *logging.Logger
	metrics  *monitoring.Metrics
}

// NewSurfaceHandler creates the per-session stream handler.
func NewSurfaceHandler(rt *router.Router, registry SessionStore, log *logging.Logger, metrics *monitoring.Metrics) *SurfaceHandler {
	return &SurfaceHandler{
		router:   rt,
		registry: registry,
		log:      log,
		metrics:  metrics,
	}
}

// HandleConnection upgrades the connection and routes bytes until the
// surface disconnects or the session exits.
func (h *SurfaceHandler) HandleConnection(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := h.registry.Get(sessionID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	surf := &surface{
		id:   id.NewSurfaceID(),
		conn: conn,
	}
	h.router.Attach(sessionID, surf)
	defer h.router.Detach(sessionID, surf)

	// The session may have exited between the liveness check and the
	// attach. Its exit notice has already been routed, so deliver it
	// here; otherwise the surface would idle without ever learning.
	if _, err := h.registry.Get(sessionID); err != nil {
		surf.SessionExited()
	}

	if h.metrics != nil {
		h.metrics.SurfaceConnected()
		defer h.metrics.SurfaceDisconnected()
	}
	h.log.Info("Surface attached",
		zap.String("surface_id", surf.id.String()),
		zap.String("session_id", sessionID),
	)

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			h.log.Debug("Surface read ended",
				zap.String("surface_id", surf.id.String()), zap.Error(err))
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			// Raw keystrokes, forwarded untouched.
			h.forwardInput(surf, sessionID, payload)
		case websocket.TextMessage:
			var msg controlMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				surf.writeJSON(controlMessage{Type: "error", Data: "malformed control message"})
				continue
			}
			h.handleControl(surf, sessionID, msg)
		}
	}
}

func (h *SurfaceHandler) handleControl(surf *surface, sessionID string, msg controlMessage) {
	switch msg.Type {
	case "input":
		h.forwardInput(surf, sessionID, []byte(msg.Data))
	case "resize":
		if err := h.registry.Resize(sessionID, msg.Cols, msg.Rows); err != nil {
			surf.writeJSON(controlMessage{Type: "error", Data: err.Error()})
		}
	case "ping":
		surf.writeJSON(controlMessage{Type: "pong"})
	default:
		surf.writeJSON(controlMessage{Type: "error", Data: "unknown message type"})
	}
}

func (h *SurfaceHandler) forwardInput(surf *surface, sessionID string, data []byte) {
	if err := h.router.Input(sessionID, data); err != nil {
		surf.writeJSON(controlMessage{Type: "error", Data: err.Error()})
	}
}

// surface adapts one WebSocket connection to router.Surface. gorilla
// connections allow a single concurrent writer, hence the mutex.
type surface struct {
	id   id.SurfaceID
	conn *websocket.Conn
	mu   sync.Mutex
}

// WriteOutput sends session output as a binary frame.
func (s *surface) WriteOutput(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

// SessionExited tells the surface to render an exited state rather than
// going blank.
func (s *surface) SessionExited() {
	s.writeJSON(controlMessage{Type: "exited"})
}

func (s *surface) writeJSON(msg controlMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.WriteJSON(msg)
}
