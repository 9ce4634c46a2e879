package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/termdeck/termdeck/internal/attention"
	"github.com/termdeck/termdeck/internal/infrastructure/logging"
	"github.com/termdeck/termdeck/internal/layout"
	"github.com/termdeck/termdeck/internal/terminal"
)

// Events publishes host-visible events; implemented by the ws feed.
type Events interface {
	Publish(event string, payload gin.H)
}

// Handlers contains all HTTP handlers of the control plane.
type Handlers struct {
	registry    *terminal.Registry
	coordinator *layout.Coordinator
	monitor     *attention.Monitor
	events      Events
	log         *logging.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(
	registry *terminal.Registry,
	coordinator *layout.Coordinator,
	monitor *attention.Monitor,
	events Events,
	log *logging.Logger,
) *Handlers {
	return &Handlers{
		registry:    registry,
		coordinator: coordinator,
		monitor:     monitor,
		events:      events,
		log:         log,
	}
}

// Root handles the service banner.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "termdeck",
		"version": "0.3.0",
	})
}

// Health handles the health check. A missing pty capability degrades the
// service without failing it.
func (h *Handlers) Health(c *gin.Context) {
	status := "healthy"
	pty := gin.H{"available": true}
	if err := h.registry.Available(); err != nil {
		status = "degraded"
		pty = gin.H{"available": false, "error": err.Error()}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"sessions": len(h.registry.List()),
		"layout":   h.coordinator.Snapshot().Mode,
		"pty":      pty,
	})
}

type createSessionRequest struct {
	ID string `json:"id"`
}

// CreateSession spawns a new shell session, optionally with a
// caller-supplied id.
func (h *Handlers) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	info, err := h.registry.Create(req.ID)
	if err != nil {
		h.sessionError(c, err)
		return
	}

	h.publish("session_created", gin.H{"id": info.ID, "shell": info.Shell})
	c.JSON(http.StatusCreated, info)
}

// ListSessions lists all live sessions.
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.registry.List()
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSession returns one session's info.
func (h *Handlers) GetSession(c *gin.Context) {
	info, err := h.registry.Get(c.Param("id"))
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

type writeSessionRequest struct {
	Data string `json:"data" binding:"required"`
}

// WriteSession forwards input bytes to a session.
func (h *Handlers) WriteSession(c *gin.Context) {
	var req writeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.registry.Write(c.Param("id"), []byte(req.Data)); err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type resizeSessionRequest struct {
	Cols int `json:"cols" binding:"required"`
	Rows int `json:"rows" binding:"required"`
}

// ResizeSession changes a session's terminal dimensions.
func (h *Handlers) ResizeSession(c *gin.Context) {
	var req resizeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.registry.Resize(c.Param("id"), req.Cols, req.Rows); err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// KillSession requests termination of one session. Removal from the
// registry follows the exit event, so the response is 202.
func (h *Handlers) KillSession(c *gin.Context) {
	if err := h.registry.Kill(c.Param("id")); err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true})
}

// KillAllSessions tears down every session and resets the registry.
// This is the hosting window's close trigger.
func (h *Handlers) KillAllSessions(c *gin.Context) {
	h.coordinator.CloseWindow()
	h.monitor.Reset()
	h.publish("window_closed", gin.H{})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetLayout returns the current layout snapshot.
func (h *Handlers) GetLayout(c *gin.Context) {
	c.JSON(http.StatusOK, h.coordinator.Snapshot())
}

type setLayoutRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// SetLayout transitions the layout mode, creating sessions for newly
// visible panes.
func (h *Handlers) SetLayout(c *gin.Context) {
	var req setLayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mode, err := layout.ParseMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.coordinator.SetMode(mode)
	if err != nil {
		h.log.Error("Layout transition failed", zap.Error(err))
		h.sessionError(c, err)
		return
	}

	h.publish("layout_changed", gin.H{"mode": snap.Mode, "focus": snap.Focus})
	c.JSON(http.StatusOK, snap)
}

type focusRequest struct {
	Pane      *int   `json:"pane"`
	Direction string `json:"direction"`
}

// Focus moves input focus to an explicit pane or in a direction
// ("next"/"prev").
func (h *Handlers) Focus(c *gin.Context) {
	var req focusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var snap layout.Snapshot
	switch {
	case req.Pane != nil:
		var err error
		snap, err = h.coordinator.Focus(*req.Pane)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	case req.Direction == "next":
		snap = h.coordinator.FocusNext()
	case req.Direction == "prev":
		snap = h.coordinator.FocusPrev()
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "pane or direction required"})
		return
	}

	h.publish("focus_changed", gin.H{"focus": snap.Focus})
	c.JSON(http.StatusOK, snap)
}

// GetAttention returns per-pane flash state.
func (h *Handlers) GetAttention(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"panes": h.monitor.States()})
}

// AckAttention clears a pane's flash on user acknowledgement.
func (h *Handlers) AckAttention(c *gin.Context) {
	var pane int
	if err := bindPaneParam(c, &pane); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.monitor.Ack(pane)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handlers) publish(event string, payload gin.H) {
	if h.events != nil {
		h.events.Publish(event, payload)
	}
}

// sessionError maps the session error taxonomy onto HTTP statuses.
func (h *Handlers) sessionError(c *gin.Context, err error) {
	var spawnErr *terminal.SpawnError
	switch {
	case errors.Is(err, terminal.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, terminal.ErrSessionExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, terminal.ErrCapabilityUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.As(err, &spawnErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
