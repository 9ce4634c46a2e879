package router

import (
	"sync"

	"go.uber.org/zap"

	"github.com/termdeck/termdeck/internal/infrastructure/logging"
)

// Surface is one display endpoint rendering a session's byte stream.
// WriteOutput receives raw bytes in production order; SessionExited is
// called once, after the final output, so the surface can show an
// "exited" state instead of going blank.
type Surface interface {
	WriteOutput(data []byte) error
	SessionExited()
}

// SessionWriter forwards input bytes to a session.
type SessionWriter interface {
	Write(sessionID string, data []byte) error
}

// Router connects sessions to display surfaces. It holds routing
// references only, never process handles. It implements terminal.Sink.
type Router struct {
	writer SessionWriter
	log    *logging.Logger

	mu       sync.RWMutex
	surfaces map[string][]Surface
}

// New creates a router forwarding input through the given writer.
func New(writer SessionWriter, log *logging.Logger) *Router {
	return &Router{
		writer:   writer,
		log:      log,
		surfaces: make(map[string][]Surface),
	}
}

// Attach subscribes a surface to a session's output. A session may have
// several surfaces; each receives the full stream in order.
func (r *Router) Attach(sessionID string, s Surface) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surfaces[sessionID] = append(r.surfaces[sessionID], s)
}

// Detach unsubscribes a surface.
func (r *Router) Detach(sessionID string, s Surface) {
	r.mu.Lock()
	defer r.mu.Unlock()
	attached := r.surfaces[sessionID]
	for i, existing := range attached {
		if existing == s {
			r.surfaces[sessionID] = append(attached[:i:i], attached[i+1:]...)
			break
		}
	}
	if len(r.surfaces[sessionID]) == 0 {
		delete(r.surfaces, sessionID)
	}
}

// Input forwards raw keystroke bytes to the session. No interpretation,
// echo, or buffering happens here; echo is the shell's responsibility.
func (r *Router) Input(sessionID string, data []byte) error {
	return r.writer.Write(sessionID, data)
}

// SessionOutput delivers session output to every attached surface.
// Called from the session's reader goroutine, preserving chunk order.
func (r *Router) SessionOutput(sessionID string, data []byte) {
	r.mu.RLock()
	attached := r.surfaces[sessionID]
	r.mu.RUnlock()
	for _, s := range attached {
		if err := s.WriteOutput(data); err != nil {
			r.log.Debug("Surface write failed",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}
}

// SessionExit notifies attached surfaces and drops their subscriptions.
func (r *Router) SessionExit(sessionID string) {
	r.mu.Lock()
	attached := r.surfaces[sessionID]
	delete(r.surfaces, sessionID)
	r.mu.Unlock()
	for _, s := range attached {
		s.SessionExited()
	}
}
