package terminal

import (
	"sync"
	"time"
)

// Session represents one live shell session.
type Session struct {
	ID        string
	Shell     string
	StartedAt time.Time

	proc Proc

	mu    sync.RWMutex
	cols  int
	rows  int
	alive bool
}

// Info is the public representation of a session.
type Info struct {
	ID        string    `json:"id"`
	Shell     string    `json:"shell"`
	Cols      int       `json:"cols"`
	Rows      int       `json:"rows"`
	StartedAt time.Time `json:"started_at"`
	Alive     bool      `json:"alive"`
}

func (s *Session) info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Info{
		ID:        s.ID,
		Shell:     s.Shell,
		Cols:      s.cols,
		Rows:      s.rows,
		StartedAt: s.StartedAt,
		Alive:     s.alive,
	}
}

// Sink consumes session events. SessionOutput is invoked from the
// session's reader goroutine, so per-session calls are ordered;
// implementations must not block for long. SessionExit for a session is
// invoked after its final SessionOutput.
type Sink interface {
	SessionOutput(sessionID string, data []byte)
	SessionExit(sessionID string)
}
