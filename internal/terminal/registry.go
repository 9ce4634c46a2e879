package terminal

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/termdeck/termdeck/internal/infrastructure/logging"
	"github.com/termdeck/termdeck/internal/infrastructure/monitoring"
)

// Config holds spawn defaults applied to every session.
type Config struct {
	Shell      string
	WorkingDir string
	Env        map[string]string
	Cols       int
	Rows       int
}

// Registry owns the live session table and the auto-id counter. All
// process handles are private to it; other components hold session ids
// only.
type Registry struct {
	spawner Spawner
	cfg     Config
	log     *logging.Logger
	metrics *monitoring.Metrics

	mu       sync.Mutex
	sessions map[string]*Session
	next     int

	sinkMu sync.RWMutex
	sinks  []Sink
}

// NewRegistry creates an empty registry. The auto-id counter starts at 0.
func NewRegistry(spawner Spawner, cfg Config, log *logging.Logger) *Registry {
	return &Registry{
		spawner:  spawner,
		cfg:      cfg,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// WithMetrics attaches a metrics collector.
func (r *Registry) WithMetrics(m *monitoring.Metrics) *Registry {
	r.metrics = m
	return r
}

// AddSink registers an event consumer. Sinks added after a session was
// created receive only events produced from then on.
func (r *Registry) AddSink(s Sink) {
	r.sinkMu.Lock()
	defer r.sinkMu.Unlock()
	r.sinks = append(r.sinks, s)
}

// Available reports whether sessions can be spawned on this platform.
// A failure is non-fatal: the terminal feature is disabled, nothing else.
func (r *Registry) Available() error {
	return r.spawner.Available()
}

// Create spawns a shell session. An empty id assigns "term-<counter>",
// skipping counter values held by live caller-named sessions. A
// caller-supplied id that collides with a live session fails with
// ErrSessionExists; the counter is not consumed on failed spawns.
func (r *Registry) Create(id string) (Info, error) {
	if err := r.spawner.Available(); err != nil {
		return Info{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	auto := id == ""
	if auto {
		// Caller-named sessions may occupy counter slots; skip them so
		// an auto id never rebinds a live session.
		for {
			id = fmt.Sprintf("term-%d", r.next)
			if _, exists := r.sessions[id]; !exists {
				break
			}
			r.next++
		}
	} else if _, exists := r.sessions[id]; exists {
		return Info{}, fmt.Errorf("%w: %s", ErrSessionExists, id)
	}

	proc, err := r.spawner.Spawn(SpawnOptions{
		Shell:      r.cfg.Shell,
		WorkingDir: r.cfg.WorkingDir,
		Env:        r.cfg.Env,
		Cols:       r.cfg.Cols,
		Rows:       r.cfg.Rows,
	})
	if err != nil {
		r.log.Error("Session spawn failed", zap.String("session_id", id), zap.Error(err))
		return Info{}, err
	}
	if auto {
		r.next++
	}

	cols, rows := r.cfg.Cols, r.cfg.Rows
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}

	session := &Session{
		ID:        id,
		Shell:     proc.Shell(),
		StartedAt: time.Now(),
		proc:      proc,
		cols:      cols,
		rows:      rows,
		alive:     true,
	}
	r.sessions[id] = session

	readerDone := make(chan struct{})
	go r.readLoop(session, readerDone)
	go r.waitLoop(session, readerDone)

	if r.metrics != nil {
		r.metrics.SessionStarted()
	}
	r.log.Info("Session created",
		zap.String("session_id", id),
		zap.String("shell", session.Shell),
	)

	return session.info(), nil
}

// Write forwards raw input bytes to the session's shell. The shell owns
// echo and interpretation.
func (r *Registry) Write(id string, data []byte) error {
	session, err := r.lookup(id)
	if err != nil {
		return err
	}
	if _, err := session.proc.Write(data); err != nil {
		return err
	}
	if r.metrics != nil {
		r.metrics.AddInputBytes(len(data))
	}
	return nil
}

// Resize changes the session's terminal dimensions. Calling with the
// current dimensions is a no-op.
func (r *Registry) Resize(id string, cols, rows int) error {
	session, err := r.lookup(id)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.cols == cols && session.rows == rows {
		return nil
	}
	if err := session.proc.Resize(cols, rows); err != nil {
		return err
	}
	session.cols = cols
	session.rows = rows
	return nil
}

// Kill requests termination of the session's process. Removal from the
// registry happens when the exit event arrives, never here: until then
// the id stays visible and writable.
func (r *Registry) Kill(id string) error {
	session, err := r.lookup(id)
	if err != nil {
		return err
	}
	r.log.Info("Session kill requested", zap.String("session_id", id))
	return session.proc.Kill()
}

// KillAll requests termination of every live session, clears the table
// immediately, and resets the auto-id counter. This is the full reset
// used when the hosting window closes, not a graceful drain.
func (r *Registry) KillAll() {
	r.mu.Lock()
	doomed := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		doomed = append(doomed, s)
	}
	r.sessions = make(map[string]*Session)
	r.next = 0
	r.mu.Unlock()

	for _, s := range doomed {
		if err := s.proc.Kill(); err != nil {
			r.log.Warn("Kill failed during reset",
				zap.String("session_id", s.ID), zap.Error(err))
		}
	}
	r.log.Info("All sessions killed", zap.Int("count", len(doomed)))
}

// Get returns session info.
func (r *Registry) Get(id string) (Info, error) {
	session, err := r.lookup(id)
	if err != nil {
		return Info{}, err
	}
	return session.info(), nil
}

// List returns info for every live session.
func (r *Registry) List() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	infos := make([]Info, 0, len(r.sessions))
	for _, s := range r.sessions {
		infos = append(infos, s.info())
	}
	return infos
}

func (r *Registry) lookup(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return session, nil
}

// readLoop pumps the process output stream to the sinks. One goroutine
// per session keeps chunk order intact.
func (r *Registry) readLoop(s *Session, done chan<- struct{}) {
	defer close(done)
	buf := make([]byte, 4096)
	for {
		n, err := s.proc.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			r.publishOutput(s.ID, data)
			if r.metrics != nil {
				r.metrics.AddOutputBytes(n)
			}
		}
		if err != nil {
			return
		}
	}
}

// waitLoop reaps the process, waits for the reader to drain, then removes
// the session and publishes exit. Exit is therefore always observed after
// the session's final output chunk.
func (r *Registry) waitLoop(s *Session, readerDone <-chan struct{}) {
	waitErr := s.proc.Wait()
	<-readerDone

	s.mu.Lock()
	s.alive = false
	s.mu.Unlock()

	r.mu.Lock()
	// KillAll may already have replaced the table; only delete our entry.
	if current, ok := r.sessions[s.ID]; ok && current == s {
		delete(r.sessions, s.ID)
	}
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.SessionEnded()
	}
	r.log.Info("Session exited",
		zap.String("session_id", s.ID),
		zap.Error(waitErr),
	)
	r.publishExit(s.ID)
}

func (r *Registry) publishOutput(id string, data []byte) {
	r.sinkMu.RLock()
	sinks := r.sinks
	r.sinkMu.RUnlock()
	for _, s := range sinks {
		s.SessionOutput(id, data)
	}
}

func (r *Registry) publishExit(id string) {
	r.sinkMu.RLock()
	sinks := r.sinks
	r.sinkMu.RUnlock()
	for _, s := range sinks {
		s.SessionExit(id)
	}
}
