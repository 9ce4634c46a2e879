package layout

import (
	"sync"

	"go.uber.org/zap"

	"github.com/termdeck/termdeck/internal/infrastructure/logging"
	"github.com/termdeck/termdeck/internal/terminal"
)

// SessionFactory creates sessions for newly visible panes.
type SessionFactory interface {
	Create(id string) (terminal.Info, error)
}

// SessionKiller tears down every session at once.
type SessionKiller interface {
	KillAll()
}

// Coordinator arranges panes, maps each visible pane to a session id,
// and tracks input focus. Exactly one pane holds focus at any time.
//
// Rebinding policy on mode changes is strict index mapping: pane i is
// always bound to the session most recently bound at index i. Shrinking
// parks sessions of removed panes instead of killing them; growing back
// reclaims the parked session for that index before creating a new one.
type Coordinator struct {
	factory SessionFactory
	killer  SessionKiller
	log     *logging.Logger

	mu    sync.Mutex
	mode  Mode
	focus int

	// bindings maps pane index to its live session id, parked indexes
	// included; exited maps a visible pane index to the id of its
	// exited session; bound is the reverse of bindings.
	bindings map[int]string
	exited   map[int]string
	bound    map[string]int

	onFocus func(pane int)
}

// NewCoordinator starts in Single mode with pane 0 focused and no
// session bound; the first EnsureSessions or SetMode binds sessions.
func NewCoordinator(factory SessionFactory, killer SessionKiller, log *logging.Logger) *Coordinator {
	return &Coordinator{
		factory:  factory,
		killer:   killer,
		log:      log,
		mode:     Single,
		bindings: make(map[int]string),
		exited:   make(map[int]string),
		bound:    make(map[string]int),
	}
}

// SetOnFocusChange registers a hook invoked with the newly focused pane
// index after every focus transition.
func (c *Coordinator) SetOnFocusChange(fn func(pane int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFocus = fn
}

// SetMode transitions the layout and ensures every visible pane has a
// live session, creating missing ones through the registry. Focus is
// kept when the focused index survives the transition, else pane 0.
func (c *Coordinator) SetMode(mode Mode) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.mode
	c.mode = mode
	if c.focus >= mode.PaneCount() {
		c.setFocusLocked(0)
	}
	if err := c.ensureLocked(); err != nil {
		return c.snapshotLocked(), err
	}
	if prev != mode {
		c.log.Info("Layout changed",
			zap.String("from", string(prev)),
			zap.String("to", string(mode)),
		)
	}
	return c.snapshotLocked(), nil
}

// EnsureSessions creates sessions for visible panes that have none,
// without changing the mode. The hosting UI calls this once at startup
// to bind the first session.
func (c *Coordinator) EnsureSessions() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.ensureLocked()
	return c.snapshotLocked(), err
}

// Focus moves input focus to an explicit pane index.
func (c *Coordinator) Focus(pane int) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pane < 0 || pane >= c.mode.PaneCount() {
		return c.snapshotLocked(), ErrNoSuchPane
	}
	c.setFocusLocked(pane)
	return c.snapshotLocked(), nil
}

// FocusNext moves focus to the next pane index modulo the pane count.
func (c *Coordinator) FocusNext() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setFocusLocked((c.focus + 1) % c.mode.PaneCount())
	return c.snapshotLocked()
}

// FocusPrev moves focus to the previous pane index modulo the pane count.
func (c *Coordinator) FocusPrev() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := c.mode.PaneCount()
	c.setFocusLocked((c.focus + count - 1) % count)
	return c.snapshotLocked()
}

// Snapshot returns the current layout state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Focused returns the focused pane index.
func (c *Coordinator) Focused() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focus
}

// PaneFor returns the visible pane bound to the session, if any.
// Parked sessions have no visible pane.
func (c *Coordinator) PaneFor(sessionID string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pane, ok := c.bound[sessionID]
	if !ok || pane >= c.mode.PaneCount() {
		return 0, false
	}
	return pane, true
}

// CloseWindow tears everything down: all sessions are killed, bindings
// dropped, and the layout reset to a single unfocused-fresh pane. This
// is the hosting window's close handler.
func (c *Coordinator) CloseWindow() {
	c.mu.Lock()
	c.mode = Single
	c.focus = 0
	c.bindings = make(map[int]string)
	c.exited = make(map[int]string)
	c.bound = make(map[string]int)
	c.mu.Unlock()

	c.killer.KillAll()
	c.log.Info("Terminal window closed, all sessions torn down")
}

// SessionOutput implements terminal.Sink; layout does not consume output.
func (c *Coordinator) SessionOutput(string, []byte) {}

// SessionExit drops the binding of an exited session. A visible pane
// keeps showing the id with an exited marker until the next ensure
// replaces it; a parked binding is silently discarded.
func (c *Coordinator) SessionExit(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pane, ok := c.bound[sessionID]
	if !ok {
		return
	}
	delete(c.bound, sessionID)
	delete(c.bindings, pane)
	if pane < c.mode.PaneCount() {
		c.exited[pane] = sessionID
	}
}

func (c *Coordinator) ensureLocked() error {
	for i := 0; i < c.mode.PaneCount(); i++ {
		if _, ok := c.bindings[i]; ok {
			continue
		}
		info, err := c.factory.Create("")
		if err != nil {
			return err
		}
		c.bindings[i] = info.ID
		c.bound[info.ID] = i
		delete(c.exited, i)
	}
	return nil
}

func (c *Coordinator) setFocusLocked(pane int) {
	if c.focus == pane {
		return
	}
	c.focus = pane
	if c.onFocus != nil {
		c.onFocus(pane)
	}
}

func (c *Coordinator) snapshotLocked() Snapshot {
	count := c.mode.PaneCount()
	panes := make([]Pane, count)
	for i := 0; i < count; i++ {
		panes[i] = Pane{
			Index:   i,
			Focused: i == c.focus,
		}
		if id, ok := c.bindings[i]; ok {
			panes[i].SessionID = id
		} else if id, ok := c.exited[i]; ok {
			panes[i].SessionID = id
			panes[i].Exited = true
		}
	}
	return Snapshot{Mode: c.mode, Focus: c.focus, Panes: panes}
}
