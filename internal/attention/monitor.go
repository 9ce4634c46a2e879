package attention

import (
	"sync"
	"time"
)

// FocusView answers which visible pane a session is bound to and which
// pane currently holds focus.
type FocusView interface {
	PaneFor(sessionID string) (int, bool)
	Focused() int
}

// CueFunc is invoked once per flash, outside the monitor's lock.
type CueFunc func(pane int)

// State is the externally visible per-pane attention state.
type State struct {
	Pane         int       `json:"pane"`
	Flashing     bool      `json:"flashing"`
	LastOutputAt time.Time `json:"last_output_at"`
}

type paneState struct {
	flashing     bool
	lastOutputAt time.Time
	gen          uint64
	timer        *time.Timer
}

// Monitor raises a one-shot attention cue when a background pane's
// session produces output. An active flash absorbs further output for
// the same pane (debounce); the flash clears after a fixed duration or
// as soon as the pane gains focus or is acknowledged.
type Monitor struct {
	view     FocusView
	cue      CueFunc
	duration time.Duration

	mu    sync.Mutex
	panes map[int]*paneState
}

// NewMonitor creates a monitor with the given flash duration.
func NewMonitor(view FocusView, duration time.Duration) *Monitor {
	return &Monitor{
		view:     view,
		duration: duration,
		panes:    make(map[int]*paneState),
	}
}

// SetCue registers the flash cue callback.
func (m *Monitor) SetCue(cue CueFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cue = cue
}

// SessionOutput implements terminal.Sink. Output bound to an unfocused
// pane starts a flash unless one is already in progress.
func (m *Monitor) SessionOutput(sessionID string, _ []byte) {
	// Query the layout before taking our lock; the coordinator invokes
	// PaneFocused under its own lock and the order must not invert.
	pane, visible := m.view.PaneFor(sessionID)
	if !visible {
		return
	}
	focused := m.view.Focused() == pane

	m.mu.Lock()
	st := m.panes[pane]
	if st == nil {
		st = &paneState{}
		m.panes[pane] = st
	}
	st.lastOutputAt = time.Now()

	if focused || st.flashing {
		m.mu.Unlock()
		return
	}

	st.flashing = true
	st.gen++
	gen := st.gen
	st.timer = time.AfterFunc(m.duration, func() { m.expire(pane, gen) })
	cue := m.cue
	m.mu.Unlock()

	if cue != nil {
		cue(pane)
	}
}

// SessionExit implements terminal.Sink; exits raise no cue.
func (m *Monitor) SessionExit(string) {}

// PaneFocused clears any active flash for the pane. Wired to the layout
// coordinator's focus-change hook.
func (m *Monitor) PaneFocused(pane int) {
	m.clear(pane)
}

// Ack clears any active flash for the pane on explicit user
// acknowledgement.
func (m *Monitor) Ack(pane int) {
	m.clear(pane)
}

// Flashing reports whether the pane currently flashes.
func (m *Monitor) Flashing(pane int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.panes[pane]
	return st != nil && st.flashing
}

// States returns attention state for every pane seen so far.
func (m *Monitor) States() []State {
	m.mu.Lock()
	defer m.mu.Unlock()
	states := make([]State, 0, len(m.panes))
	for pane, st := range m.panes {
		states = append(states, State{
			Pane:         pane,
			Flashing:     st.flashing,
			LastOutputAt: st.lastOutputAt,
		})
	}
	return states
}

// Reset drops all attention state. Called when the layout is torn down.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.panes {
		if st.timer != nil {
			st.timer.Stop()
		}
	}
	m.panes = make(map[int]*paneState)
}

func (m *Monitor) clear(pane int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.panes[pane]
	if st == nil || !st.flashing {
		return
	}
	st.flashing = false
	st.gen++
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
}

// expire auto-clears a flash after the fixed duration. The generation
// check discards timers superseded by an earlier clear.
func (m *Monitor) expire(pane int, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.panes[pane]
	if st == nil || st.gen != gen {
		return
	}
	st.flashing = false
	st.timer = nil
}
