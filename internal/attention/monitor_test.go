package attention

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeView struct {
	mu      sync.Mutex
	panes   map[string]int
	focused int
}

func newFakeView() *fakeView {
	return &fakeView{panes: map[string]int{
		"term-0": 0,
		"term-1": 1,
		"term-2": 2,
		"term-3": 3,
	}}
}

func (v *fakeView) PaneFor(sessionID string) (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	pane, ok := v.panes[sessionID]
	return pane, ok
}

func (v *fakeView) Focused() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.focused
}

func (v *fakeView) focus(pane int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.focused = pane
}

type cueRecorder struct {
	mu   sync.Mutex
	cues []int
}

func (r *cueRecorder) cue(pane int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = append(r.cues, pane)
}

func (r *cueRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cues)
}

func TestBackgroundOutputStartsFlash(t *testing.T) {
	view := newFakeView()
	rec := &cueRecorder{}
	m := NewMonitor(view, time.Hour)
	m.SetCue(rec.cue)

	// Pane 0 is focused; output on pane 1 flashes.
	m.SessionOutput("term-1", []byte("done\n"))

	assert.True(t, m.Flashing(1))
	assert.Equal(t, 1, rec.count())
}

func TestFocusedPaneNeverFlashes(t *testing.T) {
	view := newFakeView()
	rec := &cueRecorder{}
	m := NewMonitor(view, time.Hour)
	m.SetCue(rec.cue)

	m.SessionOutput("term-0", []byte("x"))

	assert.False(t, m.Flashing(0))
	assert.Zero(t, rec.count())
}

func TestUnboundSessionIgnored(t *testing.T) {
	view := newFakeView()
	m := NewMonitor(view, time.Hour)

	m.SessionOutput("term-99", []byte("x"))

	assert.Empty(t, m.States())
}

func TestDebounceAbsorbsBursts(t *testing.T) {
	view := newFakeView()
	rec := &cueRecorder{}
	m := NewMonitor(view, 100*time.Millisecond)
	m.SetCue(rec.cue)

	m.SessionOutput("term-1", []byte("a"))
	time.Sleep(50 * time.Millisecond)
	// A second event inside the flash window neither re-cues nor
	// extends the timer.
	m.SessionOutput("term-1", []byte("b"))

	assert.Equal(t, 1, rec.count())
	require.Eventually(t, func() bool { return !m.Flashing(1) },
		200*time.Millisecond, 5*time.Millisecond,
		"flash must expire on the original deadline")
}

func TestFlashAutoClearsAndRetriggers(t *testing.T) {
	view := newFakeView()
	rec := &cueRecorder{}
	m := NewMonitor(view, 30*time.Millisecond)
	m.SetCue(rec.cue)

	m.SessionOutput("term-2", []byte("first"))
	require.Eventually(t, func() bool { return !m.Flashing(2) },
		time.Second, 5*time.Millisecond)

	// A fresh quiet period means a fresh cue.
	m.SessionOutput("term-2", []byte("second"))
	assert.True(t, m.Flashing(2))
	assert.Equal(t, 2, rec.count())
}

func TestFocusClearsImmediately(t *testing.T) {
	view := newFakeView()
	m := NewMonitor(view, time.Hour)

	m.SessionOutput("term-3", []byte("x"))
	require.True(t, m.Flashing(3))

	view.focus(3)
	m.PaneFocused(3)

	assert.False(t, m.Flashing(3))
}

func TestAckClears(t *testing.T) {
	view := newFakeView()
	m := NewMonitor(view, time.Hour)

	m.SessionOutput("term-1", []byte("x"))
	require.True(t, m.Flashing(1))

	m.Ack(1)
	assert.False(t, m.Flashing(1))
}

func TestClearThenExpiredTimerIsHarmless(t *testing.T) {
	view := newFakeView()
	m := NewMonitor(view, 20*time.Millisecond)

	m.SessionOutput("term-1", []byte("x"))
	m.Ack(1)

	// New flash right after the ack; the stale timer from the first
	// flash must not clear it early.
	m.SessionOutput("term-1", []byte("y"))
	time.Sleep(10 * time.Millisecond)
	assert.True(t, m.Flashing(1))
}

func TestStates(t *testing.T) {
	view := newFakeView()
	m := NewMonitor(view, time.Hour)

	before := time.Now()
	m.SessionOutput("term-1", []byte("x"))
	m.SessionOutput("term-0", []byte("y"))

	states := m.States()
	require.Len(t, states, 2)
	for _, st := range states {
		assert.False(t, st.LastOutputAt.Before(before))
		if st.Pane == 1 {
			assert.True(t, st.Flashing)
		} else {
			assert.False(t, st.Flashing)
		}
	}
}

func TestReset(t *testing.T) {
	view := newFakeView()
	m := NewMonitor(view, time.Hour)

	m.SessionOutput("term-1", []byte("x"))
	m.Reset()

	assert.Empty(t, m.States())
	assert.False(t, m.Flashing(1))
}
