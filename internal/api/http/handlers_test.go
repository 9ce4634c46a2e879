package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termdeck/termdeck/internal/attention"
	"github.com/termdeck/termdeck/internal/infrastructure/logging"
	"github.com/termdeck/termdeck/internal/layout"
	"github.com/termdeck/termdeck/internal/terminal"
)

type stubProc struct {
	pr   *io.PipeReader
	pw   *io.PipeWriter
	mu   sync.Mutex
	in   bytes.Buffer
	done chan struct{}
	once sync.Once
}

func newStubProc() *stubProc {
	pr, pw := io.Pipe()
	return &stubProc{pr: pr, pw: pw, done: make(chan struct{})}
}

func (p *stubProc) Read(b []byte) (int, error) { return p.pr.Read(b) }

func (p *stubProc) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.in.Write(b)
}

func (p *stubProc) Resize(int, int) error { return nil }

func (p *stubProc) Kill() error {
	p.once.Do(func() {
		p.pw.Close()
		close(p.done)
	})
	return nil
}

func (p *stubProc) Wait() error {
	<-p.done
	return nil
}

func (p *stubProc) Shell() string { return "/bin/stub" }

func (p *stubProc) inputString() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.in.String()
}

type stubSpawner struct {
	mu           sync.Mutex
	procs        []*stubProc
	availableErr error
}

func (s *stubSpawner) Available() error { return s.availableErr }

func (s *stubSpawner) Spawn(terminal.SpawnOptions) (terminal.Proc, error) {
	p := newStubProc()
	s.mu.Lock()
	s.procs = append(s.procs, p)
	s.mu.Unlock()
	return p, nil
}

func (s *stubSpawner) proc(i int) *stubProc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.procs[i]
}

type testEnv struct {
	engine  *gin.Engine
	spawner *stubSpawner
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logging.NewNop()
	spawner := &stubSpawner{}
	registry := terminal.NewRegistry(spawner, terminal.Config{Cols: 80, Rows: 24}, log)
	coordinator := layout.NewCoordinator(registry, registry, log)
	monitor := attention.NewMonitor(coordinator, time.Hour)
	coordinator.SetOnFocusChange(monitor.PaneFocused)
	registry.AddSink(monitor)
	registry.AddSink(coordinator)

	handlers := NewHandlers(registry, coordinator, monitor, nil, log)

	engine := gin.New()
	engine.GET("/health", handlers.Health)
	engine.POST("/sessions", handlers.CreateSession)
	engine.GET("/sessions", handlers.ListSessions)
	engine.GET("/sessions/:id", handlers.GetSession)
	engine.POST("/sessions/:id/input", handlers.WriteSession)
	engine.POST("/sessions/:id/resize", handlers.ResizeSession)
	engine.DELETE("/sessions/:id", handlers.KillSession)
	engine.DELETE("/sessions", handlers.KillAllSessions)
	engine.GET("/layout", handlers.GetLayout)
	engine.PUT("/layout", handlers.SetLayout)
	engine.POST("/layout/focus", handlers.Focus)
	engine.GET("/attention", handlers.GetAttention)
	engine.POST("/attention/:pane/ack", handlers.AckAttention)

	return &testEnv{engine: engine, spawner: spawner}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	env := setup(t)
	w := env.do(t, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestCreateSessionAutoIDs(t *testing.T) {
	env := setup(t)

	w := env.do(t, "POST", "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "term-0", decode(t, w)["id"])

	w = env.do(t, "POST", "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "term-1", decode(t, w)["id"])
}

func TestCreateSessionExplicitIDConflict(t *testing.T) {
	env := setup(t)

	w := env.do(t, "POST", "/sessions", gin.H{"id": "main"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, "POST", "/sessions", gin.H{"id": "main"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateSessionCapabilityUnavailable(t *testing.T) {
	env := setup(t)
	env.spawner.availableErr = terminal.ErrCapabilityUnavailable

	w := env.do(t, "POST", "/sessions", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = env.do(t, "GET", "/health", nil)
	assert.Equal(t, "degraded", decode(t, w)["status"])
}

func TestWriteSession(t *testing.T) {
	env := setup(t)
	env.do(t, "POST", "/sessions", nil)

	w := env.do(t, "POST", "/sessions/term-0/input", gin.H{"data": "echo hi\n"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "echo hi\n", env.spawner.proc(0).inputString())
}

func TestWriteUnknownSession(t *testing.T) {
	env := setup(t)

	w := env.do(t, "POST", "/sessions/ghost/input", gin.H{"data": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResizeSession(t *testing.T) {
	env := setup(t)
	env.do(t, "POST", "/sessions", nil)

	w := env.do(t, "POST", "/sessions/term-0/resize", gin.H{"cols": 120, "rows": 40})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "POST", "/sessions/ghost/resize", gin.H{"cols": 120, "rows": 40})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestKillSessionEventuallyNotFound(t *testing.T) {
	env := setup(t)
	env.do(t, "POST", "/sessions", nil)

	w := env.do(t, "DELETE", "/sessions/term-0", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	require.Eventually(t, func() bool {
		return env.do(t, "GET", "/sessions/term-0", nil).Code == http.StatusNotFound
	}, time.Second, 5*time.Millisecond)
}

func TestKillAllResetsAutoID(t *testing.T) {
	env := setup(t)
	env.do(t, "POST", "/sessions", nil)
	env.do(t, "POST", "/sessions", nil)

	w := env.do(t, "DELETE", "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "GET", "/sessions", nil)
	assert.Equal(t, float64(0), decode(t, w)["count"])

	w = env.do(t, "POST", "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "term-0", decode(t, w)["id"])
}

func TestLayoutTransitions(t *testing.T) {
	env := setup(t)

	w := env.do(t, "PUT", "/layout", gin.H{"mode": "four"})
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode(t, w)
	assert.Len(t, snap["panes"], 4)

	w = env.do(t, "PUT", "/layout", gin.H{"mode": "two-horizontal"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["panes"], 2)

	w = env.do(t, "PUT", "/layout", gin.H{"mode": "diagonal"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFourToSinglePreservesIndexZeroBinding(t *testing.T) {
	env := setup(t)

	w := env.do(t, "PUT", "/layout", gin.H{"mode": "four"})
	require.Equal(t, http.StatusOK, w.Code)
	panes := decode(t, w)["panes"].([]any)
	first := panes[0].(map[string]any)["session_id"]

	w = env.do(t, "PUT", "/layout", gin.H{"mode": "single"})
	require.Equal(t, http.StatusOK, w.Code)
	panes = decode(t, w)["panes"].([]any)
	assert.Equal(t, first, panes[0].(map[string]any)["session_id"])
}

func TestFocusEndpoints(t *testing.T) {
	env := setup(t)
	env.do(t, "PUT", "/layout", gin.H{"mode": "four"})

	w := env.do(t, "POST", "/layout/focus", gin.H{"direction": "next"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["focus"])

	pane := 3
	w = env.do(t, "POST", "/layout/focus", gin.H{"pane": pane})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decode(t, w)["focus"])

	pane = 9
	w = env.do(t, "POST", "/layout/focus", gin.H{"pane": pane})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "POST", "/layout/focus", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttentionFlow(t *testing.T) {
	env := setup(t)
	env.do(t, "PUT", "/layout", gin.H{"mode": "two-horizontal"})

	// Simulate background output on the unfocused pane's session.
	env.spawner.proc(1).pw.Write([]byte("build done\n"))

	require.Eventually(t, func() bool {
		w := env.do(t, "GET", "/attention", nil)
		panes, _ := decode(t, w)["panes"].([]any)
		for _, p := range panes {
			st := p.(map[string]any)
			if st["pane"] == float64(1) && st["flashing"] == true {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	w := env.do(t, "POST", "/attention/1/ack", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "GET", "/attention", nil)
	for _, p := range decode(t, w)["panes"].([]any) {
		st := p.(map[string]any)
		if st["pane"] == float64(1) {
			assert.Equal(t, false, st["flashing"])
		}
	}
}

func TestAckInvalidPaneParam(t *testing.T) {
	env := setup(t)
	w := env.do(t, "POST", "/attention/x/ack", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFocusClearsFlash(t *testing.T) {
	env := setup(t)
	env.do(t, "PUT", "/layout", gin.H{"mode": "two-horizontal"})

	env.spawner.proc(1).pw.Write([]byte("ping\n"))
	require.Eventually(t, func() bool {
		w := env.do(t, "GET", "/attention", nil)
		for _, p := range decode(t, w)["panes"].([]any) {
			st := p.(map[string]any)
			if st["pane"] == float64(1) && st["flashing"] == true {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	pane := 1
	w := env.do(t, "POST", "/layout/focus", gin.H{"pane": pane})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "GET", "/attention", nil)
	for _, p := range decode(t, w)["panes"].([]any) {
		st := p.(map[string]any)
		if st["pane"] == float64(1) {
			assert.Equal(t, false, st["flashing"])
		}
	}
}
