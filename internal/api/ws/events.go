package ws

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/termdeck/termdeck/internal/infrastructure/logging"
	"github.com/termdeck/termdeck/internal/infrastructure/monitoring"
	"github.com/termdeck/termdeck/internal/shared/id"
)

// Feed broadcasts host-level events (session lifecycle, layout changes,
// attention cues) to connected UI clients. It implements terminal.Sink
// for exit events and the handlers' Events interface for the rest.
type Feed struct {
	log     *logging.Logger
	metrics *monitoring.Metrics

	mu      sync.RWMutex
	clients map[id.FeedClientID]*feedClient
}

type feedClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *feedClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// NewFeed creates an empty event feed.
func NewFeed(log *logging.Logger, metrics *monitoring.Metrics) *Feed {
	return &Feed{
		log:     log,
		metrics: metrics,
		clients: make(map[id.FeedClientID]*feedClient),
	}
}

// HandleConnection upgrades a host UI client and keeps it registered
// until it disconnects. The feed is one-way; inbound frames are
// drained and ignored except for close handling.
func (f *Feed) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		f.log.Warn("Event feed upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	clientID := id.NewFeedClientID()
	client := &feedClient{conn: conn}

	f.mu.Lock()
	f.clients[clientID] = client
	f.mu.Unlock()
	if f.metrics != nil {
		f.metrics.FeedClientConnected()
	}
	f.log.Info("Event feed client connected", zap.String("client_id", clientID.String()))

	client.writeJSON(gin.H{
		"event":     "connected",
		"client_id": clientID.String(),
		"timestamp": time.Now().Unix(),
	})

	defer func() {
		f.mu.Lock()
		delete(f.clients, clientID)
		f.mu.Unlock()
		if f.metrics != nil {
			f.metrics.FeedClientDisconnected()
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Publish broadcasts one event to every connected client.
func (f *Feed) Publish(event string, payload gin.H) {
	msg := gin.H{
		"event":     event,
		"timestamp": time.Now().Unix(),
	}
	for k, v := range payload {
		msg[k] = v
	}

	f.mu.RLock()
	clients := make([]*feedClient, 0, len(f.clients))
	for _, c := range f.clients {
		clients = append(clients, c)
	}
	f.mu.RUnlock()

	for _, c := range clients {
		if err := c.writeJSON(msg); err != nil {
			f.log.Debug("Event feed write failed", zap.Error(err))
		}
	}
}

// SessionOutput implements terminal.Sink; raw output does not go to the
// host feed, only to attached surfaces.
func (f *Feed) SessionOutput(string, []byte) {}

// SessionExit implements terminal.Sink.
func (f *Feed) SessionExit(sessionID string) {
	f.Publish("session_exited", gin.H{"id": sessionID})
}
