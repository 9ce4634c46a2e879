package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/termdeck/termdeck/internal/api/http"
	"github.com/termdeck/termdeck/internal/api/middleware"
	"github.com/termdeck/termdeck/internal/api/ws"
	"github.com/termdeck/termdeck/internal/attention"
	"github.com/termdeck/termdeck/internal/infrastructure/config"
	"github.com/termdeck/termdeck/internal/infrastructure/logging"
	"github.com/termdeck/termdeck/internal/infrastructure/monitoring"
	"github.com/termdeck/termdeck/internal/layout"
	"github.com/termdeck/termdeck/internal/router"
	"github.com/termdeck/termdeck/internal/terminal"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	engine      *gin.Engine
	registry    *terminal.Registry
	coordinator *layout.Coordinator
	monitor     *attention.Monitor
	logger      *logging.Logger
	config      *config.Config
	metrics     *monitoring.Metrics
}

// NewServer creates a fully wired server instance.
func NewServer(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing termdeck",
		zap.String("port", cfg.Server.Port),
		zap.Duration("flash_duration", cfg.Attention.FlashDuration.Std()),
	)

	metrics := monitoring.NewMetrics()

	spawner := terminal.NewPTYSpawner()
	if err := spawner.Available(); err != nil {
		// Non-fatal: the control plane still serves, creation returns 503.
		logger.Warn("Pseudo-terminal capability unavailable, terminal feature disabled",
			zap.Error(err))
	}

	registry := terminal.NewRegistry(spawner, terminal.Config{
		Shell:      cfg.Terminal.Shell,
		WorkingDir: cfg.Terminal.WorkingDir,
		Cols:       cfg.Terminal.Cols,
		Rows:       cfg.Terminal.Rows,
	}, logger.Named("registry")).WithMetrics(metrics)

	ioRouter := router.New(registry, logger.Named("router"))
	coordinator := layout.NewCoordinator(registry, registry, logger.Named("layout"))
	monitor := attention.NewMonitor(coordinator, cfg.Attention.FlashDuration.Std())
	coordinator.SetOnFocusChange(monitor.PaneFocused)

	feed := ws.NewFeed(logger.Named("feed"), metrics)
	monitor.SetCue(func(pane int) {
		metrics.FlashRaised()
		feed.Publish("attention", gin.H{"pane": pane})
	})

	// Sink order matters on exit: surfaces are notified before the
	// layout unbinds the session and the host feed announces it.
	registry.AddSink(ioRouter)
	registry.AddSink(monitor)
	registry.AddSink(coordinator)
	registry.AddSink(feed)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(monitoring.Middleware(metrics))
	engine.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		engine.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(registry, coordinator, monitor, feed, logger.Named("http"))
	surfaces := ws.NewSurfaceHandler(ioRouter, registry, logger.Named("surface"), metrics)

	engine.GET("/", handlers.Root)
	engine.GET("/health", handlers.Health)

	// Session lifecycle
	engine.POST("/sessions", handlers.CreateSession)
	engine.GET("/sessions", handlers.ListSessions)
	engine.GET("/sessions/:id", handlers.GetSession)
	engine.POST("/sessions/:id/input", handlers.WriteSession)
	engine.POST("/sessions/:id/resize", handlers.ResizeSession)
	engine.DELETE("/sessions/:id", handlers.KillSession)
	engine.DELETE("/sessions", handlers.KillAllSessions)

	// Layout and focus
	engine.GET("/layout", handlers.GetLayout)
	engine.PUT("/layout", handlers.SetLayout)
	engine.POST("/layout/focus", handlers.Focus)

	// Attention
	engine.GET("/attention", handlers.GetAttention)
	engine.POST("/attention/:pane/ack", handlers.AckAttention)

	// Streams
	engine.GET("/sessions/:id/stream", surfaces.HandleConnection)
	engine.GET("/events", feed.HandleConnection)

	// Metrics
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized")

	return &Server{
		engine:      engine,
		registry:    registry,
		coordinator: coordinator,
		monitor:     monitor,
		logger:      logger,
		config:      cfg,
		metrics:     metrics,
	}, nil
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.engine.Run(addr)
}

// Close tears down all sessions, mirroring a hosting window close, and
// flushes the logger. Processes that ignore the kill signal are left
// behind; that residual risk is accepted.
func (s *Server) Close() error {
	s.logger.Info("Shutting down, killing all sessions...")
	s.coordinator.CloseWindow()
	s.monitor.Reset()
	s.logger.Sync()
	return nil
}
