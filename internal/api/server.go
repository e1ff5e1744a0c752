package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"radio-survival/internal/config"
	"radio-survival/internal/game"
	"radio-survival/internal/persistence"
	"radio-survival/internal/render"

	"github.com/go-chi/chi/v5"
)

const metricsInterval = 5 * time.Second

// Server is the HTTP API server with WebSocket support.
type Server struct {
	engine      *game.Engine
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server

	stopChan chan struct{}
}

// NewServer wires the router and WebSocket hub. Background workers do not
// start until Start is called, so Router can be used with httptest.
func NewServer(engine *game.Engine, store persistence.Storage, renderer *render.Renderer, cfg config.ServerConfig) *Server {
	origins := NewOriginPolicy(cfg.CORSOrigins)

	rlCfg := DefaultRateLimitConfig()
	if cfg.RequestsPerS > 0 {
		rlCfg.RequestsPerSecond = cfg.RequestsPerS
	}
	if cfg.Burst > 0 {
		rlCfg.Burst = cfg.Burst
	}

	s := &Server{
		engine:      engine,
		wsHub:       NewWebSocketHub(engine, origins),
		rateLimiter: NewIPRateLimiter(rlCfg),
		stopChan:    make(chan struct{}),
	}

	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		Storage:     store,
		Renderer:    renderer,
		RateLimiter: s.rateLimiter,
		Origins:     origins,
	})
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Start runs the hub, the broadcast and metrics loops, and the HTTP
// listener. It blocks until the listener fails or Stop is called.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop()
	go s.metricsLoop()

	s.httpServer.Addr = addr

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("📡 WebSocket: ws://localhost%s/ws (add ?format=msgpack for binary frames)", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

func (s *Server) metricsLoop() {
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			UpdateEventLogStats(s.engine.EventLogCounts())
			UpdateInputDropped(s.engine.InputDropped())
		}
	}
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Stop shuts the listener down, waiting up to timeout for requests in
// flight, then stops the background workers.
func (s *Server) Stop(timeout time.Duration) {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("⚠️ API server shutdown: %v", err)
	}
	s.wsHub.Stop()
	s.rateLimiter.Stop()
}
