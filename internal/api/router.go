// Package api serves the simulation over HTTP and WebSocket.
package api

import (
	"net/http"
	"time"

	"radio-survival/internal/game"
	"radio-survival/internal/persistence"
	"radio-survival/internal/render"
	"radio-survival/internal/world"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EngineInterface is the slice of the game engine the API calls. Tests
// replace it with a mock instead of running the game loop.
type EngineInterface interface {
	// GetSnapshot returns a copy of the latest published snapshot
	GetSnapshot() game.GameSnapshot
	GetStats() map[string]interface{}
	// Map is the static level; it never changes while the engine runs
	Map() *world.Map
	Layout() game.Layout
	// PushInput queues a command for the next tick, false when the queue is full
	PushInput(in game.Input) bool
	Restart()
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	router := api.NewRouter(api.RouterConfig{
//	    Engine:          mockEngine,
//	    RateLimitConfig: &api.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
//	    DisableLogging:  true,
//	})
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the game engine (required)
	Engine EngineInterface

	// Storage serves /api/runs. Those routes answer 503 when it is nil.
	Storage persistence.Storage

	// Renderer draws /api/render.png. If nil, one is built over Engine.Map().
	Renderer *render.Renderer

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one is created from RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is only used when RateLimiter is nil. If both are nil,
	// DefaultRateLimitConfig applies.
	RateLimitConfig *RateLimitConfig

	// Origins is the browser origin policy shared with the WebSocket hub.
	// If nil, only localhost is allowed.
	Origins *OriginPolicy

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

type routerHandlers struct {
	engine   EngineInterface
	storage  persistence.Storage
	renderer *render.Renderer
	limiter  *IPRateLimiter
}

// NewRouter constructs the HTTP router with all middleware and routes. It
// opens no listeners; the only goroutine it may start is the cleanup loop
// of a rate limiter it creates itself.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting runs before CORS to reject early
	limiter := cfg.RateLimiter
	if limiter == nil {
		rlCfg := DefaultRateLimitConfig()
		if cfg.RateLimitConfig != nil {
			rlCfg = *cfg.RateLimitConfig
		}
		limiter = NewIPRateLimiter(rlCfg)
	}
	r.Use(limiter.Middleware)

	origins := cfg.Origins
	if origins == nil {
		origins = NewOriginPolicy(nil)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins.Origins(),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	renderer := cfg.Renderer
	if renderer == nil {
		renderer = render.New(cfg.Engine.Map(), render.Options{Walls: true})
	}

	h := &routerHandlers{
		engine:   cfg.Engine,
		storage:  cfg.Storage,
		renderer: renderer,
		limiter:  limiter,
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/map", h.handleGetMap)
		r.Get("/render.png", h.handleRender)

		r.Post("/input", h.handlePostInput)
		r.Post("/restart", h.handleRestart)

		r.Get("/runs", h.handleGetRuns)
		r.Get("/runs/{id}", h.handleGetRun)
	})

	return r
}

// metricsMiddleware records latency and status per route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				endpoint = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}
