package api

import (
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values are bounded; nothing here is keyed by client or object.
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "survival_tick_duration_seconds",
		Help:    "Time spent in one simulation tick",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	})

	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "survival_render_duration_seconds",
		Help:    "Time spent rendering a PNG frame",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})

	objectCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "survival_objects",
		Help: "Live objects after the last tick",
	})

	enemyCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "survival_enemies",
		Help: "Live zombies and turrets",
	})

	particleCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "survival_particles",
		Help: "Particles in the last snapshot",
	})

	runsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "survival_runs_ended_total",
		Help: "Finished runs by outcome",
	}, []string{"outcome"}) // "death" or "victory"

	runDays = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "survival_run_days",
		Help:    "Days survived per finished run",
		Buckets: []float64{1, 2, 3, 5, 8, 13},
	})

	eventLogTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "survival_event_log_accepted",
		Help: "Events accepted by the event log",
	})

	eventLogDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "survival_event_log_dropped",
		Help: "Events dropped by rate limiting or a full buffer",
	})

	inputDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "survival_input_dropped",
		Help: "Input commands dropped because the queue was full",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Requests and connections rejected before reaching a handler",
	}, []string{"reason"}) // "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // Route pattern, not the raw path

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "WebSocket frames sent and received",
	}, []string{"direction", "format"})
)

// ObservabilityConfig configures the debug server.
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // Forced to loopback unless ALLOW_DEBUG_EXTERNAL=true
	BasicAuthUser string
	BasicAuthPass string
}

// DefaultObservabilityConfig returns the loopback debug server settings.
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// ObservabilityFromEnv applies DEBUG_ENABLED, DEBUG_ADDR, DEBUG_USER and
// DEBUG_PASS over the defaults.
func ObservabilityFromEnv() ObservabilityConfig {
	cfg := DefaultObservabilityConfig()

	if v := os.Getenv("DEBUG_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Enabled = b
		}
	}
	if a := os.Getenv("DEBUG_ADDR"); a != "" {
		cfg.ListenAddr = a
	}
	cfg.BasicAuthUser = os.Getenv("DEBUG_USER")
	cfg.BasicAuthPass = os.Getenv("DEBUG_PASS")

	return cfg
}

func isLoopbackAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// DebugHandler serves pprof, Prometheus metrics and a health check.
func DebugHandler(cfg ObservabilityConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if cfg.BasicAuthUser != "" {
		return basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}
	return mux
}

// StartDebugServer starts the debug server in the background.
func StartDebugServer(cfg ObservabilityConfig) {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return
	}

	if !isLoopbackAddr(cfg.ListenAddr) && os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
		log.Printf("⚠️ Debug server address %s is not loopback, using 127.0.0.1:6060", cfg.ListenAddr)
		cfg.ListenAddr = "127.0.0.1:6060"
	}

	handler := DebugHandler(cfg)
	go func() {
		log.Printf("📊 Debug server starting on %s", cfg.ListenAddr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", cfg.ListenAddr)
		log.Printf("   - metrics: http://%s/metrics", cfg.ListenAddr)

		if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()
}

func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RecordTick matches the engine's tick observer signature.
func RecordTick(elapsed time.Duration, objects int) {
	tickDuration.Observe(elapsed.Seconds())
	objectCount.Set(float64(objects))
}

// RecordRender records how long a PNG frame took.
func RecordRender(elapsed time.Duration) {
	renderDuration.Observe(elapsed.Seconds())
}

// RecordRunEnd counts a finished run.
func RecordRunEnd(outcome string, days int) {
	runsEnded.WithLabelValues(outcome).Inc()
	runDays.Observe(float64(days))
}

// UpdateSnapshotGauges publishes counts read from the latest snapshot.
func UpdateSnapshotGauges(enemies, particles int) {
	enemyCount.Set(float64(enemies))
	particleCount.Set(float64(particles))
}

// UpdateEventLogStats publishes the event log's running totals.
func UpdateEventLogStats(total, dropped uint64) {
	eventLogTotal.Set(float64(total))
	eventLogDropped.Set(float64(dropped))
}

// UpdateInputDropped publishes the input queue's drop total.
func UpdateInputDropped(dropped uint64) {
	inputDropped.Set(float64(dropped))
}

// RecordConnectionRejected counts a rejection. reason must be one of the
// bounded values listed on connectionRejected.
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records one HTTP request.
func RecordRequest(method, endpoint string, status int, elapsed time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
	requestTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
}

// UpdateWSConnections sets the active WebSocket gauge.
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages counts one frame. direction is "in" or "out"; format
// is "json" or "msgpack".
func IncrementWSMessages(direction, format string) {
	wsMessagesTotal.WithLabelValues(direction, format).Inc()
}
