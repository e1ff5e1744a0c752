package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the per-IP limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	CleanupInterval   time.Duration // Idle limiters are dropped after twice this
}

// DefaultRateLimitConfig returns the limits used when none are configured.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 10,
		Burst:             20,
		CleanupInterval:   5 * time.Minute,
	}
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // Unix nanoseconds
}

// IPRateLimiter gives every client IP its own token bucket.
type IPRateLimiter struct {
	entries  sync.Map // string -> *ipEntry
	cfg      RateLimitConfig
	stopChan chan struct{}
	stopOnce sync.Once

	allowed  atomic.Uint64
	rejected atomic.Uint64
}

// NewIPRateLimiter creates a limiter and starts its cleanup loop. Call Stop
// to end the loop.
func NewIPRateLimiter(cfg RateLimitConfig) *IPRateLimiter {
	def := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}

	rl := &IPRateLimiter{
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopChan) })
}

func (rl *IPRateLimiter) entry(ip string, now time.Time) *ipEntry {
	if v, ok := rl.entries.Load(ip); ok {
		e := v.(*ipEntry)
		e.lastSeen.Store(now.UnixNano())
		return e
	}
	e := &ipEntry{limiter: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)}
	e.lastSeen.Store(now.UnixNano())
	actual, _ := rl.entries.LoadOrStore(ip, e)
	return actual.(*ipEntry)
}

func (rl *IPRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopChan:
			return
		case now := <-ticker.C:
			rl.cleanup(now)
		}
	}
}

func (rl *IPRateLimiter) cleanup(now time.Time) {
	cutoff := now.Add(-2 * rl.cfg.CleanupInterval).UnixNano()
	rl.entries.Range(func(key, value interface{}) bool {
		if value.(*ipEntry).lastSeen.Load() < cutoff {
			rl.entries.Delete(key)
		}
		return true
	})
}

// Allow takes one token from ip's bucket.
func (rl *IPRateLimiter) Allow(ip string) bool {
	if rl.entry(ip, time.Now()).limiter.Allow() {
		rl.allowed.Add(1)
		return true
	}
	rl.rejected.Add(1)
	return false
}

// Middleware rejects requests over the limit with 429.
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(GetClientIP(r)) {
			RecordConnectionRejected("rate_limit")
			w.Header().Set("Retry-After", "1")
			writeError(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetStats returns allow/reject counters.
func (rl *IPRateLimiter) GetStats() map[string]uint64 {
	return map[string]uint64{
		"allowed":  rl.allowed.Load(),
		"rejected": rl.rejected.Load(),
	}
}

// GetClientIP returns the caller's address, trusting X-Forwarded-For and
// X-Real-IP when present.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// ConnLimiter caps concurrent WebSocket connections per IP.
type ConnLimiter struct {
	conns    sync.Map // string -> *atomic.Int32
	maxPerIP int32
	rejected atomic.Uint64
}

// NewConnLimiter creates a limiter allowing maxPerIP connections per address.
func NewConnLimiter(maxPerIP int) *ConnLimiter {
	return &ConnLimiter{maxPerIP: int32(maxPerIP)}
}

// Acquire reserves a connection slot for ip.
func (cl *ConnLimiter) Acquire(ip string) bool {
	v, _ := cl.conns.LoadOrStore(ip, new(atomic.Int32))
	n := v.(*atomic.Int32)
	for {
		cur := n.Load()
		if cur >= cl.maxPerIP {
			cl.rejected.Add(1)
			return false
		}
		if n.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

// Release frees a slot taken by Acquire.
func (cl *ConnLimiter) Release(ip string) {
	if v, ok := cl.conns.Load(ip); ok {
		v.(*atomic.Int32).Add(-1)
	}
}

// Count returns how many connections ip holds.
func (cl *ConnLimiter) Count(ip string) int {
	if v, ok := cl.conns.Load(ip); ok {
		return int(v.(*atomic.Int32).Load())
	}
	return 0
}

// Rejected returns how many connections were turned away.
func (cl *ConnLimiter) Rejected() uint64 {
	return cl.rejected.Load()
}

// OriginPolicy decides which browser origins may open the WebSocket and call
// the API cross-origin. Localhost on any port is always allowed.
type OriginPolicy struct {
	allowed map[string]struct{}
}

// NewOriginPolicy builds a policy from exact origins such as
// "https://play.example.com".
func NewOriginPolicy(origins []string) *OriginPolicy {
	p := &OriginPolicy{allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			p.allowed[o] = struct{}{}
		}
	}
	return p
}

// Allowed reports whether origin may connect. An empty origin comes from a
// non-browser client and is allowed.
func (p *OriginPolicy) Allowed(origin string) bool {
	if origin == "" {
		return true
	}
	if isLocalhost(origin) {
		return true
	}
	_, ok := p.allowed[origin]
	return ok
}

// Origins lists the configured origins plus the localhost defaults, for CORS.
func (p *OriginPolicy) Origins() []string {
	out := []string{"http://localhost:*", "http://127.0.0.1:*"}
	for o := range p.allowed {
		out = append(out, o)
	}
	return out
}

func isLocalhost(origin string) bool {
	for _, prefix := range []string{"http://localhost", "http://127.0.0.1"} {
		if origin == prefix || strings.HasPrefix(origin, prefix+":") {
			return true
		}
	}
	return false
}
