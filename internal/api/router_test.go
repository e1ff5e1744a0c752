package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"radio-survival/internal/game"
	"radio-survival/internal/geom"
	"radio-survival/internal/persistence"
	"radio-survival/internal/world"
)

// ============================================================================
// Mock Implementations
// ============================================================================

const testLevel = "WWWW\nWPFW\nWFFW\nWWWW\n"

// MockEngine implements EngineInterface for testing
type MockEngine struct {
	mu       sync.Mutex
	m        *world.Map
	snap     game.GameSnapshot
	inputs   []game.Input
	full     bool
	restarts int
}

func NewMockEngine(t *testing.T) *MockEngine {
	t.Helper()
	m, err := world.Parse(strings.NewReader(testLevel), 64)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return &MockEngine{
		m: m,
		snap: game.GameSnapshot{
			RunID: 3,
			State: "playing",
			HUD:   game.HUDSnapshot{Health: 9, MaxHealth: 12, Day: 2, Clock: "3:00 PM"},
			Objects: []game.ObjectSnapshot{
				{ID: 1, Kind: "player", Role: "player", Pos: m.Objects().Player, Radius: 24},
			},
			ObjectCount: 1,
		},
	}
}

func (e *MockEngine) GetSnapshot() game.GameSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap.Clone()
}

func (e *MockEngine) GetStats() map[string]interface{} {
	return map[string]interface{}{"running": true, "runId": e.snap.RunID}
}

func (e *MockEngine) Map() *world.Map { return e.m }

func (e *MockEngine) Layout() game.Layout {
	return game.Layout{PartSpawns: []geom.Vec2{geom.V(96, 96)}}
}

func (e *MockEngine) PushInput(in game.Input) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.full {
		return false
	}
	e.inputs = append(e.inputs, in)
	return true
}

func (e *MockEngine) Restart() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.restarts++
	e.snap.RunID++
}

func (e *MockEngine) Inputs() []game.Input {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]game.Input(nil), e.inputs...)
}

// MockStorage implements persistence.Storage in memory
type MockStorage struct {
	runs map[uint64]game.RunRecord
	err  error
}

func NewMockStorage(runs ...game.RunRecord) *MockStorage {
	s := &MockStorage{runs: make(map[uint64]game.RunRecord)}
	for _, r := range runs {
		s.runs[r.RunID] = r
	}
	return s
}

func (s *MockStorage) SaveRun(rec game.RunRecord) error {
	s.runs[rec.RunID] = rec
	return nil
}

func (s *MockStorage) LoadRun(id uint64) (*game.RunRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	rec, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", persistence.ErrNotFound, id)
	}
	return &rec, nil
}

func (s *MockStorage) TopRuns(limit int) ([]game.RunRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]game.RunRecord, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Days > out[j].Days })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MockStorage) LastRunID() (uint64, error) { return uint64(len(s.runs)), nil }
func (s *MockStorage) Close() error               { return nil }

func newTestServer(t *testing.T, engine EngineInterface, store persistence.Storage) *httptest.Server {
	t.Helper()
	limiter := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000, CleanupInterval: time.Hour})
	t.Cleanup(limiter.Stop)

	ts := httptest.NewServer(NewRouter(RouterConfig{
		Engine:         engine,
		Storage:        store,
		RateLimiter:    limiter,
		DisableLogging: true,
	}))
	t.Cleanup(ts.Close)
	return ts
}

// ============================================================================
// API Endpoint Tests
// ============================================================================

// TestAPIGetState tests the snapshot endpoint
func TestAPIGetState(t *testing.T) {
	ts := newTestServer(t, NewMockEngine(t), nil)

	resp, err := http.Get(ts.URL + "/api/state")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	var snap game.GameSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if snap.RunID != 3 || snap.HUD.Health != 9 || snap.HUD.Clock != "3:00 PM" {
		t.Errorf("Unexpected snapshot: run %d health %d clock %q", snap.RunID, snap.HUD.Health, snap.HUD.Clock)
	}
	if len(snap.Objects) != 1 || snap.Objects[0].Kind != "player" {
		t.Errorf("Expected the player object, got %+v", snap.Objects)
	}
}

// TestAPIGetStats tests that engine stats are merged with limiter stats
func TestAPIGetStats(t *testing.T) {
	ts := newTestServer(t, NewMockEngine(t), nil)

	resp, err := http.Get(ts.URL + "/api/stats")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var stats map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if stats["running"] != true {
		t.Errorf("Expected running=true, got %v", stats["running"])
	}
	if _, ok := stats["rateLimit"].(map[string]interface{}); !ok {
		t.Errorf("Expected rateLimit stats, got %v", stats["rateLimit"])
	}
}

// TestAPIGetMap tests the static level endpoint
func TestAPIGetMap(t *testing.T) {
	engine := NewMockEngine(t)
	ts := newTestServer(t, engine, nil)

	resp, err := http.Get(ts.URL + "/api/map")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var got mapResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got.Width != 4 || got.Height != 4 || got.TileSize != 64 {
		t.Errorf("Expected 4x4 tiles of 64, got %dx%d of %v", got.Width, got.Height, got.TileSize)
	}
	if len(got.Rows) != 4 || got.Rows[1] != "WFFW" {
		t.Errorf("Expected marker tiles replaced by floor, got %q", got.Rows)
	}
	if len(got.Walls) == 0 {
		t.Error("Expected wall boxes")
	}
	if got.Spawns.Player != engine.m.Objects().Player {
		t.Errorf("Expected player spawn %+v, got %+v", engine.m.Objects().Player, got.Spawns.Player)
	}
	if len(got.Layout.PartSpawns) != 1 {
		t.Errorf("Expected 1 part spawn, got %d", len(got.Layout.PartSpawns))
	}
}

// TestAPIRenderPNG tests that the render endpoint returns a decodable image
func TestAPIRenderPNG(t *testing.T) {
	ts := newTestServer(t, NewMockEngine(t), nil)

	resp, err := http.Get(ts.URL + "/api/render.png")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %q", ct)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("Failed to decode PNG: %v", err)
	}
	// 256 world units at the default 0.25 scale
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 64 {
		t.Errorf("Expected 64x64 image, got %dx%d", b.Dx(), b.Dy())
	}
}

// TestAPIPostInput tests input validation and queueing
func TestAPIPostInput(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		full       bool
		wantStatus int
		wantQueued int
	}{
		{name: "move", body: `{"move": 1, "fire": true}`, wantStatus: http.StatusOK, wantQueued: 1},
		{name: "aim", body: `{"aim": 90}`, wantStatus: http.StatusOK, wantQueued: 1},
		{name: "invalid json", body: `{move}`, wantStatus: http.StatusBadRequest},
		{name: "wrong type", body: `{"move": "up"}`, wantStatus: http.StatusBadRequest},
		{name: "queue full", body: `{"move": 1}`, full: true, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewMockEngine(t)
			engine.full = tt.full
			ts := newTestServer(t, engine, nil)

			resp, err := http.Post(ts.URL+"/api/input", "application/json", bytes.NewReader([]byte(tt.body)))
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if got := len(engine.Inputs()); got != tt.wantQueued {
				t.Errorf("Expected %d queued inputs, got %d", tt.wantQueued, got)
			}
		})
	}
}

// TestAPIPostInputDecodesFields tests that command fields reach the engine
func TestAPIPostInputDecodesFields(t *testing.T) {
	engine := NewMockEngine(t)
	ts := newTestServer(t, engine, nil)

	resp, err := http.Post(ts.URL+"/api/input", "application/json",
		strings.NewReader(`{"move": -1, "strafeLeft": true, "aim": 45.5, "eat": true}`))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()

	inputs := engine.Inputs()
	if len(inputs) != 1 {
		t.Fatalf("Expected 1 input, got %d", len(inputs))
	}
	in := inputs[0]
	if in.Move != -1 || !in.StrafeLeft || !in.Eat || in.Aim == nil || *in.Aim != 45.5 {
		t.Errorf("Unexpected input: %+v", in)
	}
}

// TestAPIRestart tests the restart endpoint
func TestAPIRestart(t *testing.T) {
	engine := NewMockEngine(t)
	ts := newTestServer(t, engine, nil)

	resp, err := http.Post(ts.URL+"/api/restart", "application/json", nil)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	if engine.restarts != 1 {
		t.Errorf("Expected 1 restart, got %d", engine.restarts)
	}
}

// TestAPIRestartRequiresPost tests that GET is not routed to restart
func TestAPIRestartRequiresPost(t *testing.T) {
	engine := NewMockEngine(t)
	ts := newTestServer(t, engine, nil)

	resp, err := http.Get(ts.URL + "/api/restart")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", resp.StatusCode)
	}
	if engine.restarts != 0 {
		t.Error("GET should not restart the run")
	}
}

// TestAPIRuns tests run listing and lookup
func TestAPIRuns(t *testing.T) {
	store := NewMockStorage(
		game.RunRecord{RunID: 1, Outcome: "death", Days: 1},
		game.RunRecord{RunID: 2, Outcome: "victory", Days: 4},
		game.RunRecord{RunID: 3, Outcome: "death", Days: 2},
	)
	ts := newTestServer(t, NewMockEngine(t), store)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantIDs    []uint64
	}{
		{name: "default limit", path: "/api/runs", wantStatus: http.StatusOK, wantIDs: []uint64{2, 3, 1}},
		{name: "limit", path: "/api/runs?limit=2", wantStatus: http.StatusOK, wantIDs: []uint64{2, 3}},
		{name: "bad limit", path: "/api/runs?limit=abc", wantStatus: http.StatusBadRequest},
		{name: "zero limit", path: "/api/runs?limit=0", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("Expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if tt.wantIDs == nil {
				return
			}
			var runs []game.RunRecord
			if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if len(runs) != len(tt.wantIDs) {
				t.Fatalf("Expected %d runs, got %d", len(tt.wantIDs), len(runs))
			}
			for i, id := range tt.wantIDs {
				if runs[i].RunID != id {
					t.Errorf("Rank %d: expected run %d, got %d", i, id, runs[i].RunID)
				}
			}
		})
	}
}

// TestAPIGetRun tests single run lookup status codes
func TestAPIGetRun(t *testing.T) {
	store := NewMockStorage(game.RunRecord{RunID: 5, Outcome: "victory", Days: 3, Kills: 7})
	ts := newTestServer(t, NewMockEngine(t), store)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "found", path: "/api/runs/5", wantStatus: http.StatusOK},
		{name: "missing", path: "/api/runs/6", wantStatus: http.StatusNotFound},
		{name: "not a number", path: "/api/runs/five", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var rec game.RunRecord
			if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if rec.Kills != 7 || rec.Outcome != "victory" {
				t.Errorf("Unexpected run: %+v", rec)
			}
		})
	}
}

// TestAPIRunsStorageErrors tests storage failures and missing storage
func TestAPIRunsStorageErrors(t *testing.T) {
	broken := NewMockStorage()
	broken.err = errors.New("disk on fire")

	tests := []struct {
		name       string
		store      persistence.Storage
		path       string
		wantStatus int
	}{
		{name: "no storage list", store: nil, path: "/api/runs", wantStatus: http.StatusServiceUnavailable},
		{name: "no storage get", store: nil, path: "/api/runs/1", wantStatus: http.StatusServiceUnavailable},
		{name: "list error", store: broken, path: "/api/runs", wantStatus: http.StatusInternalServerError},
		{name: "get error", store: broken, path: "/api/runs/1", wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, NewMockEngine(t), tt.store)
			resp, err := http.Get(ts.URL + tt.path)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
		})
	}
}

// TestAPIRateLimit tests that requests over the burst are rejected
func TestAPIRateLimit(t *testing.T) {
	limiter := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2, CleanupInterval: time.Hour})
	defer limiter.Stop()

	ts := httptest.NewServer(NewRouter(RouterConfig{
		Engine:         NewMockEngine(t),
		RateLimiter:    limiter,
		DisableLogging: true,
	}))
	defer ts.Close()

	var statuses []int
	for i := 0; i < 3; i++ {
		resp, err := http.Get(ts.URL + "/api/stats")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("Request %d: expected %d, got %d", i, want[i], statuses[i])
		}
	}
	if stats := limiter.GetStats(); stats["rejected"] != 1 {
		t.Errorf("Expected 1 rejection, got %d", stats["rejected"])
	}
}

// TestAPICORSPreflight tests that configured origins pass CORS
func TestAPICORSPreflight(t *testing.T) {
	limiter := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000, CleanupInterval: time.Hour})
	defer limiter.Stop()

	ts := httptest.NewServer(NewRouter(RouterConfig{
		Engine:         NewMockEngine(t),
		RateLimiter:    limiter,
		Origins:        NewOriginPolicy([]string{"https://play.example.com"}),
		DisableLogging: true,
	}))
	defer ts.Close()

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://play.example.com", true},
		{"http://localhost:5173", true},
		{"https://evil.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/input", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			resp.Body.Close()

			got := resp.Header.Get("Access-Control-Allow-Origin") == tt.origin
			if got != tt.allowed {
				t.Errorf("Expected allowed=%v, got header %q", tt.allowed, resp.Header.Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

// ============================================================================
// Helper Tests
// ============================================================================

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "remote addr", remote: "10.0.0.1:5000", want: "10.0.0.1"},
		{name: "forwarded", headers: map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"}, remote: "10.0.0.1:5000", want: "1.2.3.4"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": " 5.6.7.8 "}, remote: "10.0.0.1:5000", want: "5.6.7.8"},
		{name: "no port", remote: "10.0.0.2", want: "10.0.0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := GetClientIP(r); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestOriginPolicy(t *testing.T) {
	p := NewOriginPolicy([]string{"https://play.example.com/", " https://other.example.com "})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost", true},
		{"http://localhost:3000", true},
		{"http://127.0.0.1:8080", true},
		{"http://localhost.evil.com", false},
		{"https://play.example.com", true},
		{"https://other.example.com", true},
		{"https://example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			if got := p.Allowed(tt.origin); got != tt.want {
				t.Errorf("Allowed(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestConnLimiter(t *testing.T) {
	cl := NewConnLimiter(2)

	if !cl.Acquire("a") || !cl.Acquire("a") {
		t.Fatal("Expected two connections to be allowed")
	}
	if cl.Acquire("a") {
		t.Error("Expected third connection to be rejected")
	}
	if !cl.Acquire("b") {
		t.Error("Expected a different address to be allowed")
	}

	cl.Release("a")
	if cl.Count("a") != 1 {
		t.Errorf("Expected 1 connection after release, got %d", cl.Count("a"))
	}
	if !cl.Acquire("a") {
		t.Error("Expected slot to be reusable after release")
	}
	if cl.Rejected() != 1 {
		t.Errorf("Expected 1 rejection, got %d", cl.Rejected())
	}
}

func TestIPRateLimiterCleanup(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	rl.Allow("1.1.1.1")
	rl.cleanup(time.Now())
	if _, ok := rl.entries.Load("1.1.1.1"); !ok {
		t.Fatal("Recently seen limiter should survive cleanup")
	}

	rl.cleanup(time.Now().Add(3 * time.Minute))
	if _, ok := rl.entries.Load("1.1.1.1"); ok {
		t.Error("Idle limiter should be removed")
	}
}
