package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"radio-survival/internal/game"
	"radio-survival/internal/geom"
	"radio-survival/internal/persistence"
	"radio-survival/internal/world"

	"github.com/go-chi/chi/v5"
)

const (
	defaultRunsLimit = 10
	maxRunsLimit     = 100
	maxInputBody     = 1 << 12
)

// mapResponse is the static level as served by GET /api/map.
type mapResponse struct {
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	TileSize float64      `json:"tileSize"`
	Rows     []string     `json:"rows"`
	Walls    []geom.AABB  `json:"walls"`
	Spawns   world.Spawns `json:"spawns"`
	Layout   game.Layout  `json:"layout"`
}

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.GetSnapshot()
	writeJSON(w, &snap)
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.engine.GetStats()
	stats["rateLimit"] = h.limiter.GetStats()
	writeJSON(w, stats)
}

func (h *routerHandlers) handleGetMap(w http.ResponseWriter, r *http.Request) {
	m := h.engine.Map()
	writeJSON(w, mapResponse{
		Width:    m.Width(),
		Height:   m.Height(),
		TileSize: m.TileSize(),
		Rows:     m.Rows(),
		Walls:    m.Walls(),
		Spawns:   m.Objects(),
		Layout:   h.engine.Layout(),
	})
}

func (h *routerHandlers) handleRender(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snap := h.engine.GetSnapshot()

	var buf bytes.Buffer
	if err := h.renderer.EncodePNG(&buf, &snap); err != nil {
		log.Printf("❌ Render failed: %v", err)
		writeError(w, "render failed", http.StatusInternalServerError)
		return
	}
	RecordRender(time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (h *routerHandlers) handlePostInput(w http.ResponseWriter, r *http.Request) {
	var in game.Input
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInputBody)).Decode(&in); err != nil {
		writeError(w, "invalid input command", http.StatusBadRequest)
		return
	}
	if !h.engine.PushInput(in) {
		writeError(w, "input queue full", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleRestart(w http.ResponseWriter, r *http.Request) {
	log.Println("🔄 Restart requested via API")
	h.engine.Restart()
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleGetRuns(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		writeError(w, "run storage unavailable", http.StatusServiceUnavailable)
		return
	}

	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.storage.TopRuns(limit)
	if err != nil {
		log.Printf("❌ Failed to list runs: %v", err)
		writeError(w, "failed to list runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []game.RunRecord{}
	}
	writeJSON(w, runs)
}

func (h *routerHandlers) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		writeError(w, "run storage unavailable", http.StatusServiceUnavailable)
		return
	}

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, "invalid run id", http.StatusBadRequest)
		return
	}

	rec, err := h.storage.LoadRun(id)
	if errors.Is(err, persistence.ErrNotFound) {
		writeError(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("❌ Failed to load run %d: %v", id, err)
		writeError(w, "failed to load run", http.StatusInternalServerError)
		return
	}
	writeJSON(w, rec)
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
