// Package network - api.go
// Control REST surface: arena status for dashboards and the skip-wait
// trigger the lobby button calls.
package network

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/PauMirall/Lumenfall/server/internal/engine"
	"github.com/PauMirall/Lumenfall/server/internal/platform/logger"
	"github.com/PauMirall/Lumenfall/server/internal/platform/metrics"
	"github.com/PauMirall/Lumenfall/server/internal/platform/optimization"
)

// APIHandler exposes the arena over plain HTTP.
type APIHandler struct {
	engine *engine.Engine
	hub    *Hub
	logger *logger.Logger
}

// NewAPIHandler creates the control API around the engine and hub.
func NewAPIHandler(eng *engine.Engine, hub *Hub, log *logger.Logger) *APIHandler {
	return &APIHandler{
		engine: eng,
		hub:    hub,
		logger: log,
	}
}

// HandleStatus returns the latest snapshot plus connection stats.
// GET /api/status
func (ah *APIHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ah.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := ah.engine.Status()
	ah.jsonSuccess(w, map[string]interface{}{
		"timestamp":   time.Now().Unix(),
		"connections": ah.hub.ClientCount(),
		"arena":       snap,
	})
}

// HandleSkipWait opens the spawn gate early, same as the in-game action.
// POST /api/skip-wait
func (ah *APIHandler) HandleSkipWait(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ah.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	accepted := ah.engine.Submit(engine.Command{Type: engine.CommandSkipWait, BearerID: "API"})
	if !accepted {
		ah.jsonError(w, "Engine busy, try again", http.StatusServiceUnavailable)
		return
	}

	ah.logger.Event("API_SKIP_WAIT", "API", "Spawn gate skip requested over REST")
	ah.jsonSuccess(w, map[string]interface{}{
		"accepted": true,
	})
}

// HandleTuning runs the optimization advisor over the live metrics and
// reports what, if anything, should change. Advisory only.
// GET /api/tuning
func (ah *APIHandler) HandleTuning(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ah.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	observed := metrics.Get().Snapshot()
	rec := optimization.Analyze(observed)
	suggested := optimization.ApplyRecommendations(optimization.DefaultConfig(), rec)

	ah.jsonSuccess(w, map[string]interface{}{
		"current":         optimization.DefaultConfig(),
		"recommendations": rec,
		"suggested":       suggested,
	})
}

// HandleHealthz is the liveness probe.
// GET /healthz
func (ah *APIHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// RegisterRoutes sets up the control API routes.
func (ah *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", ah.HandleStatus)
	mux.HandleFunc("/api/skip-wait", ah.HandleSkipWait)
	mux.HandleFunc("/api/tuning", ah.HandleTuning)
	mux.HandleFunc("/healthz", ah.HandleHealthz)
}

// jsonError sends an error response.
func (ah *APIHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// jsonSuccess sends a success response.
func (ah *APIHandler) jsonSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(data)
}
