// Package network - replay.go
// Read-only history API: match replays rebuilt from the event journal,
// the leaderboard and live session statistics.
package network

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/PauMirall/Lumenfall/server/internal/engine"
	"github.com/PauMirall/Lumenfall/server/internal/events"
	"github.com/PauMirall/Lumenfall/server/internal/infra/storage"
	"github.com/PauMirall/Lumenfall/server/internal/platform/logger"
)

const defaultListLimit = 10
const maxListLimit = 100

// ReplayHandler serves the immutable history of past matches.
type ReplayHandler struct {
	engine     *engine.Engine
	eventLog   *events.EventLog
	summarizer *storage.Summarizer
	eventRepo  storage.EventRepository
	scores     storage.ScoreRepository
	matches    storage.MatchRepository
	logger     *logger.Logger
}

// NewReplayHandler creates the history API.
func NewReplayHandler(eng *engine.Engine, el *events.EventLog, sum *storage.Summarizer, eventRepo storage.EventRepository, scores storage.ScoreRepository, matches storage.MatchRepository, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{
		engine:     eng,
		eventLog:   el,
		summarizer: sum,
		eventRepo:  eventRepo,
		scores:     scores,
		matches:    matches,
		logger:     log,
	}
}

// ReplayEvent is one journal row shaped for public viewing.
type ReplayEvent struct {
	ID        string          `json:"id"`
	Tick      int64           `json:"tick"`
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"`
	ActorID   string          `json:"actorId"`
	TargetID  string          `json:"targetId,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// ReplayResponse is the API response for a match replay.
type ReplayResponse struct {
	MatchID     string                `json:"matchId"`
	TotalEvents int                   `json:"totalEvents"`
	FilteredBy  string                `json:"filteredBy,omitempty"`
	GeneratedAt string                `json:"generatedAt"`
	Summary     *storage.MatchSummary `json:"summary"`
	Events      []ReplayEvent         `json:"events"`
}

// HandleReplay returns the replay of one match, journal-backed so it
// survives server restarts.
// GET /api/replay?match=XXX&type=SHADE_TURNED
func (rh *ReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	matchID := r.URL.Query().Get("match")
	if matchID == "" {
		rh.jsonError(w, "Missing match", http.StatusBadRequest)
		return
	}
	eventType := r.URL.Query().Get("type")

	summary, err := rh.summarizer.Summarize(r.Context(), matchID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			rh.jsonError(w, "Match not found", http.StatusNotFound)
			return
		}
		rh.jsonError(w, "Failed to rebuild match", http.StatusInternalServerError)
		return
	}

	var records []storage.EventRecord
	filterDesc := ""
	if eventType != "" {
		records, err = rh.eventRepo.GetByEventType(r.Context(), matchID, eventType)
		filterDesc = eventType
	} else {
		records, err = rh.eventRepo.GetByMatchID(r.Context(), matchID)
	}
	if err != nil {
		rh.jsonError(w, "Failed to load match events", http.StatusInternalServerError)
		return
	}

	replayEvents := make([]ReplayEvent, 0, len(records))
	for _, rec := range records {
		replayEvents = append(replayEvents, ReplayEvent{
			ID:        rec.ID,
			Tick:      rec.Tick,
			Timestamp: rec.Timestamp.Format("15:04:05"),
			Type:      rec.EventType,
			ActorID:   rec.ActorID,
			TargetID:  rec.TargetID,
			Details:   json.RawMessage(rec.Payload),
		})
	}

	rh.logger.Event("REPLAY_SERVED", "API", "MatchID:"+matchID+" Events:"+strconv.Itoa(len(replayEvents)))

	response := ReplayResponse{
		MatchID:     matchID,
		TotalEvents: len(replayEvents),
		FilteredBy:  filterDesc,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Summary:     summary,
		Events:      replayEvents,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HandleScores returns the all-time leaderboard.
// GET /api/scores?limit=10
func (rh *ReplayHandler) HandleScores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	top, err := rh.scores.TopScores(r.Context(), rh.limitParam(r))
	if err != nil {
		rh.jsonError(w, "Failed to load scores", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"generatedAt": time.Now().Format(time.RFC3339),
		"highScore":   rh.engine.Status().HighScore,
		"scores":      top,
	})
}

// HandleMatches returns the recent match history.
// GET /api/matches?limit=10
func (rh *ReplayHandler) HandleMatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	recent, err := rh.matches.Recent(r.Context(), rh.limitParam(r))
	if err != nil {
		rh.jsonError(w, "Failed to load matches", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"generatedAt": time.Now().Format(time.RFC3339),
		"matches":     recent,
	})
}

// HandleStats returns aggregate statistics for the running session.
// GET /api/stats
func (rh *ReplayHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	allEvents := rh.eventLog.Replay()

	stats := map[string]int{
		"total_events":      len(allEvents),
		"shades_spawned":    0,
		"shades_turned":     0,
		"bearers_down":      0,
		"matches_completed": 0,
		"blackouts":         0,
	}

	for _, e := range allEvents {
		switch e.Type {
		case events.EventTypeShadeSpawned:
			stats["shades_spawned"]++
		case events.EventTypeShadeTurned:
			stats["shades_turned"]++
		case events.EventTypeBearerDown:
			stats["bearers_down"]++
		case events.EventTypeMatchEnded:
			stats["matches_completed"]++
		case events.EventTypeBlackout:
			stats["blackouts"]++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"stats":        stats,
	})
}

// RegisterRoutes sets up the history API routes.
func (rh *ReplayHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/replay", rh.HandleReplay)
	mux.HandleFunc("/api/scores", rh.HandleScores)
	mux.HandleFunc("/api/matches", rh.HandleMatches)
	mux.HandleFunc("/api/stats", rh.HandleStats)
}

func (rh *ReplayHandler) limitParam(r *http.Request) int {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit
}

// jsonError sends an error response.
func (rh *ReplayHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
