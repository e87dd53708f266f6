package network

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/PauMirall/Lumenfall/server/internal/engine"
	"github.com/PauMirall/Lumenfall/server/internal/events"
	"github.com/PauMirall/Lumenfall/server/internal/infra/storage"
	"github.com/PauMirall/Lumenfall/server/internal/platform/logger"
)

type apiFixture struct {
	mux     *http.ServeMux
	engine  *engine.Engine
	scores  *storage.SQLiteScoreRepository
	events  *storage.SQLiteEventRepository
	matches *storage.SQLiteMatchRepository
}

func newAPIFixture(t *testing.T, highScore float64) *apiFixture {
	t.Helper()

	db, err := storage.InitSQLite(filepath.Join(t.TempDir(), "lumenfall_test.db"))
	if err != nil {
		t.Fatalf("init sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := logger.NewLogger()
	eventLog := events.NewEventLog(nil)
	eng := engine.NewEngine(engine.Deps{
		EventLog:  eventLog,
		Logger:    log,
		Tuning:    engine.DefaultTuning(),
		RNG:       rand.New(rand.NewSource(7)),
		HighScore: highScore,
	})

	scores := storage.NewSQLiteScoreRepository(db)
	matches := storage.NewSQLiteMatchRepository(db)
	eventRepo := storage.NewSQLiteEventRepository(db)
	hub := NewHub(eng, log)

	mux := http.NewServeMux()
	NewAPIHandler(eng, hub, log).RegisterRoutes(mux)
	NewReplayHandler(eng, eventLog, storage.NewSummarizer(eventRepo), eventRepo, scores, matches, log).RegisterRoutes(mux)

	return &apiFixture{mux: mux, engine: eng, scores: scores, events: eventRepo, matches: matches}
}

func (f *apiFixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func TestStatusEndpoint(t *testing.T) {
	f := newAPIFixture(t, 0)

	rec := f.get(t, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}

	var body struct {
		Connections int             `json:"connections"`
		Arena       engine.Snapshot `json:"arena"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Arena.Phase != engine.PhaseLobby {
		t.Errorf("phase = %s, want Lobby on a fresh server", body.Arena.Phase)
	}
	if body.Connections != 0 {
		t.Errorf("connections = %d, want 0", body.Connections)
	}
}

func TestSkipWaitRequiresPost(t *testing.T) {
	f := newAPIFixture(t, 0)

	rec := f.get(t, "/api/skip-wait")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET skip-wait code = %d, want 405", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/skip-wait", nil)
	postRec := httptest.NewRecorder()
	f.mux.ServeHTTP(postRec, req)
	if postRec.Code != http.StatusOK {
		t.Fatalf("POST skip-wait code = %d, want 200", postRec.Code)
	}
}

func TestScoresEndpoint(t *testing.T) {
	f := newAPIFixture(t, 150)
	ctx := context.Background()

	for i, score := range []float64{150, 80} {
		err := f.scores.Insert(ctx, storage.ScoreRecord{
			ID:         []string{"s1", "s2"}[i],
			MatchID:    "m1",
			BearerID:   "b1",
			Name:       "Ana",
			Score:      score,
			Survived:   score / 10,
			RecordedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	rec := f.get(t, "/api/scores?limit=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}

	var body struct {
		HighScore float64               `json:"highScore"`
		Scores    []storage.ScoreRecord `json:"scores"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.HighScore != 150 {
		t.Errorf("high score = %v, want 150", body.HighScore)
	}
	if len(body.Scores) != 1 || body.Scores[0].Score != 150 {
		t.Errorf("scores = %+v, want just the 150 run", body.Scores)
	}
}

func TestReplayEndpoint(t *testing.T) {
	f := newAPIFixture(t, 0)
	ctx := context.Background()

	rows := []storage.EventRecord{
		{ID: "e1", MatchID: "m1", Timestamp: time.Now(), EventType: "MATCH_STARTED", ActorID: "KEEPER", Payload: "{}", Tick: 1},
		{ID: "e2", MatchID: "m1", Timestamp: time.Now(), EventType: "SHADE_SPAWNED", ActorID: "SYSTEM_SPAWNER", TargetID: "S-001", Payload: "{}", Tick: 600},
		{ID: "e3", MatchID: "m1", Timestamp: time.Now(), EventType: "MATCH_ENDED", ActorID: "KEEPER", Payload: `{"duration":40.0,"peakScore":400.0}`, Tick: 800},
	}
	for _, row := range rows {
		if err := f.events.Append(ctx, row); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	rec := f.get(t, "/api/replay?match=m1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	var body ReplayResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TotalEvents != 3 || len(body.Events) != 3 {
		t.Errorf("events = %d/%d, want 3", body.TotalEvents, len(body.Events))
	}
	if body.Summary == nil || body.Summary.Duration != 40 {
		t.Errorf("summary = %+v, want duration 40", body.Summary)
	}

	// Type filter narrows the event list, not the summary.
	rec = f.get(t, "/api/replay?match=m1&type=SHADE_SPAWNED")
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode filtered: %v", err)
	}
	if body.TotalEvents != 1 {
		t.Errorf("filtered events = %d, want 1", body.TotalEvents)
	}
	if body.Summary == nil || body.Summary.Spawned != 1 {
		t.Errorf("filtered summary = %+v", body.Summary)
	}

	if rec := f.get(t, "/api/replay?match=ghost"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown match code = %d, want 404", rec.Code)
	}
	if rec := f.get(t, "/api/replay"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing match code = %d, want 400", rec.Code)
	}
}

func TestTuningEndpoint(t *testing.T) {
	f := newAPIFixture(t, 0)

	rec := f.get(t, "/api/tuning")
	if rec.Code != http.StatusOK {
		t.Fatalf("tuning code = %d, want 200", rec.Code)
	}

	var body struct {
		Current struct {
			CommandQueueSize int
		} `json:"current"`
		Recommendations struct {
			Notes []string
		} `json:"recommendations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Current.CommandQueueSize != 256 {
		t.Errorf("current queue size = %d, want 256", body.Current.CommandQueueSize)
	}
	if body.Recommendations.Notes == nil {
		t.Error("notes should marshal as an empty list, not null")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/tuning", nil)
	postRec := httptest.NewRecorder()
	f.mux.ServeHTTP(postRec, req)
	if postRec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST tuning code = %d, want 405", postRec.Code)
	}
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t, 0)
	rec := f.get(t, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz code = %d, want 200", rec.Code)
	}
}
