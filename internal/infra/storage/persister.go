package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/PauMirall/Lumenfall/server/internal/events"
	"github.com/PauMirall/Lumenfall/server/internal/platform/logger"
	"github.com/PauMirall/Lumenfall/server/internal/platform/metrics"
)

const persistTimeout = 5 * time.Second

// Persister adapts the repositories to the event log's write-through
// hook. Every event lands in the journal; a few types additionally
// update their read-side tables: the high score setting, the
// leaderboard and the match history.
//
// Routing decodes the marshalled payload instead of importing engine
// types, so storage stays ignorant of the simulation.
type Persister struct {
	settings SettingsRepository
	scores   ScoreRepository
	matches  MatchRepository
	events   EventRepository
	logger   *logger.Logger
}

func NewPersister(settings SettingsRepository, scores ScoreRepository, matches MatchRepository, eventRepo EventRepository, log *logger.Logger) *Persister {
	return &Persister{
		settings: settings,
		scores:   scores,
		matches:  matches,
		events:   eventRepo,
		logger:   log,
	}
}

// Append implements events.EventPersister. The event log fires this on
// its own goroutine and drops the error, so failures are logged here.
func (p *Persister) Append(ev events.GameEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	payloadJSON, err := json.Marshal(ev.Payload)
	if err != nil {
		p.logger.Error("Persist failed, payload not marshallable: " + string(ev.Type))
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	record := EventRecord{
		ID:        ev.ID,
		MatchID:   ev.MatchID,
		Timestamp: ev.Timestamp,
		EventType: string(ev.Type),
		ActorID:   ev.ActorID,
		TargetID:  ev.TargetID,
		Payload:   string(payloadJSON),
		Tick:      ev.Tick,
	}
	start := time.Now()
	err = p.events.Append(ctx, record)
	metrics.Get().RecordEventWrite(time.Since(start), err)
	if err != nil {
		p.logger.Error("Failed to journal event " + string(ev.Type) + ": " + err.Error())
		return err
	}

	switch ev.Type {
	case events.EventTypeHighScore:
		err = p.persistHighScore(ctx, payloadJSON)
	case events.EventTypeBearerDown:
		err = p.persistScore(ctx, ev, payloadJSON)
	case events.EventTypeMatchEnded:
		err = p.persistMatch(ctx, ev, payloadJSON)
	}
	if err != nil {
		p.logger.Error("Failed to persist " + string(ev.Type) + ": " + err.Error())
	}
	return err
}

func (p *Persister) persistHighScore(ctx context.Context, payloadJSON []byte) error {
	var payload struct {
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		return fmt.Errorf("failed to decode high score payload: %w", err)
	}
	return p.settings.PutFloat(ctx, HighScoreKey, payload.Score)
}

func (p *Persister) persistScore(ctx context.Context, ev events.GameEvent, payloadJSON []byte) error {
	var payload struct {
		BearerID   string  `json:"bearerId"`
		Name       string  `json:"name"`
		FinalScore float64 `json:"finalScore"`
		Survived   float64 `json:"survived"`
	}
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		return fmt.Errorf("failed to decode bearer down payload: %w", err)
	}
	return p.scores.Insert(ctx, ScoreRecord{
		ID:         ev.ID,
		MatchID:    ev.MatchID,
		BearerID:   payload.BearerID,
		Name:       payload.Name,
		Score:      payload.FinalScore,
		Survived:   payload.Survived,
		RecordedAt: ev.Timestamp,
	})
}

func (p *Persister) persistMatch(ctx context.Context, ev events.GameEvent, payloadJSON []byte) error {
	var payload struct {
		MatchID   string  `json:"matchId"`
		Duration  float64 `json:"duration"`
		PeakScore float64 `json:"peakScore"`
		Spawned   int     `json:"spawned"`
		Turned    int     `json:"turned"`
		Blackout  bool    `json:"blackout"`
	}
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		return fmt.Errorf("failed to decode match ended payload: %w", err)
	}
	return p.matches.Insert(ctx, MatchRecord{
		MatchID:   payload.MatchID,
		Duration:  payload.Duration,
		PeakScore: payload.PeakScore,
		Spawned:   payload.Spawned,
		Turned:    payload.Turned,
		Blackout:  payload.Blackout,
		EndedAt:   ev.Timestamp,
	})
}
