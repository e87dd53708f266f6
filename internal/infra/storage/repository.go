// Package storage provides the persistence layer for the arena server.
// This package implements the repository pattern to keep the domain pure.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("storage: not found")

// HighScoreKey is the settings key holding the all-time best score.
// It is the only setting the engine reads at boot.
const HighScoreKey = "high_score"

// SettingsRepository is a tiny named-float store. The engine treats the
// high score as a single float behind a name, nothing more.
type SettingsRepository interface {
	// GetFloat reads one named value. ErrNotFound when the name was
	// never written.
	GetFloat(ctx context.Context, key string) (float64, error)

	// PutFloat writes one named value, replacing any previous one.
	PutFloat(ctx context.Context, key string, value float64) error
}

// ScoreRecord is one finished run: a bearer went down with this score.
type ScoreRecord struct {
	ID         string    `json:"id" db:"id"`
	MatchID    string    `json:"match_id" db:"match_id"`
	BearerID   string    `json:"bearer_id" db:"bearer_id"`
	Name       string    `json:"name" db:"name"`
	Score      float64   `json:"score" db:"score"`
	Survived   float64   `json:"survived" db:"survived"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}

// ScoreRepository persists finished runs for the leaderboard.
type ScoreRepository interface {
	// Insert records one finished run.
	Insert(ctx context.Context, record ScoreRecord) error

	// TopScores returns the best runs ever, highest first.
	TopScores(ctx context.Context, limit int) ([]ScoreRecord, error)
}

// MatchRecord is one completed match.
type MatchRecord struct {
	MatchID   string    `json:"match_id" db:"match_id"`
	Duration  float64   `json:"duration" db:"duration"`
	PeakScore float64   `json:"peak_score" db:"peak_score"`
	Spawned   int       `json:"spawned" db:"spawned"`
	Turned    int       `json:"turned" db:"turned"`
	Blackout  bool      `json:"blackout" db:"blackout"`
	EndedAt   time.Time `json:"ended_at" db:"ended_at"`
}

// MatchRepository persists completed matches.
type MatchRepository interface {
	// Insert records one completed match.
	Insert(ctx context.Context, record MatchRecord) error

	// Recent returns the latest completed matches, newest first.
	Recent(ctx context.Context, limit int) ([]MatchRecord, error)
}

// EventRecord mirrors the in-memory chronicle entry for persistence.
// The events package should NOT import this; the persister adapts.
type EventRecord struct {
	ID        string    `json:"id" db:"id"`
	MatchID   string    `json:"match_id" db:"match_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	EventType string    `json:"event_type" db:"event_type"`
	ActorID   string    `json:"actor_id" db:"actor_id"`
	TargetID  string    `json:"target_id" db:"target_id"`
	Payload   string    `json:"payload" db:"payload"` // JSON text
	Tick      int64     `json:"tick" db:"tick"`
}

// EventRepository is the immutable journal behind the event log.
type EventRepository interface {
	// Append adds a new event to the journal.
	Append(ctx context.Context, record EventRecord) error

	// GetByMatchID retrieves a full match in tick order, for replay.
	GetByMatchID(ctx context.Context, matchID string) ([]EventRecord, error)

	// GetByEventType retrieves one kind of event within a match.
	GetByEventType(ctx context.Context, matchID, eventType string) ([]EventRecord, error)
}
