package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteSettingsRepository implements SettingsRepository for SQLite.
type SQLiteSettingsRepository struct {
	db *sql.DB
}

func NewSQLiteSettingsRepository(db *sql.DB) *SQLiteSettingsRepository {
	return &SQLiteSettingsRepository{db: db}
}

func (r *SQLiteSettingsRepository) GetFloat(ctx context.Context, key string) (float64, error) {
	query := `SELECT value FROM settings WHERE key = ?`
	var value float64
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteSettingsRepository) PutFloat(ctx context.Context, key string, value float64) error {
	query := `
		INSERT INTO settings (key, value, last_updated)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			last_updated=excluded.last_updated
	`
	_, err := r.db.ExecContext(ctx, query, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// ---------------------------------------------------------
// SQLiteScoreRepository
// ---------------------------------------------------------

type SQLiteScoreRepository struct {
	db *sql.DB
}

func NewSQLiteScoreRepository(db *sql.DB) *SQLiteScoreRepository {
	return &SQLiteScoreRepository{db: db}
}

func (r *SQLiteScoreRepository) Insert(ctx context.Context, record ScoreRecord) error {
	query := `
		INSERT INTO scores (id, match_id, bearer_id, name, score, survived, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.MatchID, record.BearerID, record.Name,
		record.Score, record.Survived, record.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert score: %w", err)
	}
	return nil
}

func (r *SQLiteScoreRepository) TopScores(ctx context.Context, limit int) ([]ScoreRecord, error) {
	query := `SELECT id, match_id, bearer_id, name, score, survived, recorded_at FROM scores ORDER BY score DESC, recorded_at ASC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ScoreRecord
	for rows.Next() {
		var rec ScoreRecord
		err := rows.Scan(&rec.ID, &rec.MatchID, &rec.BearerID, &rec.Name, &rec.Score, &rec.Survived, &rec.RecordedAt)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ---------------------------------------------------------
// SQLiteMatchRepository
// ---------------------------------------------------------

type SQLiteMatchRepository struct {
	db *sql.DB
}

func NewSQLiteMatchRepository(db *sql.DB) *SQLiteMatchRepository {
	return &SQLiteMatchRepository{db: db}
}

func (r *SQLiteMatchRepository) Insert(ctx context.Context, record MatchRecord) error {
	query := `
		INSERT INTO matches (match_id, duration, peak_score, spawned, turned, blackout, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		record.MatchID, record.Duration, record.PeakScore,
		record.Spawned, record.Turned, record.Blackout, record.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}
	return nil
}

func (r *SQLiteMatchRepository) Recent(ctx context.Context, limit int) ([]MatchRecord, error) {
	query := `SELECT match_id, duration, peak_score, spawned, turned, blackout, ended_at FROM matches ORDER BY ended_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []MatchRecord
	for rows.Next() {
		var rec MatchRecord
		err := rows.Scan(&rec.MatchID, &rec.Duration, &rec.PeakScore, &rec.Spawned, &rec.Turned, &rec.Blackout, &rec.EndedAt)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ---------------------------------------------------------
// SQLiteEventRepository
// ---------------------------------------------------------

type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, record EventRecord) error {
	query := `
		INSERT INTO events (id, match_id, timestamp, event_type, actor_id, target_id, payload, tick)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.MatchID, record.Timestamp, record.EventType,
		record.ActorID, record.TargetID, record.Payload, record.Tick,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]EventRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []EventRecord
	for rows.Next() {
		var rec EventRecord
		err := rows.Scan(
			&rec.ID, &rec.MatchID, &rec.Timestamp, &rec.EventType,
			&rec.ActorID, &rec.TargetID, &rec.Payload, &rec.Tick,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *SQLiteEventRepository) GetByMatchID(ctx context.Context, matchID string) ([]EventRecord, error) {
	query := `SELECT id, match_id, timestamp, event_type, actor_id, target_id, payload, tick FROM events WHERE match_id = ? ORDER BY tick ASC, timestamp ASC`
	return r.getMany(ctx, query, matchID)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, matchID, eventType string) ([]EventRecord, error) {
	query := `SELECT id, match_id, timestamp, event_type, actor_id, target_id, payload, tick FROM events WHERE match_id = ? AND event_type = ? ORDER BY tick ASC, timestamp ASC`
	return r.getMany(ctx, query, matchID, eventType)
}
