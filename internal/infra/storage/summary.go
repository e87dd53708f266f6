// Package storage - summary.go
// Rebuilds a match's story from the event journal.
// This is the core of event sourcing: state = f(events).
package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Summarizer rebuilds match summaries from the event journal.
// This is used for:
// 1. The replay endpoint's digest block
// 2. Auditing a match after the in-memory log is gone
type Summarizer struct {
	eventRepo EventRepository
}

// NewSummarizer creates a new match summarizer.
func NewSummarizer(eventRepo EventRepository) *Summarizer {
	return &Summarizer{eventRepo: eventRepo}
}

// MatchSummary is the reconstructed outcome of one match.
type MatchSummary struct {
	MatchID   string          `json:"matchId"`
	Duration  float64         `json:"duration"`
	PeakScore float64         `json:"peakScore"`
	Spawned   int             `json:"spawned"`
	Turned    int             `json:"turned"`
	Downs     int             `json:"downs"`
	Blackout  bool            `json:"blackout"`
	Timeline  []TimelineEntry `json:"timeline"`
}

// TimelineEntry is one human-readable beat of the match.
type TimelineEntry struct {
	Tick      int64  `json:"tick"`
	EventType string `json:"eventType"`
	Summary   string `json:"summary"`
}

// Summarize replays a match's journal into a summary. ErrNotFound when
// the match left no events.
func (s *Summarizer) Summarize(ctx context.Context, matchID string) (*MatchSummary, error) {
	records, err := s.eventRepo.GetByMatchID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match events: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}

	summary := &MatchSummary{MatchID: matchID}

	for _, rec := range records {
		s.applyRecord(summary, rec)
		summary.Timeline = append(summary.Timeline, TimelineEntry{
			Tick:      rec.Tick,
			EventType: rec.EventType,
			Summary:   s.describe(rec),
		})
	}

	return summary, nil
}

// applyRecord folds one journal row into the summary counters.
func (s *Summarizer) applyRecord(summary *MatchSummary, rec EventRecord) {
	switch rec.EventType {
	case "SHADE_SPAWNED":
		summary.Spawned++
	case "SHADE_TURNED":
		summary.Turned++
	case "BEARER_DOWN":
		summary.Downs++
	case "BLACKOUT":
		summary.Blackout = true
	case "MATCH_ENDED":
		var payload struct {
			Duration  float64 `json:"duration"`
			PeakScore float64 `json:"peakScore"`
		}
		if err := json.Unmarshal([]byte(rec.Payload), &payload); err == nil {
			summary.Duration = payload.Duration
			summary.PeakScore = payload.PeakScore
		}
	}
}

// describe turns a journal row into one line for the timeline.
func (s *Summarizer) describe(rec EventRecord) string {
	switch rec.EventType {
	case "MATCH_STARTED":
		return "The bearers light their beams."
	case "BEARER_JOINED":
		return "A bearer steps into the ring."
	case "BEARER_LEFT":
		return "A bearer leaves the ring."
	case "SPAWN_GATE_OPENED":
		return "The gate opens; shades pour in."
	case "SHADE_SPAWNED":
		return "A shade slips into the ring."
	case "SHADE_FADING":
		return "A beam finds its mark; the fade begins."
	case "SHADE_TURNED":
		return "The fade completes; a wisp drifts friendly."
	case "TUNING_RAMPED":
		return "The arena tightens its grip."
	case "BLACKOUT":
		return "The lights die."
	case "BEARER_DOWN":
		return "A bearer falls."
	case "HIGH_SCORE":
		return "The all-time record falls."
	case "MATCH_ENDED":
		return "The last beam goes out."
	case "MATCH_RESET":
		return "The ring stands empty again."
	default:
		return "Something stirred in the dark."
	}
}
