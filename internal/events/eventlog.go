// Package events provides the event sourcing system for the arena.
// This is the Keeper's chronicle - an immutable log of everything that
// decided a match, replayable after the lights come back.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a game event.
type EventType string

const (
	EventTypeMatchStarted    EventType = "MATCH_STARTED"
	EventTypeBearerJoined    EventType = "BEARER_JOINED"
	EventTypeBearerLeft      EventType = "BEARER_LEFT"
	EventTypeSpawnGateOpened EventType = "SPAWN_GATE_OPENED"
	EventTypeShadeSpawned    EventType = "SHADE_SPAWNED"
	EventTypeShadeFading     EventType = "SHADE_FADING"
	EventTypeShadeTurned     EventType = "SHADE_TURNED"
	EventTypeTuningRamped    EventType = "TUNING_RAMPED"
	EventTypeBlackout        EventType = "BLACKOUT"
	EventTypeBearerDown      EventType = "BEARER_DOWN"
	EventTypeHighScore       EventType = "HIGH_SCORE"
	EventTypeMatchEnded      EventType = "MATCH_ENDED"
	EventTypeMatchReset      EventType = "MATCH_RESET"
)

// GameEvent represents an immutable record of an action in the arena.
type GameEvent struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`  // Who performed the action
	TargetID  string      `json:"target_id"` // Who was affected (optional)
	Payload   interface{} `json:"payload"`   // Event-specific data
	MatchID   string      `json:"match_id"`
	Tick      int64       `json:"tick"`
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// EventLog is the in-memory append-only log of game events.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	persister EventPersister
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	return &EventLog{
		events:    make([]GameEvent, 0),
		persister: persister,
	}
}

// Append adds a new event to the log. Events are immutable once appended.
func (el *EventLog) Append(event GameEvent) {
	el.mu.Lock()
	el.events = append(el.events, event)
	el.mu.Unlock()

	if el.persister != nil {
		// Write through to persistent storage
		// In a real high-throughput system this might be buffered/async
		go func(e GameEvent) {
			_ = el.persister.Append(e)
		}(event)
	}
}

// Len returns the number of events appended so far.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// Since returns a copy of every event from index onward. The hub's poller
// feeds on this to broadcast only what is new.
func (el *EventLog) Since(index int) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	if index < 0 {
		index = 0
	}
	if index >= len(el.events) {
		return nil
	}
	result := make([]GameEvent, len(el.events)-index)
	copy(result, el.events[index:])
	return result
}

// GetByActor returns all events performed by a specific actor.
func (el *EventLog) GetByActor(actorID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.ActorID == actorID {
			result = append(result, e)
		}
	}
	return result
}

// GetByMatch returns all events that occurred in a specific match.
func (el *EventLog) GetByMatch(matchID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.MatchID == matchID {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns a copy of the full history for state reconstruction.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	result := make([]GameEvent, len(el.events))
	copy(result, el.events)
	return result
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
