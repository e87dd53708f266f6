package events

import (
	"sync"
	"testing"
	"time"
)

type capturePersister struct {
	mu       sync.Mutex
	appended []GameEvent
}

func (c *capturePersister) Append(event GameEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appended = append(c.appended, event)
	return nil
}

func (c *capturePersister) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.appended)
}

func makeEvent(t EventType, matchID string, tick int64) GameEvent {
	return GameEvent{
		ID:        GenerateEventID(),
		Timestamp: time.Now(),
		Type:      t,
		MatchID:   matchID,
		Tick:      tick,
	}
}

func TestAppendAndReplay(t *testing.T) {
	log := NewEventLog(nil)

	log.Append(makeEvent(EventTypeMatchStarted, "m1", 0))
	log.Append(makeEvent(EventTypeShadeSpawned, "m1", 600))
	log.Append(makeEvent(EventTypeBearerDown, "m1", 900))

	history := log.Replay()
	if len(history) != 3 {
		t.Fatalf("expected 3 events, got %d", len(history))
	}
	if history[0].Type != EventTypeMatchStarted {
		t.Errorf("replay out of order: first is %s", history[0].Type)
	}
	if log.Len() != 3 {
		t.Errorf("expected Len 3, got %d", log.Len())
	}
}

func TestSinceReturnsOnlyNewEvents(t *testing.T) {
	log := NewEventLog(nil)
	log.Append(makeEvent(EventTypeMatchStarted, "m1", 0))
	log.Append(makeEvent(EventTypeShadeSpawned, "m1", 600))

	tail := log.Since(1)
	if len(tail) != 1 || tail[0].Type != EventTypeShadeSpawned {
		t.Fatalf("expected only the spawn event, got %v", tail)
	}
	if got := log.Since(2); got != nil {
		t.Errorf("expected nil past the end, got %v", got)
	}
	if got := log.Since(-5); len(got) != 2 {
		t.Errorf("negative index should mean everything, got %d events", len(got))
	}
}

func TestGetByMatchFilters(t *testing.T) {
	log := NewEventLog(nil)
	log.Append(makeEvent(EventTypeMatchStarted, "m1", 0))
	log.Append(makeEvent(EventTypeMatchEnded, "m1", 1200))
	log.Append(makeEvent(EventTypeMatchStarted, "m2", 1240))

	if got := log.GetByMatch("m1"); len(got) != 2 {
		t.Errorf("expected 2 events for m1, got %d", len(got))
	}
	if got := log.GetByMatch("m2"); len(got) != 1 {
		t.Errorf("expected 1 event for m2, got %d", len(got))
	}
}

func TestGetByActor(t *testing.T) {
	log := NewEventLog(nil)
	ev := makeEvent(EventTypeBearerDown, "m1", 300)
	ev.ActorID = "bearer-7"
	log.Append(ev)
	log.Append(makeEvent(EventTypeBlackout, "m1", 1800))

	got := log.GetByActor("bearer-7")
	if len(got) != 1 || got[0].Type != EventTypeBearerDown {
		t.Errorf("expected the bearer's down event, got %v", got)
	}
}

func TestWriteThroughPersister(t *testing.T) {
	p := &capturePersister{}
	log := NewEventLog(p)

	log.Append(makeEvent(EventTypeMatchStarted, "m1", 0))
	log.Append(makeEvent(EventTypeBlackout, "m1", 1800))

	// The write-through is async; give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for p.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("persister saw %d of 2 events", p.count())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestReplayIsACopy(t *testing.T) {
	log := NewEventLog(nil)
	log.Append(makeEvent(EventTypeMatchStarted, "m1", 0))

	history := log.Replay()
	history[0].MatchID = "tampered"

	if log.Replay()[0].MatchID != "m1" {
		t.Error("mutating a replay slice leaked into the log")
	}
}
