package engine

import (
	"math"
	"math/rand"
	"testing"

	"github.com/PauMirall/Lumenfall/server/internal/events"
	"github.com/PauMirall/Lumenfall/server/internal/platform/logger"
)

// newTestWorld builds a world with a seeded rng and no persistence.
func newTestWorld(t *testing.T, tuning Tuning, highScore float64) *World {
	t.Helper()
	return NewWorld(events.NewEventLog(nil), logger.NewLogger(), rand.New(rand.NewSource(7)), tuning, highScore)
}

// stepFor advances the world by whole steps of dt. Use binary-exact
// steps (0.5, 0.25) when a test asserts on exact boundaries.
func stepFor(w *World, seconds, dt float64) {
	steps := int(seconds/dt + 0.5)
	for i := 0; i < steps; i++ {
		w.Step(dt)
	}
}

func countEvents(w *World, eventType events.EventType) int {
	count := 0
	for _, ev := range w.eventLog.Replay() {
		if ev.Type == eventType {
			count++
		}
	}
	return count
}

func countRamps(w *World, kind string) int {
	count := 0
	for _, ev := range w.eventLog.Replay() {
		payload, ok := ev.Payload.(TuningRampedPayload)
		if ok && payload.Kind == kind {
			count++
		}
	}
	return count
}

// flatTuning disables both ramps so gate and cadence can be observed
// in isolation.
func flatTuning() Tuning {
	tn := DefaultTuning()
	tn.IntervalRampEvery = 1e9
	tn.SpeedRampEvery = 1e9
	return tn
}

func TestNoSpawnBeforeGateOpens(t *testing.T) {
	w := newTestWorld(t, flatTuning(), 0)
	w.AddBearer("b1", "Ana")

	stepFor(w, 29.5, 0.5)
	if got := w.roster.Len(); got != 0 {
		t.Fatalf("expected no shades before the gate opens, got %d", got)
	}
	if w.spawner.GateOpen() {
		t.Fatal("gate open before the initial delay elapsed")
	}

	w.Step(0.5) // lands exactly on t=30
	if !w.spawner.GateOpen() {
		t.Fatal("gate still shut at t=30")
	}
	if got := w.roster.Len(); got != 1 {
		t.Fatalf("expected the first shade the instant the gate opens, got %d", got)
	}
	if got := countEvents(w, events.EventTypeSpawnGateOpened); got != 1 {
		t.Errorf("expected 1 gate event, got %d", got)
	}
	if got := w.roster.Get("S-001").MoveSpeed; got != 3.5 {
		t.Errorf("first shade speed = %v, want 3.5", got)
	}
}

func TestSpawnCadenceAfterGate(t *testing.T) {
	w := newTestWorld(t, flatTuning(), 0)
	w.AddBearer("b1", "Ana")

	stepFor(w, 32.5, 0.5)
	if got := w.roster.Len(); got != 1 {
		t.Fatalf("at t=32.5 expected 1 shade, got %d", got)
	}
	w.Step(0.5) // t=33, one interval past the gate
	if got := w.roster.Len(); got != 2 {
		t.Fatalf("at t=33 expected 2 shades, got %d", got)
	}
	stepFor(w, 3, 0.5) // t=36
	if got := w.roster.Len(); got != 3 {
		t.Fatalf("at t=36 expected 3 shades, got %d", got)
	}
}

func TestSkipWaitIsIdempotent(t *testing.T) {
	w := newTestWorld(t, flatTuning(), 0)
	w.AddBearer("b1", "Ana")

	stepFor(w, 5, 0.5)
	w.SkipWait()
	if got := w.roster.Len(); got != 1 {
		t.Fatalf("expected a spawn the moment the gate is skipped, got %d", got)
	}

	w.SkipWait() // second skip must change nothing
	if got := w.roster.Len(); got != 1 {
		t.Fatalf("second skip spawned, roster has %d", got)
	}
	if got := countEvents(w, events.EventTypeSpawnGateOpened); got != 1 {
		t.Errorf("expected 1 gate event after double skip, got %d", got)
	}

	// The cadence origin is the skip instant: next spawn one interval on.
	stepFor(w, 2.5, 0.5)
	if got := w.roster.Len(); got != 1 {
		t.Fatalf("spawned before one interval passed since the skip, got %d", got)
	}
	w.Step(0.5) // t=8, exactly skip+interval
	if got := w.roster.Len(); got != 2 {
		t.Fatalf("expected the second shade at skip+interval, got %d", got)
	}
}

func TestSpawnBudgetHoldsAtMaxShades(t *testing.T) {
	tn := flatTuning()
	tn.MaxShades = 3
	tn.SpawnInterval = 1
	w := newTestWorld(t, tn, 0)
	w.AddBearer("b1", "Ana")

	w.SkipWait()
	stepFor(w, 5, 0.5)
	if got := w.roster.Len(); got != 3 {
		t.Fatalf("budget ignored: expected 3 shades, got %d", got)
	}

	// Turning a shade frees a slot; the next attempt fills it.
	w.BeamHit("b1", "S-001")
	stepFor(w, 5, 0.5)
	if got := w.roster.Len(); got != 4 {
		t.Fatalf("freed slot never refilled, roster has %d", got)
	}
	if got := w.roster.LiveCount(); got != 3 {
		t.Errorf("live count = %d, want 3", got)
	}
}

func TestRampsRunWhileGateShut(t *testing.T) {
	w := newTestWorld(t, DefaultTuning(), 0)
	w.AddBearer("b1", "Ana")

	stepFor(w, 30, 0.5)
	// Speed ramped at t=20, before any shade existed; the first shade
	// spawns already faster.
	if got := w.spawner.Speed(); got != 4.0 {
		t.Errorf("speed after one ramp = %v, want 4.0", got)
	}
	if got := w.roster.Get("S-001").MoveSpeed; got != 4.0 {
		t.Errorf("first shade speed = %v, want the ramped 4.0", got)
	}
	// Interval ramped at t=30, in the same step the gate opened.
	if got := w.spawner.Interval(); math.Abs(got-2.4) > 1e-9 {
		t.Errorf("interval after one ramp = %v, want 2.4", got)
	}
}

func TestSpeedRampIsRetroactive(t *testing.T) {
	w := newTestWorld(t, DefaultTuning(), 0)
	w.AddBearer("b1", "Ana")

	w.SkipWait() // S-001 enters at t=0 with the base speed
	w.BeamHit("b1", "S-001")
	stepFor(w, 3, 0.5) // S-001 turned at t=3, speed zeroed

	stepFor(w, 17, 0.5) // t=20, first speed ramp
	for _, s := range w.roster.All() {
		if s.Live() && s.MoveSpeed != 4.0 {
			t.Errorf("live shade %s speed = %v, want ramped 4.0", s.ID, s.MoveSpeed)
		}
	}
	if got := w.roster.Get("S-001").MoveSpeed; got != 0 {
		t.Errorf("turned shade speed = %v, want frozen 0", got)
	}
}

func TestIntervalFloorsAndSpeedCaps(t *testing.T) {
	tn := flatTuning()
	tn.SpawnInterval = 0.6
	tn.IntervalRampEvery = 1
	tn.SpeedRampEvery = 1
	tn.MoveSpeed = 14.8
	tn.InitialDelay = 1e9 // keep the ring empty, only the ramps matter
	w := newTestWorld(t, tn, 0)
	w.AddBearer("b1", "Ana")

	stepFor(w, 1, 0.5)
	if got := w.spawner.Interval(); got != tn.MinSpawnInterval {
		t.Errorf("interval = %v, want floored at %v", got, tn.MinSpawnInterval)
	}
	if got := w.spawner.Speed(); got != tn.MaxMoveSpeed {
		t.Errorf("speed = %v, want capped at %v", got, tn.MaxMoveSpeed)
	}

	// Pinned values ramp no further and emit no more events.
	stepFor(w, 3, 0.5)
	if got := w.spawner.Interval(); got != tn.MinSpawnInterval {
		t.Errorf("interval moved off the floor: %v", got)
	}
	if got := countRamps(w, "interval"); got != 1 {
		t.Errorf("interval ramp events = %d, want 1", got)
	}
	if got := countRamps(w, "speed"); got != 1 {
		t.Errorf("speed ramp events = %d, want 1", got)
	}
}

func TestSpawnRingSurroundsTheTarget(t *testing.T) {
	tn := flatTuning()
	w := newTestWorld(t, tn, 0)
	w.AddBearer("b1", "Ana")
	w.MoveBearer("b1", 10, 2, -5)

	w.SkipWait()
	stepFor(w, 9, 0.5) // spawns at 0, 3, 6, 9

	// Shades start chasing immediately, so check the positions the
	// spawn events recorded, not where the shades are now.
	spawns := 0
	for _, ev := range w.eventLog.Replay() {
		payload, ok := ev.Payload.(ShadeSpawnedPayload)
		if !ok {
			continue
		}
		spawns++
		dist := math.Hypot(payload.X-10, payload.Z-(-5))
		if dist < tn.SpawnDistance-1e-9 || dist > tn.SpawnDistance+tn.SpawnBand+1e-9 {
			t.Errorf("shade %s spawned %.2f from the target, want within [%v, %v]",
				payload.ShadeID, dist, tn.SpawnDistance, tn.SpawnDistance+tn.SpawnBand)
		}
		if payload.Y != 2 {
			t.Errorf("shade %s spawned at height %v, want the target's 2", payload.ShadeID, payload.Y)
		}
	}
	if spawns != 4 {
		t.Fatalf("expected 4 spawns, got %d", spawns)
	}
}

func TestSpawnTargetsOnlyStandingBearers(t *testing.T) {
	w := newTestWorld(t, flatTuning(), 0)
	w.AddBearer("b1", "Ana")
	w.AddBearer("b2", "Pau")
	w.CatchBearer("b1", "") // Ana is down before any shade exists

	w.SkipWait()
	stepFor(w, 9, 0.5)

	for _, s := range w.roster.All() {
		if s.BearerID != "b2" {
			t.Errorf("shade %s hunts %s, want only the standing b2", s.ID, s.BearerID)
		}
	}
}
