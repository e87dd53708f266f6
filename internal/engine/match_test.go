package engine

import (
	"testing"

	"github.com/PauMirall/Lumenfall/server/internal/domain/shade"
	"github.com/PauMirall/Lumenfall/server/internal/events"
)

func TestBeamHitTurnsShadeExactlyOnce(t *testing.T) {
	w := newTestWorld(t, flatTuning(), 0)
	w.AddBearer("b1", "Ana")
	w.MoveBearer("b1", 100, 0, 0) // far away, the shade never arrives
	w.SkipWait()

	stepFor(w, 5, 0.5)
	w.BeamHit("b1", "S-001")
	s := w.roster.Get("S-001")
	if s.State != shade.StateFading {
		t.Fatalf("state after beam hit = %s, want Fading", s.State)
	}

	// A second hit mid-fade neither restarts nor extends the timer.
	stepFor(w, 1, 0.5)
	w.BeamHit("b1", "S-001")
	if got := countEvents(w, events.EventTypeShadeFading); got != 1 {
		t.Errorf("fading events after repeat hit = %d, want 1", got)
	}

	stepFor(w, 1.5, 0.5) // t=7.5, half a second short
	if s.State != shade.StateFading {
		t.Fatalf("turned early at t=7.5, state = %s", s.State)
	}
	w.Step(0.5) // t=8, exactly hit+fadeDuration
	if s.State != shade.StateTurned {
		t.Fatalf("state at t=8 = %s, want Turned", s.State)
	}
	if s.MoveSpeed != 0 || s.FadeLeft != 0 {
		t.Errorf("turned shade not frozen: speed=%v fadeLeft=%v", s.MoveSpeed, s.FadeLeft)
	}
	if got := countEvents(w, events.EventTypeShadeTurned); got != 1 {
		t.Fatalf("turned events = %d, want exactly 1", got)
	}

	// Turned is forever: no more movement, no more events.
	x, z := s.X, s.Z
	stepFor(w, 2, 0.5)
	if s.X != x || s.Z != z {
		t.Error("turned shade moved")
	}
	if got := countEvents(w, events.EventTypeShadeTurned); got != 1 {
		t.Errorf("turned events after extra steps = %d, want 1", got)
	}
}

func TestFadingShadeKeepsChasing(t *testing.T) {
	w := newTestWorld(t, flatTuning(), 0)
	w.AddBearer("b1", "Ana")
	w.MoveBearer("b1", 200, 0, 0)
	w.SkipWait()

	w.BeamHit("b1", "S-001")
	s := w.roster.Get("S-001")
	x0 := s.X
	stepFor(w, 2, 0.5)
	if s.State != shade.StateFading {
		t.Fatalf("state = %s, want still Fading", s.State)
	}
	if s.X == x0 {
		t.Error("fading shade stopped chasing")
	}
}

func TestShadeFreezesWhileItsBearerIsGone(t *testing.T) {
	w := newTestWorld(t, flatTuning(), 0)
	w.AddBearer("b1", "Ana")
	w.AddBearer("b2", "Pau")
	w.MoveBearer("b1", 200, 0, 0)
	w.SkipWait()

	s := w.roster.Get("S-001")
	target := s.BearerID
	stepFor(w, 1, 0.5)

	// Removing the hunted bearer must not crash the tick; the shade
	// just holds position. It never retargets.
	w.RemoveBearer(target)
	x, z := s.X, s.Z
	stepFor(w, 2, 0.5)
	if s.X != x || s.Z != z {
		t.Error("shade moved while its bearer was gone")
	}
	if s.State != shade.StateHostile {
		t.Errorf("state = %s, want still Hostile", s.State)
	}
}

func TestScoreIsRecomputedFromSurvivalTime(t *testing.T) {
	w := newTestWorld(t, flatTuning(), 0)
	b := w.AddBearer("b1", "Ana")

	stepFor(w, 4, 0.5)
	if b.Score != 40 {
		t.Errorf("score at t=4 = %v, want 40", b.Score)
	}
	stepFor(w, 6, 0.5)
	if b.Score != 100 {
		t.Errorf("score at t=10 = %v, want 100", b.Score)
	}
}

func TestCatchKeepsTheOldRecord(t *testing.T) {
	w := newTestWorld(t, flatTuning(), 100)
	b := w.AddBearer("b1", "Ana")

	stepFor(w, 8, 0.5)
	w.CatchBearer("b1", "S-001")

	if b.Score != 80 {
		t.Errorf("final score = %v, want 80", b.Score)
	}
	if got := w.scores.HighScore(); got != 100 {
		t.Errorf("high score = %v, want untouched 100", got)
	}
	if got := countEvents(w, events.EventTypeHighScore); got != 0 {
		t.Errorf("high score events = %d, want none for a losing run", got)
	}
}

func TestCatchBeatsTheRecordOnce(t *testing.T) {
	w := newTestWorld(t, flatTuning(), 100)
	w.AddBearer("b1", "Ana")
	w.AddBearer("b2", "Pau")

	stepFor(w, 15, 0.5)
	w.CatchBearer("b1", "S-001")
	w.CatchBearer("b1", "S-002") // duplicate report, must change nothing

	if got := w.scores.HighScore(); got != 150 {
		t.Errorf("high score = %v, want 150", got)
	}
	if got := countEvents(w, events.EventTypeHighScore); got != 1 {
		t.Errorf("high score events = %d, want exactly 1", got)
	}
	if got := countEvents(w, events.EventTypeBearerDown); got != 1 {
		t.Errorf("down events = %d, want exactly 1", got)
	}

	var payload HighScorePayload
	for _, ev := range w.eventLog.Replay() {
		if p, ok := ev.Payload.(HighScorePayload); ok {
			payload = p
		}
	}
	if payload.Score != 150 || payload.Previous != 100 {
		t.Errorf("record payload = %+v, want 150 over 100", payload)
	}
}

func TestDownBearerScoreStaysFrozen(t *testing.T) {
	w := newTestWorld(t, flatTuning(), 0)
	b := w.AddBearer("b1", "Ana")
	w.AddBearer("b2", "Pau")

	stepFor(w, 8, 0.5)
	w.CatchBearer("b1", "S-001")
	stepFor(w, 10, 0.5) // the match runs on for Pau

	if b.Score != 80 {
		t.Errorf("downed bearer score = %v, want frozen 80", b.Score)
	}
}

func TestLastBearerDownEndsAndResetsTheMatch(t *testing.T) {
	w := newTestWorld(t, flatTuning(), 0)
	w.AddBearer("b1", "Ana")
	w.AddBearer("b2", "Pau")
	firstMatch := w.matchID

	stepFor(w, 5, 0.5)
	w.CatchBearer("b1", "S-001")
	if w.phase != PhaseLive {
		t.Fatal("match ended while a bearer still stood")
	}

	w.CatchBearer("b2", "S-002")
	if w.phase != PhaseOver {
		t.Fatal("match still live with every bearer down")
	}
	if got := countEvents(w, events.EventTypeMatchEnded); got != 1 {
		t.Fatalf("match ended events = %d, want 1", got)
	}

	// The Over screen lingers for the reset delay, then a fresh match
	// starts around the bearers still connected.
	stepFor(w, 1.5, 0.5)
	if w.phase != PhaseOver {
		t.Fatal("reset fired early")
	}
	w.Step(0.5)
	if w.phase != PhaseLive {
		t.Fatalf("phase after reset = %s, want Live", w.phase)
	}
	if w.matchID == firstMatch {
		t.Error("reset reused the old match id")
	}
	if w.matchTime != 0 {
		t.Errorf("fresh match time = %v, want 0", w.matchTime)
	}
	if got := w.roster.Len(); got != 0 {
		t.Errorf("fresh match roster has %d shades, want 0", got)
	}
	if w.spawner.GateOpen() {
		t.Error("fresh match gate already open")
	}
	for _, id := range []string{"b1", "b2"} {
		b := w.bearers[id]
		if !b.Up || b.Score != 0 {
			t.Errorf("bearer %s not revived: up=%v score=%v", id, b.Up, b.Score)
		}
	}
}

func TestLastBearerLeavingDropsToLobby(t *testing.T) {
	w := newTestWorld(t, flatTuning(), 0)
	w.AddBearer("b1", "Ana")
	stepFor(w, 3, 0.5)

	w.RemoveBearer("b1")
	if w.phase != PhaseOver {
		t.Fatalf("phase after last leave = %s, want Over", w.phase)
	}
	stepFor(w, 2, 0.5)
	if w.phase != PhaseLobby {
		t.Fatalf("phase after reset = %s, want Lobby", w.phase)
	}
	if got := countEvents(w, events.EventTypeMatchStarted); got != 1 {
		t.Errorf("match started events = %d, want just the first", got)
	}

	// An idle lobby ticks without effect.
	stepFor(w, 5, 0.5)
	if w.matchTime != 0 {
		t.Errorf("lobby accumulated match time: %v", w.matchTime)
	}
}

func TestBlackoutFiresExactlyOnce(t *testing.T) {
	w := newTestWorld(t, flatTuning(), 0)
	w.AddBearer("b1", "Ana")

	stepFor(w, 89.5, 0.5)
	if w.blackout.Dark() {
		t.Fatal("blackout before its time")
	}
	w.Step(0.5) // t=90
	if !w.blackout.Dark() {
		t.Fatal("no blackout at t=90")
	}
	stepFor(w, 5, 0.5)
	if got := countEvents(w, events.EventTypeBlackout); got != 1 {
		t.Errorf("blackout events = %d, want exactly 1", got)
	}
}

func TestSnapshotReflectsTheWorld(t *testing.T) {
	w := newTestWorld(t, flatTuning(), 420)
	w.AddBearer("b1", "Ana")
	w.SkipWait()
	stepFor(w, 2, 0.5)

	snap := w.Snapshot()
	if snap.Phase != PhaseLive {
		t.Errorf("snapshot phase = %s, want Live", snap.Phase)
	}
	if snap.MatchTime != 2 {
		t.Errorf("snapshot match time = %v, want 2", snap.MatchTime)
	}
	if !snap.SpawnGateOpen {
		t.Error("snapshot gate shut after a skip")
	}
	if snap.HighScore != 420 {
		t.Errorf("snapshot high score = %v, want 420", snap.HighScore)
	}
	if len(snap.Bearers) != 1 || snap.Bearers[0].Name != "Ana" {
		t.Fatalf("snapshot bearers = %+v", snap.Bearers)
	}
	if len(snap.Shades) != 1 || snap.Shades[0].ID != "S-001" {
		t.Fatalf("snapshot shades = %+v", snap.Shades)
	}

	// Snapshots are copies: mutating the world later must not reach
	// into one already taken.
	w.MoveBearer("b1", 50, 0, 0)
	if snap.Bearers[0].X == 50 {
		t.Error("snapshot aliased live bearer state")
	}
}
