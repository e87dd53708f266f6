package engine

import (
	"math/rand"
	"testing"
	"time"

	"github.com/PauMirall/Lumenfall/server/internal/events"
	"github.com/PauMirall/Lumenfall/server/internal/platform/logger"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(Deps{
		EventLog:      events.NewEventLog(nil),
		Logger:        logger.NewLogger(),
		Tuning:        flatTuning(),
		TickStep:      50 * time.Millisecond,
		SnapshotEvery: 2,
		RNG:           rand.New(rand.NewSource(7)),
	})
}

// The loop itself is a ticker around drainCommands, Step and publish, so
// the plumbing is tested synchronously, one hand-rolled tick at a time.

func TestEngineAppliesQueuedCommands(t *testing.T) {
	e := newTestEngine(t)

	if !e.Submit(Command{Type: CommandJoin, BearerID: "b1", Name: "Ana"}) {
		t.Fatal("submit rejected with an empty queue")
	}
	e.drainCommands()
	e.world.Step(0.05)
	e.publish()

	status := e.Status()
	if status.Phase != PhaseLive {
		t.Fatalf("status phase = %s, want Live after a join", status.Phase)
	}
	if len(status.Bearers) != 1 || status.Bearers[0].ID != "b1" {
		t.Fatalf("status bearers = %+v", status.Bearers)
	}
}

func TestEngineBroadcastsOnTheSnapshotCadence(t *testing.T) {
	e := newTestEngine(t)

	e.world.Step(0.05) // tick 1, off cadence
	e.publish()
	select {
	case <-e.Snapshots():
		t.Fatal("snapshot broadcast on an off-cadence tick")
	default:
	}
	if got := e.Status().Tick; got != 1 {
		t.Errorf("status tick = %d, want 1; Status must refresh every tick", got)
	}

	e.world.Step(0.05) // tick 2, on cadence
	e.publish()
	select {
	case snap := <-e.Snapshots():
		if snap.Tick != 2 {
			t.Errorf("broadcast tick = %d, want 2", snap.Tick)
		}
	default:
		t.Fatal("no snapshot on the cadence tick")
	}
}

func TestEngineFillsMissingDeps(t *testing.T) {
	e := NewEngine(Deps{
		EventLog: events.NewEventLog(nil),
		Logger:   logger.NewLogger(),
		Tuning:   DefaultTuning(),
	})
	if e.tickStep != 50*time.Millisecond {
		t.Errorf("tick step = %v, want the 50ms default", e.tickStep)
	}
	if e.snapshotEvery != 2 {
		t.Errorf("snapshot cadence = %d, want the default 2", e.snapshotEvery)
	}
	if e.world.rng == nil {
		t.Error("rng left nil")
	}
}
