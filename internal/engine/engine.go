package engine

import (
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/PauMirall/Lumenfall/server/internal/events"
	"github.com/PauMirall/Lumenfall/server/internal/platform/logger"
	"github.com/PauMirall/Lumenfall/server/internal/platform/metrics"
)

const commandQueueSize = 256

// Deps bundles everything the engine needs from the outside.
type Deps struct {
	EventLog *events.EventLog
	Logger   *logger.Logger
	Tuning   Tuning

	TickStep      time.Duration // fixed simulation step, default 50ms
	SnapshotEvery int           // broadcast every Nth tick, default 2
	RNG           *rand.Rand    // nil means time-seeded
	HighScore     float64       // best score ever, loaded at boot
}

// Engine drives the World. It owns the command queue, the fixed-step
// tick loop and the snapshot feed; the World itself never leaves the
// loop goroutine.
type Engine struct {
	world  *World
	logger *logger.Logger

	tickStep      time.Duration
	snapshotEvery int64

	commands  chan Command
	snapshots chan Snapshot
	stopChan  chan struct{}

	lastSnapshot atomic.Value // Snapshot, for HTTP status reads
}

// NewEngine wires a world and its loop plumbing, filling optional deps
// with defaults.
func NewEngine(deps Deps) *Engine {
	if deps.TickStep <= 0 {
		deps.TickStep = 50 * time.Millisecond
	}
	if deps.SnapshotEvery < 1 {
		deps.SnapshotEvery = 2
	}
	if deps.RNG == nil {
		deps.RNG = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	e := &Engine{
		world:         NewWorld(deps.EventLog, deps.Logger, deps.RNG, deps.Tuning, deps.HighScore),
		logger:        deps.Logger,
		tickStep:      deps.TickStep,
		snapshotEvery: int64(deps.SnapshotEvery),
		commands:      make(chan Command, commandQueueSize),
		snapshots:     make(chan Snapshot, 1),
		stopChan:      make(chan struct{}),
	}
	e.lastSnapshot.Store(e.world.Snapshot())
	return e
}

// Submit queues a command for the next tick. Non-blocking: when the
// queue is full the command is dropped and the caller sees false.
func (e *Engine) Submit(cmd Command) bool {
	select {
	case e.commands <- cmd:
		return true
	default:
		metrics.Get().RecordCommandDropped()
		e.logger.Warn("Command queue full, dropped: " + string(cmd.Type))
		return false
	}
}

// Snapshots is the feed the hub broadcasts from.
func (e *Engine) Snapshots() <-chan Snapshot {
	return e.snapshots
}

// Status returns the most recent snapshot without touching the World.
// Safe from any goroutine.
func (e *Engine) Status() Snapshot {
	return e.lastSnapshot.Load().(Snapshot)
}
