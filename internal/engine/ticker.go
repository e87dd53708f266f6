package engine

import (
	"context"
	"time"

	"github.com/PauMirall/Lumenfall/server/internal/platform/metrics"
)

// Run starts the heartbeat. Call it in a goroutine; it returns when the
// context dies or Stop is called. Each tick drains the command queue,
// steps the world by the fixed dt and publishes a snapshot.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("Engine started. The Keeper watches the ring.")
	ticker := time.NewTicker(e.tickStep)
	defer ticker.Stop()
	dt := e.tickStep.Seconds()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Engine stopped by context.")
			return
		case <-e.stopChan:
			e.logger.Info("Engine stopped.")
			return
		case <-ticker.C:
			started := time.Now()
			e.drainCommands()
			e.world.Step(dt)
			e.publish()
			metrics.Get().RecordTick(time.Since(started))
		}
	}
}

// Stop ends the loop. Safe to call once.
func (e *Engine) Stop() {
	close(e.stopChan)
}

// drainCommands applies everything queued since the last tick, in
// arrival order, before the world steps.
func (e *Engine) drainCommands() {
	for {
		select {
		case cmd := <-e.commands:
			e.apply(cmd)
			metrics.Get().RecordCommand()
		default:
			return
		}
	}
}

// apply routes one command to the world.
func (e *Engine) apply(cmd Command) {
	switch cmd.Type {
	case CommandJoin:
		e.world.AddBearer(cmd.BearerID, cmd.Name)
	case CommandLeave:
		e.world.RemoveBearer(cmd.BearerID)
	case CommandMove:
		e.world.MoveBearer(cmd.BearerID, cmd.X, cmd.Y, cmd.Z)
	case CommandBeamHit:
		e.world.BeamHit(cmd.BearerID, cmd.ShadeID)
	case CommandCaught:
		e.world.CatchBearer(cmd.BearerID, cmd.ShadeID)
	case CommandSkipWait:
		e.world.SkipWait()
	default:
		e.logger.Warn("Unknown command type: " + string(cmd.Type))
	}
}

// publish refreshes the status snapshot and, on the broadcast cadence,
// offers it to the hub. A busy hub skips the frame rather than stall
// the simulation.
func (e *Engine) publish() {
	snap := e.world.Snapshot()
	e.lastSnapshot.Store(snap)
	metrics.Get().SetPopulation(int64(e.world.roster.LiveCount()), int64(e.world.upBearers()))

	if e.snapshotEvery > 1 && snap.Tick%e.snapshotEvery != 0 {
		return
	}
	select {
	case e.snapshots <- snap:
	default:
		metrics.Get().RecordSnapshotDropped()
	}
}
