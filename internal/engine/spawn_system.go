package engine

import (
	"fmt"

	"github.com/PauMirall/Lumenfall/server/internal/domain/rules"
	"github.com/PauMirall/Lumenfall/server/internal/domain/shade"
	"github.com/PauMirall/Lumenfall/server/internal/events"
	"github.com/PauMirall/Lumenfall/server/internal/platform/metrics"
)

// GateOpenedPayload records the spawn gate opening, scheduled or skipped.
type GateOpenedPayload struct {
	AtMatchTime float64 `json:"atMatchTime"`
	Skipped     bool    `json:"skipped"`
}

// ShadeSpawnedPayload records a shade entering the ring.
type ShadeSpawnedPayload struct {
	ShadeID  string  `json:"shadeId"`
	BearerID string  `json:"bearerId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Speed    float64 `json:"speed"`
}

// TuningRampedPayload records a difficulty ramp firing.
type TuningRampedPayload struct {
	Kind        string  `json:"kind"` // "interval" or "speed"
	From        float64 `json:"from"`
	To          float64 `json:"to"`
	AtMatchTime float64 `json:"atMatchTime"`
}

// SpawnSystem drives the ring closing in: the spawn gate, the spawn
// cadence and both difficulty ramps. All of its clocks are summed
// simulation seconds; the wall clock never reaches in here.
type SpawnSystem struct {
	tuning Tuning

	gateOpen    bool
	gateElapsed float64 // toward InitialDelay while the gate is shut

	interval   float64 // current seconds between spawn attempts
	spawnClock float64 // toward the next spawn attempt

	intervalClock float64 // toward the next cadence tightening
	speed         float64 // chase speed handed to new shades
	speedClock    float64 // toward the next speed bump
}

func NewSpawnSystem(tuning Tuning) *SpawnSystem {
	ss := &SpawnSystem{}
	ss.Reset(tuning)
	return ss
}

// Reset rewinds the scheduler to match-start conditions.
func (ss *SpawnSystem) Reset(tuning Tuning) {
	ss.tuning = tuning
	ss.gateOpen = false
	ss.gateElapsed = 0
	ss.interval = tuning.SpawnInterval
	ss.spawnClock = 0
	ss.intervalClock = 0
	ss.speed = tuning.MoveSpeed
	ss.speedClock = 0
}

// GateOpen reports whether shades may enter yet.
func (ss *SpawnSystem) GateOpen() bool { return ss.gateOpen }

// Interval reports the current spawn cadence in seconds.
func (ss *SpawnSystem) Interval() float64 { return ss.interval }

// Speed reports the chase speed new shades get.
func (ss *SpawnSystem) Speed() float64 { return ss.speed }

// Update advances the ramps, the gate and the cadence by dt seconds.
// The ramps run on match time from second zero, gate open or not.
func (ss *SpawnSystem) Update(w *World, dt float64) {
	ss.rampInterval(w, dt)
	ss.rampSpeed(w, dt)

	if !ss.gateOpen {
		ss.gateElapsed += dt
		if ss.gateElapsed < ss.tuning.InitialDelay {
			return
		}
		// The gate opens mid-step: the cadence origin is the boundary
		// itself, not the end of the step that crossed it.
		ss.gateOpen = true
		ss.spawnClock = ss.gateElapsed - ss.tuning.InitialDelay
		w.emit(events.EventTypeSpawnGateOpened, "SYSTEM_SPAWNER", "", GateOpenedPayload{
			AtMatchTime: w.matchTime,
		})
		w.logger.Info("Spawn gate open. The shades come.")

		// First spawn fires the instant the gate opens, then the
		// overshoot pays for any whole intervals it already covers.
		ss.spawn(w)
		for ss.spawnClock >= ss.interval {
			ss.spawnClock -= ss.interval
			ss.spawn(w)
		}
		return
	}

	ss.spawnClock += dt
	for ss.spawnClock >= ss.interval {
		ss.spawnClock -= ss.interval
		ss.spawn(w)
	}
}

// SkipGate opens the gate early and spawns on the spot. Idempotent: once
// the gate is open, further skips change nothing. The cadence origin
// moves to the skip instant.
func (ss *SpawnSystem) SkipGate(w *World) {
	if ss.gateOpen {
		return
	}
	ss.gateOpen = true
	ss.spawnClock = 0
	w.emit(events.EventTypeSpawnGateOpened, "SYSTEM_SPAWNER", "", GateOpenedPayload{
		AtMatchTime: w.matchTime,
		Skipped:     true,
	})
	w.logger.Info(fmt.Sprintf("Spawn gate skipped open at %.1fs.", w.matchTime))
	ss.spawn(w)
}

func (ss *SpawnSystem) rampInterval(w *World, dt float64) {
	ss.intervalClock += dt
	for ss.intervalClock >= ss.tuning.IntervalRampEvery {
		ss.intervalClock -= ss.tuning.IntervalRampEvery
		old := ss.interval
		ss.interval = rules.NextInterval(ss.interval, ss.tuning.IntervalRampFactor, ss.tuning.MinSpawnInterval)
		if ss.interval == old {
			continue // already on the floor
		}
		w.emit(events.EventTypeTuningRamped, "SYSTEM_SPAWNER", "", TuningRampedPayload{
			Kind: "interval", From: old, To: ss.interval, AtMatchTime: w.matchTime,
		})
		w.logger.Info(fmt.Sprintf("Spawn interval tightened: %.2fs -> %.2fs", old, ss.interval))
	}
}

func (ss *SpawnSystem) rampSpeed(w *World, dt float64) {
	ss.speedClock += dt
	for ss.speedClock >= ss.tuning.SpeedRampEvery {
		ss.speedClock -= ss.tuning.SpeedRampEvery
		old := ss.speed
		ss.speed = rules.NextSpeed(ss.speed, ss.tuning.SpeedRampStep, ss.tuning.MaxMoveSpeed)
		if ss.speed == old {
			continue // pinned at the cap
		}
		// Retroactive: every shade already in the ring speeds up too.
		w.applyChaseSpeed(ss.speed)
		w.emit(events.EventTypeTuningRamped, "SYSTEM_SPAWNER", "", TuningRampedPayload{
			Kind: "speed", From: old, To: ss.speed, AtMatchTime: w.matchTime,
		})
		w.logger.Info(fmt.Sprintf("Chase speed ramped: %.1f -> %.1f", old, ss.speed))
	}
}

// spawn makes one attempt. The live budget and the need for a standing
// bearer are checked here; a failed attempt is skipped, never queued.
func (ss *SpawnSystem) spawn(w *World) {
	if w.roster.LiveCount() >= ss.tuning.MaxShades {
		return
	}
	b := w.pickBearer()
	if b == nil {
		return
	}

	x, y, z := rules.SpawnPosition(w.rng, rules.PlacementParams{
		TX: b.X, TY: b.Y, TZ: b.Z,
		Distance: ss.tuning.SpawnDistance,
		Band:     ss.tuning.SpawnBand,
	})
	s := shade.New(w.roster.NextID(), b.ID, x, y, z, ss.speed)
	w.roster.Add(s)
	w.spawnedCount++

	w.emit(events.EventTypeShadeSpawned, "SYSTEM_SPAWNER", s.ID, ShadeSpawnedPayload{
		ShadeID: s.ID, BearerID: b.ID, X: x, Y: y, Z: z, Speed: ss.speed,
	})
	w.logger.Event("SHADE_SPAWNED", s.ID, fmt.Sprintf("hunting %s from (%.1f, %.1f, %.1f)", b.ID, x, y, z))
	metrics.Get().RecordShadeSpawned()
}
