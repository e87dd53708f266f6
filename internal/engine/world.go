package engine

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/PauMirall/Lumenfall/server/internal/domain/bearer"
	"github.com/PauMirall/Lumenfall/server/internal/events"
	"github.com/PauMirall/Lumenfall/server/internal/platform/logger"
	"github.com/PauMirall/Lumenfall/server/internal/platform/metrics"
)

// MatchPhase tells where the arena is in its lifecycle.
type MatchPhase string

const (
	PhaseLobby MatchPhase = "Lobby" // nobody in the ring, clock stopped
	PhaseLive  MatchPhase = "Live"  // bearers up, shades closing in
	PhaseOver  MatchPhase = "Over"  // everyone down, reset counting down
)

// MatchStartedPayload opens a match in the chronicle.
type MatchStartedPayload struct {
	MatchID string `json:"matchId"`
	Bearers int    `json:"bearers"`
}

// MatchEndedPayload closes a match in the chronicle.
type MatchEndedPayload struct {
	MatchID   string  `json:"matchId"`
	Duration  float64 `json:"duration"`
	PeakScore float64 `json:"peakScore"`
	Spawned   int     `json:"spawned"`
	Turned    int     `json:"turned"`
	Blackout  bool    `json:"blackout"`
}

// BearerJoinedPayload records a new bearer entering the ring.
type BearerJoinedPayload struct {
	BearerID string `json:"bearerId"`
	Name     string `json:"name"`
}

// ShadeFadingPayload records a beam hit landing on a hostile shade.
type ShadeFadingPayload struct {
	ShadeID      string  `json:"shadeId"`
	FadeDuration float64 `json:"fadeDuration"`
}

// World is the authoritative arena state. It is owned by the engine loop
// goroutine; everything that mutates it happens inside Step or inside a
// command applied between ticks.
type World struct {
	tuning   Tuning
	logger   *logger.Logger
	eventLog *events.EventLog
	rng      *rand.Rand

	phase     MatchPhase
	matchID   string
	matchTime float64 // seconds since match start
	tick      int64   // monotonic across matches

	bearers     map[string]*bearer.Bearer
	bearerOrder []string // join order, for deterministic target picks

	roster   *Roster
	spawner  *SpawnSystem
	scores   *ScoreSystem
	blackout *BlackoutSystem

	resetLeft float64 // seconds until the arena resets, while Over

	// Per-match bookkeeping for the match record.
	spawnedCount int
	turnedCount  int
	peakScore    float64
}

// NewWorld wires the systems around an empty lobby.
func NewWorld(eventLog *events.EventLog, log *logger.Logger, rng *rand.Rand, tuning Tuning, highScore float64) *World {
	w := &World{
		tuning:   tuning,
		logger:   log,
		eventLog: eventLog,
		rng:      rng,
		phase:    PhaseLobby,
		bearers:  make(map[string]*bearer.Bearer),
		roster:   NewRoster(),
		spawner:  NewSpawnSystem(tuning),
		scores:   NewScoreSystem(tuning.ScoreMultiplier, highScore),
		blackout: NewBlackoutSystem(tuning.BlackoutAfter),
	}
	metrics.Get().SetHighScore(highScore)
	return w
}

// Step advances the simulation by dt seconds. This is the only place
// where match time moves; a step that lands on a boundary (gate opening,
// fade completing) resolves that boundary within the same step.
func (w *World) Step(dt float64) {
	w.tick++

	switch w.phase {
	case PhaseLobby:
		return
	case PhaseOver:
		w.resetLeft -= dt
		if w.resetLeft <= 0 {
			w.resetArena()
		}
		return
	}

	w.matchTime += dt

	w.spawner.Update(w, dt)
	w.roster.Update(w, dt)
	w.scores.Update(w)
	w.blackout.Update(w)
}

// AddBearer registers a bearer and, if the arena was idle, starts a match
// around them. Joining twice with the same id is a no-op.
func (w *World) AddBearer(id, name string) *bearer.Bearer {
	if existing, ok := w.bearers[id]; ok {
		w.logger.Warn("Duplicate bearer join ignored: " + id)
		return existing
	}
	if w.phase == PhaseLobby {
		w.startMatch()
	}
	b := bearer.New(id, name, w.matchTime)
	w.bearers[id] = b
	w.bearerOrder = append(w.bearerOrder, id)

	w.emit(events.EventTypeBearerJoined, id, "", BearerJoinedPayload{BearerID: id, Name: name})
	w.logger.Event("BEARER_JOINED", id, name+" steps into the ring")
	return b
}

// RemoveBearer drops a bearer on disconnect or quit. If the last standing
// bearer walks out of a live match, the match ends.
func (w *World) RemoveBearer(id string) {
	b, ok := w.bearers[id]
	if !ok {
		return
	}
	delete(w.bearers, id)
	for i, bid := range w.bearerOrder {
		if bid == id {
			w.bearerOrder = append(w.bearerOrder[:i], w.bearerOrder[i+1:]...)
			break
		}
	}

	w.emit(events.EventTypeBearerLeft, id, "", nil)
	w.logger.Event("BEARER_LEFT", id, b.Name+" leaves the ring")

	if w.phase == PhaseLive && w.upBearers() == 0 {
		w.endMatch()
	}
}

// MoveBearer updates a bearer's client-reported position. Downed bearers
// stay where they fell.
func (w *World) MoveBearer(id string, x, y, z float64) {
	b, ok := w.bearers[id]
	if !ok || !b.Up {
		return
	}
	b.X, b.Y, b.Z = x, y, z
}

// BeamHit starts the fade on a hostile shade. Hits on shades already
// fading or turned change nothing.
func (w *World) BeamHit(bearerID, shadeID string) {
	if w.phase != PhaseLive {
		return
	}
	s := w.roster.Get(shadeID)
	if s == nil {
		w.logger.Warn("Beam hit on unknown shade: " + shadeID)
		return
	}
	if !s.BeamHit(w.tuning.FadeDuration) {
		return
	}

	w.emit(events.EventTypeShadeFading, bearerID, shadeID, ShadeFadingPayload{
		ShadeID:      shadeID,
		FadeDuration: w.tuning.FadeDuration,
	})
	w.logger.Event("SHADE_FADING", shadeID, "beam-struck, the turn begins")
}

// CatchBearer downs a bearer after a client reported the catch. Duplicate
// reports change nothing. When the last bearer falls, the match ends.
func (w *World) CatchBearer(bearerID, shadeID string) {
	if w.phase != PhaseLive {
		return
	}
	b, ok := w.bearers[bearerID]
	if !ok {
		return
	}
	if !b.Down(w.matchTime) {
		return
	}

	w.scores.HandleDown(w, b, shadeID)
	metrics.Get().RecordBearerDown()

	if w.upBearers() == 0 {
		w.endMatch()
	}
}

// SkipWait opens the spawn gate ahead of schedule.
func (w *World) SkipWait() {
	if w.phase != PhaseLive {
		return
	}
	w.spawner.SkipGate(w)
}

// upBearers counts bearers still standing.
func (w *World) upBearers() int {
	count := 0
	for _, b := range w.bearers {
		if b.Up {
			count++
		}
	}
	return count
}

// pickBearer selects a target uniformly among the bearers still up.
// Returns nil when nobody stands.
func (w *World) pickBearer() *bearer.Bearer {
	ups := make([]*bearer.Bearer, 0, len(w.bearerOrder))
	for _, id := range w.bearerOrder {
		if b := w.bearers[id]; b != nil && b.Up {
			ups = append(ups, b)
		}
	}
	if len(ups) == 0 {
		return nil
	}
	return ups[w.rng.Intn(len(ups))]
}

// applyChaseSpeed pushes a ramped speed onto every live shade. Turned
// shades stay frozen.
func (w *World) applyChaseSpeed(speed float64) {
	for _, s := range w.roster.All() {
		if s.Live() {
			s.MoveSpeed = speed
		}
	}
}

func (w *World) startMatch() {
	w.matchID = uuid.NewString()
	w.matchTime = 0
	w.phase = PhaseLive
	w.resetLeft = 0
	w.spawnedCount = 0
	w.turnedCount = 0
	w.peakScore = 0

	w.roster.Clear()
	w.spawner.Reset(w.tuning)
	w.blackout.Reset()

	for _, id := range w.bearerOrder {
		w.bearers[id].Revive(0)
	}

	w.emit(events.EventTypeMatchStarted, "KEEPER", "", MatchStartedPayload{
		MatchID: w.matchID,
		Bearers: len(w.bearerOrder),
	})
	w.logger.Info("Match started: " + w.matchID)
}

func (w *World) endMatch() {
	w.phase = PhaseOver
	w.resetLeft = w.tuning.ResetDelay

	w.emit(events.EventTypeMatchEnded, "KEEPER", "", MatchEndedPayload{
		MatchID:   w.matchID,
		Duration:  w.matchTime,
		PeakScore: w.peakScore,
		Spawned:   w.spawnedCount,
		Turned:    w.turnedCount,
		Blackout:  w.blackout.Dark(),
	})
	metrics.Get().RecordMatchCompleted()
	w.logger.Info(fmt.Sprintf("Match over after %.1fs. The ring resets soon.", w.matchTime))
}

func (w *World) resetArena() {
	w.roster.Clear()
	w.emit(events.EventTypeMatchReset, "KEEPER", "", nil)
	w.logger.Info("Arena reset.")

	if len(w.bearerOrder) > 0 {
		w.startMatch()
	} else {
		w.phase = PhaseLobby
		w.matchID = ""
		w.matchTime = 0
	}
}

// emit appends a chronicle entry stamped with the current match and tick.
func (w *World) emit(eventType events.EventType, actorID, targetID string, payload interface{}) {
	w.eventLog.Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      eventType,
		ActorID:   actorID,
		TargetID:  targetID,
		Payload:   payload,
		MatchID:   w.matchID,
		Tick:      w.tick,
	})
}
