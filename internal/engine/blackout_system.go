package engine

import (
	"github.com/PauMirall/Lumenfall/server/internal/events"
)

// BlackoutPayload records the lights going out.
type BlackoutPayload struct {
	AtMatchTime float64 `json:"atMatchTime"`
}

// BlackoutSystem owns the scripted lights-out cue. The simulation only
// announces the moment; what darkness looks like is the clients' problem.
type BlackoutSystem struct {
	after float64
	fired bool
}

func NewBlackoutSystem(after float64) *BlackoutSystem {
	return &BlackoutSystem{after: after}
}

// Dark reports whether the cue has fired this match.
func (bs *BlackoutSystem) Dark() bool { return bs.fired }

// Reset re-arms the cue for a new match.
func (bs *BlackoutSystem) Reset() { bs.fired = false }

// Update fires the cue exactly once, at the configured match time.
func (bs *BlackoutSystem) Update(w *World) {
	if bs.fired || w.matchTime < bs.after {
		return
	}
	bs.fired = true
	w.emit(events.EventTypeBlackout, "SYSTEM_BLACKOUT", "", BlackoutPayload{AtMatchTime: w.matchTime})
	w.logger.Warn("BLACKOUT. The arena goes dark.")
}
