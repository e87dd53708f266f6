// Package shade defines the core domain entity for the creatures of the arena.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package shade

// State represents where a shade is in its one-way lifecycle.
// There is no way back: Hostile -> Fading -> Turned.
type State string

const (
	StateHostile State = "Hostile" // chasing its bearer
	StateFading  State = "Fading"  // beam-struck, still chasing, turn pending
	StateTurned  State = "Turned"  // friendly wisp, frozen where it stood
)

// Shade represents one creature in the arena.
type Shade struct {
	ID    string `json:"id"`
	State State  `json:"state"`

	// Position (Y is up; a shade always hugs its bearer's height)
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	// Chase
	BearerID  string  `json:"bearer_id"` // the bearer this shade hunts
	MoveSpeed float64 `json:"move_speed"`

	// Fade
	FadeLeft float64 `json:"fade_left"` // seconds until the turn, meaningful while Fading
}

// New creates a hostile shade at a position, hunting a bearer.
func New(id, bearerID string, x, y, z, moveSpeed float64) *Shade {
	return &Shade{
		ID:        id,
		State:     StateHostile,
		X:         x,
		Y:         y,
		Z:         z,
		BearerID:  bearerID,
		MoveSpeed: moveSpeed,
	}
}

// Live reports whether the shade still counts against the arena budget.
// Hostile and Fading shades are live; Turned ones are not.
func (s *Shade) Live() bool {
	return s.State == StateHostile || s.State == StateFading
}

// Friendly reports whether the shade has joined the bearers' side.
func (s *Shade) Friendly() bool {
	return s.State == StateTurned
}

// BeamHit starts the fade on a hostile shade. A hit on a shade that is
// already fading does not restart the timer; a hit on a turned shade does
// nothing. Returns true only when the fade actually started.
func (s *Shade) BeamHit(fadeDuration float64) bool {
	if s.State != StateHostile {
		return false
	}
	s.State = StateFading
	s.FadeLeft = fadeDuration
	return true
}

// AdvanceFade burns dt seconds off the fade timer. Returns true exactly
// once, on the tick the timer reaches zero; the shade is Turned afterwards.
// The shade keeps chasing for the whole fade; only the completed turn
// stops it.
func (s *Shade) AdvanceFade(dt float64) bool {
	if s.State != StateFading {
		return false
	}
	s.FadeLeft -= dt
	if s.FadeLeft > 0 {
		return false
	}
	s.State = StateTurned
	s.FadeLeft = 0
	s.MoveSpeed = 0
	return true
}
