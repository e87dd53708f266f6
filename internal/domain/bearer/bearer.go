// Package bearer defines the player-side domain entity for the arena.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package bearer

// Bearer represents a connected light bearer in the arena.
type Bearer struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Position (client-reported; the server trusts its bearers)
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	// Run state
	Up       bool    `json:"up"`
	JoinedAt float64 `json:"joined_at"` // match seconds when the run started
	DownAt   float64 `json:"down_at"`   // match seconds when caught, meaningful once down
	Score    float64 `json:"score"`     // recomputed while up, frozen once down
}

// New creates a bearer standing at the arena origin.
func New(id, name string, joinedAt float64) *Bearer {
	return &Bearer{
		ID:       id,
		Name:     name,
		Up:       true,
		JoinedAt: joinedAt,
	}
}

// SurvivalTime reports how long this bearer's run has lasted, in match
// seconds. Once the bearer is down the value is frozen.
func (b *Bearer) SurvivalTime(now float64) float64 {
	if !b.Up {
		return b.DownAt - b.JoinedAt
	}
	return now - b.JoinedAt
}

// Down marks the bearer caught. Idempotent: the first call freezes the run
// clock and returns true, every later call changes nothing.
func (b *Bearer) Down(now float64) bool {
	if !b.Up {
		return false
	}
	b.Up = false
	b.DownAt = now
	return true
}

// Revive puts the bearer back on its feet for a fresh match.
func (b *Bearer) Revive(now float64) {
	b.Up = true
	b.JoinedAt = now
	b.DownAt = 0
	b.Score = 0
}
