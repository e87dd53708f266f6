package engine

import (
	"github.com/PauMirall/Lumenfall/server/internal/domain/shade"
)

// Snapshot is the flattened arena state the hub broadcasts. Everything
// in it is a copy; holders can keep it as long as they like.
type Snapshot struct {
	MatchID       string     `json:"matchId"`
	Phase         MatchPhase `json:"phase"`
	Tick          int64      `json:"tick"`
	MatchTime     float64    `json:"matchTime"`
	Dark          bool       `json:"dark"`
	SpawnGateOpen bool       `json:"spawnGateOpen"`
	SpawnInterval float64    `json:"spawnInterval"`
	ChaseSpeed    float64    `json:"chaseSpeed"`
	HighScore     float64    `json:"highScore"`

	Bearers []BearerView `json:"bearers"`
	Shades  []ShadeView  `json:"shades"`
}

// BearerView is one bearer as clients see them.
type BearerView struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Up    bool    `json:"up"`
	Score float64 `json:"score"`
}

// ShadeView is one shade as clients see it.
type ShadeView struct {
	ID       string      `json:"id"`
	State    shade.State `json:"state"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Z        float64     `json:"z"`
	BearerID string      `json:"bearerId"`
	FadeLeft float64     `json:"fadeLeft"`
}

// Snapshot flattens the current world state into a broadcastable copy.
func (w *World) Snapshot() Snapshot {
	snap := Snapshot{
		MatchID:       w.matchID,
		Phase:         w.phase,
		Tick:          w.tick,
		MatchTime:     w.matchTime,
		Dark:          w.blackout.Dark(),
		SpawnGateOpen: w.spawner.GateOpen(),
		SpawnInterval: w.spawner.Interval(),
		ChaseSpeed:    w.spawner.Speed(),
		HighScore:     w.scores.HighScore(),
		Bearers:       make([]BearerView, 0, len(w.bearerOrder)),
		Shades:        make([]ShadeView, 0, w.roster.Len()),
	}

	for _, id := range w.bearerOrder {
		b := w.bearers[id]
		snap.Bearers = append(snap.Bearers, BearerView{
			ID: b.ID, Name: b.Name,
			X: b.X, Y: b.Y, Z: b.Z,
			Up: b.Up, Score: b.Score,
		})
	}
	for _, s := range w.roster.All() {
		snap.Shades = append(snap.Shades, ShadeView{
			ID: s.ID, State: s.State,
			X: s.X, Y: s.Y, Z: s.Z,
			BearerID: s.BearerID, FadeLeft: s.FadeLeft,
		})
	}
	return snap
}
