package engine

import (
	"fmt"

	"github.com/PauMirall/Lumenfall/server/internal/domain/rules"
	"github.com/PauMirall/Lumenfall/server/internal/domain/shade"
	"github.com/PauMirall/Lumenfall/server/internal/events"
	"github.com/PauMirall/Lumenfall/server/internal/platform/metrics"
)

// ShadeTurnedPayload records a fade completing.
type ShadeTurnedPayload struct {
	ShadeID string  `json:"shadeId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
}

// Roster owns every shade in the current match. The live count is the
// budget the spawner checks: hostile plus fading, never turned.
type Roster struct {
	shades map[string]*shade.Shade
	order  []string // spawn order, for stable iteration and snapshots
	live   int
	seq    int
}

func NewRoster() *Roster {
	return &Roster{shades: make(map[string]*shade.Shade)}
}

// NextID mints the next shade identifier. Ids are match-scoped: Clear
// rewinds the sequence.
func (r *Roster) NextID() string {
	r.seq++
	return fmt.Sprintf("S-%03d", r.seq)
}

// Add registers a freshly spawned shade.
func (r *Roster) Add(s *shade.Shade) {
	r.shades[s.ID] = s
	r.order = append(r.order, s.ID)
	r.live++
}

// Get looks a shade up by id. Nil when unknown.
func (r *Roster) Get(id string) *shade.Shade {
	return r.shades[id]
}

// LiveCount reports how many shades still count against the budget.
func (r *Roster) LiveCount() int { return r.live }

// Len counts every shade spawned this match, turned ones included.
func (r *Roster) Len() int { return len(r.order) }

// All returns the shades in spawn order.
func (r *Roster) All() []*shade.Shade {
	result := make([]*shade.Shade, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.shades[id])
	}
	return result
}

// Clear empties the arena for a fresh match.
func (r *Roster) Clear() {
	r.shades = make(map[string]*shade.Shade)
	r.order = nil
	r.live = 0
	r.seq = 0
}

// Update advances every live shade: one chase step, then the fade timer.
// Turned shades receive no updates of any kind.
func (r *Roster) Update(w *World, dt float64) {
	for _, id := range r.order {
		s := r.shades[id]
		if !s.Live() {
			continue
		}

		// A missing or fallen bearer freezes the shade for this tick
		// only; it resumes the moment the bearer is back on their feet.
		if b, ok := w.bearers[s.BearerID]; ok && b.Up {
			s.X, s.Y, s.Z = rules.ChaseStep(rules.ChaseParams{
				X: s.X, Y: s.Y, Z: s.Z,
				TX: b.X, TY: b.Y, TZ: b.Z,
				Speed: s.MoveSpeed,
				Dt:    dt,
			})
		}

		if s.AdvanceFade(dt) {
			if r.live > 0 {
				r.live--
			}
			w.turnedCount++
			w.emit(events.EventTypeShadeTurned, s.ID, s.BearerID, ShadeTurnedPayload{
				ShadeID: s.ID, X: s.X, Y: s.Y, Z: s.Z,
			})
			w.logger.Event("SHADE_TURNED", s.ID, "fade complete, a wisp joins the bearers")
			metrics.Get().RecordShadeTurned()
		}
	}
}
