package rules

import (
	"math"
	"math/rand"
)

// PlacementParams holds the inputs for one spawn placement roll.
type PlacementParams struct {
	TX, TY, TZ float64 // chosen bearer position
	Distance   float64 // inner ring radius
	Band       float64 // ring thickness
}

// SpawnPosition rolls a point on the ring around the bearer: uniform angle
// over the full circle, uniform radius in [Distance, Distance+Band], height
// copied from the bearer exactly. Shades arrive at eye level, out of reach.
func SpawnPosition(rng *rand.Rand, p PlacementParams) (x, y, z float64) {
	angle := rng.Float64() * 2 * math.Pi
	radius := p.Distance + rng.Float64()*p.Band

	return p.TX + radius*math.Cos(angle), p.TY, p.TZ + radius*math.Sin(angle)
}
