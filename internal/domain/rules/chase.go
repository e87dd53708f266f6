// Package rules contains the pure calculation logic for arena mechanics.
// This package is PURE and must NOT import any infrastructure packages.
package rules

import "math"

// ChaseParams holds one tick of pursuit input.
type ChaseParams struct {
	X, Y, Z    float64 // shade position
	TX, TY, TZ float64 // bearer position
	Speed      float64 // units per second
	Dt         float64 // seconds
}

// ChaseStep computes where a shade stands after one tick of pursuit.
// The chase lives in the horizontal plane: the shade steps toward the
// bearer in XZ, never overshooting, and its height snaps to the bearer's
// height exactly. No gravity, no climbing.
func ChaseStep(p ChaseParams) (x, y, z float64) {
	dx := p.TX - p.X
	dz := p.TZ - p.Z
	dist := math.Hypot(dx, dz)
	step := p.Speed * p.Dt

	if dist <= step || dist == 0 {
		return p.TX, p.TY, p.TZ
	}

	scale := step / dist
	return p.X + dx*scale, p.TY, p.Z + dz*scale
}
