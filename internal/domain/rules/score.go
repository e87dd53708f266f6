package rules

// Score recomputes a survival score from elapsed time. Always derived from
// scratch, never accumulated, so there is nothing to drift.
func Score(elapsedSeconds, multiplier float64) float64 {
	if elapsedSeconds < 0 {
		return 0
	}
	return elapsedSeconds * multiplier
}

// NextInterval tightens the spawn interval by one ramp step, floored.
func NextInterval(current, factor, floor float64) float64 {
	next := current * factor
	if next < floor {
		return floor
	}
	return next
}

// NextSpeed raises the chase speed by one ramp step, capped.
func NextSpeed(current, step, limit float64) float64 {
	next := current + step
	if next > limit {
		return limit
	}
	return next
}
