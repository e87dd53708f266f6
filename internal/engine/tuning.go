package engine

import (
	"github.com/PauMirall/Lumenfall/server/internal/platform/config"
)

// Tuning holds every gameplay knob in simulation units: seconds and
// units-per-second. The engine never sees a time.Duration.
type Tuning struct {
	// Spawn gate and cadence.
	InitialDelay       float64 // quiet seconds before the first shade
	SpawnInterval      float64 // starting seconds between spawns
	IntervalRampEvery  float64 // seconds between cadence tightenings
	IntervalRampFactor float64 // multiplier applied at each tightening
	MinSpawnInterval   float64 // the cadence never drops below this

	// Chase speed ramp.
	MoveSpeed      float64 // starting chase speed
	SpeedRampEvery float64 // seconds between speed bumps
	SpeedRampStep  float64 // added at each bump
	MaxMoveSpeed   float64 // the speed never rises above this

	// Population and placement.
	MaxShades     int     // live budget: hostile plus fading
	SpawnDistance float64 // inner radius of the spawn ring
	SpawnBand     float64 // ring width beyond the inner radius

	// Everything else.
	FadeDuration    float64 // seconds from beam hit to turned
	ScoreMultiplier float64 // points per survived second
	BlackoutAfter   float64 // match seconds until the lights cut out
	ResetDelay      float64 // seconds the Over screen lingers
}

// DefaultTuning mirrors the stock arena: thirty quiet seconds, then a
// three second cadence that tightens for as long as anyone survives.
func DefaultTuning() Tuning {
	return Tuning{
		InitialDelay:       30,
		SpawnInterval:      3,
		IntervalRampEvery:  30,
		IntervalRampFactor: 0.8,
		MinSpawnInterval:   0.5,

		MoveSpeed:      3.5,
		SpeedRampEvery: 20,
		SpeedRampStep:  0.5,
		MaxMoveSpeed:   15,

		MaxShades:     24,
		SpawnDistance: 30,
		SpawnBand:     20,

		FadeDuration:    3,
		ScoreMultiplier: 10,
		BlackoutAfter:   90,
		ResetDelay:      2,
	}
}

// TuningFromConfig converts the env-facing config into simulation units.
func TuningFromConfig(cfg *config.Config) Tuning {
	return Tuning{
		InitialDelay:       cfg.InitialDelay.Seconds(),
		SpawnInterval:      cfg.SpawnInterval.Seconds(),
		IntervalRampEvery:  cfg.IntervalRampEvery.Seconds(),
		IntervalRampFactor: cfg.IntervalRampFactor,
		MinSpawnInterval:   cfg.MinSpawnInterval.Seconds(),

		MoveSpeed:      cfg.MoveSpeed,
		SpeedRampEvery: cfg.SpeedRampEvery.Seconds(),
		SpeedRampStep:  cfg.SpeedRampStep,
		MaxMoveSpeed:   cfg.MaxMoveSpeed,

		MaxShades:     cfg.MaxShades,
		SpawnDistance: cfg.SpawnDistance,
		SpawnBand:     cfg.SpawnBand,

		FadeDuration:    cfg.FadeDuration.Seconds(),
		ScoreMultiplier: cfg.ScoreMultiplier,
		BlackoutAfter:   cfg.BlackoutAfter.Seconds(),
		ResetDelay:      cfg.ResetDelay.Seconds(),
	}
}
