// Package config loads server and gameplay tuning from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every knob the server reads at startup. Gameplay fields feed
// the engine tuning; the rest wire the process itself.
type Config struct {
	Addr          string        `env:"LUMENFALL_ADDR" envDefault:":8080"`
	DBPath        string        `env:"LUMENFALL_DB" envDefault:"lumenfall.db"`
	TickStep      time.Duration `env:"LUMENFALL_TICK_STEP" envDefault:"50ms"`
	SnapshotEvery int           `env:"LUMENFALL_SNAPSHOT_EVERY" envDefault:"2"`

	InitialDelay       time.Duration `env:"LUMENFALL_INITIAL_DELAY" envDefault:"30s"`
	SpawnInterval      time.Duration `env:"LUMENFALL_SPAWN_INTERVAL" envDefault:"3s"`
	IntervalRampEvery  time.Duration `env:"LUMENFALL_INTERVAL_RAMP_EVERY" envDefault:"30s"`
	IntervalRampFactor float64       `env:"LUMENFALL_INTERVAL_RAMP_FACTOR" envDefault:"0.8"`
	MinSpawnInterval   time.Duration `env:"LUMENFALL_MIN_SPAWN_INTERVAL" envDefault:"500ms"`

	MoveSpeed      float64       `env:"LUMENFALL_MOVE_SPEED" envDefault:"3.5"`
	SpeedRampEvery time.Duration `env:"LUMENFALL_SPEED_RAMP_EVERY" envDefault:"20s"`
	SpeedRampStep  float64       `env:"LUMENFALL_SPEED_RAMP_STEP" envDefault:"0.5"`
	MaxMoveSpeed   float64       `env:"LUMENFALL_MAX_MOVE_SPEED" envDefault:"15"`

	MaxShades     int     `env:"LUMENFALL_MAX_SHADES" envDefault:"24"`
	SpawnDistance float64 `env:"LUMENFALL_SPAWN_DISTANCE" envDefault:"30"`
	SpawnBand     float64 `env:"LUMENFALL_SPAWN_BAND" envDefault:"20"`

	FadeDuration    time.Duration `env:"LUMENFALL_FADE_DURATION" envDefault:"3s"`
	ScoreMultiplier float64       `env:"LUMENFALL_SCORE_MULTIPLIER" envDefault:"10"`
	BlackoutAfter   time.Duration `env:"LUMENFALL_BLACKOUT_AFTER" envDefault:"90s"`
	ResetDelay      time.Duration `env:"LUMENFALL_RESET_DELAY" envDefault:"2s"`
}

// Load reads a .env file if one exists, then parses the environment.
func Load() (*Config, error) {
	// .env is optional; deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the simulation cannot run with.
func (c *Config) Validate() error {
	if c.TickStep <= 0 {
		return fmt.Errorf("tick step must be positive, got %v", c.TickStep)
	}
	if c.SnapshotEvery < 1 {
		return fmt.Errorf("snapshot cadence must be at least 1 tick, got %d", c.SnapshotEvery)
	}
	if c.InitialDelay < 0 {
		return fmt.Errorf("initial delay must not be negative, got %v", c.InitialDelay)
	}
	if c.SpawnInterval <= 0 {
		return fmt.Errorf("spawn interval must be positive, got %v", c.SpawnInterval)
	}
	if c.MinSpawnInterval <= 0 {
		return fmt.Errorf("minimum spawn interval must be positive, got %v", c.MinSpawnInterval)
	}
	if c.IntervalRampEvery <= 0 || c.SpeedRampEvery <= 0 {
		return fmt.Errorf("ramp periods must be positive")
	}
	if c.IntervalRampFactor <= 0 || c.IntervalRampFactor > 1 {
		return fmt.Errorf("interval ramp factor must be in (0,1], got %v", c.IntervalRampFactor)
	}
	if c.MoveSpeed <= 0 {
		return fmt.Errorf("move speed must be positive, got %v", c.MoveSpeed)
	}
	if c.SpeedRampStep < 0 {
		return fmt.Errorf("speed ramp step must not be negative, got %v", c.SpeedRampStep)
	}
	if c.MaxMoveSpeed < c.MoveSpeed {
		return fmt.Errorf("max move speed %v below initial speed %v", c.MaxMoveSpeed, c.MoveSpeed)
	}
	if c.MaxShades < 1 {
		return fmt.Errorf("max shades must be at least 1, got %d", c.MaxShades)
	}
	if c.SpawnDistance <= 0 || c.SpawnBand < 0 {
		return fmt.Errorf("spawn ring malformed: distance %v band %v", c.SpawnDistance, c.SpawnBand)
	}
	if c.FadeDuration <= 0 {
		return fmt.Errorf("fade duration must be positive, got %v", c.FadeDuration)
	}
	if c.ScoreMultiplier <= 0 {
		return fmt.Errorf("score multiplier must be positive, got %v", c.ScoreMultiplier)
	}
	if c.BlackoutAfter <= 0 {
		return fmt.Errorf("blackout threshold must be positive, got %v", c.BlackoutAfter)
	}
	if c.ResetDelay < 0 {
		return fmt.Errorf("reset delay must not be negative, got %v", c.ResetDelay)
	}
	return nil
}
