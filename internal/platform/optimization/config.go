// Package optimization provides concurrency tuning for high load.
// Nothing here is applied automatically; the advisor reads the metrics
// snapshot and suggests where the knobs should move.
package optimization

import (
	"runtime"
)

// Config holds tuned parameters for high-load scenarios.
type Config struct {
	// Engine
	CommandQueueSize int
	SnapshotEvery    int // broadcast every Nth tick

	// WebSocket
	ClientSendBuffer int

	// Database connections
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Rate limiting
	MaxMessagesPerSecond int
	MaxBearersPerArena   int
}

// DefaultConfig returns sensible defaults for production.
func DefaultConfig() *Config {
	numCPU := runtime.NumCPU()

	return &Config{
		// Queue and buffers - larger = more memory, less blocking
		CommandQueueSize: 256,
		SnapshotEvery:    2,
		ClientSendBuffer: 256,

		// SQLite tolerates few writers; keep the pool modest
		DBMaxOpenConns: numCPU,
		DBMaxIdleConns: numCPU / 2,

		MaxMessagesPerSecond: 50,
		MaxBearersPerArena:   60,
	}
}

// HordeConfig returns aggressive settings for stress testing.
func HordeConfig() *Config {
	numCPU := runtime.NumCPU()

	return &Config{
		CommandQueueSize: 1024,
		SnapshotEvery:    4,
		ClientSendBuffer: 512,

		DBMaxOpenConns: numCPU * 2,
		DBMaxIdleConns: numCPU,

		MaxMessagesPerSecond: 200,
		MaxBearersPerArena:   200,
	}
}

// LowResourceConfig returns minimal settings for development.
func LowResourceConfig() *Config {
	return &Config{
		CommandQueueSize: 64,
		SnapshotEvery:    4,
		ClientSendBuffer: 32,

		DBMaxOpenConns: 2,
		DBMaxIdleConns: 1,

		MaxMessagesPerSecond: 10,
		MaxBearersPerArena:   8,
	}
}

// Recommendations provides suggestions based on observed metrics.
type Recommendations struct {
	GrowCommandQueue      bool
	IncreaseClientBuffers bool
	IncreaseDBConnections bool
	RelaxSnapshotRate     bool
	Notes                 []string
}

// Analyze examines a metrics snapshot and returns optimization
// recommendations. Keys follow the collector's Snapshot layout.
func Analyze(metrics map[string]interface{}) *Recommendations {
	rec := &Recommendations{
		Notes: make([]string, 0),
	}

	// The simulation step is 50ms; a tick that takes longer than that
	// means the loop is falling behind real time.
	if tick, ok := metrics["tick"].(map[string]interface{}); ok {
		if maxLat, ok := tick["max_latency_ms"].(float64); ok && maxLat > 50 {
			rec.RelaxSnapshotRate = true
			rec.Notes = append(rec.Notes, "Tick latency exceeds the 50ms step - broadcast snapshots less often")
		}
	}

	if game, ok := metrics["game"].(map[string]interface{}); ok {
		if dropped, ok := game["commands_dropped"].(int64); ok && dropped > 0 {
			rec.GrowCommandQueue = true
			rec.Notes = append(rec.Notes, "Commands dropped - grow the engine command queue")
		}
		if dropped, ok := game["snapshots_dropped"].(int64); ok && dropped > 0 {
			rec.RelaxSnapshotRate = true
			rec.Notes = append(rec.Notes, "Snapshot frames dropped - the network side cannot keep the broadcast pace")
		}
	}

	if events, ok := metrics["events"].(map[string]interface{}); ok {
		if maxLat, ok := events["max_write_lat_ms"].(float64); ok && maxLat > 50 {
			rec.IncreaseDBConnections = true
			rec.Notes = append(rec.Notes, "Event write latency exceeds 50ms - increase DB connections")
		}
		if errors, ok := events["errors"].(int64); ok && errors > 0 {
			rec.IncreaseDBConnections = true
			rec.Notes = append(rec.Notes, "Event write errors detected - check DB connection pool")
		}
	}

	if ws, ok := metrics["websocket"].(map[string]interface{}); ok {
		if errors, ok := ws["errors"].(int64); ok && errors > 0 {
			rec.IncreaseClientBuffers = true
			rec.Notes = append(rec.Notes, "WebSocket errors detected - increase client send buffer")
		}
	}

	return rec
}

// ApplyRecommendations modifies config based on recommendations.
func ApplyRecommendations(config *Config, rec *Recommendations) *Config {
	if rec.GrowCommandQueue {
		config.CommandQueueSize *= 2
	}
	if rec.IncreaseClientBuffers {
		config.ClientSendBuffer *= 2
	}
	if rec.IncreaseDBConnections {
		config.DBMaxOpenConns = int(float64(config.DBMaxOpenConns) * 1.5)
		config.DBMaxIdleConns = int(float64(config.DBMaxIdleConns) * 1.5)
	}
	if rec.RelaxSnapshotRate {
		config.SnapshotEvery *= 2
	}
	return config
}
