// Package metrics provides observability for the arena server.
// Counters are cheap atomics so the tick loop can record without locking.
package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance metrics.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	LastTickTime   time.Time

	// Event metrics
	EventsWritten    int64
	EventWriteLatSum int64
	EventWriteLatMax int64
	EventWriteErrors int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// Gameplay metrics
	CommandsApplied  int64
	CommandsDropped  int64
	ShadesSpawned    int64
	ShadesTurned     int64
	BearersDowned    int64
	MatchesCompleted int64
	SnapshotsDropped int64
	LiveShades       int64 // gauge
	BearersUp        int64 // gauge
	highScoreBits    uint64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordTick records a tick cycle completion.
func (c *Collector) RecordTick(latency time.Duration) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.TickLatencyMax) {
		atomic.StoreInt64(&c.TickLatencyMax, int64(latency))
	}

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

// RecordEventWrite records an event write to the database.
func (c *Collector) RecordEventWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.EventsWritten, 1)
	atomic.AddInt64(&c.EventWriteLatSum, int64(latency))

	if int64(latency) > atomic.LoadInt64(&c.EventWriteLatMax) {
		atomic.StoreInt64(&c.EventWriteLatMax, int64(latency))
	}

	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// RecordCommand records a client command applied by the simulation.
func (c *Collector) RecordCommand() {
	atomic.AddInt64(&c.CommandsApplied, 1)
}

// RecordCommandDropped records a command rejected because the queue was full.
func (c *Collector) RecordCommandDropped() {
	atomic.AddInt64(&c.CommandsDropped, 1)
}

// RecordShadeSpawned records a new shade entering the arena.
func (c *Collector) RecordShadeSpawned() {
	atomic.AddInt64(&c.ShadesSpawned, 1)
}

// RecordShadeTurned records a shade completing its fade.
func (c *Collector) RecordShadeTurned() {
	atomic.AddInt64(&c.ShadesTurned, 1)
}

// RecordBearerDown records a bearer being caught.
func (c *Collector) RecordBearerDown() {
	atomic.AddInt64(&c.BearersDowned, 1)
}

// RecordMatchCompleted records a finished match.
func (c *Collector) RecordMatchCompleted() {
	atomic.AddInt64(&c.MatchesCompleted, 1)
}

// RecordSnapshotDropped records a snapshot frame skipped because the
// network side was busy.
func (c *Collector) RecordSnapshotDropped() {
	atomic.AddInt64(&c.SnapshotsDropped, 1)
}

// SetPopulation updates the live shade and bearer gauges.
func (c *Collector) SetPopulation(liveShades, bearersUp int64) {
	atomic.StoreInt64(&c.LiveShades, liveShades)
	atomic.StoreInt64(&c.BearersUp, bearersUp)
}

// SetHighScore updates the high score gauge.
func (c *Collector) SetHighScore(score float64) {
	atomic.StoreUint64(&c.highScoreBits, math.Float64bits(score))
}

// HighScore returns the high score gauge.
func (c *Collector) HighScore() float64 {
	return math.Float64frombits(atomic.LoadUint64(&c.highScoreBits))
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)
	eventsWritten := atomic.LoadInt64(&c.EventsWritten)

	// Calculate averages
	var tickAvg, eventAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}
	if eventsWritten > 0 {
		eventAvg = float64(atomic.LoadInt64(&c.EventWriteLatSum)) / float64(eventsWritten) / 1e6
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"tick": map[string]interface{}{
			"count":          tickCount,
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      c.LastTickTime.Format(time.RFC3339),
		},

		"events": map[string]interface{}{
			"written":          eventsWritten,
			"avg_write_lat_ms": eventAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.EventWriteLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.EventWriteErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},

		"game": map[string]interface{}{
			"commands_applied":  atomic.LoadInt64(&c.CommandsApplied),
			"commands_dropped":  atomic.LoadInt64(&c.CommandsDropped),
			"shades_spawned":    atomic.LoadInt64(&c.ShadesSpawned),
			"shades_turned":     atomic.LoadInt64(&c.ShadesTurned),
			"bearers_downed":    atomic.LoadInt64(&c.BearersDowned),
			"matches_completed": atomic.LoadInt64(&c.MatchesCompleted),
			"snapshots_dropped": atomic.LoadInt64(&c.SnapshotsDropped),
			"live_shades":       atomic.LoadInt64(&c.LiveShades),
			"bearers_up":        atomic.LoadInt64(&c.BearersUp),
			"high_score":        c.HighScore(),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		snapshot := collector.Snapshot()
		json.NewEncoder(w).Encode(snapshot)
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		c := collector

		// Tick metrics
		fmt.Fprintf(w, "# HELP lumenfall_tick_count Total tick cycles\n")
		fmt.Fprintf(w, "# TYPE lumenfall_tick_count counter\n")
		fmt.Fprintf(w, "lumenfall_tick_count %d\n\n", atomic.LoadInt64(&c.TickCount))

		fmt.Fprintf(w, "# HELP lumenfall_tick_latency_max_ms Maximum tick latency\n")
		fmt.Fprintf(w, "# TYPE lumenfall_tick_latency_max_ms gauge\n")
		fmt.Fprintf(w, "lumenfall_tick_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.TickLatencyMax))/1e6)

		// Event metrics
		fmt.Fprintf(w, "# HELP lumenfall_events_written Total events written\n")
		fmt.Fprintf(w, "# TYPE lumenfall_events_written counter\n")
		fmt.Fprintf(w, "lumenfall_events_written %d\n\n", atomic.LoadInt64(&c.EventsWritten))

		fmt.Fprintf(w, "# HELP lumenfall_event_write_errors Total event write errors\n")
		fmt.Fprintf(w, "# TYPE lumenfall_event_write_errors counter\n")
		fmt.Fprintf(w, "lumenfall_event_write_errors %d\n\n", atomic.LoadInt64(&c.EventWriteErrors))

		// WebSocket metrics
		fmt.Fprintf(w, "# HELP lumenfall_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE lumenfall_ws_connections gauge\n")
		fmt.Fprintf(w, "lumenfall_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP lumenfall_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE lumenfall_ws_messages_total counter\n")
		fmt.Fprintf(w, "lumenfall_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "lumenfall_ws_messages_total{direction=\"out\"} %d\n\n", atomic.LoadInt64(&c.WSMessagesOut))

		// Gameplay metrics
		fmt.Fprintf(w, "# HELP lumenfall_commands_dropped Commands rejected by a full queue\n")
		fmt.Fprintf(w, "# TYPE lumenfall_commands_dropped counter\n")
		fmt.Fprintf(w, "lumenfall_commands_dropped %d\n\n", atomic.LoadInt64(&c.CommandsDropped))

		fmt.Fprintf(w, "# HELP lumenfall_shades_spawned Total shades spawned\n")
		fmt.Fprintf(w, "# TYPE lumenfall_shades_spawned counter\n")
		fmt.Fprintf(w, "lumenfall_shades_spawned %d\n\n", atomic.LoadInt64(&c.ShadesSpawned))

		fmt.Fprintf(w, "# HELP lumenfall_shades_turned Total shades turned friendly\n")
		fmt.Fprintf(w, "# TYPE lumenfall_shades_turned counter\n")
		fmt.Fprintf(w, "lumenfall_shades_turned %d\n\n", atomic.LoadInt64(&c.ShadesTurned))

		fmt.Fprintf(w, "# HELP lumenfall_bearers_downed Total bearers caught\n")
		fmt.Fprintf(w, "# TYPE lumenfall_bearers_downed counter\n")
		fmt.Fprintf(w, "lumenfall_bearers_downed %d\n\n", atomic.LoadInt64(&c.BearersDowned))

		fmt.Fprintf(w, "# HELP lumenfall_matches_completed Total matches completed\n")
		fmt.Fprintf(w, "# TYPE lumenfall_matches_completed counter\n")
		fmt.Fprintf(w, "lumenfall_matches_completed %d\n\n", atomic.LoadInt64(&c.MatchesCompleted))

		fmt.Fprintf(w, "# HELP lumenfall_live_shades Live shades in the arena\n")
		fmt.Fprintf(w, "# TYPE lumenfall_live_shades gauge\n")
		fmt.Fprintf(w, "lumenfall_live_shades %d\n\n", atomic.LoadInt64(&c.LiveShades))

		fmt.Fprintf(w, "# HELP lumenfall_bearers_up Bearers currently standing\n")
		fmt.Fprintf(w, "# TYPE lumenfall_bearers_up gauge\n")
		fmt.Fprintf(w, "lumenfall_bearers_up %d\n\n", atomic.LoadInt64(&c.BearersUp))

		fmt.Fprintf(w, "# HELP lumenfall_high_score Best score ever recorded\n")
		fmt.Fprintf(w, "# TYPE lumenfall_high_score gauge\n")
		fmt.Fprintf(w, "lumenfall_high_score %.1f\n", c.HighScore())
	}
}
