package optimization

import (
	"testing"
)

func TestAnalyzeFlagsDroppedCommands(t *testing.T) {
	observed := map[string]interface{}{
		"game": map[string]interface{}{
			"commands_dropped":  int64(3),
			"snapshots_dropped": int64(0),
		},
	}

	rec := Analyze(observed)

	if !rec.GrowCommandQueue {
		t.Error("Expected dropped commands to flag the queue")
	}
	if rec.IncreaseDBConnections || rec.IncreaseClientBuffers {
		t.Error("Unrelated flags should stay clear")
	}
	if len(rec.Notes) != 1 {
		t.Errorf("Expected exactly one note, got %d", len(rec.Notes))
	}
}

func TestAnalyzeFlagsSlowTicks(t *testing.T) {
	observed := map[string]interface{}{
		"tick": map[string]interface{}{
			"max_latency_ms": 80.0,
		},
	}

	rec := Analyze(observed)

	if !rec.RelaxSnapshotRate {
		t.Error("A tick slower than the step should relax the broadcast rate")
	}
}

func TestAnalyzeOnQuietMetricsStaysSilent(t *testing.T) {
	observed := map[string]interface{}{
		"tick": map[string]interface{}{
			"max_latency_ms": 3.2,
		},
		"game": map[string]interface{}{
			"commands_dropped":  int64(0),
			"snapshots_dropped": int64(0),
		},
		"events": map[string]interface{}{
			"max_write_lat_ms": 1.1,
			"errors":           int64(0),
		},
		"websocket": map[string]interface{}{
			"errors": int64(0),
		},
	}

	rec := Analyze(observed)

	if rec.GrowCommandQueue || rec.IncreaseClientBuffers || rec.IncreaseDBConnections || rec.RelaxSnapshotRate {
		t.Error("A healthy server needs no recommendations")
	}
	if len(rec.Notes) != 0 {
		t.Errorf("Expected no notes, got %v", rec.Notes)
	}
}

func TestApplyRecommendationsGrowsTheRightKnobs(t *testing.T) {
	cfg := DefaultConfig()
	queueBefore := cfg.CommandQueueSize
	snapshotBefore := cfg.SnapshotEvery

	rec := &Recommendations{GrowCommandQueue: true, RelaxSnapshotRate: true}
	cfg = ApplyRecommendations(cfg, rec)

	if cfg.CommandQueueSize != queueBefore*2 {
		t.Errorf("Queue should double, got %d", cfg.CommandQueueSize)
	}
	if cfg.SnapshotEvery != snapshotBefore*2 {
		t.Errorf("Snapshot cadence should double, got %d", cfg.SnapshotEvery)
	}
	if cfg.ClientSendBuffer != DefaultConfig().ClientSendBuffer {
		t.Error("Untouched knobs must keep their defaults")
	}
}
