// Package main - horde
// "The Horde" - Load generator for stress testing the arena server.
// Simulates a crowd of concurrent bearers joining, wandering and beaming
// shades over WebSocket.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Config for the horde
type Config struct {
	ServerURL      string
	NumBots        int
	ActionInterval time.Duration
	TestDuration   time.Duration
}

// Stats tracks performance metrics
type Stats struct {
	MessagesSent     int64
	MessagesReceived int64
	SnapshotsSeen    int64
	Errors           int64
	Latencies        []time.Duration
	mu               sync.Mutex
}

// Action mix per tick. Move dominates; the rest keep the beam and the
// spawn gate busy. Weighted by repetition.
var actionKinds = []string{
	"move", "move", "move", "move", "move", "move",
	"beam_hit", "beam_hit", "beam_hit",
	"skip_wait",
}

// targetBook holds the hostile shade IDs a bot last saw in a snapshot,
// so beam_hit actions aim at creatures that actually exist.
type targetBook struct {
	mu  sync.Mutex
	ids []string
}

func (t *targetBook) update(ids []string) {
	t.mu.Lock()
	t.ids = ids
	t.mu.Unlock()
}

func (t *targetBook) pick() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.ids) == 0 {
		return "", false
	}
	return t.ids[rand.Intn(len(t.ids))], true
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numBots := flag.Int("bots", 40, "Number of concurrent bearer bots")
	interval := flag.Duration("interval", 200*time.Millisecond, "Action interval per bot")
	duration := flag.Duration("duration", 120*time.Second, "Test duration (past the blackout)")
	flag.Parse()

	config := Config{
		ServerURL:      *serverURL,
		NumBots:        *numBots,
		ActionInterval: *interval,
		TestDuration:   *duration,
	}

	fmt.Println("=========================================")
	fmt.Println("🏮 THE HORDE - Lumenfall Load Generator")
	fmt.Println("=========================================")
	fmt.Printf("Server: %s\n", config.ServerURL)
	fmt.Printf("Bots: %d\n", config.NumBots)
	fmt.Printf("Interval: %v\n", config.ActionInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("\n⚠️ Interrupt received, stopping...")
		cancel()
	}()

	stats := runStressTest(ctx, config)

	printResults(stats, config)
}

func runStressTest(ctx context.Context, config Config) *Stats {
	stats := &Stats{
		Latencies: make([]time.Duration, 0, 10000),
	}

	var wg sync.WaitGroup

	fmt.Println("\n🚀 Releasing the horde...")

	for i := 0; i < config.NumBots; i++ {
		wg.Add(1)
		go func(botID int) {
			defer wg.Done()
			runBot(ctx, botID, config, stats)
		}(i)

		// Stagger bot starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}

	fmt.Printf("✅ All %d bots connected\n\n", config.NumBots)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sent := atomic.LoadInt64(&stats.MessagesSent)
				recv := atomic.LoadInt64(&stats.MessagesReceived)
				snaps := atomic.LoadInt64(&stats.SnapshotsSeen)
				errs := atomic.LoadInt64(&stats.Errors)
				fmt.Printf("📊 Progress: Sent=%d Recv=%d Snapshots=%d Errors=%d\n", sent, recv, snaps, errs)
			}
		}
	}()

	wg.Wait()
	return stats
}

func runBot(ctx context.Context, botID int, config Config, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		log.Printf("Bot %d: Connection failed: %v", botID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	book := &targetBook{}

	// Receiver goroutine: counts frames and harvests shade targets from
	// snapshots.
	go func() {
		for {
			var frame struct {
				Type    string          `json:"type"`
				Payload json.RawMessage `json:"payload"`
			}
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			atomic.AddInt64(&stats.MessagesReceived, 1)

			if frame.Type != "snapshot" {
				continue
			}
			atomic.AddInt64(&stats.SnapshotsSeen, 1)

			var snap struct {
				Shades []struct {
					ID    string `json:"id"`
					State string `json:"state"`
				} `json:"shades"`
			}
			if err := json.Unmarshal(frame.Payload, &snap); err != nil {
				continue
			}
			hostiles := make([]string, 0, len(snap.Shades))
			for _, s := range snap.Shades {
				if s.State == "Hostile" {
					hostiles = append(hostiles, s.ID)
				}
			}
			book.update(hostiles)
		}
	}()

	// Every bot joins as a bearer before anything else.
	join := map[string]interface{}{
		"type":    "join",
		"payload": map[string]string{"name": fmt.Sprintf("Horde-%03d", botID)},
	}
	if err := conn.WriteJSON(join); err != nil {
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	atomic.AddInt64(&stats.MessagesSent, 1)

	// Each bot wanders its own patch of the arena floor.
	x := rand.Float64()*40 - 20
	z := rand.Float64()*40 - 20

	ticker := time.NewTicker(config.ActionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			action, ok := nextAction(book, &x, &z)
			if !ok {
				continue
			}
			start := time.Now()

			if err := conn.WriteJSON(action); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}

			latency := time.Since(start)
			atomic.AddInt64(&stats.MessagesSent, 1)

			stats.mu.Lock()
			stats.Latencies = append(stats.Latencies, latency)
			stats.mu.Unlock()
		}
	}
}

func nextAction(book *targetBook, x, z *float64) (map[string]interface{}, bool) {
	// Rarely, a bot reports being caught. It stays down until the match
	// resets, which keeps the whole lifecycle under load.
	if rand.Float64() < 0.01 {
		if shadeID, ok := book.pick(); ok {
			return map[string]interface{}{
				"type":    "caught",
				"payload": map[string]string{"shadeId": shadeID},
			}, true
		}
	}

	kind := actionKinds[rand.Intn(len(actionKinds))]

	switch kind {
	case "move":
		*x = clamp(*x+rand.Float64()*3-1.5, -25, 25)
		*z = clamp(*z+rand.Float64()*3-1.5, -25, 25)
		return map[string]interface{}{
			"type":    "move",
			"payload": map[string]float64{"x": *x, "y": 2, "z": *z},
		}, true

	case "beam_hit":
		shadeID, ok := book.pick()
		if !ok {
			// Nothing hostile on the floor yet; skip this tick.
			return nil, false
		}
		return map[string]interface{}{
			"type":    "beam_hit",
			"payload": map[string]string{"shadeId": shadeID},
		}, true

	case "skip_wait":
		return map[string]interface{}{"type": "skip_wait"}, true
	}

	return nil, false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func printResults(stats *Stats, config Config) {
	fmt.Println("\n=========================================")
	fmt.Println("📊 HORDE RESULTS")
	fmt.Println("=========================================")

	sent := atomic.LoadInt64(&stats.MessagesSent)
	recv := atomic.LoadInt64(&stats.MessagesReceived)
	snaps := atomic.LoadInt64(&stats.SnapshotsSeen)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Printf("Messages Sent:     %d\n", sent)
	fmt.Printf("Messages Received: %d\n", recv)
	fmt.Printf("Snapshots Seen:    %d\n", snaps)
	fmt.Printf("Errors:            %d\n", errs)
	fmt.Printf("Error Rate:        %.2f%%\n", float64(errs)/float64(sent+1)*100)

	throughput := float64(sent) / config.TestDuration.Seconds()
	fmt.Printf("Throughput:        %.2f msg/sec\n", throughput)

	if len(stats.Latencies) > 0 {
		var total time.Duration
		var min, max time.Duration = stats.Latencies[0], stats.Latencies[0]

		for _, l := range stats.Latencies {
			total += l
			if l < min {
				min = l
			}
			if l > max {
				max = l
			}
		}

		avg := total / time.Duration(len(stats.Latencies))

		fmt.Printf("\nWrite Latency:\n")
		fmt.Printf("  Min: %v\n", min)
		fmt.Printf("  Avg: %v\n", avg)
		fmt.Printf("  Max: %v\n", max)
	}

	fmt.Println("\n-----------------------------------------")
	if errs == 0 && snaps > 0 {
		fmt.Println("✅ TEST PASSED: The arena held against the horde")
	} else if float64(errs)/float64(sent+1) < 0.05 {
		fmt.Println("⚠️ TEST WARNING: Some errors detected")
	} else {
		fmt.Println("❌ TEST FAILED: High error rate")
	}
	fmt.Println("=========================================")

	results := map[string]interface{}{
		"messages_sent":      sent,
		"messages_received":  recv,
		"snapshots_seen":     snaps,
		"errors":             errs,
		"throughput_per_sec": throughput,
		"config": map[string]interface{}{
			"bots":     config.NumBots,
			"interval": config.ActionInterval.String(),
			"duration": config.TestDuration.String(),
		},
	}

	jsonData, _ := json.MarshalIndent(results, "", "  ")
	os.WriteFile("horde_results.json", jsonData, 0644)
	fmt.Println("\n📁 Results saved to horde_results.json")
}
