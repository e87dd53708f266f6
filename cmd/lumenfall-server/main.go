// Package main is the entry point for the Lumenfall arena server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PauMirall/Lumenfall/server/internal/engine"
	"github.com/PauMirall/Lumenfall/server/internal/events"
	"github.com/PauMirall/Lumenfall/server/internal/infra/storage"
	"github.com/PauMirall/Lumenfall/server/internal/network"
	"github.com/PauMirall/Lumenfall/server/internal/platform/config"
	"github.com/PauMirall/Lumenfall/server/internal/platform/logger"
	"github.com/PauMirall/Lumenfall/server/internal/platform/metrics"
)

func main() {
	log.Println("[LUMENFALL] Initializing 'Lumenfall' Authoritative Arena Server...")

	appLogger := logger.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		appLogger.Error("Failed to load configuration: " + err.Error())
		os.Exit(1)
	}

	appLogger.Info("Initializing SQLite database '" + cfg.DBPath + "'...")
	db, err := storage.InitSQLite(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite: " + err.Error())
		os.Exit(1)
	}
	defer db.Close()

	settingsRepo := storage.NewSQLiteSettingsRepository(db)
	scoreRepo := storage.NewSQLiteScoreRepository(db)
	matchRepo := storage.NewSQLiteMatchRepository(db)
	eventRepo := storage.NewSQLiteEventRepository(db)
	eventPersister := storage.NewPersister(settingsRepo, scoreRepo, matchRepo, eventRepo, appLogger)

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewEventLog(eventPersister)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Attempt to recover the best score from a previous run
	highScore := 0.0
	if hs, err := settingsRepo.GetFloat(ctx, storage.HighScoreKey); err == nil {
		highScore = hs
		appLogger.Info(fmt.Sprintf("Restored High Score from Database: %.1f", hs))
	} else if !errors.Is(err, storage.ErrNotFound) {
		appLogger.Warn("Could not read high score, starting from zero: " + err.Error())
	}

	appLogger.Info("Bootstrapping Engine Subsystems...")
	arena := engine.NewEngine(engine.Deps{
		EventLog:      eventLog,
		Logger:        appLogger,
		Tuning:        engine.TuningFromConfig(cfg),
		TickStep:      cfg.TickStep,
		SnapshotEvery: cfg.SnapshotEvery,
		HighScore:     highScore,
	})

	// Start engine processing in background
	go arena.Run(ctx)

	// Automated High Score Backup Routine
	// HIGH_SCORE events already flow through the persister; this heals the
	// stored value if one of those writes was lost.
	go func() {
		backupTicker := time.NewTicker(15 * time.Second)
		defer backupTicker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-backupTicker.C:
				snap := arena.Status()
				if snap.HighScore > 0 {
					_ = settingsRepo.PutFloat(ctx, storage.HighScoreKey, snap.HighScore)
				}
			}
		}
	}()

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(arena, appLogger)
	go hub.Run(ctx)
	hub.StartSnapshotPump(ctx)
	hub.StartEventPoller(ctx, eventLog)

	// Setup API Routes
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)

	apiHandler := network.NewAPIHandler(arena, hub, appLogger)
	apiHandler.RegisterRoutes(mux)

	summarizer := storage.NewSummarizer(eventRepo)
	replayHandler := network.NewReplayHandler(arena, eventLog, summarizer, eventRepo, scoreRepo, matchRepo, appLogger)
	replayHandler.RegisterRoutes(mux)

	mux.HandleFunc("/metrics", metrics.Handler())
	mux.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	go func() {
		log.Println("[LUMENFALL] HTTP API & WS Server listening on " + cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[LUMENFALL] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[LUMENFALL] Shutting down...")
	arena.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown did not finish cleanly: " + err.Error())
	}
}
