// Package main is the entry point for the social bingo server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bingo-server/internal/config"
	"bingo-server/internal/identity"
	"bingo-server/internal/pkg/db"
	"bingo-server/internal/realtime"
	"bingo-server/internal/repository"
	"bingo-server/internal/server"
	"bingo-server/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the game store. An empty database host selects the
	// in-memory store, which is only suitable for local development.
	var store service.Store
	if cfg.Database.Host == "" {
		log.Warn().Msg("No database configured, using in-memory store")
		store = repository.NewMemoryStore()
	} else {
		dbPool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer dbPool.Close()

		// Run database migrations
		if err := runMigrations(ctx, dbPool); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
		store = repository.NewGameRepository(dbPool.Pool)
	}

	// Wire up the application
	hub := realtime.NewHub()
	ids := identity.NewProvider()

	gameService := service.NewGameService(store, hub, &service.Options{
		CodeLength:      cfg.Game.CodeLength,
		CodeAttempts:    cfg.Game.CodeAttempts,
		MaxEventCount:   cfg.Game.MaxEventCount,
		MaxEventLength:  cfg.Game.MaxEventLength,
		MaxPlayers:      cfg.Game.MaxPlayersPerGame,
		RetentionWindow: cfg.Retention.Window,
	})

	srv := server.New(gameService, hub, ids, cfg.Game.ConflictRetries)

	// Schedule the retention sweeper
	sweeper := cron.New()
	_, err = sweeper.AddFunc(cfg.Retention.Schedule, func() {
		sweepCtx, sweepCancel := context.WithTimeout(context.Background(), time.Minute)
		defer sweepCancel()
		if _, err := gameService.Sweep(sweepCtx, time.Now().UTC()); err != nil {
			log.Error().Err(err).Msg("Retention sweep failed")
		}
	})
	if err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.Retention.Schedule).Msg("Failed to schedule retention sweep")
	}
	sweeper.Start()

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("Server is starting...")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown
	sweeper.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	log.Info().Msg("Server stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create games table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS games (
			id UUID PRIMARY KEY,
			game_code VARCHAR(8) NOT NULL,
			doc JSONB NOT NULL,
			revision BIGINT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_games_code ON games(game_code);
		CREATE INDEX IF NOT EXISTS idx_games_created_at ON games(created_at);
		CREATE INDEX IF NOT EXISTS idx_games_creator ON games((doc->>'creatorId'));
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: games table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
