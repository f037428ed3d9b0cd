// Package main is the entry point for the screening API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/valuescreen/internal/config"
	"github.com/aristath/valuescreen/internal/database"
	"github.com/aristath/valuescreen/internal/modules/pipeline"
	"github.com/aristath/valuescreen/internal/modules/runs"
	"github.com/aristath/valuescreen/internal/modules/screening/handlers"
	"github.com/aristath/valuescreen/internal/server"
	"github.com/aristath/valuescreen/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting screening server")

	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ProfilePath).Msg("Failed to load screening profile")
	}

	runner, err := pipeline.NewRunner(profile.PipelineConfig(cfg.Workers), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid screening profile")
	}

	// Run history is optional; a nil store disables the /runs endpoints.
	var store handlers.RunStore
	var db *database.DB
	if cfg.PersistRuns {
		db, err = database.New(database.Config{
			Path:    cfg.DatabasePath(),
			Profile: database.ProfileStandard,
			Name:    "screening",
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open database")
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
		store = runs.NewRepository(db.Conn(), log)
		log.Info().Str("path", db.Path()).Msg("Run persistence enabled")
	}

	srv := server.New(server.Config{
		Log:      log,
		Port:     cfg.Port,
		DevMode:  cfg.DevMode,
		DB:       db,
		Handlers: handlers.NewHandlers(runner, cfg.Workers, store, log),
		Workers:  cfg.Workers,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Int("workers", cfg.Workers).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
