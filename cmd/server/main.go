// Package main is the entry point for the workshop API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workshop/internal/app"
	"workshop/internal/config"
	"workshop/internal/infrastructure/storage/postgres"
	"workshop/pkg/logger"
)

func main() {
	configPath := os.Getenv("WORKSHOP_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("failed to load config %s: %v\n", configPath, err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.Env == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting workshop server")

	if err := postgres.Migrate(cfg.Postgres.DSN); err != nil {
		log.Fatalw("migrations failed", "error", err)
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to wire application", "error", err)
	}
	defer a.Close()

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      a.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
