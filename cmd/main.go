/*
Package main is the entry point for the Profile Lounge front end.

It loads configuration, initializes the global logger, picks the session
repository, builds the per-browser session manager and serves the pages
until SIGINT or SIGTERM, then shuts down gracefully.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"profilelounge/internal/app/api"
	"profilelounge/internal/app/db"
	"profilelounge/internal/app/notify"
	"profilelounge/internal/app/session"
	"profilelounge/internal/configs"
	"profilelounge/internal/handler"
	"profilelounge/internal/pkg/logx"
)

func main() {
	// Load configuration from .env and environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Str("backend_url", cfg.BackendURL).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Bool("durable_sessions", cfg.DatabaseDSN != "").
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo session.Repository = session.NewMemoryRepository()
	if cfg.DatabaseDSN != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			logx.Fatal(err, "Failed to connect to the session database")
		}
		defer pool.Close()
		repo = db.NewSessionRepository(pool)
	}

	factory := func(notifier notify.Notifier) (session.Client, error) {
		client, err := api.NewHTTPClient(api.Options{
			BaseURL: cfg.BackendURL,
			Timeout: cfg.BackendTimeout,
		}, notifier)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	manager := session.NewManager(repo, factory, session.Options{
		IdleTimeout:  cfg.SessionIdleTimeout,
		ProbeTimeout: cfg.BackendTimeout,
	})

	router := handler.Router(ctx, &handler.AppDeps{
		Config:   cfg,
		Sessions: manager,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.BackendTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Profile Lounge starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	manager.Shutdown()

	logx.Info("Server gracefully stopped.")
}
