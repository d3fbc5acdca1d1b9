package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"planet-service/internal/middleware"
	"planet-service/internal/server"
	"planet-service/internal/shared/config"
	"planet-service/internal/shared/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.Init(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Init()

	log := slog.With("component", "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.GlobalConfig

	storage, err := server.OpenStorage(ctx, cfg, slog.Default())
	if err != nil {
		log.Error("Failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := storage.Close(); err != nil {
			log.Error("Failed to close storage", "error", err)
		}
	}()

	rateLimiter := middleware.NewRateLimiter(ctx, cfg.RateLimit)
	routes := server.NewRoutes(cfg, storage, rateLimiter, slog.Default())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      routes.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Planet service starting",
			"port", cfg.Server.Port,
			"url", cfg.Server.URL,
			"environment", cfg.Server.Environment,
			"storage_driver", cfg.Storage.Driver,
		)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", "error", err)
			return
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
		return
	}

	log.Info("Server stopped")
}
