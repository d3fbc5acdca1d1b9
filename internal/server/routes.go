package server

import (
	"log/slog"
	"net/http"

	"planet-service/internal/middleware"
	"planet-service/internal/planet"
	planetHandlers "planet-service/internal/planet/handlers"
	serverHandlers "planet-service/internal/server/handlers"
	"planet-service/internal/shared/config"
	"planet-service/internal/shared/metrics"
)

type Routes struct {
	cfg         *config.Config
	storage     *Storage
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func NewRoutes(cfg *config.Config, storage *Storage, rateLimiter *middleware.RateLimiter, logger *slog.Logger) *Routes {
	return &Routes{
		cfg:         cfg,
		storage:     storage,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := slog.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	planetService := planet.NewService(r.storage.Store, r.logger)
	planetHandler := planetHandlers.NewPlanetHandler(planetService, r.cfg.Server)
	healthHandler := serverHandlers.NewHealthHandler(r.storage.Pinger, r.storage.Driver)

	mux.HandleFunc("GET /planet", planetHandler.List)
	mux.HandleFunc("POST /planet", planetHandler.Create)
	mux.HandleFunc("GET /planet/{id}", planetHandler.Get)
	mux.HandleFunc("DELETE /planet/{id}", planetHandler.Delete)

	mux.Handle("GET /api/server/health", healthHandler)

	endpoints := []string{"/planet", "/planet/{id}", "/api/server/health"}
	if r.cfg.Metrics.Enabled {
		mux.Handle("GET /metrics", metrics.Handler())
		endpoints = append(endpoints, "/metrics")
	}

	logger.Info("Routes configured successfully", "endpoints", endpoints)

	return mux
}

// Handler wraps the routes with metrics, rate limiting and CORS, outermost first.
func (r *Routes) Handler() http.Handler {
	var handler http.Handler = r.Setup()

	handler = middleware.NewCORS(r.cfg.Frontend).Middleware(handler)
	handler = r.rateLimiter.Middleware(handler)
	if r.cfg.Metrics.Enabled {
		handler = metrics.InstrumentHandler(handler)
	}

	return handler
}
