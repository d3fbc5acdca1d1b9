package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"planet-service/internal/shared/response"
)

const pingTimeout = 2 * time.Second

// Pinger is implemented by storage backends that hold a connection.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Storage   string `json:"storage"`
	Driver    string `json:"driver"`
}

type HealthHandler struct {
	pinger Pinger
	driver string
}

// NewHealthHandler reports on the given backend. A nil pinger means the
// storage lives in-process and is always connected.
func NewHealthHandler(pinger Pinger, driver string) *HealthHandler {
	return &HealthHandler{pinger: pinger, driver: driver}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "health", "driver", h.driver)

	storageStatus := "connected"
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		if err := h.pinger.PingContext(ctx); err != nil {
			storageStatus = "disconnected"
			logger.Warn("Storage ping failed", "error", err)
		}
	}

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Storage:   storageStatus,
		Driver:    h.driver,
	}

	response.Success(w, http.StatusOK, resp)
}
