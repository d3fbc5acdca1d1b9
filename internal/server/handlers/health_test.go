package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (p stubPinger) PingContext(context.Context) error {
	return p.err
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name    string
		pinger  Pinger
		driver  string
		storage string
	}{
		{"memory", nil, "memory", "connected"},
		{"reachable backend", stubPinger{}, "postgres", "connected"},
		{"unreachable backend", stubPinger{err: errors.New("connection refused")}, "redis", "disconnected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(tt.pinger, tt.driver).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/server/health", nil))

			require.Equal(t, http.StatusOK, rec.Code)

			var resp HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "healthy", resp.Status)
			assert.Equal(t, tt.storage, resp.Storage)
			assert.Equal(t, tt.driver, resp.Driver)
			assert.NotEmpty(t, resp.Timestamp)
		})
	}
}
