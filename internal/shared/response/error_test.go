package response

import (
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"planet-service/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantType    string
		wantMessage string
	}{
		{"not found", errors.NotFoundf("planet not found with id: x"), http.StatusNotFound, "not_found", "planet not found with id: x"},
		{"validation", errors.Validation("name is required"), http.StatusBadRequest, "validation", "name is required"},
		{"internal hides cause", errors.WrapInternal("failed to query planets", sql.ErrConnDone), http.StatusInternalServerError, "internal", "Internal Server Error"},
		{"plain error is internal", sql.ErrConnDone, http.StatusInternalServerError, "internal", "Internal Server Error"},
		{"external", errors.WrapExternal("redis down", sql.ErrConnDone), http.StatusServiceUnavailable, "external", "Service Unavailable"},
		{"rate limited", errors.RateLimited("rate limit exceeded"), http.StatusTooManyRequests, "rate_limited", "rate limit exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/planet/x", nil)

			Error(rec, req, discardLogger(), tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body.Error)
			assert.Equal(t, tt.wantMessage, body.Message)
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusCreated, map[string]string{"id": "earth"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"earth"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Success(rec, http.StatusOK, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}
