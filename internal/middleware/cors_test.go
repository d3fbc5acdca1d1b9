package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"planet-service/internal/shared/config"

	"github.com/stretchr/testify/assert"
)

func TestCORSPreflight(t *testing.T) {
	c := NewCORS(config.FrontendConfig{URL: "http://localhost:3000"})
	handler := c.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/planet/earth", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	c := NewCORS(config.FrontendConfig{URL: "http://localhost:3000"})
	handler := c.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/planet", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
