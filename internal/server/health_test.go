package server

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

func serve(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func ok(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("connection refused") }

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker()
	h.AddCheck("postgres", true, failing)

	code, body := serve(t, h.LivenessHandler(), "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestHealthChecker_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(h *HealthChecker)
		wantStatus int
	}{
		{
			name:       "no dependencies",
			setup:      func(*HealthChecker) {},
			wantStatus: http.StatusOK,
		},
		{
			name: "optional dependency failing",
			setup: func(h *HealthChecker) {
				h.AddCheck("redis", false, failing)
				h.AddCheck("postgres", true, ok)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "required dependency failing",
			setup: func(h *HealthChecker) {
				h.AddCheck("postgres", true, failing)
			},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "not ready",
			setup:      func(h *HealthChecker) { h.SetReady(false) },
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "shutting down",
			setup:      func(h *HealthChecker) { h.MarkShuttingDown() },
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker()
			tt.setup(h)
			code, _ := serve(t, h.ReadinessHandler(), "/readyz")
			assert.Equal(t, tt.wantStatus, code)
		})
	}
}

func TestHealthChecker_Detailed(t *testing.T) {
	h := NewHealthChecker()
	h.AddCheck("postgres", true, ok)
	h.AddCheck("redis", false, failing)

	code, body := serve(t, h.DetailedHealthHandler(), "/healthz/detailed")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", body["status"])
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "ok", deps["postgres"])
	assert.Equal(t, "connection refused", deps["redis"])
	assert.Equal(t, []string{"postgres", "redis"}, h.Dependencies())
}

func TestHealthChecker_RegisterHealthEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	NewHealthChecker().RegisterHealthEndpoints(mux)

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		code, _ := serve(t, mux, path)
		assert.Equal(t, http.StatusOK, code, path)
	}
}
