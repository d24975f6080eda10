package handler

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

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func healthy() Pinger { return pingFunc(func(context.Context) error { return nil }) }

func unhealthy() Pinger {
	return pingFunc(func(context.Context) error { return errors.New("connection refused") })
}

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		db, cache  Pinger
		wantStatus int
		wantBody   healthResponse
	}{
		{"all up", healthy(), healthy(), http.StatusOK,
			healthResponse{Status: "ok", Data: HealthStatus{Database: "up", Cache: "up"}}},
		{"database down", unhealthy(), healthy(), http.StatusServiceUnavailable,
			healthResponse{Status: "degraded", Data: HealthStatus{Database: "down", Cache: "up"}}},
		{"cache down", healthy(), unhealthy(), http.StatusServiceUnavailable,
			healthResponse{Status: "degraded", Data: HealthStatus{Database: "up", Cache: "down"}}},
		{"cache disabled", healthy(), nil, http.StatusOK,
			healthResponse{Status: "ok", Data: HealthStatus{Database: "up", Cache: "disabled"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewHealthHandler(tt.db, tt.cache)
			rr := httptest.NewRecorder()
			h.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			var got healthResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, tt.wantBody, got)
		})
	}
}

func TestHealth_PingGetsDeadline(t *testing.T) {
	t.Parallel()

	var hasDeadline bool
	h := NewHealthHandler(pingFunc(func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	}), nil)

	h.Health(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.True(t, hasDeadline)
}
