package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is a dependency that can report its reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports database and cache reachability
type HealthHandler struct {
	db      Pinger
	cache   Pinger
	timeout time.Duration
}

// NewHealthHandler creates a new health handler. Either pinger may be nil,
// in which case it is reported as "disabled".
func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, timeout: 2 * time.Second}
}

// HealthStatus is the per-dependency report
type HealthStatus struct {
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

type healthResponse struct {
	Status string       `json:"status"`
	Data   HealthStatus `json:"data"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	report := HealthStatus{
		Database: probe(ctx, "database", h.db),
		Cache:    probe(ctx, "cache", h.cache),
	}

	status, code := "ok", http.StatusOK
	if report.Database == "down" || report.Cache == "down" {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(healthResponse{Status: status, Data: report})
}

func probe(ctx context.Context, name string, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		slog.Warn("health check failed",
			slog.String("dependency", name),
			slog.String("error", err.Error()),
		)
		return "down"
	}
	return "up"
}
