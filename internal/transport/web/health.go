package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// dbPinger defines the minimal interface for database health checks.
type dbPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the operational health endpoint.
type HealthHandler struct {
	db      dbPinger
	version string
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(db dbPinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// HealthResponse is the JSON response for /healthz.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

// Healthz pings the database: 200 if reachable, 503 if not.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "ok",
		Version:   h.version,
		Database:  "ok",
		Timestamp: time.Now(),
	}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		resp.Status = "down"
		resp.Database = "down"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp) //nolint:errcheck
}
