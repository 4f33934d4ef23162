package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger checks a dependency is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// JobCounter reports the background queue depth.
type JobCounter interface {
	PendingJobs(ctx context.Context) (int64, error)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	PendingJobs *int64 `json:"pendingJobs,omitempty"`
}

// HealthHandler reports service health.
type HealthHandler struct {
	db     Pinger
	jobs   JobCounter
	logger *slog.Logger
}

// NewHealthHandler creates a new HealthHandler. jobs may be nil.
func NewHealthHandler(db Pinger, jobs JobCounter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, jobs: jobs, logger: logger}
}

// RegisterRoutes registers GET /health.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
}

// Health returns 200 when the database answers and 503 otherwise.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Database: "ok"}
	status := http.StatusOK

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn("health check: database unreachable", "error", err)
		resp.Status = "unavailable"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	} else if h.jobs != nil {
		if n, err := h.jobs.PendingJobs(ctx); err == nil {
			resp.PendingJobs = &n
		} else {
			h.logger.Warn("health check: count pending jobs", "error", err)
		}
	}

	writeJSON(w, status, resp)
}
