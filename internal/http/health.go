package http

import (
	"context"
	"net/http"
	"time"

	"github.com/redmonkez12/beauty-assistant-api/internal/database"
	"github.com/redmonkez12/beauty-assistant-api/internal/httputil"
	"github.com/redmonkez12/beauty-assistant-api/internal/logging"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"

	dbConnected   = "connected"
	dbUnreachable = "unreachable"
)

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version"`
}

// RootResponse is returned by GET /
type RootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

// HealthHandler reports liveness and database reachability.
type HealthHandler struct {
	db          database.Pinger
	version     string
	pingTimeout time.Duration
}

func NewHealthHandler(db database.Pinger, version string, pingTimeout time.Duration) *HealthHandler {
	return &HealthHandler{db: db, version: version, pingTimeout: pingTimeout}
}

// Root is a liveness endpoint
// @Summary      API status
// @Tags         health
// @Produce      json
// @Success      200 {object} RootResponse
// @Router       / [get]
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, r, RootResponse{
		Message: "Beauty Assistant API is running",
		Version: h.version,
		Status:  statusHealthy,
	}, http.StatusOK)
}

// Health reports database reachability. A failing database degrades the
// status but the endpoint itself still answers 200.
// @Summary      Health check
// @Description  Check API and database status
// @Tags         health
// @Produce      json
// @Success      200 {object} HealthResponse
// @Router       /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   statusHealthy,
		Database: dbConnected,
		Version:  h.version,
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.pingTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		logging.GetLoggerFromContext(r.Context()).Warn("database health check failed", "error", err.Error())
		resp.Status = statusDegraded
		resp.Database = dbUnreachable
	}

	httputil.RespondJSON(w, r, resp, http.StatusOK)
}
