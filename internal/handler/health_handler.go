package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go-med-predict/internal/model"
)

const healthCheckTimeout = 2 * time.Second

type healthChecker interface {
	Health(ctx context.Context) error
}

type modelLister interface {
	Loaded() []string
}

type HealthHandler struct {
	db      healthChecker
	models  modelLister
	version string
}

// NewHealthHandler accepts a nil db when users live in memory.
func NewHealthHandler(db healthChecker, models modelLister, version string) *HealthHandler {
	return &HealthHandler{db: db, models: models, version: version}
}

// Health godoc
// @Summary Service health
// @Description Reports database connectivity and which models are loaded.
// @Tags system
// @Produce json
// @Success 200 {object} model.APIResponse{data=model.HealthStatus}
// @Failure 503 {object} model.APIResponse{data=model.HealthStatus}
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := model.HealthStatus{
		Status:       "healthy",
		Database:     "memory",
		ModelsLoaded: h.models.Loaded(),
		Timestamp:    time.Now().UTC(),
	}

	code := http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		status.Database = "connected"
		if err := h.db.Health(ctx); err != nil {
			slog.Warn("database health check failed", "error", err)
			status.Status = "unhealthy"
			status.Database = "disconnected"
			code = http.StatusServiceUnavailable
		}
	}

	writeSuccess(w, code, status, metaFor(r))
}

// Index godoc
// @Summary Service information
// @Tags system
// @Produce json
// @Success 200 {object} model.APIResponse{data=model.ServiceInfo}
// @Router / [get]
func (h *HealthHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, model.ServiceInfo{
		Message: "Medical prediction API",
		Version: h.version,
		Endpoints: map[string]string{
			"signup":         "POST /signup",
			"login":          "POST /login",
			"reset_password": "POST /reset-password",
			"me":             "GET /me",
			"mole":           "POST /mole/predict",
			"eye":            "POST /eye/predict",
			"period":         "POST /period/predict",
			"health":         "GET /health",
			"docs":           "GET /swagger/index.html",
		},
	}, metaFor(r))
}

// NotFound answers unknown routes in the JSON envelope.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, apiNotFound)
}

func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, apiMethodNotAllowed)
}
