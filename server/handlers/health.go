package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// HealthChecker reports whether a dependency is usable.
type HealthChecker func(ctx context.Context) error

// HealthHandler returns "ok" while every checker passes, and 503 otherwise.
type HealthHandler struct {
	logger   *slog.Logger
	checkers map[string]HealthChecker
}

// NewHealthHandler creates a new HealthHandler. checkers may be nil.
func NewHealthHandler(logger *slog.Logger, checkers map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{logger: logger, checkers: checkers}
}

// ServeHTTP implements http.Handler.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain")
	for name, check := range h.checkers {
		if err := check(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed", "check", name, "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(name + " unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
