package handlers

import (
	"log/slog"
	"net/http"
)

// ReloadHandler reloads the task list from storage, picking up changes made
// by other processes such as the CLI.
type ReloadHandler struct {
	logger   *slog.Logger
	reloader Reloader
}

// NewReloadHandler creates a new ReloadHandler.
func NewReloadHandler(logger *slog.Logger, reloader Reloader) *ReloadHandler {
	return &ReloadHandler{
		logger:   logger,
		reloader: reloader,
	}
}

// ServeHTTP implements http.Handler.
func (h *ReloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "reloading task list")

	if err := h.reloader.Reload(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to reload task list", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reload task list: %v", err)
		return
	}

	h.logger.InfoContext(r.Context(), "task list reloaded")
	w.WriteHeader(http.StatusNoContent)
}
