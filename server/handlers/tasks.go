package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nomis52/activitytodo/activity"
	"github.com/nomis52/activitytodo/form"
)

// TaskListResponse is the response for GET /api/tasks.
type TaskListResponse struct {
	Count int              `json:"count"`
	Tasks []activity.Entry `json:"tasks"`
}

// TasksHandler serves the JSON task API.
type TasksHandler struct {
	logger   *slog.Logger
	tasks    TaskStore
	formOpts []form.Option
}

// NewTasksHandler creates a new TasksHandler. formOpts are applied to the
// form controller built for every create request.
func NewTasksHandler(logger *slog.Logger, tasks TaskStore, formOpts ...form.Option) *TasksHandler {
	return &TasksHandler{
		logger:   logger,
		tasks:    tasks,
		formOpts: formOpts,
	}
}

// List handles GET /api/tasks.
func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := h.tasks.Entries()
	writeJSON(w, http.StatusOK, TaskListResponse{Count: len(entries), Tasks: entries})
}

// Create handles POST /api/tasks. The body is a draft; fields left out take
// their zero value, not the form defaults.
func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft activity.Draft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}

	c := form.New(h.tasks, h.formOpts...)
	c.SetDraft(draft)

	entry, err := c.Submit(r.Context())
	if err != nil {
		var fieldErrs activity.FieldErrors
		if errors.As(err, &fieldErrs) {
			writeJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
				Error:  "validation failed",
				Fields: fieldErrs,
			})
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to add task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add task")
		return
	}

	h.logger.InfoContext(r.Context(), "task added", "id", entry.ID, "activity", entry.Activity)
	writeJSON(w, http.StatusCreated, entry)
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TasksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}

	removed, err := h.tasks.Remove(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to remove task", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove task")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "task %d not found", id)
		return
	}

	h.logger.InfoContext(r.Context(), "task removed", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
