package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nomis52/activitytodo/activity"
	"github.com/nomis52/activitytodo/form"
	"github.com/nomis52/activitytodo/server/views"
)

// PageHandler serves the HTML form and task list.
type PageHandler struct {
	logger   *slog.Logger
	tasks    TaskStore
	renderer *views.Renderer
	formOpts []form.Option
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(logger *slog.Logger, tasks TaskStore, renderer *views.Renderer, formOpts ...form.Option) *PageHandler {
	return &PageHandler{
		logger:   logger,
		tasks:    tasks,
		renderer: renderer,
		formOpts: formOpts,
	}
}

// Index handles GET / with an empty form.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.PageData{Draft: activity.DefaultDraft()})
}

// Submit handles POST /tasks. A valid draft is added and the browser is
// redirected to /. An invalid one re-renders the form with the draft and its
// errors.
func (h *PageHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	c := form.New(h.tasks, h.formOpts...)
	if err := c.Apply(r.PostForm); err != nil {
		// Unparsable numbers are left for Submit to report per field.
		h.logger.DebugContext(r.Context(), "form values did not parse", "error", err)
	}

	entry, err := c.Submit(r.Context())
	if err != nil {
		var fieldErrs activity.FieldErrors
		if errors.As(err, &fieldErrs) {
			h.render(w, r, http.StatusUnprocessableEntity, views.PageData{
				Draft:  c.Draft(),
				Errors: c.Errors(),
			})
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to add task", "error", err)
		h.render(w, r, http.StatusInternalServerError, views.PageData{
			Draft:   c.Draft(),
			Message: "The task could not be saved. Please try again.",
		})
		return
	}

	h.logger.InfoContext(r.Context(), "task added", "id", entry.ID, "activity", entry.Activity)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Delete handles POST /tasks/{id}/delete. Removing an id that isn't in the
// list changes nothing and still redirects.
func (h *PageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	removed, err := h.tasks.Remove(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to remove task", "id", id, "error", err)
		h.render(w, r, http.StatusInternalServerError, views.PageData{
			Draft:   activity.DefaultDraft(),
			Message: "The task could not be removed. Please try again.",
		})
		return
	}
	if removed {
		h.logger.InfoContext(r.Context(), "task removed", "id", id)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, data views.PageData) {
	data.Tasks = h.tasks.Entries()

	var buf bytes.Buffer
	if err := h.renderer.Index(&buf, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
