package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomis52/activitytodo/activity"
	"github.com/nomis52/activitytodo/server/views"
)

type countingRecorder struct {
	accepted, rejected int
}

func (c *countingRecorder) Accepted() {
	c.accepted++
}

func (c *countingRecorder) Rejected(_ activity.FieldErrors) {
	c.rejected++
}

func newPageMux(t *testing.T, h *PageHandler) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("POST /tasks", h.Submit)
	mux.HandleFunc("POST /tasks/{id}/delete", h.Delete)
	return mux
}

func newPageHandler(t *testing.T, tasks TaskStore, rec *countingRecorder) *PageHandler {
	t.Helper()
	renderer, err := views.New()
	require.NoError(t, err)
	if rec == nil {
		return NewPageHandler(testLogger(), tasks, renderer)
	}
	return NewPageHandler(testLogger(), tasks, renderer, formWithRecorder(rec))
}

func postForm(target string, values url.Values) *http.Request {
	req, _ := http.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestPageHandler_Index(t *testing.T) {
	list, _ := newTestList(t)
	_, err := list.Add(context.Background(), runDraft())
	require.NoError(t, err)
	mux := newPageMux(t, newPageHandler(t, list, nil))

	rec := serve(mux, newRequest(http.MethodGet, "/", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	page := rec.Body.String()
	assert.Contains(t, page, "Task count: 1")
	assert.Contains(t, page, "<strong>Activity:</strong> Run")
	assert.Contains(t, page, "$5.00")
	assert.Contains(t, page, "Selected: 0.5")

	rec = serve(mux, newRequest(http.MethodGet, "/missing", ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPageHandler_SubmitValid(t *testing.T) {
	list, _ := newTestList(t)
	counter := &countingRecorder{}
	mux := newPageMux(t, newPageHandler(t, list, counter))

	rec := serve(mux, postForm("/tasks", url.Values{
		"activity":      {"Run"},
		"price":         {"5"},
		"activityType":  {"recreational"},
		"accessibility": {"0.5"},
	}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	require.Len(t, list.Entries(), 1)
	assert.Equal(t, runDraft(), list.Entries()[0].Draft)
	assert.Equal(t, 1, counter.accepted)
}

func TestPageHandler_SubmitCheckbox(t *testing.T) {
	list, _ := newTestList(t)
	mux := newPageMux(t, newPageHandler(t, list, nil))

	rec := serve(mux, postForm("/tasks", url.Values{
		"activity":      {"Concert"},
		"price":         {"40"},
		"activityType":  {"music"},
		"accessibility": {"0.2"},
		"bookingReq":    {"on"},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, list.Entries(), 1)
	assert.True(t, list.Entries()[0].BookingReq)
}

func TestPageHandler_SubmitInvalid(t *testing.T) {
	list, _ := newTestList(t)
	counter := &countingRecorder{}
	mux := newPageMux(t, newPageHandler(t, list, counter))

	rec := serve(mux, postForm("/tasks", url.Values{
		"activity":      {""},
		"price":         {"abc"},
		"activityType":  {"social"},
		"accessibility": {"0.7"},
	}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "Activity is required")
	assert.Contains(t, page, "Enter a valid price greater than 0")
	assert.Contains(t, page, `<option value="social" selected>`, "draft kept for correction")
	assert.Contains(t, page, "Selected: 0.7")
	assert.Empty(t, list.Entries())
	assert.Equal(t, 1, counter.rejected)
}

func TestPageHandler_SubmitStorageError(t *testing.T) {
	list, store := newTestList(t)
	store.fail = true
	mux := newPageMux(t, newPageHandler(t, list, nil))

	rec := serve(mux, postForm("/tasks", url.Values{
		"activity":      {"Run"},
		"price":         {"5"},
		"activityType":  {"recreational"},
		"accessibility": {"0.5"},
	}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "could not be saved")
	assert.Contains(t, rec.Body.String(), `value="Run"`)
	assert.Empty(t, list.Entries())
}

func TestPageHandler_Delete(t *testing.T) {
	list, _ := newTestList(t)
	entry, err := list.Add(context.Background(), runDraft())
	require.NoError(t, err)
	mux := newPageMux(t, newPageHandler(t, list, nil))

	rec := serve(mux, postForm("/tasks/999/delete", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Len(t, list.Entries(), 1, "unknown id changes nothing")

	rec = serve(mux, postForm("/tasks/"+itoa(entry.ID)+"/delete", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, list.Entries())

	rec = serve(mux, postForm("/tasks/x/delete", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
