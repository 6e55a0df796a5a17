package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nomis52/activitytodo/activity"
	"github.com/nomis52/activitytodo/form"
	"github.com/nomis52/activitytodo/storage"
	"github.com/nomis52/activitytodo/tasklist"
)

var errDiskFull = errors.New("disk full")

// failingStore lets reads through and fails every write when fail is set.
type failingStore struct {
	*storage.MemoryStore
	fail bool
}

func (s *failingStore) Set(ctx context.Context, key, value string) error {
	if s.fail {
		return errDiskFull
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func newTestList(t *testing.T) (*tasklist.List, *failingStore) {
	t.Helper()
	store := &failingStore{MemoryStore: storage.NewMemoryStore()}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	list := tasklist.New(store, tasklist.WithClock(func() time.Time { return start }))
	require.NoError(t, list.Load(context.Background()))
	return list, store
}

func runDraft() activity.Draft {
	return activity.Draft{
		Activity:      "Run",
		Price:         5,
		ActivityType:  activity.TypeRecreational,
		Accessibility: 0.5,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serve routes req through a mux with the same patterns the server uses.
func serve(mux *http.ServeMux, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func formWithRecorder(r form.Recorder) form.Option {
	return form.WithRecorder(r)
}
