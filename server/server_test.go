package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomis52/activitytodo/config"
	"github.com/nomis52/activitytodo/server/handlers"
	"github.com/nomis52/activitytodo/server/middleware"
	"github.com/nomis52/activitytodo/storage"
	"github.com/nomis52/activitytodo/tasklist"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Storage: config.StorageConfig{Backend: config.BackendMemory},
	}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	opts = append([]Option{WithLogger(testLogger())}, opts...)
	srv, err := New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

// noRedirect keeps 303 responses visible to the test.
func noRedirect(ts *httptest.Server) *http.Client {
	c := ts.Client()
	c.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	return c
}

func TestServer_FormRoundTrip(t *testing.T) {
	srv, ts := newTestServer(t, testConfig(t))
	client := noRedirect(ts)

	resp, err := client.PostForm(ts.URL+"/tasks", url.Values{
		"activity":      {"Run"},
		"price":         {"5"},
		"activityType":  {"recreational"},
		"accessibility": {"0.5"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))
	assert.Equal(t, 1, srv.TaskCount())

	resp, err = client.Get(ts.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "Task count: 1")

	id := srv.Tasks().Entries()[0].ID
	resp, err = client.PostForm(ts.URL+"/tasks/"+itoa(id)+"/delete", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 0, srv.TaskCount())
}

func TestServer_APIAndMetrics(t *testing.T) {
	_, ts := newTestServer(t, testConfig(t))
	client := ts.Client()

	resp, err := client.Post(ts.URL+"/api/tasks", "application/json",
		strings.NewReader(`{"activity":"","price":5,"activityType":"social","accessibility":0.5}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, err = client.Post(ts.URL+"/api/tasks", "application/json",
		strings.NewReader(`{"activity":"Chat","price":1,"activityType":"social","accessibility":1}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = client.Get(ts.URL + "/api/tasks")
	require.NoError(t, err)
	var list handlers.TaskListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	assert.Equal(t, 1, list.Count)

	resp, err = client.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `activitytodo_submissions_total{result="accepted"} 1`)
	assert.Contains(t, string(body), `activitytodo_submissions_total{result="rejected"} 1`)
	assert.Contains(t, string(body), `activitytodo_validation_failures_total{field="activity"} 1`)
	assert.Contains(t, string(body), "activitytodo_tasks 1")
}

func TestServer_OperationalEndpoints(t *testing.T) {
	_, ts := newTestServer(t, testConfig(t))
	client := ts.Client()

	tests := []struct {
		path        string
		contentType string
	}{
		{path: "/health", contentType: "text/plain"},
		{path: "/config", contentType: "text/yaml"},
		{path: "/api/status", contentType: "application/json"},
		{path: "/api/activity-types", contentType: "application/json"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := client.Get(ts.URL + tt.path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
		})
	}

	resp, err := client.Post(ts.URL+"/reload", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestServer_LoadsExistingTasks(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), tasklist.DefaultKey,
		`[{"id":1,"activity":"Read","price":2,"activityType":"education","bookingReq":false,"accessibility":1}]`))

	srv, _ := newTestServer(t, testConfig(t), WithStore(store))
	assert.Equal(t, 1, srv.TaskCount())
}

func TestServer_KeepsTasksWrittenByOtherProcesses(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	srv, ts := newTestServer(t, testConfig(t), WithStore(store))

	other := tasklist.New(store)
	require.NoError(t, other.Load(ctx))
	_, err := other.Add(ctx, runDraft())
	require.NoError(t, err)

	resp, err := ts.Client().Post(ts.URL+"/api/tasks", "application/json",
		strings.NewReader(`{"activity":"Chat","price":1,"activityType":"social","accessibility":1}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, 2, srv.TaskCount())
	check := tasklist.New(store)
	require.NoError(t, check.Load(ctx))
	assert.Equal(t, 2, check.Len())
}

func TestNew_CorruptState(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), tasklist.DefaultKey, `not json`))

	_, err := New(context.Background(), testConfig(t), WithLogger(testLogger()), WithStore(store))
	require.Error(t, err)
	assert.ErrorIs(t, err, tasklist.ErrCorruptState)
}

func TestNew_FileBackendAndSnapshots(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Storage:  config.StorageConfig{Backend: config.BackendFile, Dir: dir},
		Snapshot: config.SnapshotConfig{Schedule: "0 * * * *", Keep: 2},
	}
	cfg.SetDefaults()

	srv, err := New(context.Background(), cfg, WithLogger(testLogger()))
	require.NoError(t, err)
	defer srv.Close()

	st := srv.SnapshotStatus()
	require.NotNil(t, st)
	assert.Equal(t, "0 * * * *", st.Schedule)

	_, err = srv.Tasks().Add(context.Background(), runDraft())
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "tasks.json"))
	assert.NoError(t, err)
}

func TestNew_InvalidSnapshotSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Snapshot.Schedule = "whenever"

	_, err := New(context.Background(), cfg, WithLogger(testLogger()))
	assert.Error(t, err)
}

func TestServer_RunShutsDown(t *testing.T) {
	cfg := testConfig(t)
	srv, err := New(context.Background(), cfg, WithLogger(testLogger()), WithListenAddr("127.0.0.1:0"))
	require.NoError(t, err)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}
