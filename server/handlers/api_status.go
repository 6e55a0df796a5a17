package handlers

import (
	"net/http"
	"time"

	"github.com/nomis52/activitytodo/buildinfo"
	"github.com/nomis52/activitytodo/snapshot"
)

// APIStatusResponse is the response for /api/status.
type APIStatusResponse struct {
	Build     buildinfo.Properties `json:"build"`
	Hostname  string               `json:"hostname"`
	StartedAt time.Time            `json:"started_at"`
	Uptime    string               `json:"uptime"`
	Backend   string               `json:"storage_backend"`
	Tasks     int                  `json:"tasks"`
	Snapshot  *snapshot.Status     `json:"snapshot,omitempty"`
}

// APIStatusProvider aggregates what the status endpoint reports.
type APIStatusProvider interface {
	StartedAt() time.Time
	StorageBackend() string
	TaskCount() int
	// SnapshotStatus returns nil when snapshots are disabled.
	SnapshotStatus() *snapshot.Status
}

// APIStatusHandler handles requests for the status endpoint.
type APIStatusHandler struct {
	hostname string
	provider APIStatusProvider
	now      func() time.Time
}

// NewAPIStatusHandler creates a new APIStatusHandler.
func NewAPIStatusHandler(hostname string, provider APIStatusProvider) *APIStatusHandler {
	return &APIStatusHandler{
		hostname: hostname,
		provider: provider,
		now:      time.Now,
	}
}

// ServeHTTP implements http.Handler.
func (h *APIStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	started := h.provider.StartedAt()
	writeJSON(w, http.StatusOK, APIStatusResponse{
		Build:     buildinfo.Get(),
		Hostname:  h.hostname,
		StartedAt: started,
		Uptime:    h.now().Sub(started).Truncate(time.Second).String(),
		Backend:   h.provider.StorageBackend(),
		Tasks:     h.provider.TaskCount(),
		Snapshot:  h.provider.SnapshotStatus(),
	})
}
