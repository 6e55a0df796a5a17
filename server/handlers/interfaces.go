// Package handlers provides HTTP handlers for the activity to-do server.
//
// Each handler is in its own file. Handlers use interfaces to reach server
// dependencies, which keeps them testable without a running server.
package handlers

import (
	"context"

	"github.com/nomis52/activitytodo/activity"
	"github.com/nomis52/activitytodo/config"
)

// ConfigProvider provides access to the current configuration.
type ConfigProvider interface {
	Config() *config.Config
}

// Reloader re-reads the task list from storage.
type Reloader interface {
	Reload(ctx context.Context) error
}

// TaskStore is the task list as seen by the handlers.
type TaskStore interface {
	Entries() []activity.Entry
	Add(ctx context.Context, d activity.Draft) (activity.Entry, error)
	Remove(ctx context.Context, id int64) (bool, error)
}
