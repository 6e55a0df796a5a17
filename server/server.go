// Package server provides the HTTP server for the activity to-do list.
//
// # Endpoints
//
//   - GET / - the activity form and saved tasks
//   - POST /tasks - submit the form; redirects on success, re-renders on errors
//   - POST /tasks/{id}/delete - remove a task from the page
//   - GET /api/tasks - list tasks as JSON
//   - POST /api/tasks - add a task from a JSON draft
//   - DELETE /api/tasks/{id} - remove a task
//   - GET /api/activity-types - the allowed activity types
//   - GET /api/status - build, uptime, task count and snapshot schedule
//   - POST /reload - re-read the task list from storage
//   - GET /config - current configuration as YAML, secrets redacted
//   - GET /health - returns "ok" while storage is reachable
//   - GET /metrics - Prometheus metrics
//
// # Example
//
//	srv, err := server.New(ctx, cfg, server.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/nomis52/activitytodo/config"
	"github.com/nomis52/activitytodo/form"
	"github.com/nomis52/activitytodo/metrics"
	"github.com/nomis52/activitytodo/server/handlers"
	"github.com/nomis52/activitytodo/server/middleware"
	"github.com/nomis52/activitytodo/server/views"
	"github.com/nomis52/activitytodo/snapshot"
	"github.com/nomis52/activitytodo/storage"
	"github.com/nomis52/activitytodo/tasklist"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// Server is the HTTP server for the activity to-do list.
type Server struct {
	cfg       *config.Config
	addr      string
	logger    *slog.Logger
	startedAt time.Time

	store      storage.Store
	ownsStore  bool
	list       *tasklist.List
	registry   *metrics.ScrapeRegistry
	todo       *metrics.TodoMetrics
	renderer   *views.Renderer
	snapshots  *snapshot.Scheduler
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets the logger. The default writes JSON to stderr.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// WithListenAddr overrides listener.addr from the config.
func WithListenAddr(addr string) Option {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}

// WithStore uses store instead of opening the configured backend. The caller
// keeps ownership and Close leaves it open.
func WithStore(store storage.Store) Option {
	return func(s *Server) error {
		s.store = store
		return nil
	}
}

// New builds the server: it opens storage, loads the task list, registers
// metrics and, when a schedule is configured, prepares snapshots.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:       cfg,
		addr:      cfg.Listener.Addr,
		logger:    slog.New(slog.NewJSONHandler(os.Stderr, nil)),
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.store == nil {
		store, err := storage.Open(ctx, cfg.Storage, s.logger)
		if err != nil {
			return nil, fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
		}
		s.store = store
		s.ownsStore = true
	}

	if err := s.init(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) init(ctx context.Context) error {
	listOpts := []tasklist.Option{
		tasklist.WithKey(s.cfg.Storage.Key),
		tasklist.WithLogger(s.logger),
	}
	if s.sharedStore() {
		listOpts = append(listOpts, tasklist.WithRefresh())
	}
	s.list = tasklist.New(s.store, listOpts...)
	if err := s.list.Load(ctx); err != nil {
		return fmt.Errorf("loading task list: %w", err)
	}

	registry, err := metrics.NewScrapeRegistry(s.cfg.Monitoring.MetricsPrefix)
	if err != nil {
		return fmt.Errorf("creating metrics registry: %w", err)
	}
	todo, err := metrics.NewTodoMetrics(registry)
	if err != nil {
		return fmt.Errorf("creating metrics: %w", err)
	}
	todo.SetTasks(s.list.Len())
	s.list.Subscribe(todo.Observe)
	s.registry = registry
	s.todo = todo

	renderer, err := views.New()
	if err != nil {
		return err
	}
	s.renderer = renderer

	if spec := s.cfg.Snapshot.Schedule; spec != "" {
		writer := snapshot.NewWriter(s.cfg.Snapshot.Dir, s.cfg.Snapshot.Keep, s.logger)
		sched, err := snapshot.NewScheduler(spec, s.list, writer, s.logger)
		if err != nil {
			return fmt.Errorf("creating snapshot scheduler: %w", err)
		}
		s.snapshots = sched
	}
	return nil
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Config returns the configuration the server was built with.
func (s *Server) Config() *config.Config {
	return s.cfg
}

// Tasks returns the task list.
func (s *Server) Tasks() *tasklist.List {
	return s.list
}

// Reload re-reads the task list from storage. A corrupt stored value leaves
// the current list in place.
func (s *Server) Reload(ctx context.Context) error {
	if err := s.list.Load(ctx); err != nil {
		return err
	}
	s.todo.SetTasks(s.list.Len())
	return nil
}

// StartedAt returns when the server was created.
func (s *Server) StartedAt() time.Time {
	return s.startedAt
}

// StorageBackend returns the configured backend name.
func (s *Server) StorageBackend() string {
	return s.cfg.Storage.Backend
}

// TaskCount returns the number of saved tasks.
func (s *Server) TaskCount() int {
	return s.list.Len()
}

// SnapshotStatus returns nil when no snapshot schedule is configured.
func (s *Server) SnapshotStatus() *snapshot.Status {
	if s.snapshots == nil {
		return nil
	}
	st := s.snapshots.Status()
	return &st
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logging(s.logger),
		middleware.Recover(s.logger),
	)
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// down gracefully. TLS is used when the config names a certificate and key.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	useTLS := s.cfg.Listener.TLSCert != ""
	if useTLS {
		loader, err := NewCertLoader(s.cfg.Listener.TLSCert, s.cfg.Listener.TLSKey, s.logger)
		if err != nil {
			return err
		}
		s.httpServer.TLSConfig = loader.TLSConfig()
	}

	if s.snapshots != nil {
		s.logger.Info("starting snapshot scheduler", "next_run", s.snapshots.NextRun())
		s.snapshots.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"addr", s.addr,
			"tls", useTLS,
			"storage", s.cfg.Storage.Backend,
			"tasks", s.list.Len(),
		)
		var err error
		if useTLS {
			// Certificates come from TLSConfig.GetCertificate.
			err = s.httpServer.ListenAndServeTLS("", "")
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// Close releases the store if the server opened it.
func (s *Server) Close() error {
	if s.ownsStore && s.store != nil {
		return s.store.Close()
	}
	return nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	formOpts := []form.Option{form.WithRecorder(s.todo)}

	page := handlers.NewPageHandler(s.logger, s.list, s.renderer, formOpts...)
	tasks := handlers.NewTasksHandler(s.logger, s.list, formOpts...)
	health := handlers.NewHealthHandler(s.logger, map[string]handlers.HealthChecker{
		"storage": s.checkStorage,
	})

	// HTML
	mux.HandleFunc("GET /{$}", page.Index)
	mux.HandleFunc("POST /tasks", page.Submit)
	mux.HandleFunc("POST /tasks/{id}/delete", page.Delete)

	// JSON API
	mux.HandleFunc("GET /api/tasks", tasks.List)
	mux.HandleFunc("POST /api/tasks", tasks.Create)
	mux.HandleFunc("DELETE /api/tasks/{id}", tasks.Delete)
	mux.HandleFunc("GET /api/activity-types", handlers.HandleActivityTypes)
	mux.Handle("GET /api/status", handlers.NewAPIStatusHandler(hostname(), s))

	// Operations
	mux.Handle("POST /reload", handlers.NewReloadHandler(s.logger, s))
	mux.Handle("GET /config", handlers.NewConfigHandler(s.logger, s))
	mux.Handle("GET /health", health)
	mux.Handle("GET /metrics", s.registry.Handler())
}

// sharedStore reports whether another process may write to the store. Only a
// memory store the server opened itself is private.
func (s *Server) sharedStore() bool {
	return !s.ownsStore || s.cfg.Storage.Backend != config.BackendMemory
}

// checkStorage reads the task key to confirm the backend answers.
func (s *Server) checkStorage(ctx context.Context) error {
	_, _, err := s.store.Get(ctx, s.cfg.Storage.Key)
	return err
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
