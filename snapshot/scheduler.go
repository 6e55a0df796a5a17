package snapshot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nomis52/activitytodo/activity"
)

// ErrInvalidSchedule is returned when the cron expression cannot be parsed.
var ErrInvalidSchedule = errors.New("invalid snapshot schedule")

// Source provides the entries to snapshot.
type Source interface {
	Entries() []activity.Entry
}

// Scheduler writes a snapshot every time the cron schedule fires.
type Scheduler struct {
	spec     string
	schedule cron.Schedule
	source   Source
	writer   *Writer
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	lastRun  time.Time
	lastPath string
	lastErr  error
}

// Status reports the most recent run.
type Status struct {
	Schedule string     `json:"schedule"`
	NextRun  time.Time  `json:"next_run"`
	LastRun  *time.Time `json:"last_run,omitempty"`
	LastFile string     `json:"last_file,omitempty"`
	LastErr  string     `json:"last_error,omitempty"`
}

// NewScheduler parses spec, a standard 5 field cron expression.
func NewScheduler(spec string, source Source, writer *Writer, logger *slog.Logger) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, errors.Join(ErrInvalidSchedule, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		spec:     spec,
		schedule: schedule,
		source:   source,
		writer:   writer,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start runs the schedule in a goroutine until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
}

// NextRun returns the next scheduled run after now.
func (s *Scheduler) NextRun() time.Time {
	return s.schedule.Next(s.now())
}

// RunOnce writes a snapshot immediately.
func (s *Scheduler) RunOnce() (string, error) {
	entries := s.source.Entries()
	path, err := s.writer.Write(entries)

	s.mu.Lock()
	s.lastRun = s.now()
	s.lastPath = path
	s.lastErr = err
	s.mu.Unlock()

	return path, err
}

// Status returns the schedule and the outcome of the last run.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Schedule: s.spec,
		NextRun:  s.schedule.Next(s.now()),
		LastFile: s.lastPath,
	}
	if !s.lastRun.IsZero() {
		last := s.lastRun
		st.LastRun = &last
	}
	if s.lastErr != nil {
		st.LastErr = s.lastErr.Error()
	}
	return st
}

func (s *Scheduler) loop(ctx context.Context) {
	for {
		next := s.schedule.Next(s.now())
		wait := time.Until(next)

		s.logger.Debug("waiting for next snapshot", "next_run", next, "wait_duration", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("snapshot scheduler shutting down")
			return
		case <-timer.C:
			if _, err := s.RunOnce(); err != nil {
				s.logger.Warn("scheduled snapshot failed", "error", err)
			}
		}
	}
}
