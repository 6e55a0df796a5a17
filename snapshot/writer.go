// Package snapshot writes point-in-time copies of the task list to disk.
//
// A Writer stores each snapshot as a timestamped JSON file and keeps only the
// newest N. A Scheduler calls the Writer on a cron schedule.
package snapshot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/nomis52/activitytodo/activity"
)

const (
	filePrefix = "tasks-"
	fileSuffix = ".json"
	// timeLayout sorts lexically in time order and has no path separators
	// or colons.
	timeLayout = "2006-01-02T15-04-05.000"
)

// Writer writes snapshot files to a directory.
type Writer struct {
	dir    string
	keep   int
	logger *slog.Logger
	now    func() time.Time
}

// NewWriter returns a Writer that keeps at most keep files in dir. keep < 1
// disables pruning.
func NewWriter(dir string, keep int, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		dir:    dir,
		keep:   keep,
		logger: logger,
		now:    time.Now,
	}
}

// Write stores entries in a new snapshot file and prunes old ones. It returns
// the path of the new file.
func (w *Writer) Write(entries []activity.Entry) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating snapshot dir: %w", err)
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}

	name := filePrefix + w.now().UTC().Format(timeLayout) + fileSuffix
	path := filepath.Join(w.dir, name)

	tmp, err := os.CreateTemp(w.dir, ".snapshot-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("renaming snapshot: %w", err)
	}

	w.logger.Info("snapshot written", "path", path, "tasks", len(entries))

	if err := w.prune(); err != nil {
		// The snapshot itself succeeded.
		w.logger.Warn("failed to prune snapshots", "error", err)
	}
	return path, nil
}

// List returns snapshot file names, oldest first.
func (w *Writer) List() ([]string, error) {
	dirEntries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading snapshot dir: %w", err)
	}

	var names []string
	for _, e := range dirEntries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Read loads the entries stored in the named snapshot.
func (w *Writer) Read(name string) ([]activity.Entry, error) {
	if filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid snapshot name %q", name)
	}
	data, err := os.ReadFile(filepath.Join(w.dir, name))
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var entries []activity.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", name, err)
	}
	return entries, nil
}

func (w *Writer) prune() error {
	if w.keep < 1 {
		return nil
	}
	names, err := w.List()
	if err != nil {
		return err
	}
	if len(names) <= w.keep {
		return nil
	}
	var errs []string
	for _, name := range names[:len(names)-w.keep] {
		if err := os.Remove(filepath.Join(w.dir, name)); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		w.logger.Debug("snapshot pruned", "name", name)
	}
	if len(errs) > 0 {
		return fmt.Errorf("removing old snapshots: %s", strings.Join(errs, "; "))
	}
	return nil
}
