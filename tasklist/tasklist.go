// Package tasklist manages the ordered list of submitted activities and keeps
// it synchronised with a key-value store.
//
// The whole list is stored as one JSON array under a single key. Load reads it
// once at startup; every mutation writes it back in full. A failed write leaves
// the in-memory list unchanged, so memory and storage never diverge.
package tasklist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nomis52/activitytodo/activity"
)

// DefaultKey is the storage key the list is kept under.
const DefaultKey = "tasks"

// ErrCorruptState is returned by Load when the stored value is not a JSON array of entries.
var ErrCorruptState = errors.New("corrupt task list state")

// Store is the persistence the list reads from and writes to.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// List is an insertion-ordered list of entries. It is safe for concurrent use.
type List struct {
	store  Store
	key    string
	logger *slog.Logger
	now    func() time.Time

	// refreshOnWrite re-reads the store before every mutation.
	refreshOnWrite bool

	mu        sync.Mutex
	entries   []activity.Entry
	lastID    int64
	observers []Observer
}

// Option configures a List.
type Option func(*List)

// WithKey sets the storage key. Default is "tasks".
func WithKey(key string) Option {
	return func(l *List) {
		l.key = key
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *List) {
		l.logger = logger
	}
}

// WithClock sets the time source used for ids.
func WithClock(now func() time.Time) Option {
	return func(l *List) {
		l.now = now
	}
}

// WithRefresh makes Add and Remove re-read the store before changing the list,
// so entries written by another process (such as the CLI) since the last Load
// are kept rather than overwritten.
func WithRefresh() Option {
	return func(l *List) {
		l.refreshOnWrite = true
	}
}

// New creates an empty list backed by store. Call Load to read existing entries.
func New(store Store, opts ...Option) *List {
	l := &List{
		store:   store,
		key:     DefaultKey,
		logger:  slog.Default(),
		now:     time.Now,
		entries: []activity.Entry{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load replaces the in-memory list with the stored one. A missing key loads
// as an empty list. The list stays locked for the whole read so a concurrent
// Add or Remove is applied after the new state, never overwritten by it.
func (l *List) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, err := l.load(ctx)
	if err != nil {
		return err
	}
	l.logger.Info("loaded task list", "key", l.key, "count", n)
	return nil
}

// load must be called with mu held.
func (l *List) load(ctx context.Context) (int, error) {
	raw, ok, err := l.store.Get(ctx, l.key)
	if err != nil {
		return 0, fmt.Errorf("reading %q: %w", l.key, err)
	}

	entries := []activity.Entry{}
	if ok && strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			return 0, fmt.Errorf("%w: decoding %q: %v", ErrCorruptState, l.key, err)
		}
		if entries == nil {
			entries = []activity.Entry{}
		}
	}

	var lastID int64
	for _, e := range entries {
		lastID = max(lastID, e.ID)
	}

	l.entries = entries
	l.lastID = max(l.lastID, lastID)
	return len(entries), nil
}

// refresh re-reads the store before a mutation when WithRefresh is set.
// Must be called with mu held.
func (l *List) refresh(ctx context.Context) error {
	if !l.refreshOnWrite {
		return nil
	}
	if _, err := l.load(ctx); err != nil {
		return fmt.Errorf("refreshing task list: %w", err)
	}
	return nil
}

// Save writes the current list to the store.
func (l *List) Save(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.save(ctx, l.entries)
}

// Add assigns an id to d, appends it to the end of the list and saves.
// Callers validate d first; Add stores whatever it is given.
func (l *List) Add(ctx context.Context, d activity.Draft) (activity.Entry, error) {
	l.mu.Lock()

	if err := l.refresh(ctx); err != nil {
		l.mu.Unlock()
		return activity.Entry{}, err
	}

	entry := activity.Entry{ID: l.nextID(), Draft: d}
	next := append(slices.Clone(l.entries), entry)
	if err := l.save(ctx, next); err != nil {
		l.mu.Unlock()
		return activity.Entry{}, err
	}
	l.entries = next
	l.lastID = entry.ID
	change := Change{Kind: ChangeAdded, Entry: entry, Count: len(next)}
	observers := slices.Clone(l.observers)
	l.mu.Unlock()

	l.logger.Debug("task added", "id", entry.ID, "activity", entry.Activity)
	notify(observers, change)
	return entry, nil
}

// Remove deletes the entry with the given id and saves. It reports whether an
// entry was removed; an unknown id is a no-op and does not touch the store.
func (l *List) Remove(ctx context.Context, id int64) (bool, error) {
	l.mu.Lock()

	if err := l.refresh(ctx); err != nil {
		l.mu.Unlock()
		return false, err
	}

	i := slices.IndexFunc(l.entries, func(e activity.Entry) bool { return e.ID == id })
	if i < 0 {
		l.mu.Unlock()
		return false, nil
	}

	removed := l.entries[i]
	next := slices.Delete(slices.Clone(l.entries), i, i+1)
	if err := l.save(ctx, next); err != nil {
		l.mu.Unlock()
		return false, err
	}
	l.entries = next
	change := Change{Kind: ChangeRemoved, Entry: removed, Count: len(next)}
	observers := slices.Clone(l.observers)
	l.mu.Unlock()

	l.logger.Debug("task removed", "id", id)
	notify(observers, change)
	return true, nil
}

// Entries returns a copy of the list in insertion order. It is never nil.
func (l *List) Entries() []activity.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]activity.Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Get returns the entry with the given id.
func (l *List) Get(id int64) (activity.Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.entries {
		if e.ID == id {
			return e, true
		}
	}
	return activity.Entry{}, false
}

// Len returns the number of entries.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// nextID returns the current time in milliseconds, bumped past the last
// issued id so two submissions in the same millisecond never collide.
// Must be called with mu held.
func (l *List) nextID() int64 {
	id := l.now().UnixMilli()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	return id
}

// save must be called with mu held.
func (l *List) save(ctx context.Context, entries []activity.Entry) error {
	if entries == nil {
		entries = []activity.Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding task list: %w", err)
	}
	if err := l.store.Set(ctx, l.key, string(data)); err != nil {
		return fmt.Errorf("writing %q: %w", l.key, err)
	}
	return nil
}
