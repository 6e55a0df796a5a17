package tasklist

import "github.com/nomis52/activitytodo/activity"

// ChangeKind says what happened to the list.
type ChangeKind int

const (
	// ChangeAdded is sent after an entry is appended.
	ChangeAdded ChangeKind = iota
	// ChangeRemoved is sent after an entry is removed.
	ChangeRemoved
)

// String returns the string representation of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Change describes a committed mutation.
type Change struct {
	Kind  ChangeKind
	Entry activity.Entry
	// Count is the list length after the change.
	Count int
}

// Observer is called after every committed change. Observers run on the
// goroutine that made the change, after the list lock is released.
type Observer func(Change)

// Subscribe registers o for future changes.
func (l *List) Subscribe(o Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, o)
}

func notify(observers []Observer, c Change) {
	for _, o := range observers {
		o(c)
	}
}
