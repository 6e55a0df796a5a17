// Package form implements the activity form controller.
//
// A Controller holds one draft and moves between two states. It sits in
// Editing while fields change. Submit passes through Submitting: the draft is
// validated and, if valid, handed to the task list and reset to defaults.
// Invalid drafts return to Editing with their errors and no side effects.
//
// A Controller is not safe for concurrent use; each request or session owns
// its own.
package form

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/nomis52/activitytodo/activity"
)

var (
	// ErrUnknownField is returned by Change for a field the form doesn't have.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidNumber is returned by Change when a numeric field can't be parsed.
	ErrInvalidNumber = errors.New("invalid number")
)

// State is the controller state.
type State int

const (
	// Editing means the draft is mutable.
	Editing State = iota
	// Submitting is held only while Submit runs.
	Submitting
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// TaskAdder receives valid drafts.
type TaskAdder interface {
	Add(ctx context.Context, d activity.Draft) (activity.Entry, error)
}

// Recorder is notified of submission outcomes.
type Recorder interface {
	Accepted()
	Rejected(errs activity.FieldErrors)
}

// Controller is the form state machine.
type Controller struct {
	tasks    TaskAdder
	recorder Recorder
	state    State
	draft    activity.Draft
	errors   activity.FieldErrors
}

// Option configures a Controller.
type Option func(*Controller)

// WithRecorder reports every Submit outcome to r.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// New returns a controller in Editing with a default draft.
func New(tasks TaskAdder, opts ...Option) *Controller {
	c := &Controller{
		tasks: tasks,
		state: Editing,
		draft: activity.DefaultDraft(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Draft returns the current draft.
func (c *Controller) Draft() activity.Draft {
	return c.draft
}

// Errors returns the field errors from the last rejected Submit, or nil.
func (c *Controller) Errors() activity.FieldErrors {
	if len(c.errors) == 0 {
		return nil
	}
	return maps.Clone(c.errors)
}

// SetDraft replaces the whole draft.
func (c *Controller) SetDraft(d activity.Draft) {
	c.draft = d
}

// Reset restores the default draft and clears errors.
func (c *Controller) Reset() {
	c.draft = activity.DefaultDraft()
	c.errors = nil
}

// Change updates one field from its raw input value. Numbers must parse as
// finite floats (an empty string is 0). Checkboxes are true for "on", "true"
// or "1". On error the draft is left unchanged.
func (c *Controller) Change(name, raw string) error {
	switch name {
	case activity.FieldActivity:
		c.draft.Activity = raw
	case activity.FieldActivityType:
		c.draft.ActivityType = activity.Type(raw)
	case activity.FieldPrice:
		v, err := parseNumber(name, raw)
		if err != nil {
			return err
		}
		c.draft.Price = v
	case activity.FieldAccessibility:
		v, err := parseNumber(name, raw)
		if err != nil {
			return err
		}
		c.draft.Accessibility = v
	case activity.FieldBookingReq:
		c.draft.BookingReq = parseCheckbox(raw)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// Apply sets the draft from a submitted HTML form. Fields missing from values
// keep their current value, except the booking checkbox, which browsers omit
// when it is unchecked. Unlike Change, a number that fails to parse is stored
// as NaN so the next Submit rejects that field.
func (c *Controller) Apply(values url.Values) error {
	var errs []error
	for _, name := range []string{
		activity.FieldActivity,
		activity.FieldActivityType,
		activity.FieldPrice,
		activity.FieldAccessibility,
	} {
		if !values.Has(name) {
			continue
		}
		if err := c.Change(name, values.Get(name)); err != nil {
			errs = append(errs, err)
			c.setNaN(name)
		}
	}
	c.draft.BookingReq = parseCheckbox(values.Get(activity.FieldBookingReq))
	return errors.Join(errs...)
}

// Submit validates the draft. A valid draft is added to the task list and the
// form resets; an invalid one returns activity.FieldErrors and stays as is.
func (c *Controller) Submit(ctx context.Context) (activity.Entry, error) {
	c.state = Submitting
	defer func() { c.state = Editing }()

	if errs := activity.Validate(c.draft); len(errs) > 0 {
		c.errors = errs
		if c.recorder != nil {
			c.recorder.Rejected(errs)
		}
		return activity.Entry{}, errs
	}
	c.errors = nil

	entry, err := c.tasks.Add(ctx, c.draft)
	if err != nil {
		return activity.Entry{}, fmt.Errorf("adding task: %w", err)
	}

	if c.recorder != nil {
		c.recorder.Accepted()
	}
	c.Reset()
	return entry, nil
}

func (c *Controller) setNaN(name string) {
	switch name {
	case activity.FieldPrice:
		c.draft.Price = math.NaN()
	case activity.FieldAccessibility:
		c.draft.Accessibility = math.NaN()
	}
}

func parseNumber(field, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w for %s: %q", ErrInvalidNumber, field, raw)
	}
	return v, nil
}

func parseCheckbox(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "true", "1":
		return true
	default:
		return false
	}
}
