package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nomis52/activitytodo/activity"
	"github.com/nomis52/activitytodo/tasklist"
)

// TodoMetrics tracks form submissions and the size of the task list.
// It satisfies form.Recorder and Observe can be subscribed to a tasklist.List.
type TodoMetrics struct {
	submissions        CounterVec
	validationFailures CounterVec
	removals           Counter
	tasks              Gauge
}

// NewTodoMetrics registers the activity metrics with reg.
func NewTodoMetrics(reg Registry) (*TodoMetrics, error) {
	submissions, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "submissions_total",
		Help: "Form submissions by result (accepted or rejected).",
	}, []string{"result"})
	if err != nil {
		return nil, fmt.Errorf("creating submissions counter: %w", err)
	}

	failures, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "validation_failures_total",
		Help: "Field validation failures by field.",
	}, []string{"field"})
	if err != nil {
		return nil, fmt.Errorf("creating validation failures counter: %w", err)
	}

	removals, err := reg.NewCounter(prometheus.CounterOpts{
		Name: "removals_total",
		Help: "Tasks removed from the list.",
	})
	if err != nil {
		return nil, fmt.Errorf("creating removals counter: %w", err)
	}

	tasks, err := reg.NewGauge(prometheus.GaugeOpts{
		Name: "tasks",
		Help: "Number of tasks in the list.",
	})
	if err != nil {
		return nil, fmt.Errorf("creating tasks gauge: %w", err)
	}

	return &TodoMetrics{
		submissions:        submissions,
		validationFailures: failures,
		removals:           removals,
		tasks:              tasks,
	}, nil
}

// Accepted records a valid submission.
func (m *TodoMetrics) Accepted() {
	m.submissions.With(prometheus.Labels{"result": "accepted"}).Inc()
}

// Rejected records an invalid submission and each failing field.
func (m *TodoMetrics) Rejected(errs activity.FieldErrors) {
	m.submissions.With(prometheus.Labels{"result": "rejected"}).Inc()
	for field := range errs {
		m.validationFailures.With(prometheus.Labels{"field": field}).Inc()
	}
}

// SetTasks sets the task gauge, used once after the list is loaded.
func (m *TodoMetrics) SetTasks(n int) {
	m.tasks.Set(float64(n))
}

// Observe updates the metrics from a list change.
func (m *TodoMetrics) Observe(c tasklist.Change) {
	if c.Kind == tasklist.ChangeRemoved {
		m.removals.Inc()
	}
	m.tasks.Set(float64(c.Count))
}
