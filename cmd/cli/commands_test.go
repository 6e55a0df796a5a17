package main

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomis52/activitytodo/activity"
	"github.com/nomis52/activitytodo/storage"
	"github.com/nomis52/activitytodo/tasklist"
)

type countingRecorder struct {
	accepted, rejected int
}

func (c *countingRecorder) Accepted() {
	c.accepted++
}

func (c *countingRecorder) Rejected(_ activity.FieldErrors) {
	c.rejected++
}

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	list := tasklist.New(storage.NewMemoryStore())
	require.NoError(t, list.Load(context.Background()))
	var out bytes.Buffer
	return &app{list: list, out: &out}, &out
}

func TestApp_AddAndList(t *testing.T) {
	a, out := newTestApp(t)
	rec := &countingRecorder{}
	a.recorder = rec

	err := a.dispatch(context.Background(), []string{
		"add", "-activity", "Run", "-price", "5", "-type", "recreational", "-accessibility", "0.5",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Added ")
	assert.Equal(t, 1, rec.accepted)

	require.Len(t, a.list.Entries(), 1)
	assert.Equal(t, activity.Draft{
		Activity:      "Run",
		Price:         5,
		ActivityType:  activity.TypeRecreational,
		Accessibility: 0.5,
	}, a.list.Entries()[0].Draft)

	out.Reset()
	require.NoError(t, a.dispatch(context.Background(), []string{"list"}))
	assert.Contains(t, out.String(), "Task count: 1")
	assert.Contains(t, out.String(), "Price: $5.00")
	assert.Contains(t, out.String(), "Booking Required: No")
	assert.Contains(t, out.String(), "Accessibility: 0.5")
}

func TestApp_AddBooking(t *testing.T) {
	a, _ := newTestApp(t)

	err := a.dispatch(context.Background(), []string{
		"add", "-activity", "Concert", "-price", "40", "-type", "music", "-booking",
	})
	require.NoError(t, err)
	require.Len(t, a.list.Entries(), 1)
	assert.True(t, a.list.Entries()[0].BookingReq)
	assert.Equal(t, 0.5, a.list.Entries()[0].Accessibility, "form default")
}

func TestApp_AddInvalid(t *testing.T) {
	a, out := newTestApp(t)
	rec := &countingRecorder{}
	a.recorder = rec

	err := a.dispatch(context.Background(), []string{"add", "-type", "sleeping", "-accessibility", "3"})
	assert.ErrorIs(t, err, errInvalidActivity)
	assert.Empty(t, a.list.Entries())
	assert.Equal(t, 1, rec.rejected)

	lines := out.String()
	assert.Contains(t, lines, "activity: Activity is required")
	assert.Contains(t, lines, "price: Enter a valid price greater than 0")
	assert.Contains(t, lines, "accessibility: Accessibility must be between 0.0 and 1.0")
	assert.Contains(t, lines, "activityType: Activity type must be one of")
	assert.Less(t, strings.Index(lines, "accessibility:"), strings.Index(lines, "price:"), "sorted by field")
}

func TestApp_AddBadNumber(t *testing.T) {
	a, _ := newTestApp(t)

	err := a.dispatch(context.Background(), []string{"add", "-activity", "Run", "-price", "lots"})
	assert.ErrorIs(t, err, errInvalidActivity)
	assert.Empty(t, a.list.Entries())
}

func TestApp_Remove(t *testing.T) {
	a, out := newTestApp(t)
	require.NoError(t, a.dispatch(context.Background(), []string{
		"add", "-activity", "Run", "-price", "5", "-type", "recreational",
	}))
	id := a.list.Entries()[0].ID

	out.Reset()
	require.NoError(t, a.dispatch(context.Background(), []string{"remove", "42"}))
	assert.Contains(t, out.String(), "No task with id 42")
	assert.Len(t, a.list.Entries(), 1)

	require.NoError(t, a.dispatch(context.Background(), []string{"rm", strconv.FormatInt(id, 10)}))
	assert.Empty(t, a.list.Entries())

	assert.Error(t, a.dispatch(context.Background(), []string{"remove"}))
	assert.Error(t, a.dispatch(context.Background(), []string{"remove", "abc"}))
}

func TestApp_Types(t *testing.T) {
	a, out := newTestApp(t)

	require.NoError(t, a.dispatch(context.Background(), []string{"types"}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 9)
	assert.True(t, strings.HasPrefix(lines[0], "education"))
	assert.True(t, strings.HasSuffix(lines[8], "Busywork"))
}

func TestApp_UnknownCommand(t *testing.T) {
	a, _ := newTestApp(t)
	assert.ErrorIs(t, a.dispatch(context.Background(), []string{"frobnicate"}), errUnknownCommand)
}
