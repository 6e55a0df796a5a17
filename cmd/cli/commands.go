package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/nomis52/activitytodo/activity"
	"github.com/nomis52/activitytodo/form"
	"github.com/nomis52/activitytodo/tasklist"
)

var (
	errInvalidActivity = errors.New("invalid activity")
	errUnknownCommand  = errors.New("unknown command")
)

// app runs one CLI command against the task list.
type app struct {
	list     *tasklist.List
	out      io.Writer
	recorder form.Recorder
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	name, rest := args[0], args[1:]
	switch name {
	case "add":
		return a.add(ctx, rest)
	case "list", "ls":
		return a.listTasks()
	case "remove", "rm":
		return a.remove(ctx, rest)
	case "types":
		return a.types()
	default:
		return fmt.Errorf("%w: %q", errUnknownCommand, name)
	}
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(a.out)
	name := fs.String("activity", "", "Activity description")
	price := fs.String("price", "", "Price, greater than 0")
	typ := fs.String("type", string(activity.TypeEducation), "Activity type (see the types command)")
	booking := fs.Bool("booking", false, "Booking required")
	accessibility := fs.String("accessibility", "0.5", "Accessibility between 0.0 and 1.0")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var opts []form.Option
	if a.recorder != nil {
		opts = append(opts, form.WithRecorder(a.recorder))
	}
	c := form.New(a.list, opts...)

	fields := []struct{ name, value string }{
		{activity.FieldActivity, *name},
		{activity.FieldActivityType, *typ},
		{activity.FieldPrice, *price},
		{activity.FieldAccessibility, *accessibility},
		{activity.FieldBookingReq, strconv.FormatBool(*booking)},
	}
	for _, f := range fields {
		if err := c.Change(f.name, f.value); err != nil {
			return fmt.Errorf("%w: %v", errInvalidActivity, err)
		}
	}

	entry, err := c.Submit(ctx)
	if err != nil {
		var fieldErrs activity.FieldErrors
		if errors.As(err, &fieldErrs) {
			a.printFieldErrors(fieldErrs)
			return errInvalidActivity
		}
		return err
	}

	fmt.Fprintf(a.out, "Added %d: %s\n", entry.ID, entry.Activity)
	return nil
}

func (a *app) printFieldErrors(errs activity.FieldErrors) {
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(a.out, "  %s: %s\n", name, errs[name])
	}
}

func (a *app) listTasks() error {
	entries := a.list.Entries()
	fmt.Fprintf(a.out, "Task count: %d\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(a.out, "\n[%d] %s\n", e.ID, e.Activity)
		fmt.Fprintf(a.out, "  Type: %s\n", e.ActivityType)
		fmt.Fprintf(a.out, "  Price: $%s\n", activity.FormatPrice(e.Price))
		fmt.Fprintf(a.out, "  Booking Required: %s\n", yesNo(e.BookingReq))
		fmt.Fprintf(a.out, "  Accessibility: %s\n", activity.FormatAccessibility(e.Accessibility))
	}
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: remove <id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", args[0])
	}
	removed, err := a.list.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintf(a.out, "No task with id %d\n", id)
		return nil
	}
	fmt.Fprintf(a.out, "Removed %d\n", id)
	return nil
}

func (a *app) types() error {
	for _, t := range activity.Types() {
		fmt.Fprintf(a.out, "%-14s %s\n", t, t.Label())
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
