// Package activity defines the activity to-do data model and its validation rules.
//
// A Draft is the in-progress form state. It becomes an Entry once it passes
// Validate and is given an ID by the task list.
//
//	d := activity.DefaultDraft()
//	d.Activity = "Run"
//	d.Price = 5
//	if errs := activity.Validate(d); len(errs) > 0 {
//	    for field, msg := range errs {
//	        fmt.Println(field, msg)
//	    }
//	}
//
// Validation never short-circuits: every invalid field is reported in the
// returned FieldErrors.
package activity
