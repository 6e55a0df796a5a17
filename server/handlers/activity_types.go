package handlers

import (
	"net/http"

	"github.com/nomis52/activitytodo/activity"
)

// ActivityTypeOption is one entry of the activity type dropdown.
type ActivityTypeOption struct {
	Value activity.Type `json:"value"`
	Label string        `json:"label"`
}

// HandleActivityTypes lists the allowed activity types in display order.
func HandleActivityTypes(w http.ResponseWriter, r *http.Request) {
	types := activity.Types()
	opts := make([]ActivityTypeOption, 0, len(types))
	for _, t := range types {
		opts = append(opts, ActivityTypeOption{Value: t, Label: t.Label()})
	}
	writeJSON(w, http.StatusOK, opts)
}
