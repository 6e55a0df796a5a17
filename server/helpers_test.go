package server

import (
	"strconv"

	"github.com/nomis52/activitytodo/activity"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func runDraft() activity.Draft {
	return activity.Draft{
		Activity:      "Run",
		Price:         5,
		ActivityType:  activity.TypeRecreational,
		Accessibility: 0.5,
	}
}
