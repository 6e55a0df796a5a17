package activity

import "fmt"

// Field names as they appear in forms and JSON.
const (
	FieldActivity      = "activity"
	FieldActivityType  = "activityType"
	FieldPrice         = "price"
	FieldBookingReq    = "bookingReq"
	FieldAccessibility = "accessibility"
)

const (
	defaultType          = TypeEducation
	defaultAccessibility = 0.5
)

// Draft is an activity that has not been submitted yet.
type Draft struct {
	Activity      string  `json:"activity" validate:"required"`
	Price         float64 `json:"price" validate:"gt=0"`
	ActivityType  Type    `json:"activityType" validate:"required,activitytype"`
	BookingReq    bool    `json:"bookingReq"`
	Accessibility float64 `json:"accessibility" validate:"gte=0,lte=1"`
}

// Entry is a submitted activity. The embedded Draft fields are flattened when
// encoded, so the JSON form is {"id":..., "activity":..., ...}.
type Entry struct {
	ID int64 `json:"id"`
	Draft
}

// DefaultDraft returns the blank form state.
func DefaultDraft() Draft {
	return Draft{
		ActivityType:  defaultType,
		Accessibility: defaultAccessibility,
	}
}

// FormatPrice renders a price with two decimals.
func FormatPrice(p float64) string {
	return fmt.Sprintf("%.2f", p)
}

// FormatAccessibility renders an accessibility score with one decimal.
func FormatAccessibility(a float64) string {
	return fmt.Sprintf("%.1f", a)
}
