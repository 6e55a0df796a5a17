package activity

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() Draft {
	return Draft{
		Activity:      "Run",
		Price:         5,
		ActivityType:  TypeRecreational,
		BookingReq:    false,
		Accessibility: 0.5,
	}
}

func TestValidate_ValidDraft(t *testing.T) {
	errs := Validate(validDraft())
	assert.Empty(t, errs)
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Draft)
		field   string
		message string
	}{
		{
			name:    "empty activity",
			mutate:  func(d *Draft) { d.Activity = "" },
			field:   FieldActivity,
			message: "Activity is required",
		},
		{
			name:    "empty activity type",
			mutate:  func(d *Draft) { d.ActivityType = "" },
			field:   FieldActivityType,
			message: "Activity type is required",
		},
		{
			name:    "unknown activity type",
			mutate:  func(d *Draft) { d.ActivityType = "skydiving" },
			field:   FieldActivityType,
			message: "Activity type must be one of: education, recreational, social, diy, charity, cooking, relaxation, music, busywork",
		},
		{
			name:    "zero price",
			mutate:  func(d *Draft) { d.Price = 0 },
			field:   FieldPrice,
			message: "Enter a valid price greater than 0",
		},
		{
			name:    "negative price",
			mutate:  func(d *Draft) { d.Price = -1.25 },
			field:   FieldPrice,
			message: "Enter a valid price greater than 0",
		},
		{
			name:    "NaN price",
			mutate:  func(d *Draft) { d.Price = math.NaN() },
			field:   FieldPrice,
			message: "Enter a valid price greater than 0",
		},
		{
			name:    "accessibility below range",
			mutate:  func(d *Draft) { d.Accessibility = -0.1 },
			field:   FieldAccessibility,
			message: "Accessibility must be between 0.0 and 1.0",
		},
		{
			name:    "accessibility above range",
			mutate:  func(d *Draft) { d.Accessibility = 1.1 },
			field:   FieldAccessibility,
			message: "Accessibility must be between 0.0 and 1.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)

			errs := Validate(d)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.message, errs[tt.field])
		})
	}
}

func TestValidate_AccessibilityBoundsAccepted(t *testing.T) {
	for _, a := range []float64{0, 0.1, 0.5, 1} {
		d := validDraft()
		d.Accessibility = a
		assert.Empty(t, Validate(d), "accessibility %v", a)
	}
}

func TestValidate_AllTypesAccepted(t *testing.T) {
	for _, typ := range Types() {
		d := validDraft()
		d.ActivityType = typ
		assert.Empty(t, Validate(d), "type %s", typ)
	}
}

func TestValidate_ReportsEveryInvalidField(t *testing.T) {
	d := Draft{
		Activity:      "",
		Price:         0,
		ActivityType:  "",
		Accessibility: 2,
	}

	errs := Validate(d)
	assert.Len(t, errs, 4)
	assert.Contains(t, errs, FieldActivity)
	assert.Contains(t, errs, FieldActivityType)
	assert.Contains(t, errs, FieldPrice)
	assert.Contains(t, errs, FieldAccessibility)
	assert.NotContains(t, errs, FieldBookingReq)
}

func TestValidate_DefaultDraftNeedsActivityAndPrice(t *testing.T) {
	errs := Validate(DefaultDraft())
	assert.Equal(t, FieldErrors{
		FieldActivity: "Activity is required",
		FieldPrice:    "Enter a valid price greater than 0",
	}, errs)
}

func TestFieldErrors_Error(t *testing.T) {
	errs := FieldErrors{
		FieldPrice:    "Enter a valid price greater than 0",
		FieldActivity: "Activity is required",
	}
	assert.Equal(t,
		"invalid activity: activity: Activity is required; price: Enter a valid price greater than 0",
		errs.Error())
}

func TestDefaultDraft(t *testing.T) {
	d := DefaultDraft()
	assert.Equal(t, "", d.Activity)
	assert.Equal(t, 0.0, d.Price)
	assert.Equal(t, TypeEducation, d.ActivityType)
	assert.False(t, d.BookingReq)
	assert.Equal(t, 0.5, d.Accessibility)
}

func TestEntry_JSONIsFlat(t *testing.T) {
	e := Entry{ID: 1700000000000, Draft: validDraft()}

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"id":1700000000000,"activity":"Run","price":5,"activityType":"recreational","bookingReq":false,"accessibility":0.5}`,
		string(data))
}

func TestType_Label(t *testing.T) {
	assert.Equal(t, "Education", TypeEducation.Label())
	assert.Equal(t, "Diy", TypeDIY.Label())
	assert.Equal(t, "", Type("").Label())
}

func TestTypes(t *testing.T) {
	types := Types()
	require.Len(t, types, 9)
	assert.Equal(t, TypeEducation, types[0])
	assert.Equal(t, TypeBusywork, types[8])

	// Callers cannot mutate the package list.
	types[0] = "changed"
	assert.Equal(t, TypeEducation, Types()[0])
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "5.00", FormatPrice(5))
	assert.Equal(t, "12.35", FormatPrice(12.346))
	assert.Equal(t, "0.5", FormatAccessibility(0.5))
	assert.Equal(t, "1.0", FormatAccessibility(1))
}
