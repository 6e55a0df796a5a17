package activity

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	msgActivityRequired     = "Activity is required"
	msgActivityTypeRequired = "Activity type is required"
	msgPriceInvalid         = "Enter a valid price greater than 0"
	msgAccessibilityRange   = "Accessibility must be between 0.0 and 1.0"
)

// FieldErrors maps a field name to a human-readable message. It only contains
// invalid fields; an empty FieldErrors means the draft is valid.
type FieldErrors map[string]string

// Error implements error. Fields are listed in name order.
func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + fe[f]
	}
	return "invalid activity: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON name so errors line up with form inputs.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("activitytype", func(fl validator.FieldLevel) bool {
		return Type(fl.Field().String()).Valid()
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks every rule on d and returns the failing fields.
func Validate(d Draft) FieldErrors {
	errs := FieldErrors{}

	err := validate.Struct(d)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// Only reachable when handed a non-struct, which Draft never is.
		errs["draft"] = err.Error()
		return errs
	}

	for _, fe := range verrs {
		errs[fe.Field()] = message(fe)
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Field() {
	case FieldActivity:
		return msgActivityRequired
	case FieldActivityType:
		if fe.Tag() == "required" {
			return msgActivityTypeRequired
		}
		return "Activity type must be one of: " + strings.Join(typeNames(), ", ")
	case FieldPrice:
		return msgPriceInvalid
	case FieldAccessibility:
		return msgAccessibilityRange
	default:
		return fe.Error()
	}
}
