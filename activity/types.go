package activity

import (
	"slices"
	"strings"
)

// Type is the category of an activity.
type Type string

const (
	TypeEducation    Type = "education"
	TypeRecreational Type = "recreational"
	TypeSocial       Type = "social"
	TypeDIY          Type = "diy"
	TypeCharity      Type = "charity"
	TypeCooking      Type = "cooking"
	TypeRelaxation   Type = "relaxation"
	TypeMusic        Type = "music"
	TypeBusywork     Type = "busywork"
)

// allTypes is in display order.
var allTypes = []Type{
	TypeEducation,
	TypeRecreational,
	TypeSocial,
	TypeDIY,
	TypeCharity,
	TypeCooking,
	TypeRelaxation,
	TypeMusic,
	TypeBusywork,
}

// Types returns the nine activity types in display order.
func Types() []Type {
	return slices.Clone(allTypes)
}

// Valid reports whether t is one of the known activity types.
func (t Type) Valid() bool {
	return slices.Contains(allTypes, t)
}

// Label returns the display label, which is the value with its first letter upper-cased.
func (t Type) Label() string {
	if t == "" {
		return ""
	}
	s := string(t)
	return strings.ToUpper(s[:1]) + s[1:]
}

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

func typeNames() []string {
	names := make([]string, len(allTypes))
	for i, t := range allTypes {
		names[i] = string(t)
	}
	return names
}
