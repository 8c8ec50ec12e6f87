package models

import "fmt"

// Visibility is the three-tier privacy level of a resource.
// Ordinal order: private(0) < shared(1) < public(2).
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityShared  Visibility = "shared"
	VisibilityPublic  Visibility = "public"
)

// Ordinal returns the numeric rank used for min-comparisons.
func (v Visibility) Ordinal() int {
	switch v {
	case VisibilityPrivate:
		return 0
	case VisibilityShared:
		return 1
	case VisibilityPublic:
		return 2
	default:
		return 0 // unknown values are treated as private
	}
}

// Valid reports whether v is one of the three defined levels.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPrivate, VisibilityShared, VisibilityPublic:
		return true
	}
	return false
}

// MinVisibility returns the most restrictive of a and b.
func MinVisibility(a, b Visibility) Visibility {
	if a.Ordinal() <= b.Ordinal() {
		return a
	}
	return b
}

// ParseVisibility converts a string to a Visibility, rejecting unknown values.
func ParseVisibility(s string) (Visibility, error) {
	v := Visibility(s)
	if !v.Valid() {
		return "", fmt.Errorf("unknown visibility %q", s)
	}
	return v, nil
}
