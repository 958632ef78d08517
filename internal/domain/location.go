package domain

import (
	"errors"
	"fmt"
)

// ErrEmptySystemDefault is returned when the system default location is blank.
var ErrEmptySystemDefault = errors.New("system default location is empty")

// LocationEntry pairs a name as users write it with the id used downstream
// (for example a weather lookup key).
type LocationEntry struct {
	DisplayName string `json:"display_name" yaml:"display_name"`
	CanonicalID string `json:"canonical_id" yaml:"canonical_id"`
}

// DuplicateLocationError reports a display name registered under two
// different canonical ids.
type DuplicateLocationError struct {
	DisplayName string
	Existing    string
	Conflicting string
}

func (e *DuplicateLocationError) Error() string {
	return fmt.Sprintf("duplicate location %q: registered as %q, got %q", e.DisplayName, e.Existing, e.Conflicting)
}
