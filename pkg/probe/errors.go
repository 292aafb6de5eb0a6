package probe

import (
	"errors"
	"fmt"
)

// failure taxonomy, checked with errors.Is by callers and tests.
var (
	ErrElementNotFound          = errors.New("element not found")
	ErrTimeoutExceeded          = errors.New("timeout exceeded")
	ErrNavigationExhausted      = errors.New("navigation exhausted")
	ErrSuggestionsNotRendered   = errors.New("suggestions not rendered")
	ErrSuggestionTextMismatch   = errors.New("suggestion text mismatch")
	ErrUnexpectedSuggestions    = errors.New("unexpected suggestions")
	ErrItemNotAdded             = errors.New("item not added")
	ErrAccessibleControlMissing = errors.New("accessible control missing")
	ErrAppNotLoaded             = errors.New("app not loaded")
)

// AccessibleControlMissingError names the per-item control that could not be found.
type AccessibleControlMissingError struct {
	Role  string // edit, delete or complete
	Label string // expected accessible name
}

func (e *AccessibleControlMissingError) Error() string {
	return fmt.Sprintf("accessible control missing: %s (%q)", e.Role, e.Label)
}

// Is reports a match with ErrAccessibleControlMissing.
func (e *AccessibleControlMissingError) Is(target error) bool {
	return target == ErrAccessibleControlMissing
}
