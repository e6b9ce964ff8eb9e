package lifecycle

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned for illegal stage or status moves.
// These indicate caller misuse and are never retried.
var ErrInvalidTransition = errors.New("invalid transition")

// ValidationError reports a missing or invalid required field. It is
// surfaced verbatim to the presentation layer.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
