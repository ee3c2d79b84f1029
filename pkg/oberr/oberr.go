// Package oberr defines the error taxonomy shared by the observability services.
package oberr

import (
	"errors"
	"fmt"
)

// ErrValidation marks malformed input: an empty metric name, a non-numeric
// value, an unknown alert condition operator.
var ErrValidation = errors.New("validation error")

// ErrNotFound marks a reference to an unknown trace, span, metric, or rule.
var ErrNotFound = errors.New("not found")

// Invalid creates a validation error for a malformed field.
func Invalid(field, reason string) error {
	return fmt.Errorf("%w: invalid %s: %s", ErrValidation, field, reason)
}

// NotFound creates a not-found error for a missing resource.
func NotFound(resource, id string) error {
	return fmt.Errorf("%w: %s not found: %s", ErrNotFound, resource, id)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
