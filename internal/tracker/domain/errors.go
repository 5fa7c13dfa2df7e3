package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers absent and soft-deleted entities alike.
	ErrNotFound = errors.New("entity not found")

	// ErrCrossProject rejects a move whose target column belongs to a
	// board of a different project than the work item.
	ErrCrossProject = errors.New("column and work item belong to different projects")

	// ErrCapacityExceeded rejects a move into a column whose WIP limit
	// is already reached.
	ErrCapacityExceeded = errors.New("column WIP limit reached")
)

// ValidationError marks malformed or policy-violating input. It is a
// caller error and is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError for a field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ConfigError signals broken state configuration, e.g. a (project,
// item type) pair with zero or multiple initial states. It indicates
// data needing repair, not a bad request.
type ConfigError struct {
	Detail string
}

func (e *ConfigError) Error() string {
	return "state configuration: " + e.Detail
}

// IsConfig reports whether err is (or wraps) a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
