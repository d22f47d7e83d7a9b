package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both a genuinely absent record and an access
	// denial: unauthorized callers must not be able to tell a private
	// listing apart from a nonexistent one.
	ErrNotFound = errors.New("listing not found")

	// ErrInvalidState is returned when an operation is attempted against
	// a listing in an incompatible status, e.g. selling a sold listing.
	ErrInvalidState = errors.New("listing is in an invalid state for this operation")
)

// ValidationError reports malformed create/update input. Always
// recoverable by the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// DependencyError marks a failure of an external collaborator (email,
// AI, payment, social graph). On non-critical paths it is logged and
// never rolls back the triggering core mutation.
type DependencyError struct {
	Collaborator string
	Err          error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s collaborator failed: %v", e.Collaborator, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

func NewDependencyError(collaborator string, err error) *DependencyError {
	return &DependencyError{Collaborator: collaborator, Err: err}
}

// IsDependency reports whether err is a DependencyError.
func IsDependency(err error) bool {
	var de *DependencyError
	return errors.As(err, &de)
}
