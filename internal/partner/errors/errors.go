// Package errors defines the sentinel errors shared by the partner directory.
// Callers wrap them with fmt.Errorf("%w: ...") and inspect them with errors.Is.
package errors

import (
	"fmt"
)

var (
	ErrNotFound      = fmt.Errorf("not found")
	ErrDuplicateName = fmt.Errorf("duplicate name")
	ErrInvalidInput  = fmt.Errorf("invalid input")

	// ErrValidation marks malformed filter or paging input that was recovered
	// locally by clamping or defaulting.
	ErrValidation = fmt.Errorf("validation error")
	// ErrTransientFetch marks a retryable network or upstream failure.
	ErrTransientFetch = fmt.Errorf("transient fetch error")
	// ErrStorageUnavailable marks a failed read or write of session storage.
	ErrStorageUnavailable = fmt.Errorf("storage unavailable")
	// ErrCapacityExceeded is returned when a fourth partner is added to a comparison.
	ErrCapacityExceeded = fmt.Errorf("comparison capacity exceeded")
	// ErrMissingID is returned by the normalizer for records without an identifier.
	ErrMissingID = fmt.Errorf("missing partner id")
)
