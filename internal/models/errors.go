// ABOUTME: Error taxonomy shared by stores, router, executor, and transports
// ABOUTME: Sentinel errors classified with errors.Is and mapped to status codes at the edges
package models

import "errors"

var (
	// ErrNotFound is returned when a requested user or thread does not exist
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for malformed identifiers or empty messages
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable is returned when the store or the generation service cannot be reached
	ErrUnavailable = errors.New("service unavailable")
)

// IsNotFound reports whether err is (or wraps) ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err is (or wraps) ErrValidation
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnavailable reports whether err is (or wraps) ErrUnavailable
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
