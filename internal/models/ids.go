// ABOUTME: Identifier normalization for users, threads, messages, and checkpoints
// ABOUTME: Maps arbitrary external strings to stable UUIDs with a name-based hash
package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MaxExternalIDLength bounds caller-supplied identifiers
const MaxExternalIDLength = 255

// idNamespace is the fixed namespace for name-based ids. Changing it
// re-keys every derived user and thread id, so it must never change.
var idNamespace = uuid.MustParse("7c0e4b8a-3f6d-5a41-9d2e-6b1f0c8e5a73")

// CanonicalID returns the canonical form of an identifier. UUIDs are
// returned lowercased in their hyphenated form; anything else is hashed
// into a version 5 UUID so the same input always yields the same id.
func CanonicalID(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if id, err := uuid.Parse(trimmed); err == nil {
		return id.String()
	}
	return uuid.NewSHA1(idNamespace, []byte(trimmed)).String()
}

// IsCanonicalID reports whether raw is already a canonical id
func IsCanonicalID(raw string) bool {
	id, err := uuid.Parse(raw)
	return err == nil && id.String() == raw
}

// NewID returns a fresh random id
func NewID() string {
	return uuid.New().String()
}

// ValidateExternalID checks a caller-supplied identifier before normalization
func ValidateExternalID(field, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidation, field)
	}
	if len(raw) > MaxExternalIDLength {
		return fmt.Errorf("%w: %s exceeds %d characters", ErrValidation, field, MaxExternalIDLength)
	}
	return nil
}
