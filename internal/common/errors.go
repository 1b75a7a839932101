// Package common defines shared constants and sentinel errors used across
// the Park-IT client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Storage-level errors.
	ErrNotFound = errors.New("not found")

	// Validation of local input before it reaches the wire.
	ErrValidation = errors.New("validation error")
)
