// Package common defines sentinel errors and random-value helpers shared
// across the server layers. Callers should use errors.Is to match the
// error values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Mailbox-specific errors.
	ErrNotTargeted = errors.New("device is not a target of this share")

	// Validation / auth errors.
	ErrValidation  = errors.New("validation error")
	ErrAuthFailure = errors.New("device-user combination not valid")

	// Service-level errors.
	ErrInternal = errors.New("internal error")

	// ErrStorageCorrupt is returned on startup when only a subset of the
	// expected tables exists.
	ErrStorageCorrupt = errors.New("database corrupt: not all tables exist")
)
