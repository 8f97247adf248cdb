// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMissingReference indicates a write referencing a user or game that does not exist.
	// It matches ErrNotFound.
	ErrMissingReference = fmt.Errorf("user or game %w", ErrNotFound)

	// ErrConflict indicates a unique constraint violation (e.g. stats row already present).
	ErrConflict = errors.New("conflict")

	// ErrInvalidCredentials indicates a failed login. The message never says which part was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAuthRequired indicates that no bearer credential was presented.
	ErrAuthRequired = errors.New("authentication required")

	// ErrInvalidToken indicates a malformed, expired or wrongly signed token.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidStatsFormat indicates missing or non-numeric required stats fields.
	ErrInvalidStatsFormat = errors.New("invalid stats format")

	// ErrValidation indicates any other rejected request payload.
	ErrValidation = errors.New("validation")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
)

// ErrStorage marks failures of the persistence layer. Callers only ever see this category;
// the wrapped driver error is for server-side logs.
var ErrStorage = errors.New("storage error")
