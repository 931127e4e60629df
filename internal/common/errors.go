// Package common defines sentinel errors and shared constants used across
// the server, the client and the admin tooling. Callers should match the
// error values with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Upload errors.
	ErrBadFile        = errors.New("bad file")
	ErrTooBig         = errors.New("chunk too big")
	ErrMissingChunk   = errors.New("missing chunk")
	ErrStorageFailure = errors.New("error storing file")

	// Notification errors.
	ErrLockUnavailable = errors.New("lock unavailable, try later")
	ErrDispatchFailure = errors.New("dispatch failure")
)
