// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across store/registry layers. Operations wrap these with
// the operation name, record key and failed field; callers match with errors.Is.
var (
	// ErrAlreadyExists indicates a create targeting a key that already holds a record.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrOverflow indicates a counter is saturated and an increment would wrap.
	ErrOverflow = errors.New("counter overflow")

	// ErrInvalidStatus indicates the issue is not in the status the operation requires.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrUnauthorized indicates the caller's role does not permit the operation.
	ErrUnauthorized = errors.New("unauthorized")
)
