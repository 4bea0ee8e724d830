package store

import "errors"

// Store-level error sentinels.
var (
	// ErrNotFound means the key has no live row: absent, or past its expiry.
	ErrNotFound = errors.New("record not found")

	// ErrUnavailable means the persistent backend cannot be reached.
	ErrUnavailable = errors.New("persistent store unavailable")
)
