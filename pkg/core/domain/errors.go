package domain

import "errors"

var (
	ErrInvalidTarget      = errors.New("target url must be an absolute url with scheme and host")
	ErrInvalidCode        = errors.New("code must be 6-8 alphanumeric characters")
	ErrCodeConflict       = errors.New("code already exists")
	ErrExhaustedCodeSpace = errors.New("could not allocate a unique code")
	ErrNotFound           = errors.New("link not found")
	ErrInvalidCounters    = errors.New("clicks must not be negative")

	// ErrStorage wraps any backing store failure that has no more specific kind.
	ErrStorage = errors.New("storage failure")
)
