package domain

import "errors"

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrInvalidID   = errors.New("invalid_id")
	ErrNotFound    = errors.New("not_found")
	ErrCodeTaken   = errors.New("code_taken")

	// ErrDefaultConflict means another profile became the default concurrently.
	ErrDefaultConflict = errors.New("default_conflict")
)
