package store

import "errors"

var (
	// ErrValidation wraps a schema validator failure. The collection is unchanged.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned by Update and Replace for an unknown id.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an inserted id already exists.
	ErrDuplicate = errors.New("duplicate id")
)
