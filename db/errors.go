package db

import "errors"

var (
	// ErrNotFound is returned when the referenced entity is absent
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned on a uniqueness violation
	ErrConflict = errors.New("already exists")

	// ErrForbidden is returned when the caller does not own the target entity
	ErrForbidden = errors.New("not owner")
)
