package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a conditional update matched no row
	// because the entity was changed concurrently.
	ErrConflict = errors.New("entity changed concurrently")

	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("entity already exists")
)
