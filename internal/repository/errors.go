package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an entity with the same ID already exists
	ErrConflict = errors.New("conflict: entity already exists")

	// ErrCorrupt is returned when a stored document cannot be decoded
	ErrCorrupt = errors.New("stored document is corrupt")
)
