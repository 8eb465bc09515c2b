package storage

import "errors"

// Store errors. Journal records and snapshots are written once and never updated.
var (
	// ErrNotFound is returned when no journal record or snapshot matches.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a record id, or a (pool, observed_at)
	// snapshot key, is already stored.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned for records missing required fields.
	ErrInvalidInput = errors.New("invalid input")
)
