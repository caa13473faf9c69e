package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound  = errors.New("application not found")
	ErrEmptyID   = errors.New("posting id is empty")
	ErrClosed    = errors.New("store closed")
	ErrMigration = errors.New("schema migration failed")
)
