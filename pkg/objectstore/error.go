package objectstore

import "errors"

var (
	// ErrStore is returned when an object store operation fails.
	ErrStore = errors.New("object store operation failed")

	// ErrNotFound is returned when a requested blob does not exist.
	ErrNotFound = errors.New("blob not found")
)
