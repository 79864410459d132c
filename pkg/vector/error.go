package vector

import "errors"

var (
	// ErrNotFound is returned when a document is not found in the vector store.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicateID is returned when inserting a document whose id already
	// exists. Ids are random UUIDs, so this is exceptional, not expected.
	ErrDuplicateID = errors.New("duplicate document id")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")
)
