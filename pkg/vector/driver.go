// Package vector provides interfaces and implementations for vector storage
// and nearest-neighbor retrieval.
package vector

import "context"

// Document represents a stored item with its embedding, metadata, and
// document text.
type Document struct {
	// ID is the unique identifier for the document (the image id).
	ID string

	// Embedding is the vector representation of the document content.
	Embedding []float32

	// Metadata is a flat set of string fields stored with the document.
	Metadata map[string]string

	// Text is the raw document text (the source URL in the image
	// collection, the caption in the text collection).
	Text string
}

// QueryResult represents a nearest-neighbor hit.
type QueryResult struct {
	Document

	// Distance is the cosine distance to the query embedding, in [0, 2]
	// with 0 meaning identical direction. Results order ascending.
	Distance float32
}

// Driver handles one collection of the vector index. The system holds two
// Drivers: one for visual embeddings, one for caption text embeddings.
type Driver interface {
	// Insert stores documents with their embeddings. Inserting an id that
	// already exists fails with ErrDuplicateID.
	Insert(ctx context.Context, docs []Document) error

	// Query finds the topK nearest documents to the given embedding under
	// cosine distance, closest first. An empty collection yields an empty
	// slice, not an error.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)

	// Get retrieves documents by their IDs. Missing ids are simply absent
	// from the result.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// List returns every document in the collection, without embeddings.
	List(ctx context.Context) ([]Document, error)

	// Delete removes documents by their IDs. Deleting a missing id is a
	// no-op.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the driver.
	Close() error
}
