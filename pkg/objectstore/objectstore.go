// Package objectstore provides durable byte storage for original image
// blobs, addressed by generated id.
package objectstore

import (
	"context"
	"path"
)

// PendingPrefix is the key prefix for write-ahead markers. A marker is
// written before the blob upload and cleared after the vector index insert
// succeeds, so a crash in between leaves evidence for a later cleanup sweep.
const PendingPrefix = "pending/"

// Store is durable blob storage. Implementations retain no in-memory state
// between calls.
type Store interface {
	// EnsureBucket creates the backing container if absent. Idempotent.
	EnsureBucket(ctx context.Context) error

	// Put uploads data under key and returns a stable, dereferenceable
	// locator for it.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Delete removes the blob under key. Deleting a missing key is a
	// no-op; Delete never corrupts state when called twice.
	Delete(ctx context.Context, key string) error

	// List returns the keys under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// ImageKey returns the blob key for an image id.
func ImageKey(id string) string {
	return "image_" + id + ".jpg"
}

// PendingKey returns the write-ahead marker key for an image id.
func PendingKey(id string) string {
	return PendingPrefix + "image_" + id
}

// KeyFromLocator derives the blob key from a stored locator, which is the
// last path segment of the public URL Put returned.
func KeyFromLocator(locator string) string {
	return path.Base(locator)
}
