// Package eventstream publishes index lifecycle events so downstream
// consumers can react to images entering and leaving the index.
package eventstream

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the indexer.
const (
	EventTypeImageIndexed = "imagedex.image.indexed"
	EventTypeImageDeleted = "imagedex.image.deleted"
)

// SchemaVersionV1 is the current event payload schema version.
const SchemaVersionV1 = 1

// ErrPublish indicates the event could not be handed to the stream.
var ErrPublish = errors.New("eventstream publish error")

// Event is the payload emitted for every index lifecycle change.
type Event struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	ImageID       string    `json:"image_id"`
	SourceURL     string    `json:"source_url,omitempty"`
	Path          string    `json:"path,omitempty"`
}

// NewEvent builds an event of the given type for an image.
func NewEvent(eventType, imageID, sourceURL, path string) Event {
	return Event{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		ImageID:       imageID,
		SourceURL:     sourceURL,
		Path:          path,
	}
}

// Publisher emits index lifecycle events. Publish failures must never make
// an index operation fail; implementations log and move on.
type Publisher interface {
	// Publish emits a single event to the stream.
	Publish(ctx context.Context, event Event) error

	// Close flushes and releases any resources held by the publisher.
	Close() error
}
