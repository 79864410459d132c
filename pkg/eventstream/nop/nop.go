// Package nop provides a no-op event publisher for deployments that do not
// run a message broker.
package nop

import (
	"context"

	"github.com/pixelheap/imagedex/pkg/eventstream"
)

// Publisher discards all events.
type Publisher struct{}

// NewPublisher creates a publisher that does nothing.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish discards the event.
func (p *Publisher) Publish(_ context.Context, _ eventstream.Event) error {
	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}

var _ eventstream.Publisher = (*Publisher)(nil)
