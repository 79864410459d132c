package testutils

import (
	"context"
	"fmt"

	"github.com/pixelheap/imagedex/pkg/eventstream"
)

// MockPublisher records published events.
type MockPublisher struct {
	// Events accumulates everything passed to Publish.
	Events []eventstream.Event

	// FailPublish causes Publish to return an error.
	FailPublish bool
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(_ context.Context, event eventstream.Event) error {
	if m.FailPublish {
		return fmt.Errorf("%w: mock publish failure", eventstream.ErrPublish)
	}
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

var _ eventstream.Publisher = (*MockPublisher)(nil)
