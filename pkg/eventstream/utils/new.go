// Package eventstreamutils provides factory functions for creating event
// publishers from configuration.
package eventstreamutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pixelheap/imagedex/pkg/config"
	"github.com/pixelheap/imagedex/pkg/eventstream"
	"github.com/pixelheap/imagedex/pkg/eventstream/kafka"
	"github.com/pixelheap/imagedex/pkg/eventstream/nop"
)

// NewPublisher creates an event publisher based on the configured provider.
func NewPublisher(cfg config.EventsConfig, logger *zap.Logger) (eventstream.Publisher, error) {
	switch cfg.Provider {
	case "", "nop":
		return nop.NewPublisher(), nil
	case "kafka":
		return kafka.NewPublisher(kafka.Config{
			Brokers: cfg.Brokers,
			Topic:   cfg.Topic,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown events provider: %q", cfg.Provider)
	}
}
