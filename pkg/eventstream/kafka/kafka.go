// Package kafka provides a Kafka-backed event publisher.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/pixelheap/imagedex/pkg/eventstream"
)

// Publisher writes index lifecycle events to a Kafka topic, keyed by image
// ID so events for the same image land on the same partition in order.
type Publisher struct {
	writer *kafkago.Writer
	logger *zap.Logger
}

// Config holds Kafka publisher settings.
type Config struct {
	// Brokers is a comma-separated list of broker addresses.
	Brokers string

	// Topic is the topic events are written to.
	Topic string
}

// NewPublisher creates a Kafka publisher for the configured brokers and topic.
func NewPublisher(c Config, logger *zap.Logger) (*Publisher, error) {
	if c.Brokers == "" {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if c.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	brokers := strings.Split(c.Brokers, ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        c.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
	}

	logger.Info("kafka event publisher initialized",
		zap.Strings("brokers", brokers),
		zap.String("topic", c.Topic),
	)

	return &Publisher{
		writer: writer,
		logger: logger,
	}, nil
}

// Publish writes the event as a JSON message keyed by image ID.
func (p *Publisher) Publish(ctx context.Context, event eventstream.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: marshaling event: %v", eventstream.ErrPublish, err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.ImageID),
		Value: payload,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: writing message: %v", eventstream.ErrPublish, err)
	}

	p.logger.Debug("published event",
		zap.String("event_type", event.EventType),
		zap.String("image_id", event.ImageID),
	)

	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ eventstream.Publisher = (*Publisher)(nil)
