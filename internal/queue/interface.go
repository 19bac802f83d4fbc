package queue

import (
	"context"

	"github.com/benvon/trajectory/internal/models"
)

// MessageInterface defines the interface for delivered event messages
// This enables better testability by allowing mock implementations
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetEvent() *models.Event
}

// EventPublisher publishes session events to the event feed
type EventPublisher interface {
	// Publish sends an event. Implementations must not block past ctx.
	Publish(ctx context.Context, event *models.Event) error

	// HealthCheck verifies the publisher connection is healthy
	HealthCheck(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}

// EventConsumer reads events back off the feed
type EventConsumer interface {
	// Consume returns a channel of events matching pattern (an AMQP topic pattern such as "habit.#").
	// The returned channels are closed when ctx is cancelled or the connection drops.
	Consume(ctx context.Context, pattern string, prefetchCount int) (<-chan *Message, <-chan error, error)
}
