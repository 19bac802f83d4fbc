package queue

import (
	"context"
	"sync"

	"github.com/benvon/trajectory/internal/models"
)

// NopPublisher discards events. It is used when no RabbitMQ URL is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event *models.Event) error { return nil }
func (NopPublisher) HealthCheck(ctx context.Context) error                   { return nil }
func (NopPublisher) Close() error                                            { return nil }

// MemoryPublisher records published events in order
type MemoryPublisher struct {
	mu     sync.Mutex
	events []models.Event
	err    error
}

// NewMemoryPublisher creates an empty in-memory publisher
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// FailWith makes every later Publish return err
func (p *MemoryPublisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *MemoryPublisher) Publish(ctx context.Context, event *models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, *event)
	return nil
}

func (p *MemoryPublisher) HealthCheck(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *MemoryPublisher) Close() error { return nil }

// Events returns a copy of the recorded events
func (p *MemoryPublisher) Events() []models.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Event, len(p.events))
	copy(out, p.events)
	return out
}

// Types returns the recorded event types in publish order
func (p *MemoryPublisher) Types() []models.EventType {
	events := p.Events()
	out := make([]models.EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
