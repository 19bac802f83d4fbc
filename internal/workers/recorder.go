// Package workers holds the background consumers of the session event feed.
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/benvon/trajectory/internal/logger"
	"github.com/benvon/trajectory/internal/models"
	"github.com/benvon/trajectory/internal/queue"
	"github.com/benvon/trajectory/internal/storage"
	"go.uber.org/zap"
)

const (
	// DefaultJournalKey is the store key the event journal is kept under
	DefaultJournalKey = "trajectory_events"
	// DefaultJournalLimit is how many events the journal keeps
	DefaultJournalLimit = 500
)

// ErrUnknownEventType is returned for events the recorder does not understand
var ErrUnknownEventType = errors.New("unknown event type")

// EventRecorder appends session events to a bounded journal in the snapshot store
type EventRecorder struct {
	store  storage.Store
	key    string
	limit  int
	logger *zap.Logger

	mu sync.Mutex
}

// NewEventRecorder creates a recorder. Empty key and non-positive limit take the defaults.
func NewEventRecorder(store storage.Store, key string, limit int, log *zap.Logger) *EventRecorder {
	if key == "" {
		key = DefaultJournalKey
	}
	if limit <= 0 {
		limit = DefaultJournalLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EventRecorder{store: store, key: key, limit: limit, logger: log}
}

// Journal returns the recorded events, oldest first
func (r *EventRecorder) Journal(ctx context.Context) ([]models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// Record appends event to the journal, dropping the oldest entries past the limit
func (r *EventRecorder) Record(ctx context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := r.load(ctx)
	if err != nil {
		return err
	}

	events = append(events, *event)
	if len(events) > r.limit {
		events = events[len(events)-r.limit:]
	}

	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to encode journal: %w", err)
	}
	if err := r.store.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("failed to save journal: %w", err)
	}
	return nil
}

func (r *EventRecorder) load(ctx context.Context) ([]models.Event, error) {
	data, err := r.store.Get(ctx, r.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load journal: %w", err)
	}

	var events []models.Event
	if err := json.Unmarshal(data, &events); err != nil {
		// A corrupt journal is replaced rather than blocking the feed
		r.logger.Warn("event_journal_corrupt_resetting", zap.String("key", r.key), zap.Error(err))
		return nil, nil
	}
	return events, nil
}

// ProcessMessage records one delivery and settles it. Unknown events are
// dropped without requeue; store failures are requeued.
func (r *EventRecorder) ProcessMessage(ctx context.Context, msg queue.MessageInterface) error {
	event := msg.GetEvent()

	if !knownEventType(event.Type) {
		if nackErr := msg.Nack(false); nackErr != nil {
			r.logger.Warn("failed_to_nack_message", zap.Error(nackErr))
		}
		return fmt.Errorf("%w: %s", ErrUnknownEventType, event.Type)
	}

	if err := r.Record(ctx, event); err != nil {
		if nackErr := msg.Nack(true); nackErr != nil {
			r.logger.Warn("failed_to_nack_message", zap.Error(nackErr))
		}
		return err
	}

	r.logger.Info("event_recorded",
		zap.String("event_id", event.ID.String()),
		zap.String("event_type", string(event.Type)),
		zap.String("habit_id", event.HabitID),
		zap.Float64("momentum", event.Momentum),
	)

	if err := msg.Ack(); err != nil {
		return fmt.Errorf("failed to ack event: %w", err)
	}
	return nil
}

// Run processes deliveries until ctx ends or the message channel closes
func (r *EventRecorder) Run(ctx context.Context, msgs <-chan *queue.Message, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				r.logger.Info("message_channel_closed")
				return
			}
			if err := r.ProcessMessage(ctx, msg); err != nil {
				r.logger.Error("failed_to_process_event",
					zap.String("routing_key", msg.RoutingKey),
					zap.String("error", logger.SanitizeError(err)),
				)
			}
		case err, ok := <-errs:
			if !ok {
				// The consumer closes errs alongside msgs
				errs = nil
				continue
			}
			r.logger.Error("queue_error", zap.String("error", logger.SanitizeError(err)))
		}
	}
}

func knownEventType(t models.EventType) bool {
	switch t {
	case models.EventHabitAdded, models.EventHabitRemoved, models.EventHabitToggled,
		models.EventAnalysisCompleted, models.EventAnalysisFailed:
		return true
	default:
		return false
	}
}
