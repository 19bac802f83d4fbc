package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/benvon/trajectory/internal/models"
	"github.com/benvon/trajectory/internal/queue"
	"github.com/benvon/trajectory/internal/storage"
	"go.uber.org/zap"
)

type mockMessage struct {
	event   *models.Event
	acked   bool
	nacked  bool
	requeue bool
}

func (m *mockMessage) Ack() error {
	m.acked = true
	return nil
}

func (m *mockMessage) Nack(requeue bool) error {
	m.nacked = true
	m.requeue = requeue
	return nil
}

func (m *mockMessage) GetEvent() *models.Event {
	return m.event
}

var _ queue.MessageInterface = (*mockMessage)(nil)

type failingStore struct {
	storage.Store
	err error
}

func (s *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, storage.ErrNotFound
}

func (s *failingStore) Set(ctx context.Context, key string, value []byte) error {
	return s.err
}

func TestEventRecorder_ProcessMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		eventType   models.EventType
		store       storage.Store
		expectError bool
		wantAck     bool
		wantRequeue bool
		wantJournal int
	}{
		{
			name:        "toggle event recorded",
			eventType:   models.EventHabitToggled,
			store:       storage.NewMemoryStore(),
			wantAck:     true,
			wantJournal: 1,
		},
		{
			name:        "analysis event recorded",
			eventType:   models.EventAnalysisCompleted,
			store:       storage.NewMemoryStore(),
			wantAck:     true,
			wantJournal: 1,
		},
		{
			name:        "unknown event dropped",
			eventType:   models.EventType("habit_renamed"),
			store:       storage.NewMemoryStore(),
			expectError: true,
		},
		{
			name:        "store failure requeued",
			eventType:   models.EventHabitAdded,
			store:       &failingStore{err: errors.New("connection refused")},
			expectError: true,
			wantRequeue: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := NewEventRecorder(tt.store, "", 0, zap.NewNop())
			msg := &mockMessage{event: models.NewEvent(tt.eventType)}

			err := r.ProcessMessage(context.Background(), msg)
			if (err != nil) != tt.expectError {
				t.Fatalf("ProcessMessage() error = %v, expectError %v", err, tt.expectError)
			}
			if msg.acked != tt.wantAck {
				t.Errorf("acked = %v, want %v", msg.acked, tt.wantAck)
			}
			if tt.expectError && !msg.nacked {
				t.Error("Expected message to be nacked")
			}
			if msg.requeue != tt.wantRequeue {
				t.Errorf("requeue = %v, want %v", msg.requeue, tt.wantRequeue)
			}
			if tt.wantJournal > 0 {
				events, err := r.Journal(context.Background())
				if err != nil {
					t.Fatalf("Journal() error = %v", err)
				}
				if len(events) != tt.wantJournal || events[0].Type != tt.eventType {
					t.Errorf("Unexpected journal: %+v", events)
				}
			}
		})
	}
}

func TestEventRecorder_UnknownEventError(t *testing.T) {
	t.Parallel()

	r := NewEventRecorder(storage.NewMemoryStore(), "", 0, nil)
	err := r.ProcessMessage(context.Background(), &mockMessage{event: models.NewEvent("bogus")})
	if !errors.Is(err, ErrUnknownEventType) {
		t.Errorf("Expected ErrUnknownEventType, got %v", err)
	}
}

func TestEventRecorder_Limit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewEventRecorder(storage.NewMemoryStore(), "journal", 3, nil)

	var last *models.Event
	for i := 0; i < 5; i++ {
		last = models.NewEvent(models.EventHabitToggled)
		last.HabitID = string(rune('1' + i))
		if err := r.Record(ctx, last); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	events, err := r.Journal(ctx)
	if err != nil {
		t.Fatalf("Journal() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	if events[0].HabitID != "3" || events[2].ID != last.ID {
		t.Errorf("Expected oldest events to be dropped, got %+v", events)
	}
}

func TestEventRecorder_CorruptJournal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.Set(ctx, DefaultJournalKey, []byte("not json")); err != nil {
		t.Fatal(err)
	}

	r := NewEventRecorder(store, "", 0, nil)
	if err := r.Record(ctx, models.NewEvent(models.EventHabitRemoved)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	events, err := r.Journal(ctx)
	if err != nil || len(events) != 1 {
		t.Errorf("Expected a fresh journal with 1 event, got %d (err %v)", len(events), err)
	}
}

func TestEventRecorder_RunStopsWhenChannelCloses(t *testing.T) {
	t.Parallel()

	msgs := make(chan *queue.Message)
	errs := make(chan error)
	close(msgs)
	close(errs)

	done := make(chan struct{})
	go func() {
		NewEventRecorder(storage.NewMemoryStore(), "", 0, nil).Run(context.Background(), msgs, errs)
		close(done)
	}()
	<-done
}

func TestEventRecorder_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	NewEventRecorder(storage.NewMemoryStore(), "", 0, nil).Run(ctx, make(chan *queue.Message), make(chan error))
}
