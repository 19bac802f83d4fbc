package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/benvon/trajectory/internal/models"
	"github.com/benvon/trajectory/internal/momentum"
	"github.com/benvon/trajectory/internal/queue"
	"github.com/benvon/trajectory/internal/registry"
	"github.com/benvon/trajectory/internal/storage"
)

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("new-%d", n.Add(1))
	}
}

// failingStore rejects every write
type failingStore struct {
	storage.Store
}

func (failingStore) Set(ctx context.Context, key string, value []byte) error {
	return errors.New("disk full")
}

// unreadableStore fails every read as a timed out backend would
type unreadableStore struct {
	storage.Store
}

func (unreadableStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("i/o timeout")
}

func TestAddHabit(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	events := queue.NewMemoryPublisher()
	s := New(WithStore(store), WithPublisher(events), WithIDGenerator(sequentialIDs()))
	ctx := context.Background()

	h, err := s.AddHabit(ctx, "Meditation", models.HabitTypeGood, 1.5)
	if err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}
	if h.ID != "new-1" || h.Status != models.HabitStatusMissed {
		t.Errorf("Unexpected habit: %+v", h)
	}

	habits := s.Habits()
	if len(habits) != 6 || habits[5].ID != "new-1" {
		t.Fatalf("Expected new habit appended, got %+v", habits)
	}

	data, err := store.Get(ctx, storage.DefaultKey)
	if err != nil {
		t.Fatalf("Expected registry to be persisted: %v", err)
	}
	restored, err := registry.Decode(data)
	if err != nil || restored.Len() != 6 {
		t.Errorf("Persisted registry = %v habits, err %v", restored.Len(), err)
	}

	if types := events.Types(); len(types) != 1 || types[0] != models.EventHabitAdded {
		t.Errorf("Events = %v, want [habit_added]", types)
	}
}

func TestAddHabit_Rejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		habitName string
		habitType models.HabitType
		wantErr   error
	}{
		{"empty name", "", models.HabitTypeGood, ErrEmptyHabitName},
		{"whitespace name", "   ", models.HabitTypeBad, ErrEmptyHabitName},
		{"unknown type", "Walk", models.HabitType("neutral"), ErrInvalidHabitType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := storage.NewMemoryStore()
			events := queue.NewMemoryPublisher()
			s := New(WithStore(store), WithPublisher(events))

			_, err := s.AddHabit(context.Background(), tt.habitName, tt.habitType, 2)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AddHabit() error = %v, want %v", err, tt.wantErr)
			}
			if len(s.Habits()) != 5 {
				t.Errorf("Registry changed on rejected add")
			}
			if _, err := store.Get(context.Background(), storage.DefaultKey); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("Rejected add should not persist, got %v", err)
			}
			if len(events.Events()) != 0 {
				t.Errorf("Rejected add should not publish")
			}
		})
	}
}

func TestRemoveHabit(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	s := New(WithStore(store))
	ctx := context.Background()

	if s.RemoveHabit(ctx, "missing") {
		t.Error("Removing an absent id should report false")
	}
	if _, err := store.Get(ctx, storage.DefaultKey); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Absent remove should not persist, got %v", err)
	}

	if !s.RemoveHabit(ctx, "1") {
		t.Fatal("Expected habit 1 to be removed")
	}
	if _, ok := registryOf(t, store).Get("1"); ok {
		t.Error("Persisted registry still contains habit 1")
	}
	if s.RemoveHabit(ctx, "1") {
		t.Error("Second remove should report false")
	}
}

func registryOf(t *testing.T, store storage.Store) *registry.Registry {
	t.Helper()
	data, err := store.Get(context.Background(), storage.DefaultKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	r, err := registry.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return r
}

func TestToggleHabit(t *testing.T) {
	t.Parallel()

	events := queue.NewMemoryPublisher()
	s := New(WithPublisher(events))
	ctx := context.Background()

	h, ok := s.ToggleHabit(ctx, "1")
	if !ok {
		t.Fatal("ToggleHabit(1) reported no habit")
	}
	if h.Status != models.HabitStatusDone {
		t.Errorf("Status = %s, want done", h.Status)
	}
	if got := s.Snapshot().LocalMomentum; got != 2 {
		t.Errorf("LocalMomentum = %v, want 2", got)
	}

	evs := events.Events()
	if len(evs) != 1 || evs[0].HabitID != "1" || evs[0].Momentum != 2 {
		t.Errorf("Unexpected events: %+v", evs)
	}

	before := s.Snapshot()
	if _, ok := s.ToggleHabit(ctx, "missing"); ok {
		t.Error("ToggleHabit(missing) reported a toggle")
	}
	after := s.Snapshot()
	if after.LocalMomentum != before.LocalMomentum || len(after.Habits) != len(before.Habits) {
		t.Errorf("Missing toggle changed state: %+v", after)
	}
	if len(events.Events()) != 1 {
		t.Error("Missing toggle should not publish")
	}
}

func TestSnapshot_Defaults(t *testing.T) {
	t.Parallel()

	state := New().Snapshot()

	if state.LocalMomentum != 0 || state.Momentum != 0 {
		t.Errorf("Momentum = %v/%v, want 0", state.LocalMomentum, state.Momentum)
	}
	if state.Baseline != 0.2 {
		t.Errorf("Baseline = %v, want 0.2", state.Baseline)
	}
	if state.Verdict != momentum.VerdictWorse || state.VerdictHeader != momentum.HeaderWorse {
		t.Errorf("Verdict = %s %q, want worse", state.Verdict, state.VerdictHeader)
	}
	if state.Source != SourceLocal || state.Analysis != nil || state.Analyzing {
		t.Errorf("Unexpected analysis state: %+v", state)
	}
	if len(state.Trajectory) != 8 || state.Trajectory[7].Date != momentum.TodayLabel {
		t.Errorf("Trajectory = %+v", state.Trajectory)
	}
}

func TestSnapshot_Scenario(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	if _, ok := s.ToggleHabit(ctx, "1"); !ok {
		t.Fatal("ToggleHabit(1) reported no habit")
	}
	if got := s.Snapshot(); got.Verdict != momentum.VerdictBetter || got.Momentum != 2 {
		t.Errorf("After exercise: %v %s, want 2 better", got.Momentum, got.Verdict)
	}

	if _, ok := s.ToggleHabit(ctx, "4"); !ok {
		t.Fatal("ToggleHabit(4) reported no habit")
	}
	got := s.Snapshot()
	if got.Momentum != -0.5 || got.Verdict != momentum.VerdictWorse {
		t.Errorf("After junk food: %v %s, want -0.5 worse", got.Momentum, got.Verdict)
	}
	if last := got.Trajectory[len(got.Trajectory)-1]; last.Momentum != -0.5 {
		t.Errorf("Trajectory today = %v, want -0.5", last.Momentum)
	}
}

func TestSnapshot_IsCopy(t *testing.T) {
	t.Parallel()

	s := New()
	state := s.Snapshot()
	state.Habits[0].Name = "mutated"
	state.History[0].Momentum = 99

	fresh := s.Snapshot()
	if fresh.Habits[0].Name == "mutated" || fresh.History[0].Momentum == 99 {
		t.Error("Snapshot shares storage with the session")
	}
}

func TestPersistFailure_MutationStands(t *testing.T) {
	t.Parallel()

	s := New(WithStore(failingStore{Store: storage.NewMemoryStore()}))

	if _, ok := s.ToggleHabit(context.Background(), "3"); !ok {
		t.Fatal("ToggleHabit should apply despite persist errors")
	}
	if got := s.Snapshot().LocalMomentum; got != 3 {
		t.Errorf("LocalMomentum = %v, want 3", got)
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("restores stored registry", func(t *testing.T) {
		t.Parallel()
		store := storage.NewMemoryStore()
		first := New(WithStore(store))
		if _, ok := first.ToggleHabit(ctx, "2"); !ok {
			t.Fatal("ToggleHabit(2) reported no habit")
		}
		first.RemoveHabit(ctx, "5")

		second, err := Open(ctx, WithStore(store))
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		habits := second.Habits()
		if len(habits) != 4 {
			t.Fatalf("Expected 4 habits, got %d", len(habits))
		}
		if got := second.Snapshot().LocalMomentum; got != 1 {
			t.Errorf("LocalMomentum = %v, want 1", got)
		}
	})

	t.Run("corrupt entry falls back to defaults", func(t *testing.T) {
		t.Parallel()
		store := storage.NewMemoryStore()
		if err := store.Set(ctx, "custom", []byte("{not json")); err != nil {
			t.Fatal(err)
		}
		s, err := Open(ctx, WithStore(store), WithKey("custom"))
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if len(s.Habits()) != 5 {
			t.Errorf("Expected default habits")
		}
	})

	t.Run("unreadable store is an error and keeps the stored registry", func(t *testing.T) {
		t.Parallel()
		store := storage.NewMemoryStore()
		stored := []byte(`[{"id":"x","name":"Swim","weight":4,"type":"good","status":"done"}]`)
		if err := store.Set(ctx, storage.DefaultKey, stored); err != nil {
			t.Fatal(err)
		}

		s, err := Open(ctx, WithStore(unreadableStore{Store: store}))
		if err == nil || s != nil {
			t.Fatalf("Open() = %v, %v; want an error", s, err)
		}
		data, err := store.Get(ctx, storage.DefaultKey)
		if err != nil || string(data) != string(stored) {
			t.Errorf("Stored registry changed: %s, %v", data, err)
		}
	})
}
