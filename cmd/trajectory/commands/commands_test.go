package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/benvon/trajectory/internal/models"
	"github.com/benvon/trajectory/internal/momentum"
	"github.com/benvon/trajectory/internal/queue"
	"github.com/benvon/trajectory/internal/services/ai"
	"github.com/benvon/trajectory/internal/session"
	"github.com/benvon/trajectory/internal/storage"
	"github.com/benvon/trajectory/internal/workers"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// testOpener returns an opener that always hands out the same in-memory environment
func testOpener(store storage.Store, opts ...session.Option) Opener {
	opts = append([]session.Option{session.WithStore(store)}, opts...)
	return func(ctx context.Context, debug bool) (*Env, error) {
		sess, err := session.Open(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return &Env{
			Store:   store,
			Session: sess,
			Logger:  zap.NewNop(),
		}, nil
	}
}

func run(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(open)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHabitsList(t *testing.T) {
	t.Parallel()

	out, err := run(t, testOpener(storage.NewMemoryStore()), "habits", "list")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, want := range []string{"ID", "Exercise", "Late Night Scrolling", "passed"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestHabitsList_JSON(t *testing.T) {
	t.Parallel()

	out, err := run(t, testOpener(storage.NewMemoryStore()), "habits", "list", "-o", "json")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var habits []models.Habit
	if err := json.Unmarshal([]byte(out), &habits); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}
	if len(habits) != 5 {
		t.Errorf("Expected 5 habits, got %d", len(habits))
	}
}

func TestHabitsAdd_PersistsAcrossInvocations(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	open := testOpener(store)

	if _, err := run(t, open, "habits", "add", "--name", "Stretching", "--type", "good", "--weight", "2"); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	out, err := run(t, open, "habits", "list", "-o", "yaml")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var habits []map[string]any
	if err := yaml.Unmarshal([]byte(out), &habits); err != nil {
		t.Fatalf("Invalid YAML output: %v", err)
	}
	if len(habits) != 6 || habits[5]["name"] != "Stretching" || habits[5]["status"] != "missed" {
		t.Errorf("Unexpected habits: %v", habits)
	}
}

func TestHabitsAdd_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{"missing name", []string{"habits", "add", "--type", "good"}},
		{"bad type", []string{"habits", "add", "--name", "Walk", "--type", "neutral"}},
		{"weight out of range", []string{"habits", "add", "--name", "Walk", "--weight", "9"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := run(t, testOpener(storage.NewMemoryStore()), tt.args...); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestHabitsToggleAndRemove(t *testing.T) {
	t.Parallel()

	open := testOpener(storage.NewMemoryStore())

	out, err := run(t, open, "habits", "toggle", "1")
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !strings.Contains(out, "Exercise is now done") {
		t.Errorf("Unexpected output: %s", out)
	}

	out, err = run(t, open, "habits", "toggle", "missing")
	if err != nil || !strings.Contains(out, "No habit with id missing") {
		t.Errorf("Unexpected absent toggle result: %q, %v", out, err)
	}

	out, err = run(t, open, "habits", "toggle", "missing", "-o", "json")
	if err != nil {
		t.Fatalf("absent toggle failed: %v", err)
	}
	var result struct {
		ID      string `json:"id"`
		Toggled bool   `json:"toggled"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("Failed to decode toggle output: %v", err)
	}
	if result.ID != "missing" || result.Toggled {
		t.Errorf("Unexpected absent toggle output: %+v", result)
	}

	out, err = run(t, open, "habits", "rm", "1")
	if err != nil || !strings.Contains(out, "Removed habit 1") {
		t.Errorf("Unexpected remove result: %q, %v", out, err)
	}
	out, err = run(t, open, "habits", "remove", "1")
	if err != nil || !strings.Contains(out, "No habit with id 1") {
		t.Errorf("Unexpected second remove result: %q, %v", out, err)
	}
}

func TestMomentum(t *testing.T) {
	t.Parallel()

	out, err := run(t, testOpener(storage.NewMemoryStore()), "momentum")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// Defaults: nothing active, baseline 0.2
	for _, want := range []string{momentum.HeaderWorse, "+0.00 (local)", "+0.20", "Today"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	analyzer := ai.AnalyzerFunc(func(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
		return &models.AnalysisResult{
			VerdictHeader:    momentum.HeaderStagnant,
			DailyMomentum:    0,
			SlopeGradient:    models.SlopeFlat,
			RiskAssessment:   models.RiskModerate,
			Projection30Days: "no change",
			AISummary:        "Hold steady.",
		}, nil
	})

	out, err := run(t, testOpener(storage.NewMemoryStore(), session.WithAnalyzer(analyzer)), "analyze")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out, "Hold steady.") || !strings.Contains(out, "moderate") {
		t.Errorf("Unexpected output:\n%s", out)
	}
}

func TestAnalyze_NotConfigured(t *testing.T) {
	t.Parallel()

	_, err := run(t, testOpener(storage.NewMemoryStore()), "analyze")
	if !errors.Is(err, errNoAnalyzer) {
		t.Errorf("Expected errNoAnalyzer, got %v", err)
	}
}

func TestEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemoryStore()
	recorder := workers.NewEventRecorder(store, "", 0, nil)
	for _, et := range []models.EventType{models.EventHabitToggled, models.EventHabitAdded, models.EventAnalysisCompleted} {
		if err := recorder.Record(ctx, models.NewEvent(et)); err != nil {
			t.Fatal(err)
		}
	}

	out, err := run(t, testOpener(store), "events", "list", "-n", "2", "-o", "json")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var events []models.Event
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}
	if len(events) != 2 || events[0].Type != models.EventHabitAdded {
		t.Errorf("Unexpected events: %+v", events)
	}
}

func TestEvents_Empty(t *testing.T) {
	t.Parallel()

	out, err := run(t, testOpener(storage.NewMemoryStore()), "events", "list")
	if err != nil || !strings.Contains(out, "No events recorded.") {
		t.Errorf("Unexpected result: %q, %v", out, err)
	}
}

func TestInvalidOutputFormat(t *testing.T) {
	t.Parallel()

	if _, err := run(t, testOpener(storage.NewMemoryStore()), "momentum", "-o", "xml"); err == nil {
		t.Error("Expected error for invalid output format")
	}
}

type fakeConsumer struct {
	msgs chan *queue.Message
	errs chan error
}

func (f *fakeConsumer) Consume(ctx context.Context, pattern string, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return f.msgs, f.errs, nil
}

func TestTailEvents_StopsAfterCount(t *testing.T) {
	t.Parallel()

	c := &fakeConsumer{msgs: make(chan *queue.Message, 3), errs: make(chan error)}
	for i := 0; i < 3; i++ {
		c.msgs <- &queue.Message{Event: models.NewEvent(models.EventHabitToggled)}
	}

	var got int
	err := tailEvents(context.Background(), c, queue.AllEvents, 2, func(*models.Event) error {
		got++
		return nil
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != 2 {
		t.Errorf("Expected 2 events, got %d", got)
	}
}

func TestTailEvents_FeedError(t *testing.T) {
	t.Parallel()

	c := &fakeConsumer{msgs: make(chan *queue.Message), errs: make(chan error, 1)}
	c.errs <- errors.New("delivery channel closed")

	err := tailEvents(context.Background(), c, queue.AllEvents, 0, func(*models.Event) error { return nil })
	if err == nil {
		t.Error("Expected feed error")
	}
}

func TestEventsTail_NotConfigured(t *testing.T) {
	t.Parallel()

	_, err := run(t, testOpener(storage.NewMemoryStore()), "events", "tail")
	if !errors.Is(err, errNoEventFeed) {
		t.Errorf("Expected errNoEventFeed, got %v", err)
	}
}
