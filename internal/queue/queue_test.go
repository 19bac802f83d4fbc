package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/benvon/trajectory/internal/models"
)

func TestRoutingKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		eventType models.EventType
		want      string
	}{
		{models.EventHabitAdded, "habit.added"},
		{models.EventHabitRemoved, "habit.removed"},
		{models.EventHabitToggled, "habit.toggled"},
		{models.EventAnalysisCompleted, "analysis.completed"},
		{models.EventAnalysisFailed, "analysis.failed"},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			t.Parallel()
			if got := RoutingKey(tt.eventType); got != tt.want {
				t.Errorf("RoutingKey(%s) = %s, want %s", tt.eventType, got, tt.want)
			}
		})
	}
}

func TestDecodeEvent(t *testing.T) {
	t.Parallel()

	event := models.NewEvent(models.EventHabitToggled)
	event.HabitID = "1"
	event.Momentum = 2
	body, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	decoded, err := DecodeEvent(body)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if decoded.ID != event.ID || decoded.HabitID != "1" || decoded.Momentum != 2 {
		t.Errorf("Decoded event = %+v, want %+v", decoded, event)
	}

	if _, err := DecodeEvent([]byte("not json")); err == nil {
		t.Error("Expected error for invalid body")
	}
	if _, err := DecodeEvent([]byte(`{"momentum":1}`)); err == nil {
		t.Error("Expected error for event without type")
	}
}

func TestNopPublisher(t *testing.T) {
	t.Parallel()

	var p EventPublisher = NopPublisher{}
	if err := p.Publish(context.Background(), models.NewEvent(models.EventHabitAdded)); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
	if err := p.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestMemoryPublisher(t *testing.T) {
	t.Parallel()

	p := NewMemoryPublisher()
	ctx := context.Background()
	_ = p.Publish(ctx, models.NewEvent(models.EventHabitAdded))
	_ = p.Publish(ctx, models.NewEvent(models.EventHabitToggled))

	types := p.Types()
	if len(types) != 2 || types[0] != models.EventHabitAdded || types[1] != models.EventHabitToggled {
		t.Errorf("Types() = %v", types)
	}

	boom := errors.New("broker down")
	p.FailWith(boom)
	if err := p.Publish(ctx, models.NewEvent(models.EventHabitRemoved)); !errors.Is(err, boom) {
		t.Errorf("Publish() error = %v, want %v", err, boom)
	}
	if err := p.HealthCheck(ctx); !errors.Is(err, boom) {
		t.Errorf("HealthCheck() error = %v, want %v", err, boom)
	}
	if len(p.Events()) != 2 {
		t.Errorf("Failed publish should not be recorded")
	}
}

func TestNewRabbitMQPublisher_InvalidURL(t *testing.T) {
	t.Parallel()

	if _, err := NewRabbitMQPublisher("not-a-url"); err == nil {
		t.Error("Expected error for invalid AMQP URL")
	}
}
