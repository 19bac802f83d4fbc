package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a session event published on the event feed
type EventType string

const (
	EventHabitAdded        EventType = "habit_added"
	EventHabitRemoved      EventType = "habit_removed"
	EventHabitToggled      EventType = "habit_toggled"
	EventAnalysisCompleted EventType = "analysis_completed"
	EventAnalysisFailed    EventType = "analysis_failed"
)

// Event describes a change to the session
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	HabitID    string    `json:"habit_id,omitempty"`
	Momentum   float64   `json:"momentum"`
	Verdict    string    `json:"verdict,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent creates an event stamped with a fresh id and the current time
func NewEvent(eventType EventType) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
	}
}
