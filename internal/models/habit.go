package models

// HabitType is the polarity of a habit
type HabitType string

const (
	HabitTypeGood HabitType = "good"
	HabitTypeBad  HabitType = "bad"
)

// HabitStatus represents today's state of a habit
type HabitStatus string

const (
	HabitStatusDone   HabitStatus = "done"
	HabitStatusMissed HabitStatus = "missed"
	HabitStatusPassed HabitStatus = "passed"
	HabitStatusFailed HabitStatus = "failed"
)

// Habit represents a tracked behavior with a weight and polarity
type Habit struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Weight float64     `json:"weight"`
	Type   HabitType   `json:"type"`
	Status HabitStatus `json:"status"`
}

// InactiveStatus returns the status a habit of type t starts in
func (t HabitType) InactiveStatus() HabitStatus {
	if t == HabitTypeBad {
		return HabitStatusPassed
	}
	return HabitStatusMissed
}

// ActiveStatus returns the status that counts a habit of type t toward today's score
func (t HabitType) ActiveStatus() HabitStatus {
	if t == HabitTypeBad {
		return HabitStatusFailed
	}
	return HabitStatusDone
}

// Valid reports whether t is a known habit type
func (t HabitType) Valid() bool {
	return t == HabitTypeGood || t == HabitTypeBad
}

// ValidFor reports whether status s belongs to habit type t.
// done/missed belong to good habits, passed/failed to bad habits.
func (s HabitStatus) ValidFor(t HabitType) bool {
	switch t {
	case HabitTypeGood:
		return s == HabitStatusDone || s == HabitStatusMissed
	case HabitTypeBad:
		return s == HabitStatusPassed || s == HabitStatusFailed
	default:
		return false
	}
}

// HistoryPoint is one past day's final momentum score
type HistoryPoint struct {
	Date     string  `json:"date"`
	Momentum float64 `json:"momentum"`
}
