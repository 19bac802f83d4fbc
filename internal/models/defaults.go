package models

// DefaultHabits returns the starter habits used when no stored registry can be restored
func DefaultHabits() []Habit {
	return []Habit{
		{ID: "1", Name: "Exercise", Weight: 2, Type: HabitTypeGood, Status: HabitStatusMissed},
		{ID: "2", Name: "Reading", Weight: 1, Type: HabitTypeGood, Status: HabitStatusMissed},
		{ID: "3", Name: "Deep Work", Weight: 3, Type: HabitTypeGood, Status: HabitStatusMissed},
		{ID: "4", Name: "Sugar/Junk Food", Weight: 2.5, Type: HabitTypeBad, Status: HabitStatusPassed},
		{ID: "5", Name: "Late Night Scrolling", Weight: 1.5, Type: HabitTypeBad, Status: HabitStatusPassed},
	}
}

// DefaultHistory returns the fixed seven day history; the last point is yesterday
func DefaultHistory() []HistoryPoint {
	return []HistoryPoint{
		{Date: "T-7", Momentum: 2.0},
		{Date: "T-6", Momentum: 1.5},
		{Date: "T-5", Momentum: 2.2},
		{Date: "T-4", Momentum: 0.8},
		{Date: "T-3", Momentum: -0.5},
		{Date: "T-2", Momentum: -1.0},
		{Date: "T-1", Momentum: 0.2},
	}
}
