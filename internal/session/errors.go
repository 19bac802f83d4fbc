package session

import "errors"

var (
	// ErrEmptyHabitName is returned when a habit is added with a blank name
	ErrEmptyHabitName = errors.New("habit name is required")
	// ErrInvalidHabitType is returned when a habit is added with an unknown type
	ErrInvalidHabitType = errors.New("habit type must be good or bad")
	// ErrAnalysisInProgress is returned when an analysis is requested while one is outstanding
	ErrAnalysisInProgress = errors.New("analysis already in progress")
	// ErrNoAnalyzer is returned when analysis is requested without a configured provider
	ErrNoAnalyzer = errors.New("no analyzer configured")
)
