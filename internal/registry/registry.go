// Package registry owns the ordered collection of habits and its persisted form.
package registry

import (
	"strings"

	"github.com/benvon/trajectory/internal/models"
	"github.com/google/uuid"
)

// Registry is the ordered set of habits for a session. Order is insertion order.
// A Registry is not safe for concurrent use; the session serializes access.
type Registry struct {
	habits []models.Habit
	newID  func() string
}

// Option configures a Registry
type Option func(*Registry)

// WithIDGenerator replaces the uuid-based id generator
func WithIDGenerator(gen func() string) Option {
	return func(r *Registry) {
		r.newID = gen
	}
}

// New creates a registry holding a copy of habits
func New(habits []models.Habit, opts ...Option) *Registry {
	r := &Registry{
		habits: append([]models.Habit(nil), habits...),
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewDefault creates a registry seeded with the starter habits
func NewDefault(opts ...Option) *Registry {
	return New(models.DefaultHabits(), opts...)
}

// Habits returns a copy of the habits in insertion order
func (r *Registry) Habits() []models.Habit {
	return append([]models.Habit(nil), r.habits...)
}

// Len returns the number of habits
func (r *Registry) Len() int {
	return len(r.habits)
}

// Get returns the habit with id
func (r *Registry) Get(id string) (models.Habit, bool) {
	if i := r.index(id); i >= 0 {
		return r.habits[i], true
	}
	return models.Habit{}, false
}

// Add appends a new inactive habit. It reports false and leaves the registry
// unchanged when name is blank after trimming.
func (r *Registry) Add(name string, habitType models.HabitType, weight float64) (models.Habit, bool) {
	if strings.TrimSpace(name) == "" {
		return models.Habit{}, false
	}
	h := models.Habit{
		ID:     r.newID(),
		Name:   name,
		Weight: weight,
		Type:   habitType,
		Status: habitType.InactiveStatus(),
	}
	r.habits = append(r.habits, h)
	return h, true
}

// Remove deletes the habit with id. Removing an absent id is a no-op.
func (r *Registry) Remove(id string) bool {
	i := r.index(id)
	if i < 0 {
		return false
	}
	r.habits = append(r.habits[:i], r.habits[i+1:]...)
	return true
}

// Toggle flips the habit between its type's active and inactive status.
func (r *Registry) Toggle(id string) (models.Habit, bool) {
	i := r.index(id)
	if i < 0 {
		return models.Habit{}, false
	}
	h := &r.habits[i]
	if h.Status == h.Type.ActiveStatus() {
		h.Status = h.Type.InactiveStatus()
	} else {
		h.Status = h.Type.ActiveStatus()
	}
	return *h, true
}

func (r *Registry) index(id string) int {
	for i := range r.habits {
		if r.habits[i].ID == id {
			return i
		}
	}
	return -1
}
