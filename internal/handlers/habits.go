package handlers

import (
	"errors"
	"net/http"

	"github.com/benvon/trajectory/internal/logger"
	"github.com/benvon/trajectory/internal/models"
	"github.com/benvon/trajectory/internal/session"
	"github.com/benvon/trajectory/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HabitHandler handles habit registry requests
type HabitHandler struct {
	session *session.Session
	logger  *zap.Logger
}

// NewHabitHandler creates a new habit handler
func NewHabitHandler(s *session.Session, log *zap.Logger) *HabitHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HabitHandler{session: s, logger: log}
}

// CreateHabitRequest is the body of POST /habits
type CreateHabitRequest struct {
	Name   string  `json:"name" validate:"required,max=200"`
	Type   string  `json:"type" validate:"required,habit_type"`
	Weight float64 `json:"weight" validate:"required,gte=1,lte=5"`
}

// RegisterRoutes registers habit routes
func (h *HabitHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListHabits).Methods("GET")
	r.HandleFunc("", h.CreateHabit).Methods("POST")
	r.HandleFunc("/{id}", h.DeleteHabit).Methods("DELETE")
	r.HandleFunc("/{id}/toggle", h.ToggleHabit).Methods("POST")
}

// ListHabits returns the registry in display order
func (h *HabitHandler) ListHabits(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.session.Habits())
}

// CreateHabit adds a new inactive habit
func (h *HabitHandler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	var req CreateHabitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	req.Name = validation.SanitizeText(req.Name)
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation Error", err.Error())
		return
	}

	habit, err := h.session.AddHabit(r.Context(), req.Name, models.HabitType(req.Type), req.Weight)
	if err != nil {
		if errors.Is(err, session.ErrEmptyHabitName) || errors.Is(err, session.ErrInvalidHabitType) {
			respondJSONError(w, http.StatusBadRequest, "Validation Error", err.Error())
			return
		}
		h.logger.Error("failed_to_add_habit", zap.String("error", logger.SanitizeError(err)))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to add habit")
		return
	}

	respondJSON(w, http.StatusCreated, habit)
}

// DeleteHabit removes a habit. Absent ids are not an error.
func (h *HabitHandler) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	h.session.RemoveHabit(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// ToggleResponse is the body of POST /habits/{id}/toggle. Toggled is false
// and Habit is omitted when no habit has the id.
type ToggleResponse struct {
	ID      string        `json:"id"`
	Toggled bool          `json:"toggled"`
	Habit   *models.Habit `json:"habit,omitempty"`
}

// ToggleHabit flips a habit between active and inactive. Absent ids are not an error.
func (h *HabitHandler) ToggleHabit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	habit, ok := h.session.ToggleHabit(r.Context(), id)
	if !ok {
		respondJSON(w, http.StatusOK, ToggleResponse{ID: id})
		return
	}

	respondJSON(w, http.StatusOK, ToggleResponse{ID: id, Toggled: true, Habit: &habit})
}
