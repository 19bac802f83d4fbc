package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/benvon/trajectory/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	if err := Validate.RegisterValidation("habit_type", validateHabitType); err != nil {
		panic(fmt.Sprintf("failed to register habit_type validator: %v", err))
	}
	if err := Validate.RegisterValidation("habit_status", validateHabitStatus); err != nil {
		panic(fmt.Sprintf("failed to register habit_status validator: %v", err))
	}
}

// validateHabitType validates that a string is a valid HabitType enum value
func validateHabitType(fl validator.FieldLevel) bool {
	return models.HabitType(fl.Field().String()).Valid()
}

// validateHabitStatus validates that a string is one of the four habit statuses
func validateHabitStatus(fl validator.FieldLevel) bool {
	switch models.HabitStatus(fl.Field().String()) {
	case models.HabitStatusDone, models.HabitStatusMissed, models.HabitStatusPassed, models.HabitStatusFailed:
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateHabitType validates a HabitType string value
func ValidateHabitType(value string) error {
	if !models.HabitType(value).Valid() {
		return fmt.Errorf("invalid type: %s (must be 'good' or 'bad')", value)
	}
	return nil
}

// ValidateWeight validates a habit weight
func ValidateWeight(weight float64) error {
	if weight < 1 || weight > 5 {
		return fmt.Errorf("invalid weight: %g (must be between 1 and 5)", weight)
	}
	return nil
}
