// Package momentum scores a day's habits and compares the score against a baseline.
package momentum

import "github.com/benvon/trajectory/internal/models"

// Verdict is the comparison of today's momentum against yesterday's
type Verdict string

const (
	VerdictBetter   Verdict = "better"
	VerdictWorse    Verdict = "worse"
	VerdictStagnant Verdict = "stagnant"
)

// DefaultSlope is the trend handed to the enrichment service when history has fewer than two points
const DefaultSlope = 0.15

// TodayLabel labels the final point of a trajectory
const TodayLabel = "Today"

// IsActive reports whether a habit counts toward today's score
func IsActive(h models.Habit) bool {
	return h.Status == models.HabitStatusDone || h.Status == models.HabitStatusFailed
}

// Contribution returns the signed contribution of a habit, or 0 when it is inactive
func Contribution(h models.Habit) float64 {
	if !IsActive(h) {
		return 0
	}
	return SignedWeight(h)
}

// SignedWeight folds the habit's polarity into the sign of its weight
func SignedWeight(h models.Habit) float64 {
	if h.Type == models.HabitTypeGood {
		return h.Weight
	}
	return -h.Weight
}

// Local sums the signed weights of active habits. Weights are not rounded.
func Local(habits []models.Habit) float64 {
	var total float64
	for _, h := range habits {
		total += Contribution(h)
	}
	return total
}

// Classify compares score with baseline using exact equality for stagnant.
// Near-equal scores that differ only by float rounding classify as better or worse.
func Classify(score, baseline float64) Verdict {
	switch {
	case score > baseline:
		return VerdictBetter
	case score < baseline:
		return VerdictWorse
	default:
		return VerdictStagnant
	}
}

// Baseline returns yesterday's final score, or 0 for an empty history
func Baseline(history []models.HistoryPoint) float64 {
	if len(history) == 0 {
		return 0
	}
	return history[len(history)-1].Momentum
}

// Slope returns (last - first) / len over the history
func Slope(history []models.HistoryPoint) float64 {
	if len(history) < 2 {
		return DefaultSlope
	}
	first := history[0].Momentum
	last := history[len(history)-1].Momentum
	return (last - first) / float64(len(history))
}

// Trajectory appends today's score to a copy of the history
func Trajectory(history []models.HistoryPoint, today float64) []models.HistoryPoint {
	series := make([]models.HistoryPoint, 0, len(history)+1)
	series = append(series, history...)
	return append(series, models.HistoryPoint{Date: TodayLabel, Momentum: today})
}
