package ai

import (
	"github.com/benvon/trajectory/internal/models"
	"github.com/benvon/trajectory/internal/momentum"
)

// BuildAnalysisRequest strips provenance from the habits: polarity is folded
// into the sign of the weight and status becomes completed or missed.
func BuildAnalysisRequest(history []models.HistoryPoint, habits []models.Habit) *models.AnalysisRequest {
	matrix := make([]models.MatrixEntry, 0, len(habits))
	for _, h := range habits {
		status := models.MatrixMissed
		if momentum.IsActive(h) {
			status = models.MatrixCompleted
		}
		matrix = append(matrix, models.MatrixEntry{
			Name:   h.Name,
			Weight: momentum.SignedWeight(h),
			Status: status,
		})
	}

	return &models.AnalysisRequest{
		YesterdayFinalScore:    momentum.Baseline(history),
		HistoricalAverageSlope: momentum.Slope(history),
		CurrentMatrix:          matrix,
	}
}
