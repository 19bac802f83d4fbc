package models

// SlopeGradient classifies the trend reported by the enrichment service
type SlopeGradient string

const (
	SlopeClimbing  SlopeGradient = "climbing"
	SlopeFlat      SlopeGradient = "flat"
	SlopeDeclining SlopeGradient = "declining"
)

// RiskLevel classifies the risk reported by the enrichment service
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// AnalysisResult is the externally produced interpretation of today's momentum.
// It replaces the locally computed score and verdict once received. The free
// text fields may be empty; only the enums are range checked.
type AnalysisResult struct {
	VerdictHeader    string        `json:"verdict_header"`
	DailyMomentum    float64       `json:"daily_momentum"`
	SlopeGradient    SlopeGradient `json:"slope_gradient" validate:"required,oneof=climbing flat declining"`
	RiskAssessment   RiskLevel     `json:"risk_assessment" validate:"required,oneof=low moderate high"`
	Projection30Days string        `json:"projection_30_days"`
	AISummary        string        `json:"ai_summary"`
}

// MatrixStatus is the polarity-free completion flag sent to the enrichment service
type MatrixStatus string

const (
	MatrixCompleted MatrixStatus = "completed"
	MatrixMissed    MatrixStatus = "missed"
)

// MatrixEntry is a habit with its polarity folded into the sign of Weight
type MatrixEntry struct {
	Name   string       `json:"name"`
	Weight float64      `json:"weight"`
	Status MatrixStatus `json:"status"`
}

// AnalysisRequest is the input context handed to the enrichment service
type AnalysisRequest struct {
	YesterdayFinalScore    float64       `json:"yesterday_final_score"`
	HistoricalAverageSlope float64       `json:"historical_average_slope"`
	CurrentMatrix          []MatrixEntry `json:"current_matrix"`
}
