package ai

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/benvon/trajectory/internal/models"
	"github.com/benvon/trajectory/internal/momentum"
)

const momentumSystemPrompt = "You are a behavioral analyst who scores daily habit matrices. Respond with valid JSON only."

// BuildMomentumPrompt renders the input context, task, and output format for the collaborator
func BuildMomentumPrompt(req *models.AnalysisRequest) (string, error) {
	input, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal analysis input: %w", err)
	}

	yesterday := strconv.FormatFloat(req.YesterdayFinalScore, 'f', -1, 64)
	slope := strconv.FormatFloat(req.HistoricalAverageSlope, 'f', -1, 64)

	var b strings.Builder
	b.WriteString("### INPUT CONTEXT\n")
	b.Write(input)
	b.WriteString("\n\n### TASK\n")
	b.WriteString("1. Calculate the 'Net Momentum Score' for today: the sum of the signed weights of every completed entry in current_matrix. Missed entries contribute nothing.\n")
	fmt.Fprintf(&b, "2. Generate the 'Better/Worse' verdict by comparing today's score to %s.\n", yesterday)
	fmt.Fprintf(&b, "   - If Today > Yesterday: %q\n", momentum.HeaderBetter)
	fmt.Fprintf(&b, "   - If Today < Yesterday: %q\n", momentum.HeaderWorse)
	fmt.Fprintf(&b, "   - If Today == Yesterday: %q\n", momentum.HeaderStagnant)
	fmt.Fprintf(&b, "3. Determine the 'Risk Level' (low/moderate/high) from the current gradient's deviation from the historical average slope of %s.\n", slope)
	b.WriteString("4. Write a 3-sentence behavioral summary in the style of a stoic philosopher focusing on the risk of these specific choices.\n")
	b.WriteString("\n### OUTPUT JSON FORMAT\n")
	b.WriteString(`{
  "verdict_header": "string",
  "daily_momentum": number,
  "slope_gradient": "climbing|flat|declining",
  "risk_assessment": "low|moderate|high",
  "projection_30_days": "string describing units of deviation",
  "ai_summary": "string"
}`)
	b.WriteString("\n")

	return b.String(), nil
}
