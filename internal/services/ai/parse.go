package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/benvon/trajectory/internal/models"
	"github.com/benvon/trajectory/internal/validation"
)

// ErrInvalidAnalysis wraps every schema violation in a collaborator response
var ErrInvalidAnalysis = errors.New("invalid analysis response")

var requiredAnalysisFields = []string{
	"verdict_header",
	"daily_momentum",
	"slope_gradient",
	"risk_assessment",
	"projection_30_days",
	"ai_summary",
}

// ParseAnalysisResult decodes a collaborator response into an AnalysisResult.
// Unknown fields, missing fields, trailing data, and out-of-range enums all fail the call.
func ParseAnalysisResult(content string) (*models.AnalysisResult, error) {
	raw := bytes.TrimSpace([]byte(content))
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidAnalysis)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnalysis, err)
	}
	for _, name := range requiredAnalysisFields {
		v, ok := fields[name]
		if !ok || bytes.Equal(v, []byte("null")) {
			return nil, fmt.Errorf("%w: missing field %s", ErrInvalidAnalysis, name)
		}
	}

	var result models.AnalysisResult
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnalysis, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after object", ErrInvalidAnalysis)
	}

	if err := validation.Validate.Struct(result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnalysis, err)
	}

	return &result, nil
}
