package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"
)

var (
	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = errors.New("no choices in response")
	// ErrEmptyResponse is returned when the API response carries no text
	ErrEmptyResponse = errors.New("empty response")
)

// APIError represents an error from the AI provider API
type APIError struct {
	Provider    string
	Message     string
	Type        string
	Code        string
	StatusCode  int
	RetryAfter  *time.Duration
	IsPermanent bool // true for quota errors, false for rate limits
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d, type %s): %s", e.Provider, e.StatusCode, e.Type, e.Message)
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests && !apiErr.IsPermanent
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

// IsQuotaError checks if an error is a quota exhaustion error
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsPermanent
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "insufficient_quota") ||
		strings.Contains(errStr, "resource_exhausted") ||
		strings.Contains(errStr, "billing")
}

// ExtractAPIError converts an SDK error from either provider into an APIError.
// It returns nil when err is not an API error.
func ExtractAPIError(err error) *APIError {
	if err == nil {
		return nil
	}

	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) {
		apiErr := &APIError{
			Provider:   ProviderOpenAI,
			Message:    oaiErr.Message,
			Type:       oaiErr.Type,
			Code:       oaiErr.Code,
			StatusCode: oaiErr.StatusCode,
		}
		apiErr.IsPermanent = oaiErr.Code == "insufficient_quota"
		setRetryAfter(apiErr)
		return apiErr
	}

	var gErr genai.APIError
	if errors.As(err, &gErr) {
		apiErr := &APIError{
			Provider:   ProviderGemini,
			Message:    gErr.Message,
			Type:       gErr.Status,
			Code:       gErr.Status,
			StatusCode: gErr.Code,
		}
		// Gemini reports both per-minute limits and exhausted billing quota as RESOURCE_EXHAUSTED
		apiErr.IsPermanent = gErr.Status == "RESOURCE_EXHAUSTED" && strings.Contains(strings.ToLower(gErr.Message), "billing")
		setRetryAfter(apiErr)
		return apiErr
	}

	return nil
}

func setRetryAfter(apiErr *APIError) {
	if apiErr.StatusCode != http.StatusTooManyRequests {
		return
	}
	retryAfter := 60 * time.Second
	if apiErr.IsPermanent {
		retryAfter = time.Hour
	}
	apiErr.RetryAfter = &retryAfter
}

// wrapProviderError wraps err with operation context, preferring the classified APIError
func wrapProviderError(op string, err error) error {
	if apiErr := ExtractAPIError(err); apiErr != nil {
		return fmt.Errorf("failed to %s: %w", op, apiErr)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
