package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/trajectory/internal/models"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	// DefaultGeminiModel is the default Gemini model
	DefaultGeminiModel = "gemini-3-pro-preview"
	// DefaultThinkingBudget caps the tokens the model may spend reasoning before it answers
	DefaultThinkingBudget int32 = 2000
)

// GeminiProvider implements Analyzer using the Gemini API with a response schema
type GeminiProvider struct {
	client    *genai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewGeminiProvider creates a Gemini provider. baseURL overrides the API endpoint when set.
func NewGeminiProvider(ctx context.Context, apiKey, baseURL, model string, logger *zap.Logger, debugMode bool) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}, nil
}

// analysisSchema mirrors models.AnalysisResult so the model can only answer in that shape
func analysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"verdict_header":     {Type: genai.TypeString},
			"daily_momentum":     {Type: genai.TypeNumber},
			"slope_gradient":     {Type: genai.TypeString, Enum: []string{string(models.SlopeClimbing), string(models.SlopeFlat), string(models.SlopeDeclining)}},
			"risk_assessment":    {Type: genai.TypeString, Enum: []string{string(models.RiskLow), string(models.RiskModerate), string(models.RiskHigh)}},
			"projection_30_days": {Type: genai.TypeString},
			"ai_summary":         {Type: genai.TypeString},
		},
		Required: append([]string(nil), requiredAnalysisFields...),
	}
}

func generateConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(momentumSystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    analysisSchema(),
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(DefaultThinkingBudget),
		},
	}
}

// AnalyzeMomentum asks Gemini for a schema-constrained analysis
func (p *GeminiProvider) AnalyzeMomentum(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	prompt, err := BuildMomentumPrompt(req)
	if err != nil {
		return nil, err
	}

	requestID := ExtractRequestID(ctx)
	if p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "analyze_momentum"),
			zap.String("provider", ProviderGemini),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.Int("habit_count", len(req.CurrentMatrix)),
			zap.String("prompt_preview", SanitizePrompt(prompt, true)),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), generateConfig())
	latency := time.Since(start)
	if err != nil {
		if p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", "analyze_momentum"),
				zap.String("provider", ProviderGemini),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		return nil, wrapProviderError("analyze momentum", err)
	}

	content := resp.Text()
	if content == "" {
		return nil, ErrEmptyResponse
	}

	if p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "analyze_momentum"),
			zap.String("provider", ProviderGemini),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return ParseAnalysisResult(content)
}

// RegisterGemini registers the Gemini provider with the registry
func RegisterGemini(registry *ProviderRegistry, logger *zap.Logger) {
	registry.Register(ProviderGemini, func(ctx context.Context, cfg ProviderConfig) (Analyzer, error) {
		return NewGeminiProvider(ctx, cfg.APIKey, cfg.BaseURL, cfg.Model, logger, cfg.DebugMode)
	})
}

// NewDefaultRegistry returns a registry with every built-in provider registered
func NewDefaultRegistry(logger *zap.Logger) *ProviderRegistry {
	registry := NewProviderRegistry()
	RegisterGemini(registry, logger)
	RegisterOpenAI(registry, logger)
	return registry
}
