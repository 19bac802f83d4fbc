package ai

import (
	"context"
	"fmt"
	"sort"

	"github.com/benvon/trajectory/internal/models"
)

// Analyzer produces an enrichment for today's habit matrix.
// Implementations pass the collaborator's verdict, risk, and narrative through untouched.
type Analyzer interface {
	AnalyzeMomentum(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface
type AnalyzerFunc func(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error)

// AnalyzeMomentum calls f
func (f AnalyzerFunc) AnalyzeMomentum(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	return f(ctx, req)
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ProviderConfig carries the settings a provider factory needs
type ProviderConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	DebugMode bool
}

// ProviderFactory creates an Analyzer from configuration
type ProviderFactory func(ctx context.Context, cfg ProviderConfig) (Analyzer, error)

// ProviderRegistry stores available AI providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// Names returns the registered provider names in sorted order
func (r *ProviderRegistry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetProvider creates the named provider
func (r *ProviderRegistry) GetProvider(ctx context.Context, name string, cfg ProviderConfig) (Analyzer, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key not configured", name)
	}
	return factory(ctx, cfg)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}
