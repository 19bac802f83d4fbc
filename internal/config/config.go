package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/ulule/limiter/v3"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	// DefaultRateLimit is the per-client request rate in limiter format
	DefaultRateLimit = "100-M"
	// DefaultStoreKey is the key the habit registry is stored under
	DefaultStoreKey = "trajectory_matrix"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	FrontendURL     string
	EnableHSTS      bool
	StoreBackend    string
	StoreKey        string
	RedisURL        string
	DatabaseURL     string
	AIProvider      string
	GeminiAPIKey    string
	OpenAIKey       string
	AIModel         string
	AIBaseURL       string
	AITimeout       time.Duration
	RabbitMQURL     string
	RateLimit       string
	ServerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
}

// Load loads configuration from environment variables. Values from the .env
// file named by TRAJECTORY_ENV (default ".env") are applied first and never
// override variables already set in the environment.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:      getEnvBool("ENABLE_HSTS", false),
		StoreBackend:    getEnv("STORE_BACKEND", BackendMemory),
		StoreKey:        getEnv("STORE_KEY", DefaultStoreKey),
		RedisURL:        getEnv("REDIS_URL", ""),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		AIProvider:      getEnv("AI_PROVIDER", ProviderGemini),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
		AIModel:         getEnv("AI_MODEL", ""),
		AIBaseURL:       getEnv("AI_BASE_URL", ""),
		AITimeout:       getEnvDuration("AI_TIMEOUT", 90*time.Second),
		RabbitMQURL:     getEnv("RABBITMQ_URL", ""),
		RateLimit:       getEnv("RATE_LIMIT", DefaultRateLimit),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the selected backends have what they need
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORE_BACKEND=redis")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q (must be memory, redis, or postgres)", c.StoreBackend)
	}

	if c.AIProvider != ProviderGemini && c.AIProvider != ProviderOpenAI {
		return fmt.Errorf("invalid AI_PROVIDER %q (must be gemini or openai)", c.AIProvider)
	}

	if c.StoreKey == "" {
		return fmt.Errorf("STORE_KEY must not be empty")
	}

	if _, err := limiter.NewRateFromFormatted(c.RateLimit); err != nil {
		return fmt.Errorf("invalid RATE_LIMIT %q: %w", c.RateLimit, err)
	}

	return nil
}

// AIAPIKey returns the API key for the selected provider
func (c *Config) AIAPIKey() string {
	if c.AIProvider == ProviderOpenAI {
		return c.OpenAIKey
	}
	return c.GeminiAPIKey
}

// AIEnabled reports whether an API key is configured for the selected provider
func (c *Config) AIEnabled() bool {
	return c.AIAPIKey() != ""
}

func loadDotEnv() error {
	file := getEnv("TRAJECTORY_ENV", ".env")
	if err := godotenv.Load(file); err != nil {
		// A missing default file is normal; a missing explicit one is not
		if errors.Is(err, fs.ErrNotExist) && os.Getenv("TRAJECTORY_ENV") == "" {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", file, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		// Bare numbers are seconds
		if secs := getEnvInt(key, -1); secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
