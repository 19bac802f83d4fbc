// Package bootstrap builds the runtime dependencies shared by the server, the worker and the CLI.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/trajectory/internal/config"
	"github.com/benvon/trajectory/internal/database"
	"github.com/benvon/trajectory/internal/queue"
	"github.com/benvon/trajectory/internal/services/ai"
	"github.com/benvon/trajectory/internal/storage"
	"go.uber.org/zap"
)

// Retry settings for the RabbitMQ connection, which is often still starting when we are
const (
	DefaultConnectAttempts = 10
	initialRetryDelay      = 2 * time.Second
	maxRetryDelay          = 30 * time.Second
)

// OpenStore opens the snapshot store selected by cfg.StoreBackend
func OpenStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		store, err := storage.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendPostgres:
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		repo := database.NewSnapshotRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = repo.Close()
			return nil, err
		}
		return repo, nil
	case config.BackendMemory, "":
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}

// NewAnalyzer returns the configured AI provider, or nil when no API key is set
func NewAnalyzer(ctx context.Context, cfg *config.Config, log *zap.Logger, debugMode bool) (ai.Analyzer, error) {
	if !cfg.AIEnabled() {
		return nil, nil
	}
	return ai.NewDefaultRegistry(log).GetProvider(ctx, cfg.AIProvider, ai.ProviderConfig{
		APIKey:    cfg.AIAPIKey(),
		Model:     cfg.AIModel,
		BaseURL:   cfg.AIBaseURL,
		DebugMode: debugMode,
	})
}

// Dialer opens a RabbitMQ publisher
type Dialer func(url string) (*queue.RabbitMQPublisher, error)

// ConnectPublisher dials RabbitMQ with exponential backoff. It gives up after
// attempts tries or when ctx ends.
func ConnectPublisher(ctx context.Context, url string, attempts int, dial Dialer, log *zap.Logger) (*queue.RabbitMQPublisher, error) {
	if dial == nil {
		dial = queue.NewRabbitMQPublisher
	}
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		publisher, err := dial(url)
		if err == nil {
			log.Info("connected_to_rabbitmq")
			return publisher, nil
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}

		delay := retryDelay(attempt)
		log.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", attempts),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, lastErr)
}

// NewPublisher returns a RabbitMQ publisher when RABBITMQ_URL is set and a no-op one otherwise
func NewPublisher(ctx context.Context, cfg *config.Config, log *zap.Logger) (queue.EventPublisher, error) {
	if cfg.RabbitMQURL == "" {
		return queue.NopPublisher{}, nil
	}
	publisher, err := ConnectPublisher(ctx, cfg.RabbitMQURL, DefaultConnectAttempts, nil, log)
	if err != nil {
		return nil, err
	}
	return publisher, nil
}

func retryDelay(attempt int) time.Duration {
	if attempt >= 5 {
		return maxRetryDelay
	}
	delay := initialRetryDelay * time.Duration(1<<uint(attempt))
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}
