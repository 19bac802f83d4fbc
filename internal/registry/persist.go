package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/benvon/trajectory/internal/logger"
	"github.com/benvon/trajectory/internal/models"
	"github.com/benvon/trajectory/internal/storage"
	"go.uber.org/zap"
)

// ErrMalformedSnapshot is returned by Decode when stored data does not describe a valid registry
var ErrMalformedSnapshot = errors.New("malformed registry snapshot")

// Encode serializes the full ordered habit sequence
func (r *Registry) Encode() ([]byte, error) {
	habits := r.habits
	if habits == nil {
		habits = []models.Habit{}
	}
	data, err := json.Marshal(habits)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal registry: %w", err)
	}
	return data, nil
}

// Decode restores a registry from its serialized form. Every habit must have a
// unique non-blank id, a non-blank name, and a status that belongs to its type.
func Decode(data []byte, opts ...Option) (*Registry, error) {
	var habits []models.Habit
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&habits); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if habits == nil {
		return nil, fmt.Errorf("%w: not a habit array", ErrMalformedSnapshot)
	}

	seen := make(map[string]bool, len(habits))
	for i, h := range habits {
		switch {
		case strings.TrimSpace(h.ID) == "":
			return nil, fmt.Errorf("%w: habit %d has no id", ErrMalformedSnapshot, i)
		case seen[h.ID]:
			return nil, fmt.Errorf("%w: duplicate id %q", ErrMalformedSnapshot, h.ID)
		case strings.TrimSpace(h.Name) == "":
			return nil, fmt.Errorf("%w: habit %q has no name", ErrMalformedSnapshot, h.ID)
		case !h.Type.Valid():
			return nil, fmt.Errorf("%w: habit %q has type %q", ErrMalformedSnapshot, h.ID, h.Type)
		case !h.Status.ValidFor(h.Type):
			return nil, fmt.Errorf("%w: habit %q has status %q for type %q", ErrMalformedSnapshot, h.ID, h.Status, h.Type)
		}
		seen[h.ID] = true
	}

	return New(habits, opts...), nil
}

// Load restores the registry stored under key. A missing or malformed entry
// yields the default starter habits. Any other read error is returned so a
// transient backend failure never replaces the stored habits with defaults.
func Load(ctx context.Context, store storage.Store, key string, log *zap.Logger, opts ...Option) (*Registry, error) {
	if log == nil {
		log = zap.NewNop()
	}

	data, err := store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		log.Info("registry_not_found_using_defaults", zap.String("key", key))
		return NewDefault(opts...), nil
	}
	if err != nil {
		log.Error("registry_load_failed",
			zap.String("key", key),
			zap.String("error", logger.SanitizeError(err)),
		)
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}

	r, err := Decode(data, opts...)
	if err != nil {
		log.Warn("registry_malformed_using_defaults",
			zap.String("key", key),
			zap.Int("size_bytes", len(data)),
			zap.String("error", logger.SanitizeError(err)),
		)
		return NewDefault(opts...), nil
	}

	log.Info("registry_restored", zap.String("key", key), zap.Int("habit_count", r.Len()))
	return r, nil
}

// Persist writes the full registry under key
func (r *Registry) Persist(ctx context.Context, store storage.Store, key string) error {
	data, err := r.Encode()
	if err != nil {
		return err
	}
	if err := store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to persist registry: %w", err)
	}
	return nil
}
