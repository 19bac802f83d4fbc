package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis implements the subset of redis.Cmdable used by RedisStore
type fakeRedis struct {
	redis.Cmdable
	values  map[string]string
	failSet bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: make(map[string]string)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)
	if v, ok := f.values[key]; ok {
		cmd.SetVal(v)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key, value)
	if f.failSet {
		cmd.SetErr(errors.New("READONLY You can't write against a read only replica"))
		return cmd
	}
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "ping")
	cmd.SetVal("PONG")
	return cmd
}

func TestStores_GetSet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		store func() Store
	}{
		{"memory", func() Store { return NewMemoryStore() }},
		{"redis", func() Store { return NewRedisStoreWithClient(newFakeRedis()) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := tt.store()
			defer func() {
				_ = store.Close() // Ignore error in test
			}()

			if _, err := store.Get(ctx, DefaultKey); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Expected ErrNotFound for missing key, got %v", err)
			}

			if err := store.Set(ctx, DefaultKey, []byte(`[{"id":"1"}]`)); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			got, err := store.Get(ctx, DefaultKey)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(got) != `[{"id":"1"}]` {
				t.Errorf("Get() = %s, want stored value", got)
			}

			if err := store.Set(ctx, DefaultKey, []byte(`[]`)); err != nil {
				t.Fatalf("Set() overwrite error = %v", err)
			}
			got, _ = store.Get(ctx, DefaultKey)
			if string(got) != `[]` {
				t.Errorf("Get() after overwrite = %s, want []", got)
			}

			if err := store.Ping(ctx); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
		})
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	value := []byte("abc")
	if err := store.Set(ctx, "k", value); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value[0] = 'z'

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "abc" {
		t.Errorf("Expected stored value to be isolated from caller, got %s", got)
	}
}

func TestRedisStore_SetError(t *testing.T) {
	t.Parallel()

	fake := newFakeRedis()
	fake.failSet = true
	store := NewRedisStoreWithClient(fake)

	if err := store.Set(context.Background(), DefaultKey, []byte("[]")); err == nil {
		t.Error("Expected error when Redis rejects the write")
	}
	if store.Client() != nil {
		t.Error("Expected Client() to be nil for a non *redis.Client")
	}
}

func TestNewRedisStore_InvalidURL(t *testing.T) {
	t.Parallel()

	if _, err := NewRedisStore("not-a-redis-url"); err == nil {
		t.Error("Expected error for invalid Redis URL")
	}
}
