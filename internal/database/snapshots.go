package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/trajectory/internal/storage"
)

const createSnapshotsTable = `
	CREATE TABLE IF NOT EXISTS kv_snapshots (
		snapshot_key TEXT PRIMARY KEY,
		value        BYTEA NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)
`

// SnapshotRepository stores serialized snapshots in a single key-value table
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

var _ storage.Store = (*SnapshotRepository)(nil)

// EnsureSchema creates the snapshot table if it does not exist
func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createSnapshotsTable); err != nil {
		return fmt.Errorf("create kv_snapshots table: %w", err)
	}
	return nil
}

// Get retrieves the snapshot stored under key
func (r *SnapshotRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT value FROM kv_snapshots WHERE snapshot_key = $1
	`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", key, err)
	}
	return value, nil
}

// Set upserts the snapshot stored under key
func (r *SnapshotRepository) Set(ctx context.Context, key string, value []byte) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv_snapshots (snapshot_key, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (snapshot_key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`, key, value, now, now)
	if err != nil {
		return fmt.Errorf("set snapshot %s: %w", key, err)
	}
	return nil
}

// Ping verifies the database connection
func (r *SnapshotRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the connection pool
func (r *SnapshotRepository) Close() error {
	return r.db.Close()
}
