// Package syncserver implements the remote side of sync: one JSON
// snapshot per email, upserted whole. It is a plain key-value API, not a
// real-time or multi-writer protocol.
package syncserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists per-email snapshots.
type Store interface {
	// Get returns the stored snapshot for email, or nil when absent.
	Get(ctx context.Context, email string) (json.RawMessage, error)
	// Put inserts or replaces the snapshot for email.
	Put(ctx context.Context, email string, data json.RawMessage) error
}

const storageSchema = `
CREATE TABLE IF NOT EXISTS user_storage (
    email TEXT PRIMARY KEY,
    data JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// PostgresStore keeps snapshots in a user_storage table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := pool.Exec(ctx, storageSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Get returns the stored snapshot for email, or nil when absent.
func (s *PostgresStore) Get(ctx context.Context, email string) (json.RawMessage, error) {
	var data json.RawMessage
	err := s.pool.QueryRow(ctx, `SELECT data FROM user_storage WHERE email = $1`, email).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot for %s: %w", email, err)
	}
	return data, nil
}

// Put inserts or replaces the snapshot for email.
func (s *PostgresStore) Put(ctx context.Context, email string, data json.RawMessage) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_storage (email, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (email)
		DO UPDATE SET data = $2, updated_at = NOW()
	`, email, data)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot for %s: %w", email, err)
	}
	return nil
}
