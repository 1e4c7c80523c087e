package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Postgres driver.
	_ "github.com/lib/pq"
)

// PostgresKV is a networked Postgres backend storing values in a single
// upsert table. Row-level upserts give atomic per-key installs.
type PostgresKV struct {
	db *sql.DB
}

// NewPostgresKV connects to Postgres and ensures the KV table exists.
func NewPostgresKV(databaseURL string) (*PostgresKV, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS postpilot_kv (
			k TEXT PRIMARY KEY,
			v BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure kv table: %w", err)
	}

	return &PostgresKV{db: db}, nil
}

// Put upserts value under key.
func (p *PostgresKV) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO postpilot_kv (k, v, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v, updated_at = now()
	`
	if _, err := p.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key.
func (p *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	query := `SELECT v FROM postpilot_kv WHERE k = $1`
	err := p.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return value, nil
}

// Delete removes key if present.
func (p *PostgresKV) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM postpilot_kv WHERE k = $1`
	if _, err := p.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// HealthCheck pings the database.
func (p *PostgresKV) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.db.PingContext(ctx)
}

// Close closes the connection pool.
func (p *PostgresKV) Close() error {
	return p.db.Close()
}
