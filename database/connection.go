package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the pgx connection pool shared by the repositories and the
// migration runner. Repositories take the pool (or a transaction) behind a
// small query interface; the pool itself lives here.
type DB struct {
	*pgxpool.Pool
}

// NewConnection opens the pool against the pipeline database and verifies
// it is reachable before anything starts writing run evidence
func NewConnection(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Fail at startup rather than on the first batch
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close releases the pool and all its connections
func (db *DB) Close() {
	db.Pool.Close()
}
