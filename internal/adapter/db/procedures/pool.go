package procedures

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// NewPool creates a PostgreSQL connection pool and verifies it with a ping.
// Pool limits are read from the DSN (pool_max_conns, pool_max_conn_lifetime, ...).
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("procedures: parse config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("procedures: new pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("procedures: ping: %w", err)
	}

	return pool, nil
}

// Migrate applies the users table and its stored functions.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	// No arguments, so pgx sends this over the simple protocol and the
	// multi-statement script runs in one round trip.
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("procedures: apply schema: %w", err)
	}
	return nil
}
