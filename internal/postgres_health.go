package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/eav"
)

// ValidatePostgresConfig performs basic sanity checks on Postgres-related settings.
func ValidatePostgresConfig(cfg eav.DatabaseConfig) error {
	if cfg.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if _, err := pgxpool.ParseConfig(cfg.URL); err != nil {
		return fmt.Errorf("database.url is invalid: %w", err)
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("database.maxConnections must be greater than 0")
	}
	return nil
}

// PostgresHealthCheck connects with a throwaway pool and runs a trivial query.
// timeout may be 0 to use a sensible default (5s).
func PostgresHealthCheck(ctx context.Context, dsn string, timeout time.Duration) error {
	if dsn == "" {
		return fmt.Errorf("empty dsn")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	return checkPool(ctx, pool)
}

// checkPool pings and runs SELECT 1 against an open pool.
func checkPool(ctx context.Context, pool StorePool) error {
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	if _, err := pool.Exec(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("postgres simple query failed: %w", err)
	}
	return nil
}

// HealthCheck verifies the store's own pool.
func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	pool, err := s.conn()
	if err != nil {
		return err
	}
	if err := checkPool(ctx, pool); err != nil {
		return eav.NewConnectionError(err)
	}
	return nil
}
