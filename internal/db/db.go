// Package db opens the shared Postgres pool and creates the schema.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"worklane/internal/config"
)

// Connect opens a pool and verifies the database is reachable.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Table is a store that can create its own tables.
type Table interface {
	EnsureTable(ctx context.Context) error
}

// Named labels a Table for error messages.
type Named struct {
	Name  string
	Table Table
}

// EnsureSchema creates the tables in the given order; referenced tables
// must come first.
func EnsureSchema(ctx context.Context, tables ...Named) error {
	for _, t := range tables {
		if err := t.Table.EnsureTable(ctx); err != nil {
			return fmt.Errorf("ensure %s table: %w", t.Name, err)
		}
	}
	return nil
}
