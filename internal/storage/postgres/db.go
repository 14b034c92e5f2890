// Package postgres is the audit store: one form_submissions table behind a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	poolMaxConns    = 5
	poolMaxLifetime = 30 * time.Minute
	poolHealthCheck = 30 * time.Second
	connectTimeout  = 5 * time.Second
)

// ErrSchemaMissing means the database answers but form_submissions does not exist.
var ErrSchemaMissing = errors.New("postgres: form_submissions table missing")

const auditTableExists = `SELECT to_regclass('form_submissions') IS NOT NULL`

type DB struct {
	Pool *pgxpool.Pool
}

// Connect opens a small pool sized for request-scoped audit inserts and pings it.
func Connect(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = poolMaxConns
	cfg.MaxConnLifetime = poolMaxLifetime
	cfg.HealthCheckPeriod = poolHealthCheck

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping audit store: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Ready is the health probe: the pool answers and the audit table exists.
func (db *DB) Ready(ctx context.Context) error {
	return auditTableReady(ctx, db.Pool)
}

// RunMigration applies the schema file and confirms form_submissions is in place.
func (db *DB) RunMigration(ctx context.Context, path string) error {
	ddl, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := db.Pool.Exec(ctx, string(ddl)); err != nil {
		return fmt.Errorf("apply %s: %w", path, err)
	}
	return auditTableReady(ctx, db.Pool)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func auditTableReady(ctx context.Context, q rowQuerier) error {
	var exists bool
	if err := q.QueryRow(ctx, auditTableExists).Scan(&exists); err != nil {
		return fmt.Errorf("audit table check: %w", err)
	}
	if !exists {
		return ErrSchemaMissing
	}
	return nil
}
