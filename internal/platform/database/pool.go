// Package database opens the PostgreSQL pool shared by the registry and
// audit stores.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Pool sizing for the registry workload: reads dominate, and all writes are
// serialized upstream, so a modest pool suffices.
const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
	openPingTimeout = 5 * time.Second
)

// Pool wraps the registry's *sql.DB so readiness checks and shutdown have a
// single owner.
type Pool struct {
	db *sql.DB
}

// Open connects to PostgreSQL and verifies the connection. An empty URL
// means the deployment runs on the in-memory stores; Open returns nil, nil
// so callers can branch on it.
func Open(url string) (*Pool, error) {
	if url == "" {
		return nil, nil
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), openPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Pool{db: db}, nil
}

// DB exposes the underlying handle for the stores and migrations.
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Health reports whether the database is reachable.
func (p *Pool) Health(ctx context.Context) error {
	if p == nil || p.db == nil {
		return fmt.Errorf("database not configured")
	}
	return p.db.PingContext(ctx)
}

func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
