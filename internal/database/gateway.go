package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// DBTX is the statement surface shared by *sql.DB and *sql.Tx. Repository
// methods that must run inside a caller's transaction take one of these.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx is an open transaction.
type Tx interface {
	DBTX
	Commit() error
	Rollback() error
}

// Gateway owns the connection pool for the lifetime of the process. It is
// built once at startup, handed to whoever needs storage and closed at
// shutdown.
type Gateway struct {
	db        *sql.DB
	isolation sql.IsolationLevel
}

// NewGateway wraps an open pool. Transactions started through the gateway
// use the given isolation level.
func NewGateway(db *sql.DB, isolation sql.IsolationLevel) *Gateway {
	return &Gateway{db: db, isolation: isolation}
}

// DB exposes the pool for repositories.
func (g *Gateway) DB() *sql.DB { return g.db }

// Begin opens a transaction bound to ctx. Cancelling ctx rolls it back.
func (g *Gateway) Begin(ctx context.Context) (Tx, error) {
	tx, err := g.db.BeginTx(ctx, &sql.TxOptions{Isolation: g.isolation})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return tx, nil
}

// Ping checks the pool with a short timeout.
func (g *Gateway) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return g.db.PingContext(ctx)
}

// Close releases the pool.
func (g *Gateway) Close() error { return g.db.Close() }

// ParseIsolation maps a config value to an isolation level. Read committed
// is the floor: every re-check inside a booking transaction must see rows
// committed by concurrent bookings after the transaction began.
func ParseIsolation(s string) (sql.IsolationLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "read_committed", "read-committed":
		return sql.LevelReadCommitted, nil
	case "repeatable_read", "repeatable-read":
		return sql.LevelRepeatableRead, nil
	case "serializable":
		return sql.LevelSerializable, nil
	}
	return 0, fmt.Errorf("unsupported transaction isolation %q", s)
}
