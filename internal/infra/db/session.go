package db

import (
	"context"
	"database/sql"
)

// Querier is the slice of database/sql the repositories actually use.
// Both *sql.DB and *sql.Conn satisfy it.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithSession checks a single connection out of the pool, hands it to fn and
// returns it on every exit path, including a panic unwinding through fn.
// Repositories scope each operation in one session so a request never pins
// more than one connection.
func WithSession(ctx context.Context, pool *sql.DB, fn func(q Querier) error) error {
	conn, err := pool.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(conn)
}
