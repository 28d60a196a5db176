package store

import (
	"context"
	"database/sql"
)

// DBTX is the subset of *sql.DB / *sql.Tx the query methods need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries exposes all database operations. Methods are safe for
// concurrent use when backed by *sql.DB.
type Queries struct {
	db DBTX
}

// New creates a Queries instance backed by the given database handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries instance that runs against the given
// transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}
