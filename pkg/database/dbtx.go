package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the query surface shared by *pgxpool.Pool, pgx.Tx and pgxmock.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Provider hands out a ready DBTX and accepts failures that may mean the
// underlying connection pool is no longer usable.
type Provider interface {
	DB(ctx context.Context) (DBTX, error)
	// Invalidate reports whether err caused the pool to be discarded.
	Invalidate(err error) bool
}

type staticProvider struct {
	db DBTX
}

// Static wraps an already connected DBTX. Invalidate is a no-op.
func Static(db DBTX) Provider {
	return staticProvider{db: db}
}

func (p staticProvider) DB(context.Context) (DBTX, error) { return p.db, nil }

func (staticProvider) Invalidate(error) bool { return false }
