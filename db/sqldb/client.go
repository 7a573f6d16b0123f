package sqldb

import (
	"context"
	"errors"
)

var ErrNoRows = errors.New("sqldb: no rows in result set")

type Client interface {
	Init() error
	Close() error
	GetConf() *Conf
	Ping(ctx context.Context) error
	Handle // Methods required for Handle are also required, so, promote it
	// RawStmt returns a statement of the embedded raw SQL store, already in this dialect
	RawStmt(key string) (string, error)
}

type Handle interface {
	// Exec executes SQL statement like INSERT, UPDATE, DELETE.
	Exec(ctx context.Context, query string, args ...any) (Result, error)

	QueryRows(ctx context.Context, query string, args ...any) (Rows, error) // Eager. Fail upfront on statement execution
	QueryRow(ctx context.Context, query string, args ...any) Row            // Lazy. only fails at Scan()

	// InsertStmt - Single INSERT statement, placeholders only
	// to guarantee Result.LastInsertId() works for auto-increment `id`
	InsertStmt(ctx context.Context, query string, args ...any) (Result, error)
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

type Row interface {
	Scan(dest ...any) error
}

type Result interface {
	RowsAffected() (int64, error)
	LastInsertId() (int64, error)
}
