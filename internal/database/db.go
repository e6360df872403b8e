package database

import "context"

// DB is the single-item-atomic storage handle. There is deliberately no
// transaction surface here: cross-entity consistency in this system comes
// from operation ordering and idempotent retries, never from multi-record
// transactions, and nothing should be able to reach for one.
type DB interface {
	Ping(ctx context.Context) error
	Close() error

	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
}

type Rows interface {
	Close()
	Next() bool
	Scan(dest ...any) error
	Err() error
}

type Row interface {
	Scan(dest ...any) error
}
