// Package dbx holds the storage plumbing shared by the repositories: the
// DBTX interface that lets a query run against either a plain connection
// or an open transaction, and WithTx for transactional sections.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the query surface the repositories need. Both *sql.DB and
// *sql.Tx satisfy it, so repository methods can be composed into larger
// transactions without knowing about them.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction: commit if fn returns nil, roll
// back if it returns an error or panics. Panics are rethrown after the
// rollback.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
