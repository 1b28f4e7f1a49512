package core

import (
	"context"
	"database/sql"
)

// DBExecutor is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repository methods take it as an optional trailing argument so a caller
// holding a transaction can run several operations atomically; when omitted,
// the repository falls back to its own connection pool.
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DBOrdering is a single sort key for list queries. Orderings come from the
// API's "ordering" query param; a leading "-" on a field means descending.
type DBOrdering struct {
	Field     string
	Ascending bool
}

// String renders the ordering as an "ORDER BY" term, e.g. "created_at DESC".
func (ord DBOrdering) String() string {
	if ord.Ascending {
		return ord.Field + " ASC"
	}
	return ord.Field + " DESC"
}
