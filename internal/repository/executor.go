package repository

import (
	"context"
	"database/sql"

	"github.com/hookline/hookline/internal/domain"
)

// dbExecutor is the subset of database/sql shared by *sql.DB and *sql.Tx.
type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// executorFor returns the statement target for a site: the transaction of
// the unit of work carried by ctx when one is open, otherwise the site's
// connection. This is how attempts created during commit preparation ride
// the same store transaction as the host's changes.
func executorFor(ctx context.Context, conns domain.ConnectionProvider, site string) (dbExecutor, error) {
	if uow, ok := domain.UnitOfWorkFrom(ctx); ok && uow.Tx() != nil {
		return uow.Tx(), nil
	}
	return conns.Connection(ctx, site)
}
