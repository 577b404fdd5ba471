package domain

import (
	"context"
	"database/sql"
)

//go:generate mockgen -destination mocks/mock_unitofwork.go -package mocks github.com/hookline/hookline/internal/domain UnitOfWork,UnitOfWorkFactory,ConnectionProvider

// TxnResource takes part in a unit of work's two-phase commit. Resources are
// invoked in SortKey order at every phase.
type TxnResource interface {
	// TPCBegin announces that commit processing started. This is the last
	// phase allowed to create store objects.
	TPCBegin(ctx context.Context, uow UnitOfWork) error

	// Commit runs after every resource saw TPCBegin.
	Commit(ctx context.Context, uow UnitOfWork) error

	// TPCVote is the last chance to fail before the store commits.
	TPCVote(ctx context.Context, uow UnitOfWork) error

	// TPCFinish runs after the store commit succeeded. It must not fail;
	// panics are swallowed by the unit of work.
	TPCFinish(ctx context.Context, uow UnitOfWork)

	// TPCAbort runs when commit processing fails after TPCBegin.
	TPCAbort(ctx context.Context, uow UnitOfWork)

	// Abort runs when the unit of work rolls back before commit started.
	Abort(ctx context.Context, uow UnitOfWork)

	// SortKey orders resources within one unit of work.
	SortKey() string
}

// UnitOfWork is one transactional scope against the object store. Resources
// joined to it see the two-phase protocol when it commits or rolls back.
type UnitOfWork interface {
	// ID uniquely identifies this unit of work
	ID() string

	// SitePath is the site scope the work was opened against
	SitePath() string

	// Note is a free-form description recorded on whatever the work
	// creates, like a commit message
	Note() string
	SetNote(note string)

	// Tx exposes the store transaction, or nil for memory-only work
	Tx() *sql.Tx

	// Join adds a resource to the two-phase commit
	Join(resource TxnResource)

	// Resource and SetResource keep per-work singletons, so a component
	// joins at most once per unit of work
	Resource(key string) (TxnResource, bool)
	SetResource(key string, resource TxnResource)

	// Commit drives TPCBegin, Commit, TPCVote, the store commit and
	// TPCFinish across all joined resources
	Commit(ctx context.Context) error

	// Rollback aborts the store transaction and tells resources to Abort
	Rollback(ctx context.Context) error

	// Active reports whether the work is still open
	Active() bool
}

// UnitOfWorkFactory opens units of work against named site scopes.
type UnitOfWorkFactory interface {
	// Begin opens a store-backed unit of work for a site
	Begin(ctx context.Context, site string) (UnitOfWork, error)

	// BeginDetached opens a memory-only unit of work, used when nothing
	// durable participates
	BeginDetached(site string) UnitOfWork
}

// ConnectionProvider hands out the database connection backing a site scope.
type ConnectionProvider interface {
	Connection(ctx context.Context, site string) (*sql.DB, error)
}

type uowContextKey struct{}

type siteContextKey struct{}

// WithUnitOfWork attaches a unit of work to a context. Repositories run
// their statements on the work's transaction when one is present.
func WithUnitOfWork(ctx context.Context, uow UnitOfWork) context.Context {
	return context.WithValue(ctx, uowContextKey{}, uow)
}

// UnitOfWorkFrom extracts the unit of work carried by ctx, if any.
func UnitOfWorkFrom(ctx context.Context) (UnitOfWork, bool) {
	uow, ok := ctx.Value(uowContextKey{}).(UnitOfWork)
	return uow, ok
}

// WithSite attaches the current site path to a context. The registry scope
// walk includes this site's chain in addition to the data's own.
func WithSite(ctx context.Context, site string) context.Context {
	return context.WithValue(ctx, siteContextKey{}, site)
}

// SiteFrom extracts the current site path carried by ctx, if any.
func SiteFrom(ctx context.Context) (string, bool) {
	site, ok := ctx.Value(siteContextKey{}).(string)
	return site, ok
}
