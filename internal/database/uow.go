package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hookline/hookline/internal/domain"
	"github.com/hookline/hookline/pkg/logger"
)

// DefaultCommitRetries bounds how many times RunInUnitOfWork retries a unit
// of work that failed on a serialization conflict.
const DefaultCommitRetries = 10

type uowState int

const (
	uowActive uowState = iota
	uowCommitting
	uowCommitted
	uowAborted
)

// UnitOfWork drives the two-phase commit protocol over an optional store
// transaction. Resources joined to it are invoked in SortKey order:
// TPCBegin, Commit, TPCVote, then the store commit, then TPCFinish. Any
// failure before the store commit aborts every resource and rolls back.
type UnitOfWork struct {
	id   string
	site string
	tx   *sql.Tx

	mu        sync.Mutex
	note      string
	resources []domain.TxnResource
	data      map[string]domain.TxnResource
	state     uowState

	logger logger.Logger
}

// ID uniquely identifies this unit of work
func (u *UnitOfWork) ID() string { return u.id }

// SitePath is the site scope the work was opened against
func (u *UnitOfWork) SitePath() string { return u.site }

// Note returns the free-form description of this work
func (u *UnitOfWork) Note() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.note
}

// SetNote records a free-form description of this work
func (u *UnitOfWork) SetNote(note string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.note = note
}

// Tx exposes the store transaction, or nil for memory-only work
func (u *UnitOfWork) Tx() *sql.Tx { return u.tx }

// Active reports whether the work is still open
func (u *UnitOfWork) Active() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state == uowActive
}

// Join adds a resource to the two-phase commit.
func (u *UnitOfWork) Join(resource domain.TxnResource) {
	if resource == nil {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.resources = append(u.resources, resource)
}

// Resource returns the per-work singleton stored under key.
func (u *UnitOfWork) Resource(key string) (domain.TxnResource, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	r, ok := u.data[key]
	return r, ok
}

// SetResource stores a per-work singleton under key.
func (u *UnitOfWork) SetResource(key string, resource domain.TxnResource) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.data[key] = resource
}

// Commit runs the two-phase protocol and commits the store transaction.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	u.mu.Lock()
	if u.state != uowActive {
		u.mu.Unlock()
		return domain.ErrUnitOfWorkClosed
	}
	u.state = uowCommitting
	resources := make([]domain.TxnResource, len(u.resources))
	copy(resources, u.resources)
	u.mu.Unlock()

	sort.SliceStable(resources, func(i, j int) bool {
		return resources[i].SortKey() < resources[j].SortKey()
	})

	ctx = domain.WithUnitOfWork(ctx, u)

	for _, r := range resources {
		if err := r.TPCBegin(ctx, u); err != nil {
			u.abortCommit(ctx, resources)
			return fmt.Errorf("commit preparation failed: %w", err)
		}
	}
	for _, r := range resources {
		if err := r.Commit(ctx, u); err != nil {
			u.abortCommit(ctx, resources)
			return fmt.Errorf("resource commit failed: %w", err)
		}
	}
	for _, r := range resources {
		if err := r.TPCVote(ctx, u); err != nil {
			u.abortCommit(ctx, resources)
			return fmt.Errorf("commit vote failed: %w", err)
		}
	}

	if u.tx != nil {
		if err := u.tx.Commit(); err != nil {
			for _, r := range resources {
				u.safeAbort(ctx, r, true)
			}
			u.setState(uowAborted)
			return fmt.Errorf("store commit failed: %w", err)
		}
	}

	u.setState(uowCommitted)

	// The store already committed; resource finish hooks must not undo
	// that, so panics are contained here.
	for _, r := range resources {
		u.safeFinish(ctx, r)
	}
	return nil
}

// Rollback aborts the work. Rolling back a finished unit of work is a no-op
// so callers can defer it.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	u.mu.Lock()
	if u.state != uowActive {
		u.mu.Unlock()
		return nil
	}
	u.state = uowAborted
	resources := make([]domain.TxnResource, len(u.resources))
	copy(resources, u.resources)
	u.mu.Unlock()

	ctx = domain.WithUnitOfWork(ctx, u)

	if u.tx != nil {
		if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			u.logger.WithField("unit_of_work", u.id).Error(fmt.Sprintf("Failed to roll back store transaction: %v", err))
		}
	}
	for _, r := range resources {
		u.safeAbort(ctx, r, false)
	}
	return nil
}

func (u *UnitOfWork) abortCommit(ctx context.Context, resources []domain.TxnResource) {
	for _, r := range resources {
		u.safeAbort(ctx, r, true)
	}
	if u.tx != nil {
		if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			u.logger.WithField("unit_of_work", u.id).Error(fmt.Sprintf("Failed to roll back store transaction: %v", err))
		}
	}
	u.setState(uowAborted)
}

func (u *UnitOfWork) setState(s uowState) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.state = s
}

func (u *UnitOfWork) safeFinish(ctx context.Context, r domain.TxnResource) {
	defer func() {
		if rec := recover(); rec != nil {
			u.logger.WithFields(map[string]interface{}{
				"unit_of_work": u.id,
				"sort_key":     r.SortKey(),
			}).Error(fmt.Sprintf("Resource finish hook panicked: %v", rec))
		}
	}()
	r.TPCFinish(ctx, u)
}

func (u *UnitOfWork) safeAbort(ctx context.Context, r domain.TxnResource, inCommit bool) {
	defer func() {
		if rec := recover(); rec != nil {
			u.logger.WithFields(map[string]interface{}{
				"unit_of_work": u.id,
				"sort_key":     r.SortKey(),
			}).Error(fmt.Sprintf("Resource abort hook panicked: %v", rec))
		}
	}()
	if inCommit {
		r.TPCAbort(ctx, u)
	} else {
		r.Abort(ctx, u)
	}
}

// UnitOfWorkManager opens units of work against named site scopes.
type UnitOfWorkManager struct {
	conns      domain.ConnectionProvider
	logger     logger.Logger
	maxRetries int
}

// NewUnitOfWorkManager creates a manager with the default conflict retry
// budget.
func NewUnitOfWorkManager(conns domain.ConnectionProvider, log logger.Logger) *UnitOfWorkManager {
	return &UnitOfWorkManager{
		conns:      conns,
		logger:     log,
		maxRetries: DefaultCommitRetries,
	}
}

// SetMaxRetries overrides the conflict retry budget.
func (m *UnitOfWorkManager) SetMaxRetries(n int) {
	if n > 0 {
		m.maxRetries = n
	}
}

// Begin opens a store-backed unit of work for a site.
func (m *UnitOfWorkManager) Begin(ctx context.Context, site string) (domain.UnitOfWork, error) {
	db, err := m.conns.Connection(ctx, site)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection for site %q: %w", site, err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction for site %q: %w", site, err)
	}
	return &UnitOfWork{
		id:     uuid.New().String(),
		site:   site,
		tx:     tx,
		data:   make(map[string]domain.TxnResource),
		logger: m.logger,
	}, nil
}

// BeginDetached opens a memory-only unit of work. The two-phase protocol
// still runs, just without a store transaction underneath.
func (m *UnitOfWorkManager) BeginDetached(site string) domain.UnitOfWork {
	return &UnitOfWork{
		id:     uuid.New().String(),
		site:   site,
		data:   make(map[string]domain.TxnResource),
		logger: m.logger,
	}
}

// RunInUnitOfWork executes fn inside a fresh unit of work and commits it,
// retrying the whole unit on serialization conflicts up to the configured
// budget. fn receives a context already carrying the unit of work.
func (m *UnitOfWorkManager) RunInUnitOfWork(ctx context.Context, site string, fn func(ctx context.Context, uow domain.UnitOfWork) error) error {
	var lastErr error
	for attempt := 0; attempt < m.maxRetries; attempt++ {
		uow, err := m.Begin(ctx, site)
		if err != nil {
			return err
		}
		runCtx := domain.WithUnitOfWork(ctx, uow)

		if err := fn(runCtx, uow); err != nil {
			_ = uow.Rollback(runCtx)
			if IsRetryableConflict(err) {
				lastErr = err
				continue
			}
			return err
		}
		if err := uow.Commit(runCtx); err != nil {
			_ = uow.Rollback(runCtx)
			if IsRetryableConflict(err) {
				lastErr = err
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("unit of work for site %q failed after %d retries: %w", site, m.maxRetries, lastErr)
}

var _ domain.UnitOfWorkFactory = (*UnitOfWorkManager)(nil)

// IsRetryableConflict reports whether err is a transient store conflict
// worth retrying in a fresh unit of work.
func IsRetryableConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// serialization_failure, deadlock_detected
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
