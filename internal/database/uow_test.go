package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang/mock/gomock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookline/hookline/internal/domain"
	pkgmocks "github.com/hookline/hookline/pkg/mocks"
)

func setupMockLogger(ctrl *gomock.Controller) *pkgmocks.MockLogger {
	mockLogger := pkgmocks.NewMockLogger(ctrl)
	// Set up chainable WithField and WithFields calls
	mockLogger.EXPECT().WithField(gomock.Any(), gomock.Any()).Return(mockLogger).AnyTimes()
	mockLogger.EXPECT().WithFields(gomock.Any()).Return(mockLogger).AnyTimes()
	mockLogger.EXPECT().Info(gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Warn(gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Error(gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Debug(gomock.Any()).AnyTimes()
	return mockLogger
}

// journalResource records every protocol callback in a shared journal so
// tests can assert phase ordering across resources.
type journalResource struct {
	key          string
	journal      *[]string
	beginErr     error
	commitErr    error
	voteErr      error
	finishPanics bool
	sawUnit      bool
}

func (r *journalResource) SortKey() string { return r.key }

func (r *journalResource) TPCBegin(ctx context.Context, uow domain.UnitOfWork) error {
	_, r.sawUnit = domain.UnitOfWorkFrom(ctx)
	*r.journal = append(*r.journal, r.key+":begin")
	return r.beginErr
}

func (r *journalResource) Commit(ctx context.Context, uow domain.UnitOfWork) error {
	*r.journal = append(*r.journal, r.key+":commit")
	return r.commitErr
}

func (r *journalResource) TPCVote(ctx context.Context, uow domain.UnitOfWork) error {
	*r.journal = append(*r.journal, r.key+":vote")
	return r.voteErr
}

func (r *journalResource) TPCFinish(ctx context.Context, uow domain.UnitOfWork) {
	*r.journal = append(*r.journal, r.key+":finish")
	if r.finishPanics {
		panic("finish hook exploded")
	}
}

func (r *journalResource) TPCAbort(ctx context.Context, uow domain.UnitOfWork) {
	*r.journal = append(*r.journal, r.key+":tpc-abort")
}

func (r *journalResource) Abort(ctx context.Context, uow domain.UnitOfWork) {
	*r.journal = append(*r.journal, r.key+":abort")
}

// stubConnections hands out one database for every site.
type stubConnections struct {
	db  *sql.DB
	err error
}

func (c stubConnections) Connection(ctx context.Context, site string) (*sql.DB, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.db, nil
}

func newUowManager(t *testing.T) (*UnitOfWorkManager, sqlmock.Sqlmock) {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := setupMockLogger(ctrl)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewUnitOfWorkManager(stubConnections{db: db}, log), mock
}

func TestUnitOfWork_CommitRunsPhasesInSortKeyOrder(t *testing.T) {
	m, _ := newUowManager(t)
	uow := m.BeginDetached("/customers/acme")

	assert.NotEmpty(t, uow.ID())
	assert.Equal(t, "/customers/acme", uow.SitePath())
	assert.Nil(t, uow.Tx())
	assert.True(t, uow.Active())

	var journal []string
	second := &journalResource{key: "b", journal: &journal}
	first := &journalResource{key: "a", journal: &journal}
	uow.Join(second)
	uow.Join(first)

	require.NoError(t, uow.Commit(context.Background()))

	assert.Equal(t, []string{
		"a:begin", "b:begin",
		"a:commit", "b:commit",
		"a:vote", "b:vote",
		"a:finish", "b:finish",
	}, journal)
	assert.True(t, first.sawUnit)
	assert.False(t, uow.Active())
	assert.ErrorIs(t, uow.Commit(context.Background()), domain.ErrUnitOfWorkClosed)
}

func TestUnitOfWork_ResourceSingletonsAndNote(t *testing.T) {
	m, _ := newUowManager(t)
	uow := m.BeginDetached("/customers/acme")

	_, ok := uow.Resource("app.outbox")
	assert.False(t, ok)

	var journal []string
	r := &journalResource{key: "app.outbox", journal: &journal}
	uow.SetResource("app.outbox", r)
	got, ok := uow.Resource("app.outbox")
	require.True(t, ok)
	assert.Same(t, r, got)

	uow.SetNote("order o-1 modified")
	assert.Equal(t, "order o-1 modified", uow.Note())
}

func TestUnitOfWork_BeginFailureAbortsEverything(t *testing.T) {
	m, _ := newUowManager(t)
	uow := m.BeginDetached("/customers/acme")

	var journal []string
	uow.Join(&journalResource{key: "a", journal: &journal, beginErr: errors.New("not ready")})
	uow.Join(&journalResource{key: "b", journal: &journal})

	err := uow.Commit(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit preparation failed")

	// Every resource is told to abort, including ones never prepared.
	assert.Equal(t, []string{"a:begin", "a:tpc-abort", "b:tpc-abort"}, journal)
	assert.False(t, uow.Active())
}

func TestUnitOfWork_VoteFailureRollsBackStore(t *testing.T) {
	m, mock := newUowManager(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	uow, err := m.Begin(context.Background(), "/customers/acme")
	require.NoError(t, err)
	require.NotNil(t, uow.Tx())

	var journal []string
	uow.Join(&journalResource{key: "a", journal: &journal})
	uow.Join(&journalResource{key: "b", journal: &journal, voteErr: errors.New("destination gone")})

	err = uow.Commit(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit vote failed")
	assert.Equal(t, []string{
		"a:begin", "b:begin",
		"a:commit", "b:commit",
		"a:vote", "b:vote",
		"a:tpc-abort", "b:tpc-abort",
	}, journal)
	assert.False(t, uow.Active())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_StoreCommitFailureAbortsResources(t *testing.T) {
	m, mock := newUowManager(t)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	uow, err := m.Begin(context.Background(), "/customers/acme")
	require.NoError(t, err)

	var journal []string
	uow.Join(&journalResource{key: "a", journal: &journal})

	err = uow.Commit(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store commit failed")
	assert.Equal(t, []string{"a:begin", "a:commit", "a:vote", "a:tpc-abort"}, journal)
	assert.False(t, uow.Active())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_RollbackIsIdempotent(t *testing.T) {
	m, mock := newUowManager(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	uow, err := m.Begin(context.Background(), "/customers/acme")
	require.NoError(t, err)

	var journal []string
	uow.Join(&journalResource{key: "a", journal: &journal})

	require.NoError(t, uow.Rollback(context.Background()))
	assert.Equal(t, []string{"a:abort"}, journal)
	assert.False(t, uow.Active())

	// Deferred rollbacks hit this path after a commit or earlier rollback.
	require.NoError(t, uow.Rollback(context.Background()))
	assert.Equal(t, []string{"a:abort"}, journal)
	assert.ErrorIs(t, uow.Commit(context.Background()), domain.ErrUnitOfWorkClosed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_FinishPanicDoesNotUndoCommit(t *testing.T) {
	m, _ := newUowManager(t)
	uow := m.BeginDetached("/customers/acme")

	var journal []string
	uow.Join(&journalResource{key: "a", journal: &journal, finishPanics: true})
	uow.Join(&journalResource{key: "b", journal: &journal})

	require.NoError(t, uow.Commit(context.Background()))
	assert.Equal(t, []string{
		"a:begin", "b:begin",
		"a:commit", "b:commit",
		"a:vote", "b:vote",
		"a:finish", "b:finish",
	}, journal)
	assert.False(t, uow.Active())
}

func TestUnitOfWorkManager_BeginPropagatesConnectionErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := setupMockLogger(ctrl)
	m := NewUnitOfWorkManager(stubConnections{err: errors.New("no such site")}, log)

	_, err := m.Begin(context.Background(), "/customers/acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to get connection for site "/customers/acme"`)
}

func TestUnitOfWorkManager_RunInUnitOfWork_RetriesSerializationConflicts(t *testing.T) {
	m, mock := newUowManager(t)
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	calls := 0
	err := m.RunInUnitOfWork(context.Background(), "/customers/acme", func(ctx context.Context, uow domain.UnitOfWork) error {
		calls++
		carried, ok := domain.UnitOfWorkFrom(ctx)
		require.True(t, ok)
		assert.Same(t, uow, carried)
		if calls < 3 {
			return &pq.Error{Code: "40001"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWorkManager_RunInUnitOfWork_RetriesCommitConflicts(t *testing.T) {
	m, mock := newUowManager(t)
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	// The first unit joins a resource that votes with a serialization
	// conflict, so the failure surfaces from Commit rather than fn.
	calls := 0
	err := m.RunInUnitOfWork(context.Background(), "/customers/acme", func(ctx context.Context, uow domain.UnitOfWork) error {
		calls++
		if calls == 1 {
			var journal []string
			uow.Join(&journalResource{key: "conflicted", journal: &journal, voteErr: &pq.Error{Code: "40001"}})
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWorkManager_RunInUnitOfWork_ExhaustsRetryBudget(t *testing.T) {
	m, mock := newUowManager(t)
	m.SetMaxRetries(3)
	for i := 0; i < 3; i++ {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}

	calls := 0
	err := m.RunInUnitOfWork(context.Background(), "/customers/acme", func(ctx context.Context, uow domain.UnitOfWork) error {
		calls++
		return &pq.Error{Code: "40P01"}
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 retries")
	var pqErr *pq.Error
	assert.ErrorAs(t, err, &pqErr)
	assert.Equal(t, 3, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWorkManager_RunInUnitOfWork_FailsFastOnOtherErrors(t *testing.T) {
	m, mock := newUowManager(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	calls := 0
	err := m.RunInUnitOfWork(context.Background(), "/customers/acme", func(ctx context.Context, uow domain.UnitOfWork) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsRetryableConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization failure", &pq.Error{Code: "40001"}, true},
		{"deadlock detected", &pq.Error{Code: "40P01"}, true},
		{"wrapped conflict", fmt.Errorf("commit vote failed: %w", &pq.Error{Code: "40001"}), true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRetryableConflict(tc.err))
		})
	}
}
