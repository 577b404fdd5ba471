package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookline/hookline/internal/database"
	"github.com/hookline/hookline/internal/domain"
	"github.com/hookline/hookline/internal/domain/mocks"
)

// captureAcceptor records every shipment handed over for delivery.
type captureAcceptor struct {
	mu        sync.Mutex
	shipments []*domain.ShipmentInfo
}

func (a *captureAcceptor) AcceptForDelivery(shipment *domain.ShipmentInfo) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.shipments = append(a.shipments, shipment)
}

func (a *captureAcceptor) Shipments() []*domain.ShipmentInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*domain.ShipmentInfo, len(a.shipments))
	copy(out, a.shipments)
	return out
}

// hostResource stands in for the host application's own transactional
// resource in a shared unit of work.
type hostResource struct {
	key      string
	voteErr  error
	finished bool
	aborted  bool
}

func (r *hostResource) TPCBegin(ctx context.Context, uow domain.UnitOfWork) error { return nil }
func (r *hostResource) Commit(ctx context.Context, uow domain.UnitOfWork) error   { return nil }
func (r *hostResource) TPCVote(ctx context.Context, uow domain.UnitOfWork) error  { return r.voteErr }
func (r *hostResource) TPCFinish(ctx context.Context, uow domain.UnitOfWork)      { r.finished = true }
func (r *hostResource) TPCAbort(ctx context.Context, uow domain.UnitOfWork)       { r.aborted = true }
func (r *hostResource) Abort(ctx context.Context, uow domain.UnitOfWork)          { r.aborted = true }
func (r *hostResource) SortKey() string                                           { return r.key }

func newDetachedUnits(t *testing.T) *database.UnitOfWorkManager {
	t.Helper()
	ctrl := gomock.NewController(t)
	return database.NewUnitOfWorkManager(nil, setupMockLogger(ctrl))
}

func TestOutbox_Add_RequiresActiveUnitOfWork(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	outbox := NewOutbox(&captureAcceptor{}, NewDialectRegistry(nil), setupMockLogger(ctrl))
	order := &testOrder{ID: "o-1"}
	event := domain.NewObjectEvent(domain.KindObjectModified, order)

	err := outbox.Add(context.Background(), order, event, nil)
	assert.ErrorIs(t, err, domain.ErrUnitOfWorkClosed)

	// A finished unit of work no longer accepts dispatches.
	uow := newDetachedUnits(t).BeginDetached("")
	require.NoError(t, uow.Commit(context.Background()))
	err = outbox.Add(domain.WithUnitOfWork(context.Background(), uow), order, event, nil)
	assert.ErrorIs(t, err, domain.ErrUnitOfWorkClosed)
}

func TestOutbox_DeliversOnCommit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	memory := newTestManager(t, "/customers/acme", false, nil, nil)
	durable := newTestManager(t, "/customers/globex", true, nil, nil)
	ctx := context.Background()

	memorySub := &domain.Subscription{To: "https://example.com/memory"}
	require.NoError(t, memory.manager.CreateSubscription(ctx, memorySub))
	durableSub := &domain.Subscription{To: "https://example.com/durable"}
	require.NoError(t, durable.manager.CreateSubscription(ctx, durableSub))

	acceptor := &captureAcceptor{}
	outbox := NewOutbox(acceptor, memory.dialects, setupMockLogger(ctrl))

	uow := newDetachedUnits(t).BeginDetached("/customers/acme")
	uow.SetNote("order o-1 modified")
	uowCtx := domain.WithUnitOfWork(ctx, uow)

	order := &testOrder{ID: "o-1", Site: "/customers/acme", Amount: 42}
	event := domain.NewObjectEvent(domain.KindObjectModified, order)
	matches := []SubscriberMatch{
		{Manager: memory.manager, Subscription: memorySub},
		{Manager: durable.manager, Subscription: durableSub},
	}
	require.NoError(t, outbox.Add(uowCtx, order, event, matches))

	// Nothing ships until the unit of work commits.
	assert.Empty(t, acceptor.Shipments())

	require.NoError(t, uow.Commit(uowCtx))

	shipments := acceptor.Shipments()
	require.Len(t, shipments, 1)
	shipment := shipments[0]
	assert.NotEmpty(t, shipment.ID)
	assert.Equal(t, "order o-1 modified", shipment.Note)
	require.Len(t, shipment.Pairs, 2)

	first := shipment.Pairs[0]
	assert.Equal(t, "/customers/acme", first.SitePath)
	assert.Equal(t, memorySub.ID, first.SubscriptionID)
	assert.NotEmpty(t, first.AttemptID)
	assert.Equal(t, "https://example.com/memory", first.To)
	assert.Equal(t, "", first.DialectID)
	assert.False(t, first.Durable)
	assert.JSONEq(t, `{"id":"o-1","amount":42}`, string(first.Payload))

	second := shipment.Pairs[1]
	assert.Equal(t, "/customers/globex", second.SitePath)
	assert.True(t, second.Durable)

	stored, err := memory.attempts.GetByID(ctx, "/customers/acme", memorySub.ID, first.AttemptID)
	require.NoError(t, err)
	assert.True(t, stored.Pending())
	assert.Equal(t, "order o-1 modified", stored.Internal.Originated.TransactionNote)
}

func TestOutbox_CoalescesRepeatedDispatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fix := newTestManager(t, "/customers/acme", false, nil, nil)
	ctx := context.Background()
	sub := &domain.Subscription{To: "https://example.com/hook"}
	require.NoError(t, fix.manager.CreateSubscription(ctx, sub))

	acceptor := &captureAcceptor{}
	outbox := NewOutbox(acceptor, fix.dialects, setupMockLogger(ctrl))
	matches := []SubscriberMatch{{Manager: fix.manager, Subscription: sub}}

	order := &testOrder{ID: "o-1", Site: "/customers/acme"}
	event := domain.NewObjectEvent(domain.KindObjectModified, order)

	uow := newDetachedUnits(t).BeginDetached("/customers/acme")
	uowCtx := domain.WithUnitOfWork(ctx, uow)
	require.NoError(t, outbox.Add(uowCtx, order, event, matches))
	require.NoError(t, outbox.Add(uowCtx, order, event, matches))
	require.NoError(t, uow.Commit(uowCtx))

	shipments := acceptor.Shipments()
	require.Len(t, shipments, 1)
	assert.Len(t, shipments[0].Pairs, 1)
	count, err := fix.attempts.CountBySubscription(ctx, "/customers/acme", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOutbox_DistinctEventsShipSeparately(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fix := newTestManager(t, "/customers/acme", false, nil, nil)
	ctx := context.Background()
	sub := &domain.Subscription{To: "https://example.com/hook"}
	require.NoError(t, fix.manager.CreateSubscription(ctx, sub))

	acceptor := &captureAcceptor{}
	outbox := NewOutbox(acceptor, fix.dialects, setupMockLogger(ctrl))
	matches := []SubscriberMatch{{Manager: fix.manager, Subscription: sub}}

	order := &testOrder{ID: "o-1", Site: "/customers/acme"}
	uow := newDetachedUnits(t).BeginDetached("/customers/acme")
	uowCtx := domain.WithUnitOfWork(ctx, uow)
	require.NoError(t, outbox.Add(uowCtx, order, domain.NewObjectEvent(domain.KindObjectModified, order), matches))
	require.NoError(t, outbox.Add(uowCtx, order, domain.NewObjectEvent(domain.KindObjectModified, order), matches))
	require.NoError(t, uow.Commit(uowCtx))

	shipments := acceptor.Shipments()
	require.Len(t, shipments, 1)
	assert.Len(t, shipments[0].Pairs, 2)
	count, err := fix.attempts.CountBySubscription(ctx, "/customers/acme", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestOutbox_AbortAfterPreparationDiscardsMemoryAttempts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fix := newTestManager(t, "/customers/acme", false, nil, nil)
	ctx := context.Background()
	sub := &domain.Subscription{To: "https://example.com/hook"}
	require.NoError(t, fix.manager.CreateSubscription(ctx, sub))

	acceptor := &captureAcceptor{}
	outbox := NewOutbox(acceptor, fix.dialects, setupMockLogger(ctrl))

	host := &hostResource{key: "app.store", voteErr: errors.New("constraint violated")}
	uow := newDetachedUnits(t).BeginDetached("/customers/acme")
	uow.Join(host)
	uowCtx := domain.WithUnitOfWork(ctx, uow)

	order := &testOrder{ID: "o-1", Site: "/customers/acme"}
	event := domain.NewObjectEvent(domain.KindObjectModified, order)
	matches := []SubscriberMatch{{Manager: fix.manager, Subscription: sub}}
	require.NoError(t, outbox.Add(uowCtx, order, event, matches))

	err := uow.Commit(uowCtx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit vote failed")
	assert.True(t, host.aborted)
	assert.False(t, host.finished)
	assert.Empty(t, acceptor.Shipments())
	count, err := fix.attempts.CountBySubscription(ctx, "/customers/acme", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestOutbox_RollbackBeforeCommitKeepsNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fix := newTestManager(t, "/customers/acme", false, nil, nil)
	ctx := context.Background()
	sub := &domain.Subscription{To: "https://example.com/hook"}
	require.NoError(t, fix.manager.CreateSubscription(ctx, sub))

	acceptor := &captureAcceptor{}
	outbox := NewOutbox(acceptor, fix.dialects, setupMockLogger(ctrl))

	uow := newDetachedUnits(t).BeginDetached("/customers/acme")
	uowCtx := domain.WithUnitOfWork(ctx, uow)
	order := &testOrder{ID: "o-1", Site: "/customers/acme"}
	event := domain.NewObjectEvent(domain.KindObjectModified, order)
	require.NoError(t, outbox.Add(uowCtx, order, event, []SubscriberMatch{{Manager: fix.manager, Subscription: sub}}))

	require.NoError(t, uow.Rollback(uowCtx))

	assert.Empty(t, acceptor.Shipments())
	count, err := fix.attempts.CountBySubscription(ctx, "/customers/acme", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	err = outbox.Add(uowCtx, order, event, nil)
	assert.ErrorIs(t, err, domain.ErrUnitOfWorkClosed)
}

func TestOutbox_ValidationFailedAttemptStaysBehind(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	invalid := &domain.ErrDestinationInvalid{URL: "https://gone.example.com/hook", Reason: "host did not resolve"}
	broken := newTestManager(t, "/customers/acme", false, stubValidator{err: invalid}, nil)
	healthy := newTestManager(t, "/customers/globex", false, nil, nil)
	ctx := context.Background()

	brokenSub := &domain.Subscription{To: "https://gone.example.com/hook"}
	require.NoError(t, broken.manager.CreateSubscription(ctx, brokenSub))
	healthySub := &domain.Subscription{To: "https://example.com/hook"}
	require.NoError(t, healthy.manager.CreateSubscription(ctx, healthySub))

	acceptor := &captureAcceptor{}
	outbox := NewOutbox(acceptor, broken.dialects, setupMockLogger(ctrl))

	uow := newDetachedUnits(t).BeginDetached("/customers/acme")
	uowCtx := domain.WithUnitOfWork(ctx, uow)
	order := &testOrder{ID: "o-1", Site: "/customers/acme"}
	event := domain.NewObjectEvent(domain.KindObjectModified, order)
	matches := []SubscriberMatch{
		{Manager: broken.manager, Subscription: brokenSub},
		{Manager: healthy.manager, Subscription: healthySub},
	}
	require.NoError(t, outbox.Add(uowCtx, order, event, matches))
	require.NoError(t, uow.Commit(uowCtx))

	// Only the deliverable pair ships; the failed attempt stays as
	// history on its subscription.
	shipments := acceptor.Shipments()
	require.Len(t, shipments, 1)
	require.Len(t, shipments[0].Pairs, 1)
	assert.Equal(t, healthySub.ID, shipments[0].Pairs[0].SubscriptionID)

	attempts, err := broken.attempts.ListBySubscription(ctx, "/customers/acme", brokenSub.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.True(t, attempts[0].Failed())
	assert.Equal(t, domain.MessageDestinationFailed, attempts[0].Message)
}

func TestOutbox_AllPairsFilteredShipsNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	invalid := &domain.ErrDestinationInvalid{URL: "https://gone.example.com/hook", Reason: "host did not resolve"}
	fix := newTestManager(t, "/customers/acme", false, stubValidator{err: invalid}, nil)
	ctx := context.Background()
	sub := &domain.Subscription{To: "https://gone.example.com/hook"}
	require.NoError(t, fix.manager.CreateSubscription(ctx, sub))

	acceptor := &captureAcceptor{}
	outbox := NewOutbox(acceptor, fix.dialects, setupMockLogger(ctrl))

	uow := newDetachedUnits(t).BeginDetached("/customers/acme")
	uowCtx := domain.WithUnitOfWork(ctx, uow)
	order := &testOrder{ID: "o-1", Site: "/customers/acme"}
	require.NoError(t, outbox.Add(uowCtx, order, domain.NewObjectEvent(domain.KindObjectModified, order),
		[]SubscriberMatch{{Manager: fix.manager, Subscription: sub}}))
	require.NoError(t, uow.Commit(uowCtx))

	assert.Empty(t, acceptor.Shipments())
}

func TestOutboxWork_RejectsForeignUnitOfWork(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	outbox := NewOutbox(&captureAcceptor{}, NewDialectRegistry(nil), setupMockLogger(ctrl))
	work := &outboxWork{uowID: "uow-1", outbox: outbox}

	foreign := mocks.NewMockUnitOfWork(ctrl)
	foreign.EXPECT().ID().Return("uow-2").AnyTimes()

	err := work.TPCBegin(context.Background(), foreign)

	var ferr *domain.ErrForeignUnitOfWork
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "uow-1", ferr.Joined)
	assert.Equal(t, "uow-2", ferr.Received)

	assert.Error(t, work.Commit(context.Background(), foreign))
	assert.Error(t, work.TPCVote(context.Background(), foreign))
}

func TestOutboxWork_FrozenAfterBegin(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	outbox := NewOutbox(&captureAcceptor{}, NewDialectRegistry(nil), setupMockLogger(ctrl))
	work := &outboxWork{uowID: "uow-1", outbox: outbox}

	uow := mocks.NewMockUnitOfWork(ctrl)
	uow.EXPECT().ID().Return("uow-1").AnyTimes()
	uow.EXPECT().Note().Return("").AnyTimes()

	require.NoError(t, work.TPCBegin(context.Background(), uow))

	order := &testOrder{ID: "o-1"}
	err := work.add(order, domain.NewObjectEvent(domain.KindObjectModified, order), nil)
	assert.ErrorIs(t, err, domain.ErrOutboxFrozen)
}
