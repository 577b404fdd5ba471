package service

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/hookline/hookline/internal/domain"
	"github.com/hookline/hookline/pkg/logger"
)

// outboxResourceKey is the per-unit-of-work slot holding the outbox's
// joined resource, so repeated dispatches join the two-phase commit
// exactly once.
const outboxResourceKey = "hookline.outbox"

// ShipmentAcceptor receives finished parcels. Implementations must not
// block the caller and must not propagate failures back; the unit of
// work that produced the parcel has already committed.
type ShipmentAcceptor interface {
	AcceptForDelivery(shipment *domain.ShipmentInfo)
}

// Outbox accumulates matched subscriptions inside the host's unit of
// work and turns them into delivery attempts during its two-phase
// commit. Attempts are created in TPCBegin so they ride the host's store
// transaction; the self-contained shipment is assembled in TPCVote and
// handed to the engine in TPCFinish, after the store committed.
type Outbox struct {
	engine   ShipmentAcceptor
	dialects domain.DialectRegistry
	logger   logger.Logger
}

// NewOutbox creates the outbox.
func NewOutbox(engine ShipmentAcceptor, dialects domain.DialectRegistry, logger logger.Logger) *Outbox {
	return &Outbox{
		engine:   engine,
		dialects: dialects,
		logger:   logger,
	}
}

// Add records that the subscriptions in matches should receive data
// under event when the context's unit of work commits. Adding the same
// (data, event) occurrence again merges into one delivery, so an event
// instance dispatched several times yields a single attempt per
// subscription.
func (o *Outbox) Add(ctx context.Context, data interface{}, event domain.Event, matches []SubscriberMatch) error {
	uow, ok := domain.UnitOfWorkFrom(ctx)
	if !ok {
		return domain.ErrUnitOfWorkClosed
	}
	if !uow.Active() {
		return domain.ErrUnitOfWorkClosed
	}
	return o.workFor(uow).add(data, event, matches)
}

// workFor returns the resource joined to uow, creating and joining it on
// first use.
func (o *Outbox) workFor(uow domain.UnitOfWork) *outboxWork {
	if res, ok := uow.Resource(outboxResourceKey); ok {
		if work, ok := res.(*outboxWork); ok {
			return work
		}
	}
	work := &outboxWork{uowID: uow.ID(), outbox: o}
	uow.SetResource(outboxResourceKey, work)
	uow.Join(work)
	return work
}

// pendingDelivery is one (data, event) occurrence and the subscriptions
// that matched it, in match order.
type pendingDelivery struct {
	data    interface{}
	event   domain.Event
	matches []SubscriberMatch
	seen    map[string]bool
}

// createdAttempt remembers which manager created an attempt during
// TPCBegin, so aborts can undo memory-backed creations.
type createdAttempt struct {
	attempt *domain.DeliveryAttempt
	match   SubscriberMatch
}

// outboxWork is the transactional resource the outbox joins to one unit
// of work. It runs on the publisher's goroutine; the unit of work
// serializes all protocol calls.
type outboxWork struct {
	uowID      string
	outbox     *Outbox
	frozen     bool
	deliveries []*pendingDelivery
	created    []createdAttempt
	shipment   *domain.ShipmentInfo
}

var _ domain.TxnResource = (*outboxWork)(nil)

func (w *outboxWork) add(data interface{}, event domain.Event, matches []SubscriberMatch) error {
	if w.frozen {
		return domain.ErrOutboxFrozen
	}

	delivery := w.findDelivery(data, event)
	if delivery == nil {
		delivery = &pendingDelivery{
			data:  data,
			event: event,
			seen:  make(map[string]bool),
		}
		w.deliveries = append(w.deliveries, delivery)
	}

	for _, match := range matches {
		key := match.Manager.SitePath() + "|" + match.Subscription.ID
		if delivery.seen[key] {
			continue
		}
		delivery.seen[key] = true
		delivery.matches = append(delivery.matches, match)
	}
	return nil
}

// findDelivery coalesces on the identity of the data and event values.
// Data of a non-comparable type never coalesces, which only costs a
// duplicate delivery, never a panic.
func (w *outboxWork) findDelivery(data interface{}, event domain.Event) *pendingDelivery {
	if !comparableValue(data) {
		return nil
	}
	for _, delivery := range w.deliveries {
		if delivery.event == event && comparableValue(delivery.data) && delivery.data == data {
			return delivery
		}
	}
	return nil
}

func comparableValue(v interface{}) bool {
	t := reflect.TypeOf(v)
	return t != nil && t.Comparable()
}

// TPCBegin freezes the accumulator and creates the pending delivery
// attempts, while store writes are still allowed. Externalization is
// memoized per dialect within each occurrence, so many subscriptions to
// one event pay for one payload.
func (w *outboxWork) TPCBegin(ctx context.Context, uow domain.UnitOfWork) error {
	if err := w.guard(uow); err != nil {
		return err
	}
	w.frozen = true

	for _, delivery := range w.deliveries {
		payloads := make(map[string][]byte)
		for _, match := range delivery.matches {
			sub := match.Subscription

			payload, ok := payloads[sub.DialectID]
			if !ok {
				dialect, err := w.outbox.dialects.Lookup(sub.DialectID)
				if err != nil {
					return fmt.Errorf("failed to look up dialect for subscription %s: %w", sub.ID, err)
				}
				payload, err = dialect.ExternalizeData(ctx, delivery.data, delivery.event)
				if err != nil {
					return fmt.Errorf("failed to externalize payload for subscription %s: %w", sub.ID, err)
				}
				payloads[sub.DialectID] = payload
			}

			attempt, err := match.Manager.CreateDeliveryAttempt(ctx, sub, payload, uow.Note())
			if err != nil {
				return err
			}
			w.created = append(w.created, createdAttempt{attempt: attempt, match: match})
		}
	}
	return nil
}

// Commit has nothing left to do; the attempts were written in TPCBegin.
func (w *outboxWork) Commit(ctx context.Context, uow domain.UnitOfWork) error {
	return w.guard(uow)
}

// TPCVote assembles the self-contained shipment from the attempts that
// are still pending. Attempts that already failed destination validation
// stay behind as history.
func (w *outboxWork) TPCVote(ctx context.Context, uow domain.UnitOfWork) error {
	if err := w.guard(uow); err != nil {
		return err
	}

	var pairs []*domain.ShipmentPair
	for _, created := range w.created {
		if !created.attempt.Pending() {
			continue
		}
		sub := created.match.Subscription
		pairs = append(pairs, &domain.ShipmentPair{
			SitePath:       created.match.Manager.SitePath(),
			SubscriptionID: sub.ID,
			AttemptID:      created.attempt.ID,
			To:             sub.To,
			DialectID:      sub.DialectID,
			Payload:        created.attempt.Payload,
			Durable:        created.match.Manager.Durable(),
		})
	}
	if len(pairs) > 0 {
		w.shipment = &domain.ShipmentInfo{
			ID:        uuid.New().String(),
			Note:      uow.Note(),
			CreatedAt: time.Now().UTC(),
			Pairs:     pairs,
		}
	}
	return nil
}

// TPCFinish hands the shipment to the engine. The store already
// committed, so nothing here may fail; AcceptForDelivery never
// propagates.
func (w *outboxWork) TPCFinish(ctx context.Context, uow domain.UnitOfWork) {
	shipment := w.shipment
	w.reset()
	if shipment == nil {
		return
	}
	w.outbox.logger.WithField("shipment_id", shipment.ID).
		WithField("pairs", len(shipment.Pairs)).
		Debug("shipment accepted for delivery")
	w.outbox.engine.AcceptForDelivery(shipment)
}

// TPCAbort undoes commit preparation. Durable attempts disappear with
// the store transaction; memory-backed ones are removed by hand.
func (w *outboxWork) TPCAbort(ctx context.Context, uow domain.UnitOfWork) {
	for _, created := range w.created {
		if err := created.match.Manager.DiscardDeliveryAttempt(ctx, created.attempt); err != nil {
			w.outbox.logger.WithField("attempt_id", created.attempt.ID).
				Error(fmt.Sprintf("failed to discard delivery attempt on abort: %v", err))
		}
	}
	w.reset()
}

// Abort discards the accumulated state when the unit of work rolls back
// before commit processing started.
func (w *outboxWork) Abort(ctx context.Context, uow domain.UnitOfWork) {
	w.reset()
}

// SortKey orders the outbox after typical host resources, so hosts get
// their own preparation in first.
func (w *outboxWork) SortKey() string {
	return outboxResourceKey
}

// guard rejects protocol calls from a unit of work this resource never
// joined.
func (w *outboxWork) guard(uow domain.UnitOfWork) error {
	if uow.ID() != w.uowID {
		return &domain.ErrForeignUnitOfWork{Joined: w.uowID, Received: uow.ID()}
	}
	return nil
}

// reset clears the accumulator so an aborted unit of work can be reused.
func (w *outboxWork) reset() {
	w.frozen = false
	w.deliveries = nil
	w.created = nil
	w.shipment = nil
}
