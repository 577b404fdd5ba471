package service

import (
	"context"

	"github.com/hookline/hookline/internal/domain"
	"github.com/hookline/hookline/pkg/logger"
)

// Dispatcher connects the event bus to the webhook machinery: on every
// object event it asks the registry who subscribed and hands the matches
// to the outbox of the current unit of work.
type Dispatcher struct {
	registry *Registry
	outbox   *Outbox
	logger   logger.Logger
}

// NewDispatcher creates the dispatcher.
func NewDispatcher(registry *Registry, outbox *Outbox, logger logger.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		outbox:   outbox,
		logger:   logger,
	}
}

// Register subscribes the dispatcher to the root object event kind, so
// it sees every event in the hierarchy, including the resolution events
// the subsystem publishes about its own attempts.
func (d *Dispatcher) Register(bus domain.EventBus) {
	bus.Subscribe(domain.KindObjectEvent, d.HandleEvent)
}

// HandleEvent runs webhook dispatch for one event. Events published
// outside a unit of work cannot produce transactional attempts and are
// skipped.
func (d *Dispatcher) HandleEvent(ctx context.Context, event domain.Event) error {
	uow, ok := domain.UnitOfWorkFrom(ctx)
	if !ok || !uow.Active() {
		d.logger.WithField("kind", string(event.EventKind())).
			Debug("event published outside a unit of work; webhook dispatch skipped")
		return nil
	}

	data := event.EventObject()
	if data == nil {
		return nil
	}

	matches, err := d.registry.SubscribersFor(ctx, data, event)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return nil
	}

	d.logger.WithField("kind", string(event.EventKind())).
		WithField("matches", len(matches)).
		Debug("webhook subscriptions matched")
	return d.outbox.Add(ctx, data, event, matches)
}
