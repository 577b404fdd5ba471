package domain

import (
	"context"
	"fmt"
	"sync"
)

//go:generate mockgen -destination mocks/mock_event_bus.go -package mocks github.com/hookline/hookline/internal/domain EventBus

// Event is anything that travels the event bus.
type Event interface {
	// EventKind identifies the kind of occurrence.
	EventKind() EventKind
	// EventObject returns the object the event concerns.
	EventObject() interface{}
}

// ObjectEvent reports a lifecycle change of a host object.
type ObjectEvent struct {
	Kind   EventKind
	Object interface{}
}

// NewObjectEvent returns an event for kind concerning object. Events are
// passed by pointer; the outbox coalesces on pointer identity, so one event
// instance dispatched several times yields a single delivery attempt.
func NewObjectEvent(kind EventKind, object interface{}) *ObjectEvent {
	return &ObjectEvent{Kind: kind, Object: object}
}

// EventKind identifies the kind of occurrence
func (e *ObjectEvent) EventKind() EventKind { return e.Kind }

// EventObject returns the object the event concerns
func (e *ObjectEvent) EventObject() interface{} { return e.Object }

// AttemptEvent reports the resolution of a delivery attempt.
type AttemptEvent struct {
	Kind         EventKind
	Attempt      *DeliveryAttempt
	Subscription *Subscription
	Success      bool
}

// NewAttemptResolvedEvent returns the succeeded or failed event for attempt.
func NewAttemptResolvedEvent(attempt *DeliveryAttempt, sub *Subscription) *AttemptEvent {
	ev := &AttemptEvent{Attempt: attempt, Subscription: sub}
	if attempt.Succeeded() {
		ev.Kind = KindAttemptSucceeded
		ev.Success = true
	} else {
		ev.Kind = KindAttemptFailed
	}
	return ev
}

// EventKind identifies the kind of occurrence
func (e *AttemptEvent) EventKind() EventKind { return e.Kind }

// EventObject returns the attempt the event concerns
func (e *AttemptEvent) EventObject() interface{} { return e.Attempt }

// SubscriptionEvent reports registration changes of a subscription.
type SubscriptionEvent struct {
	Kind         EventKind
	Subscription *Subscription
}

// EventKind identifies the kind of occurrence
func (e *SubscriptionEvent) EventKind() EventKind { return e.Kind }

// EventObject returns the subscription the event concerns
func (e *SubscriptionEvent) EventObject() interface{} { return e.Subscription }

// PreconditionLimitEvent reports a subscription reaching its consecutive
// precondition-failure limit.
type PreconditionLimitEvent struct {
	Subscription *Subscription
	Failures     int
}

// EventKind identifies the kind of occurrence
func (e *PreconditionLimitEvent) EventKind() EventKind { return KindPreconditionLimitReached }

// EventObject returns the subscription the event concerns
func (e *PreconditionLimitEvent) EventObject() interface{} { return e.Subscription }

// EventHandler handles one event. Handlers run synchronously on the
// publisher's goroutine and therefore share its unit of work.
type EventHandler func(ctx context.Context, event Event) error

// EventBus provides a way for services to publish and subscribe to events.
// A handler subscribed to a kind also receives events of descendant kinds.
type EventBus interface {
	// Publish dispatches an event to all matching handlers
	Publish(ctx context.Context, event Event) error

	// Subscribe registers a handler for a kind and its descendants
	Subscribe(kind EventKind, handler EventHandler)
}

// InProcessEventBus is the synchronous EventBus used in production. Handlers
// for the most specific kind run first; within one kind, in subscription
// order. Dispatch stops at the first handler error so transactional
// subscribers can veto the surrounding work.
type InProcessEventBus struct {
	kinds       *KindRegistry
	subscribers map[EventKind][]EventHandler
	mu          sync.RWMutex
}

// NewInProcessEventBus creates a bus resolving kind ancestry through kinds.
func NewInProcessEventBus(kinds *KindRegistry) *InProcessEventBus {
	return &InProcessEventBus{
		kinds:       kinds,
		subscribers: make(map[EventKind][]EventHandler),
	}
}

// Subscribe registers a handler for events of kind and its descendants.
func (b *InProcessEventBus) Subscribe(kind EventKind, handler EventHandler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[kind] = append(b.subscribers[kind], handler)
}

// Publish runs every matching handler on the calling goroutine. A handler
// panic is converted into an error.
func (b *InProcessEventBus) Publish(ctx context.Context, event Event) error {
	if event == nil {
		return nil
	}
	for _, kind := range b.kinds.Ancestry(event.EventKind()) {
		b.mu.RLock()
		handlers := make([]EventHandler, len(b.subscribers[kind]))
		copy(handlers, b.subscribers[kind])
		b.mu.RUnlock()

		for _, handler := range handlers {
			if err := b.safeCall(ctx, handler, event); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *InProcessEventBus) safeCall(ctx context.Context, handler EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event handler panic on %s: %v", event.EventKind(), r)
		}
	}()
	return handler(ctx, event)
}
