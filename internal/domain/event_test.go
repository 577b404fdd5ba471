package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInProcessEventBus_Publish(t *testing.T) {
	bus := NewInProcessEventBus(NewKindRegistry())

	var seen []Event
	bus.Subscribe(KindObjectCreated, func(ctx context.Context, event Event) error {
		seen = append(seen, event)
		return nil
	})

	event := NewObjectEvent(KindObjectCreated, "payload")
	require.NoError(t, bus.Publish(context.Background(), event))
	require.Len(t, seen, 1)
	assert.Same(t, event, seen[0].(*ObjectEvent))
}

func TestInProcessEventBus_AncestorSubscribersReceiveDescendants(t *testing.T) {
	bus := NewInProcessEventBus(NewKindRegistry())

	var kinds []EventKind
	bus.Subscribe(KindObjectEvent, func(ctx context.Context, event Event) error {
		kinds = append(kinds, event.EventKind())
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), NewObjectEvent(KindObjectCreated, nil)))
	require.NoError(t, bus.Publish(context.Background(), NewObjectEvent(KindObjectModified, nil)))
	assert.Equal(t, []EventKind{KindObjectCreated, KindObjectModified}, kinds)
}

func TestInProcessEventBus_SpecificHandlersRunFirst(t *testing.T) {
	bus := NewInProcessEventBus(NewKindRegistry())

	var order []string
	bus.Subscribe(KindObjectEvent, func(ctx context.Context, event Event) error {
		order = append(order, "root")
		return nil
	})
	bus.Subscribe(KindObjectCreated, func(ctx context.Context, event Event) error {
		order = append(order, "specific")
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), NewObjectEvent(KindObjectCreated, nil)))
	assert.Equal(t, []string{"specific", "root"}, order)
}

func TestInProcessEventBus_HandlerErrorStopsDispatch(t *testing.T) {
	bus := NewInProcessEventBus(NewKindRegistry())

	boom := errors.New("veto")
	bus.Subscribe(KindObjectCreated, func(ctx context.Context, event Event) error {
		return boom
	})
	called := false
	bus.Subscribe(KindObjectEvent, func(ctx context.Context, event Event) error {
		called = true
		return nil
	})

	err := bus.Publish(context.Background(), NewObjectEvent(KindObjectCreated, nil))
	assert.ErrorIs(t, err, boom)
	assert.False(t, called, "later handlers must not run after a veto")
}

func TestInProcessEventBus_RecoversHandlerPanic(t *testing.T) {
	bus := NewInProcessEventBus(NewKindRegistry())

	bus.Subscribe(KindObjectCreated, func(ctx context.Context, event Event) error {
		panic("handler bug")
	})

	err := bus.Publish(context.Background(), NewObjectEvent(KindObjectCreated, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panic")
	assert.Contains(t, err.Error(), "handler bug")
}

func TestInProcessEventBus_IgnoresNil(t *testing.T) {
	bus := NewInProcessEventBus(NewKindRegistry())

	bus.Subscribe(KindObjectCreated, nil)
	assert.NoError(t, bus.Publish(context.Background(), nil))
	assert.NoError(t, bus.Publish(context.Background(), NewObjectEvent(KindObjectCreated, nil)))
}

func TestNewAttemptResolvedEvent(t *testing.T) {
	sub := &Subscription{ID: "sub-1"}

	success := NewDeliveryAttempt(sub, nil, "")
	require.NoError(t, success.Resolve(AttemptStatusSuccessful, "ok"))
	ev := NewAttemptResolvedEvent(success, sub)
	assert.Equal(t, KindAttemptSucceeded, ev.EventKind())
	assert.True(t, ev.Success)
	assert.Same(t, success, ev.EventObject())

	failure := NewDeliveryAttempt(sub, nil, "")
	require.NoError(t, failure.Resolve(AttemptStatusFailed, "boom"))
	ev = NewAttemptResolvedEvent(failure, sub)
	assert.Equal(t, KindAttemptFailed, ev.EventKind())
	assert.False(t, ev.Success)
}

func TestPreconditionLimitEvent(t *testing.T) {
	sub := &Subscription{ID: "sub-1"}
	ev := &PreconditionLimitEvent{Subscription: sub, Failures: 50}

	assert.Equal(t, KindPreconditionLimitReached, ev.EventKind())
	assert.Same(t, sub, ev.EventObject())
}
