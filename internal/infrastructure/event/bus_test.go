package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wazhop/backend/internal/domain/shared"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Test", uuid.New(), uuid.Nil)}
}

func recorder(types ...string) (*HandlerFunc, *[]string) {
	var got []string
	return &HandlerFunc{Types: types, Fn: func(_ context.Context, ev shared.DomainEvent) error {
		got = append(got, ev.EventType())
		return nil
	}}, &got
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	orders, orderGot := recorder("OrderCreated")
	all, allGot := recorder()
	bus.Subscribe(orders)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderCreated"), newTestEvent("UserRegistered")))

	assert.Equal(t, []string{"OrderCreated"}, *orderGot)
	assert.Equal(t, []string{"OrderCreated", "UserRegistered"}, *allGot)
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandlerTypes(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h, got := recorder("Ignored")
	bus.Subscribe(h, "Wanted")

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("Ignored"), newTestEvent("Wanted")))
	assert.Equal(t, []string{"Wanted"}, *got)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h, got := recorder("A", "B")
	bus.Subscribe(h)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("A")))
	assert.Empty(t, *got)
}

func TestInMemoryEventBus_FailuresDoNotStopDelivery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	bus.Subscribe(&HandlerFunc{Types: []string{"A"}, Fn: func(context.Context, shared.DomainEvent) error {
		return errors.New("boom")
	}})
	bus.Subscribe(&HandlerFunc{Types: []string{"A"}, Fn: func(context.Context, shared.DomainEvent) error {
		panic("kaboom")
	}})
	h, got := recorder("A")
	bus.Subscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("A")))
	assert.Equal(t, []string{"A"}, *got)
	assert.Equal(t, 2, logs.FilterMessage("Event handler failed").Len())
}
