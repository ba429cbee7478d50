package testutil

import (
	"context"
	"sync"

	"github.com/wazhop/backend/internal/domain/shared"
)

// EventSink subscribes to every event on a bus and keeps them in order.
type EventSink struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	fail   error
}

// NewEventSink returns an empty sink.
func NewEventSink() *EventSink {
	return &EventSink{}
}

// EventTypes is empty so buses deliver every event.
func (s *EventSink) EventTypes() []string { return nil }

func (s *EventSink) Handle(_ context.Context, event shared.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.fail
}

// FailWith makes subsequent Handle calls return err after recording.
func (s *EventSink) FailWith(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

// Events returns a copy of everything received.
func (s *EventSink) Events() []shared.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]shared.DomainEvent(nil), s.events...)
}

// Types returns the received event types in order.
func (s *EventSink) Types() []string {
	events := s.Events()
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.EventType()
	}
	return out
}

// LastOf returns the most recent event of type T.
func LastOf[T shared.DomainEvent](s *EventSink) (T, bool) {
	events := s.Events()
	for i := len(events) - 1; i >= 0; i-- {
		if ev, ok := events[i].(T); ok {
			return ev, true
		}
	}
	var zero T
	return zero, false
}
