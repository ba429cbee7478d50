package metrics

import (
	"context"

	"github.com/wazhop/backend/internal/domain/billing"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/order"
	"github.com/wazhop/backend/internal/domain/shared"
)

// EventRecorder turns domain events into business counters. Subscribe it
// to the event bus.
type EventRecorder struct {
	r *Registry
}

// NewEventRecorder creates an event handler backed by r
func NewEventRecorder(r *Registry) *EventRecorder {
	return &EventRecorder{r: r}
}

// EventTypes lists the events that feed a counter
func (h *EventRecorder) EventTypes() []string {
	return []string{
		order.EventTypeOrderPlaced,
		order.EventTypeOrderStatusChanged,
		billing.EventTypePaymentStatusChanged,
		identity.EventTypeUserRegistered,
		identity.EventTypeSubscriptionUpgraded,
		identity.EventTypeSubscriptionRenewed,
		identity.EventTypeSubscriptionExpired,
		catalog.EventTypeLowStock,
	}
}

// Handle records one event. It never fails.
func (h *EventRecorder) Handle(_ context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *order.OrderPlacedEvent:
		h.r.ordersPlaced.WithLabelValues(e.Currency).Inc()
		h.r.orderValue.WithLabelValues(e.Currency).Add(e.Total.InexactFloat64())
	case *order.OrderStatusChangedEvent:
		h.r.orderStatus.WithLabelValues(string(e.To)).Inc()
	case *billing.PaymentStatusChangedEvent:
		h.r.payments.WithLabelValues(string(e.To)).Inc()
	case *identity.UserRegisteredEvent:
		h.r.signups.Inc()
	case *identity.SubscriptionUpgradedEvent:
		h.r.upgrades.WithLabelValues("upgraded", string(e.Plan)).Inc()
	case *identity.SubscriptionRenewedEvent:
		h.r.upgrades.WithLabelValues("renewed", string(e.Plan)).Inc()
	case *identity.SubscriptionExpiredEvent:
		h.r.upgrades.WithLabelValues("expired", string(e.PreviousPlan)).Inc()
	case *catalog.LowStockEvent:
		h.r.lowStockAlerts.Inc()
	}
	return nil
}
