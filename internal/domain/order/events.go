package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/shared"
)

// AggregateTypeOrder is the aggregate type for orders
const AggregateTypeOrder = "Order"

const (
	EventTypeOrderPlaced        = "OrderPlaced"
	EventTypeOrderStatusChanged = "OrderStatusChanged"
)

// OrderPlacedEvent is raised when a customer places an order
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string          `json:"order_number"`
	ShopID      uuid.UUID       `json:"shop_id"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
	ItemCount   int             `json:"item_count"`
}

// NewOrderPlacedEvent creates an OrderPlacedEvent
func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	actor := uuid.Nil
	if o.Customer.UserID != nil {
		actor = *o.Customer.UserID
	}
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.ID, actor),
		OrderNumber:     o.OrderNumber,
		ShopID:          o.ShopID,
		Total:           o.Total,
		Currency:        o.Currency,
		ItemCount:       o.ItemCount(),
	}
}

// OrderStatusChangedEvent is raised on every status transition
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string `json:"order_number"`
	From        Status `json:"from"`
	To          Status `json:"to"`
}

// NewOrderStatusChangedEvent creates an OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, from Status, actorID uuid.UUID) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID, actorID),
		OrderNumber:     o.OrderNumber,
		From:            from,
		To:              o.Status,
	}
}
