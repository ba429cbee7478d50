package storefront

import (
	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/domain/shared"
)

// AggregateTypeShop is the aggregate type for shops
const AggregateTypeShop = "Shop"

const (
	EventTypeShopCreated = "ShopCreated"
	EventTypeShopDeleted = "ShopDeleted"
)

// ShopCreatedEvent is raised when a seller opens a shop
type ShopCreatedEvent struct {
	shared.BaseDomainEvent
	Slug    string    `json:"slug"`
	OwnerID uuid.UUID `json:"owner_id"`
}

// NewShopCreatedEvent creates a ShopCreatedEvent
func NewShopCreatedEvent(s *Shop) *ShopCreatedEvent {
	return &ShopCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShopCreated, AggregateTypeShop, s.ID, s.OwnerID),
		Slug:            s.Slug,
		OwnerID:         s.OwnerID,
	}
}

// ShopDeletedEvent is raised after a shop and its products are removed
type ShopDeletedEvent struct {
	shared.BaseDomainEvent
	FreedBytes int64 `json:"freed_bytes"`
}

// NewShopDeletedEvent creates a ShopDeletedEvent
func NewShopDeletedEvent(s *Shop, freedBytes int64) *ShopDeletedEvent {
	return &ShopDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShopDeleted, AggregateTypeShop, s.ID, s.OwnerID),
		FreedBytes:      freedBytes,
	}
}
