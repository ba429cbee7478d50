package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/shared"
)

// AggregateTypeProduct is the aggregate type for products
const AggregateTypeProduct = "Product"

const (
	EventTypeProductCreated = "ProductCreated"
	EventTypeProductUpdated = "ProductUpdated"
	EventTypeProductBoosted = "ProductBoosted"
	EventTypeLowStock       = "ProductLowStock"
)

// ProductCreatedEvent is raised when a product is listed
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ShopID uuid.UUID `json:"shop_id"`
	Name   string    `json:"name"`
}

// NewProductCreatedEvent creates a ProductCreatedEvent
func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, p.ID, uuid.Nil),
		ShopID:          p.ShopID,
		Name:            p.Name,
	}
}

// ProductUpdatedEvent is raised when a product's listing changes
type ProductUpdatedEvent struct {
	shared.BaseDomainEvent
	ShopID uuid.UUID `json:"shop_id"`
}

// NewProductUpdatedEvent creates a ProductUpdatedEvent
func NewProductUpdatedEvent(p *Product) *ProductUpdatedEvent {
	return &ProductUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductUpdated, AggregateTypeProduct, p.ID, uuid.Nil),
		ShopID:          p.ShopID,
	}
}

// ProductBoostedEvent is raised when a boost is bought
type ProductBoostedEvent struct {
	shared.BaseDomainEvent
	Hours  int             `json:"hours"`
	Amount decimal.Decimal `json:"amount"`
}

// NewProductBoostedEvent creates a ProductBoostedEvent
func NewProductBoostedEvent(p *Product, hours int, amount decimal.Decimal) *ProductBoostedEvent {
	return &ProductBoostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductBoosted, AggregateTypeProduct, p.ID, uuid.Nil),
		Hours:           hours,
		Amount:          amount,
	}
}

// LowStockEvent is raised when tracked stock drops to the threshold
type LowStockEvent struct {
	shared.BaseDomainEvent
	ShopID    uuid.UUID `json:"shop_id"`
	Stock     int       `json:"stock"`
	Threshold int       `json:"threshold"`
}

// NewLowStockEvent creates a LowStockEvent
func NewLowStockEvent(p *Product) *LowStockEvent {
	stock := 0
	if p.Stock != nil {
		stock = *p.Stock
	}
	return &LowStockEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLowStock, AggregateTypeProduct, p.ID, uuid.Nil),
		ShopID:          p.ShopID,
		Stock:           stock,
		Threshold:       p.LowStockThreshold,
	}
}
