package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/order"
)

// Actor is the caller of an order operation
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// ItemInput is one requested line; prices come from the product
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderInput places an order with one shop. Customer.UserID is nil
// for guest checkout.
type CreateOrderInput struct {
	ShopID          uuid.UUID
	Customer        order.Customer
	Items           []ItemInput
	ShippingAddress order.Address
	ShippingFee     decimal.Decimal
	PaymentMethod   order.PaymentMethod
	CustomerNotes   string
	Source          order.Source
}

// UpdateStatusInput moves an order along its lifecycle
type UpdateStatusInput struct {
	Status      order.Status
	SellerNotes string
}
