package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/order"
)

// =====================
// Order Request DTOs
// =====================

// OrderItemRequest is one requested line
type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=999"`
}

// OrderCustomerRequest identifies the buyer
type OrderCustomerRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"required,max=20"`
}

// AddressRequest is a shipping address
type AddressRequest struct {
	Street     string `json:"street" binding:"max=200"`
	City       string `json:"city" binding:"max=100"`
	State      string `json:"state" binding:"max=100"`
	Country    string `json:"country" binding:"max=100"`
	PostalCode string `json:"postal_code" binding:"max=20"`
}

// CreateOrderRequest places an order with one shop
type CreateOrderRequest struct {
	ShopID          uuid.UUID            `json:"shop_id" binding:"required"`
	Customer        OrderCustomerRequest `json:"customer" binding:"required"`
	Items           []OrderItemRequest   `json:"items" binding:"required,min=1,max=50,dive"`
	ShippingAddress AddressRequest       `json:"shipping_address"`
	ShippingFee     *decimal.Decimal     `json:"shipping_fee"`
	PaymentMethod   string               `json:"payment_method" binding:"omitempty,oneof=whatsapp flutterwave paystack bank_transfer cash_on_delivery"`
	CustomerNotes   string               `json:"customer_notes" binding:"max=500"`
	Source          string               `json:"source" binding:"omitempty,oneof=web whatsapp api"`
}

// OrderListQuery narrows a shop's order listing
type OrderListQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending confirmed processing shipped delivered cancelled refunded"`
	Search   string `form:"search" binding:"max=100"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// UpdateOrderStatusRequest moves an order along its lifecycle
type UpdateOrderStatusRequest struct {
	Status      string `json:"status" binding:"required,oneof=pending confirmed processing shipped delivered cancelled refunded"`
	SellerNotes string `json:"seller_notes" binding:"max=500"`
}

// =====================
// Order Response DTOs
// =====================

// OrderResponse is an order as shown to its customer and seller
type OrderResponse struct {
	ID               uuid.UUID           `json:"id"`
	OrderNumber      string              `json:"order_number"`
	ShopID           uuid.UUID           `json:"shop_id"`
	Customer         order.Customer      `json:"customer"`
	Items            []order.Item        `json:"items"`
	Subtotal         decimal.Decimal     `json:"subtotal"`
	ShippingFee      decimal.Decimal     `json:"shipping_fee"`
	Tax              decimal.Decimal     `json:"tax"`
	Discount         decimal.Decimal     `json:"discount"`
	Total            decimal.Decimal     `json:"total"`
	Currency         string              `json:"currency"`
	CouponCode       string              `json:"coupon_code,omitempty"`
	ShippingAddress  order.Address       `json:"shipping_address"`
	Status           order.Status        `json:"status"`
	PaymentMethod    order.PaymentMethod `json:"payment_method"`
	PaymentStatus    order.PaymentStatus `json:"payment_status"`
	PaymentReference string              `json:"payment_reference,omitempty"`
	PaidAt           *time.Time          `json:"paid_at,omitempty"`
	Source           order.Source        `json:"source"`
	CustomerNotes    string              `json:"customer_notes,omitempty"`
	SellerNotes      string              `json:"seller_notes,omitempty"`
	ConfirmedAt      *time.Time          `json:"confirmed_at,omitempty"`
	ShippedAt        *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt      *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt      *time.Time          `json:"cancelled_at,omitempty"`
	Notifications    order.Notifications `json:"notifications"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func toOrderResponse(o *order.Order) OrderResponse {
	return OrderResponse{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		ShopID:           o.ShopID,
		Customer:         o.Customer,
		Items:            o.Items,
		Subtotal:         o.Subtotal,
		ShippingFee:      o.ShippingFee,
		Tax:              o.Tax,
		Discount:         o.Discount,
		Total:            o.Total,
		Currency:         o.Currency,
		CouponCode:       o.CouponCode,
		ShippingAddress:  o.ShippingAddress,
		Status:           o.Status,
		PaymentMethod:    o.PaymentMethod,
		PaymentStatus:    o.PaymentStatus,
		PaymentReference: o.PaymentReference,
		PaidAt:           o.PaidAt,
		Source:           o.Source,
		CustomerNotes:    o.CustomerNotes,
		SellerNotes:      o.SellerNotes,
		ConfirmedAt:      o.ConfirmedAt,
		ShippedAt:        o.ShippedAt,
		DeliveredAt:      o.DeliveredAt,
		CancelledAt:      o.CancelledAt,
		Notifications:    o.Notifications,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}
