package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/order"
)

// OrderModel is the persistence model for the Order aggregate.
// Line items and the shipping address are snapshots and live in JSON columns.
type OrderModel struct {
	AggregateModel
	OrderNumber      string              `gorm:"type:varchar(20);not null;uniqueIndex"`
	ShopID           uuid.UUID           `gorm:"type:uuid;not null;index"`
	CustomerUserID   *uuid.UUID          `gorm:"type:uuid;index"`
	CustomerName     string              `gorm:"type:varchar(100);not null"`
	CustomerEmail    string              `gorm:"type:varchar(200)"`
	CustomerPhone    string              `gorm:"type:varchar(30);not null"`
	Items            []order.Item        `gorm:"type:jsonb;serializer:json"`
	Subtotal         decimal.Decimal     `gorm:"type:decimal(14,2);not null"`
	ShippingFee      decimal.Decimal     `gorm:"type:decimal(14,2);not null"`
	Tax              decimal.Decimal     `gorm:"type:decimal(14,2);not null"`
	Discount         decimal.Decimal     `gorm:"type:decimal(14,2);not null"`
	Total            decimal.Decimal     `gorm:"type:decimal(14,2);not null"`
	Currency         string              `gorm:"type:varchar(3);not null"`
	CouponCode       string              `gorm:"type:varchar(40)"`
	ShippingAddress  order.Address       `gorm:"type:jsonb;serializer:json"`
	Status           order.Status        `gorm:"type:varchar(20);not null;index"`
	PaymentMethod    order.PaymentMethod `gorm:"type:varchar(20);not null"`
	PaymentStatus    order.PaymentStatus `gorm:"type:varchar(20);not null;index"`
	PaymentReference string              `gorm:"type:varchar(100)"`
	PaidAt           *time.Time
	Source           order.Source `gorm:"type:varchar(20);not null"`
	CustomerNotes    string       `gorm:"type:text"`
	SellerNotes      string       `gorm:"type:text"`
	ConfirmedAt      *time.Time
	ShippedAt        *time.Time
	DeliveredAt      *time.Time
	CancelledAt      *time.Time
	Notifications    order.Notifications `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order.
func (m *OrderModel) ToDomain() *order.Order {
	return &order.Order{
		BaseAggregateRoot: m.ToAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		ShopID:            m.ShopID,
		Customer: order.Customer{
			UserID: m.CustomerUserID,
			Name:   m.CustomerName,
			Email:  m.CustomerEmail,
			Phone:  m.CustomerPhone,
		},
		Items:            m.Items,
		Subtotal:         m.Subtotal,
		ShippingFee:      m.ShippingFee,
		Tax:              m.Tax,
		Discount:         m.Discount,
		Total:            m.Total,
		Currency:         m.Currency,
		CouponCode:       m.CouponCode,
		ShippingAddress:  m.ShippingAddress,
		Status:           m.Status,
		PaymentMethod:    m.PaymentMethod,
		PaymentStatus:    m.PaymentStatus,
		PaymentReference: m.PaymentReference,
		PaidAt:           m.PaidAt,
		Source:           m.Source,
		CustomerNotes:    m.CustomerNotes,
		SellerNotes:      m.SellerNotes,
		ConfirmedAt:      m.ConfirmedAt,
		ShippedAt:        m.ShippedAt,
		DeliveredAt:      m.DeliveredAt,
		CancelledAt:      m.CancelledAt,
		Notifications:    m.Notifications,
	}
}

// FromDomain populates the persistence model from a domain Order.
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.ShopID = o.ShopID
	m.CustomerUserID = o.Customer.UserID
	m.CustomerName = o.Customer.Name
	m.CustomerEmail = o.Customer.Email
	m.CustomerPhone = o.Customer.Phone
	m.Items = o.Items
	m.Subtotal = o.Subtotal
	m.ShippingFee = o.ShippingFee
	m.Tax = o.Tax
	m.Discount = o.Discount
	m.Total = o.Total
	m.Currency = o.Currency
	m.CouponCode = o.CouponCode
	m.ShippingAddress = o.ShippingAddress
	m.Status = o.Status
	m.PaymentMethod = o.PaymentMethod
	m.PaymentStatus = o.PaymentStatus
	m.PaymentReference = o.PaymentReference
	m.PaidAt = o.PaidAt
	m.Source = o.Source
	m.CustomerNotes = o.CustomerNotes
	m.SellerNotes = o.SellerNotes
	m.ConfirmedAt = o.ConfirmedAt
	m.ShippedAt = o.ShippedAt
	m.DeliveredAt = o.DeliveredAt
	m.CancelledAt = o.CancelledAt
	m.Notifications = o.Notifications
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}
