package order

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/shared"
)

// Status is the fulfilment state of an order
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// AllStatuses lists statuses in lifecycle order
var AllStatuses = []Status{
	StatusPending, StatusConfirmed, StatusProcessing, StatusShipped,
	StatusDelivered, StatusCancelled, StatusRefunded,
}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsCancellable reports whether an order in s may still be cancelled
func (s Status) IsCancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

// PaymentMethod is how the customer intends to pay
type PaymentMethod string

const (
	PaymentWhatsApp       PaymentMethod = "whatsapp"
	PaymentFlutterwave    PaymentMethod = "flutterwave"
	PaymentPaystack       PaymentMethod = "paystack"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// IsValid reports whether m is a known method
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentWhatsApp, PaymentFlutterwave, PaymentPaystack, PaymentBankTransfer, PaymentCashOnDelivery:
		return true
	}
	return false
}

// PaymentStatus is the settlement state of an order
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Source is where the order was placed
type Source string

const (
	SourceWeb      Source = "web"
	SourceWhatsApp Source = "whatsapp"
	SourceAPI      Source = "api"
)

// Customer identifies who placed the order; UserID is nil for guests
type Customer struct {
	UserID *uuid.UUID `json:"user_id,omitempty"`
	Name   string     `json:"name"`
	Email  string     `json:"email"`
	Phone  string     `json:"phone"`
}

// Address is a shipping address
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// Item is an order line priced at order time
type Item struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image,omitempty"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Total        decimal.Decimal `json:"total"`
}

// NewItem prices a line
func NewItem(productID uuid.UUID, name, image string, qty int, price decimal.Decimal) (Item, error) {
	if qty < 1 {
		return Item{}, shared.NewDomainError("INVALID_INPUT", "Quantity must be at least 1")
	}
	return Item{
		ProductID:    productID,
		ProductName:  name,
		ProductImage: image,
		Quantity:     qty,
		Price:        price,
		Total:        price.Mul(decimal.NewFromInt(int64(qty))),
	}, nil
}

// Notifications records which customer messages were sent
type Notifications struct {
	OrderConfirmation bool `json:"order_confirmation"`
	OrderShipped      bool `json:"order_shipped"`
	OrderDelivered    bool `json:"order_delivered"`
}

// Order is a purchase from one shop.
// It is the aggregate root for lines, totals and fulfilment state.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber      string
	ShopID           uuid.UUID
	Customer         Customer
	Items            []Item
	Subtotal         decimal.Decimal
	ShippingFee      decimal.Decimal
	Tax              decimal.Decimal
	Discount         decimal.Decimal
	Total            decimal.Decimal
	Currency         string
	CouponCode       string
	ShippingAddress  Address
	Status           Status
	PaymentMethod    PaymentMethod
	PaymentStatus    PaymentStatus
	PaymentReference string
	PaidAt           *time.Time
	Source           Source
	CustomerNotes    string
	SellerNotes      string
	ConfirmedAt      *time.Time
	ShippedAt        *time.Time
	DeliveredAt      *time.Time
	CancelledAt      *time.Time
	Notifications    Notifications
}

var emailRegex = regexp.MustCompile(`(?i)^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// Params are the inputs to NewOrder
type Params struct {
	ShopID          uuid.UUID
	Customer        Customer
	Items           []Item
	ShippingFee     decimal.Decimal
	Discount        decimal.Decimal
	Currency        string
	CouponCode      string
	ShippingAddress Address
	PaymentMethod   PaymentMethod
	CustomerNotes   string
	Source          Source
}

// New creates a pending order; totals are computed from the lines
func New(p Params, now time.Time) (*Order, error) {
	if p.ShopID == uuid.Nil || len(p.Items) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Shop and items are required")
	}
	c := p.Customer
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
	if c.Name == "" || c.Email == "" || c.Phone == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Customer information is required")
	}
	if !emailRegex.MatchString(c.Email) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Please provide a valid email")
	}
	if p.PaymentMethod == "" {
		p.PaymentMethod = PaymentWhatsApp
	}
	if !p.PaymentMethod.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid payment method")
	}
	if p.Source == "" {
		p.Source = SourceWeb
	}
	if p.Currency == "" {
		p.Currency = "NGN"
	}
	if p.ShippingFee.IsNegative() || p.Discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Fees and discounts cannot be negative")
	}

	number, err := GenerateNumber(now)
	if err != nil {
		return nil, err
	}
	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       number,
		ShopID:            p.ShopID,
		Customer:          c,
		Items:             p.Items,
		ShippingFee:       p.ShippingFee,
		Tax:               decimal.Zero,
		Discount:          p.Discount,
		Currency:          strings.ToUpper(p.Currency),
		CouponCode:        strings.ToUpper(strings.TrimSpace(p.CouponCode)),
		ShippingAddress:   p.ShippingAddress,
		Status:            StatusPending,
		PaymentMethod:     p.PaymentMethod,
		PaymentStatus:     PaymentPending,
		Source:            p.Source,
		CustomerNotes:     p.CustomerNotes,
	}
	o.recalculate()
	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return o, nil
}

func (o *Order) recalculate() {
	sub := decimal.Zero
	for _, it := range o.Items {
		sub = sub.Add(it.Total)
	}
	o.Subtotal = sub
	total := sub.Add(o.ShippingFee).Add(o.Tax).Sub(o.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	o.Total = total
}

// ItemCount sums line quantities
func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// IsPlacedBy reports whether userID placed the order
func (o *Order) IsPlacedBy(userID uuid.UUID) bool {
	return o.Customer.UserID != nil && *o.Customer.UserID == userID
}

// UpdateStatus moves the order to status and stamps the first confirm, ship
// and deliver times.
func (o *Order) UpdateStatus(status Status, actorID uuid.UUID, now time.Time) error {
	if !status.IsValid() || status == StatusRefunded {
		return shared.NewDomainError("INVALID_INPUT", "Invalid status")
	}
	if o.Status == StatusCancelled && status != StatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cancelled orders cannot be updated")
	}
	previous := o.Status
	o.Status = status
	switch status {
	case StatusConfirmed:
		if o.ConfirmedAt == nil {
			o.ConfirmedAt = &now
		}
	case StatusShipped:
		if o.ShippedAt == nil {
			o.ShippedAt = &now
		}
	case StatusDelivered:
		if o.DeliveredAt == nil {
			o.DeliveredAt = &now
		}
	case StatusCancelled:
		if o.CancelledAt == nil {
			o.CancelledAt = &now
		}
	}
	o.touch(now)
	if previous != status {
		o.AddDomainEvent(NewOrderStatusChangedEvent(o, previous, actorID))
	}
	return nil
}

// Cancel cancels a pending or confirmed order
func (o *Order) Cancel(actorID uuid.UUID, now time.Time) error {
	if !o.Status.IsCancellable() {
		return shared.NewDomainError("INVALID_STATE", "Order cannot be cancelled at this stage")
	}
	return o.UpdateStatus(StatusCancelled, actorID, now)
}

// MarkPaid records a successful payment
func (o *Order) MarkPaid(reference string, now time.Time) {
	o.PaymentStatus = PaymentPaid
	o.PaymentReference = reference
	o.PaidAt = &now
	o.touch(now)
}

// MarkNotified records that a customer message went out for status
func (o *Order) MarkNotified(status Status) {
	switch status {
	case StatusPending, StatusConfirmed:
		o.Notifications.OrderConfirmation = true
	case StatusShipped:
		o.Notifications.OrderShipped = true
	case StatusDelivered:
		o.Notifications.OrderDelivered = true
	}
}

func (o *Order) touch(now time.Time) {
	o.UpdatedAt = now
	o.IncrementVersion()
}

// GenerateNumber returns WZ + yy + mm + four random digits
func GenerateNumber(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("generate order number: %w", err)
	}
	return fmt.Sprintf("WZ%02d%02d%04d", now.Year()%100, int(now.Month()), n.Int64()), nil
}

// StatusStat is the count and revenue of orders in one status
type StatusStat struct {
	Status  Status          `json:"status"`
	Count   int64           `json:"count"`
	Revenue decimal.Decimal `json:"total_revenue"`
}

// Stats summarises a shop's orders
type Stats struct {
	TotalOrders  int64           `json:"total_orders"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	ByStatus     []StatusStat    `json:"by_status"`
}

// ComputeStats summarises orders; revenue counts paid orders only
func ComputeStats(orders []*Order) Stats {
	s := Stats{TotalRevenue: decimal.Zero, ByStatus: []StatusStat{}}
	index := make(map[Status]int)
	for _, o := range orders {
		s.TotalOrders++
		if o.PaymentStatus == PaymentPaid {
			s.TotalRevenue = s.TotalRevenue.Add(o.Total)
		}
		i, ok := index[o.Status]
		if !ok {
			i = len(s.ByStatus)
			index[o.Status] = i
			s.ByStatus = append(s.ByStatus, StatusStat{Status: o.Status, Revenue: decimal.Zero})
		}
		s.ByStatus[i].Count++
		s.ByStatus[i].Revenue = s.ByStatus[i].Revenue.Add(o.Total)
	}
	return s
}
