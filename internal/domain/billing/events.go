package billing

import (
	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/shared"
)

const (
	AggregateTypeTransaction = "PaymentTransaction"
	AggregateTypeCoupon      = "Coupon"
)

const (
	EventTypePaymentInitiated     = "PaymentInitiated"
	EventTypePaymentStatusChanged = "PaymentStatusChanged"
)

// PaymentInitiatedEvent is raised when a payment starts
type PaymentInitiatedEvent struct {
	shared.BaseDomainEvent
	Reference string          `json:"reference"`
	Type      TransactionType `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewPaymentInitiatedEvent creates a PaymentInitiatedEvent
func NewPaymentInitiatedEvent(t *Transaction) *PaymentInitiatedEvent {
	return &PaymentInitiatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentInitiated, AggregateTypeTransaction, t.ID, t.UserID),
		Reference:       t.Reference,
		Type:            t.Type,
		Amount:          t.Amount,
	}
}

// PaymentStatusChangedEvent is raised on every payment status change
type PaymentStatusChangedEvent struct {
	shared.BaseDomainEvent
	Reference string            `json:"reference"`
	From      TransactionStatus `json:"from"`
	To        TransactionStatus `json:"to"`
	Amount    decimal.Decimal   `json:"amount"`
}

// NewPaymentStatusChangedEvent creates a PaymentStatusChangedEvent
func NewPaymentStatusChangedEvent(t *Transaction, from TransactionStatus) *PaymentStatusChangedEvent {
	return &PaymentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentStatusChanged, AggregateTypeTransaction, t.ID, t.UserID),
		Reference:       t.Reference,
		From:            from,
		To:              t.Status,
		Amount:          t.Amount,
	}
}
