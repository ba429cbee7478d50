package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/shared"
)

// TransactionType is what a payment pays for
type TransactionType string

const (
	TransactionSubscription TransactionType = "subscription"
	TransactionBoost        TransactionType = "boost"
	TransactionRenewal      TransactionType = "renewal"
	TransactionUpgrade      TransactionType = "upgrade"
)

// IsValid reports whether t is known
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionSubscription, TransactionBoost, TransactionRenewal, TransactionUpgrade:
		return true
	}
	return false
}

// TransactionStatus is the lifecycle state of a payment
type TransactionStatus string

const (
	StatusInitiated  TransactionStatus = "initiated"
	StatusPending    TransactionStatus = "pending"
	StatusSuccessful TransactionStatus = "successful"
	StatusFailed     TransactionStatus = "failed"
	StatusCancelled  TransactionStatus = "cancelled"
	StatusAbandoned  TransactionStatus = "abandoned"
)

// IsValid reports whether s is known
func (s TransactionStatus) IsValid() bool {
	switch s {
	case StatusInitiated, StatusPending, StatusSuccessful, StatusFailed, StatusCancelled, StatusAbandoned:
		return true
	}
	return false
}

// IsFinal reports whether no further transition is expected
func (s TransactionStatus) IsFinal() bool {
	return s == StatusSuccessful || s == StatusFailed || s == StatusCancelled || s == StatusAbandoned
}

// Provider is the payment gateway that processed a transaction
type Provider string

const (
	ProviderFlutterwave Provider = "flutterwave"
	ProviderPaystack    Provider = "paystack"
	ProviderManual      Provider = "manual"
)

// AbandonAfter is how long an initiated payment may wait before it is abandoned
const AbandonAfter = 30 * time.Minute

// TransactionMetadata carries what the payment was for
type TransactionMetadata struct {
	Plan            identity.Plan          `json:"plan,omitempty"`
	BillingPeriod   identity.BillingPeriod `json:"billing_period,omitempty"`
	ProductID       *uuid.UUID             `json:"product_id,omitempty"`
	BoostHours      int                    `json:"boost_hours,omitempty"`
	State           string                 `json:"state,omitempty"`
	Area            string                 `json:"area,omitempty"`
	CouponCode      string                 `json:"coupon_code,omitempty"`
	DiscountApplied decimal.Decimal        `json:"discount_applied"`
	OriginalAmount  decimal.Decimal        `json:"original_amount"`
}

// ClientInfo describes the browser that started a payment
type ClientInfo struct {
	RedirectURL string
	ReturnURL   string
	UserAgent   string
	IPAddress   string
}

// Transaction tracks a gateway payment from initiation to completion
type Transaction struct {
	shared.BaseAggregateRoot
	UserID                  uuid.UUID
	Reference               string
	Type                    TransactionType
	Status                  TransactionStatus
	Amount                  decimal.Decimal
	Currency                string
	Provider                Provider
	Metadata                TransactionMetadata
	InitiatedAt             time.Time
	RedirectedAt            *time.Time
	CompletedAt             *time.Time
	FailedAt                *time.Time
	CancelledAt             *time.Time
	ProviderTransactionID   string
	PaymentMethod           string
	ErrorMessage            string
	ErrorCode               string
	Client                  ClientInfo
	VerificationAttempts    int
	LastVerificationAttempt *time.Time
}

// TransactionParams are the inputs to NewTransaction
type TransactionParams struct {
	UserID    uuid.UUID
	Reference string
	Type      TransactionType
	Amount    decimal.Decimal
	Currency  string
	Provider  Provider
	Metadata  TransactionMetadata
	Client    ClientInfo
}

// NewTransaction starts tracking a payment in the initiated state
func NewTransaction(p TransactionParams, now time.Time) (*Transaction, error) {
	ref := strings.TrimSpace(p.Reference)
	if ref == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Transaction reference is required")
	}
	if !p.Type.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid transaction type")
	}
	if p.Amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Amount cannot be negative")
	}
	if p.Currency == "" {
		p.Currency = "NGN"
	}
	if p.Provider == "" {
		p.Provider = ProviderFlutterwave
	}
	t := &Transaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            p.UserID,
		Reference:         ref,
		Type:              p.Type,
		Status:            StatusInitiated,
		Amount:            p.Amount,
		Currency:          p.Currency,
		Provider:          p.Provider,
		Metadata:          p.Metadata,
		InitiatedAt:       now,
		Client:            p.Client,
	}
	t.AddDomainEvent(NewPaymentInitiatedEvent(t))
	return t, nil
}

// StatusDetails are optional gateway details recorded with a status change
type StatusDetails struct {
	ProviderTransactionID string
	PaymentMethod         string
	ErrorMessage          string
	ErrorCode             string
}

// UpdateStatus moves the payment to status and stamps the matching time.
// Repeating a final status is a no-op so gateway retries stay idempotent.
func (t *Transaction) UpdateStatus(status TransactionStatus, d StatusDetails, now time.Time) (changed bool, err error) {
	if !status.IsValid() {
		return false, shared.NewDomainError("INVALID_INPUT", "Invalid status")
	}
	if t.Status == status && status.IsFinal() {
		return false, nil
	}
	if t.Status == StatusSuccessful {
		return false, shared.NewDomainError("INVALID_STATE", "Payment already completed")
	}
	from := t.Status
	t.Status = status
	switch status {
	case StatusSuccessful:
		t.CompletedAt = &now
	case StatusFailed:
		t.FailedAt = &now
	case StatusCancelled:
		t.CancelledAt = &now
	case StatusPending:
		t.RedirectedAt = &now
	}
	if d.ProviderTransactionID != "" {
		t.ProviderTransactionID = d.ProviderTransactionID
	}
	if d.PaymentMethod != "" {
		t.PaymentMethod = d.PaymentMethod
	}
	if d.ErrorMessage != "" {
		t.ErrorMessage = d.ErrorMessage
	}
	if d.ErrorCode != "" {
		t.ErrorCode = d.ErrorCode
	}
	t.UpdatedAt = now
	t.IncrementVersion()
	t.AddDomainEvent(NewPaymentStatusChangedEvent(t, from))
	return true, nil
}

// RecordVerification counts a verification call against the gateway
func (t *Transaction) RecordVerification(now time.Time) {
	t.VerificationAttempts++
	t.LastVerificationAttempt = &now
	t.UpdatedAt = now
	t.IncrementVersion()
}

// IsStale reports whether an initiated payment has waited longer than after
func (t *Transaction) IsStale(now time.Time, after time.Duration) bool {
	return t.Status == StatusInitiated && t.InitiatedAt.Before(now.Add(-after))
}

// Abandon marks a stale initiated payment as abandoned
func (t *Transaction) Abandon(now time.Time, after time.Duration) bool {
	if !t.IsStale(now, after) {
		return false
	}
	t.Status = StatusAbandoned
	t.ErrorMessage = fmt.Sprintf("Payment not completed within %d minutes", int(after.Minutes()))
	t.UpdatedAt = now
	t.IncrementVersion()
	return true
}

// Duration returns how long the payment took to finish, zero while open
func (t *Transaction) Duration() time.Duration {
	var end *time.Time
	switch {
	case t.CompletedAt != nil:
		end = t.CompletedAt
	case t.FailedAt != nil:
		end = t.FailedAt
	case t.CancelledAt != nil:
		end = t.CancelledAt
	}
	if end == nil {
		return 0
	}
	return end.Sub(t.InitiatedAt)
}

// TransactionStats counts payments by status
type TransactionStats struct {
	Total         int                       `json:"total"`
	ByStatus      map[TransactionStatus]int `json:"by_status"`
	SuccessAmount decimal.Decimal           `json:"success_amount"`
	SuccessRate   float64                   `json:"success_rate"`
}

// ComputeTransactionStats summarises txs
func ComputeTransactionStats(txs []*Transaction) TransactionStats {
	s := TransactionStats{ByStatus: map[TransactionStatus]int{}, SuccessAmount: decimal.Zero}
	for _, t := range txs {
		s.Total++
		s.ByStatus[t.Status]++
		if t.Status == StatusSuccessful {
			s.SuccessAmount = s.SuccessAmount.Add(t.Amount)
		}
	}
	if s.Total > 0 {
		s.SuccessRate = float64(s.ByStatus[StatusSuccessful]) / float64(s.Total) * 100
	}
	return s
}
