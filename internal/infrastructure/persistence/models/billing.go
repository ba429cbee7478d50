package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/billing"
	"github.com/wazhop/backend/internal/domain/identity"
)

// CouponModel is the persistence model for coupons.
type CouponModel struct {
	AggregateModel
	Code            string               `gorm:"type:varchar(40);not null;uniqueIndex"`
	DiscountType    billing.DiscountType `gorm:"type:varchar(20);not null"`
	DiscountValue   decimal.Decimal      `gorm:"type:decimal(14,2);not null"`
	ApplicablePlans []identity.Plan      `gorm:"type:jsonb;serializer:json"`
	MaxUses         *int
	UsedCount       int                   `gorm:"not null;default:0"`
	ValidFrom       time.Time             `gorm:"not null"`
	ValidUntil      *time.Time            `gorm:"index"`
	IsActive        bool                  `gorm:"not null;index"`
	CreatedBy       uuid.UUID             `gorm:"type:uuid"`
	UsedBy          []billing.CouponUsage `gorm:"type:jsonb;serializer:json"`
	Description     string                `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (CouponModel) TableName() string {
	return "coupons"
}

// ToDomain converts the persistence model to a domain Coupon.
func (m *CouponModel) ToDomain() *billing.Coupon {
	return &billing.Coupon{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Code:              m.Code,
		DiscountType:      m.DiscountType,
		DiscountValue:     m.DiscountValue,
		ApplicablePlans:   m.ApplicablePlans,
		MaxUses:           m.MaxUses,
		UsedCount:         m.UsedCount,
		ValidFrom:         m.ValidFrom,
		ValidUntil:        m.ValidUntil,
		IsActive:          m.IsActive,
		CreatedBy:         m.CreatedBy,
		UsedBy:            m.UsedBy,
		Description:       m.Description,
	}
}

// CouponModelFromDomain creates a new persistence model from a domain Coupon.
func CouponModelFromDomain(c *billing.Coupon) *CouponModel {
	m := &CouponModel{
		Code:            c.Code,
		DiscountType:    c.DiscountType,
		DiscountValue:   c.DiscountValue,
		ApplicablePlans: c.ApplicablePlans,
		MaxUses:         c.MaxUses,
		UsedCount:       c.UsedCount,
		ValidFrom:       c.ValidFrom,
		ValidUntil:      c.ValidUntil,
		IsActive:        c.IsActive,
		CreatedBy:       c.CreatedBy,
		UsedBy:          c.UsedBy,
		Description:     c.Description,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// PaymentTransactionModel is the persistence model for payment transactions.
type PaymentTransactionModel struct {
	AggregateModel
	UserID                  uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Reference               string                      `gorm:"type:varchar(100);not null;uniqueIndex"`
	Type                    billing.TransactionType     `gorm:"type:varchar(20);not null"`
	Status                  billing.TransactionStatus   `gorm:"type:varchar(20);not null;index"`
	Amount                  decimal.Decimal             `gorm:"type:decimal(14,2);not null"`
	Currency                string                      `gorm:"type:varchar(3);not null"`
	Provider                billing.Provider            `gorm:"type:varchar(20);not null"`
	Metadata                billing.TransactionMetadata `gorm:"type:jsonb;serializer:json"`
	InitiatedAt             time.Time                   `gorm:"not null;index"`
	RedirectedAt            *time.Time
	CompletedAt             *time.Time
	FailedAt                *time.Time
	CancelledAt             *time.Time
	ProviderTransactionID   string `gorm:"type:varchar(100)"`
	PaymentMethod           string `gorm:"type:varchar(40)"`
	ErrorMessage            string `gorm:"type:varchar(500)"`
	ErrorCode               string `gorm:"type:varchar(40)"`
	RedirectURL             string `gorm:"type:varchar(500)"`
	ReturnURL               string `gorm:"type:varchar(500)"`
	UserAgent               string `gorm:"type:varchar(300)"`
	IPAddress               string `gorm:"type:varchar(45)"`
	VerificationAttempts    int    `gorm:"not null;default:0"`
	LastVerificationAttempt *time.Time
}

// TableName returns the table name for GORM
func (PaymentTransactionModel) TableName() string {
	return "payment_transactions"
}

// ToDomain converts the persistence model to a domain Transaction.
func (m *PaymentTransactionModel) ToDomain() *billing.Transaction {
	return &billing.Transaction{
		BaseAggregateRoot:     m.ToAggregateRoot(),
		UserID:                m.UserID,
		Reference:             m.Reference,
		Type:                  m.Type,
		Status:                m.Status,
		Amount:                m.Amount,
		Currency:              m.Currency,
		Provider:              m.Provider,
		Metadata:              m.Metadata,
		InitiatedAt:           m.InitiatedAt,
		RedirectedAt:          m.RedirectedAt,
		CompletedAt:           m.CompletedAt,
		FailedAt:              m.FailedAt,
		CancelledAt:           m.CancelledAt,
		ProviderTransactionID: m.ProviderTransactionID,
		PaymentMethod:         m.PaymentMethod,
		ErrorMessage:          m.ErrorMessage,
		ErrorCode:             m.ErrorCode,
		Client: billing.ClientInfo{
			RedirectURL: m.RedirectURL,
			ReturnURL:   m.ReturnURL,
			UserAgent:   m.UserAgent,
			IPAddress:   m.IPAddress,
		},
		VerificationAttempts:    m.VerificationAttempts,
		LastVerificationAttempt: m.LastVerificationAttempt,
	}
}

// PaymentTransactionModelFromDomain creates a new persistence model from a domain Transaction.
func PaymentTransactionModelFromDomain(t *billing.Transaction) *PaymentTransactionModel {
	m := &PaymentTransactionModel{
		UserID:                  t.UserID,
		Reference:               t.Reference,
		Type:                    t.Type,
		Status:                  t.Status,
		Amount:                  t.Amount,
		Currency:                t.Currency,
		Provider:                t.Provider,
		Metadata:                t.Metadata,
		InitiatedAt:             t.InitiatedAt,
		RedirectedAt:            t.RedirectedAt,
		CompletedAt:             t.CompletedAt,
		FailedAt:                t.FailedAt,
		CancelledAt:             t.CancelledAt,
		ProviderTransactionID:   t.ProviderTransactionID,
		PaymentMethod:           t.PaymentMethod,
		ErrorMessage:            t.ErrorMessage,
		ErrorCode:               t.ErrorCode,
		RedirectURL:             t.Client.RedirectURL,
		ReturnURL:               t.Client.ReturnURL,
		UserAgent:               t.Client.UserAgent,
		IPAddress:               t.Client.IPAddress,
		VerificationAttempts:    t.VerificationAttempts,
		LastVerificationAttempt: t.LastVerificationAttempt,
	}
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	return m
}
