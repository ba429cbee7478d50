package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	billingapp "github.com/wazhop/backend/internal/application/billing"
	"github.com/wazhop/backend/internal/domain/billing"
	"github.com/wazhop/backend/internal/domain/identity"
)

// =====================
// Subscription DTOs
// =====================

// PlanQuoteQuery prices a plan purchase
type PlanQuoteQuery struct {
	Plan          string `form:"plan" binding:"required,oneof=pro premium"`
	BillingPeriod string `form:"billing_period" binding:"omitempty,oneof=monthly yearly"`
	CouponCode    string `form:"coupon_code" binding:"max=50"`
}

// UpgradeRequest starts a paid plan purchase
type UpgradeRequest struct {
	Plan          string `json:"plan" binding:"required,oneof=pro premium"`
	BillingPeriod string `json:"billing_period" binding:"omitempty,oneof=monthly yearly"`
	CouponCode    string `json:"coupon_code" binding:"max=50"`
	RedirectURL   string `json:"redirect_url" binding:"omitempty,url"`
}

func (r UpgradeRequest) period() identity.BillingPeriod {
	if r.BillingPeriod == "" {
		return identity.BillingMonthly
	}
	return identity.BillingPeriod(r.BillingPeriod)
}

// RenewRequest starts a renewal payment
type RenewRequest struct {
	RedirectURL string `json:"redirect_url" binding:"omitempty,url"`
}

// AutoRenewRequest toggles automatic renewal
type AutoRenewRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// =====================
// Payment DTOs
// =====================

// AnalyticsQuery sets a report window in days
type AnalyticsQuery struct {
	Days int `form:"days" binding:"omitempty,min=1,max=365"`
}

// PaymentHistoryQuery narrows the caller's payment history
type PaymentHistoryQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=initiated pending successful failed cancelled abandoned"`
	Type     string `form:"type" binding:"omitempty,oneof=subscription boost renewal upgrade"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// AbandonRequest overrides the abandonment threshold
type AbandonRequest struct {
	AfterMinutes int `json:"after_minutes" binding:"omitempty,min=1,max=10080"`
}

// TransactionResponse is a payment as shown to its owner and admins
type TransactionResponse struct {
	ID            uuid.UUID                   `json:"id"`
	UserID        uuid.UUID                   `json:"user_id"`
	Reference     string                      `json:"reference"`
	Type          billing.TransactionType     `json:"type"`
	Status        billing.TransactionStatus   `json:"status"`
	Amount        decimal.Decimal             `json:"amount"`
	Currency      string                      `json:"currency"`
	Provider      billing.Provider            `json:"provider"`
	Metadata      billing.TransactionMetadata `json:"metadata"`
	PaymentMethod string                      `json:"payment_method,omitempty"`
	ErrorMessage  string                      `json:"error_message,omitempty"`
	InitiatedAt   time.Time                   `json:"initiated_at"`
	CompletedAt   *time.Time                  `json:"completed_at,omitempty"`
	FailedAt      *time.Time                  `json:"failed_at,omitempty"`
	CancelledAt   *time.Time                  `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time                   `json:"created_at"`
}

// PaymentSessionResponse is a started payment
type PaymentSessionResponse struct {
	Transaction      TransactionResponse `json:"transaction"`
	AuthorizationURL string              `json:"authorization_url,omitempty"`
	AccessCode       string              `json:"access_code,omitempty"`
	Settled          bool                `json:"settled"`
}

func toTransactionResponse(t *billing.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		UserID:        t.UserID,
		Reference:     t.Reference,
		Type:          t.Type,
		Status:        t.Status,
		Amount:        t.Amount,
		Currency:      t.Currency,
		Provider:      t.Provider,
		Metadata:      t.Metadata,
		PaymentMethod: t.PaymentMethod,
		ErrorMessage:  t.ErrorMessage,
		InitiatedAt:   t.InitiatedAt,
		CompletedAt:   t.CompletedAt,
		FailedAt:      t.FailedAt,
		CancelledAt:   t.CancelledAt,
		CreatedAt:     t.CreatedAt,
	}
}

func toPaymentSessionResponse(s *billingapp.PaymentSession) PaymentSessionResponse {
	return PaymentSessionResponse{
		Transaction:      toTransactionResponse(s.Transaction),
		AuthorizationURL: s.AuthorizationURL,
		AccessCode:       s.AccessCode,
		Settled:          s.Settled,
	}
}

// =====================
// Coupon DTOs
// =====================

// CreateCouponRequest issues a coupon
type CreateCouponRequest struct {
	Code            string           `json:"code" binding:"required,min=3,max=50"`
	DiscountType    string           `json:"discount_type" binding:"required,oneof=percentage fixed"`
	DiscountValue   *decimal.Decimal `json:"discount_value" binding:"required"`
	ApplicablePlans []string         `json:"applicable_plans" binding:"omitempty,dive,oneof=pro premium"`
	MaxUses         *int             `json:"max_uses" binding:"omitempty,min=1"`
	ValidFrom       *time.Time       `json:"valid_from"`
	ValidUntil      *time.Time       `json:"valid_until"`
	Description     string           `json:"description" binding:"max=200"`
}

func (r CreateCouponRequest) toInput(adminID uuid.UUID) billingapp.CreateCouponInput {
	plans := make([]identity.Plan, len(r.ApplicablePlans))
	for i, p := range r.ApplicablePlans {
		plans[i] = identity.Plan(p)
	}
	return billingapp.CreateCouponInput{
		AdminID:         adminID,
		Code:            r.Code,
		DiscountType:    billing.DiscountType(r.DiscountType),
		DiscountValue:   *r.DiscountValue,
		ApplicablePlans: plans,
		MaxUses:         r.MaxUses,
		ValidFrom:       r.ValidFrom,
		ValidUntil:      r.ValidUntil,
		Description:     r.Description,
	}
}

// CouponCheckRequest validates or applies a code to a plan purchase
type CouponCheckRequest struct {
	Code          string           `json:"code" binding:"required,max=50"`
	Plan          string           `json:"plan" binding:"required,oneof=pro premium"`
	BillingPeriod string           `json:"billing_period" binding:"omitempty,oneof=monthly yearly"`
	Amount        *decimal.Decimal `json:"amount"`
}

func (r CouponCheckRequest) toInput(userID uuid.UUID) billingapp.CouponCheckInput {
	in := billingapp.CouponCheckInput{
		UserID:        userID,
		Code:          r.Code,
		Plan:          identity.Plan(r.Plan),
		BillingPeriod: identity.BillingPeriod(r.BillingPeriod),
	}
	if in.BillingPeriod == "" {
		in.BillingPeriod = identity.BillingMonthly
	}
	if r.Amount != nil {
		in.Amount = *r.Amount
	}
	return in
}

// CouponListQuery narrows the admin coupon listing
type CouponListQuery struct {
	Search   string `form:"search" binding:"max=50"`
	IsActive *bool  `form:"is_active"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// CouponResponse is a coupon as shown to admins
type CouponResponse struct {
	ID              uuid.UUID             `json:"id"`
	Code            string                `json:"code"`
	DiscountType    billing.DiscountType  `json:"discount_type"`
	DiscountValue   decimal.Decimal       `json:"discount_value"`
	ApplicablePlans []identity.Plan       `json:"applicable_plans"`
	MaxUses         *int                  `json:"max_uses"`
	UsedCount       int                   `json:"used_count"`
	ValidFrom       time.Time             `json:"valid_from"`
	ValidUntil      *time.Time            `json:"valid_until"`
	IsActive        bool                  `json:"is_active"`
	CreatedBy       uuid.UUID             `json:"created_by"`
	UsedBy          []billing.CouponUsage `json:"used_by"`
	Description     string                `json:"description,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

func toCouponResponse(c *billing.Coupon) CouponResponse {
	plans := c.ApplicablePlans
	if plans == nil {
		plans = []identity.Plan{}
	}
	usedBy := c.UsedBy
	if usedBy == nil {
		usedBy = []billing.CouponUsage{}
	}
	return CouponResponse{
		ID:              c.ID,
		Code:            c.Code,
		DiscountType:    c.DiscountType,
		DiscountValue:   c.DiscountValue,
		ApplicablePlans: plans,
		MaxUses:         c.MaxUses,
		UsedCount:       c.UsedCount,
		ValidFrom:       c.ValidFrom,
		ValidUntil:      c.ValidUntil,
		IsActive:        c.IsActive,
		CreatedBy:       c.CreatedBy,
		UsedBy:          usedBy,
		Description:     c.Description,
		CreatedAt:       c.CreatedAt,
	}
}
