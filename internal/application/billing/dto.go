package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/billing"
	"github.com/wazhop/backend/internal/domain/identity"
)

// CreateCouponInput contains the input for issuing a coupon
type CreateCouponInput struct {
	AdminID         uuid.UUID
	Code            string
	DiscountType    billing.DiscountType
	DiscountValue   decimal.Decimal
	ApplicablePlans []identity.Plan
	MaxUses         *int
	ValidFrom       *time.Time
	ValidUntil      *time.Time
	Description     string
}

// CouponCheckInput asks whether a user may use a code on a plan purchase
type CouponCheckInput struct {
	UserID        uuid.UUID
	Code          string
	Plan          identity.Plan
	BillingPeriod identity.BillingPeriod
	// Amount overrides the plan price when positive
	Amount decimal.Decimal
}

// CouponQuote is the effect of a valid coupon
type CouponQuote struct {
	Code         string               `json:"code"`
	DiscountType billing.DiscountType `json:"discount_type"`
	Value        decimal.Decimal      `json:"discount_value"`
	Description  string               `json:"description,omitempty"`
	billing.Discount
}

// PlanQuote is the price of a plan purchase after any coupon
type PlanQuote struct {
	Plan          identity.Plan          `json:"plan"`
	BillingPeriod identity.BillingPeriod `json:"billing_period"`
	Currency      string                 `json:"currency"`
	DurationDays  int                    `json:"duration_days"`
	billing.Discount
	CouponCode string `json:"coupon_code,omitempty"`
}

// SubscriptionStatus is the subscription as shown to its owner
type SubscriptionStatus struct {
	Plan               identity.Plan               `json:"plan"`
	BillingPeriod      identity.BillingPeriod      `json:"billing_period"`
	PlanExpiry         *time.Time                  `json:"plan_expiry"`
	AutoRenew          bool                        `json:"auto_renew"`
	SubscriptionStatus identity.SubscriptionStatus `json:"subscription_status"`
	LastBillingDate    *time.Time                  `json:"last_billing_date"`
	IsExpired          bool                        `json:"is_expired"`
	DaysRemaining      *int                        `json:"days_remaining"`
	Limits             identity.PlanLimits         `json:"limits"`
}

// ExpiryResult summarises a run of the expiry check
type ExpiryResult struct {
	Processed  int `json:"processed"`
	Renewed    int `json:"renewed"`
	Downgraded int `json:"downgraded"`
	Failed     int `json:"failed"`
}

// InitiatePaymentInput starts a gateway payment. Plan and BillingPeriod are
// used by subscription payments, ProductID and the boost fields by boosts.
type InitiatePaymentInput struct {
	UserID        uuid.UUID
	Type          billing.TransactionType
	Plan          identity.Plan
	BillingPeriod identity.BillingPeriod
	CouponCode    string
	ProductID     *uuid.UUID
	BoostHours    int
	BoostState    string
	BoostArea     string
	Client        billing.ClientInfo
}

// PaymentSession is a started payment and where to complete it. A payment
// that costs nothing after discounts is settled at once and has no URL.
type PaymentSession struct {
	Transaction      *billing.Transaction `json:"transaction"`
	AuthorizationURL string               `json:"authorization_url,omitempty"`
	AccessCode       string               `json:"access_code,omitempty"`
	Settled          bool                 `json:"settled"`
}

// PaymentHistoryQuery narrows a user's payment history
type PaymentHistoryQuery struct {
	UserID   uuid.UUID
	Status   billing.TransactionStatus
	Type     billing.TransactionType
	Page     int
	PageSize int
}

// ReferrerInfo identifies the owner of a valid referral code
type ReferrerInfo struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// ReferredUser is a referral as shown to the referrer
type ReferredUser struct {
	Name     string        `json:"name"`
	Plan     identity.Plan `json:"plan"`
	JoinedAt time.Time     `json:"joined_at"`
}

// ReferralOverview is a user's referral code, counters and recent referrals
type ReferralOverview struct {
	Code          string                 `json:"referral_code"`
	Link          string                 `json:"referral_link"`
	Stats         identity.ReferralStats `json:"stats"`
	AvailableDays int                    `json:"available_days"`
	CanClaim      bool                   `json:"can_claim"`
	Referrals     []ReferredUser         `json:"referrals"`
}

// ClaimResult reports applied reward days
type ClaimResult struct {
	DaysApplied int           `json:"days_applied"`
	Plan        identity.Plan `json:"plan"`
	PlanExpiry  *time.Time    `json:"plan_expiry"`
}

// PaymentAnalytics covers the payments of a reporting window
type PaymentAnalytics struct {
	Days  int       `json:"days"`
	Since time.Time `json:"since"`
	billing.PaymentAnalytics
}
