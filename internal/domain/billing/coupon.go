package billing

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/shared"
)

// DiscountType is how a coupon reduces a price
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// CouponPrefix starts generated coupon codes
const CouponPrefix = "WAZHOP"

var hundred = decimal.NewFromInt(100)

// CouponUsage records one redemption
type CouponUsage struct {
	UserID         uuid.UUID       `json:"user_id"`
	UsedAt         time.Time       `json:"used_at"`
	Plan           identity.Plan   `json:"plan"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
}

// Coupon is an admin-issued discount on plan upgrades
type Coupon struct {
	shared.BaseAggregateRoot
	Code            string
	DiscountType    DiscountType
	DiscountValue   decimal.Decimal
	ApplicablePlans []identity.Plan
	MaxUses         *int
	UsedCount       int
	ValidFrom       time.Time
	ValidUntil      *time.Time
	IsActive        bool
	CreatedBy       uuid.UUID
	UsedBy          []CouponUsage
	Description     string
}

// CouponParams are the inputs to NewCoupon
type CouponParams struct {
	Code            string
	DiscountType    DiscountType
	DiscountValue   decimal.Decimal
	ApplicablePlans []identity.Plan
	MaxUses         *int
	ValidFrom       *time.Time
	ValidUntil      *time.Time
	Description     string
	CreatedBy       uuid.UUID
}

// NewCoupon validates p and creates an active coupon. An empty code is generated.
func NewCoupon(p CouponParams, now time.Time) (*Coupon, error) {
	if p.DiscountType == "" {
		p.DiscountType = DiscountPercentage
	}
	if p.DiscountType != DiscountPercentage && p.DiscountType != DiscountFixed {
		return nil, shared.NewDomainError("INVALID_INPUT", "Discount type must be percentage or fixed")
	}
	if !p.DiscountValue.IsPositive() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Discount value must be greater than 0")
	}
	if p.DiscountType == DiscountPercentage && p.DiscountValue.GreaterThan(hundred) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Percentage discount must be between 0 and 100")
	}
	plans := p.ApplicablePlans
	if len(plans) == 0 {
		plans = []identity.Plan{identity.PlanPro, identity.PlanPremium}
	}
	for _, pl := range plans {
		if !pl.IsPaid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Coupons apply to pro or premium plans only")
		}
	}
	if p.MaxUses != nil && *p.MaxUses <= 0 {
		p.MaxUses = nil
	}
	code := strings.ToUpper(strings.TrimSpace(p.Code))
	if code == "" {
		code = GenerateCouponCode()
	}
	from := now
	if p.ValidFrom != nil {
		from = *p.ValidFrom
	}
	if p.ValidUntil != nil && p.ValidUntil.Before(from) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Coupon must end after it starts")
	}
	return &Coupon{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		DiscountType:      p.DiscountType,
		DiscountValue:     p.DiscountValue,
		ApplicablePlans:   plans,
		MaxUses:           p.MaxUses,
		ValidFrom:         from,
		ValidUntil:        p.ValidUntil,
		IsActive:          true,
		CreatedBy:         p.CreatedBy,
		Description:       strings.TrimSpace(p.Description),
	}, nil
}

// Validity returns nil when the coupon can be used at now
func (c *Coupon) Validity(now time.Time) error {
	switch {
	case !c.IsActive:
		return shared.NewDomainError("INVALID_STATE", "Coupon is inactive")
	case c.ValidFrom.After(now):
		return shared.NewDomainError("INVALID_STATE", "Coupon is not yet valid")
	case c.ValidUntil != nil && c.ValidUntil.Before(now):
		return shared.NewDomainError("INVALID_STATE", "Coupon has expired")
	case c.MaxUses != nil && c.UsedCount >= *c.MaxUses:
		return shared.NewDomainError("INVALID_STATE", "Coupon usage limit reached")
	}
	return nil
}

// IsExpired reports whether the validity window has closed
func (c *Coupon) IsExpired(now time.Time) bool {
	return c.ValidUntil != nil && c.ValidUntil.Before(now)
}

// AppliesTo reports whether the coupon covers plan
func (c *Coupon) AppliesTo(plan identity.Plan) bool {
	for _, p := range c.ApplicablePlans {
		if p == plan {
			return true
		}
	}
	return false
}

// HasBeenUsedBy reports whether userID already redeemed the coupon
func (c *Coupon) HasBeenUsedBy(userID uuid.UUID) bool {
	for _, u := range c.UsedBy {
		if u.UserID == userID {
			return true
		}
	}
	return false
}

// Discount is the effect of a coupon on an amount
type Discount struct {
	OriginalAmount     decimal.Decimal `json:"original_amount"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	FinalAmount        decimal.Decimal `json:"final_amount"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

// CalculateDiscount applies the coupon to amount; fixed discounts are capped at amount
func (c *Coupon) CalculateDiscount(amount decimal.Decimal) Discount {
	var off, pct decimal.Decimal
	if c.DiscountType == DiscountPercentage {
		off = amount.Mul(c.DiscountValue).Div(hundred)
		pct = c.DiscountValue
	} else {
		off = decimal.Min(c.DiscountValue, amount)
		if amount.IsPositive() {
			pct = off.Div(amount).Mul(hundred).Round(2)
		}
	}
	return Discount{
		OriginalAmount:     amount,
		DiscountAmount:     off,
		FinalAmount:        amount.Sub(off),
		DiscountPercentage: pct,
	}
}

// Check validates a redemption by userID for plan without recording it
func (c *Coupon) Check(userID uuid.UUID, plan identity.Plan, now time.Time) error {
	if err := c.Validity(now); err != nil {
		return err
	}
	if !c.AppliesTo(plan) {
		return shared.NewDomainError("INVALID_INPUT", "This coupon is not applicable to "+string(plan)+" plan")
	}
	if c.HasBeenUsedBy(userID) {
		return shared.NewDomainError("INVALID_STATE", "You have already used this coupon")
	}
	return nil
}

// Redeem checks and records a redemption and returns the discount
func (c *Coupon) Redeem(userID uuid.UUID, plan identity.Plan, amount decimal.Decimal, now time.Time) (Discount, error) {
	if err := c.Check(userID, plan, now); err != nil {
		return Discount{}, err
	}
	d := c.CalculateDiscount(amount)
	c.UsedCount++
	c.UsedBy = append(c.UsedBy, CouponUsage{
		UserID:         userID,
		UsedAt:         now,
		Plan:           plan,
		OriginalAmount: d.OriginalAmount,
		DiscountAmount: d.DiscountAmount,
		FinalAmount:    d.FinalAmount,
	})
	c.UpdatedAt = now
	c.IncrementVersion()
	return d, nil
}

// Toggle flips the active flag and returns the new value
func (c *Coupon) Toggle() bool {
	c.IsActive = !c.IsActive
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return c.IsActive
}

// TotalDiscountGiven sums the discounts of all redemptions
func (c *Coupon) TotalDiscountGiven() decimal.Decimal {
	total := decimal.Zero
	for _, u := range c.UsedBy {
		total = total.Add(u.DiscountAmount)
	}
	return total
}

const couponAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateCouponCode returns WAZHOP followed by six random characters
func GenerateCouponCode() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	for i := range buf {
		buf[i] = couponAlphabet[int(buf[i])%len(couponAlphabet)]
	}
	return CouponPrefix + string(buf)
}

// CouponStats summarises all coupons for admins
type CouponStats struct {
	TotalCoupons       int             `json:"total_coupons"`
	ActiveCoupons      int             `json:"active_coupons"`
	ExpiredCoupons     int             `json:"expired_coupons"`
	TotalUsage         int             `json:"total_usage"`
	TotalDiscountGiven decimal.Decimal `json:"total_discount_given"`
}

// ComputeCouponStats summarises coupons at now
func ComputeCouponStats(coupons []*Coupon, now time.Time) CouponStats {
	s := CouponStats{TotalDiscountGiven: decimal.Zero}
	for _, c := range coupons {
		s.TotalCoupons++
		if c.IsActive {
			s.ActiveCoupons++
		}
		if c.IsExpired(now) {
			s.ExpiredCoupons++
		}
		s.TotalUsage += c.UsedCount
		s.TotalDiscountGiven = s.TotalDiscountGiven.Add(c.TotalDiscountGiven())
	}
	s.TotalDiscountGiven = s.TotalDiscountGiven.Round(0)
	return s
}
