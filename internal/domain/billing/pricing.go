package billing

import (
	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/shared"
)

// PlanPrice is the NGN price of a plan for one billing period
type PlanPrice struct {
	Plan          identity.Plan          `json:"plan"`
	BillingPeriod identity.BillingPeriod `json:"billing_period"`
	Amount        decimal.Decimal        `json:"amount"`
	Currency      string                 `json:"currency"`
	DurationDays  int                    `json:"duration_days"`
}

var prices = map[identity.Plan]map[identity.BillingPeriod]int64{
	identity.PlanPro:     {identity.BillingMonthly: 5000, identity.BillingYearly: 42000},
	identity.PlanPremium: {identity.BillingMonthly: 15000, identity.BillingYearly: 126000},
}

// PriceFor returns the price of plan for period
func PriceFor(plan identity.Plan, period identity.BillingPeriod) (PlanPrice, error) {
	byPeriod, ok := prices[plan]
	if !ok {
		return PlanPrice{}, shared.NewDomainError("INVALID_INPUT", `Invalid plan. Choose "pro" or "premium"`)
	}
	amount, ok := byPeriod[period]
	if !ok {
		return PlanPrice{}, shared.NewDomainError("INVALID_INPUT", `Invalid billing period. Choose "monthly" or "yearly"`)
	}
	return PlanPrice{
		Plan:          plan,
		BillingPeriod: period,
		Amount:        decimal.NewFromInt(amount),
		Currency:      "NGN",
		DurationDays:  period.DurationDays(),
	}, nil
}

// PriceList returns every paid plan price, pro first
func PriceList() []PlanPrice {
	out := make([]PlanPrice, 0, 4)
	for _, plan := range []identity.Plan{identity.PlanPro, identity.PlanPremium} {
		for _, period := range []identity.BillingPeriod{identity.BillingMonthly, identity.BillingYearly} {
			p, _ := PriceFor(plan, period)
			out = append(out, p)
		}
	}
	return out
}
