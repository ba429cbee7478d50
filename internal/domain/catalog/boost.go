package catalog

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/shared"
)

// BoostRatePerHour is the flat boost price in NGN
var BoostRatePerHour = decimal.NewFromInt(400)

// Boost promotes a product to the top of the marketplace for a paid period
type Boost struct {
	Active        bool            `json:"active"`
	StartAt       *time.Time      `json:"start_at,omitempty"`
	EndAt         *time.Time      `json:"end_at,omitempty"`
	DurationHours int             `json:"duration_hours"`
	Amount        decimal.Decimal `json:"amount"`
	State         string          `json:"state,omitempty"`
	Area          string          `json:"area,omitempty"`
	Country       string          `json:"country"`
}

// BoostRequest asks for hours of boost, optionally targeted at a location
type BoostRequest struct {
	Hours   int
	State   string
	Area    string
	StartAt *time.Time
}

// BoostCost returns the price of hours of boost
func BoostCost(hours int) decimal.Decimal {
	return BoostRatePerHour.Mul(decimal.NewFromInt(int64(hours)))
}

// IsBoosted reports whether the boost is running at now
func (p *Product) IsBoosted(now time.Time) bool {
	return p.Boost.Active && p.Boost.EndAt != nil && p.Boost.EndAt.After(now)
}

// RemainingBoostHours returns the fractional hours left, 0 when not boosted
func (p *Product) RemainingBoostHours(now time.Time) float64 {
	if !p.IsBoosted(now) {
		return 0
	}
	return p.Boost.EndAt.Sub(now).Hours()
}

// RemainingBoostWholeHours rounds the remaining boost time up
func (p *Product) RemainingBoostWholeHours(now time.Time) int {
	return int(math.Ceil(p.RemainingBoostHours(now)))
}

// ApplyBoost starts or extends a boost and returns its cost. A running boost
// is extended from its end time; hours and amounts accumulate.
func (p *Product) ApplyBoost(req BoostRequest, now time.Time) (decimal.Decimal, error) {
	hours := req.Hours
	if hours < 1 {
		hours = 1
	}
	if !p.IsActive {
		return decimal.Zero, shared.NewDomainError("INVALID_STATE", "Cannot boost an inactive product")
	}
	start := now
	if req.StartAt != nil && !req.StartAt.IsZero() {
		start = *req.StartAt
	}
	from := start
	if p.IsBoosted(now) {
		from = *p.Boost.EndAt
	}
	end := from.Add(time.Duration(hours) * time.Hour)
	amount := BoostCost(hours)

	if p.Boost.StartAt == nil || !p.Boost.StartAt.After(now) {
		p.Boost.StartAt = &start
	}
	p.Boost.Active = true
	p.Boost.EndAt = &end
	p.Boost.DurationHours += hours
	p.Boost.Amount = p.Boost.Amount.Add(amount)
	if s := strings.TrimSpace(req.State); s != "" {
		p.Boost.State = s
	}
	if a := strings.TrimSpace(req.Area); a != "" {
		p.Boost.Area = a
	}
	p.Boost.Country = "NG"
	p.touch()
	p.AddDomainEvent(NewProductBoostedEvent(p, hours, amount))
	return amount, nil
}
