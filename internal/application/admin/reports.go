package admin

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/billing"
	"github.com/wazhop/backend/internal/domain/order"
)

const (
	defaultReportDays = 30
	maxReportDays     = 365
)

// Growth counts records created in a report window
type Growth struct {
	Users    int64 `json:"users"`
	Shops    int64 `json:"shops"`
	Products int64 `json:"products"`
	Orders   int64 `json:"orders"`
}

// Analytics is the platform activity of a report window
type Analytics struct {
	Days           int                      `json:"days"`
	Since          time.Time                `json:"since"`
	New            Growth                   `json:"new"`
	OrdersByStatus map[order.Status]int64   `json:"orders_by_status"`
	Payments       billing.PaymentAnalytics `json:"payments"`
}

// Revenue splits the money earned in a report window
type Revenue struct {
	Days  int       `json:"days"`
	Since time.Time `json:"since"`
	// Platform is what sellers paid WaZhop for plans and boosts
	Platform decimal.Decimal                             `json:"platform"`
	ByType   map[billing.TransactionType]decimal.Decimal `json:"by_type"`
	// SellerSales is the value of paid storefront orders
	SellerSales decimal.Decimal `json:"seller_sales"`
}

// reportWindow clamps days to 1..365, 30 by default, and returns the start
func (s *Service) reportWindow(days int) (int, time.Time) {
	switch {
	case days <= 0:
		days = defaultReportDays
	case days > maxReportDays:
		days = maxReportDays
	}
	return days, s.now().AddDate(0, 0, -days)
}

// Analytics reports sign-ups, new shops and listings, orders and payments
// over the last days
func (s *Service) Analytics(ctx context.Context, days int) (*Analytics, error) {
	days, since := s.reportWindow(days)
	out := &Analytics{Days: days, Since: since}

	var err error
	if out.New.Users, err = s.users.CountSince(ctx, since); err != nil {
		return nil, err
	}
	if out.New.Shops, err = s.shops.CountSince(ctx, since); err != nil {
		return nil, err
	}
	if out.New.Products, err = s.products.CountSince(ctx, since); err != nil {
		return nil, err
	}
	if out.New.Orders, err = s.orders.CountSince(ctx, since); err != nil {
		return nil, err
	}
	if out.OrdersByStatus, err = s.orders.CountByStatus(ctx, since); err != nil {
		return nil, err
	}
	rows, err := s.transactions.Totals(ctx, billing.AnalyticsFilter{Since: since})
	if err != nil {
		return nil, err
	}
	out.Payments = billing.NewPaymentAnalytics(rows)
	return out, nil
}

// Revenue sums successful payments per type and paid orders over the last
// days
func (s *Service) Revenue(ctx context.Context, days int) (*Revenue, error) {
	days, since := s.reportWindow(days)
	rows, err := s.transactions.Totals(ctx, billing.AnalyticsFilter{Since: since})
	if err != nil {
		return nil, err
	}
	sales, err := s.orders.PaidRevenueSince(ctx, since)
	if err != nil {
		return nil, err
	}
	out := &Revenue{
		Days:        days,
		Since:       since,
		Platform:    decimal.Zero,
		ByType:      billing.SuccessfulByType(rows),
		SellerSales: sales,
	}
	for _, amount := range out.ByType {
		out.Platform = out.Platform.Add(amount)
	}
	return out, nil
}
