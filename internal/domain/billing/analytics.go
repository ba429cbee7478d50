package billing

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatusTotal aggregates the payments of one type in one status
type StatusTotal struct {
	Type   TransactionType
	Status TransactionStatus
	Count  int64
	Amount decimal.Decimal
}

// AnalyticsFilter narrows the payments that are aggregated
type AnalyticsFilter struct {
	Since time.Time
	// UserID limits the totals to one payer; nil covers the platform
	UserID *uuid.UUID
}

// StatusBreakdown is one status line of a payment type
type StatusBreakdown struct {
	Status      TransactionStatus `json:"status"`
	Count       int64             `json:"count"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	AvgAmount   decimal.Decimal   `json:"avg_amount"`
}

// TypeBreakdown lists the statuses reached by payments of one type
type TypeBreakdown struct {
	Type     TransactionType   `json:"type"`
	Statuses []StatusBreakdown `json:"statuses"`
}

// PaymentSummary totals payments over a window
type PaymentSummary struct {
	TotalTransactions int64           `json:"total_transactions"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	SuccessfulCount   int64           `json:"successful_count"`
	FailedCount       int64           `json:"failed_count"`
	CancelledCount    int64           `json:"cancelled_count"`
	AbandonedCount    int64           `json:"abandoned_count"`
	SuccessfulAmount  decimal.Decimal `json:"successful_amount"`
	// SuccessRate is the percentage of payments that succeeded
	SuccessRate float64 `json:"success_rate"`
}

// PaymentAnalytics is the summary and per-type breakdown of a window
type PaymentAnalytics struct {
	Summary PaymentSummary  `json:"summary"`
	ByType  []TypeBreakdown `json:"by_type"`
}

// NewPaymentAnalytics folds per type and status totals into analytics.
// Types come out in name order.
func NewPaymentAnalytics(rows []StatusTotal) PaymentAnalytics {
	out := PaymentAnalytics{
		Summary: PaymentSummary{TotalAmount: decimal.Zero, SuccessfulAmount: decimal.Zero},
		ByType:  []TypeBreakdown{},
	}
	index := map[TransactionType]int{}
	for _, r := range rows {
		sum := &out.Summary
		sum.TotalTransactions += r.Count
		sum.TotalAmount = sum.TotalAmount.Add(r.Amount)
		switch r.Status {
		case StatusSuccessful:
			sum.SuccessfulCount += r.Count
			sum.SuccessfulAmount = sum.SuccessfulAmount.Add(r.Amount)
		case StatusFailed:
			sum.FailedCount += r.Count
		case StatusCancelled:
			sum.CancelledCount += r.Count
		case StatusAbandoned:
			sum.AbandonedCount += r.Count
		}

		i, ok := index[r.Type]
		if !ok {
			i = len(out.ByType)
			index[r.Type] = i
			out.ByType = append(out.ByType, TypeBreakdown{Type: r.Type})
		}
		out.ByType[i].Statuses = append(out.ByType[i].Statuses, StatusBreakdown{
			Status:      r.Status,
			Count:       r.Count,
			TotalAmount: r.Amount,
			AvgAmount:   average(r.Amount, r.Count),
		})
	}
	if n := out.Summary.TotalTransactions; n > 0 {
		rate := decimal.NewFromInt(out.Summary.SuccessfulCount * 100).Div(decimal.NewFromInt(n)).Round(1)
		out.Summary.SuccessRate = rate.InexactFloat64()
	}
	sort.Slice(out.ByType, func(i, j int) bool { return out.ByType[i].Type < out.ByType[j].Type })
	return out
}

// SuccessfulByType sums successful payments per type
func SuccessfulByType(rows []StatusTotal) map[TransactionType]decimal.Decimal {
	out := map[TransactionType]decimal.Decimal{}
	for _, r := range rows {
		if r.Status != StatusSuccessful {
			continue
		}
		out[r.Type] = out[r.Type].Add(r.Amount)
	}
	return out
}

func average(total decimal.Decimal, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(count)).Round(2)
}
