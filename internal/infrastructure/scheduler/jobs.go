package scheduler

import (
	"context"
	"time"

	billingapp "github.com/wazhop/backend/internal/application/billing"
	"github.com/wazhop/backend/internal/domain/currency"
	"go.uber.org/zap"
)

// Task names
const (
	TaskSubscriptionExpiry = "subscription-expiry"
	TaskAbandonedPayments  = "abandoned-payments"
	TaskExchangeRates      = "exchange-rates"
)

// SubscriptionExpirer downgrades or renews expired subscriptions
type SubscriptionExpirer interface {
	CheckExpired(ctx context.Context) (billingapp.ExpiryResult, error)
}

// PaymentSweeper marks stale pending payments as abandoned
type PaymentSweeper interface {
	MarkAbandoned(ctx context.Context, after time.Duration) (int64, error)
}

// RateRefresher reloads the exchange rate table
type RateRefresher interface {
	Refresh(ctx context.Context) (currency.Rates, error)
}

// SubscriptionExpiryTask runs the expiry sweep once a day at hour:minute
func SubscriptionExpiryTask(svc SubscriptionExpirer, hour, minute int, logger *zap.Logger) Task {
	return Task{
		Name:   TaskSubscriptionExpiry,
		Daily:  true,
		Hour:   hour,
		Minute: minute,
		Run: func(ctx context.Context) error {
			res, err := svc.CheckExpired(ctx)
			if err != nil {
				return err
			}
			logger.Info("Subscription expiry check finished",
				zap.Int("processed", res.Processed),
				zap.Int("renewed", res.Renewed),
				zap.Int("downgraded", res.Downgraded),
				zap.Int("failed", res.Failed),
			)
			return nil
		},
	}
}

// AbandonedPaymentsTask marks payments pending longer than after as abandoned
func AbandonedPaymentsTask(svc PaymentSweeper, every, after time.Duration, logger *zap.Logger) Task {
	return Task{
		Name:  TaskAbandonedPayments,
		Every: every,
		Run: func(ctx context.Context) error {
			n, err := svc.MarkAbandoned(ctx, after)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("Marked abandoned payments", zap.Int64("count", n))
			}
			return nil
		},
	}
}

// ExchangeRatesTask refreshes rates on the cache TTL, starting immediately
func ExchangeRatesTask(svc RateRefresher, every time.Duration, logger *zap.Logger) Task {
	return Task{
		Name:       TaskExchangeRates,
		Every:      every,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			rates, err := svc.Refresh(ctx)
			if err != nil {
				return err
			}
			logger.Debug("Exchange rates refreshed", zap.Int("currencies", len(rates.Values)))
			return nil
		},
	}
}
