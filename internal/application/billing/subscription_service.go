package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/billing"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PlanEnforcer brings an owner's shops in line with their plan
type PlanEnforcer interface {
	EnforcePlanForOwner(ctx context.Context, ownerID uuid.UUID, plan identity.Plan) (int, error)
}

// SubscriptionService manages paid plans. Upgrades and renewals are applied
// once their payment has succeeded; see PaymentService.
type SubscriptionService struct {
	users    identity.UserRepository
	coupons  *CouponService
	enforcer PlanEnforcer
	events   shared.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewSubscriptionService creates a subscription service
func NewSubscriptionService(
	users identity.UserRepository,
	coupons *CouponService,
	enforcer PlanEnforcer,
	events shared.EventPublisher,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		users:    users,
		coupons:  coupons,
		enforcer: enforcer,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// Plans lists the paid plan prices
func (s *SubscriptionService) Plans() []billing.PlanPrice {
	return billing.PriceList()
}

// Quote prices a plan purchase, applying a coupon when given
func (s *SubscriptionService) Quote(ctx context.Context, userID uuid.UUID, plan identity.Plan, period identity.BillingPeriod, couponCode string) (*PlanQuote, error) {
	if period == "" {
		period = identity.BillingMonthly
	}
	price, err := billing.PriceFor(plan, period)
	if err != nil {
		return nil, err
	}
	q := &PlanQuote{
		Plan:          plan,
		BillingPeriod: period,
		Currency:      price.Currency,
		DurationDays:  price.DurationDays,
		Discount: billing.Discount{
			OriginalAmount:     price.Amount,
			DiscountAmount:     decimal.Zero,
			FinalAmount:        price.Amount,
			DiscountPercentage: decimal.Zero,
		},
	}
	if couponCode == "" {
		return q, nil
	}
	cq, err := s.coupons.Validate(ctx, CouponCheckInput{
		UserID: userID, Code: couponCode, Plan: plan, BillingPeriod: period, Amount: price.Amount,
	})
	if err != nil {
		return nil, err
	}
	q.Discount = cq.Discount
	q.CouponCode = cq.Code
	return q, nil
}

// QuoteRenewal prices one more period of the user's current plan
func (s *SubscriptionService) QuoteRenewal(ctx context.Context, userID uuid.UUID) (*PlanQuote, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Plan.IsPaid() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot renew free plan. Please upgrade first.")
	}
	return s.Quote(ctx, userID, user.Plan, user.BillingPeriod, "")
}

// ApplyUpgrade moves the user onto plan for one billing period and redeems
// the coupon the payment was priced with.
func (s *SubscriptionService) ApplyUpgrade(ctx context.Context, userID uuid.UUID, plan identity.Plan, period identity.BillingPeriod, couponCode string) (*SubscriptionStatus, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = identity.BillingMonthly
	}
	if err := user.ApplyUpgrade(plan, period, s.now()); err != nil {
		return nil, err
	}
	if couponCode != "" {
		price, _ := billing.PriceFor(plan, period)
		if _, err := s.coupons.Apply(ctx, CouponCheckInput{
			UserID: userID, Code: couponCode, Plan: plan, BillingPeriod: period, Amount: price.Amount,
		}); err != nil {
			// The payment already went through at the discounted price.
			s.logger.Warn("Coupon could not be recorded",
				zap.String("user_id", userID.String()),
				zap.String("code", couponCode),
				zap.Error(err))
		}
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.enforce(ctx, user)
	s.publish(ctx, user)
	s.logger.Info("Subscription upgraded",
		zap.String("user_id", userID.String()),
		zap.String("plan", string(plan)),
		zap.String("billing_period", string(period)))
	return s.status(user), nil
}

// ApplyRenewal extends the user's plan by one billing period
func (s *SubscriptionService) ApplyRenewal(ctx context.Context, userID uuid.UUID) (*SubscriptionStatus, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.Renew(s.now()); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, user)
	return s.status(user), nil
}

// SetAutoRenew turns automatic renewal on or off
func (s *SubscriptionService) SetAutoRenew(ctx context.Context, userID uuid.UUID, enabled bool) (*SubscriptionStatus, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.SetAutoRenew(enabled); err != nil {
		return nil, err
	}
	if enabled {
		user.ReactivateIfCancelled(s.now())
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.status(user), nil
}

// Cancel stops renewal; the plan stays usable until it expires
func (s *SubscriptionService) Cancel(ctx context.Context, userID uuid.UUID) (*SubscriptionStatus, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.CancelSubscription(); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("Subscription cancelled", zap.String("user_id", userID.String()))
	return s.status(user), nil
}

// Status returns the user's subscription
func (s *SubscriptionService) Status(ctx context.Context, userID uuid.UUID) (*SubscriptionStatus, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.status(user), nil
}

// CheckExpired renews auto-renewing subscribers whose plan ran out and
// downgrades everyone else to free. Downgrades deactivate shops above the
// free limit without deleting anything.
func (s *SubscriptionService) CheckExpired(ctx context.Context) (ExpiryResult, error) {
	now := s.now()
	due, err := s.users.FindExpiredSubscriptions(ctx, now)
	if err != nil {
		return ExpiryResult{}, err
	}
	res := ExpiryResult{Processed: len(due)}
	for _, user := range due {
		renew := user.AutoRenew && user.SubscriptionStatus != identity.SubscriptionCancelled
		if renew {
			if err := user.AutoRenewFromExpiry(now); err != nil {
				res.Failed++
				continue
			}
		} else {
			user.Downgrade()
		}
		if err := s.users.Update(ctx, user); err != nil {
			s.logger.Error("Failed to update expired subscription",
				zap.String("user_id", user.ID.String()), zap.Error(err))
			res.Failed++
			continue
		}
		if renew {
			res.Renewed++
			s.logger.Info("Subscription auto-renewed",
				zap.String("user_id", user.ID.String()),
				zap.Timep("plan_expiry", user.PlanExpiry))
		} else {
			res.Downgraded++
			s.enforce(ctx, user)
			s.logger.Info("Subscription expired, downgraded to free", zap.String("user_id", user.ID.String()))
		}
		s.publish(ctx, user)
	}
	return res, nil
}

func (s *SubscriptionService) enforce(ctx context.Context, user *identity.User) {
	if s.enforcer == nil {
		return
	}
	if _, err := s.enforcer.EnforcePlanForOwner(ctx, user.ID, user.Plan); err != nil {
		s.logger.Warn("Plan enforcement failed",
			zap.String("user_id", user.ID.String()), zap.Error(err))
	}
}

func (s *SubscriptionService) publish(ctx context.Context, user *identity.User) {
	if err := shared.PublishAndClear(ctx, s.events, user); err != nil {
		s.logger.Warn("Failed to publish subscription events",
			zap.String("user_id", user.ID.String()), zap.Error(err))
	}
}

func (s *SubscriptionService) status(u *identity.User) *SubscriptionStatus {
	now := s.now()
	period := u.BillingPeriod
	if period == "" {
		period = identity.BillingMonthly
	}
	return &SubscriptionStatus{
		Plan:               u.Plan,
		BillingPeriod:      period,
		PlanExpiry:         u.PlanExpiry,
		AutoRenew:          u.AutoRenew,
		SubscriptionStatus: u.SubscriptionStatus,
		LastBillingDate:    u.LastBillingDate,
		IsExpired:          u.PlanExpiry != nil && u.PlanExpiry.Before(now),
		DaysRemaining:      u.DaysRemaining(now),
		Limits:             u.Limits(),
	}
}
