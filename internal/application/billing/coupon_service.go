package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/billing"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const couponCodeAttempts = 5

// CouponService issues and redeems plan coupons
type CouponService struct {
	coupons billing.CouponRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewCouponService creates a coupon service
func NewCouponService(coupons billing.CouponRepository, logger *zap.Logger) *CouponService {
	return &CouponService{coupons: coupons, logger: logger, now: time.Now}
}

// Create issues a coupon. Without a code one is generated.
func (s *CouponService) Create(ctx context.Context, in CreateCouponInput) (*billing.Coupon, error) {
	coupon, err := billing.NewCoupon(billing.CouponParams{
		Code:            in.Code,
		DiscountType:    in.DiscountType,
		DiscountValue:   in.DiscountValue,
		ApplicablePlans: in.ApplicablePlans,
		MaxUses:         in.MaxUses,
		ValidFrom:       in.ValidFrom,
		ValidUntil:      in.ValidUntil,
		Description:     in.Description,
		CreatedBy:       in.AdminID,
	}, s.now())
	if err != nil {
		return nil, err
	}

	generated := strings.TrimSpace(in.Code) == ""
	for i := 0; ; i++ {
		taken, err := s.coupons.ExistsByCode(ctx, coupon.Code)
		if err != nil {
			return nil, err
		}
		if !taken {
			break
		}
		if !generated {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Coupon code already exists")
		}
		if i == couponCodeAttempts {
			return nil, shared.NewDomainError("CONCURRENCY_CONFLICT", "Could not allocate a coupon code, please retry")
		}
		coupon.Code = billing.GenerateCouponCode()
	}

	if err := s.coupons.Create(ctx, coupon); err != nil {
		return nil, err
	}
	s.logger.Info("Coupon created",
		zap.String("code", coupon.Code),
		zap.String("created_by", in.AdminID.String()))
	return coupon, nil
}

// List returns a page of coupons
func (s *CouponService) List(ctx context.Context, filter billing.CouponFilter) (shared.Paginated[*billing.Coupon], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	items, total, err := s.coupons.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[*billing.Coupon]{}, err
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Stats summarises every coupon
func (s *CouponService) Stats(ctx context.Context) (billing.CouponStats, error) {
	all, err := s.coupons.All(ctx)
	if err != nil {
		return billing.CouponStats{}, err
	}
	return billing.ComputeCouponStats(all, s.now()), nil
}

// Toggle activates or deactivates a coupon
func (s *CouponService) Toggle(ctx context.Context, id uuid.UUID) (*billing.Coupon, error) {
	coupon, err := s.coupons.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	coupon.Toggle()
	if err := s.coupons.Update(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Delete removes a coupon
func (s *CouponService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.coupons.Delete(ctx, id)
}

// Validate checks a code for a plan purchase without using it up
func (s *CouponService) Validate(ctx context.Context, in CouponCheckInput) (*CouponQuote, error) {
	coupon, amount, err := s.check(ctx, in)
	if err != nil {
		return nil, err
	}
	return quoteOf(coupon, coupon.CalculateDiscount(amount)), nil
}

// Apply redeems a code for the user and records the usage
func (s *CouponService) Apply(ctx context.Context, in CouponCheckInput) (*CouponQuote, error) {
	coupon, amount, err := s.check(ctx, in)
	if err != nil {
		return nil, err
	}
	d, err := coupon.Redeem(in.UserID, in.Plan, amount, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.coupons.Update(ctx, coupon); err != nil {
		return nil, err
	}
	s.logger.Info("Coupon redeemed",
		zap.String("code", coupon.Code),
		zap.String("user_id", in.UserID.String()),
		zap.String("discount", d.DiscountAmount.String()))
	return quoteOf(coupon, d), nil
}

func (s *CouponService) check(ctx context.Context, in CouponCheckInput) (*billing.Coupon, decimal.Decimal, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" || in.Plan == "" {
		return nil, decimal.Zero, shared.NewDomainError("INVALID_INPUT", "Coupon code and plan are required")
	}
	coupon, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, decimal.Zero, shared.NewDomainError("NOT_FOUND", "Invalid coupon code")
		}
		return nil, decimal.Zero, err
	}
	if err := coupon.Check(in.UserID, in.Plan, s.now()); err != nil {
		return nil, decimal.Zero, err
	}
	amount := in.Amount
	if !amount.IsPositive() {
		period := in.BillingPeriod
		if period == "" {
			period = identity.BillingMonthly
		}
		price, err := billing.PriceFor(in.Plan, period)
		if err != nil {
			return nil, decimal.Zero, err
		}
		amount = price.Amount
	}
	return coupon, amount, nil
}

func quoteOf(c *billing.Coupon, d billing.Discount) *CouponQuote {
	return &CouponQuote{
		Code:         c.Code,
		DiscountType: c.DiscountType,
		Value:        c.DiscountValue,
		Description:  c.Description,
		Discount:     d,
	}
}
