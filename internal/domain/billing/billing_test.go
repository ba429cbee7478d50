package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/shared"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestPriceFor(t *testing.T) {
	cases := []struct {
		plan   identity.Plan
		period identity.BillingPeriod
		want   int64
		days   int
	}{
		{identity.PlanPro, identity.BillingMonthly, 5000, 30},
		{identity.PlanPro, identity.BillingYearly, 42000, 365},
		{identity.PlanPremium, identity.BillingMonthly, 15000, 30},
		{identity.PlanPremium, identity.BillingYearly, 126000, 365},
	}
	for _, tc := range cases {
		p, err := PriceFor(tc.plan, tc.period)
		require.NoError(t, err)
		assert.True(t, p.Amount.Equal(dec(tc.want)), "%s/%s", tc.plan, tc.period)
		assert.Equal(t, tc.days, p.DurationDays)
	}

	_, err := PriceFor(identity.PlanFree, identity.BillingMonthly)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = PriceFor(identity.PlanPro, "weekly")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Len(t, PriceList(), 4)
}

func TestNewCoupon(t *testing.T) {
	c, err := NewCoupon(CouponParams{DiscountValue: dec(20)}, now)
	require.NoError(t, err)
	assert.Regexp(t, `^WAZHOP[A-Z0-9]{6}$`, c.Code)
	assert.Equal(t, DiscountPercentage, c.DiscountType)
	assert.Equal(t, []identity.Plan{identity.PlanPro, identity.PlanPremium}, c.ApplicablePlans)
	assert.True(t, c.IsActive)
	assert.Equal(t, now, c.ValidFrom)

	c, err = NewCoupon(CouponParams{Code: " save10 ", DiscountType: DiscountFixed, DiscountValue: dec(1000)}, now)
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", c.Code)

	_, err = NewCoupon(CouponParams{DiscountValue: dec(120)}, now)
	assert.EqualError(t, err, "Percentage discount must be between 0 and 100")
	_, err = NewCoupon(CouponParams{DiscountValue: decimal.Zero}, now)
	assert.EqualError(t, err, "Discount value must be greater than 0")
	_, err = NewCoupon(CouponParams{DiscountValue: dec(5), ApplicablePlans: []identity.Plan{identity.PlanFree}}, now)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestCouponValidity(t *testing.T) {
	one := 1
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	c, err := NewCoupon(CouponParams{DiscountValue: dec(10), MaxUses: &one}, now)
	require.NoError(t, err)
	assert.NoError(t, c.Validity(now))

	c.Toggle()
	assert.EqualError(t, c.Validity(now), "Coupon is inactive")
	c.Toggle()

	c.ValidFrom = future
	assert.EqualError(t, c.Validity(now), "Coupon is not yet valid")
	c.ValidFrom = now.Add(-2 * time.Hour)

	c.ValidUntil = &past
	assert.EqualError(t, c.Validity(now), "Coupon has expired")
	assert.True(t, c.IsExpired(now))
	c.ValidUntil = nil

	c.UsedCount = 1
	assert.EqualError(t, c.Validity(now), "Coupon usage limit reached")
}

func TestCalculateDiscount(t *testing.T) {
	pct, err := NewCoupon(CouponParams{DiscountValue: dec(20)}, now)
	require.NoError(t, err)
	d := pct.CalculateDiscount(dec(5000))
	assert.True(t, d.DiscountAmount.Equal(dec(1000)))
	assert.True(t, d.FinalAmount.Equal(dec(4000)))
	assert.True(t, d.DiscountPercentage.Equal(dec(20)))

	fixed, err := NewCoupon(CouponParams{DiscountType: DiscountFixed, DiscountValue: dec(1500)}, now)
	require.NoError(t, err)
	d = fixed.CalculateDiscount(dec(5000))
	assert.True(t, d.FinalAmount.Equal(dec(3500)))
	assert.Equal(t, "30", d.DiscountPercentage.String())

	d = fixed.CalculateDiscount(dec(1000))
	assert.True(t, d.DiscountAmount.Equal(dec(1000)))
	assert.True(t, d.FinalAmount.IsZero())
}

func TestRedeem(t *testing.T) {
	c, err := NewCoupon(CouponParams{DiscountValue: dec(10), ApplicablePlans: []identity.Plan{identity.PlanPremium}}, now)
	require.NoError(t, err)
	user := uuid.New()

	_, err = c.Redeem(user, identity.PlanPro, dec(5000), now)
	assert.EqualError(t, err, "This coupon is not applicable to pro plan")

	d, err := c.Redeem(user, identity.PlanPremium, dec(15000), now)
	require.NoError(t, err)
	assert.True(t, d.FinalAmount.Equal(dec(13500)))
	assert.Equal(t, 1, c.UsedCount)
	require.Len(t, c.UsedBy, 1)
	assert.Equal(t, user, c.UsedBy[0].UserID)
	assert.True(t, c.HasBeenUsedBy(user))

	_, err = c.Redeem(user, identity.PlanPremium, dec(15000), now)
	assert.EqualError(t, err, "You have already used this coupon")
}

func TestComputeCouponStats(t *testing.T) {
	a, _ := NewCoupon(CouponParams{DiscountValue: dec(10)}, now)
	b, _ := NewCoupon(CouponParams{DiscountType: DiscountFixed, DiscountValue: dec(333)}, now)
	_, err := a.Redeem(uuid.New(), identity.PlanPro, dec(5000), now)
	require.NoError(t, err)
	_, err = b.Redeem(uuid.New(), identity.PlanPro, dec(5000), now)
	require.NoError(t, err)
	past := now.Add(-time.Minute)
	b.ValidUntil = &past
	b.Toggle()

	s := ComputeCouponStats([]*Coupon{a, b}, now)
	assert.Equal(t, 2, s.TotalCoupons)
	assert.Equal(t, 1, s.ActiveCoupons)
	assert.Equal(t, 1, s.ExpiredCoupons)
	assert.Equal(t, 2, s.TotalUsage)
	assert.True(t, s.TotalDiscountGiven.Equal(dec(833)))
}

func newTx(t *testing.T) *Transaction {
	t.Helper()
	tx, err := NewTransaction(TransactionParams{
		UserID:    uuid.New(),
		Reference: "WZ-SUB-1",
		Type:      TransactionSubscription,
		Amount:    dec(5000),
		Metadata:  TransactionMetadata{Plan: identity.PlanPro, BillingPeriod: identity.BillingMonthly},
	}, now)
	require.NoError(t, err)
	return tx
}

func TestNewTransaction(t *testing.T) {
	tx := newTx(t)
	assert.Equal(t, StatusInitiated, tx.Status)
	assert.Equal(t, ProviderFlutterwave, tx.Provider)
	assert.Equal(t, "NGN", tx.Currency)
	require.Len(t, tx.GetDomainEvents(), 1)

	_, err := NewTransaction(TransactionParams{Type: TransactionBoost}, now)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = NewTransaction(TransactionParams{Reference: "x", Type: "gift"}, now)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = NewTransaction(TransactionParams{Reference: "x", Type: TransactionBoost, Amount: dec(-1)}, now)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestTransactionUpdateStatus(t *testing.T) {
	tx := newTx(t)
	later := now.Add(2 * time.Minute)

	changed, err := tx.UpdateStatus(StatusPending, StatusDetails{}, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, changed)
	require.NotNil(t, tx.RedirectedAt)

	changed, err = tx.UpdateStatus(StatusSuccessful, StatusDetails{ProviderTransactionID: "flw-9", PaymentMethod: "card"}, later)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, later, *tx.CompletedAt)
	assert.Equal(t, "flw-9", tx.ProviderTransactionID)
	assert.Equal(t, 2*time.Minute, tx.Duration())

	changed, err = tx.UpdateStatus(StatusSuccessful, StatusDetails{}, later)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = tx.UpdateStatus(StatusFailed, StatusDetails{}, later)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))

	_, err = newTx(t).UpdateStatus("weird", StatusDetails{}, now)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	failed := newTx(t)
	_, err = failed.UpdateStatus(StatusFailed, StatusDetails{ErrorMessage: "declined", ErrorCode: "51"}, later)
	require.NoError(t, err)
	assert.NotNil(t, failed.FailedAt)
	assert.Equal(t, "declined", failed.ErrorMessage)
}

func TestTransactionAbandon(t *testing.T) {
	tx := newTx(t)
	assert.False(t, tx.Abandon(now.Add(10*time.Minute), AbandonAfter))
	assert.True(t, tx.Abandon(now.Add(31*time.Minute), AbandonAfter))
	assert.Equal(t, StatusAbandoned, tx.Status)
	assert.Equal(t, "Payment not completed within 30 minutes", tx.ErrorMessage)
	assert.False(t, tx.Abandon(now.Add(time.Hour), AbandonAfter))
}

func TestRecordVerification(t *testing.T) {
	tx := newTx(t)
	tx.RecordVerification(now)
	tx.RecordVerification(now.Add(time.Second))
	assert.Equal(t, 2, tx.VerificationAttempts)
	assert.Equal(t, now.Add(time.Second), *tx.LastVerificationAttempt)
}

func TestComputeTransactionStats(t *testing.T) {
	a, b := newTx(t), newTx(t)
	_, err := a.UpdateStatus(StatusSuccessful, StatusDetails{}, now)
	require.NoError(t, err)
	s := ComputeTransactionStats([]*Transaction{a, b})
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.ByStatus[StatusSuccessful])
	assert.InDelta(t, 50.0, s.SuccessRate, 0.001)
	assert.True(t, s.SuccessAmount.Equal(dec(5000)))
}

func TestNewPaymentAnalytics(t *testing.T) {
	got := NewPaymentAnalytics([]StatusTotal{
		{Type: TransactionSubscription, Status: StatusSuccessful, Count: 3, Amount: dec(15000)},
		{Type: TransactionBoost, Status: StatusSuccessful, Count: 2, Amount: dec(1600)},
		{Type: TransactionSubscription, Status: StatusFailed, Count: 1, Amount: dec(5000)},
		{Type: TransactionBoost, Status: StatusAbandoned, Count: 2, Amount: dec(800)},
	})

	s := got.Summary
	assert.Equal(t, int64(8), s.TotalTransactions)
	assert.True(t, s.TotalAmount.Equal(dec(22400)))
	assert.Equal(t, int64(5), s.SuccessfulCount)
	assert.Equal(t, int64(1), s.FailedCount)
	assert.Equal(t, int64(2), s.AbandonedCount)
	assert.True(t, s.SuccessfulAmount.Equal(dec(16600)))
	assert.InDelta(t, 62.5, s.SuccessRate, 0.001)

	require.Len(t, got.ByType, 2)
	assert.Equal(t, TransactionBoost, got.ByType[0].Type)
	require.Len(t, got.ByType[1].Statuses, 2)
	assert.True(t, got.ByType[1].Statuses[0].AvgAmount.Equal(dec(5000)))

	byType := SuccessfulByType([]StatusTotal{
		{Type: TransactionBoost, Status: StatusSuccessful, Count: 1, Amount: dec(400)},
		{Type: TransactionBoost, Status: StatusFailed, Count: 1, Amount: dec(400)},
	})
	assert.True(t, byType[TransactionBoost].Equal(dec(400)))

	empty := NewPaymentAnalytics(nil)
	assert.Zero(t, empty.Summary.SuccessRate)
	assert.NotNil(t, empty.ByType)
}
