package billing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wazhop/backend/internal/domain/identity"
)

func TestSubscriptionService_Quote(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	u := f.user(t, "quote@example.com")
	f.coupon(t, "HALF", 50)

	q, err := f.subscriptions.Quote(ctx, u.ID, identity.PlanPremium, "", "")
	require.NoError(t, err)
	assert.Equal(t, identity.BillingMonthly, q.BillingPeriod)
	assert.True(t, q.FinalAmount.Equal(decimal.NewFromInt(15000)))
	assert.Equal(t, 30, q.DurationDays)

	q, err = f.subscriptions.Quote(ctx, u.ID, identity.PlanPro, identity.BillingYearly, "half")
	require.NoError(t, err)
	assert.Equal(t, "HALF", q.CouponCode)
	assert.True(t, q.FinalAmount.Equal(decimal.NewFromInt(21000)))
	assert.Equal(t, 365, q.DurationDays)

	_, err = f.subscriptions.Quote(ctx, u.ID, identity.PlanFree, identity.BillingMonthly, "")
	assert.Equal(t, "INVALID_INPUT", domainCode(err))

	_, err = f.subscriptions.QuoteRenewal(ctx, u.ID)
	assert.Equal(t, "INVALID_STATE", domainCode(err))

	assert.Len(t, f.subscriptions.Plans(), 4)
}

func TestSubscriptionService_ApplyUpgrade(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	u := f.user(t, "upgrade@example.com")
	f.coupon(t, "WELCOME", 10)

	st, err := f.subscriptions.ApplyUpgrade(ctx, u.ID, identity.PlanPro, identity.BillingMonthly, "WELCOME")
	require.NoError(t, err)
	assert.Equal(t, identity.PlanPro, st.Plan)
	assert.Equal(t, identity.SubscriptionActive, st.SubscriptionStatus)
	require.NotNil(t, st.DaysRemaining)
	assert.Equal(t, 30, *st.DaysRemaining)
	assert.False(t, st.IsExpired)

	stored := f.reload(t, u.ID)
	assert.Equal(t, identity.PlanPro, stored.Plan)
	require.NotNil(t, stored.LastBillingDate)

	c, err := f.couponRepo.FindByCode(ctx, "WELCOME")
	require.NoError(t, err)
	assert.Equal(t, 1, c.UsedCount)

	require.Len(t, f.enforcer.Calls(), 1)
	assert.Equal(t, identity.PlanPro, f.enforcer.Calls()[0].plan)
	assert.Contains(t, f.events.Types(), identity.EventTypeSubscriptionUpgraded)
}

func TestSubscriptionService_ApplyUpgrade_BadCouponStillUpgrades(t *testing.T) {
	f := newBillingFixture(t)
	u := f.user(t, "nocoupon@example.com")

	st, err := f.subscriptions.ApplyUpgrade(context.Background(), u.ID, identity.PlanPremium, identity.BillingYearly, "GHOST")
	require.NoError(t, err)
	assert.Equal(t, identity.PlanPremium, st.Plan)
	assert.Equal(t, identity.BillingYearly, st.BillingPeriod)
}

func TestSubscriptionService_RenewalAndAutoRenew(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	u := f.user(t, "renew@example.com")

	_, err := f.subscriptions.SetAutoRenew(ctx, u.ID, true)
	assert.Equal(t, "INVALID_STATE", domainCode(err))
	_, err = f.subscriptions.Cancel(ctx, u.ID)
	assert.Equal(t, "INVALID_STATE", domainCode(err))

	first, err := f.subscriptions.ApplyUpgrade(ctx, u.ID, identity.PlanPro, identity.BillingMonthly, "")
	require.NoError(t, err)

	renewed, err := f.subscriptions.ApplyRenewal(ctx, u.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, first.PlanExpiry.AddDate(0, 0, 30), *renewed.PlanExpiry, time.Second)

	st, err := f.subscriptions.Cancel(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.SubscriptionCancelled, st.SubscriptionStatus)
	assert.False(t, st.AutoRenew)
	assert.Equal(t, identity.PlanPro, st.Plan, "plan stays usable until expiry")

	st, err = f.subscriptions.SetAutoRenew(ctx, u.ID, true)
	require.NoError(t, err)
	assert.True(t, st.AutoRenew)
	assert.Equal(t, identity.SubscriptionActive, st.SubscriptionStatus)

	status, err := f.subscriptions.Status(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, status.Limits.MaxShops)
}

func TestSubscriptionService_CheckExpired(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	renewing := f.user(t, "renewing@example.com")
	require.NoError(t, renewing.GrantPlan(identity.PlanPro, 30, daysAgo(40)))
	require.NoError(t, renewing.SetAutoRenew(true))
	renewing.ClearDomainEvents()
	require.NoError(t, f.users.Update(ctx, renewing))

	lapsed := f.user(t, "lapsed@example.com")
	require.NoError(t, lapsed.GrantPlan(identity.PlanPremium, 30, daysAgo(31)))
	lapsed.ClearDomainEvents()
	require.NoError(t, f.users.Update(ctx, lapsed))

	cancelled := f.user(t, "cancelled@example.com")
	require.NoError(t, cancelled.GrantPlan(identity.PlanPro, 30, daysAgo(35)))
	require.NoError(t, cancelled.SetAutoRenew(true))
	require.NoError(t, cancelled.CancelSubscription())
	cancelled.ClearDomainEvents()
	require.NoError(t, f.users.Update(ctx, cancelled))

	current := f.user(t, "current@example.com")
	require.NoError(t, current.GrantPlan(identity.PlanPro, 30, time.Now()))
	current.ClearDomainEvents()
	require.NoError(t, f.users.Update(ctx, current))

	res, err := f.subscriptions.CheckExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpiryResult{Processed: 3, Renewed: 1, Downgraded: 2}, res)

	r := f.reload(t, renewing.ID)
	assert.Equal(t, identity.PlanPro, r.Plan)
	require.NotNil(t, r.PlanExpiry)
	assert.True(t, r.PlanExpiry.After(time.Now()), "renewed from the old expiry")

	l := f.reload(t, lapsed.ID)
	assert.Equal(t, identity.PlanFree, l.Plan)
	assert.Nil(t, l.PlanExpiry)
	assert.Equal(t, identity.SubscriptionExpired, l.SubscriptionStatus)

	c := f.reload(t, cancelled.ID)
	assert.Equal(t, identity.PlanFree, c.Plan)

	assert.Equal(t, identity.PlanPro, f.reload(t, current.ID).Plan)

	calls := f.enforcer.Calls()
	require.Len(t, calls, 2)
	for _, call := range calls {
		assert.Equal(t, identity.PlanFree, call.plan)
	}
	assert.Contains(t, f.events.Types(), identity.EventTypeSubscriptionExpired)
	assert.Contains(t, f.events.Types(), identity.EventTypeSubscriptionRenewed)
}
