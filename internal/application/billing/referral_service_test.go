package billing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wazhop/backend/internal/domain/identity"
)

func (f *billingFixture) referred(t *testing.T, referrer *identity.User, email string) *identity.User {
	t.Helper()
	ctx := context.Background()
	u, err := identity.NewUser("Referred Friend", email, "secret123", "")
	require.NoError(t, err)
	require.NoError(t, u.LinkReferrer(referrer.ID))
	u.ClearDomainEvents()
	require.NoError(t, f.users.Create(ctx, u))

	r := f.reload(t, referrer.ID)
	r.RecordReferral()
	require.NoError(t, f.users.Update(ctx, r))
	return u
}

func TestReferralService_Validate(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	u := f.user(t, "referrer@example.com")

	info, err := f.referrals.Validate(ctx, strings.ToLower(u.ReferralCode))
	require.NoError(t, err)
	assert.Equal(t, u.Name, info.Name)
	assert.Equal(t, u.ReferralCode, info.Code)

	_, err = f.referrals.Validate(ctx, "ZZZZZZZZ")
	assert.Equal(t, "NOT_FOUND", domainCode(err))
	_, err = f.referrals.Validate(ctx, "  ")
	assert.Equal(t, "INVALID_INPUT", domainCode(err))
}

func TestReferralService_Apply(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	referrer := f.user(t, "referrer@example.com")
	late := f.user(t, "late@example.com")

	_, err := f.referrals.Apply(ctx, late.ID, "ZZZZZZZZ")
	assert.Equal(t, "NOT_FOUND", domainCode(err))
	_, err = f.referrals.Apply(ctx, late.ID, late.ReferralCode)
	assert.Equal(t, "INVALID_INPUT", domainCode(err))

	info, err := f.referrals.Apply(ctx, late.ID, strings.ToLower(referrer.ReferralCode))
	require.NoError(t, err)
	assert.Equal(t, referrer.ReferralCode, info.Code)

	stored := f.reload(t, late.ID)
	require.NotNil(t, stored.ReferredBy)
	assert.Equal(t, referrer.ID, *stored.ReferredBy)
	r := f.reload(t, referrer.ID)
	assert.Equal(t, 1, r.ReferralStats.TotalReferrals)
	assert.Equal(t, 1, r.ReferralStats.FreeReferred)
	assert.Zero(t, r.ReferralStats.RewardsEarned)

	_, err = f.referrals.Apply(ctx, late.ID, referrer.ReferralCode)
	assert.Equal(t, "INVALID_STATE", domainCode(err))
	assert.Equal(t, 1, f.reload(t, referrer.ID).ReferralStats.TotalReferrals)
}

func TestReferralService_RewardOnFirstPaidUpgrade(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	referrer := f.user(t, "referrer@example.com")
	friend := f.referred(t, referrer, "friend@example.com")
	f.referred(t, referrer, "lurker@example.com")

	_, err := f.subscriptions.ApplyUpgrade(ctx, friend.ID, identity.PlanPremium, identity.BillingMonthly, "")
	require.NoError(t, err)

	r := f.reload(t, referrer.ID)
	assert.Equal(t, 2, r.ReferralStats.TotalReferrals)
	assert.Equal(t, 1, r.ReferralStats.FreeReferred)
	assert.Equal(t, 1, r.ReferralStats.PremiumReferred)
	assert.Equal(t, identity.PremiumReferralRewardDays, r.ReferralStats.RewardsEarned)

	// Moving between paid plans earns nothing more.
	_, err = f.subscriptions.ApplyUpgrade(ctx, friend.ID, identity.PlanPro, identity.BillingMonthly, "")
	require.NoError(t, err)
	assert.Equal(t, identity.PremiumReferralRewardDays, f.reload(t, referrer.ID).ReferralStats.RewardsEarned)

	overview, err := f.referrals.Overview(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://wazhop.test/register?ref="+referrer.ReferralCode, overview.Link)
	assert.Len(t, overview.Referrals, 2)
	assert.Equal(t, identity.PremiumReferralRewardDays, overview.AvailableDays)
	assert.Equal(t, identity.PremiumReferralRewardDays >= identity.RewardClaimBlockDays, overview.CanClaim)
}

func TestReferralService_Claim(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	u := f.user(t, "claimer@example.com")

	_, err := f.referrals.Claim(ctx, u.ID)
	assert.Equal(t, "INVALID_STATE", domainCode(err))

	u = f.reload(t, u.ID)
	u.ReferralStats.RewardsEarned = 75
	require.NoError(t, f.users.Update(ctx, u))

	res, err := f.referrals.Claim(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, res.DaysApplied)
	assert.Equal(t, identity.PlanPro, res.Plan)
	require.NotNil(t, res.PlanExpiry)

	stored := f.reload(t, u.ID)
	assert.Equal(t, 60, stored.ReferralStats.RewardsUsed)
	assert.Equal(t, 15, stored.ReferralStats.AvailableDays())
	require.Len(t, f.enforcer.Calls(), 1)
	assert.Equal(t, identity.PlanPro, f.enforcer.Calls()[0].plan)
}

func TestReferralService_ClaimDisabled(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	u := f.user(t, "blocked@example.com")

	platform, err := f.settings.Get(ctx)
	require.NoError(t, err)
	platform.Features.EnableReferrals = false
	require.NoError(t, f.settings.Save(ctx, platform))

	_, err = f.referrals.Claim(ctx, u.ID)
	assert.Equal(t, "FORBIDDEN", domainCode(err))
}
