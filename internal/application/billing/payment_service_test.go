package billing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wazhop/backend/internal/domain/billing"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/infrastructure/event"
	"github.com/wazhop/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewReference(t *testing.T) {
	a, b := NewReference(), NewReference()
	assert.True(t, strings.HasPrefix(a, "WZ-"))
	assert.Len(t, a, 23)
	assert.NotEqual(t, a, b)
	assert.Equal(t, strings.ToUpper(a), a)
}

func TestPaymentService_SubscriptionFlow(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	u := f.user(t, "payer@example.com")

	session, err := f.payments.Initiate(ctx, InitiatePaymentInput{
		UserID:        u.ID,
		Type:          billing.TransactionSubscription,
		Plan:          identity.PlanPro,
		BillingPeriod: identity.BillingMonthly,
	})
	require.NoError(t, err)
	assert.False(t, session.Settled)
	assert.Equal(t, "https://checkout.test/"+session.Transaction.Reference, session.AuthorizationURL)
	require.Len(t, f.gateway.initialized, 1)
	req := f.gateway.initialized[0]
	assert.True(t, req.Amount.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, "payer@example.com", req.Email)
	assert.Equal(t, "https://wazhop.test/payment/callback", req.CallbackURL)

	tx, err := f.txRepo.FindByReference(ctx, session.Transaction.Reference)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusInitiated, tx.Status)
	assert.Equal(t, billing.ProviderPaystack, tx.Provider)
	assert.Equal(t, identity.PlanPro, tx.Metadata.Plan)

	f.gateway.succeed(5000)
	verified, err := f.payments.Verify(ctx, u.ID, tx.Reference)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusSuccessful, verified.Status)
	assert.Equal(t, "card", verified.PaymentMethod)
	assert.Equal(t, 1, verified.VerificationAttempts)

	stored := f.reload(t, u.ID)
	assert.Equal(t, identity.PlanPro, stored.Plan)
	require.Len(t, f.enforcer.Calls(), 1)

	again, err := f.payments.Verify(ctx, u.ID, tx.Reference)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusSuccessful, again.Status)
	assert.Len(t, f.enforcer.Calls(), 1, "a settled payment is delivered once")

	assert.Contains(t, f.events.Types(), billing.EventTypePaymentInitiated)
	assert.Contains(t, f.events.Types(), billing.EventTypePaymentStatusChanged)
}

func TestPaymentService_UpgradeTypeForPaidUser(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	u := f.user(t, "paid@example.com")
	require.NoError(t, u.GrantPlan(identity.PlanPro, 30, time.Now()))
	u.ClearDomainEvents()
	require.NoError(t, f.users.Update(ctx, u))

	session, err := f.payments.Initiate(ctx, InitiatePaymentInput{
		UserID: u.ID, Type: billing.TransactionSubscription, Plan: identity.PlanPremium,
	})
	require.NoError(t, err)
	assert.Equal(t, billing.TransactionUpgrade, session.Transaction.Type)
	assert.Equal(t, identity.BillingMonthly, session.Transaction.Metadata.BillingPeriod)

	renewal, err := f.payments.Initiate(ctx, InitiatePaymentInput{UserID: u.ID, Type: billing.TransactionRenewal})
	require.NoError(t, err)
	assert.True(t, renewal.Transaction.Amount.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, identity.PlanPro, renewal.Transaction.Metadata.Plan)
}

func TestPaymentService_FullDiscountSettlesImmediately(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	u := f.user(t, "free@example.com")
	f.coupon(t, "ONUS", 100)

	session, err := f.payments.Initiate(ctx, InitiatePaymentInput{
		UserID: u.ID, Type: billing.TransactionSubscription, Plan: identity.PlanPremium, CouponCode: "onus",
	})
	require.NoError(t, err)
	assert.True(t, session.Settled)
	assert.Empty(t, session.AuthorizationURL)
	assert.Empty(t, f.gateway.initialized)
	assert.Equal(t, billing.StatusSuccessful, session.Transaction.Status)
	assert.True(t, session.Transaction.Metadata.DiscountApplied.Equal(decimal.NewFromInt(15000)))

	assert.Equal(t, identity.PlanPremium, f.reload(t, u.ID).Plan)
	c, err := f.couponRepo.FindByCode(ctx, "ONUS")
	require.NoError(t, err)
	assert.Equal(t, 1, c.UsedCount)
}

func TestPaymentService_AmountMismatchFails(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	u := f.user(t, "short@example.com")

	session, err := f.payments.Initiate(ctx, InitiatePaymentInput{
		UserID: u.ID, Type: billing.TransactionSubscription, Plan: identity.PlanPro,
	})
	require.NoError(t, err)

	f.gateway.succeed(100)
	tx, err := f.payments.Verify(ctx, u.ID, session.Transaction.Reference)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusFailed, tx.Status)
	assert.Equal(t, "AMOUNT_MISMATCH", tx.ErrorCode)
	assert.Equal(t, identity.PlanFree, f.reload(t, u.ID).Plan)
}

func TestPaymentService_PendingVerification(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	u := f.user(t, "pending@example.com")

	session, err := f.payments.Initiate(ctx, InitiatePaymentInput{
		UserID: u.ID, Type: billing.TransactionSubscription, Plan: identity.PlanPro,
	})
	require.NoError(t, err)

	f.gateway.result = &Verification{Status: billing.StatusPending, Currency: "NGN"}
	tx, err := f.payments.Verify(ctx, u.ID, session.Transaction.Reference)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPending, tx.Status)
	assert.NotNil(t, tx.RedirectedAt)
}

func TestPaymentService_InitializeFailure(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	u := f.user(t, "down@example.com")
	f.gateway.initErr = errors.New("gateway unavailable")

	_, err := f.payments.Initiate(ctx, InitiatePaymentInput{
		UserID: u.ID, Type: billing.TransactionSubscription, Plan: identity.PlanPro,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initialize payment")

	page, err := f.payments.History(ctx, PaymentHistoryQuery{UserID: u.ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, billing.StatusFailed, page.Items[0].Status)
	assert.Equal(t, "gateway unavailable", page.Items[0].ErrorMessage)
}

type failingUpdates struct {
	*persistence.GormTransactionRepository
}

func (failingUpdates) Update(context.Context, *billing.Transaction) error {
	return errors.New("database is locked")
}

func TestPaymentService_InitializeFailureLogsLostUpdate(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	u := f.user(t, "locked@example.com")
	f.gateway.initErr = errors.New("gateway unavailable")
	core, logs := observer.New(zapcore.WarnLevel)
	payments := NewPaymentService(PaymentServiceConfig{
		Transactions:  failingUpdates{f.txRepo},
		Users:         f.users,
		Gateway:       f.gateway,
		Subscriptions: f.subscriptions,
		Boosts:        f.boosts,
		Events:        event.NewInMemoryEventBus(zap.NewNop()),
		Config:        PaymentConfig{CallbackURL: "https://wazhop.test/payment/callback"},
		Logger:        zap.New(core),
	})

	_, err := payments.Initiate(ctx, InitiatePaymentInput{
		UserID: u.ID, Type: billing.TransactionSubscription, Plan: identity.PlanPro,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway unavailable")

	lost := logs.FilterMessage("Failed to record checkout failure").All()
	require.Len(t, lost, 1)
	assert.Equal(t, "database is locked", lost[0].ContextMap()["error"])
	assert.Equal(t, 1, logs.FilterMessage("Failed to open checkout").Len())
}

func TestPaymentService_Validation(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	u := f.user(t, "invalid@example.com")

	_, err := f.payments.Initiate(ctx, InitiatePaymentInput{UserID: u.ID, Type: "gift"})
	assert.Equal(t, "INVALID_INPUT", domainCode(err))

	_, err = f.payments.Initiate(ctx, InitiatePaymentInput{UserID: u.ID, Type: billing.TransactionBoost})
	assert.Equal(t, "INVALID_INPUT", domainCode(err))

	_, err = f.payments.Initiate(ctx, InitiatePaymentInput{UserID: u.ID, Type: billing.TransactionRenewal})
	assert.Equal(t, "INVALID_STATE", domainCode(err))
}

func TestPaymentService_BoostByWebhook(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	u := f.user(t, "boost@example.com")
	productID := uuid.New()

	session, err := f.payments.Initiate(ctx, InitiatePaymentInput{
		UserID:     u.ID,
		Type:       billing.TransactionBoost,
		ProductID:  &productID,
		BoostHours: 5,
		BoostState: " Lagos ",
	})
	require.NoError(t, err)
	tx := session.Transaction
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, "Lagos", tx.Metadata.State)

	f.gateway.webhook = &WebhookEvent{
		Event: "charge.success",
		Verification: Verification{
			Reference: tx.Reference,
			Status:    billing.StatusSuccessful,
			Amount:    decimal.NewFromInt(2000),
			Currency:  "NGN",
		},
	}
	require.Error(t, f.payments.HandleWebhook(ctx, []byte(`{}`), "forged"))
	assert.Empty(t, f.boosts.applied)

	require.NoError(t, f.payments.HandleWebhook(ctx, []byte(`{}`), "valid"))
	require.Len(t, f.boosts.applied, 1)
	assert.Equal(t, 5, f.boosts.applied[0].Hours)
	assert.Equal(t, "Lagos", f.boosts.applied[0].State)

	require.NoError(t, f.payments.HandleWebhook(ctx, []byte(`{}`), "valid"))
	assert.Len(t, f.boosts.applied, 1, "replayed webhook is ignored")

	f.gateway.webhook.Verification.Reference = "WZ-UNKNOWN"
	assert.NoError(t, f.payments.HandleWebhook(ctx, []byte(`{}`), "valid"))
}

func TestPaymentService_SettleStaleSnapshotsDeliverOnce(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	u := f.user(t, "race@example.com")
	productID := uuid.New()

	session, err := f.payments.Initiate(ctx, InitiatePaymentInput{
		UserID: u.ID, Type: billing.TransactionBoost, ProductID: &productID, BoostHours: 2,
	})
	require.NoError(t, err)
	ref := session.Transaction.Reference
	paid := Verification{Reference: ref, Status: billing.StatusSuccessful, Amount: decimal.NewFromInt(800), Currency: "NGN"}

	webhookCopy, err := f.txRepo.FindByReference(ctx, ref)
	require.NoError(t, err)
	verifyCopy, err := f.txRepo.FindByReference(ctx, ref)
	require.NoError(t, err)
	verifyCopy.RecordVerification(time.Now())

	require.NoError(t, f.payments.settle(ctx, webhookCopy, paid))
	require.NoError(t, f.payments.settle(ctx, verifyCopy, paid))

	assert.Len(t, f.boosts.applied, 1)
	assert.Equal(t, billing.StatusSuccessful, verifyCopy.Status)
	stored, err := f.txRepo.FindByReference(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusSuccessful, stored.Status)
	assert.Zero(t, stored.VerificationAttempts)
}

func TestPaymentService_Ownership(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	other := f.user(t, "other@example.com")

	session, err := f.payments.Initiate(ctx, InitiatePaymentInput{
		UserID: owner.ID, Type: billing.TransactionSubscription, Plan: identity.PlanPro,
	})
	require.NoError(t, err)
	ref := session.Transaction.Reference

	_, err = f.payments.Verify(ctx, other.ID, ref)
	assert.Equal(t, "NOT_FOUND", domainCode(err))
	_, err = f.payments.Get(ctx, other.ID, false, ref)
	assert.Equal(t, "NOT_FOUND", domainCode(err))

	tx, err := f.payments.Get(ctx, other.ID, true, ref)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, tx.UserID)

	page, err := f.payments.History(ctx, PaymentHistoryQuery{UserID: other.ID})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 50, page.PageSize)
}

func TestPaymentService_Analytics(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	other := f.user(t, "other@example.com")
	f.coupon(t, "ONUS", 100)

	_, err := f.payments.Initiate(ctx, InitiatePaymentInput{
		UserID: owner.ID, Type: billing.TransactionSubscription, Plan: identity.PlanPro,
	})
	require.NoError(t, err)
	_, err = f.payments.Initiate(ctx, InitiatePaymentInput{
		UserID: other.ID, Type: billing.TransactionSubscription, Plan: identity.PlanPremium, CouponCode: "ONUS",
	})
	require.NoError(t, err)

	mine, err := f.payments.Analytics(ctx, owner.ID, false, 0)
	require.NoError(t, err)
	assert.Equal(t, 30, mine.Days)
	assert.EqualValues(t, 1, mine.Summary.TotalTransactions)
	assert.Zero(t, mine.Summary.SuccessfulCount)
	assert.Zero(t, mine.Summary.SuccessRate)

	all, err := f.payments.Analytics(ctx, owner.ID, true, 400)
	require.NoError(t, err)
	assert.Equal(t, 365, all.Days)
	assert.EqualValues(t, 2, all.Summary.TotalTransactions)
	assert.EqualValues(t, 1, all.Summary.SuccessfulCount)
	assert.Equal(t, 50.0, all.Summary.SuccessRate)
	require.Len(t, all.ByType, 1)
	assert.Equal(t, billing.TransactionSubscription, all.ByType[0].Type)
	assert.Len(t, all.ByType[0].Statuses, 2)
}

func TestPaymentService_MarkAbandoned(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	u := f.user(t, "slow@example.com")

	stale, err := f.payments.Initiate(ctx, InitiatePaymentInput{
		UserID: u.ID, Type: billing.TransactionSubscription, Plan: identity.PlanPro,
	})
	require.NoError(t, err)

	n, err := f.payments.MarkAbandoned(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.payments.now = func() time.Time { return time.Now().Add(time.Hour) }
	n, err = f.payments.MarkAbandoned(ctx, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	tx, err := f.txRepo.FindByReference(ctx, stale.Transaction.Reference)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusAbandoned, tx.Status)
	assert.Equal(t, "Payment not completed within 30 minutes", tx.ErrorMessage)
}
