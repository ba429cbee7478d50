package billing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	catalogapp "github.com/wazhop/backend/internal/application/catalog"
	"github.com/wazhop/backend/internal/domain/billing"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/shared"
	"github.com/wazhop/backend/internal/infrastructure/event"
	"github.com/wazhop/backend/internal/infrastructure/persistence"
	"github.com/wazhop/backend/tests/testutil"
	"go.uber.org/zap"
)

type enforcement struct {
	owner uuid.UUID
	plan  identity.Plan
}

type fakeEnforcer struct {
	mu    sync.Mutex
	calls []enforcement
}

func (e *fakeEnforcer) EnforcePlanForOwner(_ context.Context, ownerID uuid.UUID, plan identity.Plan) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, enforcement{owner: ownerID, plan: plan})
	return 0, nil
}

func (e *fakeEnforcer) Calls() []enforcement {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]enforcement(nil), e.calls...)
}

type fakeGateway struct {
	initErr     error
	verifyErr   error
	result      *Verification
	webhook     *WebhookEvent
	webhookErr  error
	initialized []CheckoutRequest
}

func (g *fakeGateway) Provider() billing.Provider { return billing.ProviderPaystack }

func (g *fakeGateway) Initialize(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if g.initErr != nil {
		return nil, g.initErr
	}
	g.initialized = append(g.initialized, req)
	return &CheckoutSession{
		AuthorizationURL: "https://checkout.test/" + req.Reference,
		AccessCode:       "code-" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (g *fakeGateway) Verify(_ context.Context, ref string) (*Verification, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	v := *g.result
	v.Reference = ref
	return &v, nil
}

func (g *fakeGateway) ParseWebhook(_ []byte, signature string) (*WebhookEvent, error) {
	if g.webhookErr != nil {
		return nil, g.webhookErr
	}
	if signature != "valid" {
		return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid webhook signature")
	}
	return g.webhook, nil
}

func (g *fakeGateway) succeed(amount int64) {
	g.result = &Verification{
		Status:                billing.StatusSuccessful,
		Amount:                decimal.NewFromInt(amount),
		Currency:              "NGN",
		ProviderTransactionID: "psk_1",
		Channel:               "card",
	}
}

type fakeBoosts struct {
	applied []catalog.BoostRequest
}

func (b *fakeBoosts) QuoteBoost(_ context.Context, _, id uuid.UUID, req catalog.BoostRequest) (*catalogapp.BoostQuote, error) {
	if req.Hours <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Boost duration must be at least 1 hour")
	}
	return &catalogapp.BoostQuote{
		ProductID: id,
		Hours:     req.Hours,
		Amount:    decimal.NewFromInt(int64(req.Hours) * 400),
		Currency:  "NGN",
	}, nil
}

func (b *fakeBoosts) ApplyBoost(_ context.Context, id uuid.UUID, req catalog.BoostRequest) (*catalog.Product, error) {
	b.applied = append(b.applied, req)
	return &catalog.Product{}, nil
}

type billingFixture struct {
	users         *persistence.GormUserRepository
	couponRepo    *persistence.GormCouponRepository
	txRepo        *persistence.GormTransactionRepository
	settings      *persistence.GormSettingsRepository
	enforcer      *fakeEnforcer
	gateway       *fakeGateway
	boosts        *fakeBoosts
	events        *testutil.EventSink
	coupons       *CouponService
	subscriptions *SubscriptionService
	payments      *PaymentService
	referrals     *ReferralService
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	f := &billingFixture{
		users:      persistence.NewGormUserRepository(db),
		couponRepo: persistence.NewGormCouponRepository(db),
		txRepo:     persistence.NewGormTransactionRepository(db),
		settings:   persistence.NewGormSettingsRepository(db),
		enforcer:   &fakeEnforcer{},
		gateway:    &fakeGateway{},
		boosts:     &fakeBoosts{},
		events:     testutil.NewEventSink(),
	}
	bus := event.NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(f.events)
	bus.Subscribe(NewReferralRewardHandler(f.users, zap.NewNop()))

	f.coupons = NewCouponService(f.couponRepo, zap.NewNop())
	f.subscriptions = NewSubscriptionService(f.users, f.coupons, f.enforcer, bus, zap.NewNop())
	f.payments = NewPaymentService(PaymentServiceConfig{
		Transactions:  f.txRepo,
		Users:         f.users,
		Gateway:       f.gateway,
		Subscriptions: f.subscriptions,
		Boosts:        f.boosts,
		Events:        bus,
		Config:        PaymentConfig{CallbackURL: "https://wazhop.test/payment/callback"},
		Logger:        zap.NewNop(),
	})
	f.referrals = NewReferralService(f.users, f.settings, f.enforcer, "https://wazhop.test/", zap.NewNop())
	return f
}

func (f *billingFixture) user(t *testing.T, email string) *identity.User {
	t.Helper()
	u, err := identity.NewUser("Chidi Okeke", email, "secret123", "")
	require.NoError(t, err)
	u.ClearDomainEvents()
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *billingFixture) reload(t *testing.T, id uuid.UUID) *identity.User {
	t.Helper()
	u, err := f.users.FindByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (f *billingFixture) coupon(t *testing.T, code string, pct int64) *billing.Coupon {
	t.Helper()
	c, err := f.coupons.Create(context.Background(), CreateCouponInput{
		Code:          code,
		DiscountType:  billing.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(pct),
	})
	require.NoError(t, err)
	return c
}

func domainCode(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func daysAgo(n int) time.Time {
	return time.Now().AddDate(0, 0, -n)
}
