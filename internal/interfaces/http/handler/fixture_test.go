package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	adminapp "github.com/wazhop/backend/internal/application/admin"
	billingapp "github.com/wazhop/backend/internal/application/billing"
	cartapp "github.com/wazhop/backend/internal/application/cart"
	catalogapp "github.com/wazhop/backend/internal/application/catalog"
	currencyapp "github.com/wazhop/backend/internal/application/currency"
	identityapp "github.com/wazhop/backend/internal/application/identity"
	"github.com/wazhop/backend/internal/application/media"
	orderapp "github.com/wazhop/backend/internal/application/order"
	storefrontapp "github.com/wazhop/backend/internal/application/storefront"
	"github.com/wazhop/backend/internal/domain/billing"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/domain/currency"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/storefront"
	"github.com/wazhop/backend/internal/infrastructure/auth"
	"github.com/wazhop/backend/internal/infrastructure/cache"
	"github.com/wazhop/backend/internal/infrastructure/config"
	"github.com/wazhop/backend/internal/infrastructure/event"
	"github.com/wazhop/backend/internal/infrastructure/payment"
	"github.com/wazhop/backend/internal/infrastructure/persistence"
	"github.com/wazhop/backend/internal/infrastructure/storage"
	"github.com/wazhop/backend/internal/interfaces/http/dto"
	"github.com/wazhop/backend/internal/interfaces/http/middleware"
	"github.com/wazhop/backend/tests/testutil"
	"go.uber.org/zap"
)

// Test requests authenticate with these headers instead of a bearer token
const (
	testUserHeader = "X-Test-User"
	testRoleHeader = "X-Test-Role"
)

type noDNS struct{}

func (noDNS) LookupTXT(context.Context, string) ([]string, error) {
	return nil, errors.New("no such host")
}

type staticRates struct{}

func (staticRates) Rates(context.Context) currency.Rates { return currency.DefaultRates() }

type nopNotifier struct{}

func (nopNotifier) Send(context.Context, string, string) error { return nil }

type stubFetcher struct{}

func (stubFetcher) FetchRates(context.Context, string, []string) (map[string]decimal.Decimal, error) {
	return map[string]decimal.Decimal{"NGN": decimal.NewFromInt(1500)}, nil
}

type stubGeo struct{}

func (stubGeo) CountryCode(context.Context, string) (string, error) { return "KE", nil }

// stubGateway settles every payment it is asked to verify
type stubGateway struct {
	webhook *billingapp.WebhookEvent
}

func (g *stubGateway) Provider() billing.Provider { return billing.ProviderPaystack }

func (g *stubGateway) Initialize(_ context.Context, req billingapp.CheckoutRequest) (*billingapp.CheckoutSession, error) {
	return &billingapp.CheckoutSession{
		AuthorizationURL: "https://checkout.test/" + req.Reference,
		AccessCode:       "ac-" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (g *stubGateway) Verify(_ context.Context, ref string) (*billingapp.Verification, error) {
	return &billingapp.Verification{
		Reference: ref,
		Status:    billing.StatusSuccessful,
		Amount:    decimal.NewFromInt(1_000_000),
		Currency:  "NGN",
		Channel:   "card",
	}, nil
}

func (g *stubGateway) ParseWebhook(_ []byte, signature string) (*billingapp.WebhookEvent, error) {
	if signature != "good" {
		return nil, payment.ErrInvalidSignature
	}
	return g.webhook, nil
}

type handlerFixture struct {
	users    *persistence.GormUserRepository
	shopRepo *persistence.GormShopRepository
	products *persistence.GormProductRepository
	txs      *persistence.GormTransactionRepository
	gateway  *stubGateway
	switches *middleware.FeatureSwitches

	auth         *AuthHandler
	shop         *ShopHandler
	product      *ProductHandler
	review       *ReviewHandler
	cart         *CartHandler
	order        *OrderHandler
	coupon       *CouponHandler
	subscription *SubscriptionHandler
	payment      *PaymentHandler
	referral     *ReferralHandler
	currency     *CurrencyHandler
	admin        *AdminHandler
	store        *StoreHandler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	log := zap.NewNop()
	bus := event.NewInMemoryEventBus(log)

	f := &handlerFixture{
		users:    persistence.NewGormUserRepository(db),
		shopRepo: persistence.NewGormShopRepository(db),
		products: persistence.NewGormProductRepository(db),
		txs:      persistence.NewGormTransactionRepository(db),
		gateway:  &stubGateway{},
	}
	reviews := persistence.NewGormReviewRepository(db)
	orders := persistence.NewGormOrderRepository(db)
	settingsRepo := persistence.NewGormSettingsRepository(db)

	jwtSvc := auth.NewJWTService(config.JWTConfig{
		Secret:                 "handler-secret-handler-secret-handler",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "wazhop-test",
		MaxRefreshCount:        5,
	})
	authSvc := identityapp.NewAuthService(f.users, jwtSvc, auth.NewInMemoryTokenBlacklist(), bus,
		identityapp.AuthServiceConfig{RefreshTokenTTL: 24 * time.Hour}, log)

	mediaSvc := media.NewService(storage.NewMemoryObjectStorage("https://cdn.test"), f.users, media.Config{MaxUploadBytes: 5 << 20}, log)
	shopSvc := storefrontapp.NewShopService(f.shopRepo, f.products, reviews, f.users, mediaSvc, noDNS{}, bus, log)
	productSvc := catalogapp.NewProductService(f.products, f.shopRepo, f.users, mediaSvc, staticRates{}, bus, log)
	reviewSvc := catalogapp.NewReviewService(reviews, f.products, f.shopRepo, settingsRepo, log)
	cartSvc := cartapp.NewService(cache.NewMemoryCartStore(time.Hour), f.products, f.shopRepo, log)
	orderSvc := orderapp.NewService(orderapp.ServiceConfig{
		Orders:      orders,
		Products:    f.products,
		Shops:       f.shopRepo,
		Stock:       productSvc,
		Notifier:    nopNotifier{},
		Events:      bus,
		TrackingURL: "https://wazhop.test",
		Logger:      log,
	})
	coupons := billingapp.NewCouponService(persistence.NewGormCouponRepository(db), log)
	subs := billingapp.NewSubscriptionService(f.users, coupons, shopSvc, bus, log)
	payments := billingapp.NewPaymentService(billingapp.PaymentServiceConfig{
		Transactions:  f.txs,
		Users:         f.users,
		Gateway:       f.gateway,
		Subscriptions: subs,
		Boosts:        productSvc,
		Events:        bus,
		Config:        billingapp.PaymentConfig{CallbackURL: "https://wazhop.test/payment/callback", AbandonAfter: 30 * time.Minute},
		Logger:        log,
	})
	referrals := billingapp.NewReferralService(f.users, settingsRepo, shopSvc, "https://wazhop.test", log)
	currencySvc := currencyapp.NewService(stubFetcher{}, cache.NewMemoryRateCache(), stubGeo{}, 6*time.Hour, log)
	adminSvc := adminapp.NewService(adminapp.ServiceConfig{
		Users:        f.users,
		Shops:        f.shopRepo,
		Products:     f.products,
		Orders:       orders,
		Transactions: f.txs,
		Settings:     settingsRepo,
		Enforcer:     shopSvc,
		ShopRemover:  shopSvc,
		ItemRemover:  productSvc,
		Events:       bus,
		Logger:       log,
	})
	storeSvc := adminapp.NewStoreService(adminapp.StoreServiceConfig{
		Users:     f.users,
		Shops:     f.shopRepo,
		Products:  productSvc,
		Remover:   shopSvc,
		Accounts:  authSvc,
		ClientURL: "https://wazhop.test/",
		Logger:    log,
	})
	f.switches = middleware.NewFeatureSwitches(adminSvc, time.Minute, log)

	f.auth = NewAuthHandler(authSvc)
	f.shop = NewShopHandler(shopSvc)
	f.product = NewProductHandler(productSvc, payments)
	f.review = NewReviewHandler(reviewSvc)
	f.cart = NewCartHandler(cartSvc)
	f.order = NewOrderHandler(orderSvc)
	f.coupon = NewCouponHandler(coupons)
	f.subscription = NewSubscriptionHandler(subs, payments)
	f.payment = NewPaymentHandler(payments)
	f.referral = NewReferralHandler(referrals)
	f.currency = NewCurrencyHandler(currencySvc)
	f.admin = NewAdminHandler(adminSvc, f.switches)
	f.store = NewStoreHandler(storeSvc)
	return f
}

// testAuth sets the identity the JWT middleware would derive from a token
func testAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader(testUserHeader); id != "" {
			c.Set(middleware.JWTUserIDKey, id)
			c.Set(middleware.JWTRoleKey, c.GetHeader(testRoleHeader))
		}
		c.Next()
	}
}

// engine returns a router with testAuth installed; register adds routes
func engine(register func(r *gin.Engine)) *gin.Engine {
	r := gin.New()
	r.Use(testAuth())
	register(r)
	return r
}

type caller struct {
	id   uuid.UUID
	role identity.Role
}

func anonymous() caller { return caller{} }

func do(t *testing.T, r http.Handler, as caller, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as.id != uuid.Nil {
		req.Header.Set(testUserHeader, as.id.String())
		req.Header.Set(testRoleHeader, string(as.role))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// data decodes the success envelope's data into T
func data[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	require.True(t, env.Success, w.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}

func (f *handlerFixture) user(t *testing.T, email string, role identity.Role, plan identity.Plan) caller {
	t.Helper()
	u, err := identity.NewUser("Bola Ade", email, "secret123", "+2348012345678")
	require.NoError(t, err)
	if role != identity.RoleBuyer {
		require.NoError(t, u.ChangeRole(role))
	}
	if plan != identity.PlanFree {
		require.NoError(t, u.GrantPlan(plan, 30, time.Now()))
	}
	u.ClearDomainEvents()
	require.NoError(t, f.users.Create(context.Background(), u))
	return caller{id: u.ID, role: role}
}

func (f *handlerFixture) seller(t *testing.T, email string) (caller, *storefront.Shop) {
	t.Helper()
	seller := f.user(t, email, identity.RoleSeller, identity.PlanFree)
	shop, err := storefront.NewShop(seller.id, identity.PlanFree, "Bola Stores", "bola-"+uuid.NewString()[:6], "", storefront.CategoryFashion, "Lagos")
	require.NoError(t, err)
	shop.WhatsAppNumber = "08031112222"
	require.NoError(t, f.shopRepo.Create(context.Background(), shop))
	return seller, shop
}

func (f *handlerFixture) listing(t *testing.T, shop *storefront.Shop, name string, price int64) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(shop.ID, catalog.ProductInput{
		Name:        name,
		Description: name + " in every size",
		Price:       decimal.NewFromInt(price),
		Category:    "Fashion",
	}, 1)
	require.NoError(t, err)
	p.ClearDomainEvents()
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}
