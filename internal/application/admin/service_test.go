package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wazhop/backend/internal/domain/billing"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/order"
	"github.com/wazhop/backend/internal/domain/settings"
	"github.com/wazhop/backend/internal/domain/shared"
	"github.com/wazhop/backend/internal/domain/storefront"
	"github.com/wazhop/backend/internal/infrastructure/event"
	"github.com/wazhop/backend/internal/infrastructure/persistence"
	"github.com/wazhop/backend/tests/testutil"
	"go.uber.org/zap"
)

type enforcerCall struct {
	owner uuid.UUID
	plan  identity.Plan
}

type recordingEnforcer struct{ calls []enforcerCall }

func (e *recordingEnforcer) EnforcePlanForOwner(_ context.Context, ownerID uuid.UUID, plan identity.Plan) (int, error) {
	e.calls = append(e.calls, enforcerCall{ownerID, plan})
	return 0, nil
}

type shopRemover struct {
	shops *persistence.GormShopRepository
}

func (r *shopRemover) Remove(ctx context.Context, shopID uuid.UUID) error {
	return r.shops.Delete(ctx, shopID)
}

type productRemover struct {
	products *persistence.GormProductRepository
}

func (r *productRemover) Remove(ctx context.Context, id uuid.UUID) error {
	if _, err := r.products.FindByID(ctx, id); err != nil {
		return err
	}
	return r.products.Delete(ctx, id)
}

type adminFixture struct {
	svc      *Service
	users    *persistence.GormUserRepository
	shops    *persistence.GormShopRepository
	products *persistence.GormProductRepository
	orders   *persistence.GormOrderRepository
	txs      *persistence.GormTransactionRepository
	enforcer *recordingEnforcer
	events   *testutil.EventSink
	admin    *identity.User
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	f := &adminFixture{
		users:    persistence.NewGormUserRepository(db),
		shops:    persistence.NewGormShopRepository(db),
		products: persistence.NewGormProductRepository(db),
		orders:   persistence.NewGormOrderRepository(db),
		enforcer: &recordingEnforcer{},
		events:   testutil.NewEventSink(),
	}
	bus := event.NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(f.events)
	f.txs = persistence.NewGormTransactionRepository(db)
	f.svc = NewService(ServiceConfig{
		Users:        f.users,
		Shops:        f.shops,
		Products:     f.products,
		Orders:       f.orders,
		Transactions: f.txs,
		Settings:     persistence.NewGormSettingsRepository(db),
		Enforcer:     f.enforcer,
		ShopRemover:  &shopRemover{shops: f.shops},
		ItemRemover:  &productRemover{products: f.products},
		Events:       bus,
		Logger:       zap.NewNop(),
	})
	f.admin = f.user(t, "root@wazhop.test", identity.RoleAdmin)
	return f
}

func (f *adminFixture) user(t *testing.T, email string, role identity.Role) *identity.User {
	t.Helper()
	u, err := identity.NewUser("Chioma Eze", email, "secret123", "")
	require.NoError(t, err)
	require.NoError(t, u.ChangeRole(role))
	u.ClearDomainEvents()
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func code(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func TestService_Stats(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	seller := f.user(t, "seller@wazhop.test", identity.RoleSeller)
	f.user(t, "buyer1@wazhop.test", identity.RoleBuyer)
	f.user(t, "buyer2@wazhop.test", identity.RoleBuyer)
	require.NoError(t, seller.GrantPlan(identity.PlanPro, 30, time.Now()))
	require.NoError(t, f.users.Update(ctx, seller))

	shop, err := storefront.NewShop(seller.ID, seller.Plan, "Eze Crafts", "eze-crafts", "", storefront.CategoryHome, "Enugu")
	require.NoError(t, err)
	require.NoError(t, f.shops.Create(ctx, shop))
	p, err := catalog.NewProduct(shop.ID, catalog.ProductInput{Name: "Basket", Description: "Woven basket", Price: decimal.NewFromInt(8000)}, 1)
	require.NoError(t, err)
	require.NoError(t, f.products.Create(ctx, p))

	for i, paid := range []bool{true, false} {
		item, err := order.NewItem(p.ID, p.Name, "", 1, p.Price)
		require.NoError(t, err)
		o, err := order.New(order.Params{
			ShopID:   shop.ID,
			Customer: order.Customer{Name: "Ife", Email: "ife@example.com", Phone: "2348000000000"},
			Items:    []order.Item{item},
		}, time.Now())
		require.NoError(t, err)
		o.OrderNumber = []string{"WZ26100001", "WZ26100002"}[i]
		if paid {
			o.MarkPaid("ref-1", time.Now())
		}
		require.NoError(t, f.orders.Create(ctx, o))
	}

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.Users.Total)
	assert.EqualValues(t, 1, stats.Users.Sellers)
	assert.EqualValues(t, 2, stats.Users.Buyers)
	assert.EqualValues(t, 1, stats.Users.Admins)
	assert.EqualValues(t, 1, stats.Shops)
	assert.EqualValues(t, 1, stats.Products)
	assert.EqualValues(t, 2, stats.Orders.Total)
	assert.True(t, stats.Orders.Revenue.Equal(decimal.NewFromInt(8000)))
	assert.EqualValues(t, 1, stats.ActiveSubscriptions)
	assert.Len(t, stats.RecentUsers, 4)

	activity, err := f.svc.Activity(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, activity.RecentOrders, 2)
	assert.Len(t, activity.RecentProducts, 1)
}

func TestService_ListUsers(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	f.user(t, "ngozi@wazhop.test", identity.RoleSeller)
	f.user(t, "bola@wazhop.test", identity.RoleBuyer)

	seller := identity.RoleSeller
	page, err := f.svc.ListUsers(ctx, identity.UserFilter{Role: &seller})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "ngozi@wazhop.test", page.Items[0].Email)
	assert.Equal(t, 20, page.PageSize)

	page, err = f.svc.ListUsers(ctx, identity.UserFilter{Keyword: "bola"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	bogus := identity.Role("owner")
	_, err = f.svc.ListUsers(ctx, identity.UserFilter{Role: &bogus})
	assert.Equal(t, "INVALID_INPUT", code(err))
}

func TestService_ChangeRoleAndStatus(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	u := f.user(t, "ada@wazhop.test", identity.RoleBuyer)

	info, err := f.svc.ChangeRole(ctx, f.admin.ID, u.ID, identity.RoleSeller)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleSeller, info.Role)
	assert.Contains(t, f.events.Types(), identity.EventTypeUserRoleChanged)

	_, err = f.svc.ChangeRole(ctx, f.admin.ID, u.ID, "owner")
	assert.Equal(t, "INVALID_INPUT", code(err))
	_, err = f.svc.ChangeRole(ctx, f.admin.ID, f.admin.ID, identity.RoleBuyer)
	assert.Equal(t, "INVALID_INPUT", code(err))
	_, err = f.svc.ChangeRole(ctx, f.admin.ID, uuid.New(), identity.RoleSeller)
	assert.Equal(t, "NOT_FOUND", code(err))

	info, err = f.svc.ToggleStatus(ctx, f.admin.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, info.IsActive)
	info, err = f.svc.ToggleStatus(ctx, f.admin.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, info.IsActive)

	_, err = f.svc.ToggleStatus(ctx, f.admin.ID, f.admin.ID)
	assert.Equal(t, "INVALID_INPUT", code(err))
}

func TestService_SetPlan(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	u := f.user(t, "emeka@wazhop.test", identity.RoleSeller)

	info, err := f.svc.SetPlan(ctx, f.admin.ID, u.ID, SetPlanInput{Plan: identity.PlanPremium, DurationDays: 90})
	require.NoError(t, err)
	assert.Equal(t, identity.PlanPremium, info.Plan)
	require.NotNil(t, info.PlanExpiry)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 90), *info.PlanExpiry, time.Minute)
	assert.Contains(t, f.events.Types(), identity.EventTypeSubscriptionUpgraded)

	info, err = f.svc.SetPlan(ctx, f.admin.ID, u.ID, SetPlanInput{Plan: identity.PlanFree, DurationDays: 30})
	require.NoError(t, err)
	assert.Equal(t, identity.PlanFree, info.Plan)
	assert.Nil(t, info.PlanExpiry)
	assert.Equal(t, []enforcerCall{{u.ID, identity.PlanPremium}, {u.ID, identity.PlanFree}}, f.enforcer.calls)

	_, err = f.svc.SetPlan(ctx, f.admin.ID, u.ID, SetPlanInput{Plan: "gold"})
	assert.Equal(t, "INVALID_INPUT", code(err))
	_, err = f.svc.SetPlan(ctx, f.admin.ID, u.ID, SetPlanInput{Plan: identity.PlanPro, DurationDays: -1})
	assert.Equal(t, "INVALID_INPUT", code(err))
}

func TestService_DeleteUser(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	u := f.user(t, "gone@wazhop.test", identity.RoleSeller)
	shop, err := storefront.NewShop(u.ID, u.Plan, "Gone Shop", "gone-shop", "", storefront.CategoryOther, "Abuja")
	require.NoError(t, err)
	require.NoError(t, f.shops.Create(ctx, shop))

	assert.Equal(t, "INVALID_INPUT", code(f.svc.DeleteUser(ctx, f.admin.ID, f.admin.ID)))
	require.NoError(t, f.svc.DeleteUser(ctx, f.admin.ID, u.ID))

	_, err = f.users.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = f.shops.FindByID(ctx, shop.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.Equal(t, "NOT_FOUND", code(f.svc.DeleteUser(ctx, f.admin.ID, u.ID)))
}

func TestService_Settings(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	secret := "sk_live_abcdef123456"
	maintenance := true
	updated, err := f.svc.UpdateSettings(ctx, f.admin.ID, settings.Update{
		PaystackSecretKey: &secret,
		MaintenanceMode:   &maintenance,
	})
	require.NoError(t, err)
	assert.Equal(t, "••••3456", updated.Paystack.SecretKey)
	assert.True(t, updated.Features.MaintenanceMode)

	masked := updated.Paystack.SecretKey
	_, err = f.svc.UpdateSettings(ctx, f.admin.ID, settings.Update{PaystackSecretKey: &masked})
	require.NoError(t, err)
	got, err := f.svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "••••3456", got.Paystack.SecretKey)

	public, err := f.svc.PublicSettings(ctx)
	require.NoError(t, err)
	assert.True(t, public.Features.MaintenanceMode)

	bad := "not-an-email"
	_, err = f.svc.UpdateSettings(ctx, f.admin.ID, settings.Update{ContactEmail: &bad})
	assert.Equal(t, "INVALID_INPUT", code(err))
}

func (f *adminFixture) shopWithProducts(t *testing.T, owner *identity.User, slug string, names ...string) (*storefront.Shop, []*catalog.Product) {
	t.Helper()
	ctx := context.Background()
	shop, err := storefront.NewShop(owner.ID, owner.Plan, "Shop "+slug, slug, "", storefront.CategoryFashion, "Lagos")
	require.NoError(t, err)
	require.NoError(t, f.shops.Create(ctx, shop))
	var out []*catalog.Product
	for i, name := range names {
		p, err := catalog.NewProduct(shop.ID, catalog.ProductInput{Name: name, Description: name + " for sale", Price: decimal.NewFromInt(1000)}, i+1)
		require.NoError(t, err)
		require.NoError(t, f.products.Create(ctx, p))
		out = append(out, p)
	}
	return shop, out
}

func TestService_ModerateCatalog(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	seller := f.user(t, "tunde@wazhop.test", identity.RoleSeller)
	shop, products := f.shopWithProducts(t, seller, "tunde-wears", "Ankara Shirt", "Agbada Set")
	other, _ := f.shopWithProducts(t, seller, "tunde-shoes", "Leather Slides")

	page, err := f.svc.ListProducts(ctx, catalog.ProductFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 20, page.PageSize)

	page, err = f.svc.ListProducts(ctx, catalog.ProductFilter{Keyword: "agbada"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, products[1].ID, page.Items[0].ID)

	require.NoError(t, f.svc.DeleteProduct(ctx, f.admin.ID, products[0].ID))
	_, err = f.products.FindByID(ctx, products[0].ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteProduct(ctx, f.admin.ID, products[0].ID), shared.ErrNotFound)

	require.NoError(t, f.svc.DeleteShop(ctx, f.admin.ID, shop.ID))
	_, err = f.shops.FindByID(ctx, shop.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = f.products.FindByID(ctx, products[1].ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteShop(ctx, f.admin.ID, shop.ID), shared.ErrNotFound)

	_, err = f.shops.FindByID(ctx, other.ID)
	assert.NoError(t, err)
	page, err = f.svc.ListProducts(ctx, catalog.ProductFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
}

func TestService_AnalyticsAndRevenue(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	now := time.Now()
	seller := f.user(t, "kemi@wazhop.test", identity.RoleSeller)
	shop, products := f.shopWithProducts(t, seller, "kemi-beads", "Coral Beads")

	for i, paid := range []bool{true, false} {
		item, err := order.NewItem(products[0].ID, products[0].Name, "", 2, products[0].Price)
		require.NoError(t, err)
		o, err := order.New(order.Params{
			ShopID:   shop.ID,
			Customer: order.Customer{Name: "Ife", Email: "ife@example.com", Phone: "2348000000000"},
			Items:    []order.Item{item},
		}, now)
		require.NoError(t, err)
		o.OrderNumber = []string{"WZ26100011", "WZ26100012"}[i]
		if paid {
			o.MarkPaid("ref-11", now)
		}
		require.NoError(t, f.orders.Create(ctx, o))
	}

	sub, err := billing.NewTransaction(billing.TransactionParams{
		UserID: seller.ID, Reference: "WZ-SUB-1", Type: billing.TransactionSubscription, Amount: decimal.NewFromInt(5000),
		Metadata: billing.TransactionMetadata{Plan: identity.PlanPro, BillingPeriod: identity.BillingMonthly},
	}, now)
	require.NoError(t, err)
	boost, err := billing.NewTransaction(billing.TransactionParams{
		UserID: seller.ID, Reference: "WZ-BST-1", Type: billing.TransactionBoost, Amount: decimal.NewFromInt(800),
	}, now)
	require.NoError(t, err)
	require.NoError(t, f.txs.Create(ctx, sub))
	require.NoError(t, f.txs.Create(ctx, boost))
	_, err = sub.UpdateStatus(billing.StatusSuccessful, billing.StatusDetails{ProviderTransactionID: "ps-1"}, now)
	require.NoError(t, err)
	require.NoError(t, f.txs.Update(ctx, sub))

	report, err := f.svc.Analytics(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 30, report.Days)
	assert.WithinDuration(t, now.AddDate(0, 0, -30), report.Since, time.Minute)
	assert.Equal(t, Growth{Users: 2, Shops: 1, Products: 1, Orders: 2}, report.New)
	assert.Equal(t, map[order.Status]int64{order.StatusPending: 2}, report.OrdersByStatus)
	assert.EqualValues(t, 2, report.Payments.Summary.TotalTransactions)
	assert.EqualValues(t, 1, report.Payments.Summary.SuccessfulCount)
	assert.Equal(t, 50.0, report.Payments.Summary.SuccessRate)

	report, err = f.svc.Analytics(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, 365, report.Days)

	revenue, err := f.svc.Revenue(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, revenue.Days)
	assert.True(t, revenue.Platform.Equal(decimal.NewFromInt(5000)), revenue.Platform.String())
	require.Len(t, revenue.ByType, 1)
	assert.True(t, revenue.ByType[billing.TransactionSubscription].Equal(decimal.NewFromInt(5000)))
	assert.True(t, revenue.SellerSales.Equal(decimal.NewFromInt(2000)), revenue.SellerSales.String())

	f.svc.now = func() time.Time { return now.AddDate(0, 0, 60) }
	report, err = f.svc.Analytics(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, Growth{}, report.New)
	assert.Empty(t, report.OrdersByStatus)
	revenue, err = f.svc.Revenue(ctx, 10)
	require.NoError(t, err)
	assert.True(t, revenue.Platform.IsZero())
	assert.True(t, revenue.SellerSales.IsZero())
}
