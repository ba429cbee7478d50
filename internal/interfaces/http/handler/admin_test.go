package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	adminapp "github.com/wazhop/backend/internal/application/admin"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/order"
	"github.com/wazhop/backend/internal/domain/settings"
	"github.com/wazhop/backend/internal/interfaces/http/dto"
)

func adminRoutes(f *handlerFixture) *gin.Engine {
	return engine(func(r *gin.Engine) {
		r.GET("/admin/stats", f.admin.Stats)
		r.GET("/admin/activity", f.admin.Activity)
		r.GET("/admin/users", f.admin.ListUsers)
		r.PATCH("/admin/users/:id/role", f.admin.ChangeRole)
		r.PATCH("/admin/users/:id/status", f.admin.ToggleStatus)
		r.PATCH("/admin/users/:id/plan", f.admin.SetPlan)
		r.DELETE("/admin/users/:id", f.admin.DeleteUser)
		r.GET("/admin/shops", f.admin.ListShops)
		r.DELETE("/admin/shops/:id", f.admin.DeleteShop)
		r.GET("/admin/products", f.admin.ListProducts)
		r.DELETE("/admin/products/:id", f.admin.DeleteProduct)
		r.GET("/admin/orders", f.admin.ListOrders)
		r.PATCH("/admin/orders/:id/status", f.order.UpdateStatus)
		r.GET("/admin/analytics", f.admin.Analytics)
		r.GET("/admin/revenue", f.admin.Revenue)
		r.POST("/orders", f.order.Create)
		r.GET("/admin/settings", f.admin.Settings)
		r.PUT("/admin/settings", f.admin.UpdateSettings)
		r.GET("/settings/public", f.admin.PublicSettings)
	})
}

func TestAdminHandler_Dashboard(t *testing.T) {
	f := newHandlerFixture(t)
	r := adminRoutes(f)
	admin := f.user(t, "admin@example.com", identity.RoleAdmin, identity.PlanFree)
	_, shop := f.seller(t, "seller@example.com")
	f.listing(t, shop, "Ankara Dress", 15000)
	f.user(t, "buyer@example.com", identity.RoleBuyer, identity.PlanFree)

	w := do(t, r, admin, http.MethodGet, "/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stats := data[StatsResponse](t, w)
	assert.Equal(t, int64(3), stats.Users.Total)
	assert.Equal(t, int64(1), stats.Users.Sellers)
	assert.Equal(t, int64(1), stats.Shops)
	assert.Equal(t, int64(1), stats.Products)

	w = do(t, r, admin, http.MethodGet, "/admin/activity", nil)
	require.Equal(t, http.StatusOK, w.Code)
	activity := data[ActivityResponse](t, w)
	assert.Len(t, activity.RecentProducts, 1)
	assert.NotEmpty(t, activity.RecentUsers)

	w = do(t, r, admin, http.MethodGet, "/admin/users?role=seller", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sellers := data[[]UserResponse](t, w)
	require.Len(t, sellers, 1)
	assert.Equal(t, "seller@example.com", sellers[0].Email)

	w = do(t, r, admin, http.MethodGet, "/admin/users?role=owner", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, admin, http.MethodGet, "/admin/shops", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, data[[]ShopResponse](t, w), 1)

	w = do(t, r, admin, http.MethodGet, "/admin/orders", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminHandler_ModerateCatalog(t *testing.T) {
	f := newHandlerFixture(t)
	r := adminRoutes(f)
	ctx := context.Background()
	admin := f.user(t, "admin@example.com", identity.RoleAdmin, identity.PlanFree)
	_, shop := f.seller(t, "seller@example.com")
	dress := f.listing(t, shop, "Ankara Dress", 15000)
	bag := f.listing(t, shop, "Leather Bag", 9000)

	w := do(t, r, anonymous(), http.MethodPost, "/orders", orderBody(shop.ID, dress.ID, 1))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	placed := data[OrderResponse](t, w)

	w = do(t, r, admin, http.MethodGet, "/admin/products", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, data[[]ProductResponse](t, w), 2)
	w = do(t, r, admin, http.MethodGet, "/admin/products?search=bag", nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := data[[]ProductResponse](t, w)
	require.Len(t, found, 1)
	assert.Equal(t, bag.ID, found[0].ID)

	w = do(t, r, admin, http.MethodPatch, "/admin/orders/"+placed.ID.String()+"/status", map[string]string{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, order.StatusConfirmed, data[OrderResponse](t, w).Status)

	w = do(t, r, admin, http.MethodGet, "/admin/analytics?days=7", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := data[adminapp.Analytics](t, w)
	assert.Equal(t, 7, report.Days)
	assert.EqualValues(t, 2, report.New.Users)
	assert.EqualValues(t, 1, report.New.Shops)
	assert.EqualValues(t, 2, report.New.Products)
	assert.EqualValues(t, 1, report.New.Orders)
	assert.EqualValues(t, 1, report.OrdersByStatus[order.StatusConfirmed])

	w = do(t, r, admin, http.MethodGet, "/admin/revenue", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	revenue := data[adminapp.Revenue](t, w)
	assert.Equal(t, 30, revenue.Days)
	assert.True(t, revenue.Platform.IsZero())
	assert.True(t, revenue.SellerSales.IsZero())

	w = do(t, r, admin, http.MethodDelete, "/admin/products/"+bag.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, err := f.products.FindByID(ctx, bag.ID)
	assert.Error(t, err)

	w = do(t, r, admin, http.MethodDelete, "/admin/shops/"+shop.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, err = f.shopRepo.FindByID(ctx, shop.ID)
	assert.Error(t, err)
	_, err = f.products.FindByID(ctx, dress.ID)
	assert.Error(t, err)

	w = do(t, r, admin, http.MethodDelete, "/admin/shops/"+shop.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminHandler_ManageUsers(t *testing.T) {
	f := newHandlerFixture(t)
	r := adminRoutes(f)
	admin := f.user(t, "admin@example.com", identity.RoleAdmin, identity.PlanFree)
	buyer := f.user(t, "buyer@example.com", identity.RoleBuyer, identity.PlanFree)
	path := "/admin/users/" + buyer.id.String()

	w := do(t, r, admin, http.MethodPatch, path+"/role", map[string]string{"role": "seller"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, identity.RoleSeller, data[UserResponse](t, w).Role)

	w = do(t, r, admin, http.MethodPatch, path+"/plan", map[string]any{"plan": "premium", "duration_days": 90})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	granted := data[UserResponse](t, w)
	assert.Equal(t, identity.PlanPremium, granted.Plan)
	assert.NotNil(t, granted.PlanExpiry)

	w = do(t, r, admin, http.MethodPatch, path+"/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, data[UserResponse](t, w).IsActive)

	self := "/admin/users/" + admin.id.String()
	w = do(t, r, admin, http.MethodPatch, self+"/status", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, errorCode(t, w))

	w = do(t, r, admin, http.MethodPatch, self+"/role", map[string]string{"role": "buyer"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, admin, http.MethodDelete, self, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, admin, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, err := f.users.FindByID(context.Background(), buyer.id)
	assert.Error(t, err)
}

func TestAdminHandler_SettingsRefreshSwitches(t *testing.T) {
	f := newHandlerFixture(t)
	r := adminRoutes(f)
	admin := f.user(t, "admin@example.com", identity.RoleAdmin, identity.PlanFree)
	ctx := context.Background()

	assert.True(t, f.switches.Current(ctx).EnableMarketplace)

	w := do(t, r, admin, http.MethodPut, "/admin/settings", map[string]any{
		"siteName":          "WaZhop Lagos",
		"enableMarketplace": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "WaZhop Lagos", data[PlatformSettingsResponse](t, w).SiteName)
	assert.False(t, f.switches.Current(ctx).EnableMarketplace)

	w = do(t, r, anonymous(), http.MethodGet, "/settings/public", nil)
	require.Equal(t, http.StatusOK, w.Code)
	public := data[settings.Public](t, w)
	assert.Equal(t, "WaZhop Lagos", public.SiteName)
	assert.False(t, public.Features.EnableMarketplace)
	assert.NotContains(t, w.Body.String(), "secret_key")
}
