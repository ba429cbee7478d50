package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/settings"
	"github.com/wazhop/backend/internal/infrastructure/auth"
	"github.com/wazhop/backend/internal/interfaces/http/handler"
	"github.com/wazhop/backend/internal/interfaces/http/middleware"
	"github.com/wazhop/backend/tests/testutil"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, engine http.Handler, method, path string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	h := make(map[string]string)
	for i := 0; i+1 < len(headers); i += 2 {
		h[headers[i]] = headers[i+1]
	}
	return testutil.Serve(t, engine, testutil.Request{Method: method, Path: path, Headers: h})
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	tagged := func(c *gin.Context) {
		c.Header("X-Api", "1")
		c.Next()
	}
	r := NewRouter(engine, WithMiddleware(tagged))
	g := NewDomainGroup("shops", "/shops")
	g.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.Register(g).Setup()

	w := serve(t, engine, http.MethodGet, "/api/v1/shops/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, "1", w.Header().Get("X-Api"))

	w = serve(t, engine, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Api"))
}

func TestDomainGroup_Methods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("orders", "/orders")
	ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
	g.GET("", ok).POST("", ok).PUT("/:id", ok).PATCH("/:id/status", ok).DELETE("/:id", ok).Handle(http.MethodOptions, "", ok)
	g.RegisterRoutes(engine.Group("/api/v1"))

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodPost, "/api/v1/orders"},
		{http.MethodPut, "/api/v1/orders/42"},
		{http.MethodPatch, "/api/v1/orders/42/status"},
		{http.MethodDelete, "/api/v1/orders/42"},
		{http.MethodOptions, "/api/v1/orders"},
	} {
		w := serve(t, engine, tc.method, tc.path)
		assert.Equal(t, http.StatusOK, w.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, tc.method, w.Body.String())
	}
	assert.Equal(t, "orders", g.Name())
	assert.Equal(t, "/orders", g.Prefix())
}

func TestDomainGroup_MiddlewareScope(t *testing.T) {
	engine := gin.New()
	var calls []string
	mark := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			calls = append(calls, name)
			c.Next()
		}
	}
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }

	g := NewDomainGroup("products", "/products").Use(mark("group"))
	g.GET("/:id", ok)
	sub := g.Group("seller", "").Use(mark("seller"))
	sub.GET("/my", ok)
	g.RegisterRoutes(engine.Group(""))

	serve(t, engine, http.MethodGet, "/products/abc")
	assert.Equal(t, []string{"group"}, calls)

	calls = nil
	serve(t, engine, http.MethodGet, "/products/my")
	assert.Equal(t, []string{"group", "seller"}, calls)
}

func TestRouterRoutes(t *testing.T) {
	r := NewRouter(gin.New())
	noop := func(*gin.Context) {}

	cart := NewDomainGroup("cart", "/cart")
	cart.POST("/items", noop).Describe("Add an item")
	cart.GET("", noop)
	cart.Group("checkout", "/checkout").POST("/whatsapp", noop)
	r.Register(cart)

	assert.Equal(t, []RouteInfo{
		{Method: "GET", Path: "/api/v1/cart"},
		{Method: "POST", Path: "/api/v1/cart/checkout/whatsapp"},
		{Method: "POST", Path: "/api/v1/cart/items", Description: "Add an item"},
	}, r.Routes())
}

func TestDescribe_WithoutRoutes(t *testing.T) {
	g := NewDomainGroup("empty", "/empty")
	assert.NotPanics(t, func() { g.Describe("nothing yet") })
}

// stubAuth admits requests carrying X-Role and records their claims
func stubAuth(c *gin.Context) {
	role := c.GetHeader("X-Role")
	if role == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	id := uuid.NewString()
	c.Set(middleware.JWTClaimsKey, &auth.Claims{UserID: id, Role: role})
	c.Set(middleware.JWTUserIDKey, id)
	c.Set(middleware.JWTRoleKey, role)
	c.Next()
}

type staticSettings struct{ features settings.Features }

func (s staticSettings) PublicSettings(context.Context) (settings.Public, error) {
	return settings.Public{Features: s.features}, nil
}

func newAPI(t *testing.T, features settings.Features, whatsapp *handler.WhatsAppWebhookHandler) (*gin.Engine, *Router) {
	t.Helper()
	engine := gin.New()
	h := Handlers{
		Auth:         handler.NewAuthHandler(nil),
		Shop:         handler.NewShopHandler(nil),
		Product:      handler.NewProductHandler(nil, nil),
		Review:       handler.NewReviewHandler(nil),
		Cart:         handler.NewCartHandler(nil),
		Order:        handler.NewOrderHandler(nil),
		Coupon:       handler.NewCouponHandler(nil),
		Subscription: handler.NewSubscriptionHandler(nil, nil),
		Payment:      handler.NewPaymentHandler(nil),
		Referral:     handler.NewReferralHandler(nil),
		Currency:     handler.NewCurrencyHandler(nil),
		Admin:        handler.NewAdminHandler(nil, nil),
		Store:        handler.NewStoreHandler(nil),
		System:       handler.NewSystemHandler("WaZhop API", "test", nil),
		WhatsApp:     whatsapp,
	}
	switches := middleware.NewFeatureSwitches(staticSettings{features}, time.Minute, zap.NewNop())
	var r *Router
	require.NotPanics(t, func() {
		r = RegisterAPI(NewRouter(engine), h, Guards{Authenticate: stubAuth, Switches: switches})
		r.Setup()
	})
	return engine, r
}

func TestRegisterAPI_Guards(t *testing.T) {
	engine, _ := newAPI(t, settings.Features{EnableMarketplace: false, EnableReviews: true}, nil)

	tests := []struct {
		name   string
		method string
		path   string
		role   identity.Role
		status int
	}{
		{"admin requires a token", http.MethodGet, "/api/v1/admin/stats", "", http.StatusUnauthorized},
		{"admin rejects sellers", http.MethodGet, "/api/v1/admin/stats", identity.RoleSeller, http.StatusForbidden},
		{"shops reject buyers", http.MethodGet, "/api/v1/shops/my", identity.RoleBuyer, http.StatusForbidden},
		{"seller products reject buyers", http.MethodPost, "/api/v1/products", identity.RoleBuyer, http.StatusForbidden},
		{"coupon admin rejects buyers", http.MethodPost, "/api/v1/coupons", identity.RoleBuyer, http.StatusForbidden},
		{"admin analytics rejects sellers", http.MethodGet, "/api/v1/admin/analytics", identity.RoleSeller, http.StatusForbidden},
		{"store building is admin only", http.MethodPost, "/api/v1/admin/create-store", identity.RoleSeller, http.StatusForbidden},
		{"abandoned marking is admin only", http.MethodPost, "/api/v1/payments/abandoned/mark", identity.RoleSeller, http.StatusForbidden},
		{"cart merge requires a token", http.MethodPost, "/api/v1/cart/merge", "", http.StatusUnauthorized},
		{"order list requires a token", http.MethodGet, "/api/v1/orders/mine", "", http.StatusUnauthorized},
		{"marketplace switched off", http.MethodGet, "/api/v1/products/marketplace", "", http.StatusForbidden},
		{"ping is public", http.MethodGet, "/api/v1/system/ping", "", http.StatusOK},
		{"whatsapp webhook absent", http.MethodGet, "/api/v1/webhooks/whatsapp", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var headers []string
			if tt.role != "" {
				headers = []string{"X-Role", string(tt.role)}
			}
			w := serve(t, engine, tt.method, tt.path, headers...)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRegisterAPI_Routes(t *testing.T) {
	engine, r := newAPI(t, settings.Features{}, handler.NewWhatsAppWebhookHandler(nil))

	mounted := make(map[string]bool)
	for _, route := range engine.Routes() {
		mounted[route.Method+" "+route.Path] = true
	}
	for _, route := range r.Routes() {
		assert.True(t, mounted[route.Method+" "+route.Path], "%s %s not mounted", route.Method, route.Path)
	}

	for _, want := range []string{
		"POST /api/v1/auth/register",
		"PUT /api/v1/auth/upgrade-to-seller",
		"GET /api/v1/storefront/:slug",
		"GET /api/v1/storefront/domain/:domain",
		"GET /api/v1/products/my",
		"PUT /api/v1/products/reorder",
		"PUT /api/v1/products/:id/boost",
		"POST /api/v1/cart/checkout/whatsapp",
		"PATCH /api/v1/orders/:id/cancel",
		"POST /api/v1/payments/webhook/:provider",
		"GET /api/v1/currency/format",
		"DELETE /api/v1/admin/users/:id",
		"DELETE /api/v1/admin/shops/:id",
		"GET /api/v1/admin/products",
		"DELETE /api/v1/admin/products/:id",
		"PATCH /api/v1/admin/orders/:id/status",
		"GET /api/v1/admin/analytics",
		"GET /api/v1/admin/revenue",
		"POST /api/v1/admin/create-store",
		"GET /api/v1/admin/create-store/temporary",
		"POST /api/v1/admin/create-store/:shopId/products",
		"DELETE /api/v1/admin/create-store/:shopId",
		"GET /api/v1/activate-store/verify/:shopId/:token",
		"POST /api/v1/activate-store/:shopId/:token",
		"GET /api/v1/payments/analytics",
		"POST /api/v1/referrals/apply",
		"GET /api/v1/webhooks/whatsapp",
		"POST /api/v1/webhooks/whatsapp",
	} {
		assert.True(t, mounted[want], "%s not mounted", want)
	}
}
