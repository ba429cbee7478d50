package router

import (
	"github.com/gin-gonic/gin"
	"github.com/wazhop/backend/internal/domain/settings"
	"github.com/wazhop/backend/internal/interfaces/http/handler"
	"github.com/wazhop/backend/internal/interfaces/http/middleware"
)

// Handlers bundles the HTTP handlers mounted by RegisterAPI.
// WhatsApp may be nil when the Cloud API is not configured.
type Handlers struct {
	Auth         *handler.AuthHandler
	Shop         *handler.ShopHandler
	Product      *handler.ProductHandler
	Review       *handler.ReviewHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	Coupon       *handler.CouponHandler
	Subscription *handler.SubscriptionHandler
	Payment      *handler.PaymentHandler
	Referral     *handler.ReferralHandler
	Currency     *handler.CurrencyHandler
	Admin        *handler.AdminHandler
	Store        *handler.StoreHandler
	System       *handler.SystemHandler
	WhatsApp     *handler.WhatsAppWebhookHandler
}

// Guards carries the route-level middleware
type Guards struct {
	// Authenticate rejects requests without a valid access token
	Authenticate gin.HandlerFunc
	// Switches gates feature routes; nil leaves them open
	Switches *middleware.FeatureSwitches
	// Credentials throttles login, registration and token refresh; optional
	Credentials gin.HandlerFunc
}

func (g Guards) feature(name string, enabled func(settings.Features) bool) []gin.HandlerFunc {
	if g.Switches == nil {
		return nil
	}
	return []gin.HandlerFunc{middleware.RequireFeature(g.Switches, name, enabled)}
}

func (g Guards) credentials() []gin.HandlerFunc {
	if g.Credentials == nil {
		return nil
	}
	return []gin.HandlerFunc{g.Credentials}
}

func chain(pre []gin.HandlerFunc, h ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(pre)+len(h))
	out = append(out, pre...)
	return append(out, h...)
}

// RegisterAPI declares every WaZhop route on r
func RegisterAPI(r *Router, h Handlers, g Guards) *Router {
	authed := g.Authenticate
	seller := middleware.RequireSeller()
	admin := middleware.RequireAdmin()

	authGroup := NewDomainGroup("auth", "/auth")
	authGroup.POST("/register", chain(g.credentials(), h.Auth.Register)...).Describe("Register a buyer account")
	authGroup.POST("/login", chain(g.credentials(), h.Auth.Login)...).Describe("Sign in with email and password")
	authGroup.POST("/refresh", chain(g.credentials(), h.Auth.RefreshToken)...)
	authGroup.POST("/logout", authed, h.Auth.Logout)
	authGroup.GET("/me", authed, h.Auth.GetCurrentUser)
	authGroup.PUT("/profile", authed, h.Auth.UpdateProfile)
	authGroup.PUT("/password", authed, h.Auth.ChangePassword)
	authGroup.PUT("/upgrade-to-seller", authed, h.Auth.UpgradeToSeller)

	shops := NewDomainGroup("shops", "/shops").Use(authed, seller)
	shops.GET("/my", h.Shop.ListMine)
	shops.GET("/my/:id", h.Shop.GetMine)
	shops.GET("/themes", h.Shop.Themes).Describe("Themes available on the caller's plan")
	shops.POST("", h.Shop.Create).Describe("Open a shop within the plan's shop limit")
	shops.PUT("/:id", h.Shop.Update)
	shops.DELETE("/:id", h.Shop.Delete)
	shops.PUT("/:id/theme", h.Shop.ChangeTheme)
	shops.PUT("/:id/domain", h.Shop.SetDomain).Describe("Connect a custom domain (premium)")
	shops.POST("/:id/domain/verify", h.Shop.VerifyDomain)
	shops.DELETE("/:id/domain", h.Shop.RemoveDomain)
	shops.POST("/:id/images/:kind", h.Shop.UploadImage).Describe("Presign a logo or banner upload")
	shops.DELETE("/:id/images/:kind", h.Shop.DeleteImage)

	storefront := NewDomainGroup("storefront", "/storefront")
	storefront.GET("/:slug", h.Shop.GetBySlug).Describe("Public storefront by slug")
	storefront.GET("/domain/:domain", h.Shop.GetByDomain)

	products := NewDomainGroup("products", "/products")
	products.GET("/marketplace", chain(g.feature("Marketplace", func(f settings.Features) bool { return f.EnableMarketplace }), h.Product.Marketplace)...).
		Describe("Ranked marketplace search")
	products.GET("/:id", h.Product.Get)
	products.GET("/:id/related", h.Product.Related)
	products.POST("/:id/click", h.Product.TrackClick)
	products.GET("/:id/whatsapp", h.Product.WhatsAppLink)
	sellerProducts := products.Group("seller-products", "").Use(authed, seller)
	sellerProducts.GET("/my", h.Product.ListMine)
	sellerProducts.POST("", h.Product.Create)
	sellerProducts.PUT("/reorder", h.Product.Reorder)
	sellerProducts.PUT("/:id", h.Product.Update)
	sellerProducts.DELETE("/:id", h.Product.Delete)
	sellerProducts.GET("/:id/boost/quote", h.Product.BoostQuote)
	sellerProducts.PUT("/:id/boost", h.Product.Boost).Describe("Start a paid boost (400 NGN per hour)")
	sellerProducts.GET("/:id/boost", h.Product.BoostStatus)
	sellerProducts.POST("/:id/images", h.Product.AddImages)
	sellerProducts.DELETE("/:id/images/:imageId", h.Product.RemoveImage)

	reviews := NewDomainGroup("reviews", "/reviews")
	reviews.GET("/product/:productId", h.Review.ListForProduct)
	reviews.POST("", chain(g.feature("Reviews", func(f settings.Features) bool { return f.EnableReviews }), h.Review.Create)...)
	reviews.POST("/:id/helpful", h.Review.MarkHelpful)
	reviews.GET("/shop/:shopId", authed, h.Review.ListForShop)
	reviews.PUT("/:id/approve", authed, h.Review.SetApproved)
	reviews.DELETE("/:id", authed, h.Review.Delete)

	// Cart owners come from the optional JWT or the X-Cart-Session header
	cart := NewDomainGroup("cart", "/cart")
	cart.GET("", h.Cart.Get)
	cart.POST("/items", h.Cart.AddItem)
	cart.PUT("/items/:productId", h.Cart.UpdateItem)
	cart.DELETE("/items/:productId", h.Cart.RemoveItem)
	cart.DELETE("", h.Cart.Clear)
	cart.POST("/merge", authed, h.Cart.Merge).Describe("Merge the anonymous session cart into the user's cart")
	cart.POST("/checkout/whatsapp", h.Cart.WhatsAppCheckout).Describe("Per-shop WhatsApp order links")

	orders := NewDomainGroup("orders", "/orders")
	orders.POST("", h.Order.Create).Describe("Place an order as a guest or signed-in buyer")
	orders.GET("/mine", authed, h.Order.ListMine)
	orders.GET("/:id", authed, h.Order.Get)
	orders.GET("/shop/:shopId", authed, seller, h.Order.ListForShop)
	orders.GET("/shop/:shopId/stats", authed, seller, h.Order.Stats)
	orders.PATCH("/:id/status", authed, seller, h.Order.UpdateStatus)
	orders.PATCH("/:id/cancel", authed, h.Order.Cancel)

	coupons := NewDomainGroup("coupons", "/coupons").Use(authed)
	coupons.POST("/validate", h.Coupon.Validate)
	coupons.POST("/apply", h.Coupon.Apply)
	couponAdmin := coupons.Group("coupon-admin", "").Use(admin)
	couponAdmin.POST("", h.Coupon.Create)
	couponAdmin.GET("", h.Coupon.List)
	couponAdmin.GET("/stats", h.Coupon.Stats)
	couponAdmin.PATCH("/:id/toggle", h.Coupon.Toggle)
	couponAdmin.DELETE("/:id", h.Coupon.Delete)

	subscription := NewDomainGroup("subscription", "/subscription")
	subscription.GET("/plans", h.Subscription.Plans)
	subscription.GET("/quote", h.Subscription.Quote)
	subscription.POST("/upgrade", authed, h.Subscription.Upgrade)
	subscription.POST("/renew", authed, h.Subscription.Renew)
	subscription.PATCH("/auto-renew", authed, h.Subscription.SetAutoRenew)
	subscription.POST("/cancel", authed, h.Subscription.Cancel)
	subscription.GET("/status", authed, h.Subscription.Status)

	payments := NewDomainGroup("payments", "/payments")
	payments.POST("/webhook/:provider", h.Payment.Webhook).Describe("Signed gateway callbacks")
	payments.POST("/initiate", authed, h.Payment.Initiate)
	payments.GET("/history", authed, h.Payment.History)
	payments.GET("/analytics", authed, h.Payment.Analytics).Describe("Payment totals by type and status")
	payments.POST("/abandoned/mark", authed, admin, h.Payment.MarkAbandoned)
	payments.GET("/:ref", authed, h.Payment.Get)
	payments.POST("/:ref/verify", authed, h.Payment.Verify)

	referrals := NewDomainGroup("referrals", "/referrals")
	referralsOn := g.feature("Referrals", func(f settings.Features) bool { return f.EnableReferrals })
	referrals.GET("/validate/:code", h.Referral.Validate)
	referrals.GET("/stats", authed, h.Referral.Stats)
	referrals.POST("/apply", authed, h.Referral.Apply).Describe("Link the caller to a referrer after sign-up")
	referrals.POST("/claim", chain(append([]gin.HandlerFunc{authed}, referralsOn...), h.Referral.Claim)...)

	currency := NewDomainGroup("currency", "/currency")
	currency.GET("/detect", h.Currency.Detect).Describe("Country and currency from the client IP")
	currency.GET("/rates", h.Currency.Rates)
	currency.GET("/supported", h.Currency.Supported)
	currency.GET("/format", h.Currency.Format)

	adminGroup := NewDomainGroup("admin", "/admin").Use(authed, admin)
	adminGroup.GET("/stats", h.Admin.Stats)
	adminGroup.GET("/activity", h.Admin.Activity)
	adminGroup.GET("/users", h.Admin.ListUsers)
	adminGroup.PATCH("/users/:id/role", h.Admin.ChangeRole)
	adminGroup.PATCH("/users/:id/status", h.Admin.ToggleStatus)
	adminGroup.PATCH("/users/:id/plan", h.Admin.SetPlan)
	adminGroup.DELETE("/users/:id", h.Admin.DeleteUser)
	adminGroup.GET("/shops", h.Admin.ListShops)
	adminGroup.DELETE("/shops/:id", h.Admin.DeleteShop)
	adminGroup.GET("/products", h.Admin.ListProducts)
	adminGroup.DELETE("/products/:id", h.Admin.DeleteProduct)
	adminGroup.GET("/orders", h.Admin.ListOrders)
	adminGroup.PATCH("/orders/:id/status", h.Order.UpdateStatus)
	adminGroup.GET("/analytics", h.Admin.Analytics)
	adminGroup.GET("/revenue", h.Admin.Revenue)
	adminGroup.POST("/create-store", h.Store.Create).Describe("Build a store for a seller who has not signed up")
	adminGroup.GET("/create-store/temporary", h.Store.List)
	adminGroup.POST("/create-store/:shopId/products", h.Store.AddProduct)
	adminGroup.DELETE("/create-store/:shopId", h.Store.Delete)
	adminGroup.GET("/settings", h.Admin.Settings)
	adminGroup.PUT("/settings", h.Admin.UpdateSettings)

	activation := NewDomainGroup("activate-store", "/activate-store")
	activation.GET("/verify/:shopId/:token", h.Store.Verify)
	activation.POST("/:shopId/:token", chain(g.credentials(), h.Store.Activate)...).Describe("Claim an admin-built store")

	publicSettings := NewDomainGroup("settings", "/settings")
	publicSettings.GET("/public", h.Admin.PublicSettings)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)
	system.GET("/ping", h.System.Ping)

	r.Register(authGroup).
		Register(shops).
		Register(storefront).
		Register(products).
		Register(reviews).
		Register(cart).
		Register(orders).
		Register(coupons).
		Register(subscription).
		Register(payments).
		Register(referrals).
		Register(currency).
		Register(adminGroup).
		Register(activation).
		Register(publicSettings).
		Register(system)

	if h.WhatsApp != nil {
		webhooks := NewDomainGroup("webhooks", "/webhooks")
		webhooks.GET("/whatsapp", h.WhatsApp.Verify).Describe("Meta subscription handshake")
		webhooks.POST("/whatsapp", h.WhatsApp.Receive)
		r.Register(webhooks)
	}
	return r
}
