package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	adminapp "github.com/wazhop/backend/internal/application/admin"
	billingapp "github.com/wazhop/backend/internal/application/billing"
	cartapp "github.com/wazhop/backend/internal/application/cart"
	catalogapp "github.com/wazhop/backend/internal/application/catalog"
	currencyapp "github.com/wazhop/backend/internal/application/currency"
	identityapp "github.com/wazhop/backend/internal/application/identity"
	"github.com/wazhop/backend/internal/application/media"
	orderapp "github.com/wazhop/backend/internal/application/order"
	storefrontapp "github.com/wazhop/backend/internal/application/storefront"
	"github.com/wazhop/backend/internal/infrastructure/auth"
	"github.com/wazhop/backend/internal/infrastructure/cache"
	"github.com/wazhop/backend/internal/infrastructure/config"
	"github.com/wazhop/backend/internal/infrastructure/event"
	"github.com/wazhop/backend/internal/infrastructure/exchange"
	"github.com/wazhop/backend/internal/infrastructure/geo"
	"github.com/wazhop/backend/internal/infrastructure/logger"
	"github.com/wazhop/backend/internal/infrastructure/metrics"
	"github.com/wazhop/backend/internal/infrastructure/payment"
	"github.com/wazhop/backend/internal/infrastructure/persistence"
	"github.com/wazhop/backend/internal/infrastructure/scheduler"
	"github.com/wazhop/backend/internal/infrastructure/storage"
	"github.com/wazhop/backend/internal/infrastructure/whatsapp"
	"github.com/wazhop/backend/internal/interfaces/http/dto"
	"github.com/wazhop/backend/internal/interfaces/http/handler"
	"github.com/wazhop/backend/internal/interfaces/http/middleware"
	"github.com/wazhop/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// application holds the HTTP engine and the long-running workers behind it
type application struct {
	engine  *gin.Engine
	bus     *event.InMemoryEventBus
	jobs    *scheduler.Scheduler
	trigger *scheduler.CronTrigger
	stores  *cache.StoreFactory
	log     *zap.Logger
}

func newApplication(ctx context.Context, cfg *config.Config, db *persistence.Database, log *zap.Logger) (*application, error) {
	stores := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	)
	redisClient, err := stores.Client()
	if err != nil {
		return nil, err
	}
	cartStore, err := stores.CartStore()
	if err != nil {
		return nil, err
	}
	rateCache, err := stores.RateCache()
	if err != nil {
		return nil, err
	}

	reg := metrics.NewRegistry()
	if sqlDB, err := db.DB.DB(); err == nil {
		if err := reg.RegisterDB(sqlDB, cfg.Database.DBName); err != nil {
			log.Warn("Failed to register database pool metrics", zap.Error(err))
		}
	}

	bus := event.NewInMemoryEventBus(log)

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	shopRepo := persistence.NewGormShopRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	reviewRepo := persistence.NewGormReviewRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	couponRepo := persistence.NewGormCouponRepository(db.DB)
	txRepo := persistence.NewGormTransactionRepository(db.DB)
	settingsRepo := persistence.NewGormSettingsRepository(db.DB)

	// Outbound integrations
	objects, err := newObjectStorage(ctx, cfg.Storage, log)
	if err != nil {
		return nil, err
	}
	gateway, err := newGateway(cfg.Payment)
	if err != nil {
		return nil, err
	}
	notifier, verifier, err := newWhatsApp(cfg.WhatsApp, log)
	if err != nil {
		return nil, err
	}
	rateFetcher := exchange.NewClient(exchange.Config{APIURL: cfg.Exchange.APIURL, Timeout: cfg.Exchange.Timeout})
	geoLocator := geo.NewClient(geo.Config{APIURL: cfg.Geo.APIURL, Timeout: cfg.Geo.Timeout})

	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	}
	jwtService := auth.NewJWTService(cfg.JWT)

	// Application services
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, bus,
		identityapp.AuthServiceConfig{RefreshTokenTTL: cfg.JWT.RefreshTokenExpiration}, log)
	mediaService := media.NewService(objects, userRepo, media.Config{
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		PresignExpiry:  cfg.Storage.PresignExpiry,
	}, log)
	currencyService := currencyapp.NewService(rateFetcher, rateCache, geoLocator, cfg.Exchange.TTL, log)
	shopService := storefrontapp.NewShopService(shopRepo, productRepo, reviewRepo, userRepo, mediaService, net.DefaultResolver, bus, log)
	productService := catalogapp.NewProductService(productRepo, shopRepo, userRepo, mediaService, currencyService, bus, log)
	reviewService := catalogapp.NewReviewService(reviewRepo, productRepo, shopRepo, settingsRepo, log)
	cartService := cartapp.NewService(cartStore, productRepo, shopRepo, log)
	orderService := orderapp.NewService(orderapp.ServiceConfig{
		Orders:      orderRepo,
		Products:    productRepo,
		Shops:       shopRepo,
		Stock:       productService,
		Notifier:    notifier,
		Events:      bus,
		TrackingURL: cfg.App.FrontendURL,
		Logger:      log,
	})
	couponService := billingapp.NewCouponService(couponRepo, log)
	subscriptionService := billingapp.NewSubscriptionService(userRepo, couponService, shopService, bus, log)
	paymentService := billingapp.NewPaymentService(billingapp.PaymentServiceConfig{
		Transactions:  txRepo,
		Users:         userRepo,
		Gateway:       gateway,
		Subscriptions: subscriptionService,
		Boosts:        productService,
		Events:        bus,
		Config: billingapp.PaymentConfig{
			CallbackURL:  cfg.Payment.CallbackURL,
			AbandonAfter: cfg.Payment.AbandonAfter,
		},
		Logger: log,
	})
	referralService := billingapp.NewReferralService(userRepo, settingsRepo, shopService, cfg.App.FrontendURL, log)
	adminService := adminapp.NewService(adminapp.ServiceConfig{
		Users:        userRepo,
		Shops:        shopRepo,
		Products:     productRepo,
		Orders:       orderRepo,
		Transactions: txRepo,
		Settings:     settingsRepo,
		Enforcer:     shopService,
		ShopRemover:  shopService,
		ItemRemover:  productService,
		Events:       bus,
		Logger:       log,
	})
	storeService := adminapp.NewStoreService(adminapp.StoreServiceConfig{
		Users:     userRepo,
		Shops:     shopRepo,
		Products:  productService,
		Remover:   shopService,
		Accounts:  authService,
		ClientURL: cfg.App.FrontendURL,
		Logger:    log,
	})

	// Event handlers
	defaultShop := storefrontapp.NewDefaultShopHandler(shopService, log)
	bus.Subscribe(defaultShop, defaultShop.EventTypes()...)
	referralReward := billingapp.NewReferralRewardHandler(userRepo, log)
	bus.Subscribe(referralReward, referralReward.EventTypes()...)
	eventRecorder := metrics.NewEventRecorder(reg)
	bus.Subscribe(eventRecorder, eventRecorder.EventTypes()...)

	// Scheduled jobs
	schedCfg := scheduler.DefaultSchedulerConfig()
	schedCfg.Enabled = cfg.Scheduler.Enabled
	if cfg.Scheduler.JobTimeout > 0 {
		schedCfg.JobTimeout = cfg.Scheduler.JobTimeout
	}
	jobs := scheduler.NewScheduler(schedCfg, log)
	jobs.SetObserver(reg)
	trigger := scheduler.NewCronTrigger(scheduler.CronTriggerConfig{CheckInterval: cfg.Scheduler.CheckInterval}, jobs, log)
	for _, task := range []scheduler.Task{
		scheduler.SubscriptionExpiryTask(subscriptionService, cfg.Scheduler.ExpiryHour, cfg.Scheduler.ExpiryMinute, log),
		scheduler.AbandonedPaymentsTask(paymentService, cfg.Scheduler.AbandonedInterval, cfg.Payment.AbandonAfter, log),
		scheduler.ExchangeRatesTask(currencyService, cfg.Exchange.TTL, log),
	} {
		if err := trigger.Register(task); err != nil {
			return nil, fmt.Errorf("register task %s: %w", task.Name, err)
		}
	}

	switches := middleware.NewFeatureSwitches(adminService, time.Minute, log)

	checks := map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	systemHandler := handler.NewSystemHandler("WaZhop API", version, checks)

	handlers := router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Shop:         handler.NewShopHandler(shopService),
		Product:      handler.NewProductHandler(productService, paymentService),
		Review:       handler.NewReviewHandler(reviewService),
		Cart:         handler.NewCartHandler(cartService),
		Order:        handler.NewOrderHandler(orderService),
		Coupon:       handler.NewCouponHandler(couponService),
		Subscription: handler.NewSubscriptionHandler(subscriptionService, paymentService),
		Payment:      handler.NewPaymentHandler(paymentService),
		Referral:     handler.NewReferralHandler(referralService),
		Currency:     handler.NewCurrencyHandler(currencyService),
		Admin:        handler.NewAdminHandler(adminService, switches),
		Store:        handler.NewStoreHandler(storeService),
		System:       systemHandler,
	}
	if verifier != nil {
		handlers.WhatsApp = handler.NewWhatsAppWebhookHandler(verifier)
	}

	engine, err := newEngine(cfg, log, reg, redisClient, jwtService, blacklist, switches, handlers)
	if err != nil {
		return nil, err
	}

	return &application{
		engine:  engine,
		bus:     bus,
		jobs:    jobs,
		trigger: trigger,
		stores:  stores,
		log:     log,
	}, nil
}

func newEngine(
	cfg *config.Config,
	log *zap.Logger,
	reg *metrics.Registry,
	redisClient *redis.Client,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	switches *middleware.FeatureSwitches,
	h router.Handlers,
) (*gin.Engine, error) {
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			return nil, fmt.Errorf("trusted proxies: %w", err)
		}
	}

	skip := []string{"/health", cfg.Metrics.Path}
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
		SkipPaths:   skip,
	}))
	engine.Use(middleware.SpanErrorMarker())
	if cfg.Metrics.Enabled {
		engine.Use(middleware.HTTPMetrics(reg, cfg.Metrics.Path))
	}
	engine.Use(middleware.Profiling(middleware.ProfilingConfig{
		Enabled:   cfg.Profiling.Enabled,
		SkipPaths: skip,
	}))
	engine.Use(middleware.SecurityHeaders(cfg.App.IsProduction()))

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(cors))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.GET("/health", h.System.Health)
	if cfg.Metrics.Enabled {
		engine.GET(cfg.Metrics.Path, gin.WrapH(reg.Handler()))
	}
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", c.GetString("request_id")))
	})

	jwtCfg := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		Logger:         log,
	}

	var apiMiddleware []gin.HandlerFunc
	var credentials gin.HandlerFunc
	if cfg.HTTP.RateLimitEnabled {
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(middleware.RateLimitConfig{
			Limiter: newLimiter(redisClient, "ratelimit:api:", cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow),
		}))
		credentials = middleware.RateLimit(middleware.RateLimitConfig{
			Limiter: newLimiter(redisClient, "ratelimit:auth:", cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow),
		})
	}
	const base = "/api/v1"
	apiMiddleware = append(apiMiddleware,
		middleware.OptionalJWTAuthMiddleware(jwtCfg),
		middleware.TracingUserInjector(),
		middleware.Maintenance(switches,
			base+"/auth/login",
			base+"/auth/refresh",
			base+"/settings/public",
			base+"/payments/webhook",
			base+"/webhooks",
			base+"/system",
		),
	)
	api := router.NewRouter(engine, router.WithAPIVersion("v1"), router.WithMiddleware(apiMiddleware...))
	router.RegisterAPI(api, h, router.Guards{
		Authenticate: middleware.JWTAuthMiddlewareWithConfig(jwtCfg),
		Switches:     switches,
		Credentials:  credentials,
	}).Setup()

	log.Info("Routes registered", zap.Int("count", len(api.Routes())))
	return engine, nil
}

func newLimiter(client *redis.Client, prefix string, limit int, window time.Duration) middleware.Limiter {
	if client != nil {
		return middleware.NewRedisLimiter(client, prefix, limit, window)
	}
	return middleware.NewMemoryLimiter(limit, window)
}

func newObjectStorage(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (media.ObjectStorage, error) {
	if cfg.Provider != "s3" {
		log.Info("Using in-memory object storage", zap.String("base_url", cfg.PublicBaseURL))
		return storage.NewMemoryObjectStorage(cfg.PublicBaseURL), nil
	}
	s3, err := storage.NewS3ObjectStorage(&cfg,
		storage.WithLogger(log),
		storage.WithPresignExpiry(cfg.PresignExpiry),
	)
	if err != nil {
		return nil, fmt.Errorf("s3 storage: %w", err)
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		log.Warn("Could not verify storage bucket", zap.String("bucket", s3.Bucket()), zap.Error(err))
	}
	return s3, nil
}

func newGateway(cfg config.PaymentConfig) (billingapp.Gateway, error) {
	switch cfg.Provider {
	case "flutterwave":
		return payment.NewFlutterwaveAdapter(&payment.FlutterwaveConfig{
			SecretKey:  cfg.FlutterwaveSecretKey,
			SecretHash: cfg.FlutterwaveSecretHash,
			BaseURL:    cfg.FlutterwaveBaseURL,
			Timeout:    cfg.Timeout,
		})
	case "paystack", "":
		return payment.NewPaystackAdapter(&payment.PaystackConfig{
			SecretKey: cfg.PaystackSecretKey,
			BaseURL:   cfg.PaystackBaseURL,
			Timeout:   cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
	}
}

// newWhatsApp returns the order notifier and, when the Cloud API is
// configured, the webhook verifier. Without credentials messages are logged.
func newWhatsApp(cfg config.WhatsAppConfig, log *zap.Logger) (orderapp.Notifier, handler.WebhookVerifier, error) {
	if !cfg.Enabled() {
		log.Info("WhatsApp Cloud API not configured, seller notifications are logged only")
		return whatsapp.NewLogNotifier(log), nil, nil
	}
	client, err := whatsapp.NewCloudClient(whatsapp.Config{
		APIURL:        cfg.APIURL,
		PhoneNumberID: cfg.PhoneNumberID,
		AccessToken:   cfg.AccessToken,
		VerifyToken:   cfg.VerifyToken,
		AppSecret:     cfg.AppSecret,
		Timeout:       cfg.Timeout,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("whatsapp client: %w", err)
	}
	return client, client, nil
}

func (a *application) start(ctx context.Context) error {
	if err := a.bus.Start(ctx); err != nil {
		return err
	}
	if err := a.jobs.Start(ctx); err != nil {
		return err
	}
	return a.trigger.Start(ctx)
}

func (a *application) stop(ctx context.Context) error {
	return errors.Join(
		a.trigger.Stop(ctx),
		a.jobs.Stop(ctx),
		a.bus.Stop(ctx),
		a.stores.Close(),
	)
}
