package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Storage   StorageConfig
	Exchange  ExchangeConfig
	Geo       GeoConfig
	WhatsApp  WhatsAppConfig
	Payment   PaymentConfig
	Cart      CartConfig
	Scheduler SchedulerConfig
	Telemetry TelemetryConfig
	Profiling ProfilingConfig
	Metrics   MetricsConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name        string
	Env         string
	Port        string
	FrontendURL string // used for payment redirects and shop links
}

// IsProduction reports whether the app runs in production
func (a AppConfig) IsProduction() bool { return a.Env == "production" }

// LogConfig holds logging configuration
type LogConfig struct {
	Level   string // debug, info, warn, error
	Format  string // json, console
	Output  string // stdout, stderr, or file path
	DBLevel string // silent, error, warn, info
	SlowSQL time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	SQLitePath      string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	AutoMigrate     bool
}

// RedisConfig holds Redis connection settings. An empty host disables Redis
// and the in-memory fallbacks are used instead.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Enabled reports whether a Redis server is configured
func (r RedisConfig) Enabled() bool { return r.Host != "" }

// Addr returns host:port
func (r RedisConfig) Addr() string { return fmt.Sprintf("%s:%d", r.Host, r.Port) }

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                 string
	RefreshSecret          string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
	Issuer                 string
	MaxRefreshCount        int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout           time.Duration
	WriteTimeout          time.Duration
	IdleTimeout           time.Duration
	MaxHeaderBytes        int
	MaxBodySize           int64
	RateLimitEnabled      bool
	RateLimitRequests     int
	RateLimitWindow       time.Duration
	AuthRateLimitRequests int
	AuthRateLimitWindow   time.Duration
	CORSAllowOrigins      []string
	CORSAllowMethods      []string
	CORSAllowHeaders      []string
	TrustedProxies        []string
}

// StorageConfig configures the S3-compatible object store for images
type StorageConfig struct {
	Provider        string // s3 or memory
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	UsePathStyle    bool
	PresignExpiry   time.Duration
	MaxUploadBytes  int64
}

// ExchangeConfig configures the USD exchange-rate source
type ExchangeConfig struct {
	APIURL  string
	TTL     time.Duration
	Timeout time.Duration
}

// GeoConfig configures IP geolocation lookups
type GeoConfig struct {
	APIURL  string
	Timeout time.Duration
}

// WhatsAppConfig configures the WhatsApp Business Cloud API
type WhatsAppConfig struct {
	APIURL        string
	PhoneNumberID string
	AccessToken   string
	VerifyToken   string
	AppSecret     string
	Timeout       time.Duration
}

// Enabled reports whether Cloud API credentials are present
func (w WhatsAppConfig) Enabled() bool { return w.PhoneNumberID != "" && w.AccessToken != "" }

// PaymentConfig configures the payment gateways
type PaymentConfig struct {
	Provider              string // paystack or flutterwave
	PaystackSecretKey     string
	PaystackPublicKey     string
	PaystackBaseURL       string
	FlutterwaveSecretKey  string
	FlutterwavePublicKey  string
	FlutterwaveSecretHash string // compared with the verif-hash webhook header
	FlutterwaveBaseURL    string
	CallbackURL           string
	AbandonAfter          time.Duration
	Timeout               time.Duration
}

// CartConfig configures cart persistence
type CartConfig struct {
	TTL time.Duration
}

// SchedulerConfig holds background job configuration
type SchedulerConfig struct {
	Enabled           bool
	ExpiryHour        int
	ExpiryMinute      int
	CheckInterval     time.Duration
	AbandonedInterval time.Duration
	JobTimeout        time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	DBLogFullSQL      bool
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool
}

// ProfilingConfig configures continuous profiling through Pyroscope
type ProfilingConfig struct {
	Enabled       bool
	ServerAddress string
	AuthToken     string
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load reads config.toml and WAZHOP_ environment overrides.
// Priority (highest to lowest): environment, config.toml, built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("WAZHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("app.name"),
			Env:         v.GetString("app.env"),
			Port:        v.GetString("app.port"),
			FrontendURL: v.GetString("app.frontend_url"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                 v.GetString("jwt.secret"),
			RefreshSecret:          v.GetString("jwt.refresh_secret"),
			AccessTokenExpiration:  v.GetDuration("jwt.access_token_expiration"),
			RefreshTokenExpiration: v.GetDuration("jwt.refresh_token_expiration"),
			Issuer:                 v.GetString("jwt.issuer"),
			MaxRefreshCount:        v.GetInt("jwt.max_refresh_count"),
		},
		Log: LogConfig{
			Level:   v.GetString("log.level"),
			Format:  v.GetString("log.format"),
			Output:  v.GetString("log.output"),
			DBLevel: v.GetString("log.db_level"),
			SlowSQL: v.GetDuration("log.slow_sql"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:           v.GetDuration("http.read_timeout"),
			WriteTimeout:          v.GetDuration("http.write_timeout"),
			IdleTimeout:           v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:        v.GetInt("http.max_header_bytes"),
			MaxBodySize:           v.GetInt64("http.max_body_size"),
			RateLimitEnabled:      v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests:     v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:       v.GetDuration("http.rate_limit_window"),
			AuthRateLimitRequests: v.GetInt("http.auth_rate_limit_requests"),
			AuthRateLimitWindow:   v.GetDuration("http.auth_rate_limit_window"),
			CORSAllowOrigins:      v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:      v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:      v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:        v.GetStringSlice("http.trusted_proxies"),
		},
		Storage: StorageConfig{
			Provider:        v.GetString("storage.provider"),
			Bucket:          v.GetString("storage.bucket"),
			Region:          v.GetString("storage.region"),
			Endpoint:        v.GetString("storage.endpoint"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			PublicBaseURL:   v.GetString("storage.public_base_url"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			PresignExpiry:   v.GetDuration("storage.presign_expiry"),
			MaxUploadBytes:  v.GetInt64("storage.max_upload_bytes"),
		},
		Exchange: ExchangeConfig{
			APIURL:  v.GetString("exchange.api_url"),
			TTL:     v.GetDuration("exchange.ttl"),
			Timeout: v.GetDuration("exchange.timeout"),
		},
		Geo: GeoConfig{
			APIURL:  v.GetString("geo.api_url"),
			Timeout: v.GetDuration("geo.timeout"),
		},
		WhatsApp: WhatsAppConfig{
			APIURL:        v.GetString("whatsapp.api_url"),
			PhoneNumberID: v.GetString("whatsapp.phone_number_id"),
			AccessToken:   v.GetString("whatsapp.access_token"),
			VerifyToken:   v.GetString("whatsapp.verify_token"),
			AppSecret:     v.GetString("whatsapp.app_secret"),
			Timeout:       v.GetDuration("whatsapp.timeout"),
		},
		Payment: PaymentConfig{
			Provider:              v.GetString("payment.provider"),
			PaystackSecretKey:     v.GetString("payment.paystack_secret_key"),
			PaystackPublicKey:     v.GetString("payment.paystack_public_key"),
			PaystackBaseURL:       v.GetString("payment.paystack_base_url"),
			FlutterwaveSecretKey:  v.GetString("payment.flutterwave_secret_key"),
			FlutterwavePublicKey:  v.GetString("payment.flutterwave_public_key"),
			FlutterwaveSecretHash: v.GetString("payment.flutterwave_secret_hash"),
			FlutterwaveBaseURL:    v.GetString("payment.flutterwave_base_url"),
			CallbackURL:           v.GetString("payment.callback_url"),
			AbandonAfter:          v.GetDuration("payment.abandon_after"),
			Timeout:               v.GetDuration("payment.timeout"),
		},
		Cart: CartConfig{
			TTL: v.GetDuration("cart.ttl"),
		},
		Scheduler: SchedulerConfig{
			Enabled:           v.GetBool("scheduler.enabled"),
			ExpiryHour:        v.GetInt("scheduler.expiry_hour"),
			ExpiryMinute:      v.GetInt("scheduler.expiry_minute"),
			CheckInterval:     v.GetDuration("scheduler.check_interval"),
			AbandonedInterval: v.GetDuration("scheduler.abandoned_interval"),
			JobTimeout:        v.GetDuration("scheduler.job_timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
		},
		Profiling: ProfilingConfig{
			Enabled:       v.GetBool("profiling.enabled"),
			ServerAddress: v.GetString("profiling.server_address"),
			AuthToken:     v.GetString("profiling.auth_token"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Path:    v.GetString("metrics.path"),
		},
	}

	applyDefaults(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	setString(&cfg.App.Name, "wazhop-backend")
	setString(&cfg.App.Env, "development")
	setString(&cfg.App.Port, "5000")
	setString(&cfg.App.FrontendURL, "http://localhost:5173")

	setString(&cfg.Database.Driver, "postgres")
	setString(&cfg.Database.SQLitePath, "wazhop.db")
	setString(&cfg.Database.Host, "localhost")
	setInt(&cfg.Database.Port, 5432)
	setString(&cfg.Database.User, "postgres")
	setString(&cfg.Database.DBName, "wazhop")
	setString(&cfg.Database.SSLMode, "disable")
	setInt(&cfg.Database.MaxOpenConns, 25)
	setInt(&cfg.Database.MaxIdleConns, 5)
	setInt(&cfg.Database.ConnMaxLifetime, 60)
	setInt(&cfg.Database.ConnMaxIdleTime, 30)

	if cfg.Redis.Host != "" {
		setInt(&cfg.Redis.Port, 6379)
	}

	setDuration(&cfg.JWT.AccessTokenExpiration, 15*time.Minute)
	setDuration(&cfg.JWT.RefreshTokenExpiration, 30*24*time.Hour)
	setString(&cfg.JWT.Issuer, "wazhop")
	setInt(&cfg.JWT.MaxRefreshCount, 50)

	setString(&cfg.Log.Level, "info")
	setString(&cfg.Log.Format, "console")
	setString(&cfg.Log.Output, "stdout")
	setString(&cfg.Log.DBLevel, "warn")
	setDuration(&cfg.Log.SlowSQL, 200*time.Millisecond)

	setDuration(&cfg.HTTP.ReadTimeout, 15*time.Second)
	setDuration(&cfg.HTTP.WriteTimeout, 30*time.Second)
	setDuration(&cfg.HTTP.IdleTimeout, 60*time.Second)
	setInt(&cfg.HTTP.MaxHeaderBytes, 1<<20)
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20
	}
	setInt(&cfg.HTTP.RateLimitRequests, 100)
	setDuration(&cfg.HTTP.RateLimitWindow, 15*time.Minute)
	setInt(&cfg.HTTP.AuthRateLimitRequests, 20)
	setDuration(&cfg.HTTP.AuthRateLimitWindow, 15*time.Minute)
	// No CORS origin default: cross-origin requests stay blocked until configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "X-Cart-Session"}
	}

	setString(&cfg.Storage.Provider, "memory")
	setString(&cfg.Storage.Region, "us-east-1")
	setDuration(&cfg.Storage.PresignExpiry, 15*time.Minute)
	if cfg.Storage.MaxUploadBytes == 0 {
		cfg.Storage.MaxUploadBytes = 5 << 20
	}

	setString(&cfg.Exchange.APIURL, "https://open.er-api.com/v6/latest/USD")
	setDuration(&cfg.Exchange.TTL, 6*time.Hour)
	setDuration(&cfg.Exchange.Timeout, 5*time.Second)

	setString(&cfg.Geo.APIURL, "https://ipapi.co")
	setDuration(&cfg.Geo.Timeout, 3*time.Second)

	setString(&cfg.WhatsApp.APIURL, "https://graph.facebook.com/v18.0")
	setDuration(&cfg.WhatsApp.Timeout, 10*time.Second)

	setString(&cfg.Payment.Provider, "paystack")
	setString(&cfg.Payment.PaystackBaseURL, "https://api.paystack.co")
	setString(&cfg.Payment.FlutterwaveBaseURL, "https://api.flutterwave.com/v3")
	setDuration(&cfg.Payment.AbandonAfter, 30*time.Minute)
	setDuration(&cfg.Payment.Timeout, 15*time.Second)
	if cfg.Payment.CallbackURL == "" {
		cfg.Payment.CallbackURL = strings.TrimRight(cfg.App.FrontendURL, "/") + "/payment/callback"
	}

	setDuration(&cfg.Cart.TTL, 30*24*time.Hour)

	if cfg.Scheduler.ExpiryHour == 0 && cfg.Scheduler.ExpiryMinute == 0 {
		cfg.Scheduler.ExpiryHour = 2
	}
	setDuration(&cfg.Scheduler.CheckInterval, time.Minute)
	setDuration(&cfg.Scheduler.AbandonedInterval, 15*time.Minute)
	setDuration(&cfg.Scheduler.JobTimeout, 10*time.Minute)

	setString(&cfg.Telemetry.CollectorEndpoint, "localhost:4317")
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	setString(&cfg.Telemetry.ServiceName, cfg.App.Name)
	setDuration(&cfg.Telemetry.MetricsInterval, 60*time.Second)

	setString(&cfg.Profiling.ServerAddress, "http://localhost:4040")
	setString(&cfg.Metrics.Path, "/metrics")
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Storage.Provider != "s3" && c.Storage.Provider != "memory" {
		return fmt.Errorf("storage.provider must be s3 or memory, got %q", c.Storage.Provider)
	}
	if c.Storage.Provider == "s3" && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required for the s3 provider")
	}
	if c.Payment.Provider != "paystack" && c.Payment.Provider != "flutterwave" {
		return fmt.Errorf("payment.provider must be paystack or flutterwave, got %q", c.Payment.Provider)
	}
	if c.Scheduler.ExpiryHour < 0 || c.Scheduler.ExpiryHour > 23 || c.Scheduler.ExpiryMinute < 0 || c.Scheduler.ExpiryMinute > 59 {
		return fmt.Errorf("scheduler expiry time %02d:%02d is invalid", c.Scheduler.ExpiryHour, c.Scheduler.ExpiryMinute)
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if c.App.IsProduction() {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Driver != "postgres" {
			return fmt.Errorf("database.driver must be postgres in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	} else if c.JWT.Secret == "" {
		c.JWT.Secret = "development-secret-change-me-please-0123456789"
	}
	if c.JWT.RefreshSecret == "" {
		c.JWT.RefreshSecret = c.JWT.Secret
	}
	return nil
}

// DSN returns the postgres connection string with escaped credentials
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

func setDuration(dst *time.Duration, def time.Duration) {
	if *dst == 0 {
		*dst = def
	}
}
