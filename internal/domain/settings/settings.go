// Package settings holds the single platform-wide settings document that
// admins edit: branding, gateway keys, mail and storage providers,
// security knobs and feature switches.
package settings

import (
	"net/mail"
	"strings"
	"time"

	"github.com/wazhop/backend/internal/domain/shared"
)

// Mask replaces a secret in admin responses
const Mask = "••••••••"

// MaskSecret shows only the last four characters of a secret
func MaskSecret(s string) string {
	if len(s) < 8 {
		return Mask
	}
	return "••••" + s[len(s)-4:]
}

// isMasked reports whether v came back from a masked admin form unchanged
func isMasked(v string) bool {
	return strings.Contains(v, "••••")
}

// Gateway is one payment gateway's credentials
type Gateway struct {
	Enabled   bool   `json:"enabled"`
	PublicKey string `json:"public_key"`
	SecretKey string `json:"secret_key"`
}

// SMTP is the SMTP relay configuration
type SMTP struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

// Email selects and configures the mail provider
type Email struct {
	Provider    string `json:"provider"`
	BrevoAPIKey string `json:"brevo_api_key"`
	SMTP        SMTP   `json:"smtp"`
}

// Storage selects the object storage provider
type Storage struct {
	Provider  string `json:"provider"`
	Bucket    string `json:"bucket"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

// Security holds account protection knobs
type Security struct {
	RequireEmailVerification bool `json:"require_email_verification"`
	EnableTwoFactor          bool `json:"enable_two_factor"`
	MaxLoginAttempts         int  `json:"max_login_attempts"`
	SessionTimeoutHours      int  `json:"session_timeout_hours"`
}

// Features are platform-wide switches
type Features struct {
	EnableMarketplace bool `json:"enable_marketplace"`
	EnableReviews     bool `json:"enable_reviews"`
	EnableReferrals   bool `json:"enable_referrals"`
	MaintenanceMode   bool `json:"maintenance_mode"`
}

// Platform is the settings document. Exactly one exists.
type Platform struct {
	shared.BaseEntity
	SiteName        string
	SiteDescription string
	ContactEmail    string
	SupportEmail    string
	Paystack        Gateway
	Flutterwave     Gateway
	Email           Email
	Storage         Storage
	Security        Security
	Features        Features
}

// Default returns the settings used before an admin saves any
func Default() *Platform {
	return &Platform{
		BaseEntity:      shared.NewBaseEntity(),
		SiteName:        "WaZhop",
		SiteDescription: "Build and manage your online shop with ease",
		ContactEmail:    "admin@wazhop.ng",
		SupportEmail:    "support@wazhop.ng",
		Email:           Email{Provider: "brevo", SMTP: SMTP{Port: 587}},
		Storage:         Storage{Provider: "s3"},
		Security: Security{
			RequireEmailVerification: true,
			MaxLoginAttempts:         5,
			SessionTimeoutHours:      24,
		},
		Features: Features{
			EnableMarketplace: true,
			EnableReviews:     true,
			EnableReferrals:   true,
		},
	}
}

// Update is a partial change. Nil fields are left alone and secrets that
// still carry the mask are ignored.
type Update struct {
	SiteName        *string `json:"siteName"`
	SiteDescription *string `json:"siteDescription"`
	ContactEmail    *string `json:"contactEmail"`
	SupportEmail    *string `json:"supportEmail"`

	PaystackEnabled      *bool   `json:"paystackEnabled"`
	PaystackPublicKey    *string `json:"paystackPublicKey"`
	PaystackSecretKey    *string `json:"paystackSecretKey"`
	FlutterwaveEnabled   *bool   `json:"flutterwaveEnabled"`
	FlutterwavePublicKey *string `json:"flutterwavePublicKey"`
	FlutterwaveSecretKey *string `json:"flutterwaveSecretKey"`

	EmailProvider *string `json:"emailProvider"`
	BrevoAPIKey   *string `json:"brevoApiKey"`
	SMTPHost      *string `json:"smtpHost"`
	SMTPPort      *int    `json:"smtpPort"`
	SMTPUser      *string `json:"smtpUser"`
	SMTPPassword  *string `json:"smtpPassword"`

	StorageProvider  *string `json:"storageProvider"`
	StorageBucket    *string `json:"storageBucket"`
	StorageAccessKey *string `json:"storageAccessKey"`
	StorageSecretKey *string `json:"storageSecretKey"`

	RequireEmailVerification *bool `json:"requireEmailVerification"`
	EnableTwoFactor          *bool `json:"enableTwoFactor"`
	MaxLoginAttempts         *int  `json:"maxLoginAttempts"`
	SessionTimeout           *int  `json:"sessionTimeout"`

	EnableMarketplace *bool `json:"enableMarketplace"`
	EnableReviews     *bool `json:"enableReviews"`
	EnableReferrals   *bool `json:"enableReferrals"`
	MaintenanceMode   *bool `json:"maintenanceMode"`
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setSecret(dst *string, v *string) {
	if v != nil && !isMasked(*v) {
		*dst = strings.TrimSpace(*v)
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Apply validates u and merges it into p
func (p *Platform) Apply(u Update) error {
	for _, e := range []*string{u.ContactEmail, u.SupportEmail} {
		if e != nil && *e != "" {
			if _, err := mail.ParseAddress(*e); err != nil {
				return shared.NewDomainError("INVALID_INPUT", "Please provide a valid email")
			}
		}
	}
	if u.EmailProvider != nil && *u.EmailProvider != "brevo" && *u.EmailProvider != "smtp" {
		return shared.NewDomainError("INVALID_INPUT", "Email provider must be brevo or smtp")
	}
	if u.StorageProvider != nil && *u.StorageProvider != "s3" {
		return shared.NewDomainError("INVALID_INPUT", "Storage provider must be s3")
	}
	if u.SMTPPort != nil && (*u.SMTPPort < 1 || *u.SMTPPort > 65535) {
		return shared.NewDomainError("INVALID_INPUT", "SMTP port must be between 1 and 65535")
	}
	if u.MaxLoginAttempts != nil && *u.MaxLoginAttempts < 1 {
		return shared.NewDomainError("INVALID_INPUT", "Max login attempts must be at least 1")
	}
	if u.SessionTimeout != nil && *u.SessionTimeout < 1 {
		return shared.NewDomainError("INVALID_INPUT", "Session timeout must be at least 1 hour")
	}
	if u.SiteName != nil && strings.TrimSpace(*u.SiteName) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Site name is required")
	}

	setString(&p.SiteName, u.SiteName)
	setString(&p.SiteDescription, u.SiteDescription)
	setString(&p.ContactEmail, u.ContactEmail)
	setString(&p.SupportEmail, u.SupportEmail)

	setBool(&p.Paystack.Enabled, u.PaystackEnabled)
	setSecret(&p.Paystack.PublicKey, u.PaystackPublicKey)
	setSecret(&p.Paystack.SecretKey, u.PaystackSecretKey)
	setBool(&p.Flutterwave.Enabled, u.FlutterwaveEnabled)
	setSecret(&p.Flutterwave.PublicKey, u.FlutterwavePublicKey)
	setSecret(&p.Flutterwave.SecretKey, u.FlutterwaveSecretKey)

	setString(&p.Email.Provider, u.EmailProvider)
	setSecret(&p.Email.BrevoAPIKey, u.BrevoAPIKey)
	setString(&p.Email.SMTP.Host, u.SMTPHost)
	if u.SMTPPort != nil {
		p.Email.SMTP.Port = *u.SMTPPort
	}
	setString(&p.Email.SMTP.User, u.SMTPUser)
	setSecret(&p.Email.SMTP.Password, u.SMTPPassword)

	setString(&p.Storage.Provider, u.StorageProvider)
	setString(&p.Storage.Bucket, u.StorageBucket)
	setSecret(&p.Storage.AccessKey, u.StorageAccessKey)
	setSecret(&p.Storage.SecretKey, u.StorageSecretKey)

	setBool(&p.Security.RequireEmailVerification, u.RequireEmailVerification)
	setBool(&p.Security.EnableTwoFactor, u.EnableTwoFactor)
	if u.MaxLoginAttempts != nil {
		p.Security.MaxLoginAttempts = *u.MaxLoginAttempts
	}
	if u.SessionTimeout != nil {
		p.Security.SessionTimeoutHours = *u.SessionTimeout
	}

	setBool(&p.Features.EnableMarketplace, u.EnableMarketplace)
	setBool(&p.Features.EnableReviews, u.EnableReviews)
	setBool(&p.Features.EnableReferrals, u.EnableReferrals)
	setBool(&p.Features.MaintenanceMode, u.MaintenanceMode)

	p.UpdatedAt = time.Now()
	return nil
}

// SessionTimeout returns the configured session lifetime
func (p *Platform) SessionTimeout() time.Duration {
	return time.Duration(p.Security.SessionTimeoutHours) * time.Hour
}

// Masked returns a copy whose secrets are masked for admin display
func (p *Platform) Masked() Platform {
	out := *p
	out.Paystack.SecretKey = MaskSecret(p.Paystack.SecretKey)
	out.Flutterwave.SecretKey = MaskSecret(p.Flutterwave.SecretKey)
	out.Email.BrevoAPIKey = MaskSecret(p.Email.BrevoAPIKey)
	out.Email.SMTP.Password = MaskSecret(p.Email.SMTP.Password)
	out.Storage.AccessKey = MaskSecret(p.Storage.AccessKey)
	out.Storage.SecretKey = MaskSecret(p.Storage.SecretKey)
	return out
}

// Public is what unauthenticated clients may see
type Public struct {
	SiteName           string   `json:"site_name"`
	SiteDescription    string   `json:"site_description"`
	ContactEmail       string   `json:"contact_email"`
	SupportEmail       string   `json:"support_email"`
	PaystackEnabled    bool     `json:"paystack_enabled"`
	FlutterwaveEnabled bool     `json:"flutterwave_enabled"`
	EmailProvider      string   `json:"email_provider"`
	StorageProvider    string   `json:"storage_provider"`
	Security           Security `json:"security"`
	Features           Features `json:"features"`
}

// Public strips every credential from p
func (p *Platform) Public() Public {
	return Public{
		SiteName:           p.SiteName,
		SiteDescription:    p.SiteDescription,
		ContactEmail:       p.ContactEmail,
		SupportEmail:       p.SupportEmail,
		PaystackEnabled:    p.Paystack.Enabled,
		FlutterwaveEnabled: p.Flutterwave.Enabled,
		EmailProvider:      p.Email.Provider,
		StorageProvider:    p.Storage.Provider,
		Security:           p.Security,
		Features:           p.Features,
	}
}
