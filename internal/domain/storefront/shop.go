package storefront

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/shared"
)

// Category groups shops on the marketplace
type Category string

const (
	CategoryFashion     Category = "fashion"
	CategoryElectronics Category = "electronics"
	CategoryFood        Category = "food"
	CategoryBeauty      Category = "beauty"
	CategoryHome        Category = "home"
	CategoryServices    Category = "services"
	CategoryOther       Category = "other"
)

// IsValid reports whether c is a known shop category
func (c Category) IsValid() bool {
	switch c {
	case CategoryFashion, CategoryElectronics, CategoryFood, CategoryBeauty,
		CategoryHome, CategoryServices, CategoryOther:
		return true
	}
	return false
}

// ImageKind names the single-image slots of a shop
type ImageKind string

const (
	ImageLogo   ImageKind = "logo"
	ImageBanner ImageKind = "banner"
)

// IsValid reports whether k is a known image slot
func (k ImageKind) IsValid() bool {
	return k == ImageLogo || k == ImageBanner
}

// Image is an uploaded file stored in object storage
type Image struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// IsZero reports whether no image is set
func (i Image) IsZero() bool {
	return i.URL == "" && i.Key == ""
}

// SocialLinks are the shop's public social handles
type SocialLinks struct {
	Instagram string   `json:"instagram,omitempty"`
	Facebook  string   `json:"facebook,omitempty"`
	Twitter   string   `json:"twitter,omitempty"`
	TikTok    string   `json:"tiktok,omitempty"`
	WhatsApp  string   `json:"whatsapp,omitempty"`
	Telegram  string   `json:"telegram,omitempty"`
	Enabled   []string `json:"enabled,omitempty"`
}

// merge overlays the non-empty fields of other
func (s SocialLinks) merge(other SocialLinks) SocialLinks {
	pick := func(cur, next string) string {
		if next != "" {
			return next
		}
		return cur
	}
	s.Instagram = pick(s.Instagram, other.Instagram)
	s.Facebook = pick(s.Facebook, other.Facebook)
	s.Twitter = pick(s.Twitter, other.Twitter)
	s.TikTok = pick(s.TikTok, other.TikTok)
	s.WhatsApp = pick(s.WhatsApp, other.WhatsApp)
	s.Telegram = pick(s.Telegram, other.Telegram)
	if other.Enabled != nil {
		s.Enabled = other.Enabled
	}
	return s
}

// PaymentProvider is a payment gateway a shop can link to
type PaymentProvider string

const (
	ProviderFlutterwave PaymentProvider = "flutterwave"
	ProviderPaystack    PaymentProvider = "paystack"
)

// GatewayLink holds a provider's public key and hosted payment link
type GatewayLink struct {
	PublicKey   string `json:"public_key,omitempty"`
	PaymentLink string `json:"payment_link,omitempty"`
}

// PaymentSettings configures direct payments on a storefront
type PaymentSettings struct {
	Enabled                  bool            `json:"enabled"`
	Provider                 PaymentProvider `json:"provider,omitempty"`
	Flutterwave              GatewayLink     `json:"flutterwave"`
	Paystack                 GatewayLink     `json:"paystack"`
	AllowWhatsAppNegotiation bool            `json:"allow_whatsapp_negotiation"`
	Currency                 string          `json:"currency"`
}

var paymentCurrencies = map[string]bool{"NGN": true, "USD": true, "GHS": true, "KES": true, "ZAR": true}

// DefaultPaymentSettings returns disabled payments with WhatsApp negotiation
func DefaultPaymentSettings() PaymentSettings {
	return PaymentSettings{AllowWhatsAppNegotiation: true, Currency: "NGN"}
}

// Validate checks provider and currency values
func (p PaymentSettings) Validate() error {
	if p.Provider != "" && p.Provider != ProviderFlutterwave && p.Provider != ProviderPaystack {
		return shared.NewDomainError("INVALID_INPUT", "Payment provider must be flutterwave or paystack")
	}
	if !paymentCurrencies[p.Currency] {
		return shared.NewDomainError("INVALID_INPUT", "Unsupported payment currency")
	}
	if p.Enabled && p.Provider == "" {
		return shared.NewDomainError("INVALID_INPUT", "Select a payment provider to enable payments")
	}
	return nil
}

// Template ids. Premium templates require the premium plan.
const (
	TemplateClassicGradient = "classic-gradient"
	TemplateMinimalWhite    = "minimal-white"
	TemplateModernDark      = "modern-dark"
	TemplateLifestyleBanner = "lifestyle-banner"
	TemplateLuxuryMotion    = "luxury-motion"
)

var templatePlans = map[string]identity.Plan{
	TemplateClassicGradient: identity.PlanFree,
	TemplateMinimalWhite:    identity.PlanFree,
	TemplateModernDark:      identity.PlanFree,
	TemplateLifestyleBanner: identity.PlanPremium,
	TemplateLuxuryMotion:    identity.PlanPremium,
}

var (
	slugRegex   = regexp.MustCompile(`^[a-z0-9-]+$`)
	domainRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.[a-z]{2,}$`)
	phoneRegex  = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
)

// DomainVerifyPrefix is the DNS label that holds the verification TXT record
const DomainVerifyPrefix = "_wazhop-verify."

// Shop is a seller's storefront.
// It is the aggregate root for theme, domain and payment configuration.
type Shop struct {
	shared.BaseAggregateRoot
	OwnerID                 uuid.UUID
	ShopName                string
	Slug                    string
	Description             string
	Category                Category
	Location                string
	Theme                   Theme
	TemplateID              string
	Logo                    Image
	Banner                  Image
	SocialLinks             SocialLinks
	WhatsAppNumber          string
	ShowWatermark           bool
	ShowBranding            bool
	VerifiedBadge           bool
	Views                   int64
	IsActive                bool
	CustomDomain            string
	DomainVerified          bool
	DomainVerificationToken string
	PaymentSettings         PaymentSettings
	Activation
}

// NewShop creates an active shop for owner. Branding and watermark are shown
// on the free plan only.
func NewShop(ownerID uuid.UUID, plan identity.Plan, shopName, slug, description string, category Category, location string) (*Shop, error) {
	shopName = strings.TrimSpace(shopName)
	if err := validateShopName(shopName); err != nil {
		return nil, err
	}
	if err := validateSlug(slug); err != nil {
		return nil, err
	}
	if description == "" {
		description = "Welcome to my shop!"
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}
	if category == "" {
		category = CategoryOther
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid shop category")
	}
	if err := validateLocation(location); err != nil {
		return nil, err
	}

	theme := DefaultTheme()
	theme.PrimaryColor = "#000000"
	theme.AccentColor = "#FFD700"

	shop := &Shop{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerID:           ownerID,
		ShopName:          shopName,
		Slug:              slug,
		Description:       description,
		Category:          category,
		Location:          strings.TrimSpace(location),
		Theme:             theme,
		TemplateID:        TemplateClassicGradient,
		SocialLinks:       SocialLinks{Enabled: []string{"whatsapp"}},
		ShowWatermark:     plan == identity.PlanFree,
		ShowBranding:      plan == identity.PlanFree,
		IsActive:          true,
		PaymentSettings:   DefaultPaymentSettings(),
	}
	shop.AddDomainEvent(NewShopCreatedEvent(shop))
	return shop, nil
}

// IsOwnedBy reports whether userID owns the shop
func (s *Shop) IsOwnedBy(userID uuid.UUID) bool {
	return s.OwnerID == userID
}

// ensureActive rejects changes to shops deactivated by plan enforcement
func (s *Shop) ensureActive() error {
	if !s.IsActive {
		return shared.Forbidden("Cannot update an inactive shop. This shop was deactivated due to plan limits. Please upgrade your plan to reactivate it.")
	}
	return nil
}

// ShopUpdate carries optional shop fields; nil means unchanged
type ShopUpdate struct {
	ShopName       *string
	Description    *string
	Category       *Category
	Location       *string
	Slug           *string
	WhatsAppNumber *string
	SocialLinks    *SocialLinks
	ThemeMode      *ThemeMode
	TemplateID     *string
}

// Update applies u under the owner's plan. Slug uniqueness is checked by the
// caller before Update is called.
func (s *Shop) Update(u ShopUpdate, plan identity.Plan) error {
	if err := s.ensureActive(); err != nil {
		return err
	}
	if u.ShopName != nil && strings.TrimSpace(*u.ShopName) != "" {
		name := strings.TrimSpace(*u.ShopName)
		if err := validateShopName(name); err != nil {
			return err
		}
		s.ShopName = name
	}
	if u.Description != nil {
		if err := validateDescription(*u.Description); err != nil {
			return err
		}
		s.Description = *u.Description
	}
	if u.Category != nil && *u.Category != "" {
		if !u.Category.IsValid() {
			return shared.NewDomainError("INVALID_INPUT", "Invalid shop category")
		}
		s.Category = *u.Category
	}
	if u.Location != nil {
		if err := validateLocation(*u.Location); err != nil {
			return err
		}
		s.Location = strings.TrimSpace(*u.Location)
	}
	if u.Slug != nil && *u.Slug != "" && *u.Slug != s.Slug {
		if err := validateSlug(*u.Slug); err != nil {
			return err
		}
		s.Slug = *u.Slug
	}
	if u.WhatsAppNumber != nil {
		number := strings.TrimSpace(*u.WhatsAppNumber)
		if number != "" && !phoneRegex.MatchString(number) {
			return shared.NewDomainError("INVALID_INPUT", "Please provide a valid international phone number")
		}
		s.WhatsAppNumber = number
	}
	if u.SocialLinks != nil {
		s.SocialLinks = s.SocialLinks.merge(*u.SocialLinks)
	}
	if u.ThemeMode != nil && *u.ThemeMode != s.Theme.Mode {
		if !u.ThemeMode.IsValid() {
			return shared.NewDomainError("INVALID_INPUT", "Theme mode must be light, dark or auto")
		}
		if !identity.HasFeature(plan, identity.FeatureThemeMode) {
			return shared.PlanLimit("Theme mode customization is only available for Premium plan users. Upgrade to Premium to control your shop's display mode.")
		}
		s.Theme.Mode = *u.ThemeMode
	}
	if u.TemplateID != nil && *u.TemplateID != s.TemplateID {
		required, ok := templatePlans[*u.TemplateID]
		if !ok {
			return shared.NewDomainError("INVALID_INPUT", "Unknown template")
		}
		if plan.Rank() < required.Rank() {
			return shared.PlanLimit("This template is only available on the Premium plan")
		}
		s.TemplateID = *u.TemplateID
	}
	s.touch()
	return nil
}

// SetPaymentSettings replaces payment settings; enabling needs premium
func (s *Shop) SetPaymentSettings(p PaymentSettings, plan identity.Plan) error {
	if err := s.ensureActive(); err != nil {
		return err
	}
	if p.Currency == "" {
		p.Currency = "NGN"
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Enabled && !identity.HasFeature(plan, identity.FeaturePaymentSettings) {
		return shared.PlanLimit("Payment integration is only available for Premium plan users. Upgrade to Premium to accept direct payments.")
	}
	s.PaymentSettings = p
	s.touch()
	return nil
}

// SetImage stores an uploaded logo or banner and returns the replaced one
func (s *Shop) SetImage(kind ImageKind, img Image) (Image, error) {
	var previous Image
	switch kind {
	case ImageLogo:
		previous, s.Logo = s.Logo, img
	case ImageBanner:
		previous, s.Banner = s.Banner, img
	default:
		return previous, shared.NewDomainError("INVALID_INPUT", "Image type must be logo or banner")
	}
	s.touch()
	return previous, nil
}

// RemoveImage clears a logo or banner and returns the removed one
func (s *Shop) RemoveImage(kind ImageKind) (Image, error) {
	removed, err := s.SetImage(kind, Image{})
	if err != nil {
		return removed, err
	}
	if removed.IsZero() {
		return removed, shared.NotFound("Image")
	}
	return removed, nil
}

// SetCustomDomain attaches an unverified domain and issues a new token.
// Domain uniqueness is checked by the caller.
func (s *Shop) SetCustomDomain(domain string, plan identity.Plan) (string, error) {
	if !identity.HasFeature(plan, identity.FeatureCustomDomain) {
		return "", shared.PlanLimit("Custom domains are only available on the Premium plan")
	}
	domain = NormalizeDomain(domain)
	if !domainRegex.MatchString(domain) {
		return "", shared.NewDomainError("INVALID_INPUT", "Invalid domain format. Example: myshop.com")
	}
	token, err := newVerificationToken()
	if err != nil {
		return "", err
	}
	s.CustomDomain = domain
	s.DomainVerified = false
	s.DomainVerificationToken = token
	s.touch()
	return token, nil
}

// VerifyDomain marks the domain verified when records contain the token
func (s *Shop) VerifyDomain(txtRecords []string) bool {
	if s.CustomDomain == "" || s.DomainVerificationToken == "" {
		return false
	}
	for _, r := range txtRecords {
		if strings.TrimSpace(r) == s.DomainVerificationToken {
			s.DomainVerified = true
			s.touch()
			return true
		}
	}
	return false
}

// VerificationHost is the name queried for the verification TXT record
func (s *Shop) VerificationHost() string {
	return DomainVerifyPrefix + s.CustomDomain
}

// RemoveCustomDomain detaches the custom domain
func (s *Shop) RemoveCustomDomain() {
	s.CustomDomain = ""
	s.DomainVerified = false
	s.DomainVerificationToken = ""
	s.touch()
}

// IncrementViews counts a storefront visit
func (s *Shop) IncrementViews() {
	s.Views++
}

// Deactivate switches the shop off without deleting anything
func (s *Shop) Deactivate() {
	if !s.IsActive {
		return
	}
	s.IsActive = false
	s.touch()
}

// Reopen switches the shop back on
func (s *Shop) Reopen() {
	if s.IsActive {
		return
	}
	s.IsActive = true
	s.touch()
}

// ApplyPlanBranding shows branding and watermark on free and hides them on paid plans
func (s *Shop) ApplyPlanBranding(plan identity.Plan) {
	free := plan == identity.PlanFree
	s.ShowBranding = free
	s.ShowWatermark = free
	s.VerifiedBadge = plan == identity.PlanPremium && s.VerifiedBadge
	s.touch()
}

// PrimaryPaymentLink returns the hosted payment link of the active provider
func (s *Shop) PrimaryPaymentLink() string {
	if !s.PaymentSettings.Enabled {
		return ""
	}
	switch s.PaymentSettings.Provider {
	case ProviderPaystack:
		return s.PaymentSettings.Paystack.PaymentLink
	case ProviderFlutterwave:
		return s.PaymentSettings.Flutterwave.PaymentLink
	}
	return ""
}

func (s *Shop) touch() {
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// NormalizeDomain lowercases a domain and strips scheme, www and path
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	return d
}

func newVerificationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func validateShopName(name string) error {
	n := len([]rune(name))
	if n < 2 {
		return shared.NewDomainError("INVALID_INPUT", "Shop name must be at least 2 characters")
	}
	if n > 100 {
		return shared.NewDomainError("INVALID_INPUT", "Shop name cannot exceed 100 characters")
	}
	return nil
}

// IsValidSlug reports whether slug uses only lowercase letters, digits and hyphens
func IsValidSlug(slug string) bool {
	return slug != "" && slugRegex.MatchString(slug)
}

func validateSlug(slug string) error {
	if !IsValidSlug(slug) {
		return shared.NewDomainError("INVALID_INPUT", "Slug can only contain lowercase letters, numbers, and hyphens")
	}
	return nil
}

func validateDescription(d string) error {
	if len([]rune(d)) > 500 {
		return shared.NewDomainError("INVALID_INPUT", "Description cannot exceed 500 characters")
	}
	return nil
}

func validateLocation(l string) error {
	if len([]rune(strings.TrimSpace(l))) > 100 {
		return shared.NewDomainError("INVALID_INPUT", "Location cannot exceed 100 characters")
	}
	return nil
}
