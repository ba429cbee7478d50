package handler

import (
	"time"

	"github.com/google/uuid"
	storefrontapp "github.com/wazhop/backend/internal/application/storefront"
	"github.com/wazhop/backend/internal/domain/storefront"
)

// =====================
// Shop Request DTOs
// =====================

// CreateShopRequest opens a shop
type CreateShopRequest struct {
	ShopName    string `json:"shop_name" binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"max=500"`
	Category    string `json:"category" binding:"omitempty,oneof=fashion electronics food beauty home services other"`
	Location    string `json:"location" binding:"max=100"`
}

// UpdateShopRequest is a partial shop change
type UpdateShopRequest struct {
	ShopName        *string                     `json:"shop_name" binding:"omitempty,min=2,max=100"`
	Description     *string                     `json:"description" binding:"omitempty,max=500"`
	Category        *string                     `json:"category" binding:"omitempty,oneof=fashion electronics food beauty home services other"`
	Location        *string                     `json:"location" binding:"omitempty,max=100"`
	Slug            *string                     `json:"slug" binding:"omitempty,min=3,max=50,slug"`
	WhatsAppNumber  *string                     `json:"whatsapp_number" binding:"omitempty,whatsapp"`
	SocialLinks     *storefront.SocialLinks     `json:"social_links"`
	ThemeMode       *string                     `json:"theme_mode" binding:"omitempty,oneof=light dark auto"`
	TemplateID      *string                     `json:"template_id" binding:"omitempty,max=50"`
	PaymentSettings *storefront.PaymentSettings `json:"payment_settings"`
}

func (r UpdateShopRequest) toInput() storefrontapp.UpdateShopInput {
	in := storefrontapp.UpdateShopInput{
		ShopUpdate: storefront.ShopUpdate{
			ShopName:       r.ShopName,
			Description:    r.Description,
			Location:       r.Location,
			Slug:           r.Slug,
			WhatsAppNumber: r.WhatsAppNumber,
			SocialLinks:    r.SocialLinks,
			TemplateID:     r.TemplateID,
		},
		PaymentSettings: r.PaymentSettings,
	}
	if r.Category != nil {
		cat := storefront.Category(*r.Category)
		in.Category = &cat
	}
	if r.ThemeMode != nil {
		mode := storefront.ThemeMode(*r.ThemeMode)
		in.ThemeMode = &mode
	}
	return in
}

// ThemeRequest picks a preset and/or overrides individual theme fields
type ThemeRequest struct {
	Preset          string  `json:"preset" binding:"omitempty,max=50"`
	Name            *string `json:"name" binding:"omitempty,max=50"`
	PrimaryColor    *string `json:"primary_color" binding:"omitempty,hexcolor"`
	AccentColor     *string `json:"accent_color" binding:"omitempty,hexcolor"`
	BackgroundColor *string `json:"background_color" binding:"omitempty,hexcolor"`
	TextColor       *string `json:"text_color" binding:"omitempty,hexcolor"`
	Layout          *string `json:"layout" binding:"omitempty,max=30"`
	Font            *string `json:"font" binding:"omitempty,max=50"`
	HasGradient     *bool   `json:"has_gradient"`
	Gradient        *string `json:"gradient" binding:"omitempty,max=200"`
	ButtonStyle     *string `json:"button_style" binding:"omitempty,max=30"`
	CardStyle       *string `json:"card_style" binding:"omitempty,max=30"`
	Animations      *bool   `json:"animations"`
	CustomCSS       *string `json:"custom_css" binding:"omitempty,max=10000"`
}

func (r ThemeRequest) toChange() storefront.ThemeChange {
	return storefront.ThemeChange{
		Preset:          r.Preset,
		Name:            r.Name,
		PrimaryColor:    r.PrimaryColor,
		AccentColor:     r.AccentColor,
		BackgroundColor: r.BackgroundColor,
		TextColor:       r.TextColor,
		Layout:          r.Layout,
		Font:            r.Font,
		HasGradient:     r.HasGradient,
		Gradient:        r.Gradient,
		ButtonStyle:     r.ButtonStyle,
		CardStyle:       r.CardStyle,
		Animations:      r.Animations,
		CustomCSS:       r.CustomCSS,
	}
}

// DomainRequest connects a custom domain
type DomainRequest struct {
	Domain string `json:"domain" binding:"required,fqdn"`
}

// UploadRequest asks for a presigned image upload
type UploadRequest struct {
	ContentType string `json:"content_type" binding:"required,oneof=image/jpeg image/png image/webp image/gif"`
	Size        int64  `json:"size" binding:"required,gt=0"`
}

// =====================
// Shop Response DTOs
// =====================

// ShopResponse is a shop as shown to its owner. Public views leave out the
// domain verification token.
type ShopResponse struct {
	ID                      uuid.UUID                  `json:"id"`
	OwnerID                 uuid.UUID                  `json:"owner_id"`
	ShopName                string                     `json:"shop_name"`
	Slug                    string                     `json:"slug"`
	Description             string                     `json:"description"`
	Category                storefront.Category        `json:"category"`
	Location                string                     `json:"location,omitempty"`
	Theme                   storefront.Theme           `json:"theme"`
	TemplateID              string                     `json:"template_id,omitempty"`
	Logo                    string                     `json:"logo,omitempty"`
	Banner                  string                     `json:"banner,omitempty"`
	SocialLinks             storefront.SocialLinks     `json:"social_links"`
	WhatsAppNumber          string                     `json:"whatsapp_number,omitempty"`
	ShowWatermark           bool                       `json:"show_watermark"`
	ShowBranding            bool                       `json:"show_branding"`
	VerifiedBadge           bool                       `json:"verified_badge"`
	Views                   int64                      `json:"views"`
	IsActive                bool                       `json:"is_active"`
	CustomDomain            string                     `json:"custom_domain,omitempty"`
	DomainVerified          bool                       `json:"domain_verified"`
	DomainVerificationToken string                     `json:"domain_verification_token,omitempty"`
	PaymentSettings         storefront.PaymentSettings `json:"payment_settings"`
	CreatedAt               time.Time                  `json:"created_at"`
	UpdatedAt               time.Time                  `json:"updated_at"`
}

// StorefrontResponse is a public shop with its active products
type StorefrontResponse struct {
	Shop     ShopResponse      `json:"shop"`
	Products []ProductResponse `json:"products"`
}

func toShopResponse(s *storefront.Shop) ShopResponse {
	return ShopResponse{
		ID:                      s.ID,
		OwnerID:                 s.OwnerID,
		ShopName:                s.ShopName,
		Slug:                    s.Slug,
		Description:             s.Description,
		Category:                s.Category,
		Location:                s.Location,
		Theme:                   s.Theme,
		TemplateID:              s.TemplateID,
		Logo:                    s.Logo.URL,
		Banner:                  s.Banner.URL,
		SocialLinks:             s.SocialLinks,
		WhatsAppNumber:          s.WhatsAppNumber,
		ShowWatermark:           s.ShowWatermark,
		ShowBranding:            s.ShowBranding,
		VerifiedBadge:           s.VerifiedBadge,
		Views:                   s.Views,
		IsActive:                s.IsActive,
		CustomDomain:            s.CustomDomain,
		DomainVerified:          s.DomainVerified,
		DomainVerificationToken: s.DomainVerificationToken,
		PaymentSettings:         s.PaymentSettings,
		CreatedAt:               s.CreatedAt,
		UpdatedAt:               s.UpdatedAt,
	}
}

func toShopResponses(shops []*storefront.Shop) []ShopResponse {
	out := make([]ShopResponse, len(shops))
	for i, s := range shops {
		out[i] = toShopResponse(s)
	}
	return out
}

func toStorefrontResponse(v *storefrontapp.StorefrontView) StorefrontResponse {
	shop := toShopResponse(v.Shop)
	shop.DomainVerificationToken = ""
	return StorefrontResponse{Shop: shop, Products: toProductResponses(v.Products)}
}
