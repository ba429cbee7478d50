package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/domain/storefront"
)

// ShopModel is the persistence model for the Shop aggregate.
type ShopModel struct {
	AggregateModel
	OwnerID                 uuid.UUID                  `gorm:"type:uuid;not null;index"`
	ShopName                string                     `gorm:"type:varchar(100);not null"`
	Slug                    string                     `gorm:"type:varchar(120);not null;uniqueIndex"`
	Description             string                     `gorm:"type:text"`
	Category                storefront.Category        `gorm:"type:varchar(30);not null;default:'other'"`
	Location                string                     `gorm:"type:varchar(200)"`
	Theme                   storefront.Theme           `gorm:"type:jsonb;serializer:json"`
	TemplateID              string                     `gorm:"type:varchar(50)"`
	LogoURL                 string                     `gorm:"type:varchar(500)"`
	LogoKey                 string                     `gorm:"type:varchar(300)"`
	BannerURL               string                     `gorm:"type:varchar(500)"`
	BannerKey               string                     `gorm:"type:varchar(300)"`
	SocialLinks             storefront.SocialLinks     `gorm:"type:jsonb;serializer:json"`
	WhatsAppNumber          string                     `gorm:"column:whatsapp_number;type:varchar(20)"`
	ShowWatermark           bool                       `gorm:"not null"`
	ShowBranding            bool                       `gorm:"not null"`
	VerifiedBadge           bool                       `gorm:"not null;default:false"`
	Views                   int64                      `gorm:"not null;default:0"`
	IsActive                bool                       `gorm:"not null;index"`
	CustomDomain            *string                    `gorm:"type:varchar(253);uniqueIndex"`
	DomainVerified          bool                       `gorm:"not null;default:false"`
	DomainVerificationToken string                     `gorm:"type:varchar(100)"`
	PaymentSettings         storefront.PaymentSettings `gorm:"type:jsonb;serializer:json"`
	IsTemporary             bool                       `gorm:"not null;default:false;index"`
	CreatedByAdmin          *uuid.UUID                 `gorm:"type:uuid"`
	ActivationToken         string                     `gorm:"type:varchar(64)"`
	ActivationExpires       *time.Time
	ActivatedAt             *time.Time
}

// TableName returns the table name for GORM
func (ShopModel) TableName() string {
	return "shops"
}

// ToDomain converts the persistence model to a domain Shop.
func (m *ShopModel) ToDomain() *storefront.Shop {
	s := &storefront.Shop{
		BaseAggregateRoot:       m.ToAggregateRoot(),
		OwnerID:                 m.OwnerID,
		ShopName:                m.ShopName,
		Slug:                    m.Slug,
		Description:             m.Description,
		Category:                m.Category,
		Location:                m.Location,
		Theme:                   m.Theme,
		TemplateID:              m.TemplateID,
		Logo:                    storefront.Image{URL: m.LogoURL, Key: m.LogoKey},
		Banner:                  storefront.Image{URL: m.BannerURL, Key: m.BannerKey},
		SocialLinks:             m.SocialLinks,
		WhatsAppNumber:          m.WhatsAppNumber,
		ShowWatermark:           m.ShowWatermark,
		ShowBranding:            m.ShowBranding,
		VerifiedBadge:           m.VerifiedBadge,
		Views:                   m.Views,
		IsActive:                m.IsActive,
		DomainVerified:          m.DomainVerified,
		DomainVerificationToken: m.DomainVerificationToken,
		PaymentSettings:         m.PaymentSettings,
		Activation: storefront.Activation{
			IsTemporary:       m.IsTemporary,
			CreatedByAdmin:    m.CreatedByAdmin,
			ActivationToken:   m.ActivationToken,
			ActivationExpires: m.ActivationExpires,
			ActivatedAt:       m.ActivatedAt,
		},
	}
	if m.CustomDomain != nil {
		s.CustomDomain = *m.CustomDomain
	}
	return s
}

// FromDomain populates the persistence model from a domain Shop.
// An empty custom domain is stored as NULL so the unique index allows many.
func (m *ShopModel) FromDomain(s *storefront.Shop) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.OwnerID = s.OwnerID
	m.ShopName = s.ShopName
	m.Slug = s.Slug
	m.Description = s.Description
	m.Category = s.Category
	m.Location = s.Location
	m.Theme = s.Theme
	m.TemplateID = s.TemplateID
	m.LogoURL, m.LogoKey = s.Logo.URL, s.Logo.Key
	m.BannerURL, m.BannerKey = s.Banner.URL, s.Banner.Key
	m.SocialLinks = s.SocialLinks
	m.WhatsAppNumber = s.WhatsAppNumber
	m.ShowWatermark = s.ShowWatermark
	m.ShowBranding = s.ShowBranding
	m.VerifiedBadge = s.VerifiedBadge
	m.Views = s.Views
	m.IsActive = s.IsActive
	m.CustomDomain = nil
	if s.CustomDomain != "" {
		d := s.CustomDomain
		m.CustomDomain = &d
	}
	m.DomainVerified = s.DomainVerified
	m.DomainVerificationToken = s.DomainVerificationToken
	m.PaymentSettings = s.PaymentSettings
	m.IsTemporary = s.IsTemporary
	m.CreatedByAdmin = s.CreatedByAdmin
	m.ActivationToken = s.ActivationToken
	m.ActivationExpires = s.ActivationExpires
	m.ActivatedAt = s.ActivatedAt
}

// ShopModelFromDomain creates a new persistence model from a domain Shop.
func ShopModelFromDomain(s *storefront.Shop) *ShopModel {
	m := &ShopModel{}
	m.FromDomain(s)
	return m
}
