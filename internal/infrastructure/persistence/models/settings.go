package models

import "github.com/wazhop/backend/internal/domain/settings"

// PlatformSettingsModel stores the single platform settings row.
// Sections are kept as JSON so new knobs need no schema change.
type PlatformSettingsModel struct {
	BaseModel
	SiteName        string            `gorm:"type:varchar(100);not null"`
	SiteDescription string            `gorm:"type:varchar(500)"`
	ContactEmail    string            `gorm:"type:varchar(200)"`
	SupportEmail    string            `gorm:"type:varchar(200)"`
	Paystack        settings.Gateway  `gorm:"type:jsonb;serializer:json"`
	Flutterwave     settings.Gateway  `gorm:"type:jsonb;serializer:json"`
	Email           settings.Email    `gorm:"type:jsonb;serializer:json"`
	Storage         settings.Storage  `gorm:"type:jsonb;serializer:json"`
	Security        settings.Security `gorm:"type:jsonb;serializer:json"`
	Features        settings.Features `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (PlatformSettingsModel) TableName() string {
	return "platform_settings"
}

// ToDomain converts the persistence model to the domain settings.
func (m *PlatformSettingsModel) ToDomain() *settings.Platform {
	return &settings.Platform{
		BaseEntity:      m.BaseModel.ToDomain(),
		SiteName:        m.SiteName,
		SiteDescription: m.SiteDescription,
		ContactEmail:    m.ContactEmail,
		SupportEmail:    m.SupportEmail,
		Paystack:        m.Paystack,
		Flutterwave:     m.Flutterwave,
		Email:           m.Email,
		Storage:         m.Storage,
		Security:        m.Security,
		Features:        m.Features,
	}
}

// PlatformSettingsModelFromDomain creates a persistence model from the domain settings.
func PlatformSettingsModelFromDomain(p *settings.Platform) *PlatformSettingsModel {
	m := &PlatformSettingsModel{
		SiteName:        p.SiteName,
		SiteDescription: p.SiteDescription,
		ContactEmail:    p.ContactEmail,
		SupportEmail:    p.SupportEmail,
		Paystack:        p.Paystack,
		Flutterwave:     p.Flutterwave,
		Email:           p.Email,
		Storage:         p.Storage,
		Security:        p.Security,
		Features:        p.Features,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}
