package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	AggregateModel
	Name               string                 `gorm:"type:varchar(100);not null"`
	Email              string                 `gorm:"type:varchar(200);not null;uniqueIndex"`
	PasswordHash       string                 `gorm:"type:varchar(255);not null"`
	WhatsApp           string                 `gorm:"column:whatsapp;type:varchar(20);index"`
	Role               identity.Role          `gorm:"type:varchar(20);not null;default:'buyer'"`
	Plan               identity.Plan          `gorm:"type:varchar(20);not null;default:'free'"`
	PlanExpiry         *time.Time             `gorm:"index"`
	AutoRenew          bool                   `gorm:"not null;default:false"`
	BillingPeriod      identity.BillingPeriod `gorm:"type:varchar(20)"`
	LastBillingDate    *time.Time
	SubscriptionStatus identity.SubscriptionStatus `gorm:"type:varchar(20);not null;default:'active'"`
	StorageUsed        int64                       `gorm:"not null;default:0"`
	IsActive           bool                        `gorm:"not null"`
	ReferralCode       string                      `gorm:"type:varchar(20);uniqueIndex"`
	ReferredBy         *uuid.UUID                  `gorm:"type:uuid;index"`
	TotalReferrals     int                         `gorm:"not null;default:0"`
	FreeReferred       int                         `gorm:"not null;default:0"`
	ProReferred        int                         `gorm:"not null;default:0"`
	PremiumReferred    int                         `gorm:"not null;default:0"`
	RewardsEarned      int                         `gorm:"not null;default:0"`
	RewardsUsed        int                         `gorm:"not null;default:0"`
	LastLoginAt        *time.Time
	LastLoginIP        string `gorm:"type:varchar(45)"`
	LoginAttempts      int    `gorm:"not null;default:0"`
	LockUntil          *time.Time
	IsTemporary        bool `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot:  m.ToAggregateRoot(),
		Name:               m.Name,
		Email:              m.Email,
		PasswordHash:       m.PasswordHash,
		WhatsApp:           m.WhatsApp,
		Role:               m.Role,
		Plan:               m.Plan,
		PlanExpiry:         m.PlanExpiry,
		AutoRenew:          m.AutoRenew,
		BillingPeriod:      m.BillingPeriod,
		LastBillingDate:    m.LastBillingDate,
		SubscriptionStatus: m.SubscriptionStatus,
		StorageUsed:        m.StorageUsed,
		IsActive:           m.IsActive,
		ReferralCode:       m.ReferralCode,
		ReferredBy:         m.ReferredBy,
		ReferralStats: identity.ReferralStats{
			TotalReferrals:  m.TotalReferrals,
			FreeReferred:    m.FreeReferred,
			ProReferred:     m.ProReferred,
			PremiumReferred: m.PremiumReferred,
			RewardsEarned:   m.RewardsEarned,
			RewardsUsed:     m.RewardsUsed,
		},
		LastLoginAt:   m.LastLoginAt,
		LastLoginIP:   m.LastLoginIP,
		LoginAttempts: m.LoginAttempts,
		LockUntil:     m.LockUntil,
		IsTemporary:   m.IsTemporary,
	}
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Name = u.Name
	m.Email = u.Email
	m.PasswordHash = u.PasswordHash
	m.WhatsApp = u.WhatsApp
	m.Role = u.Role
	m.Plan = u.Plan
	m.PlanExpiry = u.PlanExpiry
	m.AutoRenew = u.AutoRenew
	m.BillingPeriod = u.BillingPeriod
	m.LastBillingDate = u.LastBillingDate
	m.SubscriptionStatus = u.SubscriptionStatus
	m.StorageUsed = u.StorageUsed
	m.IsActive = u.IsActive
	m.ReferralCode = u.ReferralCode
	m.ReferredBy = u.ReferredBy
	m.TotalReferrals = u.ReferralStats.TotalReferrals
	m.FreeReferred = u.ReferralStats.FreeReferred
	m.ProReferred = u.ReferralStats.ProReferred
	m.PremiumReferred = u.ReferralStats.PremiumReferred
	m.RewardsEarned = u.ReferralStats.RewardsEarned
	m.RewardsUsed = u.ReferralStats.RewardsUsed
	m.LastLoginAt = u.LastLoginAt
	m.LastLoginIP = u.LastLoginIP
	m.LoginAttempts = u.LoginAttempts
	m.LockUntil = u.LockUntil
	m.IsTemporary = u.IsTemporary
}

// UserModelFromDomain creates a new persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
