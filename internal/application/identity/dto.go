package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/domain/identity"
)

// RegisterInput contains the input for account registration
type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	WhatsApp     string
	ReferralCode string
	IP           string
}

// ClaimAccountInput carries the credentials a seller sets when activating
// an admin-built store
type ClaimAccountInput struct {
	Email    string
	Password string
	WhatsApp string
	IP       string
}

// LoginInput contains the input for user login
type LoginInput struct {
	Email    string
	Password string
	IP       string // Client IP for login tracking
}

// AuthResult is returned by register, login and role changes
type AuthResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
	User                  UserInfo
}

// UserInfo is the user as returned to its owner
type UserInfo struct {
	ID                 uuid.UUID
	Name               string
	Email              string
	WhatsApp           string
	Role               identity.Role
	Plan               identity.Plan
	PlanExpiry         *time.Time
	DaysRemaining      *int
	AutoRenew          bool
	BillingPeriod      identity.BillingPeriod
	SubscriptionStatus identity.SubscriptionStatus
	StorageUsed        int64
	IsActive           bool
	ReferralCode       string
	ReferralStats      identity.ReferralStats
	LastLoginAt        *time.Time
	CreatedAt          time.Time
	Limits             identity.PlanLimits
}

// ToUserInfo converts a domain user
func ToUserInfo(u *identity.User, now time.Time) UserInfo {
	return UserInfo{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		WhatsApp:           u.WhatsApp,
		Role:               u.Role,
		Plan:               u.Plan,
		PlanExpiry:         u.PlanExpiry,
		DaysRemaining:      u.DaysRemaining(now),
		AutoRenew:          u.AutoRenew,
		BillingPeriod:      u.BillingPeriod,
		SubscriptionStatus: u.SubscriptionStatus,
		StorageUsed:        u.StorageUsed,
		IsActive:           u.IsActive,
		ReferralCode:       u.ReferralCode,
		ReferralStats:      u.ReferralStats,
		LastLoginAt:        u.LastLoginAt,
		CreatedAt:          u.CreatedAt,
		Limits:             u.Limits(),
	}
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// LogoutInput contains the input for user logout
type LogoutInput struct {
	UserID uuid.UUID
	// TokenJTI and TokenTTL identify the access token to revoke
	TokenJTI     string
	TokenTTL     time.Duration
	RefreshToken string
}

// UpdateProfileInput is a partial profile change
type UpdateProfileInput struct {
	Name     *string
	WhatsApp *string
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	UserID          uuid.UUID
	CurrentPassword string
	NewPassword     string
}
