package handler

import (
	"time"

	"github.com/google/uuid"
	identityapp "github.com/wazhop/backend/internal/application/identity"
	"github.com/wazhop/backend/internal/domain/identity"
)

// =====================
// Auth Request DTOs
// =====================

// RegisterRequest represents the request body for account registration
type RegisterRequest struct {
	Name         string `json:"name" binding:"required,min=2,max=50"`
	Email        string `json:"email" binding:"required,email,max=254"`
	Password     string `json:"password" binding:"required,min=6,max=72"`
	WhatsApp     string `json:"whatsapp" binding:"omitempty,whatsapp"`
	ReferralCode string `json:"referral_code" binding:"omitempty,max=32"`
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=128"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest optionally names the refresh token to revoke with the session
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UpdateProfileRequest is a partial profile change
type UpdateProfileRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=2,max=50"`
	WhatsApp *string `json:"whatsapp" binding:"omitempty,whatsapp"`
}

// ChangePasswordRequest represents the request body for password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6,max=72"`
}

// =====================
// Auth Response DTOs
// =====================

// TokenResponse represents the token data in auth responses
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// UserResponse is an account as shown to its owner or an admin
type UserResponse struct {
	ID                 uuid.UUID                   `json:"id"`
	Name               string                      `json:"name"`
	Email              string                      `json:"email"`
	WhatsApp           string                      `json:"whatsapp,omitempty"`
	Role               identity.Role               `json:"role"`
	Plan               identity.Plan               `json:"plan"`
	PlanExpiry         *time.Time                  `json:"plan_expiry"`
	DaysRemaining      *int                        `json:"days_remaining"`
	AutoRenew          bool                        `json:"auto_renew"`
	BillingPeriod      identity.BillingPeriod      `json:"billing_period,omitempty"`
	SubscriptionStatus identity.SubscriptionStatus `json:"subscription_status"`
	StorageUsed        int64                       `json:"storage_used"`
	IsActive           bool                        `json:"is_active"`
	ReferralCode       string                      `json:"referral_code"`
	ReferralStats      identity.ReferralStats      `json:"referral_stats"`
	LastLoginAt        *time.Time                  `json:"last_login_at,omitempty"`
	CreatedAt          time.Time                   `json:"created_at"`
	Limits             identity.PlanLimits         `json:"limits"`
}

// AuthResponse is returned by register, login, refresh and role upgrades
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  *UserResponse `json:"user,omitempty"`
}

func toUserResponse(u identityapp.UserInfo) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		WhatsApp:           u.WhatsApp,
		Role:               u.Role,
		Plan:               u.Plan,
		PlanExpiry:         u.PlanExpiry,
		DaysRemaining:      u.DaysRemaining,
		AutoRenew:          u.AutoRenew,
		BillingPeriod:      u.BillingPeriod,
		SubscriptionStatus: u.SubscriptionStatus,
		StorageUsed:        u.StorageUsed,
		IsActive:           u.IsActive,
		ReferralCode:       u.ReferralCode,
		ReferralStats:      u.ReferralStats,
		LastLoginAt:        u.LastLoginAt,
		CreatedAt:          u.CreatedAt,
		Limits:             u.Limits,
	}
}

func toUserResponses(users []identityapp.UserInfo) []UserResponse {
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	return out
}

func toAuthResponse(r *identityapp.AuthResult, withUser bool) AuthResponse {
	resp := AuthResponse{Token: TokenResponse{
		AccessToken:           r.AccessToken,
		RefreshToken:          r.RefreshToken,
		AccessTokenExpiresAt:  r.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: r.RefreshTokenExpiresAt,
		TokenType:             r.TokenType,
	}}
	if withUser {
		u := toUserResponse(r.User)
		resp.User = &u
	}
	return resp
}
