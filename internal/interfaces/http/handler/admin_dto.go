package handler

import (
	"time"

	"github.com/google/uuid"
	adminapp "github.com/wazhop/backend/internal/application/admin"
	"github.com/wazhop/backend/internal/domain/settings"
)

// AdminUserQuery narrows the user listing
type AdminUserQuery struct {
	Search    string `form:"search" binding:"max=100"`
	Role      string `form:"role" binding:"omitempty,oneof=buyer seller admin"`
	Plan      string `form:"plan" binding:"omitempty,oneof=free pro premium"`
	IsActive  *bool  `form:"is_active"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// AdminListQuery narrows the shop and order listings
type AdminListQuery struct {
	Search   string `form:"search" binding:"max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=pending confirmed processing shipped delivered cancelled refunded"`
	IsActive *bool  `form:"is_active"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// AdminProductQuery narrows the product listing across shops
type AdminProductQuery struct {
	Search   string `form:"search" binding:"max=100"`
	Category string `form:"category" binding:"max=50"`
	IsActive *bool  `form:"is_active"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ChangeRoleRequest sets a user's role
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=buyer seller admin"`
}

// SetPlanRequest grants a plan by hand
type SetPlanRequest struct {
	Plan         string `json:"plan" binding:"required,oneof=free pro premium"`
	DurationDays int    `json:"duration_days" binding:"omitempty,min=1,max=3650"`
}

// ActivityResponse lists the latest platform records
type ActivityResponse struct {
	RecentOrders   []OrderResponse   `json:"recent_orders"`
	RecentUsers    []UserResponse    `json:"recent_users"`
	RecentProducts []ProductResponse `json:"recent_products"`
}

func toActivityResponse(a *adminapp.Activity) ActivityResponse {
	orders := make([]OrderResponse, len(a.RecentOrders))
	for i, o := range a.RecentOrders {
		orders[i] = toOrderResponse(o)
	}
	return ActivityResponse{
		RecentOrders:   orders,
		RecentUsers:    toUserResponses(a.RecentUsers),
		RecentProducts: toProductResponses(a.RecentProducts),
	}
}

// StatsResponse is the admin dashboard summary
type StatsResponse struct {
	adminapp.PlatformStats
	RecentUsers []UserResponse `json:"recent_users"`
}

func toStatsResponse(s *adminapp.PlatformStats) StatsResponse {
	return StatsResponse{PlatformStats: *s, RecentUsers: toUserResponses(s.RecentUsers)}
}

// PlatformSettingsResponse is the settings document with secrets masked
type PlatformSettingsResponse struct {
	ID              uuid.UUID         `json:"id"`
	SiteName        string            `json:"site_name"`
	SiteDescription string            `json:"site_description"`
	ContactEmail    string            `json:"contact_email"`
	SupportEmail    string            `json:"support_email"`
	Paystack        settings.Gateway  `json:"paystack"`
	Flutterwave     settings.Gateway  `json:"flutterwave"`
	Email           settings.Email    `json:"email"`
	Storage         settings.Storage  `json:"storage"`
	Security        settings.Security `json:"security"`
	Features        settings.Features `json:"features"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func toPlatformSettingsResponse(p settings.Platform) PlatformSettingsResponse {
	return PlatformSettingsResponse{
		ID:              p.ID,
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
		UpdatedAt:       p.UpdatedAt,
	}
}
