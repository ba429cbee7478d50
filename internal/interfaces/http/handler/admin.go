package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	adminapp "github.com/wazhop/backend/internal/application/admin"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/order"
	"github.com/wazhop/backend/internal/domain/settings"
	"github.com/wazhop/backend/internal/domain/storefront"
	"github.com/wazhop/backend/internal/interfaces/http/dto"
)

// SettingsInvalidator drops cached settings after an admin change
type SettingsInvalidator interface {
	Invalidate()
}

// AdminHandler serves the admin dashboard and platform settings
type AdminHandler struct {
	BaseHandler
	adminService *adminapp.Service
	switches     SettingsInvalidator
}

// NewAdminHandler creates a new admin handler. switches may be nil.
func NewAdminHandler(adminService *adminapp.Service, switches SettingsInvalidator) *AdminHandler {
	return &AdminHandler{adminService: adminService, switches: switches}
}

// Stats godoc
// @Summary      Platform statistics
// @Tags         admin
// @Produce      json
// @Success      200 {object} dto.Response{data=StatsResponse}
// @Security     BearerAuth
// @Router       /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toStatsResponse(stats))
}

// Activity lists the latest orders, users and products
func (h *AdminHandler) Activity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	activity, err := h.adminService.Activity(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toActivityResponse(activity))
}

// ListUsers returns a page of accounts
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var q AdminUserQuery
	if !h.bindQuery(c, &q) {
		return
	}
	filter := identity.UserFilter{
		Keyword:   q.Search,
		IsActive:  q.IsActive,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
		Page:      q.Page,
		PageSize:  q.PageSize,
	}
	if q.Role != "" {
		role := identity.Role(q.Role)
		filter.Role = &role
	}
	if q.Plan != "" {
		plan := identity.Plan(q.Plan)
		filter.Plan = &plan
	}
	users, err := h.adminService.ListUsers(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(mapPage(users, toUserResponse)))
}

// ChangeRole sets a user's role
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	adminID, ok := h.currentUser(c)
	if !ok {
		return
	}
	userID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req ChangeRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.adminService.ChangeRole(c.Request.Context(), adminID, userID, identity.Role(req.Role))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toUserResponse(*user))
}

// ToggleStatus activates or suspends a user
func (h *AdminHandler) ToggleStatus(c *gin.Context) {
	adminID, ok := h.currentUser(c)
	if !ok {
		return
	}
	userID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	user, err := h.adminService.ToggleStatus(c.Request.Context(), adminID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toUserResponse(*user))
}

// SetPlan grants a plan and enforces its limits on the user's shops
func (h *AdminHandler) SetPlan(c *gin.Context) {
	adminID, ok := h.currentUser(c)
	if !ok {
		return
	}
	userID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req SetPlanRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.adminService.SetPlan(c.Request.Context(), adminID, userID, adminapp.SetPlanInput{
		Plan:         identity.Plan(req.Plan),
		DurationDays: req.DurationDays,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toUserResponse(*user))
}

// DeleteUser removes a user with their shops, products, reviews and orders
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	adminID, ok := h.currentUser(c)
	if !ok {
		return
	}
	userID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.adminService.DeleteUser(c.Request.Context(), adminID, userID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "User deleted successfully"})
}

// ListShops returns a page of shops
func (h *AdminHandler) ListShops(c *gin.Context) {
	var q AdminListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	shops, err := h.adminService.ListShops(c.Request.Context(), storefront.ShopFilter{
		Keyword:  q.Search,
		IsActive: q.IsActive,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(mapPage(shops, toShopResponse)))
}

// DeleteShop removes a shop with its products, reviews and orders
func (h *AdminHandler) DeleteShop(c *gin.Context) {
	adminID, ok := h.currentUser(c)
	if !ok {
		return
	}
	shopID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.adminService.DeleteShop(c.Request.Context(), adminID, shopID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Shop deleted successfully"})
}

// ListProducts returns a page of products across all shops
func (h *AdminHandler) ListProducts(c *gin.Context) {
	var q AdminProductQuery
	if !h.bindQuery(c, &q) {
		return
	}
	products, err := h.adminService.ListProducts(c.Request.Context(), catalog.ProductFilter{
		Keyword:  q.Search,
		Category: q.Category,
		IsActive: q.IsActive,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(mapPage(products, toProductResponse)))
}

// DeleteProduct removes any product
func (h *AdminHandler) DeleteProduct(c *gin.Context) {
	adminID, ok := h.currentUser(c)
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.adminService.DeleteProduct(c.Request.Context(), adminID, productID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Product deleted successfully"})
}

// Analytics reports platform growth, orders and payments over a window
func (h *AdminHandler) Analytics(c *gin.Context) {
	var q AnalyticsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	report, err := h.adminService.Analytics(c.Request.Context(), q.Days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Revenue reports plan and boost income and seller sales over a window
func (h *AdminHandler) Revenue(c *gin.Context) {
	var q AnalyticsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	report, err := h.adminService.Revenue(c.Request.Context(), q.Days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// ListOrders returns a page of orders across all shops
func (h *AdminHandler) ListOrders(c *gin.Context) {
	var q AdminListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	orders, err := h.adminService.ListOrders(c.Request.Context(), order.Filter{
		Status:   order.Status(q.Status),
		Keyword:  q.Search,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(mapPage(orders, toOrderResponse)))
}

// Settings returns the platform settings with secrets masked
func (h *AdminHandler) Settings(c *gin.Context) {
	p, err := h.adminService.Settings(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toPlatformSettingsResponse(p))
}

// UpdateSettings merges a partial settings change
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	adminID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req settings.Update
	if !h.bindJSON(c, &req) {
		return
	}
	p, err := h.adminService.UpdateSettings(c.Request.Context(), adminID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if h.switches != nil {
		h.switches.Invalidate()
	}
	h.Success(c, toPlatformSettingsResponse(p))
}

// PublicSettings returns the settings any visitor may read
func (h *AdminHandler) PublicSettings(c *gin.Context) {
	p, err := h.adminService.PublicSettings(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}
