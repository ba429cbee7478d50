package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	billingapp "github.com/wazhop/backend/internal/application/billing"
	"github.com/wazhop/backend/internal/domain/billing"
	"github.com/wazhop/backend/internal/interfaces/http/dto"
)

// CouponHandler serves coupon administration and redemption checks
type CouponHandler struct {
	BaseHandler
	couponService *billingapp.CouponService
}

// NewCouponHandler creates a new coupon handler
func NewCouponHandler(couponService *billingapp.CouponService) *CouponHandler {
	return &CouponHandler{couponService: couponService}
}

// Create godoc
// @Summary      Create a coupon
// @Tags         coupons
// @Accept       json
// @Produce      json
// @Param        request body CreateCouponRequest true "Coupon"
// @Success      201 {object} dto.Response{data=CouponResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /coupons [post]
func (h *CouponHandler) Create(c *gin.Context) {
	adminID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req CreateCouponRequest
	if !h.bindJSON(c, &req) {
		return
	}
	coupon, err := h.couponService.Create(c.Request.Context(), req.toInput(adminID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toCouponResponse(coupon))
}

// List returns a page of coupons
func (h *CouponHandler) List(c *gin.Context) {
	var q CouponListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	coupons, err := h.couponService.List(c.Request.Context(), billing.CouponFilter{
		IsActive: q.IsActive,
		Search:   q.Search,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(mapPage(coupons, toCouponResponse)))
}

// Stats returns coupon counters
func (h *CouponHandler) Stats(c *gin.Context) {
	stats, err := h.couponService.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// Toggle flips a coupon between active and inactive
func (h *CouponHandler) Toggle(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	coupon, err := h.couponService.Toggle(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCouponResponse(coupon))
}

// Delete removes a coupon
func (h *CouponHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.couponService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Coupon deleted successfully"})
}

// Validate checks a code against a plan purchase without redeeming it
func (h *CouponHandler) Validate(c *gin.Context) {
	h.check(c, h.couponService.Validate)
}

// Apply checks a code and returns the discounted price
func (h *CouponHandler) Apply(c *gin.Context) {
	h.check(c, h.couponService.Apply)
}

func (h *CouponHandler) check(c *gin.Context, fn func(ctx context.Context, in billingapp.CouponCheckInput) (*billingapp.CouponQuote, error)) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req CouponCheckRequest
	if !h.bindJSON(c, &req) {
		return
	}
	quote, err := fn(c.Request.Context(), req.toInput(userID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}
