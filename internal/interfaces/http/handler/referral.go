package handler

import (
	"github.com/gin-gonic/gin"
	billingapp "github.com/wazhop/backend/internal/application/billing"
)

// ReferralHandler serves referral codes and rewards
type ReferralHandler struct {
	BaseHandler
	referralService *billingapp.ReferralService
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(referralService *billingapp.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralService: referralService}
}

// Validate resolves a referral code to the referrer's name
func (h *ReferralHandler) Validate(c *gin.Context) {
	info, err := h.referralService.Validate(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// ApplyReferralRequest carries a code entered after sign-up
type ApplyReferralRequest struct {
	Code string `json:"referral_code" binding:"required,max=32"`
}

// Apply links the caller to the owner of a referral code
func (h *ReferralHandler) Apply(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req ApplyReferralRequest
	if !h.bindJSON(c, &req) {
		return
	}
	info, err := h.referralService.Apply(c.Request.Context(), userID, req.Code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// Stats returns the caller's referral code, link and counters
func (h *ReferralHandler) Stats(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	overview, err := h.referralService.Overview(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, overview)
}

// Claim converts earned reward days into plan time
func (h *ReferralHandler) Claim(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	result, err := h.referralService.Claim(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
