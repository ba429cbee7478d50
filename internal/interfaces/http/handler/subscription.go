package handler

import (
	"github.com/gin-gonic/gin"
	billingapp "github.com/wazhop/backend/internal/application/billing"
	"github.com/wazhop/backend/internal/domain/billing"
	"github.com/wazhop/backend/internal/domain/identity"
)

// SubscriptionHandler serves plan purchases and subscription settings.
// Paid changes go through the payment service and take effect once the
// payment is verified.
type SubscriptionHandler struct {
	BaseHandler
	subscriptionService *billingapp.SubscriptionService
	paymentService      *billingapp.PaymentService
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subscriptionService *billingapp.SubscriptionService, paymentService *billingapp.PaymentService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService, paymentService: paymentService}
}

// Plans lists plan prices
func (h *SubscriptionHandler) Plans(c *gin.Context) {
	h.Success(c, h.subscriptionService.Plans())
}

// Quote prices a plan purchase for the caller
func (h *SubscriptionHandler) Quote(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var q PlanQuoteQuery
	if !h.bindQuery(c, &q) {
		return
	}
	period := identity.BillingPeriod(q.BillingPeriod)
	if period == "" {
		period = identity.BillingMonthly
	}
	quote, err := h.subscriptionService.Quote(c.Request.Context(), userID, identity.Plan(q.Plan), period, q.CouponCode)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// Upgrade godoc
// @Summary      Upgrade plan
// @Description  Starts a payment for a paid plan. A coupon that covers the whole price upgrades at once.
// @Tags         subscription
// @Accept       json
// @Produce      json
// @Param        request body UpgradeRequest true "Plan"
// @Success      201 {object} dto.Response{data=PaymentSessionResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /subscription/upgrade [post]
func (h *SubscriptionHandler) Upgrade(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req UpgradeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	session, err := h.paymentService.Initiate(c.Request.Context(), billingapp.InitiatePaymentInput{
		UserID:        userID,
		Type:          billing.TransactionUpgrade,
		Plan:          identity.Plan(req.Plan),
		BillingPeriod: req.period(),
		CouponCode:    req.CouponCode,
		Client:        clientInfo(c, req.RedirectURL),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toPaymentSessionResponse(session))
}

// Renew starts a payment extending the current plan by one period
func (h *SubscriptionHandler) Renew(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req RenewRequest
	_ = c.ShouldBindJSON(&req)

	session, err := h.paymentService.Initiate(c.Request.Context(), billingapp.InitiatePaymentInput{
		UserID: userID,
		Type:   billing.TransactionRenewal,
		Client: clientInfo(c, req.RedirectURL),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toPaymentSessionResponse(session))
}

// SetAutoRenew toggles automatic renewal
func (h *SubscriptionHandler) SetAutoRenew(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req AutoRenewRequest
	if !h.bindJSON(c, &req) {
		return
	}
	status, err := h.subscriptionService.SetAutoRenew(c.Request.Context(), userID, *req.Enabled)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// Cancel stops renewal; the plan stays until it expires
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	status, err := h.subscriptionService.Cancel(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// Status returns the caller's subscription
func (h *SubscriptionHandler) Status(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	status, err := h.subscriptionService.Status(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}
