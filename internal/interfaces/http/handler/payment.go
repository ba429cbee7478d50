package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/wazhop/backend/internal/application/billing"
	"github.com/wazhop/backend/internal/domain/billing"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/infrastructure/logger"
	"github.com/wazhop/backend/internal/infrastructure/payment"
	"github.com/wazhop/backend/internal/interfaces/http/dto"
	"github.com/wazhop/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// maxWebhookBytes caps gateway notification bodies
const maxWebhookBytes = 1 << 20

// InitiatePaymentRequest starts any kind of payment
type InitiatePaymentRequest struct {
	Type          string     `json:"type" binding:"required,oneof=subscription boost renewal upgrade"`
	Plan          string     `json:"plan" binding:"omitempty,oneof=pro premium"`
	BillingPeriod string     `json:"billing_period" binding:"omitempty,oneof=monthly yearly"`
	CouponCode    string     `json:"coupon_code" binding:"max=50"`
	ProductID     *uuid.UUID `json:"product_id"`
	BoostHours    int        `json:"boost_hours" binding:"omitempty,min=1,max=720"`
	State         string     `json:"state" binding:"max=50"`
	Area          string     `json:"area" binding:"max=100"`
	RedirectURL   string     `json:"redirect_url" binding:"omitempty,url"`
}

// PaymentHandler serves payment initiation, verification and gateway
// webhooks
type PaymentHandler struct {
	BaseHandler
	paymentService *billingapp.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *billingapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Initiate godoc
// @Summary      Start a payment
// @Description  Prices the purchase on the server and opens a checkout with the configured gateway.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body InitiatePaymentRequest true "Payment"
// @Success      201 {object} dto.Response{data=PaymentSessionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/initiate [post]
func (h *PaymentHandler) Initiate(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req InitiatePaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	period := identity.BillingPeriod(req.BillingPeriod)
	if period == "" {
		period = identity.BillingMonthly
	}
	session, err := h.paymentService.Initiate(c.Request.Context(), billingapp.InitiatePaymentInput{
		UserID:        userID,
		Type:          billing.TransactionType(req.Type),
		Plan:          identity.Plan(req.Plan),
		BillingPeriod: period,
		CouponCode:    req.CouponCode,
		ProductID:     req.ProductID,
		BoostHours:    req.BoostHours,
		BoostState:    req.State,
		BoostArea:     req.Area,
		Client:        clientInfo(c, req.RedirectURL),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toPaymentSessionResponse(session))
}

// History returns a page of the caller's payments
func (h *PaymentHandler) History(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var q PaymentHistoryQuery
	if !h.bindQuery(c, &q) {
		return
	}
	txs, err := h.paymentService.History(c.Request.Context(), billingapp.PaymentHistoryQuery{
		UserID:   userID,
		Status:   billing.TransactionStatus(q.Status),
		Type:     billing.TransactionType(q.Type),
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(mapPage(txs, toTransactionResponse)))
}

// Analytics summarises the caller's payments, or every payment for admins
func (h *PaymentHandler) Analytics(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var q AnalyticsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	isAdmin := middleware.GetJWTRole(c) == string(identity.RoleAdmin)
	report, err := h.paymentService.Analytics(c.Request.Context(), userID, isAdmin, q.Days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Get returns one payment by reference
func (h *PaymentHandler) Get(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	isAdmin := middleware.GetJWTRole(c) == string(identity.RoleAdmin)
	tx, err := h.paymentService.Get(c.Request.Context(), userID, isAdmin, c.Param("ref"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTransactionResponse(tx))
}

// Verify asks the gateway for the outcome and applies a successful payment
func (h *PaymentHandler) Verify(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	tx, err := h.paymentService.Verify(c.Request.Context(), userID, c.Param("ref"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTransactionResponse(tx))
}

// Webhook godoc
// @Summary      Payment gateway webhook
// @Description  Signed notification from Paystack (x-paystack-signature) or Flutterwave (verif-hash).
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        provider path string true "paystack or flutterwave"
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payments/webhook/{provider} [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	provider := billing.Provider(c.Param("provider"))
	if provider != h.paymentService.Provider() {
		h.NotFound(c, "Unknown payment provider")
		return
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}

	var signature string
	switch provider {
	case billing.ProviderPaystack:
		signature = c.GetHeader("x-paystack-signature")
	case billing.ProviderFlutterwave:
		signature = c.GetHeader("verif-hash")
	}

	if err := h.paymentService.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			logger.L(c.Request.Context()).Warn("Rejected payment webhook",
				zap.String("provider", string(provider)),
				zap.String("ip", c.ClientIP()))
			h.Unauthorized(c, "Invalid signature")
			return
		}
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"received": true})
}

// MarkAbandoned abandons stale initiated payments
func (h *PaymentHandler) MarkAbandoned(c *gin.Context) {
	var req AbandonRequest
	_ = c.ShouldBindJSON(&req)
	n, err := h.paymentService.MarkAbandoned(c.Request.Context(), time.Duration(req.AfterMinutes)*time.Minute)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"marked": n})
}
