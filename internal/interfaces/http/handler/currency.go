package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	currencyapp "github.com/wazhop/backend/internal/application/currency"
	"github.com/wazhop/backend/internal/domain/currency"
)

// FormatQuery asks for an amount rendered in a currency
type FormatQuery struct {
	Amount   string `form:"amount" binding:"required"`
	Currency string `form:"currency" binding:"omitempty,len=3"`
}

// CurrencyHandler serves exchange rates and currency helpers
type CurrencyHandler struct {
	BaseHandler
	currencyService *currencyapp.Service
}

// NewCurrencyHandler creates a new currency handler
func NewCurrencyHandler(currencyService *currencyapp.Service) *CurrencyHandler {
	return &CurrencyHandler{currencyService: currencyService}
}

// Detect godoc
// @Summary      Detect currency
// @Description  Maps the caller's IP address to a checkout currency, defaulting to NGN.
// @Tags         currency
// @Produce      json
// @Success      200 {object} dto.Response{data=currencyapp.Detection}
// @Router       /currency/detect [get]
func (h *CurrencyHandler) Detect(c *gin.Context) {
	h.Success(c, h.currencyService.Detect(c.Request.Context(), c.ClientIP()))
}

// Rates returns the USD exchange rate table
func (h *CurrencyHandler) Rates(c *gin.Context) {
	h.Success(c, h.currencyService.Rates(c.Request.Context()))
}

// Supported lists supported currencies and countries
func (h *CurrencyHandler) Supported(c *gin.Context) {
	h.Success(c, gin.H{
		"currencies": currency.SupportedCurrencies(),
		"countries":  currency.Countries(),
	})
}

// Format renders an amount in a currency with a USD approximation
func (h *CurrencyHandler) Format(c *gin.Context) {
	var q FormatQuery
	if !h.bindQuery(c, &q) {
		return
	}
	amount, err := decimal.NewFromString(q.Amount)
	if err != nil {
		h.BadRequest(c, "Amount must be a number")
		return
	}
	code := q.Currency
	if code == "" {
		code = currency.DefaultCurrency
	}
	h.Success(c, h.currencyService.Format(c.Request.Context(), amount, code))
}
