package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	cartapp "github.com/wazhop/backend/internal/application/cart"
	"github.com/wazhop/backend/internal/domain/cart"
	"github.com/wazhop/backend/internal/interfaces/http/middleware"
)

// CartSessionHeader identifies the cart of a signed-out shopper
const CartSessionHeader = "X-Cart-Session"

// CartItemRequest adds a product to the cart
type CartItemRequest struct {
	ProductID uuid.UUID         `json:"product_id" binding:"required"`
	Quantity  int               `json:"quantity" binding:"omitempty,min=1,max=99"`
	Variant   map[string]string `json:"variant" binding:"omitempty,max=5"`
	// VariantPrice is the price of the chosen variant; zero means the product price
	VariantPrice *decimal.Decimal `json:"variant_price" binding:"omitempty,gte=0"`
}

// CartQuantityRequest changes a line's quantity; zero removes it
type CartQuantityRequest struct {
	Quantity *int              `json:"quantity" binding:"required,min=0,max=99"`
	Variant  map[string]string `json:"variant" binding:"omitempty,max=5"`
}

func toVariant(options map[string]string, price *decimal.Decimal) *cart.Variant {
	if price != nil && price.IsZero() {
		price = nil
	}
	if len(options) == 0 && price == nil {
		return nil
	}
	return &cart.Variant{Options: options, Price: price}
}

// CartHandler serves shopping carts for users and anonymous sessions
type CartHandler struct {
	BaseHandler
	cartService *cartapp.Service
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cartapp.Service) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// owner resolves the cart key: the signed-in user, else the session header
func (h *CartHandler) owner(c *gin.Context) (string, bool) {
	if id, ok := middleware.GetJWTUserUUID(c); ok {
		return "user:" + id.String(), true
	}
	session := c.GetHeader(CartSessionHeader)
	if session == "" || len(session) > 64 {
		h.BadRequest(c, "Sign in or send an "+CartSessionHeader+" header")
		return "", false
	}
	return "session:" + session, true
}

// Get returns the cart grouped by shop
func (h *CartHandler) Get(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	view, err := h.cartService.Get(c.Request.Context(), owner)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// AddItem godoc
// @Summary      Add to cart
// @Description  Snapshots the product's price and shop into the cart. Adding an existing line increases its quantity.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        X-Cart-Session header string          false "Anonymous cart session"
// @Param        request        body   CartItemRequest true  "Item"
// @Success      200 {object} dto.Response{data=cartapp.View}
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	view, err := h.cartService.AddItem(c.Request.Context(), owner, cartapp.AddItemInput{
		ProductID: req.ProductID,
		Quantity:  qty,
		Variant:   toVariant(req.Variant, req.VariantPrice),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// UpdateItem changes the quantity of a cart line
func (h *CartHandler) UpdateItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "productId")
	if !ok {
		return
	}
	var req CartQuantityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	view, err := h.cartService.UpdateItem(c.Request.Context(), owner, productID, toVariant(req.Variant, nil), *req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// RemoveItem drops a cart line. Variant options may be passed as query
// parameters prefixed with "opt.".
func (h *CartHandler) RemoveItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "productId")
	if !ok {
		return
	}
	options := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if len(key) > 4 && key[:4] == "opt." && len(values) > 0 {
			options[key[4:]] = values[0]
		}
	}
	view, err := h.cartService.RemoveItem(c.Request.Context(), owner, productID, toVariant(options, nil))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Clear empties the cart
func (h *CartHandler) Clear(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	if err := h.cartService.Clear(c.Request.Context(), owner); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Cart cleared"})
}

// Merge moves the session cart into the signed-in user's cart
func (h *CartHandler) Merge(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	session := c.GetHeader(CartSessionHeader)
	if session == "" {
		h.BadRequest(c, CartSessionHeader+" header is required")
		return
	}
	view, err := h.cartService.Merge(c.Request.Context(), "session:"+session, "user:"+userID.String())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// WhatsAppCheckout returns one prefilled WhatsApp order message per shop
func (h *CartHandler) WhatsAppCheckout(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	checkouts, err := h.cartService.WhatsAppCheckout(c.Request.Context(), owner)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, checkouts)
}
