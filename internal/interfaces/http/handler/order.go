package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	orderapp "github.com/wazhop/backend/internal/application/order"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/order"
	"github.com/wazhop/backend/internal/interfaces/http/dto"
	"github.com/wazhop/backend/internal/interfaces/http/middleware"
)

// OrderHandler serves checkout and order management
type OrderHandler struct {
	BaseHandler
	orderService *orderapp.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *orderapp.Service) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) actor(c *gin.Context) (orderapp.Actor, bool) {
	userID, ok := h.currentUser(c)
	if !ok {
		return orderapp.Actor{}, false
	}
	return orderapp.Actor{UserID: userID, IsAdmin: middleware.GetJWTRole(c) == string(identity.RoleAdmin)}, true
}

// Create godoc
// @Summary      Place an order
// @Description  Guest or signed-in checkout with one shop. Prices are taken from the products and stock is reserved.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body CreateOrderRequest true "Order"
// @Success      201 {object} dto.Response{data=OrderResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	in := orderapp.CreateOrderInput{
		ShopID: req.ShopID,
		Customer: order.Customer{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		ShippingAddress: order.Address{
			Street:     req.ShippingAddress.Street,
			City:       req.ShippingAddress.City,
			State:      req.ShippingAddress.State,
			Country:    req.ShippingAddress.Country,
			PostalCode: req.ShippingAddress.PostalCode,
		},
		PaymentMethod: order.PaymentMethod(req.PaymentMethod),
		CustomerNotes: req.CustomerNotes,
		Source:        order.Source(req.Source),
	}
	if userID, ok := middleware.GetJWTUserUUID(c); ok {
		in.Customer.UserID = &userID
	}
	if req.ShippingFee != nil {
		in.ShippingFee = *req.ShippingFee
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, orderapp.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	o, err := h.orderService.Create(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toOrderResponse(o))
}

// ListMine returns the caller's orders, newest first
func (h *OrderHandler) ListMine(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	page, size := pageParams(c)
	orders, err := h.orderService.ListMine(c.Request.Context(), userID, page, size)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(mapPage(orders, toOrderResponse)))
}

// Get returns an order to its customer, the shop owner or an admin
func (h *OrderHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.orderService.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(o))
}

// ListForShop returns a page of the shop's orders
func (h *OrderHandler) ListForShop(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	shopID, ok := h.pathUUID(c, "shopId")
	if !ok {
		return
	}
	var q OrderListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	orders, err := h.orderService.ListForShop(c.Request.Context(), actor, shopID, order.Filter{
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

// Stats returns order counts and revenue per status for a shop
func (h *OrderHandler) Stats(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	shopID, ok := h.pathUUID(c, "shopId")
	if !ok {
		return
	}
	stats, err := h.orderService.Stats(c.Request.Context(), actor, shopID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// UpdateStatus godoc
// @Summary      Update order status
// @Description  Moves the order forward. The customer is notified on WhatsApp when it ships or is delivered.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id      path string                   true "Order ID"
// @Param        request body UpdateOrderStatusRequest true "Status"
// @Success      200 {object} dto.Response{data=OrderResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	o, err := h.orderService.UpdateStatus(c.Request.Context(), actor, id, orderapp.UpdateStatusInput{
		Status:      order.Status(req.Status),
		SellerNotes: req.SellerNotes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(o))
}

// Cancel cancels a pending or confirmed order and restores its stock
func (h *OrderHandler) Cancel(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.orderService.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(o))
}
