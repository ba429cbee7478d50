package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	adminapp "github.com/wazhop/backend/internal/application/admin"
	"github.com/wazhop/backend/internal/domain/storefront"
	"github.com/wazhop/backend/internal/interfaces/http/dto"
)

// StoreHandler serves admin-built stores and their activation links
type StoreHandler struct {
	BaseHandler
	storeService *adminapp.StoreService
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(storeService *adminapp.StoreService) *StoreHandler {
	return &StoreHandler{storeService: storeService}
}

// Create godoc
// @Summary      Build a store for a seller
// @Description  Creates a free-plan store owned by a placeholder account and returns its preview and activation links.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body CreateStoreRequest true "Store"
// @Success      201 {object} dto.Response{data=TemporaryStoreResponse}
// @Security     BearerAuth
// @Router       /admin/create-store [post]
func (h *StoreHandler) Create(c *gin.Context) {
	adminID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req CreateStoreRequest
	if !h.bindJSON(c, &req) {
		return
	}
	store, err := h.storeService.Create(c.Request.Context(), adminID, adminapp.CreateStoreInput{
		StoreName:   req.StoreName,
		Description: req.Description,
		Category:    storefront.Category(req.Category),
		Location:    req.Location,
		WhatsApp:    req.WhatsApp,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toTemporaryStoreResponse(store))
}

// List returns the stores still waiting for their sellers
func (h *StoreHandler) List(c *gin.Context) {
	var q AdminListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	stores, err := h.storeService.List(c.Request.Context(), q.Page, q.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(mapPage(stores, toTemporaryStoreResponse)))
}

// AddProduct lists a product in an unclaimed store
func (h *StoreHandler) AddProduct(c *gin.Context) {
	shopID, ok := h.pathUUID(c, "shopId")
	if !ok {
		return
	}
	var req CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	p, err := h.storeService.AddProduct(c.Request.Context(), shopID, req.toInput(uuid.Nil).ProductInput)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toProductResponse(p))
}

// Delete removes an unclaimed store and its placeholder account
func (h *StoreHandler) Delete(c *gin.Context) {
	adminID, ok := h.currentUser(c)
	if !ok {
		return
	}
	shopID, ok := h.pathUUID(c, "shopId")
	if !ok {
		return
	}
	if err := h.storeService.Delete(c.Request.Context(), adminID, shopID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Temporary store deleted successfully"})
}

// Verify checks an activation link
func (h *StoreHandler) Verify(c *gin.Context) {
	shopID, ok := h.pathUUID(c, "shopId")
	if !ok {
		return
	}
	preview, err := h.storeService.Verify(c.Request.Context(), shopID, c.Param("token"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, preview)
}

// Activate godoc
// @Summary      Claim an admin-built store
// @Description  Turns the placeholder owner into the caller's account and signs them in.
// @Tags         stores
// @Accept       json
// @Produce      json
// @Param        shopId path string true "Shop ID"
// @Param        token path string true "Activation token"
// @Param        request body ActivateStoreRequest true "Credentials"
// @Success      200 {object} dto.Response{data=ActivatedStoreResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /activate-store/{shopId}/{token} [post]
func (h *StoreHandler) Activate(c *gin.Context) {
	shopID, ok := h.pathUUID(c, "shopId")
	if !ok {
		return
	}
	var req ActivateStoreRequest
	if !h.bindJSON(c, &req) {
		return
	}
	activated, err := h.storeService.Activate(c.Request.Context(), shopID, c.Param("token"), adminapp.ActivateStoreInput{
		Email:    req.Email,
		Password: req.Password,
		WhatsApp: req.Phone,
		IP:       c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toActivatedStoreResponse(activated))
}
