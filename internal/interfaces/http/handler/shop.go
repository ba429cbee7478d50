package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/wazhop/backend/internal/application/media"
	storefrontapp "github.com/wazhop/backend/internal/application/storefront"
	"github.com/wazhop/backend/internal/domain/storefront"
)

// ShopHandler serves seller shop management and the public storefront
type ShopHandler struct {
	BaseHandler
	shopService *storefrontapp.ShopService
}

// NewShopHandler creates a new shop handler
func NewShopHandler(shopService *storefrontapp.ShopService) *ShopHandler {
	return &ShopHandler{shopService: shopService}
}

// ListMine godoc
// @Summary      List my shops
// @Tags         shops
// @Produce      json
// @Success      200 {object} dto.Response{data=[]ShopResponse}
// @Security     BearerAuth
// @Router       /shops/my [get]
func (h *ShopHandler) ListMine(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	shops, err := h.shopService.ListMine(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toShopResponses(shops))
}

// GetMine returns one of the caller's shops
func (h *ShopHandler) GetMine(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	shopID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	shop, err := h.shopService.GetMine(c.Request.Context(), ownerID, shopID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toShopResponse(shop))
}

// Create godoc
// @Summary      Create a shop
// @Description  Open a shop within the plan's shop limit. The slug is derived from the name.
// @Tags         shops
// @Accept       json
// @Produce      json
// @Param        request body CreateShopRequest true "Shop details"
// @Success      201 {object} dto.Response{data=ShopResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /shops [post]
func (h *ShopHandler) Create(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req CreateShopRequest
	if !h.bindJSON(c, &req) {
		return
	}

	shop, err := h.shopService.Create(c.Request.Context(), storefrontapp.CreateShopInput{
		OwnerID:     ownerID,
		ShopName:    req.ShopName,
		Description: req.Description,
		Category:    storefront.Category(req.Category),
		Location:    req.Location,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toShopResponse(shop))
}

// Update changes shop details and payment settings
func (h *ShopHandler) Update(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	shopID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateShopRequest
	if !h.bindJSON(c, &req) {
		return
	}

	shop, err := h.shopService.Update(c.Request.Context(), ownerID, shopID, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toShopResponse(shop))
}

// Delete removes a shop with its products and reviews
func (h *ShopHandler) Delete(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	shopID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.shopService.Delete(c.Request.Context(), ownerID, shopID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Shop deleted successfully"})
}

// Themes lists the themes available on the caller's plan
func (h *ShopHandler) Themes(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	result, err := h.shopService.Themes(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ChangeTheme godoc
// @Summary      Change shop theme
// @Description  Pro may pick a preset or change layout and font; premium may customise everything.
// @Tags         shops
// @Accept       json
// @Produce      json
// @Param        id path string true "Shop ID"
// @Param        request body ThemeRequest true "Theme change"
// @Success      200 {object} dto.Response{data=ShopResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /shops/{id}/theme [put]
func (h *ShopHandler) ChangeTheme(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	shopID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req ThemeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	shop, err := h.shopService.ChangeTheme(c.Request.Context(), ownerID, shopID, req.toChange())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toShopResponse(shop))
}

// SetDomain connects a custom domain and returns the TXT record to publish
func (h *ShopHandler) SetDomain(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	shopID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req DomainRequest
	if !h.bindJSON(c, &req) {
		return
	}

	setup, err := h.shopService.SetDomain(c.Request.Context(), ownerID, shopID, req.Domain)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, setup)
}

// VerifyDomain checks the TXT record of the shop's custom domain
func (h *ShopHandler) VerifyDomain(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	shopID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	shop, err := h.shopService.VerifyDomain(c.Request.Context(), ownerID, shopID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toShopResponse(shop))
}

// RemoveDomain disconnects the custom domain
func (h *ShopHandler) RemoveDomain(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	shopID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	shop, err := h.shopService.RemoveDomain(c.Request.Context(), ownerID, shopID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toShopResponse(shop))
}

func (h *ShopHandler) imageKind(c *gin.Context) (storefront.ImageKind, bool) {
	kind := storefront.ImageKind(c.Param("kind"))
	if !kind.IsValid() {
		h.BadRequest(c, "Image kind must be logo or banner")
		return "", false
	}
	return kind, true
}

// UploadImage presigns a logo or banner upload
func (h *ShopHandler) UploadImage(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	shopID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	kind, ok := h.imageKind(c)
	if !ok {
		return
	}
	var req UploadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ticket, err := h.shopService.UploadImage(c.Request.Context(), ownerID, shopID, kind, media.UploadRequest{
		ContentType: req.ContentType,
		Size:        req.Size,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ticket)
}

// DeleteImage removes the logo or banner
func (h *ShopHandler) DeleteImage(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	shopID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	kind, ok := h.imageKind(c)
	if !ok {
		return
	}
	shop, err := h.shopService.DeleteImage(c.Request.Context(), ownerID, shopID, kind)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toShopResponse(shop))
}

// GetBySlug returns a public storefront
func (h *ShopHandler) GetBySlug(c *gin.Context) {
	view, err := h.shopService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toStorefrontResponse(view))
}

// GetByDomain returns the storefront behind a verified custom domain
func (h *ShopHandler) GetByDomain(c *gin.Context) {
	view, err := h.shopService.GetByDomain(c.Request.Context(), c.Param("domain"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toStorefrontResponse(view))
}
