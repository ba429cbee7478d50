package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/wazhop/backend/internal/application/billing"
	catalogapp "github.com/wazhop/backend/internal/application/catalog"
	"github.com/wazhop/backend/internal/application/media"
	"github.com/wazhop/backend/internal/domain/billing"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/interfaces/http/dto"
)

// ProductHandler serves the marketplace and seller product management
type ProductHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
	paymentService *billingapp.PaymentService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *catalogapp.ProductService, paymentService *billingapp.PaymentService) *ProductHandler {
	return &ProductHandler{productService: productService, paymentService: paymentService}
}

// Marketplace godoc
// @Summary      Browse the marketplace
// @Description  Active listings of active shops, boosted listings first. Boosts matching the buyer's state or area rank higher.
// @Tags         products
// @Produce      json
// @Param        search    query string false "Keywords"
// @Param        category  query string false "Category, or all"
// @Param        sort      query string false "featured, newest or popular"
// @Param        page      query int    false "Page number" default(1)
// @Param        limit     query int    false "Page size" default(24)
// @Success      200 {object} dto.Response{data=[]MarketplaceItemResponse}
// @Router       /products/marketplace [get]
func (h *ProductHandler) Marketplace(c *gin.Context) {
	var q MarketplaceQuery
	if !h.bindQuery(c, &q) {
		return
	}
	result, err := h.productService.Marketplace(c.Request.Context(), catalogapp.MarketplaceInput{
		Search:      q.Search,
		Category:    q.Category,
		Subcategory: q.Subcategory,
		MinPrice:    q.MinPrice,
		MaxPrice:    q.MaxPrice,
		State:       q.State,
		Area:        q.Area,
		Sort:        q.Sort,
		Page:        q.Page,
		Limit:       q.Limit,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(toMarketplacePage(result)))
}

// Get returns a product page and counts the view
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	detail, err := h.productService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toProductDetailResponse(detail))
}

// Related lists other products in the same category
func (h *ProductHandler) Related(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	products, err := h.productService.Related(c.Request.Context(), id, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toProductResponses(products))
}

// TrackClick counts a WhatsApp button click
func (h *ProductHandler) TrackClick(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.productService.TrackClick(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Click tracked"})
}

// WhatsAppLink returns the inquiry link to the product's seller
func (h *ProductHandler) WhatsAppLink(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	link, err := h.productService.WhatsAppLink(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, link)
}

// ListMine godoc
// @Summary      List my products
// @Tags         products
// @Produce      json
// @Param        shop_id   query string false "Shop ID"
// @Param        search    query string false "Keyword"
// @Param        is_active query bool   false "Active filter"
// @Success      200 {object} dto.Response{data=[]ProductResponse}
// @Security     BearerAuth
// @Router       /products/my [get]
func (h *ProductHandler) ListMine(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var q MyProductsQuery
	if !h.bindQuery(c, &q) {
		return
	}

	query := catalogapp.MyProductsQuery{
		OwnerID: ownerID,
		ProductFilter: catalog.ProductFilter{
			Keyword:   q.Search,
			Category:  q.Category,
			IsActive:  q.IsActive,
			SortBy:    q.SortBy,
			SortOrder: q.SortOrder,
			Page:      q.Page,
			PageSize:  q.PageSize,
		},
	}
	if q.ShopID != "" {
		shopID := uuid.MustParse(q.ShopID)
		query.ShopID = &shopID
	}
	page, err := h.productService.ListMine(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPageResponse(mapPage(page, toProductResponse)))
}

// Create godoc
// @Summary      List a product
// @Description  Adds a product to the given shop, or the seller's first shop, within the plan's product limit.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body CreateProductRequest true "Product"
// @Success      201 {object} dto.Response{data=ProductResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	product, err := h.productService.Create(c.Request.Context(), req.toInput(ownerID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toProductResponse(product))
}

// Update changes a product
func (h *ProductHandler) Update(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	product, err := h.productService.Update(c.Request.Context(), ownerID, id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toProductResponse(product))
}

// Delete removes a product with its images
func (h *ProductHandler) Delete(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.productService.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Product deleted successfully"})
}

// Reorder stores the display order of a shop's products
func (h *ProductHandler) Reorder(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req ReorderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.productService.Reorder(c.Request.Context(), ownerID, req.ShopID, req.ProductIDs); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Products reordered successfully"})
}

// BoostQuote prices a boost without buying it
func (h *ProductHandler) BoostQuote(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req BoostRequest
	if !h.bindQuery(c, &req) {
		return
	}
	quote, err := h.productService.QuoteBoost(c.Request.Context(), ownerID, id, catalog.BoostRequest{
		Hours: req.Hours,
		State: req.State,
		Area:  req.Area,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// Boost godoc
// @Summary      Boost a product
// @Description  Starts a boost payment. The boost is applied once the payment is verified.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id      path string       true "Product ID"
// @Param        request body BoostRequest true "Boost"
// @Success      201 {object} dto.Response{data=PaymentSessionResponse}
// @Security     BearerAuth
// @Router       /products/{id}/boost [put]
func (h *ProductHandler) Boost(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req BoostRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	// Ownership and hours are checked before any money moves
	if _, err := h.productService.QuoteBoost(ctx, ownerID, id, catalog.BoostRequest{Hours: req.Hours}); err != nil {
		h.HandleError(c, err)
		return
	}
	session, err := h.paymentService.Initiate(ctx, billingapp.InitiatePaymentInput{
		UserID:     ownerID,
		Type:       billing.TransactionBoost,
		ProductID:  &id,
		BoostHours: req.Hours,
		BoostState: req.State,
		BoostArea:  req.Area,
		Client:     clientInfo(c, req.RedirectURL),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toPaymentSessionResponse(session))
}

// BoostStatus describes the product's boost
func (h *ProductHandler) BoostStatus(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	status, err := h.productService.BoostStatus(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// AddImages presigns gallery uploads
func (h *ProductHandler) AddImages(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req AddImagesRequest
	if !h.bindJSON(c, &req) {
		return
	}
	uploads := make([]media.UploadRequest, len(req.Images))
	for i, img := range req.Images {
		uploads[i] = media.UploadRequest{ContentType: img.ContentType, Size: img.Size}
	}
	tickets, err := h.productService.AddImages(c.Request.Context(), ownerID, id, uploads)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tickets)
}

// RemoveImage deletes a gallery image
func (h *ProductHandler) RemoveImage(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	imageID, ok := h.pathUUID(c, "imageId")
	if !ok {
		return
	}
	product, err := h.productService.RemoveImage(c.Request.Context(), ownerID, id, imageID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toProductResponse(product))
}

// clientInfo describes the browser starting a payment
func clientInfo(c *gin.Context, redirectURL string) billing.ClientInfo {
	return billing.ClientInfo{
		RedirectURL: redirectURL,
		ReturnURL:   c.GetHeader("Referer"),
		UserAgent:   c.Request.UserAgent(),
		IPAddress:   c.ClientIP(),
	}
}
