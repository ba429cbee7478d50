package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/wazhop/backend/internal/application/catalog"
	"github.com/wazhop/backend/internal/domain/catalog"
)

// ReviewHandler serves product reviews
type ReviewHandler struct {
	BaseHandler
	reviewService *catalogapp.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *catalogapp.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	if size == 0 {
		size, _ = strconv.Atoi(c.Query("limit"))
	}
	return page, size
}

// ListForProduct returns approved reviews of a product with its rating
// distribution
func (h *ReviewHandler) ListForProduct(c *gin.Context) {
	productID, ok := h.pathUUID(c, "productId")
	if !ok {
		return
	}
	page, size := pageParams(c)
	reviews, err := h.reviewService.ForProduct(c.Request.Context(), productID, page, size)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toReviewPage(reviews.Paginated, reviews.Summary, reviews.Distribution))
}

// Create godoc
// @Summary      Review a product
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Param        request body CreateReviewRequest true "Review"
// @Success      201 {object} dto.Response{data=ReviewResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	var req CreateReviewRequest
	if !h.bindJSON(c, &req) {
		return
	}
	review, err := h.reviewService.Create(c.Request.Context(), catalogapp.CreateReviewInput{
		ProductID: req.ProductID,
		ReviewInput: catalog.ReviewInput{
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			Rating:        req.Rating,
			Comment:       req.Comment,
			Image:         req.Image,
		},
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toReviewResponse(review))
}

// MarkHelpful counts a helpful vote
func (h *ReviewHandler) MarkHelpful(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	review, err := h.reviewService.MarkHelpful(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toReviewResponse(review))
}

// ListForShop returns every review of the seller's shop, hidden ones included
func (h *ReviewHandler) ListForShop(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	shopID, ok := h.pathUUID(c, "shopId")
	if !ok {
		return
	}
	page, size := pageParams(c)
	reviews, err := h.reviewService.ForShop(c.Request.Context(), ownerID, &shopID, page, size)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toReviewPage(reviews.Paginated, reviews.Summary, reviews.Distribution))
}

// SetApproved approves or hides a review of the seller's product
func (h *ReviewHandler) SetApproved(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req ApproveReviewRequest
	if !h.bindJSON(c, &req) {
		return
	}
	review, err := h.reviewService.SetApproved(c.Request.Context(), ownerID, id, *req.Approved)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toReviewResponse(review))
}

// Delete removes a review of the seller's product
func (h *ReviewHandler) Delete(c *gin.Context) {
	ownerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.reviewService.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Review deleted successfully"})
}
