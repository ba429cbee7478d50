package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/domain/settings"
	"github.com/wazhop/backend/internal/domain/shared"
	"github.com/wazhop/backend/internal/domain/storefront"
	"go.uber.org/zap"
)

// ReviewService collects and moderates product reviews
type ReviewService struct {
	reviews  catalog.ReviewRepository
	products catalog.ProductRepository
	shops    storefront.ShopRepository
	settings settings.Repository
	logger   *zap.Logger
}

// NewReviewService creates a review service
func NewReviewService(
	reviews catalog.ReviewRepository,
	products catalog.ProductRepository,
	shops storefront.ShopRepository,
	settingsRepo settings.Repository,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		products: products,
		shops:    shops,
		settings: settingsRepo,
		logger:   logger,
	}
}

// ForProduct returns a page of approved reviews with the product's rating
func (s *ReviewService) ForProduct(ctx context.Context, productID uuid.UUID, page, pageSize int) (*ProductReviews, error) {
	page, pageSize = normalizePage(page, pageSize)
	items, total, err := s.reviews.FindApprovedByProduct(ctx, productID, page, pageSize)
	if err != nil {
		return nil, err
	}
	all, err := s.reviews.AllByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &ProductReviews{
		Paginated:    shared.NewPaginated(items, total, page, pageSize),
		Summary:      catalog.Summarize(all),
		Distribution: catalog.RatingDistribution(all),
	}, nil
}

// Create stores a customer review and refreshes the product rating. An email
// may review a product once.
func (s *ReviewService) Create(ctx context.Context, in CreateReviewInput) (*catalog.Review, error) {
	platform, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !platform.Features.EnableReviews {
		return nil, shared.Forbidden("Reviews are currently disabled")
	}
	product, err := s.products.FindByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	review, err := catalog.NewReview(product, in.ReviewInput)
	if err != nil {
		return nil, err
	}
	if review.CustomerEmail != "" {
		exists, err := s.reviews.ExistsByEmail(ctx, product.ID, review.CustomerEmail)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "You have already reviewed this product")
		}
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	if err := s.recalculate(ctx, product.ID); err != nil {
		return nil, err
	}
	s.logger.Info("Review submitted",
		zap.String("review_id", review.ID.String()),
		zap.String("product_id", product.ID.String()),
		zap.Int("rating", review.Rating))
	return review, nil
}

// MarkHelpful counts a helpful vote
func (s *ReviewService) MarkHelpful(ctx context.Context, id uuid.UUID) (*catalog.Review, error) {
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	review.MarkHelpful()
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// ForShop returns all reviews of a seller's shop with approved-review stats.
// A nil shopID uses the seller's oldest active shop.
func (s *ReviewService) ForShop(ctx context.Context, ownerID uuid.UUID, shopID *uuid.UUID, page, pageSize int) (*ShopReviews, error) {
	shop, err := s.resolveShop(ctx, ownerID, shopID)
	if err != nil {
		return nil, err
	}
	page, pageSize = normalizePage(page, pageSize)
	items, total, err := s.reviews.FindByShop(ctx, shop.ID, page, pageSize)
	if err != nil {
		return nil, err
	}
	all, err := s.reviews.AllByShop(ctx, shop.ID)
	if err != nil {
		return nil, err
	}
	return &ShopReviews{
		Paginated:    shared.NewPaginated(items, total, page, pageSize),
		Summary:      catalog.Summarize(all),
		Distribution: catalog.RatingDistribution(all),
	}, nil
}

// SetApproved approves or hides a review of the seller's shop
func (s *ReviewService) SetApproved(ctx context.Context, ownerID, id uuid.UUID, approved bool) (*catalog.Review, error) {
	review, err := s.ownedReview(ctx, ownerID, id, "Not authorized to moderate this review")
	if err != nil {
		return nil, err
	}
	review.SetApproved(approved)
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}
	if err := s.recalculate(ctx, review.ProductID); err != nil {
		return nil, err
	}
	return review, nil
}

// Delete removes a review of the seller's shop
func (s *ReviewService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	review, err := s.ownedReview(ctx, ownerID, id, "Not authorized to delete this review")
	if err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, review.ID); err != nil {
		return err
	}
	return s.recalculate(ctx, review.ProductID)
}

func (s *ReviewService) recalculate(ctx context.Context, productID uuid.UUID) error {
	all, err := s.reviews.AllByProduct(ctx, productID)
	if err != nil {
		return err
	}
	return s.products.UpdateRating(ctx, productID, catalog.Summarize(all))
}

func (s *ReviewService) ownedReview(ctx context.Context, ownerID, id uuid.UUID, denied string) (*catalog.Review, error) {
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	shop, err := s.shops.FindByID(ctx, review.ShopID)
	if err != nil {
		return nil, err
	}
	if !shop.IsOwnedBy(ownerID) {
		return nil, shared.Forbidden(denied)
	}
	return review, nil
}

func (s *ReviewService) resolveShop(ctx context.Context, ownerID uuid.UUID, shopID *uuid.UUID) (*storefront.Shop, error) {
	shops, err := s.shops.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, sh := range shops {
		if (shopID != nil && sh.ID == *shopID) || (shopID == nil && sh.IsActive) {
			return sh, nil
		}
	}
	return nil, shared.NotFound("Shop")
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
