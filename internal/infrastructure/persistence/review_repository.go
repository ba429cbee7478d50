package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReviewRepository implements catalog.ReviewRepository using GORM
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// Create creates a new review
func (r *GormReviewRepository) Create(ctx context.Context, review *catalog.Review) error {
	return translateError(r.db.WithContext(ctx).Create(models.ReviewModelFromDomain(review)).Error)
}

// Update saves an existing review
func (r *GormReviewRepository) Update(ctx context.Context, review *catalog.Review) error {
	return checkAffected(r.db.WithContext(ctx).Save(models.ReviewModelFromDomain(review)))
}

// Delete removes a review
func (r *GormReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return checkAffected(r.db.WithContext(ctx).Delete(&models.ReviewModel{}, "id = ?", id))
}

// FindByID finds a review by ID
func (r *GormReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Review, error) {
	var model models.ReviewModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindApprovedByProduct pages through a product's approved reviews, newest first
func (r *GormReviewRepository) FindApprovedByProduct(ctx context.Context, productID uuid.UUID, page, pageSize int) ([]*catalog.Review, int64, error) {
	return r.page(ctx, r.db.WithContext(ctx).Model(&models.ReviewModel{}).
		Where("product_id = ? AND is_approved = ?", productID, true), page, pageSize)
}

// FindByShop pages through every review of a shop, newest first
func (r *GormReviewRepository) FindByShop(ctx context.Context, shopID uuid.UUID, page, pageSize int) ([]*catalog.Review, int64, error) {
	return r.page(ctx, r.db.WithContext(ctx).Model(&models.ReviewModel{}).Where("shop_id = ?", shopID), page, pageSize)
}

func (r *GormReviewRepository) page(_ context.Context, query *gorm.DB, page, pageSize int) ([]*catalog.Review, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []*models.ReviewModel
	if err := query.Order("created_at DESC").Scopes(Paginate(page, pageSize)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return reviewsToDomain(rows), total, nil
}

// AllByProduct returns every review of a product
func (r *GormReviewRepository) AllByProduct(ctx context.Context, productID uuid.UUID) ([]*catalog.Review, error) {
	var rows []*models.ReviewModel
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return reviewsToDomain(rows), nil
}

// AllByShop returns every review of a shop
func (r *GormReviewRepository) AllByShop(ctx context.Context, shopID uuid.UUID) ([]*catalog.Review, error) {
	var rows []*models.ReviewModel
	if err := r.db.WithContext(ctx).Where("shop_id = ?", shopID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return reviewsToDomain(rows), nil
}

// ExistsByEmail checks whether email already reviewed the product
func (r *GormReviewRepository) ExistsByEmail(ctx context.Context, productID uuid.UUID, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ReviewModel{}).
		Where("product_id = ? AND customer_email = ?", productID, strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	return count > 0, err
}

// DeleteByShop removes every review of a shop
func (r *GormReviewRepository) DeleteByShop(ctx context.Context, shopID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("shop_id = ?", shopID).Delete(&models.ReviewModel{}).Error
}

func reviewsToDomain(rows []*models.ReviewModel) []*catalog.Review {
	out := make([]*catalog.Review, len(rows))
	for i, m := range rows {
		out[i] = m.ToDomain()
	}
	return out
}
