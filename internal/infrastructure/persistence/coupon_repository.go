package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/domain/billing"
	"github.com/wazhop/backend/internal/domain/shared"
	"github.com/wazhop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCouponRepository implements billing.CouponRepository using GORM
type GormCouponRepository struct {
	db *gorm.DB
}

// NewGormCouponRepository creates a new GormCouponRepository
func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// Create creates a new coupon
func (r *GormCouponRepository) Create(ctx context.Context, c *billing.Coupon) error {
	return translateError(r.db.WithContext(ctx).Create(models.CouponModelFromDomain(c)).Error)
}

// Update saves a coupon unless the stored version is already at or past c.Version,
// which means a concurrent redemption won.
func (r *GormCouponRepository) Update(ctx context.Context, c *billing.Coupon) error {
	model := models.CouponModelFromDomain(c)
	result := r.db.WithContext(ctx).Model(model).
		Where("version < ?", c.Version).
		Select("*").
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete removes a coupon
func (r *GormCouponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return checkAffected(r.db.WithContext(ctx).Delete(&models.CouponModel{}, "id = ?", id))
}

// FindByID finds a coupon by ID
func (r *GormCouponRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Coupon, error) {
	var model models.CouponModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByCode finds a coupon by code, ignoring case
func (r *GormCouponRepository) FindByCode(ctx context.Context, code string) (*billing.Coupon, error) {
	var model models.CouponModel
	if err := r.db.WithContext(ctx).First(&model, "code = ?", strings.ToUpper(strings.TrimSpace(code))).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// ExistsByCode checks whether a code is taken
func (r *GormCouponRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CouponModel{}).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Count(&count).Error
	return count > 0, err
}

// FindAll pages through coupons, newest first
func (r *GormCouponRepository) FindAll(ctx context.Context, filter billing.CouponFilter) ([]*billing.Coupon, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CouponModel{})
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		like := LikePattern(filter.Search)
		query = query.Where("LOWER(code) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []*models.CouponModel
	if err := query.Order("created_at DESC").Scopes(Paginate(filter.Page, filter.PageSize)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return couponsToDomain(rows), total, nil
}

// All returns every coupon, for statistics
func (r *GormCouponRepository) All(ctx context.Context) ([]*billing.Coupon, error) {
	var rows []*models.CouponModel
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return couponsToDomain(rows), nil
}

func couponsToDomain(rows []*models.CouponModel) []*billing.Coupon {
	out := make([]*billing.Coupon, len(rows))
	for i, m := range rows {
		out[i] = m.ToDomain()
	}
	return out
}
