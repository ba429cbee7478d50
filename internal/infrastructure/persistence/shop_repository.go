package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/domain/storefront"
	"github.com/wazhop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormShopRepository implements storefront.ShopRepository using GORM
type GormShopRepository struct {
	db *gorm.DB
}

// NewGormShopRepository creates a new GormShopRepository
func NewGormShopRepository(db *gorm.DB) *GormShopRepository {
	return &GormShopRepository{db: db}
}

// Create creates a new shop
func (r *GormShopRepository) Create(ctx context.Context, shop *storefront.Shop) error {
	return translateError(r.db.WithContext(ctx).Create(models.ShopModelFromDomain(shop)).Error)
}

// Update saves every column of an existing shop
func (r *GormShopRepository) Update(ctx context.Context, shop *storefront.Shop) error {
	return checkAffected(r.db.WithContext(ctx).Save(models.ShopModelFromDomain(shop)))
}

// Delete removes a shop with its products, reviews and orders
func (r *GormShopRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.ReviewModel{}, &models.ProductModel{}, &models.OrderModel{}} {
			if err := tx.Where("shop_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return checkAffected(tx.Delete(&models.ShopModel{}, "id = ?", id))
	})
}

// FindByID finds a shop by ID
func (r *GormShopRepository) FindByID(ctx context.Context, id uuid.UUID) (*storefront.Shop, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindBySlug finds a shop by slug
func (r *GormShopRepository) FindBySlug(ctx context.Context, slug string) (*storefront.Shop, error) {
	return r.findOne(ctx, "slug = ?", slug)
}

// FindByDomain finds the shop whose verified custom domain is domain
func (r *GormShopRepository) FindByDomain(ctx context.Context, domain string) (*storefront.Shop, error) {
	return r.findOne(ctx, "custom_domain = ? AND domain_verified = ?", storefront.NormalizeDomain(domain), true)
}

func (r *GormShopRepository) findOne(ctx context.Context, query string, args ...any) (*storefront.Shop, error) {
	var model models.ShopModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByOwner returns the owner's shops, oldest first
func (r *GormShopRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*storefront.Shop, error) {
	var rows []*models.ShopModel
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return shopsToDomain(rows), nil
}

// FindAll returns shops matching filter, newest first
func (r *GormShopRepository) FindAll(ctx context.Context, filter storefront.ShopFilter) ([]*storefront.Shop, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ShopModel{})
	if filter.Keyword != "" {
		like := LikePattern(filter.Keyword)
		query = query.Where("LOWER(shop_name) LIKE ? OR LOWER(slug) LIKE ?", like, like)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Temporary != nil {
		query = query.Where("is_temporary = ?", *filter.Temporary)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []*models.ShopModel
	if err := query.Order("created_at DESC").Scopes(Paginate(filter.Page, filter.PageSize)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return shopsToDomain(rows), total, nil
}

// FindActiveIDsByLocation returns IDs of active shops whose location mentions any of terms
func (r *GormShopRepository) FindActiveIDsByLocation(ctx context.Context, terms ...string) ([]uuid.UUID, error) {
	query := r.db.WithContext(ctx).Model(&models.ShopModel{}).Where("is_active = ?", true)
	or := r.db.WithContext(ctx)
	used := false
	for _, t := range terms {
		if t == "" {
			continue
		}
		or = or.Or("LOWER(location) LIKE ?", LikePattern(t))
		used = true
	}
	if !used {
		return nil, nil
	}
	var ids []uuid.UUID
	if err := query.Where(or).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// CountByOwner counts the owner's shops
func (r *GormShopRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ShopModel{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

// Count counts all shops
func (r *GormShopRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ShopModel{}).Count(&count).Error
	return count, err
}

// CountSince counts shops created at or after since
func (r *GormShopRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ShopModel{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

// ExistsBySlug checks whether slug is taken
func (r *GormShopRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ShopModel{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// ExistsByDomain checks whether another shop claimed domain
func (r *GormShopRepository) ExistsByDomain(ctx context.Context, domain string, excludeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ShopModel{}).
		Where("custom_domain = ? AND id <> ?", domain, excludeID).
		Count(&count).Error
	return count > 0, err
}

// IncrementViews bumps the view counter without loading the shop
func (r *GormShopRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return checkAffected(r.db.WithContext(ctx).Model(&models.ShopModel{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)))
}

func shopsToDomain(rows []*models.ShopModel) []*storefront.Shop {
	out := make([]*storefront.Shop, len(rows))
	for i, m := range rows {
		out[i] = m.ToDomain()
	}
	return out
}
