package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/domain/shared"
	"github.com/wazhop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// MarketplaceCandidateLimit caps how many listings are ranked in memory
const MarketplaceCandidateLimit = 2000

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Create creates a new product
func (r *GormProductRepository) Create(ctx context.Context, p *catalog.Product) error {
	return translateError(r.db.WithContext(ctx).Create(models.ProductModelFromDomain(p)).Error)
}

// Update saves every column of an existing product
func (r *GormProductRepository) Update(ctx context.Context, p *catalog.Product) error {
	return checkAffected(r.db.WithContext(ctx).Save(models.ProductModelFromDomain(p)))
}

// ReserveStock decrements tracked stock only while enough is left, so two
// orders racing for the last unit cannot both win.
func (r *GormProductRepository) ReserveStock(ctx context.Context, id uuid.UUID, qty int) (int, error) {
	var left int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ProductModel{}).
			Where("id = ? AND track_inventory = ? AND stock IS NOT NULL AND stock >= ?", id, true, qty).
			Updates(map[string]any{
				"stock":      gorm.Expr("stock - ?", qty),
				"in_stock":   gorm.Expr("stock - ? > 0", qty),
				"version":    gorm.Expr("version + 1"),
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrInsufficientStock
		}
		return tx.Model(&models.ProductModel{}).Where("id = ?", id).Pluck("stock", &left).Error
	})
	return left, err
}

// ReleaseStock increments tracked stock in place
func (r *GormProductRepository) ReleaseStock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ? AND track_inventory = ? AND stock IS NOT NULL", id, true).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock + ?", qty),
			"in_stock":   true,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		}).Error
}

// Delete removes a product and its reviews
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ReviewModel{}).Error; err != nil {
			return err
		}
		return checkAffected(tx.Delete(&models.ProductModel{}, "id = ?", id))
	})
}

// DeleteByShop removes every product of a shop
func (r *GormProductRepository) DeleteByShop(ctx context.Context, shopID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("shop_id = ?", shopID).Delete(&models.ProductModel{}).Error
}

// FindByID finds a product by ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads the given products in no particular order
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []*models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return productsToDomain(rows), nil
}

// FindByShop lists a shop's products in display order
func (r *GormProductRepository) FindByShop(ctx context.Context, shopID uuid.UUID, filter catalog.ProductFilter) ([]*catalog.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("shop_id = ?", shopID)
	return r.findPage(query, filter, "position ASC, created_at DESC")
}

// FindAll pages through products of every shop, newest first
func (r *GormProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]*catalog.Product, int64, error) {
	return r.findPage(r.db.WithContext(ctx).Model(&models.ProductModel{}), filter, "created_at DESC")
}

func (r *GormProductRepository) findPage(query *gorm.DB, filter catalog.ProductFilter, order string) ([]*catalog.Product, int64, error) {
	if filter.Keyword != "" {
		like := LikePattern(filter.Keyword)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if filter.SortBy != "" {
		order = ValidateSortField(filter.SortBy, ProductSortFields, "position") + " " + ValidateSortOrder(filter.SortOrder)
	}
	var rows []*models.ProductModel
	if err := query.Order(order).
		Scopes(Paginate(filter.Page, filter.PageSize)).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return productsToDomain(rows), total, nil
}

// FindMarketplace returns active listings of active shops matching q.
// Keywords match any of name, description, category, subcategory or tags.
func (r *GormProductRepository) FindMarketplace(ctx context.Context, q catalog.MarketplaceQuery) ([]*catalog.Product, error) {
	db := r.db.WithContext(ctx)
	activeShops := db.Model(&models.ShopModel{}).Select("id").Where("is_active = ?", true)
	query := db.Model(&models.ProductModel{}).
		Where("is_active = ?", true).
		Where("shop_id IN (?)", activeShops)

	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if q.Subcategory != "" {
		query = query.Where("subcategory = ?", q.Subcategory)
	}
	if q.MinPrice != nil {
		query = query.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		query = query.Where("price <= ?", *q.MaxPrice)
	}
	if len(q.Keywords) > 0 {
		match := r.db.WithContext(ctx)
		for _, kw := range q.Keywords {
			like := LikePattern(kw)
			match = match.Or("LOWER(name) LIKE ?", like).
				Or("LOWER(description) LIKE ?", like).
				Or("LOWER(category) LIKE ?", like).
				Or("LOWER(subcategory) LIKE ?", like).
				Or("LOWER(CAST(tags AS TEXT)) LIKE ?", like)
		}
		query = query.Where(match)
	}
	if q.State != "" || q.Area != "" || len(q.ShopIDs) > 0 {
		loc := r.db.WithContext(ctx)
		if q.State != "" {
			like := LikePattern(q.State)
			loc = loc.Or("LOWER(location_state) LIKE ?", like).Or("LOWER(boost_state) LIKE ?", like)
		}
		if q.Area != "" {
			like := LikePattern(q.Area)
			loc = loc.Or("LOWER(location_area) LIKE ?", like).Or("LOWER(boost_area) LIKE ?", like)
		}
		if len(q.ShopIDs) > 0 {
			loc = loc.Or("shop_id IN ?", q.ShopIDs)
		}
		query = query.Where(loc)
	}

	var rows []*models.ProductModel
	if err := query.Order("created_at DESC").Limit(MarketplaceCandidateLimit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return productsToDomain(rows), nil
}

// FindRelated returns other active products in the same category, most clicked first
func (r *GormProductRepository) FindRelated(ctx context.Context, p *catalog.Product, limit int) ([]*catalog.Product, error) {
	var rows []*models.ProductModel
	err := r.db.WithContext(ctx).
		Where("category = ? AND id <> ? AND is_active = ?", p.Category, p.ID, true).
		Order("clicks DESC, created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return productsToDomain(rows), nil
}

// CountByShops counts products across shops
func (r *GormProductRepository) CountByShops(ctx context.Context, shopIDs []uuid.UUID) (int64, error) {
	if len(shopIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("shop_id IN ?", shopIDs).Count(&count).Error
	return count, err
}

// Count counts all products
func (r *GormProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProductModel{}).Count(&count).Error
	return count, err
}

// CountSince counts products created at or after since
func (r *GormProductRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

// MaxPosition returns the highest display position in a shop, 0 when empty
func (r *GormProductRepository) MaxPosition(ctx context.Context, shopID uuid.UUID) (int, error) {
	var pos int
	err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("shop_id = ?", shopID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&pos).Error
	return pos, err
}

// UpdatePositions stores ordered as the shop's display order
func (r *GormProductRepository) UpdatePositions(ctx context.Context, shopID uuid.UUID, ordered []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ordered {
			if err := checkAffected(tx.Model(&models.ProductModel{}).
				Where("id = ? AND shop_id = ?", id, shopID).
				UpdateColumn("position", i)); err != nil {
				return err
			}
		}
		return nil
	})
}

// IncrementClicks bumps the click counter
func (r *GormProductRepository) IncrementClicks(ctx context.Context, id uuid.UUID) error {
	return r.increment(ctx, id, "clicks")
}

// IncrementViews bumps the view counter
func (r *GormProductRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return r.increment(ctx, id, "views")
}

func (r *GormProductRepository) increment(ctx context.Context, id uuid.UUID, column string) error {
	return checkAffected(r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1)))
}

// UpdateRating stores a recalculated rating aggregate
func (r *GormProductRepository) UpdateRating(ctx context.Context, id uuid.UUID, summary catalog.RatingSummary) error {
	return checkAffected(r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"average_rating": summary.Average,
			"num_reviews":    summary.Count,
		}))
}

// Recent returns the latest products across all shops
func (r *GormProductRepository) Recent(ctx context.Context, limit int) ([]*catalog.Product, error) {
	var rows []*models.ProductModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return productsToDomain(rows), nil
}

func productsToDomain(rows []*models.ProductModel) []*catalog.Product {
	out := make([]*catalog.Product, len(rows))
	for i, m := range rows {
		out[i] = m.ToDomain()
	}
	return out
}
