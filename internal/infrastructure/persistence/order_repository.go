package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/order"
	"github.com/wazhop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create creates a new order
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	return translateError(r.db.WithContext(ctx).Create(models.OrderModelFromDomain(o)).Error)
}

// Update saves every column of an existing order
func (r *GormOrderRepository) Update(ctx context.Context, o *order.Order) error {
	return checkAffected(r.db.WithContext(ctx).Save(models.OrderModelFromDomain(o)))
}

// FindByID finds an order by ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByNumber finds an order by its public number
func (r *GormOrderRepository) FindByNumber(ctx context.Context, number string) (*order.Order, error) {
	return r.findOne(ctx, "order_number = ?", number)
}

func (r *GormOrderRepository) findOne(ctx context.Context, query string, args ...any) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByCustomer pages through orders placed by a signed-in user
func (r *GormOrderRepository) FindByCustomer(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*order.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("customer_user_id = ?", userID)
	return r.page(query, page, pageSize)
}

// FindByShop pages through a shop's orders
func (r *GormOrderRepository) FindByShop(ctx context.Context, shopID uuid.UUID, filter order.Filter) ([]*order.Order, int64, error) {
	query := r.filtered(ctx, filter).Where("shop_id = ?", shopID)
	return r.page(query, filter.Page, filter.PageSize)
}

// FindAll pages through every order
func (r *GormOrderRepository) FindAll(ctx context.Context, filter order.Filter) ([]*order.Order, int64, error) {
	return r.page(r.filtered(ctx, filter), filter.Page, filter.PageSize)
}

func (r *GormOrderRepository) filtered(ctx context.Context, filter order.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.OrderModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Keyword != "" {
		like := LikePattern(filter.Keyword)
		query = query.Where("LOWER(order_number) LIKE ? OR LOWER(customer_name) LIKE ? OR LOWER(customer_phone) LIKE ?", like, like, like)
	}
	return query
}

func (r *GormOrderRepository) page(query *gorm.DB, page, pageSize int) ([]*order.Order, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []*models.OrderModel
	if err := query.Order("created_at DESC").Scopes(Paginate(page, pageSize)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return ordersToDomain(rows), total, nil
}

// AllByShop returns every order of a shop, for statistics
func (r *GormOrderRepository) AllByShop(ctx context.Context, shopID uuid.UUID) ([]*order.Order, error) {
	var rows []*models.OrderModel
	if err := r.db.WithContext(ctx).Where("shop_id = ?", shopID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return ordersToDomain(rows), nil
}

// ExistsByNumber checks whether an order number is taken
func (r *GormOrderRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("order_number = ?", number).Count(&count).Error
	return count > 0, err
}

// DeleteByShops removes the orders of the given shops
func (r *GormOrderRepository) DeleteByShops(ctx context.Context, shopIDs []uuid.UUID) error {
	if len(shopIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("shop_id IN ?", shopIDs).Delete(&models.OrderModel{}).Error
}

// PaidRevenue sums totals of paid orders across the platform
func (r *GormOrderRepository) PaidRevenue(ctx context.Context) (decimal.Decimal, error) {
	return r.PaidRevenueSince(ctx, time.Time{})
}

// PaidRevenueSince sums paid orders placed at or after since; a zero since
// covers every order
func (r *GormOrderRepository) PaidRevenueSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	query := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("payment_status = ?", order.PaymentPaid)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	err := query.Select("SUM(total)").Row().Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// Count counts all orders
func (r *GormOrderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderModel{}).Count(&count).Error
	return count, err
}

// CountSince counts orders placed at or after since
func (r *GormOrderRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

// CountByStatus counts orders placed at or after since per status
func (r *GormOrderRepository) CountByStatus(ctx context.Context, since time.Time) (map[order.Status]int64, error) {
	var rows []groupCount
	if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("created_at >= ?", since).
		Select("status AS grp, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[order.Status]int64, len(rows))
	for _, row := range rows {
		out[order.Status(row.Grp)] = row.Count
	}
	return out, nil
}

// Recent returns the latest orders across all shops
func (r *GormOrderRepository) Recent(ctx context.Context, limit int) ([]*order.Order, error) {
	var rows []*models.OrderModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return ordersToDomain(rows), nil
}

func ordersToDomain(rows []*models.OrderModel) []*order.Order {
	out := make([]*order.Order, len(rows))
	for i, m := range rows {
		out[i] = m.ToDomain()
	}
	return out
}
