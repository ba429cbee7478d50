package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return translateError(r.db.WithContext(ctx).Create(models.UserModelFromDomain(user)).Error)
}

// Update saves every column of an existing user
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	return checkAffected(r.db.WithContext(ctx).Save(models.UserModelFromDomain(user)))
}

// Delete removes the user and everything their shops own
func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		shopIDs := tx.Model(&models.ShopModel{}).Select("id").Where("owner_id = ?", id)
		if err := tx.Where("shop_id IN (?)", shopIDs).Delete(&models.ReviewModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("shop_id IN (?)", shopIDs).Delete(&models.ProductModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("shop_id IN (?)", shopIDs).Delete(&models.OrderModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", id).Delete(&models.ShopModel{}).Error; err != nil {
			return err
		}
		return checkAffected(tx.Delete(&models.UserModel{}, "id = ?", id))
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByEmail finds a user by email, ignoring case
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	return r.findOne(ctx, "email = ?", identity.NormalizeEmail(email))
}

// FindByReferralCode finds a user by referral code
func (r *GormUserRepository) FindByReferralCode(ctx context.Context, code string) (*identity.User, error) {
	return r.findOne(ctx, "referral_code = ?", strings.ToUpper(strings.TrimSpace(code)))
}

func (r *GormUserRepository) findOne(ctx context.Context, query string, args ...any) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns users matching filter, newest first
func (r *GormUserRepository) FindAll(ctx context.Context, filter identity.UserFilter) ([]*identity.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.UserModel{})
	if filter.Keyword != "" {
		like := LikePattern(filter.Keyword)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.Plan != nil {
		query = query.Where("plan = ?", *filter.Plan)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*models.UserModel
	order := ValidateSortField(filter.SortBy, UserSortFields, "created_at") + " " + ValidateSortOrder(filter.SortOrder)
	if err := query.Order(order).Scopes(Paginate(filter.Page, filter.PageSize)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return usersToDomain(rows), total, nil
}

// FindReferredBy lists the most recent users referred by referrerID
func (r *GormUserRepository) FindReferredBy(ctx context.Context, referrerID uuid.UUID, limit int) ([]*identity.User, error) {
	var rows []*models.UserModel
	err := r.db.WithContext(ctx).
		Where("referred_by = ?", referrerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return usersToDomain(rows), nil
}

// FindExpiredSubscriptions lists paid users whose plan expired before now
func (r *GormUserRepository) FindExpiredSubscriptions(ctx context.Context, now time.Time) ([]*identity.User, error) {
	var rows []*models.UserModel
	err := r.db.WithContext(ctx).
		Where("plan IN ?", []identity.Plan{identity.PlanPro, identity.PlanPremium}).
		Where("plan_expiry IS NOT NULL AND plan_expiry < ?", now).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return usersToDomain(rows), nil
}

// ExistsByEmail checks whether an account uses email
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", identity.NormalizeEmail(email))
}

// ExistsByWhatsApp checks whether another account uses the number
func (r *GormUserRepository) ExistsByWhatsApp(ctx context.Context, whatsapp string, excludeID uuid.UUID) (bool, error) {
	return r.exists(ctx, "whatsapp = ? AND id <> ?", whatsapp, excludeID)
}

// ExistsByReferralCode checks whether a referral code is taken
func (r *GormUserRepository) ExistsByReferralCode(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, "referral_code = ?", code)
}

func (r *GormUserRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.UserModel{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type groupCount struct {
	Grp   string
	Count int64
}

// CountByRole counts users per role
func (r *GormUserRepository) CountByRole(ctx context.Context) (map[identity.Role]int64, error) {
	var rows []groupCount
	if err := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Select("role AS grp, COUNT(*) AS count").Group("role").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[identity.Role]int64, len(rows))
	for _, row := range rows {
		out[identity.Role(row.Grp)] = row.Count
	}
	return out, nil
}

// CountByPlan counts users per plan
func (r *GormUserRepository) CountByPlan(ctx context.Context) (map[identity.Plan]int64, error) {
	var rows []groupCount
	if err := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Select("plan AS grp, COUNT(*) AS count").Group("plan").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[identity.Plan]int64, len(rows))
	for _, row := range rows {
		out[identity.Plan(row.Grp)] = row.Count
	}
	return out, nil
}

// CountSince counts accounts created at or after since
func (r *GormUserRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserModel{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

func usersToDomain(rows []*models.UserModel) []*identity.User {
	out := make([]*identity.User, len(rows))
	for i, m := range rows {
		out[i] = m.ToDomain()
	}
	return out
}
