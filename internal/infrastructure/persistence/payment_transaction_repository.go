package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/billing"
	"github.com/wazhop/backend/internal/domain/shared"
	"github.com/wazhop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTransactionRepository implements billing.TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Create records a new payment
func (r *GormTransactionRepository) Create(ctx context.Context, t *billing.Transaction) error {
	return translateError(r.db.WithContext(ctx).Create(models.PaymentTransactionModelFromDomain(t)).Error)
}

// Update saves every column of a payment unless a newer version is already
// stored. A payment stored as successful is final and is never overwritten.
func (r *GormTransactionRepository) Update(ctx context.Context, t *billing.Transaction) error {
	model := models.PaymentTransactionModelFromDomain(t)
	result := r.db.WithContext(ctx).Model(model).
		Where("version < ? AND status <> ?", t.Version, billing.StatusSuccessful).
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

// FindByReference finds a payment by its reference
func (r *GormTransactionRepository) FindByReference(ctx context.Context, ref string) (*billing.Transaction, error) {
	var model models.PaymentTransactionModel
	if err := r.db.WithContext(ctx).First(&model, "reference = ?", ref).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByUser returns a user's latest payments
func (r *GormTransactionRepository) FindByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*billing.Transaction, error) {
	var rows []*models.PaymentTransactionModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("initiated_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return transactionsToDomain(rows), nil
}

// FindAll pages through payments, newest first
func (r *GormTransactionRepository) FindAll(ctx context.Context, filter billing.TransactionFilter) ([]*billing.Transaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentTransactionModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []*models.PaymentTransactionModel
	if err := query.Order("initiated_at DESC").Scopes(Paginate(filter.Page, filter.PageSize)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return transactionsToDomain(rows), total, nil
}

// MarkAbandoned abandons initiated payments started before cutoff in one statement
func (r *GormTransactionRepository) MarkAbandoned(ctx context.Context, cutoff time.Time, message string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.PaymentTransactionModel{}).
		Where("status = ? AND initiated_at < ?", billing.StatusInitiated, cutoff).
		UpdateColumns(map[string]any{
			"status":        billing.StatusAbandoned,
			"error_message": message,
			"updated_at":    time.Now(),
			"version":       gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}

// Totals counts and sums payments started since filter.Since per type and status
func (r *GormTransactionRepository) Totals(ctx context.Context, filter billing.AnalyticsFilter) ([]billing.StatusTotal, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentTransactionModel{}).
		Select("type, status, COUNT(*) AS count, SUM(amount) AS amount").
		Where("initiated_at >= ?", filter.Since)
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	var rows []struct {
		Type   billing.TransactionType
		Status billing.TransactionStatus
		Count  int64
		Amount decimal.NullDecimal
	}
	if err := query.Group("type, status").Order("type, status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]billing.StatusTotal, len(rows))
	for i, row := range rows {
		out[i] = billing.StatusTotal{Type: row.Type, Status: row.Status, Count: row.Count, Amount: row.Amount.Decimal}
	}
	return out, nil
}

func transactionsToDomain(rows []*models.PaymentTransactionModel) []*billing.Transaction {
	out := make([]*billing.Transaction, len(rows))
	for i, m := range rows {
		out[i] = m.ToDomain()
	}
	return out
}
