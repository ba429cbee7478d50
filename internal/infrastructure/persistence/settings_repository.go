package persistence

import (
	"context"
	"errors"

	"github.com/wazhop/backend/internal/domain/settings"
	"github.com/wazhop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSettingsRepository implements settings.Repository using GORM
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// Get returns the settings row, inserting the defaults when the table is empty
func (r *GormSettingsRepository) Get(ctx context.Context) (*settings.Platform, error) {
	var model models.PlatformSettingsModel
	err := r.db.WithContext(ctx).Order("created_at ASC").First(&model).Error
	if err == nil {
		return model.ToDomain(), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	p := settings.Default()
	if err := r.db.WithContext(ctx).Create(models.PlatformSettingsModelFromDomain(p)).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// Save stores the settings row
func (r *GormSettingsRepository) Save(ctx context.Context, p *settings.Platform) error {
	return r.db.WithContext(ctx).Save(models.PlatformSettingsModelFromDomain(p)).Error
}
