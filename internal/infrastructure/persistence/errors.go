package persistence

import (
	"errors"

	"github.com/wazhop/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps GORM sentinel errors to domain errors
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	}
	return err
}

// checkAffected turns an update or delete that matched nothing into ErrNotFound
func checkAffected(result *gorm.DB) error {
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
