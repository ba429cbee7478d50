package persistence

import (
	"strings"

	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"created_at":  true,
	"name":        true,
	"email":       true,
	"plan":        true,
	"role":        true,
	"plan_expiry": true,
}

// ProductSortFields contains allowed sort fields for a shop's products
var ProductSortFields = map[string]bool{
	"position":   true,
	"created_at": true,
	"price":      true,
	"name":       true,
	"views":      true,
	"clicks":     true,
}

const (
	// DefaultPageSize is used when a listing does not ask for one
	DefaultPageSize = 20
	// MaxPageSize caps every listing
	MaxPageSize = 100
)

// NormalizePage clamps page and size into range
func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// Paginate returns a scope applying LIMIT/OFFSET for page and size
func Paginate(page, size int) func(*gorm.DB) *gorm.DB {
	page, size = NormalizePage(page, size)
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((page - 1) * size).Limit(size)
	}
}

// LikePattern builds a lower-cased contains pattern with LIKE wildcards escaped
func LikePattern(keyword string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(keyword))) + "%"
}
