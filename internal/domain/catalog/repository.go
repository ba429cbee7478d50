package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRepository persists products
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByShop(ctx context.Context, shopID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Product, error)
	FindByShop(ctx context.Context, shopID uuid.UUID, filter ProductFilter) ([]*Product, int64, error)
	// FindAll pages through products of every shop
	FindAll(ctx context.Context, filter ProductFilter) ([]*Product, int64, error)
	// FindMarketplace returns every candidate listing of active shops; ranking
	// and paging happen in memory.
	FindMarketplace(ctx context.Context, q MarketplaceQuery) ([]*Product, error)
	FindRelated(ctx context.Context, p *Product, limit int) ([]*Product, error)
	CountByShops(ctx context.Context, shopIDs []uuid.UUID) (int64, error)
	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	MaxPosition(ctx context.Context, shopID uuid.UUID) (int, error)
	UpdatePositions(ctx context.Context, shopID uuid.UUID, ordered []uuid.UUID) error
	IncrementClicks(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
	UpdateRating(ctx context.Context, id uuid.UUID, summary RatingSummary) error
	// ReserveStock takes qty from tracked stock in one conditional write and
	// returns what is left. It fails with INSUFFICIENT_STOCK when the stored
	// stock is short, whatever the caller loaded earlier.
	ReserveStock(ctx context.Context, id uuid.UUID, qty int) (int, error)
	// ReleaseStock puts qty back on tracked stock; untracked products are
	// left alone.
	ReleaseStock(ctx context.Context, id uuid.UUID, qty int) error
	// Recent returns the latest products across all shops
	Recent(ctx context.Context, limit int) ([]*Product, error)
}

// ProductFilter narrows a shop's product listing
type ProductFilter struct {
	Keyword  string
	Category string
	IsActive *bool
	// Without SortBy products come in the seller's manual order
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// MarketplaceQuery filters marketplace listings
type MarketplaceQuery struct {
	Category    string
	Subcategory string
	Keywords    []string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	State       string
	Area        string
	// ShopIDs restricts to shops matched by location, ORed with the product
	// and boost location fields.
	ShopIDs []uuid.UUID
	Sort    string
	Page    int
	Limit   int
}

// ReviewRepository persists reviews
type ReviewRepository interface {
	Create(ctx context.Context, r *Review) error
	Update(ctx context.Context, r *Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Review, error)
	FindApprovedByProduct(ctx context.Context, productID uuid.UUID, page, pageSize int) ([]*Review, int64, error)
	FindByShop(ctx context.Context, shopID uuid.UUID, page, pageSize int) ([]*Review, int64, error)
	// AllByProduct and AllByShop return every review, for rating aggregates
	AllByProduct(ctx context.Context, productID uuid.UUID) ([]*Review, error)
	AllByShop(ctx context.Context, shopID uuid.UUID) ([]*Review, error)
	ExistsByEmail(ctx context.Context, productID uuid.UUID, email string) (bool, error)
	DeleteByShop(ctx context.Context, shopID uuid.UUID) error
}
