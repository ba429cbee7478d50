package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/domain/shared"
)

// CreateProductInput contains the input for listing a product. A nil ShopID
// uses the owner's oldest active shop.
type CreateProductInput struct {
	OwnerID uuid.UUID
	ShopID  *uuid.UUID
	catalog.ProductInput
	TrackInventory    bool
	Stock             *int
	LowStockThreshold int
}

// UpdateProductInput is a partial product change
type UpdateProductInput struct {
	catalog.ProductUpdate
	TrackInventory    *bool
	Stock             *int
	LowStockThreshold *int
}

// MyProductsQuery narrows a seller's product listing
type MyProductsQuery struct {
	OwnerID uuid.UUID
	ShopID  *uuid.UUID
	catalog.ProductFilter
}

// MarketplaceInput is the public marketplace query
type MarketplaceInput struct {
	Search      string
	Category    string
	Subcategory string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	State       string
	Area        string
	Sort        string
	Page        int
	Limit       int
}

// ShopSummary is the shop information shown with a product
type ShopSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"shop_name"`
	Slug     string    `json:"slug"`
	LogoURL  string    `json:"logo,omitempty"`
	IsActive bool      `json:"is_active"`
	Verified bool      `json:"verified_badge"`
}

// MarketplaceItem is a ranked listing with its shop
type MarketplaceItem struct {
	catalog.RankedProduct
	Shop *ShopSummary `json:"shop,omitempty"`
}

// MarketplaceResult is a page of ranked listings
type MarketplaceResult = shared.Paginated[MarketplaceItem]

// ProductDetail is a product page
type ProductDetail struct {
	Product      *catalog.Product `json:"product"`
	Shop         ShopSummary      `json:"shop"`
	ShopInactive bool             `json:"shop_inactive"`
	Message      string           `json:"message,omitempty"`
}

// WhatsAppLinkResult is the buyer inquiry link of a product
type WhatsAppLinkResult struct {
	Link   string `json:"link"`
	Number string `json:"number"`
}

// BoostQuote is the price of a requested boost
type BoostQuote struct {
	ProductID uuid.UUID       `json:"product_id"`
	Hours     int             `json:"hours"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

// BoostStatus describes a product's boost
type BoostStatus struct {
	catalog.Boost
	Active         bool       `json:"active"`
	RemainingHours int        `json:"remaining_hours"`
	EndsAt         *time.Time `json:"ends_at,omitempty"`
}

// CreateReviewInput contains a customer's review
type CreateReviewInput struct {
	ProductID uuid.UUID
	catalog.ReviewInput
}

// ShopReviews is a page of a shop's reviews with approved-review stats
type ShopReviews struct {
	shared.Paginated[*catalog.Review]
	Summary      catalog.RatingSummary `json:"summary"`
	Distribution [6]int                `json:"distribution"`
}

// ProductReviews is a page of approved reviews with the rating aggregate
type ProductReviews struct {
	shared.Paginated[*catalog.Review]
	Summary      catalog.RatingSummary `json:"summary"`
	Distribution [6]int                `json:"distribution"`
}
