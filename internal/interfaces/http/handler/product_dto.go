package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	catalogapp "github.com/wazhop/backend/internal/application/catalog"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/domain/shared"
)

// =====================
// Product Request DTOs
// =====================

// MarketplaceQuery is the public marketplace query string
type MarketplaceQuery struct {
	Search      string           `form:"search" binding:"max=100"`
	Category    string           `form:"category"`
	Subcategory string           `form:"subcategory"`
	MinPrice    *decimal.Decimal `form:"min_price"`
	MaxPrice    *decimal.Decimal `form:"max_price"`
	State       string           `form:"state"`
	Area        string           `form:"area"`
	Sort        string           `form:"sort" binding:"omitempty,oneof=featured newest popular"`
	Page        int              `form:"page" binding:"omitempty,min=1"`
	Limit       int              `form:"limit" binding:"omitempty,min=1,max=100"`
}

// MyProductsQuery narrows a seller's product listing
type MyProductsQuery struct {
	ShopID    string `form:"shop_id" binding:"omitempty,uuid"`
	Search    string `form:"search"`
	Category  string `form:"category"`
	IsActive  *bool  `form:"is_active"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// CreateProductRequest lists a product
type CreateProductRequest struct {
	ShopID            *uuid.UUID       `json:"shop_id"`
	Name              string           `json:"name" binding:"required,min=2,max=200"`
	Description       string           `json:"description" binding:"max=2000"`
	Price             *decimal.Decimal `json:"price" binding:"required"`
	ComparePrice      *decimal.Decimal `json:"compare_price"`
	Currency          string           `json:"currency" binding:"omitempty,len=3"`
	CountryCode       string           `json:"country_code" binding:"omitempty,len=2"`
	Category          string           `json:"category" binding:"max=50"`
	Subcategory       string           `json:"subcategory" binding:"max=50"`
	Tags              []string         `json:"tags" binding:"max=20,dive,max=30"`
	LocationState     string           `json:"location_state" binding:"max=50"`
	LocationArea      string           `json:"location_area" binding:"max=100"`
	InStock           *bool            `json:"in_stock"`
	SKU               string           `json:"sku" binding:"max=50"`
	TrackInventory    bool             `json:"track_inventory"`
	Stock             *int             `json:"stock" binding:"omitempty,min=0"`
	LowStockThreshold int              `json:"low_stock_threshold" binding:"min=0"`
}

func (r CreateProductRequest) toInput(ownerID uuid.UUID) catalogapp.CreateProductInput {
	return catalogapp.CreateProductInput{
		OwnerID: ownerID,
		ShopID:  r.ShopID,
		ProductInput: catalog.ProductInput{
			Name:          r.Name,
			Description:   r.Description,
			Price:         *r.Price,
			ComparePrice:  r.ComparePrice,
			Currency:      r.Currency,
			CountryCode:   r.CountryCode,
			Category:      r.Category,
			Subcategory:   r.Subcategory,
			Tags:          r.Tags,
			LocationState: r.LocationState,
			LocationArea:  r.LocationArea,
			InStock:       r.InStock,
			SKU:           r.SKU,
		},
		TrackInventory:    r.TrackInventory,
		Stock:             r.Stock,
		LowStockThreshold: r.LowStockThreshold,
	}
}

// UpdateProductRequest is a partial product change. ClearComparePrice
// removes the compare-at price.
type UpdateProductRequest struct {
	Name              *string          `json:"name" binding:"omitempty,min=2,max=200"`
	Description       *string          `json:"description" binding:"omitempty,max=2000"`
	Price             *decimal.Decimal `json:"price"`
	ComparePrice      *decimal.Decimal `json:"compare_price"`
	ClearComparePrice bool             `json:"clear_compare_price"`
	Currency          *string          `json:"currency" binding:"omitempty,len=3"`
	CountryCode       *string          `json:"country_code" binding:"omitempty,len=2"`
	Category          *string          `json:"category" binding:"omitempty,max=50"`
	Subcategory       *string          `json:"subcategory" binding:"omitempty,max=50"`
	Tags              []string         `json:"tags" binding:"omitempty,max=20,dive,max=30"`
	LocationState     *string          `json:"location_state" binding:"omitempty,max=50"`
	LocationArea      *string          `json:"location_area" binding:"omitempty,max=100"`
	InStock           *bool            `json:"in_stock"`
	IsActive          *bool            `json:"is_active"`
	SKU               *string          `json:"sku" binding:"omitempty,max=50"`
	TrackInventory    *bool            `json:"track_inventory"`
	Stock             *int             `json:"stock" binding:"omitempty,min=0"`
	LowStockThreshold *int             `json:"low_stock_threshold" binding:"omitempty,min=0"`
}

func (r UpdateProductRequest) toInput() catalogapp.UpdateProductInput {
	return catalogapp.UpdateProductInput{
		ProductUpdate: catalog.ProductUpdate{
			Name:          r.Name,
			Description:   r.Description,
			Price:         r.Price,
			ComparePrice:  r.ComparePrice,
			ClearCompare:  r.ClearComparePrice,
			Currency:      r.Currency,
			CountryCode:   r.CountryCode,
			Category:      r.Category,
			Subcategory:   r.Subcategory,
			Tags:          r.Tags,
			LocationState: r.LocationState,
			LocationArea:  r.LocationArea,
			InStock:       r.InStock,
			IsActive:      r.IsActive,
			SKU:           r.SKU,
		},
		TrackInventory:    r.TrackInventory,
		Stock:             r.Stock,
		LowStockThreshold: r.LowStockThreshold,
	}
}

// ReorderRequest stores the display order of a shop's products
type ReorderRequest struct {
	ShopID     uuid.UUID   `json:"shop_id" binding:"required"`
	ProductIDs []uuid.UUID `json:"product_ids" binding:"required,min=1"`
}

// BoostRequest asks to boost a product for a number of hours, optionally
// targeted at a location
type BoostRequest struct {
	Hours       int    `json:"hours" form:"hours" binding:"required,min=1,max=720"`
	State       string `json:"state" form:"state" binding:"max=50"`
	Area        string `json:"area" form:"area" binding:"max=100"`
	RedirectURL string `json:"redirect_url" form:"-" binding:"omitempty,url"`
}

// AddImagesRequest asks for presigned gallery uploads
type AddImagesRequest struct {
	Images []UploadRequest `json:"images" binding:"required,min=1,max=10,dive"`
}

// =====================
// Product Response DTOs
// =====================

// ProductResponse is a product as shown to buyers and its seller
type ProductResponse struct {
	ID                uuid.UUID              `json:"id"`
	ShopID            uuid.UUID              `json:"shop_id"`
	Name              string                 `json:"name"`
	Description       string                 `json:"description"`
	Price             decimal.Decimal        `json:"price"`
	ComparePrice      *decimal.Decimal       `json:"compare_price,omitempty"`
	Currency          string                 `json:"currency"`
	PriceUSD          decimal.Decimal        `json:"price_usd"`
	ComparePriceUSD   *decimal.Decimal       `json:"compare_price_usd,omitempty"`
	CountryCode       string                 `json:"country_code"`
	CountryName       string                 `json:"country_name"`
	Images            []catalog.ProductImage `json:"images"`
	Category          string                 `json:"category"`
	Subcategory       string                 `json:"subcategory,omitempty"`
	Tags              []string               `json:"tags"`
	LocationState     string                 `json:"location_state,omitempty"`
	LocationArea      string                 `json:"location_area,omitempty"`
	IsActive          bool                   `json:"is_active"`
	InStock           bool                   `json:"in_stock"`
	Stock             *int                   `json:"stock,omitempty"`
	LowStockThreshold int                    `json:"low_stock_threshold"`
	TrackInventory    bool                   `json:"track_inventory"`
	LastRestockDate   *time.Time             `json:"last_restock_date,omitempty"`
	SKU               string                 `json:"sku,omitempty"`
	Clicks            int64                  `json:"clicks"`
	Views             int64                  `json:"views"`
	AverageRating     float64                `json:"average_rating"`
	NumReviews        int                    `json:"num_reviews"`
	Position          int                    `json:"position"`
	Boost             catalog.Boost          `json:"boost"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// MarketplaceItemResponse is a ranked listing with its shop
type MarketplaceItemResponse struct {
	ProductResponse
	IsBoosted           bool                    `json:"is_boosted"`
	RemainingBoostHours float64                 `json:"remaining_boost_hours"`
	RelevanceScore      int                     `json:"relevance_score"`
	Shop                *catalogapp.ShopSummary `json:"shop,omitempty"`
}

// ProductDetailResponse is a product page
type ProductDetailResponse struct {
	Product      ProductResponse        `json:"product"`
	Shop         catalogapp.ShopSummary `json:"shop"`
	ShopInactive bool                   `json:"shop_inactive"`
	Message      string                 `json:"message,omitempty"`
}

func toProductResponse(p *catalog.Product) ProductResponse {
	images := p.Images
	if images == nil {
		images = []catalog.ProductImage{}
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return ProductResponse{
		ID:                p.ID,
		ShopID:            p.ShopID,
		Name:              p.Name,
		Description:       p.Description,
		Price:             p.Price,
		ComparePrice:      p.ComparePrice,
		Currency:          p.Currency,
		PriceUSD:          p.PriceUSD,
		ComparePriceUSD:   p.ComparePriceUSD,
		CountryCode:       p.CountryCode,
		CountryName:       p.CountryName,
		Images:            images,
		Category:          p.Category,
		Subcategory:       p.Subcategory,
		Tags:              tags,
		LocationState:     p.LocationState,
		LocationArea:      p.LocationArea,
		IsActive:          p.IsActive,
		InStock:           p.InStock,
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		TrackInventory:    p.TrackInventory,
		LastRestockDate:   p.LastRestockDate,
		SKU:               p.SKU,
		Clicks:            p.Clicks,
		Views:             p.Views,
		AverageRating:     p.AverageRating,
		NumReviews:        p.NumReviews,
		Position:          p.Position,
		Boost:             p.Boost,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func toProductResponses(products []*catalog.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	return out
}

func toMarketplacePage(r *catalogapp.MarketplaceResult) shared.Paginated[MarketplaceItemResponse] {
	return mapPage(*r, func(it catalogapp.MarketplaceItem) MarketplaceItemResponse {
		return MarketplaceItemResponse{
			ProductResponse:     toProductResponse(it.Product),
			IsBoosted:           it.IsBoosted,
			RemainingBoostHours: it.RemainingBoostHours,
			RelevanceScore:      it.RelevanceScore,
			Shop:                it.Shop,
		}
	})
}

func toProductDetailResponse(d *catalogapp.ProductDetail) ProductDetailResponse {
	return ProductDetailResponse{
		Product:      toProductResponse(d.Product),
		Shop:         d.Shop,
		ShopInactive: d.ShopInactive,
		Message:      d.Message,
	}
}

// mapPage converts the items of a page, keeping its counters
func mapPage[T, R any](p shared.Paginated[T], convert func(T) R) shared.Paginated[R] {
	items := make([]R, len(p.Items))
	for i, it := range p.Items {
		items[i] = convert(it)
	}
	return shared.Paginated[R]{
		Items:      items,
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
	}
}

// =====================
// Review DTOs
// =====================

// CreateReviewRequest is a customer's review of a product
type CreateReviewRequest struct {
	ProductID     uuid.UUID `json:"product_id" binding:"required"`
	CustomerName  string    `json:"customer_name" binding:"required,max=100"`
	CustomerEmail string    `json:"customer_email" binding:"omitempty,email"`
	Rating        int       `json:"rating" binding:"required,min=1,max=5"`
	Comment       string    `json:"comment" binding:"required,min=10,max=1000"`
	Image         string    `json:"image" binding:"omitempty,url"`
}

// ApproveReviewRequest approves or hides a review
type ApproveReviewRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

// ReviewResponse is a review. The customer email is never exposed.
type ReviewResponse struct {
	ID           uuid.UUID `json:"id"`
	ProductID    uuid.UUID `json:"product_id"`
	ShopID       uuid.UUID `json:"shop_id"`
	CustomerName string    `json:"customer_name"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	Image        string    `json:"image,omitempty"`
	IsVerified   bool      `json:"is_verified"`
	IsApproved   bool      `json:"is_approved"`
	Helpful      int       `json:"helpful"`
	CreatedAt    time.Time `json:"created_at"`
}

// ReviewPageResponse is a page of reviews with rating stats
type ReviewPageResponse struct {
	Reviews      []ReviewResponse      `json:"reviews"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
	TotalPages   int                   `json:"total_pages"`
	Summary      catalog.RatingSummary `json:"summary"`
	Distribution [6]int                `json:"distribution"`
}

func toReviewResponse(r *catalog.Review) ReviewResponse {
	return ReviewResponse{
		ID:           r.ID,
		ProductID:    r.ProductID,
		ShopID:       r.ShopID,
		CustomerName: r.CustomerName,
		Rating:       r.Rating,
		Comment:      r.Comment,
		Image:        r.Image,
		IsVerified:   r.IsVerified,
		IsApproved:   r.IsApproved,
		Helpful:      r.Helpful,
		CreatedAt:    r.CreatedAt,
	}
}

func toReviewPage(p shared.Paginated[*catalog.Review], summary catalog.RatingSummary, dist [6]int) ReviewPageResponse {
	page := mapPage(p, toReviewResponse)
	return ReviewPageResponse{
		Reviews:      page.Items,
		Total:        page.Total,
		Page:         page.Page,
		PageSize:     page.PageSize,
		TotalPages:   page.TotalPages,
		Summary:      summary,
		Distribution: dist,
	}
}
