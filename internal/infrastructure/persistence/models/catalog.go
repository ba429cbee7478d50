package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product aggregate.
type ProductModel struct {
	AggregateModel
	ShopID            uuid.UUID              `gorm:"type:uuid;not null;index"`
	Name              string                 `gorm:"type:varchar(200);not null"`
	Description       string                 `gorm:"type:text;not null"`
	Price             decimal.Decimal        `gorm:"type:decimal(14,2);not null"`
	ComparePrice      *decimal.Decimal       `gorm:"type:decimal(14,2)"`
	Currency          string                 `gorm:"type:varchar(3);not null;default:'NGN'"`
	PriceUSD          decimal.Decimal        `gorm:"column:price_usd;type:decimal(14,2)"`
	ComparePriceUSD   *decimal.Decimal       `gorm:"column:compare_price_usd;type:decimal(14,2)"`
	CountryCode       string                 `gorm:"type:varchar(2)"`
	CountryName       string                 `gorm:"type:varchar(60)"`
	Images            []catalog.ProductImage `gorm:"type:jsonb;serializer:json"`
	Category          string                 `gorm:"type:varchar(60);not null;default:'other';index"`
	Subcategory       string                 `gorm:"type:varchar(60)"`
	Tags              []string               `gorm:"type:jsonb;serializer:json"`
	LocationState     string                 `gorm:"type:varchar(60)"`
	LocationArea      string                 `gorm:"type:varchar(100)"`
	IsActive          bool                   `gorm:"not null;index"`
	InStock           bool                   `gorm:"not null"`
	Stock             *int
	LowStockThreshold int `gorm:"not null"`
	TrackInventory    bool
	LastRestockDate   *time.Time
	SKU               string  `gorm:"column:sku;type:varchar(60)"`
	Clicks            int64   `gorm:"not null;default:0"`
	Views             int64   `gorm:"not null;default:0"`
	AverageRating     float64 `gorm:"not null;default:0"`
	NumReviews        int     `gorm:"not null;default:0"`
	Position          int     `gorm:"not null;default:0"`
	BoostActive       bool    `gorm:"not null;default:false;index"`
	BoostStartAt      *time.Time
	BoostEndAt        *time.Time `gorm:"index"`
	BoostHours        int
	BoostAmount       decimal.Decimal `gorm:"type:decimal(14,2)"`
	BoostState        string          `gorm:"type:varchar(60)"`
	BoostArea         string          `gorm:"type:varchar(100)"`
	BoostCountry      string          `gorm:"type:varchar(2)"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ShopID:            m.ShopID,
		Name:              m.Name,
		Description:       m.Description,
		Price:             m.Price,
		ComparePrice:      m.ComparePrice,
		Currency:          m.Currency,
		PriceUSD:          m.PriceUSD,
		ComparePriceUSD:   m.ComparePriceUSD,
		CountryCode:       m.CountryCode,
		CountryName:       m.CountryName,
		Images:            m.Images,
		Category:          m.Category,
		Subcategory:       m.Subcategory,
		Tags:              m.Tags,
		LocationState:     m.LocationState,
		LocationArea:      m.LocationArea,
		IsActive:          m.IsActive,
		InStock:           m.InStock,
		Stock:             m.Stock,
		LowStockThreshold: m.LowStockThreshold,
		TrackInventory:    m.TrackInventory,
		LastRestockDate:   m.LastRestockDate,
		SKU:               m.SKU,
		Clicks:            m.Clicks,
		Views:             m.Views,
		AverageRating:     m.AverageRating,
		NumReviews:        m.NumReviews,
		Position:          m.Position,
		Boost: catalog.Boost{
			Active:        m.BoostActive,
			StartAt:       m.BoostStartAt,
			EndAt:         m.BoostEndAt,
			DurationHours: m.BoostHours,
			Amount:        m.BoostAmount,
			State:         m.BoostState,
			Area:          m.BoostArea,
			Country:       m.BoostCountry,
		},
	}
}

// FromDomain populates the persistence model from a domain Product.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.ShopID = p.ShopID
	m.Name = p.Name
	m.Description = p.Description
	m.Price = p.Price
	m.ComparePrice = p.ComparePrice
	m.Currency = p.Currency
	m.PriceUSD = p.PriceUSD
	m.ComparePriceUSD = p.ComparePriceUSD
	m.CountryCode = p.CountryCode
	m.CountryName = p.CountryName
	m.Images = p.Images
	m.Category = p.Category
	m.Subcategory = p.Subcategory
	m.Tags = p.Tags
	m.LocationState = p.LocationState
	m.LocationArea = p.LocationArea
	m.IsActive = p.IsActive
	m.InStock = p.InStock
	m.Stock = p.Stock
	m.LowStockThreshold = p.LowStockThreshold
	m.TrackInventory = p.TrackInventory
	m.LastRestockDate = p.LastRestockDate
	m.SKU = p.SKU
	m.Clicks = p.Clicks
	m.Views = p.Views
	m.AverageRating = p.AverageRating
	m.NumReviews = p.NumReviews
	m.Position = p.Position
	m.BoostActive = p.Boost.Active
	m.BoostStartAt = p.Boost.StartAt
	m.BoostEndAt = p.Boost.EndAt
	m.BoostHours = p.Boost.DurationHours
	m.BoostAmount = p.Boost.Amount
	m.BoostState = p.Boost.State
	m.BoostArea = p.Boost.Area
	m.BoostCountry = p.Boost.Country
}

// ProductModelFromDomain creates a new persistence model from a domain Product.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// ReviewModel is the persistence model for product reviews.
type ReviewModel struct {
	BaseModel
	ProductID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ShopID        uuid.UUID `gorm:"type:uuid;not null;index"`
	CustomerName  string    `gorm:"type:varchar(100);not null"`
	CustomerEmail string    `gorm:"type:varchar(200);index"`
	Rating        int       `gorm:"not null"`
	Comment       string    `gorm:"type:text;not null"`
	Image         string    `gorm:"type:varchar(500)"`
	IsVerified    bool      `gorm:"not null;default:false"`
	IsApproved    bool      `gorm:"not null;index"`
	Helpful       int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ReviewModel) TableName() string {
	return "reviews"
}

// ToDomain converts the persistence model to a domain Review.
func (m *ReviewModel) ToDomain() *catalog.Review {
	return &catalog.Review{
		BaseEntity:    m.BaseModel.ToDomain(),
		ProductID:     m.ProductID,
		ShopID:        m.ShopID,
		CustomerName:  m.CustomerName,
		CustomerEmail: m.CustomerEmail,
		Rating:        m.Rating,
		Comment:       m.Comment,
		Image:         m.Image,
		IsVerified:    m.IsVerified,
		IsApproved:    m.IsApproved,
		Helpful:       m.Helpful,
	}
}

// ReviewModelFromDomain creates a new persistence model from a domain Review.
func ReviewModelFromDomain(r *catalog.Review) *ReviewModel {
	m := &ReviewModel{
		ProductID:     r.ProductID,
		ShopID:        r.ShopID,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		Rating:        r.Rating,
		Comment:       r.Comment,
		Image:         r.Image,
		IsVerified:    r.IsVerified,
		IsApproved:    r.IsApproved,
		Helpful:       r.Helpful,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}
