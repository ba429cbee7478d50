package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/currency"
	"github.com/wazhop/backend/internal/domain/shared"
	"github.com/wazhop/backend/internal/domain/whatsapp"
)

const (
	// MaxImagesPerProduct caps the gallery size of a product
	MaxImagesPerProduct = 10
	// DefaultLowStockThreshold applies when the seller sets none
	DefaultLowStockThreshold = 5
)

// ProductImage is a gallery image stored in object storage
type ProductImage struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	IsPrimary bool      `json:"is_primary"`
}

// Product is an item listed by a shop.
// It is the aggregate root for pricing, stock, images and boosts.
type Product struct {
	shared.BaseAggregateRoot
	ShopID            uuid.UUID
	Name              string
	Description       string
	Price             decimal.Decimal
	ComparePrice      *decimal.Decimal
	Currency          string
	PriceUSD          decimal.Decimal
	ComparePriceUSD   *decimal.Decimal
	CountryCode       string
	CountryName       string
	Images            []ProductImage
	Category          string
	Subcategory       string
	Tags              []string
	LocationState     string
	LocationArea      string
	IsActive          bool
	InStock           bool
	Stock             *int
	LowStockThreshold int
	TrackInventory    bool
	LastRestockDate   *time.Time
	SKU               string
	Clicks            int64
	Views             int64
	AverageRating     float64
	NumReviews        int
	Position          int
	Boost             Boost
}

// ProductInput carries the seller-editable fields of a product
type ProductInput struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	ComparePrice  *decimal.Decimal
	Currency      string
	CountryCode   string
	Category      string
	Subcategory   string
	Tags          []string
	LocationState string
	LocationArea  string
	InStock       *bool
	SKU           string
}

// NewProduct creates an active product at position in shopID
func NewProduct(shopID uuid.UUID, in ProductInput, position int) (*Product, error) {
	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ShopID:            shopID,
		Currency:          currency.DefaultCurrency,
		CountryCode:       currency.DefaultCountryCode,
		Category:          "other",
		IsActive:          true,
		InStock:           true,
		LowStockThreshold: DefaultLowStockThreshold,
		Position:          position,
	}
	if err := p.apply(in); err != nil {
		return nil, err
	}
	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

// ProductUpdate carries optional product fields; nil means unchanged
type ProductUpdate struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	ComparePrice  *decimal.Decimal
	ClearCompare  bool
	Currency      *string
	CountryCode   *string
	Category      *string
	Subcategory   *string
	Tags          []string
	LocationState *string
	LocationArea  *string
	InStock       *bool
	IsActive      *bool
	SKU           *string
}

// Update applies the non-nil fields of u
func (p *Product) Update(u ProductUpdate) error {
	in := p.input()
	if u.Name != nil {
		in.Name = *u.Name
	}
	if u.Description != nil {
		in.Description = *u.Description
	}
	if u.Price != nil {
		in.Price = *u.Price
	}
	if u.ComparePrice != nil {
		in.ComparePrice = u.ComparePrice
	}
	if u.ClearCompare {
		in.ComparePrice = nil
	}
	if u.Currency != nil {
		in.Currency = *u.Currency
	}
	if u.CountryCode != nil {
		in.CountryCode = *u.CountryCode
	}
	if u.Category != nil {
		in.Category = *u.Category
	}
	if u.Subcategory != nil {
		in.Subcategory = *u.Subcategory
	}
	if u.Tags != nil {
		in.Tags = u.Tags
	}
	if u.LocationState != nil {
		in.LocationState = *u.LocationState
	}
	if u.LocationArea != nil {
		in.LocationArea = *u.LocationArea
	}
	if u.InStock != nil {
		in.InStock = u.InStock
	}
	if u.SKU != nil {
		in.SKU = *u.SKU
	}
	if err := p.apply(in); err != nil {
		return err
	}
	if u.IsActive != nil {
		p.IsActive = *u.IsActive
	}
	p.touch()
	p.AddDomainEvent(NewProductUpdatedEvent(p))
	return nil
}

func (p *Product) input() ProductInput {
	inStock := p.InStock
	return ProductInput{
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		ComparePrice:  p.ComparePrice,
		Currency:      p.Currency,
		CountryCode:   p.CountryCode,
		Category:      p.Category,
		Subcategory:   p.Subcategory,
		Tags:          p.Tags,
		LocationState: p.LocationState,
		LocationArea:  p.LocationArea,
		InStock:       &inStock,
		SKU:           p.SKU,
	}
}

func (p *Product) apply(in ProductInput) error {
	name := strings.TrimSpace(in.Name)
	if n := len([]rune(name)); n < 2 || n > 200 {
		return shared.NewDomainError("INVALID_INPUT", "Product name must be between 2 and 200 characters")
	}
	if strings.TrimSpace(in.Description) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Product description is required")
	}
	if len([]rune(in.Description)) > 2000 {
		return shared.NewDomainError("INVALID_INPUT", "Description cannot exceed 2000 characters")
	}
	if in.Price.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Price cannot be negative")
	}
	if in.ComparePrice != nil && in.ComparePrice.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Compare price cannot be negative")
	}
	code := strings.ToUpper(strings.TrimSpace(in.Currency))
	if code == "" {
		code = currency.DefaultCurrency
	}
	if !currency.IsSupported(code) {
		return shared.NewDomainError("INVALID_INPUT", "Unsupported currency")
	}

	country := currency.CountryMeta(in.CountryCode)
	p.Name = name
	p.Description = in.Description
	p.Price = in.Price
	p.ComparePrice = in.ComparePrice
	p.Currency = code
	p.CountryCode = country.Code
	p.CountryName = country.Name
	p.Category = lowerOr(in.Category, "other")
	p.Subcategory = strings.ToLower(strings.TrimSpace(in.Subcategory))
	p.Tags = NormalizeTags(in.Tags)
	p.LocationState = strings.TrimSpace(in.LocationState)
	p.LocationArea = strings.TrimSpace(in.LocationArea)
	if in.InStock != nil {
		p.InStock = *in.InStock
	}
	p.SKU = strings.TrimSpace(in.SKU)
	return nil
}

// ApplyRates recomputes the USD prices from a rate table
func (p *Product) ApplyRates(rates currency.Rates) {
	p.PriceUSD = rates.ConvertToUSD(p.Price, p.Currency)
	if p.ComparePrice != nil {
		v := rates.ConvertToUSD(*p.ComparePrice, p.Currency)
		p.ComparePriceUSD = &v
	} else {
		p.ComparePriceUSD = nil
	}
}

// NormalizeTags lowercases, trims and de-duplicates tags. A single entry
// holding commas is split.
func NormalizeTags(tags []string) []string {
	if len(tags) == 1 && strings.Contains(tags[0], ",") {
		tags = strings.Split(tags[0], ",")
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// BelongsTo reports whether the product is listed in shopID
func (p *Product) BelongsTo(shopID uuid.UUID) bool {
	return p.ShopID == shopID
}

// PrimaryImage returns the image flagged primary, else the first image
func (p *Product) PrimaryImage() *ProductImage {
	if len(p.Images) == 0 {
		return nil
	}
	for i := range p.Images {
		if p.Images[i].IsPrimary {
			return &p.Images[i]
		}
	}
	return &p.Images[0]
}

// AddImages appends uploaded images; the first image of an empty gallery
// becomes primary.
func (p *Product) AddImages(images ...ProductImage) error {
	if len(images) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "Please upload at least one image")
	}
	if len(p.Images)+len(images) > MaxImagesPerProduct {
		return shared.NewDomainError("INVALID_INPUT", "Maximum 10 images allowed per product")
	}
	for i := range images {
		if images[i].ID == uuid.Nil {
			images[i].ID = uuid.New()
		}
		images[i].IsPrimary = len(p.Images) == 0
		p.Images = append(p.Images, images[i])
	}
	p.touch()
	return nil
}

// RemoveImage deletes an image and promotes the first remaining one when the
// primary was removed.
func (p *Product) RemoveImage(imageID uuid.UUID) (ProductImage, error) {
	for i, img := range p.Images {
		if img.ID != imageID {
			continue
		}
		p.Images = append(p.Images[:i], p.Images[i+1:]...)
		if len(p.Images) > 0 && !p.hasPrimary() {
			p.Images[0].IsPrimary = true
		}
		p.touch()
		return img, nil
	}
	return ProductImage{}, shared.NotFound("Image")
}

func (p *Product) hasPrimary() bool {
	for _, img := range p.Images {
		if img.IsPrimary {
			return true
		}
	}
	return false
}

// ImageBytes sums the stored size of all images
func (p *Product) ImageBytes() int64 {
	var total int64
	for _, img := range p.Images {
		total += img.Size
	}
	return total
}

// EnableInventory starts tracking stock with an initial quantity
func (p *Product) EnableInventory(stock, lowStockThreshold int) error {
	if stock < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Stock cannot be negative")
	}
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	now := time.Now()
	p.TrackInventory = true
	p.Stock = &stock
	p.LowStockThreshold = lowStockThreshold
	p.LastRestockDate = &now
	p.InStock = stock > 0
	p.touch()
	return nil
}

// DisableInventory stops tracking stock
func (p *Product) DisableInventory() {
	p.TrackInventory = false
	p.Stock = nil
	p.touch()
}

// IsTracked reports whether stock counts are enforced
func (p *Product) IsTracked() bool {
	return p.TrackInventory && p.Stock != nil
}

// CheckReserve reports whether qty can be taken from the loaded stock
// without changing it.
func (p *Product) CheckReserve(qty int) error {
	if qty <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Quantity must be at least 1")
	}
	if !p.InStock || !p.IsActive {
		return shared.NewDomainError("INSUFFICIENT_STOCK", p.Name+" is out of stock")
	}
	if p.IsTracked() && *p.Stock < qty {
		return p.insufficient()
	}
	return nil
}

// Reserve takes qty from tracked stock
func (p *Product) Reserve(qty int) error {
	if err := p.CheckReserve(qty); err != nil {
		return err
	}
	if p.IsTracked() {
		p.StockReserved(*p.Stock - qty)
	}
	return nil
}

// StockReserved records the stock left after a reservation, raising a
// low-stock event when it crosses the threshold.
func (p *Product) StockReserved(left int) {
	if !p.TrackInventory {
		return
	}
	p.Stock = &left
	p.InStock = left > 0
	p.touch()
	if p.IsLowStock() {
		p.AddDomainEvent(NewLowStockEvent(p))
	}
}

func (p *Product) insufficient() error {
	return shared.NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock for "+p.Name)
}

// InsufficientStock is the error returned when storage refuses a reservation
func (p *Product) InsufficientStock() error { return p.insufficient() }

// Release returns qty to tracked stock
func (p *Product) Release(qty int) {
	if !p.IsTracked() || qty <= 0 {
		return
	}
	back := *p.Stock + qty
	p.Stock = &back
	p.InStock = true
	p.touch()
}

// Restock sets tracked stock to qty
func (p *Product) Restock(qty int) error {
	if !p.IsTracked() {
		return shared.NewDomainError("INVALID_STATE", "Inventory tracking is not enabled for this product")
	}
	if qty < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Stock cannot be negative")
	}
	now := time.Now()
	p.Stock = &qty
	p.InStock = qty > 0
	p.LastRestockDate = &now
	p.touch()
	return nil
}

// IsLowStock reports whether tracked stock is at or under the threshold
func (p *Product) IsLowStock() bool {
	return p.IsTracked() && *p.Stock <= p.LowStockThreshold
}

// IncrementClicks counts a WhatsApp button click
func (p *Product) IncrementClicks() { p.Clicks++ }

// IncrementViews counts a product page view
func (p *Product) IncrementViews() { p.Views++ }

// SetRating stores the aggregate of approved reviews
func (p *Product) SetRating(r RatingSummary) {
	p.AverageRating = r.Average
	p.NumReviews = r.Count
}

// WhatsAppLink builds the buyer inquiry link for number
func (p *Product) WhatsAppLink(number string) string {
	local := currency.Format(p.Price, p.Currency)
	approx := currency.FormatUSDApprox(p.PriceUSD)
	return whatsapp.ChatLink(number, whatsapp.ProductInquiryMessage(p.Name, local, approx))
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

func lowerOr(s, fallback string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return fallback
	}
	return s
}
