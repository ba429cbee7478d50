// Package catalog lists products, ranks the marketplace and collects reviews.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/application/media"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/domain/currency"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/shared"
	"github.com/wazhop/backend/internal/domain/storefront"
	"go.uber.org/zap"
)

const (
	defaultMarketplaceLimit = 24
	maxMarketplaceLimit     = 100
	defaultRelatedLimit     = 8
	maxBoostHours           = 24 * 30
)

// RateProvider supplies the current exchange rates
type RateProvider interface {
	Rates(ctx context.Context) currency.Rates
}

// ProductService handles listing and selling products
type ProductService struct {
	products catalog.ProductRepository
	shops    storefront.ShopRepository
	users    identity.UserRepository
	media    *media.Service
	rates    RateProvider
	events   shared.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
	rnd      *rand.Rand
}

// NewProductService creates a product service
func NewProductService(
	products catalog.ProductRepository,
	shops storefront.ShopRepository,
	users identity.UserRepository,
	mediaSvc *media.Service,
	rates RateProvider,
	events shared.EventPublisher,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		products: products,
		shops:    shops,
		users:    users,
		media:    mediaSvc,
		rates:    rates,
		events:   events,
		logger:   logger,
		now:      time.Now,
		rnd:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
	}
}

// Marketplace ranks active listings of active shops and returns one page
func (s *ProductService) Marketplace(ctx context.Context, in MarketplaceInput) (*MarketplaceResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultMarketplaceLimit
	}
	if limit > maxMarketplaceLimit {
		limit = maxMarketplaceLimit
	}

	q := catalog.MarketplaceQuery{
		Category:    categoryFilter(in.Category),
		Subcategory: categoryFilter(in.Subcategory),
		Keywords:    catalog.Keywords(in.Search),
		MinPrice:    in.MinPrice,
		MaxPrice:    in.MaxPrice,
		State:       strings.TrimSpace(in.State),
		Area:        strings.TrimSpace(in.Area),
		Sort:        in.Sort,
	}
	if q.State != "" || q.Area != "" {
		ids, err := s.shops.FindActiveIDsByLocation(ctx, nonEmpty(q.State, q.Area)...)
		if err != nil {
			return nil, err
		}
		q.ShopIDs = ids
	}

	candidates, err := s.products.FindMarketplace(ctx, q)
	if err != nil {
		return nil, err
	}
	ranked := catalog.Rank(candidates, in.Search, in.Sort, s.now(), s.rnd)

	total := int64(len(ranked))
	start := (page - 1) * limit
	if start > len(ranked) {
		start = len(ranked)
	}
	end := start + limit
	if end > len(ranked) {
		end = len(ranked)
	}
	window := ranked[start:end]

	shops, err := s.shopSummaries(ctx, window)
	if err != nil {
		return nil, err
	}
	items := make([]MarketplaceItem, len(window))
	for i, r := range window {
		items[i] = MarketplaceItem{RankedProduct: r, Shop: shops[r.ShopID]}
	}
	result := shared.NewPaginated(items, total, page, limit)
	return &result, nil
}

func (s *ProductService) shopSummaries(ctx context.Context, ranked []catalog.RankedProduct) (map[uuid.UUID]*ShopSummary, error) {
	out := make(map[uuid.UUID]*ShopSummary)
	for _, r := range ranked {
		if _, ok := out[r.ShopID]; ok {
			continue
		}
		shop, err := s.shops.FindByID(ctx, r.ShopID)
		if err != nil {
			return nil, err
		}
		summary := summarize(shop)
		out[r.ShopID] = &summary
	}
	return out, nil
}

// Get returns a public product page and counts the view. Products of
// deactivated shops are shown as unavailable.
func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	shop, err := s.shops.FindByID(ctx, p.ShopID)
	if err != nil {
		return nil, shared.NotFound("Product")
	}
	if err := s.products.IncrementViews(ctx, p.ID); err != nil {
		s.logger.Warn("Failed to count product view", zap.String("product_id", p.ID.String()), zap.Error(err))
	} else {
		p.IncrementViews()
	}
	detail := &ProductDetail{Product: p, Shop: summarize(shop), ShopInactive: !shop.IsActive}
	if !shop.IsActive {
		detail.Message = "This shop is temporarily unavailable due to plan limits. Products cannot be purchased at this time."
	}
	return detail, nil
}

// Related returns other listings in the product's category
func (s *ProductService) Related(ctx context.Context, id uuid.UUID, limit int) ([]*catalog.Product, error) {
	if limit <= 0 || limit > maxMarketplaceLimit {
		limit = defaultRelatedLimit
	}
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.products.FindRelated(ctx, p, limit)
}

// TrackClick counts a WhatsApp button click
func (s *ProductService) TrackClick(ctx context.Context, id uuid.UUID) error {
	return s.products.IncrementClicks(ctx, id)
}

// WhatsAppLink builds the inquiry link to the seller of a product
func (s *ProductService) WhatsAppLink(ctx context.Context, id uuid.UUID) (*WhatsAppLinkResult, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	shop, err := s.shops.FindByID(ctx, p.ShopID)
	if err != nil {
		return nil, err
	}
	number := shop.WhatsAppNumber
	if number == "" {
		owner, err := s.users.FindByID(ctx, shop.OwnerID)
		if err != nil {
			return nil, err
		}
		number = owner.WhatsApp
	}
	if number == "" {
		return nil, shared.NewDomainError("INVALID_STATE", "This shop has no WhatsApp number")
	}
	if err := s.products.IncrementClicks(ctx, p.ID); err != nil {
		s.logger.Warn("Failed to count product click", zap.String("product_id", p.ID.String()), zap.Error(err))
	}
	return &WhatsAppLinkResult{Link: p.WhatsAppLink(number), Number: number}, nil
}

// ListMine returns a seller's products from one shop or all of their shops
func (s *ProductService) ListMine(ctx context.Context, q MyProductsQuery) (shared.Paginated[*catalog.Product], error) {
	var shopIDs []uuid.UUID
	if q.ShopID != nil {
		shop, err := s.ownedShop(ctx, q.OwnerID, *q.ShopID)
		if err != nil {
			return shared.Paginated[*catalog.Product]{}, err
		}
		shopIDs = []uuid.UUID{shop.ID}
	} else {
		shops, err := s.shops.FindByOwner(ctx, q.OwnerID)
		if err != nil {
			return shared.Paginated[*catalog.Product]{}, err
		}
		if len(shops) == 0 {
			return shared.Paginated[*catalog.Product]{}, shared.NotFound("Shop")
		}
		for _, sh := range shops {
			shopIDs = append(shopIDs, sh.ID)
		}
	}

	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}
	var all []*catalog.Product
	var total int64
	for _, id := range shopIDs {
		filter := q.ProductFilter
		filter.Page, filter.PageSize = 1, 1000
		items, n, err := s.products.FindByShop(ctx, id, filter)
		if err != nil {
			return shared.Paginated[*catalog.Product]{}, err
		}
		all = append(all, items...)
		total += n
	}
	start := min((page-1)*size, len(all))
	end := min(start+size, len(all))
	return shared.NewPaginated(all[start:end], total, page, size), nil
}

// GetMine returns a product the seller owns
func (s *ProductService) GetMine(ctx context.Context, ownerID, id uuid.UUID) (*catalog.Product, error) {
	p, _, err := s.ownedProduct(ctx, ownerID, id)
	return p, err
}

// Create lists a product. The owner's plan caps the products across their
// active shops and gates inventory tracking.
func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*catalog.Product, error) {
	owner, err := s.users.FindByID(ctx, in.OwnerID)
	if err != nil {
		return nil, err
	}
	shops, err := s.shops.FindByOwner(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	shop, err := pickShop(shops, in.ShopID)
	if err != nil {
		return nil, err
	}
	if !shop.IsActive {
		return nil, shared.Forbidden("Cannot add products to an inactive shop. This shop was deactivated due to plan limits. Please upgrade your plan to reactivate it.")
	}

	var activeIDs []uuid.UUID
	for _, sh := range shops {
		if sh.IsActive {
			activeIDs = append(activeIDs, sh.ID)
		}
	}
	count, err := s.products.CountByShops(ctx, activeIDs)
	if err != nil {
		return nil, err
	}
	limits := owner.Limits()
	if !identity.AllowsCount(limits.Products, int(count)) {
		return nil, shared.PlanLimit(fmt.Sprintf(
			"Your %s plan allows up to %d products. Please upgrade to add more.", owner.Plan, limits.Products))
	}

	pos, err := s.products.MaxPosition(ctx, shop.ID)
	if err != nil {
		return nil, err
	}
	p, err := catalog.NewProduct(shop.ID, in.ProductInput, pos+1)
	if err != nil {
		return nil, err
	}
	if in.TrackInventory {
		if !owner.Limits().Has(identity.FeatureInventoryManagement) {
			return nil, shared.PlanLimit("Inventory management is available on the Pro and Premium plans")
		}
		stock := 0
		if in.Stock != nil {
			stock = *in.Stock
		}
		if err := p.EnableInventory(stock, in.LowStockThreshold); err != nil {
			return nil, err
		}
	}
	p.ApplyRates(s.rates.Rates(ctx))

	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	s.publish(ctx, p)
	s.logger.Info("Product created",
		zap.String("product_id", p.ID.String()),
		zap.String("shop_id", shop.ID.String()))
	return p, nil
}

// Update changes a product of an active shop
func (s *ProductService) Update(ctx context.Context, ownerID, id uuid.UUID, in UpdateProductInput) (*catalog.Product, error) {
	p, shop, err := s.ownedProduct(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !shop.IsActive {
		return nil, shared.Forbidden("Cannot update products in an inactive shop. Please upgrade your plan to reactivate this shop.")
	}
	if err := p.Update(in.ProductUpdate); err != nil {
		return nil, err
	}
	if err := s.applyInventory(ctx, ownerID, p, in); err != nil {
		return nil, err
	}
	p.ApplyRates(s.rates.Rates(ctx))

	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	s.publish(ctx, p)
	return p, nil
}

func (s *ProductService) applyInventory(ctx context.Context, ownerID uuid.UUID, p *catalog.Product, in UpdateProductInput) error {
	switch {
	case in.TrackInventory != nil && !*in.TrackInventory:
		p.DisableInventory()
		return nil
	case in.TrackInventory != nil && *in.TrackInventory && !p.IsTracked():
		owner, err := s.users.FindByID(ctx, ownerID)
		if err != nil {
			return err
		}
		if !owner.Limits().Has(identity.FeatureInventoryManagement) {
			return shared.PlanLimit("Inventory management is available on the Pro and Premium plans")
		}
		stock, threshold := 0, 0
		if in.Stock != nil {
			stock = *in.Stock
		}
		if in.LowStockThreshold != nil {
			threshold = *in.LowStockThreshold
		}
		return p.EnableInventory(stock, threshold)
	case in.Stock != nil:
		return p.Restock(*in.Stock)
	}
	return nil
}

// Delete removes a product and frees its image storage
func (s *ProductService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	p, shop, err := s.ownedProduct(ctx, ownerID, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, p, shop)
}

// Remove deletes any product on behalf of an admin. Freed storage is
// credited to the shop owner.
func (s *ProductService) Remove(ctx context.Context, id uuid.UUID) error {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return err
	}
	shop, err := s.shops.FindByID(ctx, p.ShopID)
	if err != nil {
		return err
	}
	return s.remove(ctx, p, shop)
}

func (s *ProductService) remove(ctx context.Context, p *catalog.Product, shop *storefront.Shop) error {
	if err := s.products.Delete(ctx, p.ID); err != nil {
		return err
	}
	objects := make([]media.Object, 0, len(p.Images))
	for _, img := range p.Images {
		objects = append(objects, media.Object{Key: img.Key, Size: img.Size})
	}
	s.media.Release(ctx, shop.OwnerID, objects...)
	s.logger.Info("Product deleted", zap.String("product_id", p.ID.String()))
	return nil
}

// Reorder stores the display order of a shop's products
func (s *ProductService) Reorder(ctx context.Context, ownerID, shopID uuid.UUID, ordered []uuid.UUID) error {
	if len(ordered) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "Product IDs must be a non-empty list")
	}
	shop, err := s.ownedShop(ctx, ownerID, shopID)
	if err != nil {
		return err
	}
	return s.products.UpdatePositions(ctx, shop.ID, ordered)
}

// AddImages reserves storage for new gallery images and attaches them
func (s *ProductService) AddImages(ctx context.Context, ownerID, id uuid.UUID, reqs []media.UploadRequest) ([]media.Ticket, error) {
	p, _, err := s.ownedProduct(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if len(p.Images)+len(reqs) > catalog.MaxImagesPerProduct {
		return nil, shared.NewDomainError("INVALID_INPUT", "Maximum 10 images allowed per product")
	}
	tickets, err := s.media.ReserveMany(ctx, ownerID, "products", reqs)
	if err != nil {
		return nil, err
	}
	images := make([]catalog.ProductImage, len(tickets))
	for i, t := range tickets {
		images[i] = catalog.ProductImage{ID: uuid.New(), URL: t.PublicURL, Key: t.Key, Size: t.Size}
	}
	if err := p.AddImages(images...); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return tickets, nil
}

// RemoveImage deletes a gallery image and frees its storage
func (s *ProductService) RemoveImage(ctx context.Context, ownerID, id, imageID uuid.UUID) (*catalog.Product, error) {
	p, _, err := s.ownedProduct(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	img, err := p.RemoveImage(imageID)
	if err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	s.media.Release(ctx, ownerID, media.Object{Key: img.Key, Size: img.Size})
	return p, nil
}

// QuoteBoost checks that the seller may boost a product and prices it
func (s *ProductService) QuoteBoost(ctx context.Context, ownerID, id uuid.UUID, req catalog.BoostRequest) (*BoostQuote, error) {
	if req.Hours < 1 || req.Hours > maxBoostHours {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Boost hours must be between 1 and %d", maxBoostHours))
	}
	p, shop, err := s.ownedProduct(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !shop.IsActive {
		return nil, shared.Forbidden("Cannot boost products in an inactive shop")
	}
	if !p.IsActive {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot boost an inactive product")
	}
	return &BoostQuote{ProductID: p.ID, Hours: req.Hours, Amount: catalog.BoostCost(req.Hours), Currency: currency.DefaultCurrency}, nil
}

// ApplyBoost starts or extends a boost once it has been paid for
func (s *ProductService) ApplyBoost(ctx context.Context, id uuid.UUID, req catalog.BoostRequest) (*catalog.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	amount, err := p.ApplyBoost(req, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	s.publish(ctx, p)
	s.logger.Info("Product boosted",
		zap.String("product_id", p.ID.String()),
		zap.Int("hours", req.Hours),
		zap.String("amount", amount.String()))
	return p, nil
}

// BoostStatus reports the boost of a seller's product
func (s *ProductService) BoostStatus(ctx context.Context, ownerID, id uuid.UUID) (*BoostStatus, error) {
	p, _, err := s.ownedProduct(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &BoostStatus{
		Boost:          p.Boost,
		Active:         p.IsBoosted(now),
		RemainingHours: p.RemainingBoostWholeHours(now),
		EndsAt:         p.Boost.EndAt,
	}, nil
}

// Reserve takes stock for an order line. Untracked products only need to be
// active and in stock. Tracked stock is decremented in storage, so p may be
// a stale snapshot.
func (s *ProductService) Reserve(ctx context.Context, p *catalog.Product, qty int) error {
	if err := p.CheckReserve(qty); err != nil {
		return err
	}
	if !p.IsTracked() {
		return nil
	}
	left, err := s.products.ReserveStock(ctx, p.ID, qty)
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			return p.InsufficientStock()
		}
		return err
	}
	p.StockReserved(left)
	s.publish(ctx, p)
	return nil
}

// Release returns stock taken by a cancelled order line
func (s *ProductService) Release(ctx context.Context, productID uuid.UUID, qty int) error {
	return s.products.ReleaseStock(ctx, productID, qty)
}

func (s *ProductService) ownedShop(ctx context.Context, ownerID, shopID uuid.UUID) (*storefront.Shop, error) {
	shop, err := s.shops.FindByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if !shop.IsOwnedBy(ownerID) {
		return nil, shared.NotFound("Shop")
	}
	return shop, nil
}

// ownedProduct loads a product and its shop; products of other sellers are
// reported as forbidden.
func (s *ProductService) ownedProduct(ctx context.Context, ownerID, id uuid.UUID) (*catalog.Product, *storefront.Shop, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	shop, err := s.shops.FindByID(ctx, p.ShopID)
	if err != nil {
		return nil, nil, err
	}
	if !shop.IsOwnedBy(ownerID) {
		return nil, nil, shared.Forbidden("Not authorized to modify this product")
	}
	return p, shop, nil
}

func (s *ProductService) publish(ctx context.Context, p *catalog.Product) {
	if err := shared.PublishAndClear(ctx, s.events, p); err != nil {
		s.logger.Warn("Failed to publish product events", zap.String("product_id", p.ID.String()), zap.Error(err))
	}
}

func pickShop(shops []*storefront.Shop, id *uuid.UUID) (*storefront.Shop, error) {
	for _, sh := range shops {
		if id != nil && sh.ID == *id {
			return sh, nil
		}
		if id == nil && sh.IsActive {
			return sh, nil
		}
	}
	return nil, shared.NewDomainError("NOT_FOUND", "Shop not found or you do not own this shop")
}

func summarize(shop *storefront.Shop) ShopSummary {
	return ShopSummary{
		ID:       shop.ID,
		Name:     shop.ShopName,
		Slug:     shop.Slug,
		LogoURL:  shop.Logo.URL,
		IsActive: shop.IsActive,
		Verified: shop.VerifiedBadge,
	}
}

func categoryFilter(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "all" {
		return ""
	}
	return c
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
