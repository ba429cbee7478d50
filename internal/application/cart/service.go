// Package cart serves shopping carts for signed-in users and anonymous
// sessions and builds their WhatsApp checkout messages.
package cart

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/cart"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/domain/shared"
	"github.com/wazhop/backend/internal/domain/storefront"
	"go.uber.org/zap"
)

// AddItemInput puts a product in a cart
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Variant   *cart.Variant
}

// View is a cart with its totals
type View struct {
	Owner  string           `json:"owner"`
	Items  []cart.Item      `json:"items"`
	Count  int              `json:"count"`
	Total  decimal.Decimal  `json:"total"`
	Groups []cart.ShopGroup `json:"groups"`
}

func viewOf(c *cart.Cart) *View {
	return &View{
		Owner:  c.Owner,
		Items:  c.Items,
		Count:  c.Count(),
		Total:  c.Total(),
		Groups: c.GroupByShop(),
	}
}

// Service snapshots products into carts kept in a cart.Store
type Service struct {
	store    cart.Store
	products catalog.ProductRepository
	shops    storefront.ShopRepository
	logger   *zap.Logger
}

// NewService creates a cart service
func NewService(store cart.Store, products catalog.ProductRepository, shops storefront.ShopRepository, logger *zap.Logger) *Service {
	return &Service{store: store, products: products, shops: shops, logger: logger}
}

// Get returns the owner's cart
func (s *Service) Get(ctx context.Context, owner string) (*View, error) {
	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	return viewOf(c), nil
}

// AddItem snapshots the product and its shop into the cart
func (s *Service) AddItem(ctx context.Context, owner string, in AddItemInput) (*View, error) {
	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	item, err := s.snapshot(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := c.Add(item); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return viewOf(c), nil
}

// UpdateItem sets a line's quantity; zero removes it
func (s *Service) UpdateItem(ctx context.Context, owner string, productID uuid.UUID, variant *cart.Variant, qty int) (*View, error) {
	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := c.UpdateQuantity(productID, variant, qty); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return viewOf(c), nil
}

// RemoveItem drops a line
func (s *Service) RemoveItem(ctx context.Context, owner string, productID uuid.UUID, variant *cart.Variant) (*View, error) {
	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := c.Remove(productID, variant); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return viewOf(c), nil
}

// Clear empties the cart
func (s *Service) Clear(ctx context.Context, owner string) error {
	if strings.TrimSpace(owner) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Cart session is required")
	}
	return s.store.Delete(ctx, owner)
}

// Merge moves an anonymous session cart into the user's cart after sign-in
func (s *Service) Merge(ctx context.Context, sessionID, userID string) (*View, error) {
	if sessionID == "" || sessionID == userID {
		return s.Get(ctx, userID)
	}
	guest, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if guest.IsEmpty() {
		return viewOf(c), nil
	}
	for _, it := range guest.Items {
		if err := c.Add(it); err != nil {
			s.logger.Warn("Dropped cart line while merging",
				zap.String("product_id", it.ProductID.String()), zap.Error(err))
		}
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to delete guest cart", zap.String("session", sessionID), zap.Error(err))
	}
	return viewOf(c), nil
}

// WhatsAppCheckout builds one order message and chat link per shop
func (s *Service) WhatsAppCheckout(ctx context.Context, owner string) ([]cart.Checkout, error) {
	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, shared.NewDomainError("INVALID_STATE", "Your cart is empty")
	}
	return c.WhatsAppCheckout(), nil
}

func (s *Service) load(ctx context.Context, owner string) (*cart.Cart, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Cart session is required")
	}
	return s.store.Get(ctx, owner)
}

func (s *Service) snapshot(ctx context.Context, in AddItemInput) (cart.Item, error) {
	p, err := s.products.FindByID(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return cart.Item{}, shared.NotFound("Product")
		}
		return cart.Item{}, err
	}
	if !p.IsActive || !p.InStock {
		return cart.Item{}, shared.NewDomainError("INVALID_STATE", "Product is not available")
	}
	qty := in.Quantity
	if qty <= 0 {
		qty = 1
	}
	if p.IsTracked() && p.Stock != nil && *p.Stock < qty {
		return cart.Item{}, shared.NewDomainError("INSUFFICIENT_STOCK", "Not enough stock for "+p.Name)
	}
	shop, err := s.shops.FindByID(ctx, p.ShopID)
	if err != nil {
		return cart.Item{}, err
	}
	if !shop.IsActive {
		return cart.Item{}, shared.NewDomainError("INVALID_STATE", "This shop is not accepting orders")
	}
	item := cart.Item{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Currency:  p.Currency,
		Shop: cart.ShopRef{
			ID:             shop.ID,
			Name:           shop.ShopName,
			Slug:           shop.Slug,
			WhatsAppNumber: shop.WhatsAppNumber,
		},
		Quantity: qty,
		Variant:  in.Variant,
	}
	if img := p.PrimaryImage(); img != nil {
		item.Image = img.URL
	}
	return item, nil
}
