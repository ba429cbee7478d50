// Package storefront manages sellers' shops: creation under plan limits,
// themes, custom domains, images and the public storefront view.
package storefront

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wazhop/backend/internal/application/media"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/shared"
	"github.com/wazhop/backend/internal/domain/storefront"
	"go.uber.org/zap"
)

// storefrontProductLimit caps the products embedded in a public storefront
const storefrontProductLimit = 100

// DNSResolver looks up TXT records for domain verification
type DNSResolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// ShopService handles shop management
type ShopService struct {
	shops    storefront.ShopRepository
	products catalog.ProductRepository
	reviews  catalog.ReviewRepository
	users    identity.UserRepository
	media    *media.Service
	dns      DNSResolver
	events   shared.EventPublisher
	logger   *zap.Logger
}

// NewShopService creates a shop service
func NewShopService(
	shops storefront.ShopRepository,
	products catalog.ProductRepository,
	reviews catalog.ReviewRepository,
	users identity.UserRepository,
	mediaSvc *media.Service,
	dns DNSResolver,
	events shared.EventPublisher,
	logger *zap.Logger,
) *ShopService {
	return &ShopService{
		shops:    shops,
		products: products,
		reviews:  reviews,
		users:    users,
		media:    mediaSvc,
		dns:      dns,
		events:   events,
		logger:   logger,
	}
}

// ListMine returns the owner's shops, oldest first
func (s *ShopService) ListMine(ctx context.Context, ownerID uuid.UUID) ([]*storefront.Shop, error) {
	return s.shops.FindByOwner(ctx, ownerID)
}

// GetMine returns a shop owned by ownerID. Another owner's shop is reported
// as not found.
func (s *ShopService) GetMine(ctx context.Context, ownerID, shopID uuid.UUID) (*storefront.Shop, error) {
	shop, err := s.shops.FindByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if !shop.IsOwnedBy(ownerID) {
		return nil, shared.NotFound("Shop")
	}
	return shop, nil
}

// Create opens a shop when the owner's plan has room for another
func (s *ShopService) Create(ctx context.Context, input CreateShopInput) (*storefront.Shop, error) {
	owner, err := s.users.FindByID(ctx, input.OwnerID)
	if err != nil {
		return nil, err
	}
	count, err := s.shops.CountByOwner(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	limits := owner.Limits()
	if !identity.AllowsCount(limits.MaxShops, int(count)) {
		return nil, shared.PlanLimit(fmt.Sprintf(
			"You have reached the maximum number of shops (%d) for your %s plan. Please upgrade to create more shops.",
			limits.MaxShops, owner.Plan))
	}

	slug, err := storefront.UniqueSlug(ctx, storefront.GenerateSlug(input.ShopName), s.shops.ExistsBySlug)
	if err != nil {
		return nil, err
	}
	shop, err := storefront.NewShop(owner.ID, owner.Plan, input.ShopName, slug, input.Description, input.Category, input.Location)
	if err != nil {
		return nil, err
	}
	if shop.WhatsAppNumber == "" {
		shop.WhatsAppNumber = owner.WhatsApp
	}
	if err := s.shops.Create(ctx, shop); err != nil {
		return nil, err
	}
	if err := shared.PublishAndClear(ctx, s.events, shop); err != nil {
		s.logger.Warn("Failed to publish shop events", zap.Error(err))
	}
	s.logger.Info("Shop created",
		zap.String("shop_id", shop.ID.String()),
		zap.String("owner_id", owner.ID.String()),
		zap.String("slug", shop.Slug))
	return shop, nil
}

// Update changes shop details. A changed slug must be unused.
func (s *ShopService) Update(ctx context.Context, ownerID, shopID uuid.UUID, input UpdateShopInput) (*storefront.Shop, error) {
	shop, owner, err := s.loadOwned(ctx, ownerID, shopID)
	if err != nil {
		return nil, err
	}
	if input.Slug != nil {
		slug := strings.ToLower(strings.TrimSpace(*input.Slug))
		input.Slug = &slug
		if slug != "" && slug != shop.Slug {
			taken, err := s.shops.ExistsBySlug(ctx, slug)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, shared.NewDomainError("ALREADY_EXISTS", "This shop URL is already taken")
			}
		}
	}
	if err := shop.Update(input.ShopUpdate, owner.Plan); err != nil {
		return nil, err
	}
	if input.PaymentSettings != nil {
		if err := shop.SetPaymentSettings(*input.PaymentSettings, owner.Plan); err != nil {
			return nil, err
		}
	}
	if err := s.shops.Update(ctx, shop); err != nil {
		return nil, err
	}
	return shop, nil
}

// Delete removes a shop with its products and reviews and gives the image
// storage back to the owner.
func (s *ShopService) Delete(ctx context.Context, ownerID, shopID uuid.UUID) error {
	shop, err := s.GetMine(ctx, ownerID, shopID)
	if err != nil {
		return err
	}
	return s.remove(ctx, shop)
}

// Remove deletes any shop with its products and reviews on behalf of an
// admin
func (s *ShopService) Remove(ctx context.Context, shopID uuid.UUID) error {
	shop, err := s.shops.FindByID(ctx, shopID)
	if err != nil {
		return err
	}
	return s.remove(ctx, shop)
}

func (s *ShopService) remove(ctx context.Context, shop *storefront.Shop) error {
	objects, err := s.shopObjects(ctx, shop)
	if err != nil {
		return err
	}
	if err := s.reviews.DeleteByShop(ctx, shop.ID); err != nil {
		return err
	}
	if err := s.products.DeleteByShop(ctx, shop.ID); err != nil {
		return err
	}
	if err := s.shops.Delete(ctx, shop.ID); err != nil {
		return err
	}
	freed := s.media.Release(ctx, shop.OwnerID, objects...)

	if s.events != nil {
		if err := s.events.Publish(ctx, storefront.NewShopDeletedEvent(shop, freed)); err != nil {
			s.logger.Warn("Failed to publish shop deleted event", zap.Error(err))
		}
	}
	s.logger.Info("Shop deleted",
		zap.String("shop_id", shop.ID.String()),
		zap.Int64("freed_bytes", freed))
	return nil
}

// shopObjects collects every stored file of a shop
func (s *ShopService) shopObjects(ctx context.Context, shop *storefront.Shop) ([]media.Object, error) {
	var objects []media.Object
	for page := 1; ; page++ {
		products, total, err := s.products.FindByShop(ctx, shop.ID, catalog.ProductFilter{Page: page, PageSize: 100})
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			for _, img := range p.Images {
				objects = append(objects, media.Object{Key: img.Key, Size: img.Size})
			}
		}
		if len(products) == 0 || int64(page*100) >= total {
			break
		}
	}
	for _, img := range []storefront.Image{shop.Logo, shop.Banner} {
		if img.Key != "" {
			objects = append(objects, media.Object{Key: img.Key})
		}
	}
	return objects, nil
}

// Themes lists the themes available to the owner's plan
func (s *ShopService) Themes(ctx context.Context, ownerID uuid.UUID) (*ThemesResult, error) {
	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	themes, custom := storefront.AvailableThemes(owner.Plan)
	return &ThemesResult{Themes: themes, CanCustomize: custom, Plan: owner.Plan}, nil
}

// ChangeTheme applies a preset or custom theme under the owner's plan
func (s *ShopService) ChangeTheme(ctx context.Context, ownerID, shopID uuid.UUID, change storefront.ThemeChange) (*storefront.Shop, error) {
	shop, owner, err := s.loadOwned(ctx, ownerID, shopID)
	if err != nil {
		return nil, err
	}
	if err := shop.ChangeTheme(change, owner.Plan); err != nil {
		return nil, err
	}
	if err := s.shops.Update(ctx, shop); err != nil {
		return nil, err
	}
	return shop, nil
}

// SetDomain attaches a custom domain pending DNS verification
func (s *ShopService) SetDomain(ctx context.Context, ownerID, shopID uuid.UUID, domain string) (*DomainSetup, error) {
	shop, owner, err := s.loadOwned(ctx, ownerID, shopID)
	if err != nil {
		return nil, err
	}
	normalized := storefront.NormalizeDomain(domain)
	taken, err := s.shops.ExistsByDomain(ctx, normalized, shop.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "This domain is already connected to another shop")
	}
	token, err := shop.SetCustomDomain(normalized, owner.Plan)
	if err != nil {
		return nil, err
	}
	if err := s.shops.Update(ctx, shop); err != nil {
		return nil, err
	}
	return &DomainSetup{Domain: shop.CustomDomain, Token: token, Host: shop.VerificationHost()}, nil
}

// VerifyDomain checks the shop's TXT record and marks the domain verified
func (s *ShopService) VerifyDomain(ctx context.Context, ownerID, shopID uuid.UUID) (*storefront.Shop, error) {
	shop, err := s.GetMine(ctx, ownerID, shopID)
	if err != nil {
		return nil, err
	}
	if shop.CustomDomain == "" {
		return nil, shared.NewDomainError("INVALID_STATE", "No custom domain set for this shop")
	}
	if shop.DomainVerified {
		return shop, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	records, err := s.dns.LookupTXT(lookupCtx, shop.VerificationHost())
	if err != nil {
		s.logger.Info("TXT lookup failed",
			zap.String("host", shop.VerificationHost()),
			zap.Error(err))
	}
	if !shop.VerifyDomain(records) {
		return nil, shared.NewDomainError("INVALID_STATE", "Verification failed. TXT record not found or incorrect.")
	}
	if err := s.shops.Update(ctx, shop); err != nil {
		return nil, err
	}
	s.logger.Info("Custom domain verified",
		zap.String("shop_id", shop.ID.String()),
		zap.String("domain", shop.CustomDomain))
	return shop, nil
}

// RemoveDomain detaches the custom domain
func (s *ShopService) RemoveDomain(ctx context.Context, ownerID, shopID uuid.UUID) (*storefront.Shop, error) {
	shop, err := s.GetMine(ctx, ownerID, shopID)
	if err != nil {
		return nil, err
	}
	shop.RemoveCustomDomain()
	if err := s.shops.Update(ctx, shop); err != nil {
		return nil, err
	}
	return shop, nil
}

// UploadImage reserves storage for a new logo or banner, points the shop at
// it and releases the image it replaces.
func (s *ShopService) UploadImage(ctx context.Context, ownerID, shopID uuid.UUID, kind storefront.ImageKind, req media.UploadRequest) (*media.Ticket, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Image type must be logo or banner")
	}
	shop, err := s.GetMine(ctx, ownerID, shopID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.media.Reserve(ctx, ownerID, "shops/"+string(kind)+"s", req)
	if err != nil {
		return nil, err
	}
	previous, err := shop.SetImage(kind, storefront.Image{URL: ticket.PublicURL, Key: ticket.Key})
	if err != nil {
		return nil, err
	}
	if err := s.shops.Update(ctx, shop); err != nil {
		s.media.Release(ctx, ownerID, media.Object{Key: ticket.Key, Size: ticket.Size})
		return nil, err
	}
	if previous.Key != "" {
		s.media.Release(ctx, ownerID, media.Object{Key: previous.Key})
	}
	return ticket, nil
}

// DeleteImage removes a logo or banner and frees its storage
func (s *ShopService) DeleteImage(ctx context.Context, ownerID, shopID uuid.UUID, kind storefront.ImageKind) (*storefront.Shop, error) {
	shop, err := s.GetMine(ctx, ownerID, shopID)
	if err != nil {
		return nil, err
	}
	removed, err := shop.RemoveImage(kind)
	if err != nil {
		return nil, err
	}
	if err := s.shops.Update(ctx, shop); err != nil {
		return nil, err
	}
	s.media.Release(ctx, ownerID, media.Object{Key: removed.Key})
	return shop, nil
}

// GetBySlug returns an active storefront and counts the visit
func (s *ShopService) GetBySlug(ctx context.Context, slug string) (*StorefrontView, error) {
	shop, err := s.shops.FindBySlug(ctx, strings.ToLower(slug))
	if err != nil {
		return nil, err
	}
	return s.view(ctx, shop)
}

// GetByDomain returns the storefront behind a verified custom domain
func (s *ShopService) GetByDomain(ctx context.Context, domain string) (*StorefrontView, error) {
	shop, err := s.shops.FindByDomain(ctx, storefront.NormalizeDomain(domain))
	if err != nil {
		return nil, err
	}
	if !shop.DomainVerified {
		return nil, shared.NotFound("Shop")
	}
	return s.view(ctx, shop)
}

func (s *ShopService) view(ctx context.Context, shop *storefront.Shop) (*StorefrontView, error) {
	if !shop.IsActive {
		return nil, shared.NotFound("Shop")
	}
	active := true
	products, _, err := s.products.FindByShop(ctx, shop.ID, catalog.ProductFilter{
		IsActive: &active,
		Page:     1,
		PageSize: storefrontProductLimit,
	})
	if err != nil {
		return nil, err
	}
	if err := s.shops.IncrementViews(ctx, shop.ID); err != nil {
		s.logger.Warn("Failed to count shop view", zap.String("shop_id", shop.ID.String()), zap.Error(err))
	} else {
		shop.IncrementViews()
	}
	return &StorefrontView{Shop: shop, Products: products}, nil
}

// EnforcePlanForOwner deactivates shops beyond the owner's plan limit and
// refreshes branding. Returns how many shops changed.
func (s *ShopService) EnforcePlanForOwner(ctx context.Context, ownerID uuid.UUID, plan identity.Plan) (int, error) {
	shops, err := s.shops.FindByOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	changed := storefront.EnforcePlan(shops, plan)
	for _, shop := range changed {
		if err := s.shops.Update(ctx, shop); err != nil {
			return 0, err
		}
	}
	if len(changed) > 0 {
		s.logger.Info("Shops adjusted to plan",
			zap.String("owner_id", ownerID.String()),
			zap.String("plan", string(plan)),
			zap.Int("changed", len(changed)))
	}
	return len(changed), nil
}

func (s *ShopService) loadOwned(ctx context.Context, ownerID, shopID uuid.UUID) (*storefront.Shop, *identity.User, error) {
	shop, err := s.GetMine(ctx, ownerID, shopID)
	if err != nil {
		return nil, nil, err
	}
	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}
	return shop, owner, nil
}
