package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	catalogapp "github.com/wazhop/backend/internal/application/catalog"
	identityapp "github.com/wazhop/backend/internal/application/identity"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/shared"
	"github.com/wazhop/backend/internal/domain/storefront"
	"go.uber.org/zap"
)

// ProductCreator lists a product in a shop
type ProductCreator interface {
	Create(ctx context.Context, in catalogapp.CreateProductInput) (*catalog.Product, error)
}

// AccountClaimer turns a placeholder seller into a real account
type AccountClaimer interface {
	ClaimTemporary(ctx context.Context, userID uuid.UUID, in identityapp.ClaimAccountInput) (*identityapp.AuthResult, error)
}

// CreateStoreInput describes a store an admin builds for a seller
type CreateStoreInput struct {
	StoreName   string
	Description string
	Category    storefront.Category
	Location    string
	WhatsApp    string
}

// TemporaryStore is an admin-built store with its hand-over links
type TemporaryStore struct {
	Shop          *storefront.Shop
	OwnerEmail    string
	PreviewURL    string
	ActivationURL string
}

// ActivationPreview is what an activation link shows before the seller
// signs up
type ActivationPreview struct {
	ShopName   string `json:"shop_name"`
	Slug       string `json:"slug"`
	PreviewURL string `json:"preview_url"`
}

// ActivateStoreInput carries the seller's new credentials
type ActivateStoreInput struct {
	Email    string
	Password string
	WhatsApp string
	IP       string
}

// ActivatedStore is the signed-in seller and the store they now own
type ActivatedStore struct {
	Auth *identityapp.AuthResult
	Shop *storefront.Shop
}

// StoreServiceConfig wires the store service
type StoreServiceConfig struct {
	Users     identity.UserRepository
	Shops     storefront.ShopRepository
	Products  ProductCreator
	Remover   ShopRemover
	Accounts  AccountClaimer
	ClientURL string
	Logger    *zap.Logger
}

// StoreService builds stores on behalf of sellers and hands them over
// through an activation link
type StoreService struct {
	users     identity.UserRepository
	shops     storefront.ShopRepository
	products  ProductCreator
	remover   ShopRemover
	accounts  AccountClaimer
	clientURL string
	logger    *zap.Logger
	now       func() time.Time
}

// NewStoreService creates the store service
func NewStoreService(cfg StoreServiceConfig) *StoreService {
	return &StoreService{
		users:     cfg.Users,
		shops:     cfg.Shops,
		products:  cfg.Products,
		remover:   cfg.Remover,
		accounts:  cfg.Accounts,
		clientURL: strings.TrimRight(cfg.ClientURL, "/"),
		logger:    cfg.Logger,
		now:       time.Now,
	}
}

// Create builds a free-plan store owned by a placeholder seller. The
// activation link stays valid for 90 days.
func (s *StoreService) Create(ctx context.Context, adminID uuid.UUID, in CreateStoreInput) (*TemporaryStore, error) {
	slug, err := storefront.UniqueSlug(ctx, storefront.GenerateSlug(in.StoreName), s.shops.ExistsBySlug)
	if err != nil {
		return nil, err
	}
	owner, err := identity.NewTemporaryUser(in.StoreName, slug)
	if err != nil {
		return nil, err
	}
	shop, err := storefront.NewShop(owner.ID, owner.Plan, in.StoreName, slug, in.Description, in.Category, in.Location)
	if err != nil {
		return nil, err
	}
	shop.WhatsAppNumber = strings.TrimSpace(in.WhatsApp)
	shop.ClearDomainEvents()
	if err := shop.MarkTemporary(adminID, s.now()); err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, owner); err != nil {
		return nil, err
	}
	if err := s.shops.Create(ctx, shop); err != nil {
		if derr := s.users.Delete(ctx, owner.ID); derr != nil {
			s.logger.Error("Failed to remove placeholder seller", zap.String("user_id", owner.ID.String()), zap.Error(derr))
		}
		return nil, err
	}
	s.logger.Info("Temporary store created",
		zap.String("admin_id", adminID.String()),
		zap.String("shop_id", shop.ID.String()),
		zap.String("slug", shop.Slug))
	return s.describe(shop, owner.Email), nil
}

// List returns every store still waiting for its seller, newest first
func (s *StoreService) List(ctx context.Context, page, pageSize int) (shared.Paginated[*TemporaryStore], error) {
	page, pageSize = normalizePage(page, pageSize)
	temporary := true
	shops, total, err := s.shops.FindAll(ctx, storefront.ShopFilter{Temporary: &temporary, Page: page, PageSize: pageSize})
	if err != nil {
		return shared.Paginated[*TemporaryStore]{}, err
	}
	out := make([]*TemporaryStore, len(shops))
	for i, shop := range shops {
		email := ""
		if owner, err := s.users.FindByID(ctx, shop.OwnerID); err == nil {
			email = owner.Email
		}
		out[i] = s.describe(shop, email)
	}
	return shared.NewPaginated(out, total, page, pageSize), nil
}

// AddProduct lists a product in a store that has not been claimed yet
func (s *StoreService) AddProduct(ctx context.Context, shopID uuid.UUID, in catalog.ProductInput) (*catalog.Product, error) {
	shop, err := s.temporary(ctx, shopID)
	if err != nil {
		return nil, err
	}
	return s.products.Create(ctx, catalogapp.CreateProductInput{
		OwnerID:      shop.OwnerID,
		ShopID:       &shop.ID,
		ProductInput: in,
	})
}

// Delete removes an unclaimed store together with its placeholder seller
func (s *StoreService) Delete(ctx context.Context, adminID, shopID uuid.UUID) error {
	shop, err := s.temporary(ctx, shopID)
	if err != nil {
		return err
	}
	if err := s.remover.Remove(ctx, shop.ID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, shop.OwnerID); err != nil {
		return err
	}
	s.logger.Warn("Temporary store deleted",
		zap.String("admin_id", adminID.String()),
		zap.String("shop_id", shop.ID.String()))
	return nil
}

// Verify checks an activation link and describes the store behind it
func (s *StoreService) Verify(ctx context.Context, shopID uuid.UUID, token string) (*ActivationPreview, error) {
	shop, err := s.activatable(ctx, shopID, token)
	if err != nil {
		return nil, err
	}
	return &ActivationPreview{ShopName: shop.ShopName, Slug: shop.Slug, PreviewURL: s.previewURL(shop)}, nil
}

// Activate hands a store to the seller holding its activation link and
// signs them in
func (s *StoreService) Activate(ctx context.Context, shopID uuid.UUID, token string, in ActivateStoreInput) (*ActivatedStore, error) {
	shop, err := s.activatable(ctx, shopID, token)
	if err != nil {
		return nil, err
	}
	if err := shop.Activate(token, s.now()); err != nil {
		return nil, err
	}
	auth, err := s.accounts.ClaimTemporary(ctx, shop.OwnerID, identityapp.ClaimAccountInput{
		Email:    in.Email,
		Password: in.Password,
		WhatsApp: in.WhatsApp,
		IP:       in.IP,
	})
	if err != nil {
		return nil, err
	}
	if shop.WhatsAppNumber == "" {
		shop.WhatsAppNumber = strings.TrimSpace(in.WhatsApp)
	}
	if err := s.shops.Update(ctx, shop); err != nil {
		return nil, err
	}
	s.logger.Info("Store activated",
		zap.String("shop_id", shop.ID.String()),
		zap.String("user_id", shop.OwnerID.String()))
	return &ActivatedStore{Auth: auth, Shop: shop}, nil
}

func (s *StoreService) activatable(ctx context.Context, shopID uuid.UUID, token string) (*storefront.Shop, error) {
	shop, err := s.shops.FindByID(ctx, shopID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVALID_INPUT", "Invalid or expired activation link")
		}
		return nil, err
	}
	if err := shop.CheckActivation(token, s.now()); err != nil {
		return nil, err
	}
	return shop, nil
}

func (s *StoreService) temporary(ctx context.Context, shopID uuid.UUID) (*storefront.Shop, error) {
	shop, err := s.shops.FindByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if err := shop.RequireTemporary(); err != nil {
		return nil, err
	}
	return shop, nil
}

func (s *StoreService) describe(shop *storefront.Shop, ownerEmail string) *TemporaryStore {
	return &TemporaryStore{
		Shop:          shop,
		OwnerEmail:    ownerEmail,
		PreviewURL:    s.previewURL(shop),
		ActivationURL: s.clientURL + "/activate-store/" + shop.ID.String() + "/" + shop.ActivationToken,
	}
}

func (s *StoreService) previewURL(shop *storefront.Shop) string {
	return s.clientURL + "/s/" + shop.Slug + "?preview=true"
}
