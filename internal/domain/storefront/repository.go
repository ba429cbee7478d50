package storefront

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ShopRepository persists shops
type ShopRepository interface {
	Create(ctx context.Context, shop *Shop) error
	Update(ctx context.Context, shop *Shop) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Shop, error)
	FindBySlug(ctx context.Context, slug string) (*Shop, error)
	FindByDomain(ctx context.Context, domain string) (*Shop, error)
	// FindByOwner returns the owner's shops, oldest first
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Shop, error)
	FindAll(ctx context.Context, filter ShopFilter) ([]*Shop, int64, error)
	// FindActiveIDsByLocation returns active shops whose location mentions any term
	FindActiveIDsByLocation(ctx context.Context, terms ...string) ([]uuid.UUID, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	ExistsByDomain(ctx context.Context, domain string, excludeID uuid.UUID) (bool, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
}

// ShopFilter narrows admin shop listings
type ShopFilter struct {
	Keyword  string
	IsActive *bool
	// Temporary narrows to admin-built stores awaiting activation, or excludes them
	Temporary *bool
	Page      int
	PageSize  int
}
