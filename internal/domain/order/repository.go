package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository persists orders
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByNumber(ctx context.Context, number string) (*Order, error)
	FindByCustomer(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*Order, int64, error)
	FindByShop(ctx context.Context, shopID uuid.UUID, filter Filter) ([]*Order, int64, error)
	FindAll(ctx context.Context, filter Filter) ([]*Order, int64, error)
	AllByShop(ctx context.Context, shopID uuid.UUID) ([]*Order, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	DeleteByShops(ctx context.Context, shopIDs []uuid.UUID) error
	// PaidRevenue sums totals of paid orders across the platform
	PaidRevenue(ctx context.Context) (decimal.Decimal, error)
	// PaidRevenueSince sums paid orders placed at or after since
	PaidRevenueSince(ctx context.Context, since time.Time) (decimal.Decimal, error)
	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountByStatus(ctx context.Context, since time.Time) (map[Status]int64, error)
	Recent(ctx context.Context, limit int) ([]*Order, error)
}

// Filter narrows order listings
type Filter struct {
	Status   Status
	Keyword  string
	Page     int
	PageSize int
}
