package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CouponRepository persists coupons
type CouponRepository interface {
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Coupon, error)
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	FindAll(ctx context.Context, filter CouponFilter) ([]*Coupon, int64, error)
	All(ctx context.Context) ([]*Coupon, error)
}

// CouponFilter narrows coupon listings
type CouponFilter struct {
	IsActive *bool
	Search   string
	Page     int
	PageSize int
}

// TransactionRepository persists payment transactions
type TransactionRepository interface {
	Create(ctx context.Context, t *Transaction) error
	Update(ctx context.Context, t *Transaction) error
	FindByReference(ctx context.Context, ref string) (*Transaction, error)
	FindByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Transaction, error)
	FindAll(ctx context.Context, filter TransactionFilter) ([]*Transaction, int64, error)
	// MarkAbandoned abandons initiated payments started before cutoff and returns how many changed
	MarkAbandoned(ctx context.Context, cutoff time.Time, message string) (int64, error)
	// Totals counts and sums payments per type and status
	Totals(ctx context.Context, filter AnalyticsFilter) ([]StatusTotal, error)
}

// TransactionFilter narrows transaction listings
type TransactionFilter struct {
	Status   TransactionStatus
	Type     TransactionType
	UserID   *uuid.UUID
	Page     int
	PageSize int
}
