package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error

	// Delete removes the user together with their shops, products, reviews and orders
	Delete(ctx context.Context, id uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByReferralCode(ctx context.Context, code string) (*User, error)
	FindAll(ctx context.Context, filter UserFilter) ([]*User, int64, error)

	// FindReferredBy lists the most recent users referred by referrerID
	FindReferredBy(ctx context.Context, referrerID uuid.UUID, limit int) ([]*User, error)

	// FindExpiredSubscriptions lists paid users whose plan expired before now
	FindExpiredSubscriptions(ctx context.Context, now time.Time) ([]*User, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByWhatsApp(ctx context.Context, whatsapp string, excludeID uuid.UUID) (bool, error)
	ExistsByReferralCode(ctx context.Context, code string) (bool, error)

	CountByRole(ctx context.Context) (map[Role]int64, error)
	CountByPlan(ctx context.Context) (map[Plan]int64, error)
	// CountSince counts accounts created at or after since
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

// UserFilter contains filter options for querying users
type UserFilter struct {
	// Search keyword for name or email
	Keyword  string
	Role     *Role
	Plan     *Plan
	IsActive *bool
	// SortBy falls back to created_at when the column is not sortable
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}
