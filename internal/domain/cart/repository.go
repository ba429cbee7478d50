package cart

import (
	"context"
	"time"
)

// TTL is how long an idle cart is kept
const TTL = 30 * 24 * time.Hour

// Store loads and saves carts by owner key
type Store interface {
	Get(ctx context.Context, owner string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, owner string) error
}
