package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wazhop/backend/internal/domain/order"
)

func newTestOrder(t *testing.T, shopID uuid.UUID, customer *uuid.UUID, name string, price int64) *order.Order {
	t.Helper()
	item, err := order.NewItem(uuid.New(), "Dress", "", 2, decimal.NewFromInt(price))
	require.NoError(t, err)
	o, err := order.New(order.Params{
		ShopID:          shopID,
		Customer:        order.Customer{UserID: customer, Name: name, Phone: "08012345678"},
		Items:           []order.Item{item},
		ShippingAddress: order.Address{City: "Ikeja", State: "Lagos"},
	}, time.Now())
	require.NoError(t, err)
	return o
}

func TestGormOrderRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	shopID := uuid.New()
	buyer := uuid.New()

	paid := newTestOrder(t, shopID, &buyer, "Bola", 5000)
	paid.MarkPaid("flw-1", time.Now())
	guest := newTestOrder(t, shopID, nil, "Chidi", 2000)
	other := newTestOrder(t, uuid.New(), nil, "Dayo", 1000)
	for _, o := range []*order.Order{paid, guest, other} {
		require.NoError(t, repo.Create(ctx, o))
	}

	got, err := repo.FindByNumber(ctx, paid.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, paid.ID, got.ID)
	assert.Equal(t, "Lagos", got.ShippingAddress.State)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].Total.Equal(decimal.NewFromInt(10000)))

	mine, total, err := repo.FindByCustomer(ctx, buyer, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, paid.ID, mine[0].ID)

	byShop, total, err := repo.FindByShop(ctx, shopID, order.Filter{Keyword: "chidi"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, guest.ID, byShop[0].ID)

	require.NoError(t, guest.Cancel(uuid.Nil, time.Now()))
	require.NoError(t, repo.Update(ctx, guest))
	cancelled, total, err := repo.FindAll(ctx, order.Filter{Status: order.StatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.NotNil(t, cancelled[0].CancelledAt)

	revenue, err := repo.PaidRevenue(ctx)
	require.NoError(t, err)
	assert.True(t, revenue.Equal(paid.Total), "got %s", revenue)

	hourAgo := time.Now().Add(-time.Hour)
	byStatus, err := repo.CountByStatus(ctx, hourAgo)
	require.NoError(t, err)
	assert.Equal(t, map[order.Status]int64{order.StatusPending: 2, order.StatusCancelled: 1}, byStatus)
	n, err := repo.CountSince(ctx, hourAgo)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	revenue, err = repo.PaidRevenueSince(ctx, hourAgo)
	require.NoError(t, err)
	assert.True(t, revenue.Equal(paid.Total), "got %s", revenue)
	revenue, err = repo.PaidRevenueSince(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, revenue.IsZero())

	exists, err := repo.ExistsByNumber(ctx, other.OrderNumber)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.DeleteByShops(ctx, []uuid.UUID{shopID}))
	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestGormOrderRepository_PaidRevenueEmpty(t *testing.T) {
	repo := NewGormOrderRepository(setupTestDB(t))
	revenue, err := repo.PaidRevenue(context.Background())
	require.NoError(t, err)
	assert.True(t, revenue.IsZero())
}
