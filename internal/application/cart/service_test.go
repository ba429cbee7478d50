package cart

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wazhop/backend/internal/domain/cart"
	"github.com/wazhop/backend/internal/domain/catalog"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/domain/shared"
	"github.com/wazhop/backend/internal/domain/storefront"
	"github.com/wazhop/backend/internal/infrastructure/cache"
	"github.com/wazhop/backend/internal/infrastructure/persistence"
	"github.com/wazhop/backend/tests/testutil"
	"go.uber.org/zap"
)

type cartFixture struct {
	svc      *Service
	store    *cache.MemoryCartStore
	shops    *persistence.GormShopRepository
	products *persistence.GormProductRepository
	owner    uuid.UUID
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	f := &cartFixture{
		store:    cache.NewMemoryCartStore(cart.TTL),
		shops:    persistence.NewGormShopRepository(db),
		products: persistence.NewGormProductRepository(db),
		owner:    uuid.New(),
	}
	t.Cleanup(func() { _ = f.store.Close() })
	f.svc = NewService(f.store, f.products, f.shops, zap.NewNop())
	return f
}

func (f *cartFixture) shop(t *testing.T, slug, whatsapp string) *storefront.Shop {
	t.Helper()
	s, err := storefront.NewShop(f.owner, identity.PlanPremium, "Shop "+slug, slug, "", storefront.CategoryFashion, "Lagos")
	require.NoError(t, err)
	s.WhatsAppNumber = whatsapp
	require.NoError(t, f.shops.Create(context.Background(), s))
	return s
}

func (f *cartFixture) product(t *testing.T, shop *storefront.Shop, name string, price int64) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(shop.ID, catalog.ProductInput{
		Name:     name,
		Price:    decimal.NewFromInt(price),
		Category: "Fashion",
	}, 1)
	require.NoError(t, err)
	require.NoError(t, p.AddImages(catalog.ProductImage{ID: uuid.New(), URL: "https://cdn.test/" + name + ".jpg", Size: 10}))
	p.ClearDomainEvents()
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func code(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func TestService_AddSnapshotsProductAndShop(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	shop := f.shop(t, "ada", "+234 801 234 5678")
	p := f.product(t, shop, "Gele", 8000)

	v, err := f.svc.AddItem(ctx, "session-a", AddItemInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	it := v.Items[0]
	assert.Equal(t, "Gele", it.Name)
	assert.Equal(t, "https://cdn.test/Gele.jpg", it.Image)
	assert.Equal(t, shop.Slug, it.Shop.Slug)
	assert.Equal(t, "NGN", it.Currency)
	assert.Equal(t, 2, v.Count)
	assert.True(t, v.Total.Equal(decimal.NewFromInt(16000)))

	v, err = f.svc.AddItem(ctx, "session-a", AddItemInput{ProductID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, v.Items[0].Quantity, "same product merges")

	big := decimal.NewFromInt(9000)
	v, err = f.svc.AddItem(ctx, "session-a", AddItemInput{
		ProductID: p.ID,
		Variant:   &cart.Variant{Options: map[string]string{"Colour": "Gold"}, Price: &big},
	})
	require.NoError(t, err)
	assert.Len(t, v.Items, 2, "a variant is its own line")

	_, err = f.svc.AddItem(ctx, "session-a", AddItemInput{ProductID: uuid.New()})
	assert.Equal(t, "NOT_FOUND", code(err))
	_, err = f.svc.AddItem(ctx, "", AddItemInput{ProductID: p.ID})
	assert.Equal(t, "INVALID_INPUT", code(err))
}

func TestService_Availability(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	shop := f.shop(t, "bola", "+2348011111111")
	p := f.product(t, shop, "Sneakers", 20000)

	out := false
	require.NoError(t, p.Update(catalog.ProductUpdate{InStock: &out}))
	require.NoError(t, f.products.Update(ctx, p))
	_, err := f.svc.AddItem(ctx, "u1", AddItemInput{ProductID: p.ID})
	assert.Equal(t, "INVALID_STATE", code(err))

	tracked := f.product(t, shop, "Cap", 3000)
	require.NoError(t, tracked.EnableInventory(1, 0))
	require.NoError(t, f.products.Update(ctx, tracked))
	_, err = f.svc.AddItem(ctx, "u1", AddItemInput{ProductID: tracked.ID, Quantity: 2})
	assert.Equal(t, "INSUFFICIENT_STOCK", code(err))

	shop.IsActive = false
	require.NoError(t, f.shops.Update(ctx, shop))
	_, err = f.svc.AddItem(ctx, "u1", AddItemInput{ProductID: tracked.ID})
	assert.Equal(t, "INVALID_STATE", code(err))
}

func TestService_UpdateRemoveClear(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	shop := f.shop(t, "chi", "+2348022222222")
	a := f.product(t, shop, "Bag", 5000)
	b := f.product(t, shop, "Belt", 2000)

	_, err := f.svc.AddItem(ctx, "u2", AddItemInput{ProductID: a.ID})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, "u2", AddItemInput{ProductID: b.ID})
	require.NoError(t, err)

	v, err := f.svc.UpdateItem(ctx, "u2", a.ID, nil, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, v.Count)

	v, err = f.svc.UpdateItem(ctx, "u2", b.ID, nil, 0)
	require.NoError(t, err)
	assert.Len(t, v.Items, 1)

	_, err = f.svc.RemoveItem(ctx, "u2", b.ID, nil)
	assert.Equal(t, "NOT_FOUND", code(err))

	v, err = f.svc.RemoveItem(ctx, "u2", a.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, v.Items)

	_, err = f.svc.AddItem(ctx, "u2", AddItemInput{ProductID: a.ID})
	require.NoError(t, err)
	require.NoError(t, f.svc.Clear(ctx, "u2"))
	v, err = f.svc.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Zero(t, v.Count)
}

func TestService_Merge(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	shop := f.shop(t, "dayo", "+2348033333333")
	p := f.product(t, shop, "Wrapper", 4000)
	q := f.product(t, shop, "Scarf", 1500)

	_, err := f.svc.AddItem(ctx, "guest-1", AddItemInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, "guest-1", AddItemInput{ProductID: q.ID})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, "user-1", AddItemInput{ProductID: p.ID})
	require.NoError(t, err)

	v, err := f.svc.Merge(ctx, "guest-1", "user-1")
	require.NoError(t, err)
	assert.Len(t, v.Items, 2)
	assert.Equal(t, 4, v.Count)

	guest, err := f.svc.Get(ctx, "guest-1")
	require.NoError(t, err)
	assert.Zero(t, guest.Count)
}

func TestService_WhatsAppCheckout(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()
	withPhone := f.shop(t, "eko", "+234 803 000 1111")
	noPhone := f.shop(t, "ibadan", "")
	a := f.product(t, withPhone, "Aso Oke", 25000)
	b := f.product(t, noPhone, "Adire", 7000)

	_, err := f.svc.WhatsAppCheckout(ctx, "buyer")
	assert.Equal(t, "INVALID_STATE", code(err))

	_, err = f.svc.AddItem(ctx, "buyer", AddItemInput{ProductID: a.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, "buyer", AddItemInput{ProductID: b.ID})
	require.NoError(t, err)

	out, err := f.svc.WhatsAppCheckout(ctx, "buyer")
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, withPhone.ID, out[0].Shop.ID)
	assert.True(t, out[0].Available)
	assert.True(t, strings.HasPrefix(out[0].Link, "https://wa.me/2348030001111?text="))
	assert.Contains(t, out[0].Message, "from Shop eko:")
	assert.Contains(t, out[0].Message, "1. Aso Oke - Qty: 2")

	assert.False(t, out[1].Available)
	assert.Empty(t, out[1].Link)
}
