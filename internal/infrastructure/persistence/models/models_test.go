package models_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wazhop/backend/internal/domain/order"
	"github.com/wazhop/backend/internal/domain/shared"
	"github.com/wazhop/backend/internal/infrastructure/persistence/models"
	"github.com/wazhop/backend/tests/testutil"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func TestOrderModel_JSONColumnsSurviveStorage(t *testing.T) {
	db := testutil.NewSQLiteDB(t)

	shop := &models.ShopModel{}
	shop.ID = testutil.SeedID("shop")
	owner := &models.UserModel{Name: "Ada", Email: "ada@example.com", PasswordHash: "x", IsActive: true}
	owner.ID = testutil.SeedID("owner")
	require.NoError(t, db.Create(owner).Error)
	shop.OwnerID = owner.ID
	shop.ShopName = "Ada Fabrics"
	shop.Slug = "ada-fabrics"
	require.NoError(t, db.Create(shop).Error)

	now := time.Now().UTC().Truncate(time.Second)
	o := &order.Order{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: shared.NewBaseEntityAt(now), Version: 3},
		OrderNumber:       "WZ-000001",
		ShopID:            shop.ID,
		Customer:          order.Customer{Name: "Kemi", Phone: "+2348012345678"},
		Items: []order.Item{
			{ProductID: uuid.New(), ProductName: "Ankara wrap", Quantity: 2, Price: decimal.RequireFromString("4500.50"), Total: decimal.RequireFromString("9001.00")},
		},
		Subtotal:        decimal.RequireFromString("9001"),
		Total:           decimal.RequireFromString("9001"),
		Currency:        "NGN",
		ShippingAddress: order.Address{City: "Ikeja", State: "Lagos", Country: "NG"},
		Status:          order.StatusPending,
		PaymentMethod:   order.PaymentWhatsApp,
		PaymentStatus:   order.PaymentPending,
		Source:          order.SourceWhatsApp,
		Notifications:   order.Notifications{OrderConfirmation: true},
	}
	require.NoError(t, db.Create(models.OrderModelFromDomain(o)).Error)

	var stored models.OrderModel
	require.NoError(t, db.First(&stored, "order_number = ?", "WZ-000001").Error)
	got := stored.ToDomain()

	if diff := cmp.Diff(o.Items, got.Items, decimalEqual); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, o.ShippingAddress, got.ShippingAddress)
	assert.Equal(t, o.Notifications, got.Notifications)
	assert.True(t, o.Total.Equal(got.Total))
	assert.Equal(t, 3, got.Version)
	assert.Equal(t, o.ID, got.ID)
	assert.Nil(t, got.Customer.UserID)
}

func TestAggregateModel_Roundtrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	root := shared.BaseAggregateRoot{BaseEntity: shared.NewBaseEntityAt(now), Version: 7}

	var m models.AggregateModel
	m.FromDomainAggregateRoot(root)
	back := m.ToAggregateRoot()

	assert.Equal(t, root.ID, back.ID)
	assert.Equal(t, now, back.CreatedAt)
	assert.Equal(t, 7, back.Version)
}

func TestAll_ParentsBeforeChildren(t *testing.T) {
	names := make([]string, 0)
	for _, m := range models.All() {
		names = append(names, m.(interface{ TableName() string }).TableName())
	}
	index := func(name string) int {
		for i, n := range names {
			if n == name {
				return i
			}
		}
		return -1
	}
	assert.Less(t, index("users"), index("shops"))
	assert.Less(t, index("shops"), index("products"))
	assert.Less(t, index("products"), index("reviews"))
	assert.Less(t, index("shops"), index("orders"))
}
