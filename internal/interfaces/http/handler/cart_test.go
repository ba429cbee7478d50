package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cartapp "github.com/wazhop/backend/internal/application/cart"
	"github.com/wazhop/backend/internal/domain/cart"
	"github.com/wazhop/backend/internal/domain/identity"
)

func cartRoutes(f *handlerFixture) *gin.Engine {
	return engine(func(r *gin.Engine) {
		r.GET("/cart", f.cart.Get)
		r.POST("/cart/items", f.cart.AddItem)
		r.PUT("/cart/items/:productId", f.cart.UpdateItem)
		r.DELETE("/cart/items/:productId", f.cart.RemoveItem)
		r.DELETE("/cart", f.cart.Clear)
		r.POST("/cart/merge", f.cart.Merge)
		r.GET("/cart/checkout/whatsapp", f.cart.WhatsAppCheckout)
	})
}

func TestCartHandler_RequiresOwner(t *testing.T) {
	f := newHandlerFixture(t)
	r := cartRoutes(f)

	w := do(t, r, anonymous(), http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, anonymous(), http.MethodGet, "/cart", nil, CartSessionHeader, strings.Repeat("x", 65))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, anonymous(), http.MethodGet, "/cart", nil, CartSessionHeader, "sess-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, data[cartapp.View](t, w).Count)
}

func TestCartHandler_SessionCartFlow(t *testing.T) {
	f := newHandlerFixture(t)
	r := cartRoutes(f)
	_, shop := f.seller(t, "seller@example.com")
	dress := f.listing(t, shop, "Ankara Dress", 15000)
	session := []string{CartSessionHeader, "sess-42"}

	w := do(t, r, anonymous(), http.MethodPost, "/cart/items", map[string]any{
		"product_id": dress.ID,
		"quantity":   2,
	}, session...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := data[cartapp.View](t, w)
	assert.Equal(t, 2, view.Count)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Ankara Dress", view.Items[0].Name)

	w = do(t, r, anonymous(), http.MethodPut, "/cart/items/"+dress.ID.String(), map[string]any{"quantity": 3}, session...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 3, data[cartapp.View](t, w).Count)

	w = do(t, r, anonymous(), http.MethodPut, "/cart/items/"+dress.ID.String(), map[string]any{"quantity": 100}, session...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, anonymous(), http.MethodGet, "/cart/checkout/whatsapp", nil, session...)
	require.Equal(t, http.StatusOK, w.Code)
	checkouts := data[[]cart.Checkout](t, w)
	require.Len(t, checkouts, 1)
	assert.True(t, checkouts[0].Available)
	assert.Contains(t, checkouts[0].Message, "Ankara Dress")
	assert.Contains(t, checkouts[0].Link, "wa.me")

	w = do(t, r, anonymous(), http.MethodDelete, "/cart/items/"+dress.ID.String(), nil, session...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, data[cartapp.View](t, w).Count)
}

func TestCartHandler_AddItemVariantPrice(t *testing.T) {
	f := newHandlerFixture(t)
	r := cartRoutes(f)
	_, shop := f.seller(t, "seller@example.com")
	dress := f.listing(t, shop, "Ankara Dress", 15000)
	session := []string{CartSessionHeader, "sess-7"}

	w := do(t, r, anonymous(), http.MethodPost, "/cart/items", map[string]any{
		"product_id":    dress.ID,
		"variant":       map[string]string{"Size": "M"},
		"variant_price": "-15000",
	}, session...)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = do(t, r, anonymous(), http.MethodPost, "/cart/items", map[string]any{
		"product_id":    dress.ID,
		"variant":       map[string]string{"Size": "M"},
		"variant_price": "0",
	}, session...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := data[cartapp.View](t, w)
	assert.Equal(t, "15000", view.Total.String())

	w = do(t, r, anonymous(), http.MethodPost, "/cart/items", map[string]any{
		"product_id":    dress.ID,
		"variant":       map[string]string{"Size": "XL"},
		"variant_price": "17500",
	}, session...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "32500", data[cartapp.View](t, w).Total.String())
}

func TestCartHandler_MergeIntoUserCart(t *testing.T) {
	f := newHandlerFixture(t)
	r := cartRoutes(f)
	_, shop := f.seller(t, "seller@example.com")
	dress := f.listing(t, shop, "Ankara Dress", 15000)
	buyer := f.user(t, "buyer@example.com", identity.RoleBuyer, identity.PlanFree)

	w := do(t, r, anonymous(), http.MethodPost, "/cart/items", map[string]any{"product_id": dress.ID}, CartSessionHeader, "guest")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, anonymous(), http.MethodPost, "/cart/merge", nil, CartSessionHeader, "guest")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, buyer, http.MethodPost, "/cart/merge", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, buyer, http.MethodPost, "/cart/merge", nil, CartSessionHeader, "guest")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, data[cartapp.View](t, w).Count)

	w = do(t, r, buyer, http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, data[cartapp.View](t, w).Count)
}
