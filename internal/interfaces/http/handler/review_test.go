package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/interfaces/http/dto"
)

func reviewRoutes(f *handlerFixture) *gin.Engine {
	return engine(func(r *gin.Engine) {
		r.POST("/reviews", f.review.Create)
		r.GET("/reviews/product/:productId", f.review.ListForProduct)
		r.POST("/reviews/:id/helpful", f.review.MarkHelpful)
		r.GET("/reviews/shop/:shopId", f.review.ListForShop)
		r.PATCH("/reviews/:id/approve", f.review.SetApproved)
		r.DELETE("/reviews/:id", f.review.Delete)
		r.PUT("/admin/settings", f.admin.UpdateSettings)
	})
}

func TestReviewHandler_SubmitAndModerate(t *testing.T) {
	f := newHandlerFixture(t)
	r := reviewRoutes(f)
	seller, shop := f.seller(t, "seller@example.com")
	dress := f.listing(t, shop, "Ankara Dress", 15000)

	review := map[string]any{
		"product_id":     dress.ID,
		"customer_name":  "Ngozi",
		"customer_email": "ngozi@example.com",
		"rating":         4,
		"comment":        "Lovely fabric and quick delivery",
	}
	w := do(t, r, anonymous(), http.MethodPost, "/reviews", review)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := data[ReviewResponse](t, w)
	assert.Equal(t, 4, created.Rating)
	assert.True(t, created.IsApproved)
	assert.NotContains(t, w.Body.String(), "ngozi@example.com")

	w = do(t, r, anonymous(), http.MethodPost, "/reviews", review)
	assert.Equal(t, http.StatusConflict, w.Code)

	review["rating"] = 6
	review["customer_email"] = "other@example.com"
	w = do(t, r, anonymous(), http.MethodPost, "/reviews", review)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, anonymous(), http.MethodPost, "/reviews/"+created.ID.String()+"/helpful", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, data[ReviewResponse](t, w).Helpful)

	w = do(t, r, anonymous(), http.MethodGet, "/reviews/product/"+dress.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := data[ReviewPageResponse](t, w)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 1, page.Distribution[4])

	stranger := f.user(t, "stranger@example.com", identity.RoleSeller, identity.PlanFree)
	w = do(t, r, stranger, http.MethodPatch, "/reviews/"+created.ID.String()+"/approve", map[string]bool{"approved": false})
	assert.Contains(t, []int{http.StatusForbidden, http.StatusNotFound}, w.Code)

	w = do(t, r, seller, http.MethodPatch, "/reviews/"+created.ID.String()+"/approve", map[string]bool{"approved": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, data[ReviewResponse](t, w).IsApproved)

	w = do(t, r, anonymous(), http.MethodGet, "/reviews/product/"+dress.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, data[ReviewPageResponse](t, w).Reviews)

	w = do(t, r, seller, http.MethodGet, "/reviews/shop/"+shop.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, data[ReviewPageResponse](t, w).Reviews, 1)

	w = do(t, r, seller, http.MethodDelete, "/reviews/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReviewHandler_DisabledByAdmin(t *testing.T) {
	f := newHandlerFixture(t)
	r := reviewRoutes(f)
	_, shop := f.seller(t, "seller@example.com")
	dress := f.listing(t, shop, "Ankara Dress", 15000)
	admin := f.user(t, "admin@example.com", identity.RoleAdmin, identity.PlanFree)

	w := do(t, r, admin, http.MethodPut, "/admin/settings", map[string]bool{"enableReviews": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, anonymous(), http.MethodPost, "/reviews", map[string]any{
		"product_id":    dress.ID,
		"customer_name": "Ngozi",
		"rating":        5,
		"comment":       "Would buy again from this shop",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, w))
}
