package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/interfaces/http/dto"
)

func TestRequireRole(t *testing.T) {
	svc := newTestJWTService()
	buyer, _ := newTestTokenPair(t, svc, identity.RoleBuyer)
	seller, _ := newTestTokenPair(t, svc, identity.RoleSeller)
	admin, _ := newTestTokenPair(t, svc, identity.RoleAdmin)

	router := gin.New()
	router.Use(JWTAuthMiddleware(svc))
	router.GET("/seller", RequireSeller(), func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		assert.True(t, IsAdmin(c))
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name   string
		token  string
		path   string
		status int
	}{
		{"buyer on seller route", buyer.AccessToken, "/seller", http.StatusForbidden},
		{"seller on seller route", seller.AccessToken, "/seller", http.StatusOK},
		{"admin on seller route", admin.AccessToken, "/seller", http.StatusOK},
		{"seller on admin route", seller.AccessToken, "/admin", http.StatusForbidden},
		{"admin on admin route", admin.AccessToken, "/admin", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodGet, tt.path, tt.token)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusForbidden {
				assert.Equal(t, dto.ErrCodeForbidden, decodeError(t, rec).Code)
			}
		})
	}
}

func TestRequireRole_WithoutClaims(t *testing.T) {
	router := gin.New()
	router.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(router, http.MethodGet, "/admin", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleWithConfig_OnDenied(t *testing.T) {
	svc := newTestJWTService()
	buyer, _ := newTestTokenPair(t, svc, identity.RoleBuyer)

	var denied []identity.Role
	router := gin.New()
	router.Use(JWTAuthMiddleware(svc))
	router.GET("/x", RequireRoleWithConfig(RoleConfig{
		OnDenied: func(c *gin.Context, required []identity.Role) {
			denied = required
			c.AbortWithStatus(http.StatusTeapot)
		},
	}, identity.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(router, http.MethodGet, "/x", buyer.AccessToken)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, []identity.Role{identity.RoleAdmin}, denied)
}
