package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/wazhop/backend/internal/domain/identity"
	"github.com/wazhop/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// RoleConfig holds configuration for role middleware
type RoleConfig struct {
	Logger *zap.Logger
	// OnDenied is called when the role check fails (optional)
	OnDenied func(c *gin.Context, required []identity.Role)
}

// RequireRole creates middleware that admits only the listed roles.
// It must run after JWTAuthMiddleware.
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	return RequireRoleWithConfig(RoleConfig{}, roles...)
}

// RequireRoleWithConfig creates role middleware with custom config
func RequireRoleWithConfig(cfg RoleConfig, roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", c.GetString("request_id")))
			return
		}

		if !slices.Contains(roles, identity.Role(claims.Role)) {
			if cfg.OnDenied != nil {
				cfg.OnDenied(c, roles)
				return
			}
			if cfg.Logger != nil {
				cfg.Logger.Warn("Role check failed",
					zap.String("user_id", claims.UserID),
					zap.String("role", claims.Role),
					zap.String("path", c.Request.URL.Path),
				)
			}
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, deniedMessage(roles), c.GetString("request_id")))
			return
		}

		c.Next()
	}
}

// RequireSeller admits sellers and admins
func RequireSeller() gin.HandlerFunc {
	return RequireRole(identity.RoleSeller, identity.RoleAdmin)
}

// RequireAdmin admits admins only
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(identity.RoleAdmin)
}

// IsAdmin reports whether the authenticated caller is an admin
func IsAdmin(c *gin.Context) bool {
	return GetJWTRole(c) == string(identity.RoleAdmin)
}

func deniedMessage(roles []identity.Role) string {
	if len(roles) == 1 && roles[0] == identity.RoleAdmin {
		return "Admin access required"
	}
	if slices.Contains(roles, identity.RoleSeller) {
		return "Seller account required. Upgrade to seller to continue"
	}
	return "You do not have access to this resource"
}
