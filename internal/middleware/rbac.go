package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/library-seat-api/internal/models"
	appErrors "github.com/noah-isme/library-seat-api/pkg/errors"
	"github.com/noah-isme/library-seat-api/pkg/response"
)

// RBAC admits callers whose token carries one of the allowed roles. It must run after JWT.
func RBAC(allowed ...models.UserRole) gin.HandlerFunc {
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed))
	for _, r := range allowed {
		allowedRoles[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowedRoles[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "admin role required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
