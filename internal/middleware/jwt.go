package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/library-seat-api/internal/backend"
	"github.com/noah-isme/library-seat-api/internal/models"
	appErrors "github.com/noah-isme/library-seat-api/pkg/errors"
	"github.com/noah-isme/library-seat-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

type tokenValidator interface {
	ValidateToken(tokenString string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token. The raw token and the caller
// scope are kept on the request context so backend calls, cached reads and seat locks
// act on behalf of the caller.
func JWT(auth tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}
		token := strings.TrimSpace(parts[1])

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		scope := claims.Scope()
		if scope == "" {
			// anonymous claims: the token is the only thing that tells callers apart
			scope = "token:" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(token)).String()
		}

		c.Set(ContextUserKey, claims)
		ctx := backend.WithScope(backend.WithToken(c.Request.Context(), token), scope)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// CurrentClaims returns the claims stored by JWT, or nil.
func CurrentClaims(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.JWTClaims)
	return claims
}
